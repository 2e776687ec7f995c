package catalog

// registerStockCollections registers the stock-market collections
func registerStockCollections(r *Registry) error {
	collections := []*Collection{
		{
			Name:           "stock_daily",
			Domain:         "stocks",
			Title:          "A-share daily quotes",
			Dataset:        "stock_daily",
			KeyFields:      []string{"symbol", "date"},
			RequiredParams: []string{"symbol"},
			FanoutParam:    "symbol",
		},
		{
			Name:      "stock_quote",
			Domain:    "stocks",
			Title:     "A-share spot quotes",
			Dataset:   "stock_quote",
			KeyFields: []string{"symbol"},
		},
		{
			Name:           "stock_hk_daily",
			Domain:         "stocks",
			Title:          "HK daily quotes",
			Dataset:        "stock_hk_daily",
			KeyFields:      []string{"symbol", "date"},
			RequiredParams: []string{"symbol"},
			FanoutParam:    "symbol",
		},
		{
			Name:           "stock_us_daily",
			Domain:         "stocks",
			Title:          "US daily quotes",
			Dataset:        "stock_us_daily",
			KeyFields:      []string{"symbol", "date"},
			RequiredParams: []string{"symbol"},
			FanoutParam:    "symbol",
		},
		{
			Name:           "stock_financials",
			Domain:         "stocks",
			Title:          "Financial report summaries",
			Dataset:        "stock_financials",
			KeyFields:      []string{"symbol", "report_date"},
			RequiredParams: []string{"symbol"},
			FanoutParam:    "symbol",
		},
		{
			Name:      "stock_esg_rating",
			Domain:    "stocks",
			Title:     "ESG ratings",
			Dataset:   "stock_esg_rating",
			KeyFields: []string{"symbol", "rating_date", "agency"},
		},
	}

	for _, c := range collections {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
