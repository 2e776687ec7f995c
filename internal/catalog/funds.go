package catalog

// registerFundCollections registers the fund collections
func registerFundCollections(r *Registry) error {
	collections := []*Collection{
		{
			Name:           "fund_nav",
			Domain:         "funds",
			Title:          "Fund net asset values",
			Dataset:        "fund_nav",
			KeyFields:      []string{"code", "date"},
			RequiredParams: []string{"code"},
			FanoutParam:    "code",
		},
		{
			Name:           "fund_holdings",
			Domain:         "funds",
			Title:          "Fund portfolio holdings",
			Dataset:        "fund_holdings",
			KeyFields:      []string{"code", "report_date", "stock_code"},
			RequiredParams: []string{"code"},
			FanoutParam:    "code",
		},
		{
			Name:      "fund_info",
			Domain:    "funds",
			Title:     "Fund master data",
			Dataset:   "fund_info",
			KeyFields: []string{"code"},
		},
	}

	for _, c := range collections {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
