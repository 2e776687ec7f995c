package catalog

// registerIndexCollections registers the market-index collections
func registerIndexCollections(r *Registry) error {
	collections := []*Collection{
		{
			Name:           "index_daily",
			Domain:         "index",
			Title:          "Index daily quotes",
			Dataset:        "index_daily",
			KeyFields:      []string{"symbol", "date"},
			RequiredParams: []string{"symbol"},
			FanoutParam:    "symbol",
		},
		{
			Name:           "index_constituents",
			Domain:         "index",
			Title:          "Index constituent weights",
			Dataset:        "index_constituents",
			KeyFields:      []string{"index_code", "stock_code", "date"},
			RequiredParams: []string{"index_code"},
		},
	}

	for _, c := range collections {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
