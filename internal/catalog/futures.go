package catalog

// registerFuturesCollections registers the futures-market collections
func registerFuturesCollections(r *Registry) error {
	collections := []*Collection{
		{
			Name:           "futures_daily",
			Domain:         "futures",
			Title:          "Futures contract daily quotes",
			Dataset:        "futures_daily",
			KeyFields:      []string{"symbol", "date"},
			RequiredParams: []string{"symbol"},
			FanoutParam:    "symbol",
		},
		{
			// Broker is an extra discriminator: several brokers report
			// holdings for the same contract and date.
			Name:           "futures_holdings",
			Domain:         "futures",
			Title:          "Futures broker position rankings",
			Dataset:        "futures_holdings",
			KeyFields:      []string{"symbol", "date", "broker"},
			RequiredParams: []string{"date"},
		},
		{
			Name:      "futures_inventory",
			Domain:    "futures",
			Title:     "Exchange warehouse inventory",
			Dataset:   "futures_inventory",
			KeyFields: []string{"symbol", "date"},
		},
	}

	for _, c := range collections {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
