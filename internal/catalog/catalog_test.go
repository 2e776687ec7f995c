package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Validation(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(&Collection{Dataset: "d", KeyFields: []string{"k"}}))
	assert.Error(t, r.Register(&Collection{Name: "n", KeyFields: []string{"k"}}))
	assert.Error(t, r.Register(&Collection{Name: "n", Dataset: "d"}))

	require.NoError(t, r.Register(&Collection{Name: "n", Dataset: "d", KeyFields: []string{"k"}}))
	assert.Error(t, r.Register(&Collection{Name: "n", Dataset: "d2", KeyFields: []string{"k"}}), "duplicate name must be rejected")
}

func TestGet_Unknown(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("missing")
	assert.False(t, ok)
}

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry()
	require.NoError(t, err)

	list := r.List()
	require.NotEmpty(t, list)

	// Sorted by name
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].Name, list[i].Name)
	}

	// Every built-in has a key and a domain
	for _, c := range list {
		assert.NotEmpty(t, c.KeyFields, c.Name)
		assert.NotEmpty(t, c.Domain, c.Name)
		assert.NotEmpty(t, c.Dataset, c.Name)
	}

	assert.ElementsMatch(t, []string{"funds", "futures", "index", "stocks"}, r.Domains())

	daily, ok := r.Get("stock_daily")
	require.True(t, ok)
	assert.Equal(t, []string{"symbol", "date"}, daily.KeyFields)
	assert.Equal(t, "symbol", daily.FanoutParam)

	holdings, ok := r.Get("futures_holdings")
	require.True(t, ok)
	assert.Equal(t, []string{"symbol", "date", "broker"}, holdings.KeyFields)
}

func TestByDomain(t *testing.T) {
	r, err := DefaultRegistry()
	require.NoError(t, err)

	funds := r.ByDomain("funds")
	require.NotEmpty(t, funds)
	for _, c := range funds {
		assert.Equal(t, "funds", c.Domain)
	}

	assert.Empty(t, r.ByDomain("bonds"))
}
