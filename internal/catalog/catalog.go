// Package catalog holds the registry of named data collections. Adding a
// collection means registering a descriptor here; nothing in the dispatch
// path needs to change.
package catalog

import (
	"fmt"
	"sort"
	"sync"
)

// Collection describes one named data collection: where its rows come from,
// what identifies a row, and what parameters a refresh requires.
type Collection struct {
	// Name is the unique collection name used in URLs and storage
	Name string
	// Domain groups collections for routing (stocks, futures, funds, index)
	Domain string
	// Title is a human-readable description
	Title string
	// Dataset is the provider dataset name backing this collection
	Dataset string
	// KeyFields form the composite natural key for upserts
	KeyFields []string
	// RequiredParams must be present in a refresh request
	RequiredParams []string
	// FanoutParam, when set, names the parameter whose comma-separated
	// values a batch refresh fans out over (one fetch per value)
	FanoutParam string
}

// Registry maps collection names to descriptors. Registration happens at
// startup; lookups are read-only afterwards.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Collection
}

// NewRegistry creates an empty collection registry
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Collection),
	}
}

// Register adds a collection descriptor. Duplicate names and descriptors
// without key fields are rejected.
func (r *Registry) Register(c *Collection) error {
	if c.Name == "" {
		return fmt.Errorf("collection name is required")
	}
	if c.Dataset == "" {
		return fmt.Errorf("collection %s: dataset is required", c.Name)
	}
	if len(c.KeyFields) == 0 {
		return fmt.Errorf("collection %s: key fields are required", c.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[c.Name]; exists {
		return fmt.Errorf("collection %s already registered", c.Name)
	}
	r.byName[c.Name] = c
	return nil
}

// Get returns the collection descriptor for a name
func (r *Registry) Get(name string) (*Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byName[name]
	return c, ok
}

// List returns all collections sorted by name
func (r *Registry) List() []*Collection {
	r.mu.RLock()
	result := make([]*Collection, 0, len(r.byName))
	for _, c := range r.byName {
		result = append(result, c)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// ByDomain returns all collections in a domain sorted by name
func (r *Registry) ByDomain(domain string) []*Collection {
	result := []*Collection{}
	for _, c := range r.List() {
		if c.Domain == domain {
			result = append(result, c)
		}
	}
	return result
}

// Domains returns the distinct domain names, sorted
func (r *Registry) Domains() []string {
	seen := map[string]bool{}
	domains := []string{}
	for _, c := range r.List() {
		if !seen[c.Domain] {
			seen[c.Domain] = true
			domains = append(domains, c.Domain)
		}
	}
	sort.Strings(domains)
	return domains
}

// DefaultRegistry builds the registry with all built-in collections
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()

	for _, register := range []func(*Registry) error{
		registerStockCollections,
		registerFuturesCollections,
		registerFundCollections,
		registerIndexCollections,
	} {
		if err := register(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}
