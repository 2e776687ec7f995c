package models

import (
	"fmt"
	"strings"
	"time"
)

// Row is one flat key-value row as returned by the provider
type Row map[string]interface{}

// StoredRecord is one persisted observation in a collection. The document
// shape is collection-specific; Fields carries whatever the provider
// returned. ID is derived from the collection name plus the composite
// natural key, so repeated refreshes upsert instead of duplicating.
type StoredRecord struct {
	ID         string                 `json:"id"`
	Collection string                 `json:"collection"`
	Key        string                 `json:"key"`
	Fields     map[string]interface{} `json:"fields"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// RecordKey builds the composite natural key for a row from the given key
// fields. Returns an error if any key field is missing or empty.
func RecordKey(row Row, keyFields []string) (string, error) {
	parts := make([]string, 0, len(keyFields))
	for _, field := range keyFields {
		value, ok := row[field]
		if !ok || value == nil {
			return "", fmt.Errorf("row missing key field %q", field)
		}
		s := fmt.Sprintf("%v", value)
		if s == "" {
			return "", fmt.Errorf("row has empty key field %q", field)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ":"), nil
}

// RecordID builds the storage document ID for a row in a collection
func RecordID(collection, key string) string {
	return collection + "/" + key
}
