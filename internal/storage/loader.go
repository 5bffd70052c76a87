package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/denisok6893-rgb/leadqual/internal/domain"
)

// LoadPropertiesFromFile reads seed listings from a JSON array. Entries without
// a known type or status are rejected so bad seed data never reaches matching.
func LoadPropertiesFromFile(path string) ([]domain.Property, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read properties file: %w", err)
	}

	var props []domain.Property
	if err := json.Unmarshal(b, &props); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}
	for i, p := range props {
		if !p.Type.Valid() {
			return nil, fmt.Errorf("property %d (%s): unknown type %q", i, p.ID, p.Type)
		}
		if p.Status != "" && !p.Status.Valid() {
			return nil, fmt.Errorf("property %d (%s): unknown status %q", i, p.ID, p.Status)
		}
	}
	return props, nil
}
