package matching

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Budget tolerance band around a buyer's stated budget.
const (
	BudgetLowerTolerance = 0.82
	BudgetUpperTolerance = 1.18
)

// AdjacencyConfig is the on-disk form of an adjacency table.
type AdjacencyConfig struct {
	Clusters [][]string `yaml:"clusters"`
	Isolated []string   `yaml:"isolated"`
}

// LoadAdjacencyFile reads clusters from a YAML file, falling back to the
// built-in table on read or parse errors.
func LoadAdjacencyFile(path string) (AdjacencyTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return DefaultAdjacency(), fmt.Errorf("read adjacency file: %w", err)
	}
	var cfg AdjacencyConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return DefaultAdjacency(), fmt.Errorf("unmarshal adjacency: %w", err)
	}
	if len(cfg.Clusters) == 0 && len(cfg.Isolated) == 0 {
		return DefaultAdjacency(), fmt.Errorf("adjacency file %q defines no locations", path)
	}
	return NewAdjacencyTable(cfg.Clusters, cfg.Isolated), nil
}
