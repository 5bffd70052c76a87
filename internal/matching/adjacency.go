package matching

import (
	"slices"
	"sort"
)

// AdjacencyTable maps a location to the locations considered close enough to
// stand in for it. A table is never modified after it is built.
type AdjacencyTable struct {
	neighbors map[string][]string
}

var defaultAdjacency = AdjacencyTable{neighbors: map[string][]string{
	"New Cairo": {"Rehab", "Madinaty"},
	"Rehab":     {"New Cairo", "Madinaty"},
	"Madinaty":  {"New Cairo", "Rehab"},

	"6th October":   {"Sheikh Zayed", "Beverly Hills"},
	"Sheikh Zayed":  {"6th October", "Beverly Hills"},
	"Beverly Hills": {"6th October", "Sheikh Zayed"},

	"North Coast":       {"Sidi Abdel Rahman", "Hacienda"},
	"Sidi Abdel Rahman": {"North Coast", "Hacienda"},
	"Hacienda":          {"North Coast", "Sidi Abdel Rahman"},

	"NAC":        {},
	"Downtown":   {},
	"Zamalek":    {},
	"Heliopolis": {},
}}

// DefaultAdjacency returns the built-in Greater Cairo and North Coast clusters.
func DefaultAdjacency() AdjacencyTable {
	return defaultAdjacency
}

// NewAdjacencyTable makes every location in a cluster adjacent to every other
// location of the same cluster. Isolated locations are known but have no
// neighbours. A location listed in several clusters collects all of them.
func NewAdjacencyTable(clusters [][]string, isolated []string) AdjacencyTable {
	n := make(map[string][]string)
	for _, loc := range isolated {
		if _, ok := n[loc]; !ok {
			n[loc] = []string{}
		}
	}
	for _, cluster := range clusters {
		for _, a := range cluster {
			if a == "" {
				continue
			}
			if _, ok := n[a]; !ok {
				n[a] = []string{}
			}
			for _, b := range cluster {
				if b == "" || b == a || slices.Contains(n[a], b) {
					continue
				}
				n[a] = append(n[a], b)
			}
		}
	}
	return AdjacencyTable{neighbors: n}
}

// Neighbors returns a copy of the locations adjacent to loc. Unknown locations
// have none.
func (t AdjacencyTable) Neighbors(loc string) []string {
	return slices.Clone(t.neighbors[loc])
}

// IsAdjacent reports whether to is listed as a neighbour of from. The lookup is
// one-directional.
func (t AdjacencyTable) IsAdjacent(from, to string) bool {
	return slices.Contains(t.neighbors[from], to)
}

// Locations lists every location the table knows about, sorted.
func (t AdjacencyTable) Locations() []string {
	out := make([]string, 0, len(t.neighbors))
	for loc := range t.neighbors {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}
