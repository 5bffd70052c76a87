package matching

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSymmetric(t *testing.T, table AdjacencyTable) {
	t.Helper()
	for _, a := range table.Locations() {
		for _, b := range table.Neighbors(a) {
			if !table.IsAdjacent(b, a) {
				t.Errorf("%q lists %q as adjacent but not the other way round", a, b)
			}
		}
	}
}

func TestDefaultAdjacency_Symmetric(t *testing.T) {
	t.Parallel()
	assertSymmetric(t, DefaultAdjacency())
}

func TestDefaultAdjacency_Clusters(t *testing.T) {
	t.Parallel()

	table := DefaultAdjacency()
	assert.ElementsMatch(t, []string{"Rehab", "Madinaty"}, table.Neighbors("New Cairo"))
	assert.ElementsMatch(t, []string{"6th October", "Beverly Hills"}, table.Neighbors("Sheikh Zayed"))
	assert.ElementsMatch(t, []string{"North Coast", "Sidi Abdel Rahman"}, table.Neighbors("Hacienda"))
	assert.Empty(t, table.Neighbors("NAC"))
	assert.Empty(t, table.Neighbors("Atlantis"))
	assert.False(t, table.IsAdjacent("New Cairo", "North Coast"))
	assert.False(t, table.IsAdjacent("New Cairo", "New Cairo"))
}

func TestAdjacency_NeighborsReturnsCopy(t *testing.T) {
	t.Parallel()

	table := DefaultAdjacency()
	n := table.Neighbors("Rehab")
	require.NotEmpty(t, n)
	n[0] = "Mars"
	assert.False(t, table.IsAdjacent("Rehab", "Mars"))
}

func TestNewAdjacencyTable(t *testing.T) {
	t.Parallel()

	table := NewAdjacencyTable(
		[][]string{{"A", "B", "C"}, {"C", "D"}, {"A", "B"}},
		[]string{"E", "A"},
	)
	assertSymmetric(t, table)
	assert.ElementsMatch(t, []string{"B", "C"}, table.Neighbors("A"))
	assert.ElementsMatch(t, []string{"A", "B", "D"}, table.Neighbors("C"))
	assert.Empty(t, table.Neighbors("E"))
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, table.Locations())
}

func TestLoadAdjacencyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "adjacency.yaml")
	content := `clusters:
  - [New Cairo, Rehab]
  - [Maadi, Zahraa El Maadi]
isolated:
  - NAC
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadAdjacencyFile(path)
	require.NoError(t, err)
	assert.True(t, table.IsAdjacent("Maadi", "Zahraa El Maadi"))
	assert.False(t, table.IsAdjacent("New Cairo", "Madinaty"))
	assert.Contains(t, table.Locations(), "NAC")
}

func TestLoadAdjacencyFile_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	table, err := LoadAdjacencyFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, table.IsAdjacent("New Cairo", "Rehab"))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("clusters: [[unterminated"), 0o644))
	table, err = LoadAdjacencyFile(bad)
	require.Error(t, err)
	assert.True(t, table.IsAdjacent("New Cairo", "Rehab"))

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("clusters: []\n"), 0o644))
	_, err = LoadAdjacencyFile(empty)
	require.Error(t, err)
}

func TestShippedAdjacencyFileMatchesDefault(t *testing.T) {
	table, err := LoadAdjacencyFile(filepath.Join("..", "..", "configs", "adjacency.yaml"))
	require.NoError(t, err)

	def := DefaultAdjacency()
	assert.Equal(t, def.Locations(), table.Locations())
	for _, loc := range def.Locations() {
		assert.ElementsMatch(t, def.Neighbors(loc), table.Neighbors(loc), loc)
	}
}
