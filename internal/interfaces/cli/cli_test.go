package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconstruction "github.com/haidi-ustc/stk/internal/application/construction"
	"github.com/haidi-ustc/stk/pkg/types/chem"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeDiamineFile(t *testing.T) string {
	t.Helper()
	elements := []string{"N", "C", "C", "N", "H", "H", "H", "H", "H", "H", "H", "H"}
	atoms := make([]chem.AtomDocument, len(elements))
	for i, el := range elements {
		atoms[i] = chem.AtomDocument{ID: i, Element: el}
	}
	doc := chem.BuildingBlockDocument{
		Name:             "diamine",
		FunctionalGroups: []string{"amine"},
		Atoms:            atoms,
		Bonds: []chem.BondDocument{
			{Atom1: 0, Atom2: 1, Order: 1},
			{Atom1: 1, Atom2: 2, Order: 1},
			{Atom1: 2, Atom2: 3, Order: 1},
			{Atom1: 0, Atom2: 4, Order: 1},
			{Atom1: 0, Atom2: 5, Order: 1},
			{Atom1: 1, Atom2: 6, Order: 1},
			{Atom1: 1, Atom2: 7, Order: 1},
			{Atom1: 2, Atom2: 8, Order: 1},
			{Atom1: 2, Atom2: 9, Order: 1},
			{Atom1: 3, Atom2: 10, Order: 1},
			{Atom1: 3, Atom2: 11, Order: 1},
		},
		Coordinates: [][3]float64{
			{0, 0, 0}, {1.5, 0, 0}, {3, 0, 0}, {4.5, 0, 0},
			{0, 1, 0}, {0, -1, 0},
			{1.5, 1, 0}, {1.5, -1, 0},
			{3, 1, 0}, {3, -1, 0},
			{4.5, 1, 0}, {4.5, -1, 0},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "diamine.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestTypesCommand(t *testing.T) {
	out, err := execute(t, "types")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "amine")
	assert.Contains(t, out, "boronic_acid")
}

func TestTypesCommand_JSON(t *testing.T) {
	out, err := execute(t, "types", "--json")
	require.NoError(t, err)

	var infos []appconstruction.GroupTypeInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	assert.Len(t, infos, 19)
}

func TestConstructCommand(t *testing.T) {
	path := writeDiamineFile(t)

	out, err := execute(t, "construct", path, "--topology", "linear:A:2")
	require.NoError(t, err)

	var doc chem.ConstructedMoleculeDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "linear:A:2", doc.Topology)
	assert.Equal(t, 1, doc.BondsMade)
	assert.Len(t, doc.Atoms, 20)
	assert.Equal(t, map[string]int{"diamine": 2}, doc.BuildingBlockCounts)
}

func TestConstructCommand_Summary(t *testing.T) {
	path := writeDiamineFile(t)

	out, err := execute(t, "construct", path, "--topology", "linear:A:3", "--summary")
	require.NoError(t, err)
	assert.Contains(t, out, "topology=linear:A:3")
	assert.Contains(t, out, "bonds_made=2")
}

func TestConstructCommand_WritesFile(t *testing.T) {
	path := writeDiamineFile(t)
	outPath := filepath.Join(t.TempDir(), "polymer.json")

	out, err := execute(t, "construct", path, "--topology", "linear:A:2", "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var doc chem.ConstructedMoleculeDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 1, doc.BondsMade)
}

func TestConstructCommand_MissingTopology(t *testing.T) {
	path := writeDiamineFile(t)
	_, err := execute(t, "construct", path)
	require.Error(t, err)
}

func TestConstructCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "construct", "/does/not/exist.json", "--topology", "linear:A:2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/does/not/exist.json")
}

func TestConstructCommand_MalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := execute(t, "construct", path, "--topology", "linear:A:2")
	require.Error(t, err)
}

func TestFormatTable(t *testing.T) {
	out := FormatTable(
		[]string{"A", "LONG"},
		[][]string{{"xx", "y"}, {"z", "wwwww"}},
	)
	assert.Contains(t, out, "A   LONG")
	assert.Contains(t, out, "--  -----")
	assert.Contains(t, out, "xx  y")
}
