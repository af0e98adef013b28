package construction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/haidi-ustc/stk/internal/domain/functionalgroup"
	"github.com/haidi-ustc/stk/internal/domain/molecule"
	apperrors "github.com/haidi-ustc/stk/pkg/errors"
	"github.com/haidi-ustc/stk/pkg/types/chem"
)

func testFinder() *functionalgroup.Finder {
	return functionalgroup.NewFinder(functionalgroup.DefaultRegistry())
}

func buildMol(t *testing.T, atomicNumbers []int, positions []r3.Vec, bonds [][2]int) *molecule.Molecule {
	t.Helper()
	m := molecule.New()
	for id, z := range atomicNumbers {
		require.NoError(t, m.AddAtom(molecule.NewAtom(id, z), positions[id]))
	}
	for _, b := range bonds {
		a1, _ := m.Atom(b[0])
		a2, _ := m.Atom(b[1])
		require.NoError(t, m.AddBond(molecule.NewBond(a1, a2, chem.SingleBond)))
	}
	return m
}

// diamine returns an ethylenediamine building block: an amine group on
// each chain end. N=0, C=1,2, N=3, amine H=4,5 and 10,11.
func diamine(t *testing.T) *BuildingBlock {
	t.Helper()
	m := buildMol(t,
		[]int{7, 6, 6, 7, 1, 1, 1, 1, 1, 1, 1, 1},
		[]r3.Vec{
			{}, {X: 1.5}, {X: 3}, {X: 4.5},
			{Y: 1}, {Y: -1},
			{X: 1.5, Y: 1}, {X: 1.5, Y: -1},
			{X: 3, Y: 1}, {X: 3, Y: -1},
			{X: 4.5, Y: 1}, {X: 4.5, Y: -1},
		},
		[][2]int{
			{0, 1}, {1, 2}, {2, 3},
			{0, 4}, {0, 5}, {1, 6}, {1, 7}, {2, 8}, {2, 9}, {3, 10}, {3, 11},
		},
	)
	bb, err := NewBuildingBlock("diamine", m, []string{"amine"}, testFinder())
	require.NoError(t, err)
	return bb
}

// glycolBlock returns an ethylene glycol building block carrying one
// diol group. O=0,1, C=2,3, hydroxyl H=4,5, methylene H=6..9.
func glycolBlock(t *testing.T) *BuildingBlock {
	t.Helper()
	m := buildMol(t,
		[]int{8, 8, 6, 6, 1, 1, 1, 1, 1, 1},
		[]r3.Vec{
			{Y: 1}, {X: 1, Y: 1}, {}, {X: 1},
			{Y: 2}, {X: 1, Y: 2},
			{Z: 1}, {Z: -1}, {X: 1, Z: 1}, {X: 1, Z: -1},
		},
		[][2]int{
			{0, 2}, {1, 3}, {2, 3},
			{0, 4}, {1, 5}, {2, 6}, {2, 7}, {3, 8}, {3, 9},
		},
	)
	bb, err := NewBuildingBlock("glycol", m, []string{"diol"}, testFinder())
	require.NoError(t, err)
	return bb
}

// dibromoBlock returns a 1,2-dibromoethane building block carrying one
// dibromine group. C=0,1, Br=2,3, H=4..7.
func dibromoBlock(t *testing.T) *BuildingBlock {
	t.Helper()
	m := buildMol(t,
		[]int{6, 6, 35, 35, 1, 1, 1, 1},
		[]r3.Vec{
			{}, {X: 1}, {Y: -1}, {X: 1, Y: -1},
			{Z: 1}, {Z: -1}, {X: 1, Z: 1}, {X: 1, Z: -1},
		},
		[][2]int{
			{0, 1}, {0, 2}, {1, 3},
			{0, 4}, {0, 5}, {1, 6}, {1, 7},
		},
	)
	bb, err := NewBuildingBlock("dibromoethane", m, []string{"dibromine"}, testFinder())
	require.NoError(t, err)
	return bb
}

func TestBuildingBlock_Identity(t *testing.T) {
	a := diamine(t)
	b := diamine(t)
	assert.Equal(t, a.IdentityKey(), b.IdentityKey())
	assert.NotEqual(t, a.IdentityKey(), glycolBlock(t).IdentityKey())
	require.Len(t, a.FunctionalGroups(), 2)
	assert.Equal(t, []int{0}, a.FunctionalGroups()[0].Bonders)
	assert.Equal(t, []int{3}, a.FunctionalGroups()[1].Bonders)
}

func TestBuildingBlock_UnknownGroupName(t *testing.T) {
	m := buildMol(t, []int{6}, []r3.Vec{{}}, nil)
	_, err := NewBuildingBlock("c", m, []string{"nope"}, testFinder())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnknownFunctionalGroup))
	// The failed lookup leaves the molecule untouched.
	assert.Equal(t, 1, m.NumAtoms())
	assert.Equal(t, 0, m.NumBonds())
}

func TestParseTopology(t *testing.T) {
	top, err := ParseTopology("linear:AB:3")
	require.NoError(t, err)
	assert.Equal(t, Linear{Repeat: "AB", Count: 3}, top)
	assert.Equal(t, "linear:AB:3", top.Descriptor())

	top, err = ParseTopology("linear:A:2:periodic")
	require.NoError(t, err)
	assert.Equal(t, Linear{Repeat: "A", Count: 2, Periodic: true}, top)

	top, err = ParseTopology("cyclic:AB:2")
	require.NoError(t, err)
	assert.Equal(t, Cyclic{Repeat: "AB", Count: 2}, top)

	for _, bad := range []string{
		"", "linear", "linear:AB", "linear:AB:0", "linear:ab:2",
		"linear:A:2:sideways", "cyclic:A:2:periodic", "helix:A:2",
	} {
		_, err := ParseTopology(bad)
		require.Error(t, err, "descriptor %q", bad)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidTopology), "descriptor %q", bad)
	}
}

func TestNew_LinearDiaminePolymer(t *testing.T) {
	bb := diamine(t)
	cm, err := New([]*BuildingBlock{bb}, Linear{Repeat: "A", Count: 2})
	require.NoError(t, err)

	// One chain bond, four amine hydrogens deleted.
	assert.Equal(t, 1, cm.BondsMade())
	assert.Equal(t, 20, cm.Molecule().NumAtoms())
	assert.Equal(t, 2, cm.Count(bb))
	require.Len(t, cm.BuildingBlocks(), 1)

	// The reacted tail group of unit one is depleted; the unreacted
	// head group still holds its deleters.
	groups := cm.FunctionalGroups()
	require.Len(t, groups, 4)
	for i, fg := range groups {
		assert.Equal(t, i, fg.ID)
	}
	assert.Equal(t, []int{4, 5}, groups[0].Deleters)
	assert.Empty(t, groups[1].Deleters)
	assert.Equal(t, []int{3}, groups[1].Atoms)

	// The new bond joins the two amine nitrogens across the units.
	_, ok := cm.Molecule().BondOrderBetween(3, 12)
	assert.True(t, ok)
}

func TestNew_CyclicClosesTheChain(t *testing.T) {
	bb := diamine(t)
	cm, err := New([]*BuildingBlock{bb}, Cyclic{Repeat: "A", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, cm.BondsMade())
	// All eight amine hydrogens are gone.
	assert.Equal(t, 16, cm.Molecule().NumAtoms())
	for _, fg := range cm.FunctionalGroups() {
		assert.Empty(t, fg.Deleters)
	}
}

func TestNew_PeriodicLinear(t *testing.T) {
	bb := diamine(t)
	cm, err := New([]*BuildingBlock{bb}, Linear{Repeat: "A", Count: 2, Periodic: true})
	require.NoError(t, err)
	assert.Equal(t, 2, cm.BondsMade())

	periodic := 0
	for _, b := range cm.Molecule().Bonds() {
		if b.IsPeriodic() {
			periodic++
			assert.Equal(t, chem.CellDirection{1, 0, 0}, *b.Periodicity)
		}
	}
	assert.Equal(t, 1, periodic)
}

func TestNew_DiolDibromineChain(t *testing.T) {
	glycol := glycolBlock(t)
	dibromo := dibromoBlock(t)
	cm, err := New([]*BuildingBlock{glycol, dibromo}, Linear{Repeat: "AB", Count: 1})
	require.NoError(t, err)

	// The custom pairing makes two bonds and deletes nothing.
	assert.Equal(t, 2, cm.BondsMade())
	assert.Equal(t, 18, cm.Molecule().NumAtoms())
	assert.Equal(t, 1, cm.Count(glycol))
	assert.Equal(t, 1, cm.Count(dibromo))

	// Each new bond joins a distinct halogen carbon to a distinct
	// hydroxyl oxygen.
	carbons := map[int]bool{}
	oxygens := map[int]bool{}
	for _, b := range cm.Molecule().Bonds() {
		pair := []int{b.Atom1.ID, b.Atom2.ID}
		if (pair[0] == 10 || pair[0] == 11) && (pair[1] == 0 || pair[1] == 1) {
			carbons[pair[0]] = true
			oxygens[pair[1]] = true
		}
	}
	assert.Len(t, carbons, 2)
	assert.Len(t, oxygens, 2)
}

func TestNew_FailureCarriesContext(t *testing.T) {
	bb := diamine(t)
	_, err := New([]*BuildingBlock{bb}, Linear{Repeat: "B", Count: 1})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConstructionFailed))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidTopology))

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Contains(t, appErr.Detail, "linear:B:1")
	assert.Contains(t, appErr.Detail, "diamine")
}

func TestCacheKey_IgnoresBlockOrderAndDuplicates(t *testing.T) {
	a := diamine(t)
	b := glycolBlock(t)
	top := Linear{Repeat: "AB", Count: 1}
	assert.Equal(t,
		CacheKey([]*BuildingBlock{a, b}, top),
		CacheKey([]*BuildingBlock{b, a, b}, top),
	)
	assert.NotEqual(t,
		CacheKey([]*BuildingBlock{a, b}, top),
		CacheKey([]*BuildingBlock{a, b}, Linear{Repeat: "AB", Count: 2}),
	)
}

func TestCache_PutGetEvict(t *testing.T) {
	bb := diamine(t)
	first, err := New([]*BuildingBlock{bb}, Linear{Repeat: "A", Count: 2})
	require.NoError(t, err)
	second, err := New([]*BuildingBlock{bb}, Linear{Repeat: "A", Count: 3})
	require.NoError(t, err)

	c := NewCache(1)
	c.Put(first)
	got, ok := c.Get(first.CacheKey())
	require.True(t, ok)
	assert.Same(t, first, got)

	// Capacity 1: storing the second molecule evicts the first.
	c.Put(second)
	_, ok = c.Get(first.CacheKey())
	assert.False(t, ok)
	_, ok = c.Get(second.CacheKey())
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())

	assert.True(t, c.Evict(second.CacheKey()))
	assert.False(t, c.Evict(second.CacheKey()))
	assert.Equal(t, 0, c.Len())
}

func TestAddConformer_RollbackOnMismatch(t *testing.T) {
	bb := diamine(t)
	cm, err := New([]*BuildingBlock{bb}, Linear{Repeat: "A", Count: 2})
	require.NoError(t, err)
	require.Equal(t, 1, cm.NumConformers())

	idx, err := cm.AddConformer([]*BuildingBlock{diamine(t)})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, cm.NumConformers())

	rows, err := cm.Conformer(1)
	require.NoError(t, err)
	assert.Len(t, rows, cm.Molecule().NumAtoms())

	// A structurally different block is rejected and nothing changes.
	_, err = cm.AddConformer([]*BuildingBlock{glycolBlock(t)})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConformerMismatch))
	assert.Equal(t, 2, cm.NumConformers())

	_, err = cm.Conformer(5)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConformerMismatch))
}

func TestDocumentRoundTrip(t *testing.T) {
	bb := diamine(t)
	cm, err := New([]*BuildingBlock{bb}, Linear{Repeat: "A", Count: 2})
	require.NoError(t, err)

	doc := cm.ToDocument()
	assert.Equal(t, "linear:A:2", doc.Topology)
	assert.Equal(t, 1, doc.BondsMade)
	assert.Equal(t, map[string]int{"diamine": 2}, doc.BuildingBlockCounts)
	require.Len(t, doc.Conformers, 1)
	assert.Len(t, doc.Conformers[0], cm.Molecule().NumAtoms())

	restored, err := FromDocument(doc, testFinder())
	require.NoError(t, err)
	assert.Equal(t, cm.ID(), restored.ID())
	assert.Equal(t, cm.CacheKey(), restored.CacheKey())
	assert.Equal(t, cm.BondsMade(), restored.BondsMade())
	assert.Equal(t, cm.Molecule().NumAtoms(), restored.Molecule().NumAtoms())
	assert.Equal(t, cm.Molecule().NumBonds(), restored.Molecule().NumBonds())
	assert.Equal(t, len(cm.FunctionalGroups()), len(restored.FunctionalGroups()))
	assert.Equal(t, 2, restored.Count(restored.BuildingBlocks()[0]))
}

func TestInMemoryRepository(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	bb := diamine(t)
	cm, err := New([]*BuildingBlock{bb}, Linear{Repeat: "A", Count: 2})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, cm.ToDocument()))

	doc, err := repo.Load(ctx, cm.ID())
	require.NoError(t, err)
	assert.Equal(t, cm.ID(), doc.ID)

	_, err = repo.Load(ctx, "missing")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMoleculeNotFound))
}
