package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/haidi-ustc/stk/internal/domain/functionalgroup"
	"github.com/haidi-ustc/stk/internal/domain/molecule"
	apperrors "github.com/haidi-ustc/stk/pkg/errors"
	"github.com/haidi-ustc/stk/pkg/types/chem"
)

func TestKey_OrderInvariantMultisetSensitive(t *testing.T) {
	assert.Equal(t,
		NewKey("amine", "aldehyde", "amine"),
		NewKey("amine", "amine", "aldehyde"),
	)
	assert.NotEqual(t,
		NewKey("amine", "aldehyde"),
		NewKey("amine", "aldehyde", "amine"),
	)
	assert.Equal(t, "ReactionKey(aldehydex1,aminex2)", NewKey("amine", "aldehyde", "amine").String())
}

func addAtoms(t *testing.T, m *molecule.Molecule, atoms []int, positions []r3.Vec) {
	t.Helper()
	for id, z := range atoms {
		pos := r3.Vec{}
		if positions != nil {
			pos = positions[id]
		}
		require.NoError(t, m.AddAtom(molecule.NewAtom(id, z), pos))
	}
}

// twoAmines returns a molecule carrying two bare NH2 units and their
// functional groups: N=0 with H=1,2 and N=3 with H=4,5.
func twoAmines(t *testing.T) (*molecule.Molecule, *functionalgroup.Group, *functionalgroup.Group) {
	t.Helper()
	m := molecule.New()
	addAtoms(t, m, []int{7, 1, 1, 7, 1, 1}, nil)
	fg1 := &functionalgroup.Group{
		ID: 0, TypeName: "amine",
		Atoms: []int{0, 1, 2}, Bonders: []int{0}, Deleters: []int{1, 2},
	}
	fg2 := &functionalgroup.Group{
		ID: 1, TypeName: "amine",
		Atoms: []int{3, 4, 5}, Bonders: []int{3}, Deleters: []int{4, 5},
	}
	return m, fg1, fg2
}

func TestReactor_DefaultPairEndToEnd(t *testing.T) {
	m, fg1, fg2 := twoAmines(t)
	rx := New(m)
	require.NoError(t, rx.AddReaction(fg1, fg2))

	// Deletions are staged, not applied: the hydrogens are still
	// addressable and the groups are untouched.
	assert.Equal(t, 6, m.NumAtoms())
	assert.Equal(t, []int{1, 2}, fg1.Deleters)

	made, err := rx.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 1, made)

	assert.Equal(t, []int{0, 3}, m.AtomIDs())
	require.Len(t, m.Bonds(), 1)
	b := m.Bonds()[0]
	assert.Equal(t, chem.SingleBond, b.Order)
	assert.ElementsMatch(t, []int{0, 3}, []int{b.Atom1.ID, b.Atom2.ID})

	committed := rx.Committed(fg1)
	assert.Equal(t, []int{0}, committed.Atoms)
	assert.Empty(t, committed.Deleters)
	// The original group object was never mutated.
	assert.Equal(t, []int{0, 1, 2}, fg1.Atoms)
}

func TestReactor_BondOrderOverride(t *testing.T) {
	m := molecule.New()
	addAtoms(t, m, []int{7, 1, 1, 6, 8, 1}, nil)
	amine := &functionalgroup.Group{
		TypeName: "amine",
		Atoms:    []int{0, 1, 2}, Bonders: []int{0}, Deleters: []int{1, 2},
	}
	aldehyde := &functionalgroup.Group{
		TypeName: "aldehyde",
		Atoms:    []int{3, 4, 5}, Bonders: []int{3}, Deleters: []int{4},
	}
	rx := New(m)
	require.NoError(t, rx.AddReaction(amine, aldehyde))
	made, err := rx.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 1, made)
	require.Len(t, m.Bonds(), 1)
	assert.Equal(t, chem.DoubleBond, m.Bonds()[0].Order)
	// Deleted: both amine hydrogens and the aldehyde oxygen.
	assert.Equal(t, []int{0, 3, 5}, m.AtomIDs())
}

func TestReactor_PeriodicDefaultPair(t *testing.T) {
	m, fg1, fg2 := twoAmines(t)
	rx := New(m)
	require.NoError(t, rx.AddPeriodicReaction(chem.CellDirection{1, 0, 0}, fg1, fg2))
	made, err := rx.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 1, made)
	require.Len(t, m.Bonds(), 1)
	b := m.Bonds()[0]
	require.True(t, b.IsPeriodic())
	assert.Equal(t, chem.CellDirection{1, 0, 0}, *b.Periodicity)
}

func TestReactor_ArityAndMissingBonder(t *testing.T) {
	m, fg1, fg2 := twoAmines(t)
	rx := New(m)

	err := rx.AddReaction(fg1, fg2, &functionalgroup.Group{TypeName: "amine"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeReactionArity))

	bare := &functionalgroup.Group{TypeName: "alcohol", Atoms: []int{0}}
	err = rx.AddReaction(fg1, bare)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMissingBonder))
}

func TestReactor_FinalizedIsTerminal(t *testing.T) {
	m, fg1, fg2 := twoAmines(t)
	rx := New(m)
	require.NoError(t, rx.AddReaction(fg1, fg2))
	_, err := rx.Finalize()
	require.NoError(t, err)

	err = rx.AddReaction(fg1, fg2)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeReactorFinalized))
	err = rx.AddPeriodicReaction(chem.CellDirection{1, 0, 0}, fg1, fg2)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeReactorFinalized))
	_, err = rx.Finalize()
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeReactorFinalized))
}

// diolDibromine builds a molecule where the dibromine carbons are
// C=0,1 and the diol oxygens are O=2,3, with bromines Br=4,5 and
// hydroxyl hydrogens H=6,7 present as deleter atoms.
func diolDibromine(t *testing.T, positions []r3.Vec) (*molecule.Molecule, *functionalgroup.Group, *functionalgroup.Group) {
	t.Helper()
	m := molecule.New()
	addAtoms(t, m, []int{6, 6, 8, 8, 35, 35, 1, 1}, positions)
	diol := &functionalgroup.Group{
		TypeName: "diol",
		Atoms:    []int{2, 3, 6, 7}, Bonders: []int{2, 3}, Deleters: []int{6, 7},
	}
	dibromine := &functionalgroup.Group{
		TypeName: "dibromine",
		Atoms:    []int{0, 1, 4, 5}, Bonders: []int{0, 1}, Deleters: []int{4, 5},
	}
	return m, diol, dibromine
}

func TestDihalogenPairing_ClosestPairs(t *testing.T) {
	m, diol, dibromine := diolDibromine(t, []r3.Vec{
		{X: 0}, {X: 1},
		{X: 0, Y: 1}, {X: 1, Y: 1},
		{X: 0, Y: -1}, {X: 1, Y: -1},
		{X: 0, Y: 2}, {X: 1, Y: 2},
	})
	rx := New(m)
	require.NoError(t, rx.AddReaction(diol, dibromine))
	made, err := rx.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 2, made)

	require.Len(t, m.Bonds(), 2)
	got := map[[2]int]bool{}
	for _, b := range m.Bonds() {
		assert.Equal(t, chem.SingleBond, b.Order)
		got[[2]int{b.Atom1.ID, b.Atom2.ID}] = true
	}
	assert.True(t, got[[2]int{0, 2}])
	assert.True(t, got[[2]int{1, 3}])

	// This reaction stages no deletions: every atom survives,
	// bromines and hydroxyl hydrogens included.
	assert.Equal(t, 8, m.NumAtoms())
}

func TestDihalogenPairing_GreedyNotOptimal(t *testing.T) {
	// On a line: C0=0, O2=1, C1=2.2, O3=-1.1. Greedy picks (C0,O2)
	// first and is then forced into the distant (C1,O3) pair, even
	// though the crossed assignment has a smaller total distance.
	m, diol, dibromine := diolDibromine(t, []r3.Vec{
		{X: 0}, {X: 2.2},
		{X: 1}, {X: -1.1},
		{Y: 5}, {Y: 5}, {Y: 5}, {Y: 5},
	})
	rx := New(m)
	require.NoError(t, rx.AddReaction(diol, dibromine))

	got := map[[2]int]bool{}
	for _, b := range m.Bonds() {
		got[[2]int{b.Atom1.ID, b.Atom2.ID}] = true
	}
	assert.True(t, got[[2]int{0, 2}])
	assert.True(t, got[[2]int{1, 3}])
}

func TestDihalogenPairing_Degenerate(t *testing.T) {
	m, diol, dibromine := diolDibromine(t, nil)
	diol.Bonders = []int{2}
	rx := New(m)
	err := rx.AddReaction(diol, dibromine)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDegenerateReaction))
}

func TestBoronicAcidWithDiol(t *testing.T) {
	m := molecule.New()
	// B=0 with hydroxyl O=1,2 and H=3,4; diol O=5,6 with H=7,8.
	addAtoms(t, m, []int{5, 8, 8, 1, 1, 8, 8, 1, 1}, nil)
	boron := &functionalgroup.Group{
		TypeName: "boronic_acid",
		Atoms:    []int{0, 1, 2, 3, 4}, Bonders: []int{0}, Deleters: []int{1, 2, 3, 4},
	}
	diol := &functionalgroup.Group{
		TypeName: "diol",
		Atoms:    []int{5, 6, 7, 8}, Bonders: []int{5, 6}, Deleters: []int{7, 8},
	}
	rx := New(m)
	require.NoError(t, rx.AddReaction(diol, boron))
	made, err := rx.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 2, made)

	// Boron bonds to both diol oxygens; every deleter is gone.
	assert.Equal(t, []int{0, 5, 6}, m.AtomIDs())
	require.Len(t, m.Bonds(), 2)
	for _, b := range m.Bonds() {
		assert.Equal(t, 0, b.Atom1.ID)
	}
	assert.ElementsMatch(t,
		[]int{5, 6},
		[]int{m.Bonds()[0].Atom2.ID, m.Bonds()[1].Atom2.ID},
	)
}

func TestRingAmineBridge(t *testing.T) {
	m := molecule.New()
	// First group: N=0 at origin, C=1. Second group: N=2, C=3.
	addAtoms(t, m, []int{7, 6, 7, 6}, []r3.Vec{
		{}, {X: 1}, {Y: 2}, {X: 1, Y: 2},
	})
	fg1 := &functionalgroup.Group{TypeName: "ring_amine", Bonders: []int{0, 1}}
	fg2 := &functionalgroup.Group{TypeName: "ring_amine", Bonders: []int{2, 3}}

	rx := New(m)
	require.NoError(t, rx.AddReaction(fg1, fg2))
	made, err := rx.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 12, made)

	assert.Equal(t, 13, m.NumAtoms())
	assert.Len(t, m.Bonds(), 12)

	// The central bridge nitrogen sits midway between the two amine
	// nitrogens, with its hydrogens offset along z.
	assert.Equal(t, 7, m.AtomicNumber(4))
	center, _ := m.Position(4)
	assert.Equal(t, r3.Vec{Y: 1}, center)
	h1, _ := m.Position(5)
	h2, _ := m.Position(6)
	assert.Equal(t, r3.Vec{Y: 1, Z: 1}, h1)
	assert.Equal(t, r3.Vec{Y: 1, Z: -1}, h2)

	// The two bridging carbons interpolate across the groups.
	assert.Equal(t, 6, m.AtomicNumber(7))
	c1mid, _ := m.Position(7)
	assert.Equal(t, r3.Vec{X: 0.5, Y: 1}, c1mid)
	assert.Equal(t, 6, m.AtomicNumber(10))
	c2mid, _ := m.Position(10)
	assert.Equal(t, r3.Vec{X: 0.5, Y: 1}, c2mid)

	// Anchored to the originals: N0 and N2 bond to the bridge N.
	_, ok := m.BondOrderBetween(0, 4)
	assert.True(t, ok)
	_, ok = m.BondOrderBetween(2, 4)
	assert.True(t, ok)
}

func TestReactor_BondsMadeSumsAcrossCalls(t *testing.T) {
	m := molecule.New()
	addAtoms(t, m, []int{7, 1, 1, 7, 1, 1, 7, 1, 1, 7, 1, 1}, nil)
	mk := func(n int) *functionalgroup.Group {
		return &functionalgroup.Group{
			TypeName: "amine",
			Atoms:    []int{n, n + 1, n + 2}, Bonders: []int{n}, Deleters: []int{n + 1, n + 2},
		}
	}
	rx := New(m)
	require.NoError(t, rx.AddReaction(mk(0), mk(3)))
	require.NoError(t, rx.AddReaction(mk(6), mk(9)))
	assert.Equal(t, 2, rx.BondsMade())
	made, err := rx.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 2, made)
}
