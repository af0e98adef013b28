package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/haidi-ustc/stk/pkg/types/chem"
)

func TestElementLookup(t *testing.T) {
	c, err := ElementByNumber(6)
	require.NoError(t, err)
	assert.Equal(t, "C", c.Symbol)
	assert.InDelta(t, 12.011, c.Mass, 1e-9)

	br, err := ElementBySymbol("Br")
	require.NoError(t, err)
	assert.Equal(t, 35, br.AtomicNumber)

	_, err = ElementByNumber(0)
	assert.Error(t, err)
	_, err = ElementBySymbol("Xx")
	assert.Error(t, err)
}

func TestAtom_String(t *testing.T) {
	a := NewAtom(3, 7)
	assert.Equal(t, "N(3)", a.String())
}

func TestMolecule_AddAndLookup(t *testing.T) {
	m := New()
	require.NoError(t, m.AddAtom(NewAtom(0, 7), r3.Vec{}))
	require.NoError(t, m.AddAtom(NewAtom(1, 1), r3.Vec{X: 1}))
	assert.Error(t, m.AddAtom(NewAtom(0, 6), r3.Vec{}), "duplicate id must fail")

	a, ok := m.Atom(1)
	require.True(t, ok)
	assert.Equal(t, 1, a.AtomicNumber)

	n, _ := m.Atom(0)
	h, _ := m.Atom(1)
	require.NoError(t, m.AddBond(NewBond(n, h, chem.SingleBond)))
	assert.Error(t, m.AddBond(NewBond(n, NewAtom(9, 6), chem.SingleBond)))

	assert.Equal(t, 2, m.NumAtoms())
	assert.Equal(t, 1, m.NumBonds())
	assert.Equal(t, 1, m.MaxAtomID())
}

func TestMolecule_DistanceAndPositions(t *testing.T) {
	m := New()
	require.NoError(t, m.AddAtom(NewAtom(0, 6), r3.Vec{}))
	require.NoError(t, m.AddAtom(NewAtom(1, 6), r3.Vec{X: 3, Y: 4}))

	d, err := m.Distance(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-12)

	_, err = m.Distance(0, 99)
	assert.Error(t, err)

	rows := m.PositionMatrix()
	require.Len(t, rows, 2)
	rows[0] = r3.Vec{X: 42}
	orig, _ := m.Position(0)
	assert.Equal(t, r3.Vec{}, orig, "PositionMatrix must return a copy")

	assert.Error(t, m.SetPositionMatrix([]r3.Vec{{}}))
	require.NoError(t, m.SetPositionMatrix([]r3.Vec{{X: 1}, {X: 2}}))
	p, _ := m.Position(1)
	assert.Equal(t, r3.Vec{X: 2}, p)
}

func TestMolecule_RemoveAtoms(t *testing.T) {
	m := New()
	for i := 0; i < 4; i++ {
		require.NoError(t, m.AddAtom(NewAtom(i, 6), r3.Vec{X: float64(i)}))
	}
	a0, _ := m.Atom(0)
	a1, _ := m.Atom(1)
	a2, _ := m.Atom(2)
	a3, _ := m.Atom(3)
	require.NoError(t, m.AddBond(NewBond(a0, a1, chem.SingleBond)))
	require.NoError(t, m.AddBond(NewBond(a1, a2, chem.SingleBond)))
	require.NoError(t, m.AddBond(NewBond(a2, a3, chem.SingleBond)))

	m.RemoveAtoms(map[int]struct{}{1: {}})

	assert.Equal(t, 3, m.NumAtoms())
	_, ok := m.Atom(1)
	assert.False(t, ok)
	// Both bonds touching atom 1 are gone; the 2-3 bond survives.
	require.Len(t, m.Bonds(), 1)
	assert.Equal(t, 2, m.Bonds()[0].Atom1.ID)

	// Ids keep their original values and positions stay aligned.
	p, ok := m.Position(3)
	require.True(t, ok)
	assert.Equal(t, 3.0, p.X)
	assert.Equal(t, []int{0, 2, 3}, m.AtomIDs())
}

func TestMolecule_GraphQueries(t *testing.T) {
	m := New()
	// Cyclopropane ring with one exocyclic hydrogen.
	for i, z := range []int{6, 6, 6, 1} {
		require.NoError(t, m.AddAtom(NewAtom(i, z), r3.Vec{}))
	}
	ids := func(i int) *Atom { a, _ := m.Atom(i); return a }
	require.NoError(t, m.AddBond(NewBond(ids(0), ids(1), chem.SingleBond)))
	require.NoError(t, m.AddBond(NewBond(ids(1), ids(2), chem.SingleBond)))
	require.NoError(t, m.AddBond(NewBond(ids(2), ids(0), chem.SingleBond)))
	require.NoError(t, m.AddBond(NewBond(ids(0), ids(3), chem.SingleBond)))

	assert.Equal(t, []int{1, 2, 3}, m.Neighbors(0))
	assert.Equal(t, 6, m.AtomicNumber(2))
	assert.Equal(t, 0, m.AtomicNumber(99))

	order, ok := m.BondOrderBetween(2, 0)
	require.True(t, ok)
	assert.Equal(t, chem.SingleBond, order)
	_, ok = m.BondOrderBetween(1, 3)
	assert.False(t, ok)

	assert.True(t, m.InRing(0))
	assert.True(t, m.InRing(1))
	assert.False(t, m.InRing(3))
}

func TestBond_Periodic(t *testing.T) {
	a := NewAtom(0, 6)
	b := NewAtom(1, 6)
	pb := NewPeriodicBond(a, b, chem.SingleBond, chem.CellDirection{1, 0, 0})
	assert.True(t, pb.IsPeriodic())
	assert.Equal(t, chem.CellDirection{1, 0, 0}, *pb.Periodicity)
	assert.False(t, NewBond(a, b, chem.SingleBond).IsPeriodic())
}
