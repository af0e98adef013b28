package molecule

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/haidi-ustc/stk/pkg/errors"
	"github.com/haidi-ustc/stk/pkg/types/chem"
)

// Molecule is a mutable molecular graph: an atom list, a bond list, and a
// position matrix whose row i holds the coordinates of atoms[i].  Atom ids
// are arbitrary but unique; after construction-time deletions the id
// sequence may contain gaps, which is why all lookups go through an id
// index rather than assuming id == row.
//
// A Molecule is never shared between construction pipelines, so it carries
// no locking.
type Molecule struct {
	atoms     []*Atom
	bonds     []*Bond
	positions []r3.Vec

	index        map[int]int // atom id → slice position
	ringSet      map[int]bool
	ringsCurrent bool
}

// New returns an empty molecule.
func New() *Molecule {
	return &Molecule{index: make(map[int]int)}
}

// ─────────────────────────────────────────────────────────────────────────────
// Atom and bond management
// ─────────────────────────────────────────────────────────────────────────────

// AddAtom appends an atom and its coordinates.  Atom ids must be unique
// within the molecule.
func (m *Molecule) AddAtom(a *Atom, pos r3.Vec) error {
	if _, exists := m.index[a.ID]; exists {
		return errors.Newf(errors.CodeConflict, "duplicate atom id %d", a.ID)
	}
	m.index[a.ID] = len(m.atoms)
	m.atoms = append(m.atoms, a)
	m.positions = append(m.positions, pos)
	m.ringsCurrent = false
	return nil
}

// AddBond appends a bond.  Both endpoints must already be present.
func (m *Molecule) AddBond(b *Bond) error {
	if _, ok := m.index[b.Atom1.ID]; !ok {
		return errors.Newf(errors.CodeInvalidParam, "bond references unknown atom %d", b.Atom1.ID)
	}
	if _, ok := m.index[b.Atom2.ID]; !ok {
		return errors.Newf(errors.CodeInvalidParam, "bond references unknown atom %d", b.Atom2.ID)
	}
	m.bonds = append(m.bonds, b)
	m.ringsCurrent = false
	return nil
}

// Atoms returns the atom list.  Callers must not modify the returned slice.
func (m *Molecule) Atoms() []*Atom { return m.atoms }

// Bonds returns the bond list.  Callers must not modify the returned slice.
func (m *Molecule) Bonds() []*Bond { return m.bonds }

// NumAtoms returns the number of atoms currently in the molecule.
func (m *Molecule) NumAtoms() int { return len(m.atoms) }

// NumBonds returns the number of bonds currently in the molecule.
func (m *Molecule) NumBonds() int { return len(m.bonds) }

// Atom returns the atom with the given id.
func (m *Molecule) Atom(id int) (*Atom, bool) {
	i, ok := m.index[id]
	if !ok {
		return nil, false
	}
	return m.atoms[i], true
}

// MaxAtomID returns the largest atom id present, or -1 for an empty molecule.
// New atoms created during reactions use MaxAtomID()+1 so that staged
// deletions can never collide with fresh ids.
func (m *Molecule) MaxAtomID() int {
	max := -1
	for id := range m.index {
		if id > max {
			max = id
		}
	}
	return max
}

// RemoveAtoms deletes every atom whose id is in ids, every bond referencing
// such an atom, and the corresponding position rows.  Remaining atoms keep
// their original ids.
func (m *Molecule) RemoveAtoms(ids map[int]struct{}) {
	if len(ids) == 0 {
		return
	}
	atoms := m.atoms[:0]
	positions := m.positions[:0]
	for i, a := range m.atoms {
		if _, gone := ids[a.ID]; gone {
			continue
		}
		atoms = append(atoms, a)
		positions = append(positions, m.positions[i])
	}
	m.atoms = atoms
	m.positions = positions

	bonds := m.bonds[:0]
	for _, b := range m.bonds {
		if _, gone := ids[b.Atom1.ID]; gone {
			continue
		}
		if _, gone := ids[b.Atom2.ID]; gone {
			continue
		}
		bonds = append(bonds, b)
	}
	m.bonds = bonds

	m.index = make(map[int]int, len(m.atoms))
	for i, a := range m.atoms {
		m.index[a.ID] = i
	}
	m.ringsCurrent = false
}

// ─────────────────────────────────────────────────────────────────────────────
// Geometry
// ─────────────────────────────────────────────────────────────────────────────

// Position returns the coordinates of the atom with the given id.
func (m *Molecule) Position(id int) (r3.Vec, bool) {
	i, ok := m.index[id]
	if !ok {
		return r3.Vec{}, false
	}
	return m.positions[i], true
}

// Distance returns the Euclidean distance between two atoms.
func (m *Molecule) Distance(id1, id2 int) (float64, error) {
	p1, ok := m.Position(id1)
	if !ok {
		return 0, errors.Newf(errors.CodeInvalidParam, "no atom with id %d", id1)
	}
	p2, ok := m.Position(id2)
	if !ok {
		return 0, errors.Newf(errors.CodeInvalidParam, "no atom with id %d", id2)
	}
	return r3.Norm(r3.Sub(p1, p2)), nil
}

// PositionMatrix returns a copy of the position matrix, row-parallel with
// Atoms().
func (m *Molecule) PositionMatrix() []r3.Vec {
	out := make([]r3.Vec, len(m.positions))
	copy(out, m.positions)
	return out
}

// SetPositionMatrix replaces all coordinates.  The row count must equal the
// atom count.
func (m *Molecule) SetPositionMatrix(rows []r3.Vec) error {
	if len(rows) != len(m.atoms) {
		return errors.Newf(
			errors.ErrCodeConformerMismatch,
			"position matrix has %d rows for %d atoms", len(rows), len(m.atoms),
		)
	}
	m.positions = make([]r3.Vec, len(rows))
	copy(m.positions, rows)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Graph queries (pattern-matcher contract)
// ─────────────────────────────────────────────────────────────────────────────

// AtomIDs returns all atom ids in ascending order.
func (m *Molecule) AtomIDs() []int {
	ids := make([]int, 0, len(m.atoms))
	for _, a := range m.atoms {
		ids = append(ids, a.ID)
	}
	sort.Ints(ids)
	return ids
}

// AtomicNumber returns the atomic number of the atom with the given id, or 0
// if the id is unknown.
func (m *Molecule) AtomicNumber(id int) int {
	a, ok := m.Atom(id)
	if !ok {
		return 0
	}
	return a.AtomicNumber
}

// Neighbors returns the ids of all atoms bonded to id, in ascending order.
func (m *Molecule) Neighbors(id int) []int {
	var out []int
	for _, b := range m.bonds {
		switch id {
		case b.Atom1.ID:
			out = append(out, b.Atom2.ID)
		case b.Atom2.ID:
			out = append(out, b.Atom1.ID)
		}
	}
	sort.Ints(out)
	return out
}

// BondOrderBetween returns the order of the bond between two atoms, if any.
func (m *Molecule) BondOrderBetween(id1, id2 int) (chem.BondOrder, bool) {
	for _, b := range m.bonds {
		if (b.Atom1.ID == id1 && b.Atom2.ID == id2) || (b.Atom1.ID == id2 && b.Atom2.ID == id1) {
			return b.Order, true
		}
	}
	return 0, false
}

// InRing reports whether the atom with the given id is a member of any cycle.
// The ring set is computed by iteratively pruning degree-1 vertices; what
// survives with degree ≥ 2 lies on a cycle.
func (m *Molecule) InRing(id int) bool {
	if !m.ringsCurrent {
		m.computeRings()
	}
	return m.ringSet[id]
}

func (m *Molecule) computeRings() {
	degree := make(map[int]int, len(m.atoms))
	adj := make(map[int][]int, len(m.atoms))
	for _, b := range m.bonds {
		degree[b.Atom1.ID]++
		degree[b.Atom2.ID]++
		adj[b.Atom1.ID] = append(adj[b.Atom1.ID], b.Atom2.ID)
		adj[b.Atom2.ID] = append(adj[b.Atom2.ID], b.Atom1.ID)
	}

	var queue []int
	for id, d := range degree {
		if d == 1 {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		degree[id] = 0
		for _, nb := range adj[id] {
			if degree[nb] > 0 {
				degree[nb]--
				if degree[nb] == 1 {
					queue = append(queue, nb)
				}
			}
		}
	}

	m.ringSet = make(map[int]bool)
	for id, d := range degree {
		if d >= 2 {
			m.ringSet[id] = true
		}
	}
	m.ringsCurrent = true
}
