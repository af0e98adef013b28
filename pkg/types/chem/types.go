// Package chem defines the shared value types and transfer objects of the
// stk toolkit.  Types here are plain data carriers used across layer
// boundaries (domain ↔ application ↔ interfaces ↔ persistence collaborators)
// and deliberately contain no behaviour beyond validation.
package chem

import "fmt"

// ─────────────────────────────────────────────────────────────────────────────
// Primitive value types
// ─────────────────────────────────────────────────────────────────────────────

// BondOrder is the integer order of a chemical bond.
type BondOrder int

// Recognised bond orders.
const (
	SingleBond BondOrder = 1
	DoubleBond BondOrder = 2
	TripleBond BondOrder = 3
)

// Valid reports whether the order is one of the recognised values.
func (o BondOrder) Valid() bool {
	return o == SingleBond || o == DoubleBond || o == TripleBond
}

// CellDirection is the periodic-boundary crossing vector carried by a
// periodic bond: three signed integers indicating which unit-cell boundary
// the bond crosses along each axis.  For example, {1, 0, 0} means the bond
// is periodic along the positive x axis.
type CellDirection [3]int

func (d CellDirection) String() string {
	return fmt.Sprintf("[%d %d %d]", d[0], d[1], d[2])
}

// ─────────────────────────────────────────────────────────────────────────────
// Document views
//
// These are the persistence-collaborator contract of the constructed-molecule
// aggregate: everything needed to reconstruct an equivalent in-memory
// molecule, in a shape that maps 1:1 onto a JSON / document store record.
// ─────────────────────────────────────────────────────────────────────────────

// AtomDocument is the document view of a single atom.
type AtomDocument struct {
	ID      int    `json:"id"`
	Element string `json:"element"`
}

// BondDocument is the document view of a bond.  Periodicity is nil for
// ordinary bonds and carries the cell direction for periodic ones.
type BondDocument struct {
	Atom1       int            `json:"atom1"`
	Atom2       int            `json:"atom2"`
	Order       int            `json:"order"`
	Periodicity *CellDirection `json:"periodicity,omitempty"`
}

// FunctionalGroupDocument is the document view of one functional group
// remnant of a constructed molecule.
type FunctionalGroupDocument struct {
	ID         int    `json:"id"`
	Type       string `json:"type"`
	AtomIDs    []int  `json:"atom_ids"`
	BonderIDs  []int  `json:"bonder_ids"`
	DeleterIDs []int  `json:"deleter_ids"`
}

// BuildingBlockDocument is the document view of a building block: its graph,
// its default-conformer coordinates, and the functional group type names it
// was loaded with.  This is also the CLI's on-disk building-block format.
type BuildingBlockDocument struct {
	Name             string         `json:"name"`
	FunctionalGroups []string       `json:"functional_groups"`
	Atoms            []AtomDocument `json:"atoms"`
	Bonds            []BondDocument `json:"bonds"`
	Coordinates      [][3]float64   `json:"coordinates"`
}

// Validate performs structural sanity checks on the document.
func (d BuildingBlockDocument) Validate() error {
	if len(d.Atoms) == 0 {
		return fmt.Errorf("building block %q has no atoms", d.Name)
	}
	if len(d.Coordinates) != len(d.Atoms) {
		return fmt.Errorf(
			"building block %q has %d atoms but %d coordinate rows",
			d.Name, len(d.Atoms), len(d.Coordinates),
		)
	}
	ids := make(map[int]bool, len(d.Atoms))
	for _, a := range d.Atoms {
		if ids[a.ID] {
			return fmt.Errorf("building block %q has duplicate atom id %d", d.Name, a.ID)
		}
		ids[a.ID] = true
	}
	for _, b := range d.Bonds {
		if !ids[b.Atom1] || !ids[b.Atom2] {
			return fmt.Errorf(
				"building block %q bond references unknown atom (%d, %d)",
				d.Name, b.Atom1, b.Atom2,
			)
		}
		if !BondOrder(b.Order).Valid() {
			return fmt.Errorf("building block %q bond has invalid order %d", d.Name, b.Order)
		}
	}
	return nil
}

// ConstructedMoleculeDocument is the document view of a finished constructed
// molecule.  Conformers holds one coordinate block per stored conformer;
// block 0 is the construction geometry.
type ConstructedMoleculeDocument struct {
	ID                  string                    `json:"id"`
	Topology            string                    `json:"topology"`
	BondsMade           int                       `json:"bonds_made"`
	BuildingBlocks      []BuildingBlockDocument   `json:"building_blocks"`
	BuildingBlockCounts map[string]int            `json:"building_block_counts"`
	Atoms               []AtomDocument            `json:"atoms"`
	Bonds               []BondDocument            `json:"bonds"`
	Conformers          [][][3]float64            `json:"conformers"`
	FunctionalGroups    []FunctionalGroupDocument `json:"functional_groups"`
}
