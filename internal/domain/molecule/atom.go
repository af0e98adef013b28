// Package molecule provides the mutable molecular graph underlying the stk
// construction core: atoms with stable integer identities, ordinary and
// periodic bonds, and a position matrix kept row-parallel with the atom list.
package molecule

import (
	"fmt"

	"github.com/haidi-ustc/stk/pkg/types/chem"
)

// Atom is an atom identity: a unique integer id (stable within one molecule)
// and an element.  Atoms are always manipulated by reference; two *Atom
// values with equal ids inside one molecule are the same atom.
type Atom struct {
	ID           int
	AtomicNumber int
}

// NewAtom constructs an atom with the given id and atomic number.
func NewAtom(id, atomicNumber int) *Atom {
	return &Atom{ID: id, AtomicNumber: atomicNumber}
}

// NewAtomFromSymbol constructs an atom from a periodic-table symbol.
func NewAtomFromSymbol(id int, symbol string) (*Atom, error) {
	e, err := ElementBySymbol(symbol)
	if err != nil {
		return nil, err
	}
	return &Atom{ID: id, AtomicNumber: e.AtomicNumber}, nil
}

// Element returns the periodic-table entry for the atom.
func (a *Atom) Element() Element {
	e, err := ElementByNumber(a.AtomicNumber)
	if err != nil {
		return Element{AtomicNumber: a.AtomicNumber, Symbol: "?"}
	}
	return e
}

func (a *Atom) String() string {
	return fmt.Sprintf("%s(%d)", a.Element().Symbol, a.ID)
}

// Bond is an ordered pair of atoms plus a bond order.  A periodic bond
// additionally carries the unit-cell direction it crosses; Periodicity is
// nil for ordinary bonds.
type Bond struct {
	Atom1       *Atom
	Atom2       *Atom
	Order       chem.BondOrder
	Periodicity *chem.CellDirection
}

// NewBond constructs an ordinary bond.
func NewBond(a, b *Atom, order chem.BondOrder) *Bond {
	return &Bond{Atom1: a, Atom2: b, Order: order}
}

// NewPeriodicBond constructs a bond crossing the periodic boundary given by
// direction.
func NewPeriodicBond(a, b *Atom, order chem.BondOrder, direction chem.CellDirection) *Bond {
	d := direction
	return &Bond{Atom1: a, Atom2: b, Order: order, Periodicity: &d}
}

// IsPeriodic reports whether the bond crosses a periodic boundary.
func (b *Bond) IsPeriodic() bool { return b.Periodicity != nil }

func (b *Bond) String() string {
	if b.IsPeriodic() {
		return fmt.Sprintf("%s-%s(order=%d, periodic=%s)", b.Atom1, b.Atom2, b.Order, b.Periodicity)
	}
	return fmt.Sprintf("%s-%s(order=%d)", b.Atom1, b.Atom2, b.Order)
}
