package reaction

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/haidi-ustc/stk/internal/domain/functionalgroup"
	"github.com/haidi-ustc/stk/internal/domain/molecule"
	apperrors "github.com/haidi-ustc/stk/pkg/errors"
	"github.com/haidi-ustc/stk/pkg/types/chem"
)

// Procedure carries out a custom reaction between functional groups.
// Implementations may add atoms and bonds through the reactor and must
// report the bonds they create via CountBonds.
type Procedure interface {
	React(rx *Reactor, fgs ...*functionalgroup.Group) error
}

// PeriodicProcedure is a Procedure variant for reactions whose bonds
// cross a periodic cell boundary. It is kept separate because the
// boundary direction is part of the reaction input.
type PeriodicProcedure interface {
	ReactPeriodic(rx *Reactor, direction chem.CellDirection, fgs ...*functionalgroup.Group) error
}

// DefaultBondOrders returns the bond order override table for the
// default pairwise reaction path. Pairs absent from the table bond with
// single order.
func DefaultBondOrders() map[Key]chem.BondOrder {
	return map[Key]chem.BondOrder{
		NewKey("amine", "aldehyde"):                  chem.DoubleBond,
		NewKey("amide", "aldehyde"):                  chem.DoubleBond,
		NewKey("nitrile", "aldehyde"):                chem.DoubleBond,
		NewKey("amide", "amine"):                     chem.DoubleBond,
		NewKey("terminal_alkene", "terminal_alkene"): chem.DoubleBond,
		NewKey("alkyne2", "alkyne2"):                 chem.TripleBond,
	}
}

// DefaultProcedures returns the standard custom reaction registry.
func DefaultProcedures() map[Key]Procedure {
	return map[Key]Procedure{
		NewKey("boronic_acid", "diol"):     BoronicAcidWithDiol{},
		NewKey("diol", "difluorene"):       DihalogenPairing{Halogen: "difluorene"},
		NewKey("diol", "dibromine"):        DihalogenPairing{Halogen: "dibromine"},
		NewKey("ring_amine", "ring_amine"): RingAmineBridge{},
	}
}

// Reactor accumulates the structural edits implied by a sequence of
// reactions on one molecule and commits them at Finalize. New atoms and
// bonds are added as reactions run; atom deletions are only staged, so
// procedures can still measure distances on the fully populated
// molecule. Functional groups handed to AddReaction are never mutated:
// their post-reaction replacements become available through Committed
// once Finalize has run.
type Reactor struct {
	mol        *molecule.Molecule
	bondsMade  int
	deleterIDs map[int]struct{}
	consumed   map[*functionalgroup.Group]bool
	committed  map[*functionalgroup.Group]*functionalgroup.Group
	finalized  bool

	bondOrders map[Key]chem.BondOrder
	procedures map[Key]Procedure
	periodic   map[Key]PeriodicProcedure
}

// Option configures a Reactor.
type Option func(*Reactor)

// WithBondOrder overrides the bond order used by the default pairwise
// path for the given reaction.
func WithBondOrder(key Key, order chem.BondOrder) Option {
	return func(r *Reactor) { r.bondOrders[key] = order }
}

// WithProcedure registers a custom reaction procedure, replacing any
// default registered under the same key.
func WithProcedure(key Key, p Procedure) Option {
	return func(r *Reactor) { r.procedures[key] = p }
}

// WithPeriodicProcedure registers a custom periodic reaction procedure.
func WithPeriodicProcedure(key Key, p PeriodicProcedure) Option {
	return func(r *Reactor) { r.periodic[key] = p }
}

// New returns a Reactor over mol, preloaded with the default bond order
// table and custom procedure registry.
func New(mol *molecule.Molecule, opts ...Option) *Reactor {
	r := &Reactor{
		mol:        mol,
		deleterIDs: make(map[int]struct{}),
		consumed:   make(map[*functionalgroup.Group]bool),
		bondOrders: DefaultBondOrders(),
		procedures: DefaultProcedures(),
		periodic:   make(map[Key]PeriodicProcedure),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mol exposes the molecule under construction to reaction procedures.
func (r *Reactor) Mol() *molecule.Molecule { return r.mol }

// BondsMade returns the running count of bonds created so far.
func (r *Reactor) BondsMade() int { return r.bondsMade }

// CountBonds adds n to the created-bond count.
func (r *Reactor) CountBonds(n int) { r.bondsMade += n }

// StageDeleters marks every deleter atom of fg for removal at Finalize
// and marks the group as consumed by a reaction.
func (r *Reactor) StageDeleters(fg *functionalgroup.Group) {
	for _, id := range fg.Deleters {
		r.deleterIDs[id] = struct{}{}
	}
	r.consumed[fg] = true
}

// AddBond bonds two existing atoms.
func (r *Reactor) AddBond(id1, id2 int, order chem.BondOrder) error {
	a1, ok := r.mol.Atom(id1)
	if !ok {
		return apperrors.New(apperrors.ErrCodeMissingBonder, "no such atom").
			WithDetail(fmt.Sprintf("atom %d", id1))
	}
	a2, ok := r.mol.Atom(id2)
	if !ok {
		return apperrors.New(apperrors.ErrCodeMissingBonder, "no such atom").
			WithDetail(fmt.Sprintf("atom %d", id2))
	}
	return r.mol.AddBond(molecule.NewBond(a1, a2, order))
}

// AddAtom appends a brand-new atom at pos and returns its id.
func (r *Reactor) AddAtom(atomicNumber int, pos r3.Vec) (int, error) {
	id := r.mol.MaxAtomID() + 1
	if err := r.mol.AddAtom(molecule.NewAtom(id, atomicNumber), pos); err != nil {
		return 0, err
	}
	return id, nil
}

// AddReaction reacts the given functional groups. A procedure
// registered for the groups' reaction key takes over entirely;
// otherwise the default path requires exactly two groups, stages their
// deleter atoms, and bonds the first bonder atom of each with the order
// from the override table (single if absent).
func (r *Reactor) AddReaction(fgs ...*functionalgroup.Group) error {
	if r.finalized {
		return apperrors.New(apperrors.ErrCodeReactorFinalized, "reactor already finalized")
	}
	key := keyOf(fgs)
	if proc, ok := r.procedures[key]; ok {
		return proc.React(r, fgs...)
	}
	fg1, fg2, err := defaultPair(key, fgs)
	if err != nil {
		return err
	}
	r.StageDeleters(fg1)
	r.StageDeleters(fg2)
	if err := r.AddBond(fg1.Bonders[0], fg2.Bonders[0], r.pairOrder(key)); err != nil {
		return err
	}
	r.bondsMade++
	return nil
}

// AddPeriodicReaction is AddReaction for bonds that cross a periodic
// cell boundary along direction. It consults its own procedure
// registry, which is empty by default.
func (r *Reactor) AddPeriodicReaction(direction chem.CellDirection, fgs ...*functionalgroup.Group) error {
	if r.finalized {
		return apperrors.New(apperrors.ErrCodeReactorFinalized, "reactor already finalized")
	}
	key := keyOf(fgs)
	if proc, ok := r.periodic[key]; ok {
		return proc.ReactPeriodic(r, direction, fgs...)
	}
	fg1, fg2, err := defaultPair(key, fgs)
	if err != nil {
		return err
	}
	r.StageDeleters(fg1)
	r.StageDeleters(fg2)
	a1, _ := r.mol.Atom(fg1.Bonders[0])
	a2, _ := r.mol.Atom(fg2.Bonders[0])
	if a1 == nil || a2 == nil {
		return apperrors.New(apperrors.ErrCodeMissingBonder, "bonder atom missing from molecule")
	}
	if err := r.mol.AddBond(molecule.NewPeriodicBond(a1, a2, r.pairOrder(key), direction)); err != nil {
		return err
	}
	r.bondsMade++
	return nil
}

// Finalize commits the staged edits: every atom marked for deletion is
// removed from the molecule together with any bond touching it, and the
// consumed functional groups' replacements become available through
// Committed. Returns the total number of bonds made.
func (r *Reactor) Finalize() (int, error) {
	if r.finalized {
		return 0, apperrors.New(apperrors.ErrCodeReactorFinalized, "reactor already finalized")
	}
	r.committed = make(map[*functionalgroup.Group]*functionalgroup.Group, len(r.consumed))
	for fg := range r.consumed {
		replacement := fg.WithoutAtoms(r.deleterIDs)
		replacement.Deleters = nil
		r.committed[fg] = replacement
	}
	r.mol.RemoveAtoms(r.deleterIDs)
	r.finalized = true
	return r.bondsMade, nil
}

// Committed returns the post-reaction replacement of fg. Groups that
// never took part in a reaction are returned unchanged. Valid only
// after Finalize.
func (r *Reactor) Committed(fg *functionalgroup.Group) *functionalgroup.Group {
	if replacement, ok := r.committed[fg]; ok {
		return replacement
	}
	return fg
}

func (r *Reactor) pairOrder(key Key) chem.BondOrder {
	if order, ok := r.bondOrders[key]; ok {
		return order
	}
	return chem.SingleBond
}

func keyOf(fgs []*functionalgroup.Group) Key {
	names := make([]string, len(fgs))
	for i, fg := range fgs {
		names[i] = fg.TypeName
	}
	return NewKey(names...)
}

// defaultPair validates the default reaction path's inputs.
func defaultPair(key Key, fgs []*functionalgroup.Group) (*functionalgroup.Group, *functionalgroup.Group, error) {
	if len(fgs) != 2 {
		return nil, nil, apperrors.New(
			apperrors.ErrCodeReactionArity,
			"default reaction needs exactly two functional groups",
		).WithDetail(fmt.Sprintf("%s got %d", key, len(fgs)))
	}
	for _, fg := range fgs {
		if len(fg.Bonders) == 0 {
			return nil, nil, apperrors.New(
				apperrors.ErrCodeMissingBonder,
				"functional group has no bonder atoms",
			).WithDetail(fg.String())
		}
	}
	return fgs[0], fgs[1], nil
}
