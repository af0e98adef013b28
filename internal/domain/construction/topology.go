package construction

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/haidi-ustc/stk/internal/domain/functionalgroup"
	"github.com/haidi-ustc/stk/internal/domain/molecule"
	"github.com/haidi-ustc/stk/internal/domain/reaction"
	apperrors "github.com/haidi-ustc/stk/pkg/errors"
	"github.com/haidi-ustc/stk/pkg/types/chem"
)

// Topology arranges building block copies in space and drives the
// reactor across their functional groups. Descriptor returns the
// textual form the topology can be reparsed from; it is part of the
// construction cache key.
type Topology interface {
	Descriptor() string
	Construct(a *Assembly) error
}

// Assembly is the in-progress state a Topology works against: the
// molecule being built, its reactor, and the building blocks available
// for placement.
type Assembly struct {
	mol     *molecule.Molecule
	reactor *reaction.Reactor
	blocks  []*BuildingBlock
	counts  map[string]int
	groups  []*functionalgroup.Group
}

func newAssembly(blocks []*BuildingBlock, opts ...reaction.Option) *Assembly {
	mol := molecule.New()
	return &Assembly{
		mol:     mol,
		reactor: reaction.New(mol, opts...),
		blocks:  blocks,
		counts:  make(map[string]int),
	}
}

// BuildingBlocks returns the distinct blocks available to the topology,
// in the order the construction caller supplied them.
func (a *Assembly) BuildingBlocks() []*BuildingBlock { return a.blocks }

// Reactor returns the reactor staging this assembly's reactions.
func (a *Assembly) Reactor() *reaction.Reactor { return a.reactor }

// Molecule returns the molecule under assembly.
func (a *Assembly) Molecule() *molecule.Molecule { return a.mol }

// Place copies bb into the assembly, shifting every atom position by
// shift and remapping atom ids to fresh, globally unique ones. It
// returns the copy's functional groups with ids assigned in placement
// order.
func (a *Assembly) Place(bb *BuildingBlock, shift r3.Vec) ([]*functionalgroup.Group, error) {
	src := bb.Molecule()
	next := a.mol.MaxAtomID() + 1
	atomMap := make(map[int]int, src.NumAtoms())
	for _, id := range src.AtomIDs() {
		atomMap[id] = next
		next++
	}
	for _, id := range src.AtomIDs() {
		atom, _ := src.Atom(id)
		pos, _ := src.Position(id)
		copied := molecule.NewAtom(atomMap[id], atom.AtomicNumber)
		if err := a.mol.AddAtom(copied, r3.Add(pos, shift)); err != nil {
			return nil, err
		}
	}
	for _, b := range src.Bonds() {
		a1, _ := a.mol.Atom(atomMap[b.Atom1.ID])
		a2, _ := a.mol.Atom(atomMap[b.Atom2.ID])
		var bond *molecule.Bond
		if b.IsPeriodic() {
			bond = molecule.NewPeriodicBond(a1, a2, b.Order, *b.Periodicity)
		} else {
			bond = molecule.NewBond(a1, a2, b.Order)
		}
		if err := a.mol.AddBond(bond); err != nil {
			return nil, err
		}
	}
	a.counts[bb.IdentityKey()]++

	placed := make([]*functionalgroup.Group, 0, len(bb.FunctionalGroups()))
	for _, fg := range bb.FunctionalGroups() {
		clone := fg.Clone(atomMap)
		clone.ID = len(a.groups)
		a.groups = append(a.groups, clone)
		placed = append(placed, clone)
	}
	return placed, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Built-in topologies
// ─────────────────────────────────────────────────────────────────────────────

// Linear chains building block copies along the x axis. Repeat names
// the unit sequence with letters, 'A' being the first distinct block,
// and the whole sequence is placed Count times. Neighbouring units
// react their facing functional groups pairwise. With Periodic set,
// the two chain ends are additionally joined by a bond that is
// periodic along x, turning the chain into an infinite polymer.
type Linear struct {
	Repeat   string
	Count    int
	Periodic bool
}

func (l Linear) Descriptor() string {
	d := fmt.Sprintf("linear:%s:%d", l.Repeat, l.Count)
	if l.Periodic {
		d += ":periodic"
	}
	return d
}

func (l Linear) Construct(a *Assembly) error {
	units, err := placeChain(a, l.Repeat, l.Count)
	if err != nil {
		return err
	}
	if l.Periodic && len(units) > 1 {
		head := units[0][0]
		tail := last(units[len(units)-1])
		if err := a.Reactor().AddPeriodicReaction(chem.CellDirection{1, 0, 0}, tail, head); err != nil {
			return err
		}
	}
	return nil
}

// Cyclic is Linear bent into a macrocycle: the chain ends react with an
// ordinary bond instead of a periodic one.
type Cyclic struct {
	Repeat string
	Count  int
}

func (c Cyclic) Descriptor() string {
	return fmt.Sprintf("cyclic:%s:%d", c.Repeat, c.Count)
}

func (c Cyclic) Construct(a *Assembly) error {
	units, err := placeChain(a, c.Repeat, c.Count)
	if err != nil {
		return err
	}
	if len(units) < 2 {
		return apperrors.New(
			apperrors.ErrCodeInvalidTopology,
			"cyclic topology needs at least two units",
		).WithDetail(c.Descriptor())
	}
	head := units[0][0]
	tail := last(units[len(units)-1])
	return a.Reactor().AddReaction(tail, head)
}

// placeChain places the expanded unit sequence and reacts each unit's
// trailing functional group with the next unit's leading one. It
// returns the placed groups per unit.
func placeChain(a *Assembly, repeat string, count int) ([][]*functionalgroup.Group, error) {
	if repeat == "" || count < 1 {
		return nil, apperrors.New(
			apperrors.ErrCodeInvalidTopology,
			"chain topology needs a unit sequence and a positive count",
		).WithDetail(fmt.Sprintf("repeat %q count %d", repeat, count))
	}
	blocks := a.BuildingBlocks()
	var sequence []*BuildingBlock
	for i := 0; i < count; i++ {
		for _, letter := range repeat {
			idx := int(letter - 'A')
			if idx < 0 || idx >= len(blocks) {
				return nil, apperrors.New(
					apperrors.ErrCodeInvalidTopology,
					"unit letter does not name a building block",
				).WithDetail(fmt.Sprintf("letter %q with %d blocks", letter, len(blocks)))
			}
			sequence = append(sequence, blocks[idx])
		}
	}

	var units [][]*functionalgroup.Group
	offset := 0.0
	for _, bb := range sequence {
		placed, err := a.Place(bb, r3.Vec{X: offset})
		if err != nil {
			return nil, err
		}
		if len(placed) == 0 {
			return nil, apperrors.New(
				apperrors.ErrCodeInvalidTopology,
				"building block has no functional groups to chain",
			).WithDetail(bb.Name())
		}
		units = append(units, placed)
		offset += xExtent(bb.Molecule()) + 1.5
	}
	for i := 1; i < len(units); i++ {
		tail := last(units[i-1])
		head := units[i][0]
		if err := a.Reactor().AddReaction(tail, head); err != nil {
			return nil, err
		}
	}
	return units, nil
}

func last(groups []*functionalgroup.Group) *functionalgroup.Group {
	return groups[len(groups)-1]
}

// xExtent measures the molecule's span along x, the chain axis.
func xExtent(m *molecule.Molecule) float64 {
	min, max := math.Inf(1), math.Inf(-1)
	for _, pos := range m.PositionMatrix() {
		min = math.Min(min, pos.X)
		max = math.Max(max, pos.X)
	}
	if min > max {
		return 0
	}
	return max - min
}

// ParseTopology parses a topology descriptor of the forms
// "linear:AB:3", "linear:AB:3:periodic" and "cyclic:AB:3".
func ParseTopology(descriptor string) (Topology, error) {
	bad := func(reason string) error {
		return apperrors.New(
			apperrors.ErrCodeInvalidTopology,
			"invalid topology descriptor",
		).WithDetail(fmt.Sprintf("%q: %s", descriptor, reason))
	}
	parts := strings.Split(descriptor, ":")
	if len(parts) < 3 {
		return nil, bad("want kind:units:count")
	}
	kind, repeat := parts[0], parts[1]
	count, err := strconv.Atoi(parts[2])
	if err != nil || count < 1 {
		return nil, bad("count must be a positive integer")
	}
	for _, letter := range repeat {
		if letter < 'A' || letter > 'Z' {
			return nil, bad("unit letters must be A-Z")
		}
	}
	switch kind {
	case "linear":
		periodic := false
		if len(parts) == 4 {
			if parts[3] != "periodic" {
				return nil, bad("trailing token must be \"periodic\"")
			}
			periodic = true
		} else if len(parts) > 4 {
			return nil, bad("too many tokens")
		}
		return Linear{Repeat: repeat, Count: count, Periodic: periodic}, nil
	case "cyclic":
		if len(parts) != 3 {
			return nil, bad("too many tokens")
		}
		return Cyclic{Repeat: repeat, Count: count}, nil
	default:
		return nil, bad("unknown topology kind")
	}
}
