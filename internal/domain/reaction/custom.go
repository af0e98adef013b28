package reaction

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/haidi-ustc/stk/internal/domain/functionalgroup"
	apperrors "github.com/haidi-ustc/stk/pkg/errors"
	"github.com/haidi-ustc/stk/pkg/types/chem"
)

// DihalogenPairing bonds a diol group to a dihalogen group. Halogen
// names the dihalogen type the strategy is registered for.
//
// Each halogen-bearing carbon is paired with a hydroxyl oxygen by
// greedy closest-pair matching: candidate pairs are sorted by distance
// and picked in order, skipping pairs that reuse an already-picked atom.
// This is deliberately not a minimum-weight matching; the greedy policy
// is part of the reaction's defined behavior. The groups' deleter atoms
// are left alone.
type DihalogenPairing struct {
	Halogen string
}

func (p DihalogenPairing) React(rx *Reactor, fgs ...*functionalgroup.Group) error {
	if len(fgs) != 2 {
		return apperrors.New(
			apperrors.ErrCodeReactionArity,
			"diol with dihalogen needs exactly two functional groups",
		).WithDetail(fmt.Sprintf("got %d", len(fgs)))
	}
	diol, halogen := fgs[0], fgs[1]
	if diol.TypeName != "diol" {
		diol, halogen = halogen, diol
	}
	if diol.TypeName != "diol" || halogen.TypeName != p.Halogen {
		return apperrors.New(
			apperrors.ErrCodeReactionArity,
			"diol with dihalogen got unexpected group types",
		).WithDetail(fmt.Sprintf("%s + %s", fgs[0].TypeName, fgs[1].TypeName))
	}

	type candidate struct {
		d      float64
		carbon int
		oxygen int
	}
	var candidates []candidate
	for _, carbon := range halogen.Bonders {
		for _, oxygen := range diol.Bonders {
			d, err := rx.Mol().Distance(carbon, oxygen)
			if err != nil {
				return err
			}
			candidates = append(candidates, candidate{d: d, carbon: carbon, oxygen: oxygen})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.d != b.d {
			return a.d < b.d
		}
		if a.carbon != b.carbon {
			return a.carbon < b.carbon
		}
		return a.oxygen < b.oxygen
	})

	type pair struct{ carbon, oxygen int }
	var picked []pair
	seenC := make(map[int]bool)
	seenO := make(map[int]bool)
	for _, c := range candidates {
		if seenC[c.carbon] || seenO[c.oxygen] {
			continue
		}
		picked = append(picked, pair{carbon: c.carbon, oxygen: c.oxygen})
		seenC[c.carbon] = true
		seenO[c.oxygen] = true
	}
	if len(picked) < 2 || picked[0].carbon == picked[1].carbon || picked[0].oxygen == picked[1].oxygen {
		return apperrors.New(
			apperrors.ErrCodeDegenerateReaction,
			"diol with dihalogen pairing collapsed",
		).WithDetail(fmt.Sprintf("diol %s, %s %s", diol, p.Halogen, halogen))
	}

	for _, pr := range picked[:2] {
		if err := rx.AddBond(pr.carbon, pr.oxygen, chem.SingleBond); err != nil {
			return err
		}
	}
	rx.CountBonds(2)
	return nil
}

// BoronicAcidWithDiol bonds a boronic acid group to a diol. The boron
// atom bonds to both hydroxyl oxygens of the diol, forming a boronate
// ring, and both groups' deleter atoms are staged for removal.
type BoronicAcidWithDiol struct{}

func (BoronicAcidWithDiol) React(rx *Reactor, fgs ...*functionalgroup.Group) error {
	if len(fgs) != 2 {
		return apperrors.New(
			apperrors.ErrCodeReactionArity,
			"boronic acid with diol needs exactly two functional groups",
		).WithDetail(fmt.Sprintf("got %d", len(fgs)))
	}
	boron, diol := fgs[0], fgs[1]
	if boron.TypeName != "boronic_acid" {
		boron, diol = diol, boron
	}
	if len(boron.Bonders) < 1 || len(diol.Bonders) < 2 {
		return apperrors.New(
			apperrors.ErrCodeMissingBonder,
			"boronic acid with diol is missing bonder atoms",
		).WithDetail(fmt.Sprintf("%s + %s", boron, diol))
	}

	rx.StageDeleters(boron)
	rx.StageDeleters(diol)

	boronAtom := boron.Bonders[0]
	if err := rx.AddBond(boronAtom, diol.Bonders[0], chem.SingleBond); err != nil {
		return err
	}
	if err := rx.AddBond(boronAtom, diol.Bonders[1], chem.SingleBond); err != nil {
		return err
	}
	rx.CountBonds(2)
	return nil
}

// RingAmineBridge joins two ring amine groups with a freshly built
// bridge: a central NH2 unit between the two amine nitrogens and one
// CH2 unit between each aromatic carbon and the opposite nitrogen.
// Nine atoms and twelve bonds are added; nothing is deleted.
type RingAmineBridge struct{}

func (RingAmineBridge) React(rx *Reactor, fgs ...*functionalgroup.Group) error {
	if len(fgs) != 2 {
		return apperrors.New(
			apperrors.ErrCodeReactionArity,
			"ring amine bridging needs exactly two functional groups",
		).WithDetail(fmt.Sprintf("got %d", len(fgs)))
	}

	mol := rx.Mol()
	bonderPair := func(fg *functionalgroup.Group) (carbon, nitrogen int, err error) {
		carbon, nitrogen = -1, -1
		for _, id := range fg.Bonders {
			switch mol.AtomicNumber(id) {
			case 6:
				carbon = id
			case 7:
				nitrogen = id
			}
		}
		if carbon < 0 || nitrogen < 0 {
			return 0, 0, apperrors.New(
				apperrors.ErrCodeMissingBonder,
				"ring amine group needs one carbon and one nitrogen bonder",
			).WithDetail(fg.String())
		}
		return carbon, nitrogen, nil
	}
	c1, n1, err := bonderPair(fgs[0])
	if err != nil {
		return err
	}
	c2, n2, err := bonderPair(fgs[1])
	if err != nil {
		return err
	}

	pos := func(id int) r3.Vec {
		p, _ := mol.Position(id)
		return p
	}
	midpoint := func(a, b r3.Vec) r3.Vec {
		return r3.Scale(0.5, r3.Add(a, b))
	}
	up := r3.Vec{Z: 1}
	down := r3.Vec{Z: -1}

	// One CH2-like unit per joiner: the heavy atom at the midpoint of
	// its anchors, its two hydrogens offset along z.
	type joiner struct {
		atomicNumber     int
		center           r3.Vec
		anchor1, anchor2 int
	}
	joiners := []joiner{
		{atomicNumber: 7, center: midpoint(pos(n1), pos(n2)), anchor1: n1, anchor2: n2},
		{atomicNumber: 6, center: midpoint(pos(c1), pos(n2)), anchor1: c1, anchor2: n2},
		{atomicNumber: 6, center: midpoint(pos(c2), pos(n1)), anchor1: c2, anchor2: n1},
	}
	for _, j := range joiners {
		heavy, err := rx.AddAtom(j.atomicNumber, j.center)
		if err != nil {
			return err
		}
		h1, err := rx.AddAtom(1, r3.Add(j.center, up))
		if err != nil {
			return err
		}
		h2, err := rx.AddAtom(1, r3.Add(j.center, down))
		if err != nil {
			return err
		}
		for _, b := range [][2]int{
			{j.anchor1, heavy}, {j.anchor2, heavy}, {heavy, h1}, {heavy, h2},
		} {
			if err := rx.AddBond(b[0], b[1], chem.SingleBond); err != nil {
				return err
			}
		}
	}
	rx.CountBonds(12)
	return nil
}
