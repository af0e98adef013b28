package construction

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/haidi-ustc/stk/internal/domain/functionalgroup"
	"github.com/haidi-ustc/stk/internal/domain/molecule"
	apperrors "github.com/haidi-ustc/stk/pkg/errors"
	"github.com/haidi-ustc/stk/pkg/types/chem"
)

// BuildingBlock is a small input molecule with identified functional
// groups, ready to be combined with others into a constructed molecule.
// It is immutable after creation.
type BuildingBlock struct {
	name    string
	mol     *molecule.Molecule
	fgNames []string
	groups  []*functionalgroup.Group
	key     string
}

// NewBuildingBlock identifies the named functional group types on mol
// and returns the block. The molecule is owned by the block afterwards
// and must not be modified by the caller.
func NewBuildingBlock(name string, mol *molecule.Molecule, fgNames []string, finder *functionalgroup.Finder) (*BuildingBlock, error) {
	if mol.NumAtoms() == 0 {
		return nil, apperrors.New(
			apperrors.ErrCodeInvalidBuildingBlock,
			"building block has no atoms",
		).WithDetail(name)
	}
	sorted := append([]string(nil), fgNames...)
	sort.Strings(sorted)
	groups, err := finder.Find(mol, sorted)
	if err != nil {
		return nil, err
	}
	bb := &BuildingBlock{
		name:    name,
		mol:     mol,
		fgNames: sorted,
		groups:  groups,
	}
	bb.key = bb.computeIdentityKey()
	return bb, nil
}

// BuildingBlockFromDocument rebuilds a block from its document view.
func BuildingBlockFromDocument(doc chem.BuildingBlockDocument, finder *functionalgroup.Finder) (*BuildingBlock, error) {
	if err := doc.Validate(); err != nil {
		return nil, apperrors.New(
			apperrors.ErrCodeInvalidBuildingBlock,
			"invalid building block document",
		).WithCause(err)
	}
	mol := molecule.New()
	for i, a := range doc.Atoms {
		atom, err := molecule.NewAtomFromSymbol(a.ID, a.Element)
		if err != nil {
			return nil, err
		}
		c := doc.Coordinates[i]
		if err := mol.AddAtom(atom, r3.Vec{X: c[0], Y: c[1], Z: c[2]}); err != nil {
			return nil, err
		}
	}
	for _, b := range doc.Bonds {
		a1, _ := mol.Atom(b.Atom1)
		a2, _ := mol.Atom(b.Atom2)
		var bond *molecule.Bond
		if b.Periodicity != nil {
			bond = molecule.NewPeriodicBond(a1, a2, chem.BondOrder(b.Order), *b.Periodicity)
		} else {
			bond = molecule.NewBond(a1, a2, chem.BondOrder(b.Order))
		}
		if err := mol.AddBond(bond); err != nil {
			return nil, err
		}
	}
	return NewBuildingBlock(doc.Name, mol, doc.FunctionalGroups, finder)
}

// Name returns the display name of the block.
func (bb *BuildingBlock) Name() string { return bb.name }

// Molecule returns the block's molecular graph.
func (bb *BuildingBlock) Molecule() *molecule.Molecule { return bb.mol }

// FunctionalGroupNames returns the sorted group type names the block
// was loaded with.
func (bb *BuildingBlock) FunctionalGroupNames() []string {
	return append([]string(nil), bb.fgNames...)
}

// FunctionalGroups returns the identified groups.
func (bb *BuildingBlock) FunctionalGroups() []*functionalgroup.Group {
	return bb.groups
}

// IdentityKey returns a content hash of the block's structure: its
// element sequence, bond list and functional group type names. Two
// blocks with equal keys are interchangeable in construction,
// whatever their names or coordinates.
func (bb *BuildingBlock) IdentityKey() string { return bb.key }

func (bb *BuildingBlock) computeIdentityKey() string {
	h := sha256.New()
	for _, id := range bb.mol.AtomIDs() {
		fmt.Fprintf(h, "a%d:%d;", id, bb.mol.AtomicNumber(id))
	}
	for _, b := range bb.mol.Bonds() {
		fmt.Fprintf(h, "b%d:%d:%d;", b.Atom1.ID, b.Atom2.ID, b.Order)
	}
	fmt.Fprintf(h, "fg%s", strings.Join(bb.fgNames, ","))
	return hex.EncodeToString(h.Sum(nil))
}

// Document returns the block's document view.
func (bb *BuildingBlock) Document() chem.BuildingBlockDocument {
	ids := bb.mol.AtomIDs()
	doc := chem.BuildingBlockDocument{
		Name:             bb.name,
		FunctionalGroups: bb.FunctionalGroupNames(),
		Atoms:            make([]chem.AtomDocument, 0, len(ids)),
		Coordinates:      make([][3]float64, 0, len(ids)),
	}
	for _, id := range ids {
		atom, _ := bb.mol.Atom(id)
		doc.Atoms = append(doc.Atoms, chem.AtomDocument{
			ID:      id,
			Element: atom.Element().Symbol,
		})
		pos, _ := bb.mol.Position(id)
		doc.Coordinates = append(doc.Coordinates, [3]float64{pos.X, pos.Y, pos.Z})
	}
	for _, b := range bb.mol.Bonds() {
		doc.Bonds = append(doc.Bonds, chem.BondDocument{
			Atom1:       b.Atom1.ID,
			Atom2:       b.Atom2.ID,
			Order:       int(b.Order),
			Periodicity: b.Periodicity,
		})
	}
	return doc
}

// GeometryBlock renders a structural dump of the block, one atom per
// line followed by the bond list. Used as diagnostic context in
// construction failures.
func (bb *BuildingBlock) GeometryBlock() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s]\n", bb.name, strings.Join(bb.fgNames, " "))
	for _, id := range bb.mol.AtomIDs() {
		atom, _ := bb.mol.Atom(id)
		pos, _ := bb.mol.Position(id)
		fmt.Fprintf(&sb, "%4d %-2s %10.4f %10.4f %10.4f\n",
			id, atom.Element().Symbol, pos.X, pos.Y, pos.Z)
	}
	for _, b := range bb.mol.Bonds() {
		fmt.Fprintf(&sb, "bond %d-%d order %d\n", b.Atom1.ID, b.Atom2.ID, b.Order)
	}
	return sb.String()
}
