package construction

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/haidi-ustc/stk/internal/domain/functionalgroup"
	"github.com/haidi-ustc/stk/internal/domain/molecule"
	apperrors "github.com/haidi-ustc/stk/pkg/errors"
	"github.com/haidi-ustc/stk/pkg/types/chem"
)

// ToDocument renders the molecule's document view, the shape consumed
// by persistence collaborators.
func (cm *ConstructedMolecule) ToDocument() chem.ConstructedMoleculeDocument {
	m := cm.mol
	ids := m.AtomIDs()
	doc := chem.ConstructedMoleculeDocument{
		ID:                  cm.id,
		Topology:            cm.topology.Descriptor(),
		BondsMade:           cm.bondsMade,
		BuildingBlockCounts: make(map[string]int, len(cm.blocks)),
		Atoms:               make([]chem.AtomDocument, 0, len(ids)),
		Conformers:          make([][][3]float64, 0, len(cm.conformers)),
	}
	for _, bb := range cm.blocks {
		doc.BuildingBlocks = append(doc.BuildingBlocks, bb.Document())
		doc.BuildingBlockCounts[bb.Name()] = cm.Count(bb)
	}
	for _, id := range ids {
		atom, _ := m.Atom(id)
		doc.Atoms = append(doc.Atoms, chem.AtomDocument{
			ID:      id,
			Element: atom.Element().Symbol,
		})
	}
	for _, b := range m.Bonds() {
		doc.Bonds = append(doc.Bonds, chem.BondDocument{
			Atom1:       b.Atom1.ID,
			Atom2:       b.Atom2.ID,
			Order:       int(b.Order),
			Periodicity: b.Periodicity,
		})
	}
	for _, rows := range cm.conformers {
		block := make([][3]float64, len(rows))
		for i, row := range rows {
			block[i] = [3]float64{row.X, row.Y, row.Z}
		}
		doc.Conformers = append(doc.Conformers, block)
	}
	for _, fg := range cm.groups {
		doc.FunctionalGroups = append(doc.FunctionalGroups, chem.FunctionalGroupDocument{
			ID:         fg.ID,
			Type:       fg.TypeName,
			AtomIDs:    append([]int(nil), fg.Atoms...),
			BonderIDs:  append([]int(nil), fg.Bonders...),
			DeleterIDs: append([]int(nil), fg.Deleters...),
		})
	}
	return doc
}

// FromDocument reconstructs an equivalent in-memory molecule from its
// document view. The construction cache key is recomputed from the
// restored building blocks and topology rather than trusted from the
// document.
func FromDocument(doc chem.ConstructedMoleculeDocument, finder *functionalgroup.Finder) (*ConstructedMolecule, error) {
	topology, err := ParseTopology(doc.Topology)
	if err != nil {
		return nil, err
	}
	blocks := make([]*BuildingBlock, 0, len(doc.BuildingBlocks))
	for _, bbDoc := range doc.BuildingBlocks {
		bb, err := BuildingBlockFromDocument(bbDoc, finder)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, bb)
	}
	if len(doc.Conformers) == 0 {
		return nil, apperrors.New(
			apperrors.ErrCodeConformerMismatch,
			"document has no conformers",
		).WithDetail(doc.ID)
	}
	for i, block := range doc.Conformers {
		if len(block) != len(doc.Atoms) {
			return nil, apperrors.New(
				apperrors.ErrCodeConformerMismatch,
				"conformer row count differs from atom count",
			).WithDetail(fmt.Sprintf("document %s conformer %d", doc.ID, i))
		}
	}

	mol := molecule.New()
	for i, a := range doc.Atoms {
		atom, err := molecule.NewAtomFromSymbol(a.ID, a.Element)
		if err != nil {
			return nil, err
		}
		c := doc.Conformers[0][i]
		if err := mol.AddAtom(atom, r3.Vec{X: c[0], Y: c[1], Z: c[2]}); err != nil {
			return nil, err
		}
	}
	for _, b := range doc.Bonds {
		a1, ok1 := mol.Atom(b.Atom1)
		a2, ok2 := mol.Atom(b.Atom2)
		if !ok1 || !ok2 {
			return nil, apperrors.New(
				apperrors.ErrCodeConstructionFailed,
				"document bond references unknown atom",
			).WithDetail(fmt.Sprintf("document %s bond %d-%d", doc.ID, b.Atom1, b.Atom2))
		}
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

	conformers := make([][]r3.Vec, len(doc.Conformers))
	for i, block := range doc.Conformers {
		rows := make([]r3.Vec, len(block))
		for j, c := range block {
			rows[j] = r3.Vec{X: c[0], Y: c[1], Z: c[2]}
		}
		conformers[i] = rows
	}

	counts := make(map[string]int, len(blocks))
	for _, bb := range blocks {
		counts[bb.IdentityKey()] = doc.BuildingBlockCounts[bb.Name()]
	}
	groups := make([]*functionalgroup.Group, len(doc.FunctionalGroups))
	for i, fgDoc := range doc.FunctionalGroups {
		groups[i] = &functionalgroup.Group{
			ID:       fgDoc.ID,
			TypeName: fgDoc.Type,
			Atoms:    append([]int(nil), fgDoc.AtomIDs...),
			Bonders:  append([]int(nil), fgDoc.BonderIDs...),
			Deleters: append([]int(nil), fgDoc.DeleterIDs...),
		}
	}

	return &ConstructedMolecule{
		id:         doc.ID,
		mol:        mol,
		topology:   topology,
		blocks:     blocks,
		counts:     counts,
		groups:     groups,
		bondsMade:  doc.BondsMade,
		conformers: conformers,
		cacheKey:   CacheKey(blocks, topology),
	}, nil
}
