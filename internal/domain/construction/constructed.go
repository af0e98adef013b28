package construction

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/haidi-ustc/stk/internal/domain/functionalgroup"
	"github.com/haidi-ustc/stk/internal/domain/molecule"
	"github.com/haidi-ustc/stk/internal/domain/reaction"
	apperrors "github.com/haidi-ustc/stk/pkg/errors"
)

// ConstructedMolecule is the finished product of combining building
// block copies under a topology. The atom/bond graph is immutable once
// built; only additional conformers may be added afterwards.
type ConstructedMolecule struct {
	id         string
	mol        *molecule.Molecule
	topology   Topology
	blocks     []*BuildingBlock
	counts     map[string]int
	groups     []*functionalgroup.Group
	bondsMade  int
	conformers [][]r3.Vec
	cacheKey   string

	// reactor options used at construction, replayed for conformer
	// re-construction runs.
	reactorOpts []reaction.Option
}

// Option configures a construction run.
type Option func(*settings)

type settings struct {
	reactorOpts []reaction.Option
}

// WithReactorOptions forwards options to the reactor driving the
// construction, e.g. extra custom reaction procedures.
func WithReactorOptions(opts ...reaction.Option) Option {
	return func(s *settings) { s.reactorOpts = append(s.reactorOpts, opts...) }
}

// New builds a molecule from the given blocks under topology. Blocks
// with equal identity keys are collapsed to one entry; the topology
// decides how many copies of each are placed. Any failure during
// placement, reaction or finalization is wrapped into a construction
// error carrying the topology descriptor and a structural dump of
// every block involved.
func New(blocks []*BuildingBlock, topology Topology, opts ...Option) (*ConstructedMolecule, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	distinct := dedupeBlocks(blocks)
	if len(distinct) == 0 {
		return nil, constructionFailure(
			apperrors.New(apperrors.ErrCodeInvalidBuildingBlock, "no building blocks given"),
			distinct, topology,
		)
	}

	asm := newAssembly(distinct, s.reactorOpts...)
	if err := topology.Construct(asm); err != nil {
		return nil, constructionFailure(err, distinct, topology)
	}
	bondsMade, err := asm.Reactor().Finalize()
	if err != nil {
		return nil, constructionFailure(err, distinct, topology)
	}

	groups := make([]*functionalgroup.Group, len(asm.groups))
	for i, fg := range asm.groups {
		committed := asm.Reactor().Committed(fg)
		committed.ID = i
		groups[i] = committed
	}

	return &ConstructedMolecule{
		id:         uuid.NewString(),
		mol:        asm.Molecule(),
		topology:   topology,
		blocks:     distinct,
		counts:     asm.counts,
		groups:     groups,
		bondsMade:  bondsMade,
		conformers: [][]r3.Vec{asm.Molecule().PositionMatrix()},
		cacheKey:   CacheKey(distinct, topology),

		reactorOpts: s.reactorOpts,
	}, nil
}

// CacheKey derives the content-addressed construction key: the hash of
// the sorted distinct building block identities plus the topology
// descriptor. Two construction requests with equal keys describe the
// same logical molecule.
func CacheKey(blocks []*BuildingBlock, topology Topology) string {
	keys := make([]string, 0, len(blocks))
	for _, bb := range dedupeBlocks(blocks) {
		keys = append(keys, bb.IdentityKey())
	}
	sort.Strings(keys)
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s", strings.Join(keys, ","), topology.Descriptor())
	return hex.EncodeToString(h.Sum(nil))
}

// ID returns the instance id assigned at construction.
func (cm *ConstructedMolecule) ID() string { return cm.id }

// CacheKey returns the content-addressed construction key.
func (cm *ConstructedMolecule) CacheKey() string { return cm.cacheKey }

// Molecule returns the final atom/bond graph.
func (cm *ConstructedMolecule) Molecule() *molecule.Molecule { return cm.mol }

// Topology returns the topology the molecule was built under.
func (cm *ConstructedMolecule) Topology() Topology { return cm.topology }

// BondsMade returns the number of bonds created during construction.
func (cm *ConstructedMolecule) BondsMade() int { return cm.bondsMade }

// BuildingBlocks returns the distinct blocks the molecule was built
// from, in the order the construction caller supplied them.
func (cm *ConstructedMolecule) BuildingBlocks() []*BuildingBlock { return cm.blocks }

// Count returns how many copies of bb were placed.
func (cm *ConstructedMolecule) Count(bb *BuildingBlock) int {
	return cm.counts[bb.IdentityKey()]
}

// FunctionalGroups returns the molecule's post-reaction functional
// groups, ids reassigned 0..n-1 in placement order.
func (cm *ConstructedMolecule) FunctionalGroups() []*functionalgroup.Group { return cm.groups }

// NumConformers returns the number of stored coordinate sets.
// Conformer 0 is the construction geometry.
func (cm *ConstructedMolecule) NumConformers() int { return len(cm.conformers) }

// Conformer returns a copy of the i-th coordinate set.
func (cm *ConstructedMolecule) Conformer(i int) ([]r3.Vec, error) {
	if i < 0 || i >= len(cm.conformers) {
		return nil, apperrors.New(
			apperrors.ErrCodeConformerMismatch,
			"no such conformer",
		).WithDetail(fmt.Sprintf("index %d of %d", i, len(cm.conformers)))
	}
	return append([]r3.Vec(nil), cm.conformers[i]...), nil
}

// AddConformer re-runs the construction with the given blocks, which
// must be structurally identical to the originals but may carry new
// coordinates, and stores the resulting geometry as a new conformer.
// The existing bond graph and conformers are never touched: if the
// re-construction fails or produces a different graph, the molecule is
// left exactly as it was. Returns the new conformer's index.
func (cm *ConstructedMolecule) AddConformer(blocks []*BuildingBlock) (int, error) {
	distinct := dedupeBlocks(blocks)
	if CacheKey(distinct, cm.topology) != cm.cacheKey {
		return 0, constructionFailure(
			apperrors.New(
				apperrors.ErrCodeConformerMismatch,
				"conformer blocks differ structurally from the originals",
			),
			distinct, cm.topology,
		)
	}
	asm := newAssembly(distinct, cm.reactorOpts...)
	if err := cm.topology.Construct(asm); err != nil {
		return 0, constructionFailure(err, distinct, cm.topology)
	}
	if _, err := asm.Reactor().Finalize(); err != nil {
		return 0, constructionFailure(err, distinct, cm.topology)
	}
	rebuilt := asm.Molecule()
	if rebuilt.NumAtoms() != cm.mol.NumAtoms() || rebuilt.NumBonds() != cm.mol.NumBonds() {
		return 0, constructionFailure(
			apperrors.New(
				apperrors.ErrCodeConformerMismatch,
				"re-construction produced a different graph",
			).WithDetail(fmt.Sprintf(
				"%d atoms, %d bonds vs %d atoms, %d bonds",
				rebuilt.NumAtoms(), rebuilt.NumBonds(),
				cm.mol.NumAtoms(), cm.mol.NumBonds(),
			)),
			distinct, cm.topology,
		)
	}
	cm.conformers = append(cm.conformers, rebuilt.PositionMatrix())
	return len(cm.conformers) - 1, nil
}

// dedupeBlocks drops blocks whose identity key was already seen,
// keeping first-occurrence order.
func dedupeBlocks(blocks []*BuildingBlock) []*BuildingBlock {
	seen := make(map[string]bool, len(blocks))
	out := make([]*BuildingBlock, 0, len(blocks))
	for _, bb := range blocks {
		if bb == nil || seen[bb.IdentityKey()] {
			continue
		}
		seen[bb.IdentityKey()] = true
		out = append(out, bb)
	}
	return out
}

// constructionFailure wraps err with the construction context: the
// topology descriptor and a structural dump of every building block.
func constructionFailure(err error, blocks []*BuildingBlock, topology Topology) error {
	var detail strings.Builder
	fmt.Fprintf(&detail, "topology %s", topology.Descriptor())
	for _, bb := range blocks {
		fmt.Fprintf(&detail, "\n%s", bb.GeometryBlock())
	}
	return apperrors.Wrap(
		err,
		apperrors.ErrCodeConstructionFailed,
		"construction failed",
	).WithDetail(detail.String())
}
