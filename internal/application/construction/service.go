// Package construction provides the application-level service that drives
// molecule construction.  It sits between the CLI (or any future transport)
// and the domain packages, adding caching, persistence, logging and metrics
// around the pure construction logic.
package construction

import (
	"context"
	"time"

	domain "github.com/haidi-ustc/stk/internal/domain/construction"
	"github.com/haidi-ustc/stk/internal/domain/functionalgroup"
	"github.com/haidi-ustc/stk/internal/domain/reaction"
	"github.com/haidi-ustc/stk/internal/infrastructure/monitoring/logging"
	"github.com/haidi-ustc/stk/internal/infrastructure/monitoring/prometheus"
	apperrors "github.com/haidi-ustc/stk/pkg/errors"
	"github.com/haidi-ustc/stk/pkg/types/chem"
)

// Service defines the interface for construction application operations.
type Service interface {
	Construct(ctx context.Context, input *ConstructInput) (*ConstructResult, error)
	Get(ctx context.Context, id string) (chem.ConstructedMoleculeDocument, error)
	GroupTypes(ctx context.Context) []GroupTypeInfo
}

// ConstructInput contains input for constructing a molecule.
type ConstructInput struct {
	Topology       string
	BuildingBlocks []chem.BuildingBlockDocument
}

// ConstructResult is the application-level view of a finished construction.
type ConstructResult struct {
	ID        string                           `json:"id"`
	Topology  string                           `json:"topology"`
	Atoms     int                              `json:"atoms"`
	Bonds     int                              `json:"bonds"`
	BondsMade int                              `json:"bonds_made"`
	Cached    bool                             `json:"cached"`
	Document  chem.ConstructedMoleculeDocument `json:"document"`
}

// GroupTypeInfo describes one entry of the functional group catalog.
type GroupTypeInfo struct {
	Name     string `json:"name"`
	Pattern  string `json:"pattern"`
	Bonders  int    `json:"bonders"`
	Deleters int    `json:"deleters"`
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	registry    *functionalgroup.Registry
	finder      *functionalgroup.Finder
	cache       *domain.Cache
	repo        domain.Repository
	logger      logging.Logger
	metrics     *prometheus.AppMetrics
	reactorOpts []reaction.Option
}

// ServiceOption customizes the service.
type ServiceOption func(*serviceImpl)

// WithRepository attaches a document repository; constructed molecules are
// persisted after each successful build.
func WithRepository(repo domain.Repository) ServiceOption {
	return func(s *serviceImpl) { s.repo = repo }
}

// WithMetrics attaches application metrics.
func WithMetrics(m *prometheus.AppMetrics) ServiceOption {
	return func(s *serviceImpl) { s.metrics = m }
}

// WithReactorOptions forwards reaction options to every construction.
func WithReactorOptions(opts ...reaction.Option) ServiceOption {
	return func(s *serviceImpl) { s.reactorOpts = opts }
}

// NewService creates a new construction application service.
func NewService(registry *functionalgroup.Registry, cache *domain.Cache, logger logging.Logger, opts ...ServiceOption) Service {
	if registry == nil {
		registry = functionalgroup.DefaultRegistry()
	}
	if cache == nil {
		cache = domain.NewCache(0)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	s := &serviceImpl{
		registry: registry,
		finder:   functionalgroup.NewFinder(registry),
		cache:    cache,
		logger:   logger.Named("construction"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = prometheus.NewAppMetrics(prometheus.NewNopCollector())
	}
	return s
}

func (s *serviceImpl) Construct(ctx context.Context, input *ConstructInput) (*ConstructResult, error) {
	if input == nil || input.Topology == "" {
		return nil, apperrors.InvalidParam("topology descriptor is required")
	}
	if len(input.BuildingBlocks) == 0 {
		return nil, apperrors.InvalidParam("at least one building block is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	topology, err := domain.ParseTopology(input.Topology)
	if err != nil {
		return nil, err
	}

	blocks := make([]*domain.BuildingBlock, len(input.BuildingBlocks))
	for i, doc := range input.BuildingBlocks {
		bb, err := domain.BuildingBlockFromDocument(doc, s.finder)
		if err != nil {
			s.logger.Error("building block rejected",
				logging.String("name", doc.Name),
				logging.Err(err),
			)
			return nil, err
		}
		blocks[i] = bb
	}

	key := domain.CacheKey(blocks, topology)
	if cm, ok := s.cache.Get(key); ok {
		s.metrics.CacheHitsTotal.WithLabelValues().Inc()
		s.logger.Debug("construction cache hit",
			logging.String("topology", topology.Descriptor()),
			logging.String("cache_key", key),
		)
		return s.result(cm, true), nil
	}
	s.metrics.CacheMissesTotal.WithLabelValues().Inc()

	descriptor := topology.Descriptor()
	start := time.Now()
	cm, err := domain.New(blocks, topology, domain.WithReactorOptions(s.reactorOpts...))
	if err != nil {
		s.metrics.ConstructionsTotal.WithLabelValues(descriptor, "error").Inc()
		s.logger.Error("construction failed",
			logging.String("topology", descriptor),
			logging.Err(err),
		)
		return nil, err
	}
	elapsed := time.Since(start)

	s.metrics.ConstructionsTotal.WithLabelValues(descriptor, "ok").Inc()
	s.metrics.ConstructionDuration.WithLabelValues(descriptor).Observe(elapsed.Seconds())
	s.metrics.BondsMade.WithLabelValues(descriptor).Observe(float64(cm.BondsMade()))
	s.metrics.MoleculeAtoms.WithLabelValues(descriptor).Observe(float64(cm.Molecule().NumAtoms()))

	s.cache.Put(cm)

	result := s.result(cm, false)
	if s.repo != nil {
		if err := s.repo.Save(ctx, result.Document); err != nil {
			s.logger.Error("failed to persist constructed molecule",
				logging.String("id", cm.ID()),
				logging.Err(err),
			)
			return nil, err
		}
	}

	s.logger.Info("constructed molecule",
		logging.String("id", cm.ID()),
		logging.String("topology", descriptor),
		logging.Int("atoms", cm.Molecule().NumAtoms()),
		logging.Int("bonds_made", cm.BondsMade()),
		logging.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (chem.ConstructedMoleculeDocument, error) {
	if id == "" {
		return chem.ConstructedMoleculeDocument{}, apperrors.InvalidParam("molecule id is required")
	}
	if s.repo == nil {
		return chem.ConstructedMoleculeDocument{}, apperrors.New(
			apperrors.ErrCodeMoleculeNotFound, "no repository configured",
		)
	}
	return s.repo.Load(ctx, id)
}

func (s *serviceImpl) GroupTypes(_ context.Context) []GroupTypeInfo {
	names := s.registry.Names()
	infos := make([]GroupTypeInfo, 0, len(names))
	for _, name := range names {
		t, err := s.registry.Lookup(name)
		if err != nil {
			continue
		}
		bonders, deleters := 0, 0
		for _, r := range t.Bonders {
			bonders += r.Count
		}
		for _, r := range t.Deleters {
			deleters += r.Count
		}
		infos = append(infos, GroupTypeInfo{
			Name:     name,
			Pattern:  t.Pattern,
			Bonders:  bonders,
			Deleters: deleters,
		})
	}
	return infos
}

func (s *serviceImpl) result(cm *domain.ConstructedMolecule, cached bool) *ConstructResult {
	doc := cm.ToDocument()
	return &ConstructResult{
		ID:        cm.ID(),
		Topology:  cm.Topology().Descriptor(),
		Atoms:     cm.Molecule().NumAtoms(),
		Bonds:     len(doc.Bonds),
		BondsMade: cm.BondsMade(),
		Cached:    cached,
		Document:  doc,
	}
}
