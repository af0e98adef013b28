package prometheus

// AppMetrics holds the construction pipeline's metrics.
type AppMetrics struct {
	ConstructionsTotal   CounterVec
	ConstructionDuration HistogramVec
	CacheHitsTotal       CounterVec
	CacheMissesTotal     CounterVec
	BondsMade            HistogramVec
	MoleculeAtoms        HistogramVec
}

// Default buckets.
var (
	DefaultDurationBuckets = []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30}
	DefaultBondBuckets     = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500}
	DefaultAtomBuckets     = []float64{10, 25, 50, 100, 250, 500, 1000, 5000, 10000}
)

// NewAppMetrics registers all metrics and returns the struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}
	m.ConstructionsTotal = collector.RegisterCounter(
		"constructions_total", "Construction requests", "topology", "status",
	)
	m.ConstructionDuration = collector.RegisterHistogram(
		"construction_duration_seconds", "Construction duration", DefaultDurationBuckets, "topology",
	)
	m.CacheHitsTotal = collector.RegisterCounter(
		"construction_cache_hits_total", "Construction cache hits",
	)
	m.CacheMissesTotal = collector.RegisterCounter(
		"construction_cache_misses_total", "Construction cache misses",
	)
	m.BondsMade = collector.RegisterHistogram(
		"construction_bonds_made", "Bonds made per construction", DefaultBondBuckets, "topology",
	)
	m.MoleculeAtoms = collector.RegisterHistogram(
		"construction_molecule_atoms", "Atoms per constructed molecule", DefaultAtomBuckets, "topology",
	)
	return m
}
