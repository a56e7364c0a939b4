// Package services – ClassificationService
//
// This file implements the ClassificationService, which owns the in-memory
// catalog snapshots for both code systems and exposes the two query
// families of the engine: the two-level hierarchy and the flat ranked
// search. Snapshots are immutable; reload builds a fresh catalog from the
// reference table and swaps it in atomically, so in-flight queries always
// observe one consistent catalog version — never a torn update.
package services

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/klaimcare/coder-backend/internal/catalog"
	"github.com/klaimcare/coder-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// System selects a classification code system.
type System string

const (
	// SystemICD10 is the diagnosis code system.
	SystemICD10 System = "icd10"
	// SystemICD9 is the procedure code system.
	SystemICD9 System = "icd9"
)

// ParseSystem maps a raw selector onto a System; false for unknown values.
func ParseSystem(s string) (System, bool) {
	switch System(s) {
	case SystemICD10:
		return SystemICD10, true
	case SystemICD9:
		return SystemICD9, true
	}
	return "", false
}

var (
	// catalogEntries exports the size of the currently installed snapshot
	// per code system.
	catalogEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Number of classification entries in the installed catalog snapshot.",
		},
		[]string{"system"},
	)

	// catalogMalformed exports the count of reference rows whose code
	// failed shape validation at snapshot build time.
	catalogMalformed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_malformed_entries",
			Help: "Number of malformed classification codes excluded from category grouping.",
		},
		[]string{"system"},
	)
)

func init() {
	prometheus.MustRegister(catalogEntries, catalogMalformed)
}

// ClassificationService serves hierarchy and ranked-search queries against
// immutable catalog snapshots. All methods are safe for unlimited
// concurrent callers; there is no shared mutable state between calls beyond
// the atomic snapshot pointers.
type ClassificationService struct {
	// DB is the GORM handle used only by Reload to re-read the reference
	// table; query paths never touch it.
	DB *gorm.DB

	icd10 atomic.Pointer[catalog.Catalog]
	icd9  atomic.Pointer[catalog.Catalog]
}

// NewClassificationService constructs a service with no snapshots
// installed. Queries fail with ErrCatalogUnavailable until Install or
// Reload has run for the requested system.
func NewClassificationService(db *gorm.DB) *ClassificationService {
	return &ClassificationService{DB: db}
}

// Install atomically swaps in a pre-built snapshot for the given system.
// Used at startup (after the bulk load) and by Reload.
func (s *ClassificationService) Install(system System, c *catalog.Catalog) error {
	switch system {
	case SystemICD10:
		s.icd10.Store(c)
	case SystemICD9:
		s.icd9.Store(c)
	default:
		return ErrUnknownSystem
	}
	catalogEntries.WithLabelValues(string(system)).Set(float64(c.Len()))
	catalogMalformed.WithLabelValues(string(system)).Set(float64(c.Malformed()))
	return nil
}

// snapshot returns the installed catalog for the system, or
// ErrCatalogUnavailable when none has been loaded yet.
func (s *ClassificationService) snapshot(system System) (*catalog.Catalog, error) {
	var c *catalog.Catalog
	switch system {
	case SystemICD10:
		c = s.icd10.Load()
	case SystemICD9:
		c = s.icd9.Load()
	default:
		return nil, ErrUnknownSystem
	}
	if c == nil {
		return nil, ErrCatalogUnavailable
	}
	return c, nil
}

// Hierarchy builds the two-level category → sub-code tree for a free-text
// term against the system's current snapshot. An empty term yields an empty
// slice; a missing snapshot yields ErrCatalogUnavailable.
func (s *ClassificationService) Hierarchy(ctx context.Context, system System, term string) ([]catalog.Category, error) {
	tr := otel.Tracer("services/ClassificationService")
	_, span := tr.Start(ctx, "Hierarchy",
		trace.WithAttributes(
			attribute.String("code.system", string(system)),
			attribute.Int("term.len", len(term)),
		),
	)
	defer span.End()

	c, err := s.snapshot(system)
	if err != nil {
		return nil, err
	}
	cats := c.BuildHierarchy(term)
	span.SetAttributes(attribute.Int("categories", len(cats)))
	return cats, nil
}

// Search runs the flat ranked lookup for autocomplete/lookup-by-code.
func (s *ClassificationService) Search(ctx context.Context, system System, term string, limit int) ([]catalog.Entry, error) {
	tr := otel.Tracer("services/ClassificationService")
	_, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("code.system", string(system)),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	c, err := s.snapshot(system)
	if err != nil {
		return nil, err
	}
	results := c.Search(term, limit)
	span.SetAttributes(attribute.Int("results", len(results)))
	return results, nil
}

// Details resolves the ordered sub-codes of a single head category against
// the system's current snapshot.
func (s *ClassificationService) Details(ctx context.Context, system System, headCode string) ([]catalog.Detail, error) {
	c, err := s.snapshot(system)
	if err != nil {
		return nil, err
	}
	return c.ResolveDetails(headCode), nil
}

// Reload re-reads the reference table for the system, builds a fresh
// snapshot, and swaps it in atomically. It returns the number of loaded
// entries. In-flight queries keep the snapshot they started with.
func (s *ClassificationService) Reload(ctx context.Context, system System) (int, error) {
	tr := otel.Tracer("services/ClassificationService")
	ctx, span := tr.Start(ctx, "Reload",
		trace.WithAttributes(attribute.String("code.system", string(system))),
	)
	defer span.End()

	if _, ok := ParseSystem(string(system)); !ok {
		return 0, ErrUnknownSystem
	}
	entries, err := repo.ListCodeEntries(ctx, s.DB, string(system))
	if err != nil {
		return 0, err
	}
	c := catalog.New(entries)
	if err := s.Install(system, c); err != nil {
		return 0, err
	}
	return c.Len(), nil
}
