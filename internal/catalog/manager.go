package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"retail-catalog-service/internal/domain"
	"retail-catalog-service/internal/store"
)

// ErrSegmentNotFound reports a request for a segment that is not
// configured. A reportable condition, not a crash.
var ErrSegmentNotFound = errors.New("catalog: segment not found")

// CurrentCatalog is DetectCurrent's answer for one segment.
type CurrentCatalog struct {
	CurrentMonth
	Segment string `json:"segment"`
}

// Manager is the registry over the configured segments. Each segment is
// constructed with its own category map and owns its own cache; the
// manager only routes calls and fans out invalidation.
type Manager struct {
	segments map[string]*SegmentCatalog
	names    []string
	store    store.ProductStorer
	logger   *zap.Logger
}

// NewManager builds a SegmentCatalog per entry of segmentMaps. The
// segment count is arbitrary, not hardcoded.
func NewManager(segmentMaps map[string]CategoryMap, documentsBase string, st store.ProductStorer, months *MonthResolver, logger *zap.Logger) *Manager {
	m := &Manager{
		segments: make(map[string]*SegmentCatalog, len(segmentMaps)),
		store:    st,
		logger:   logger,
	}
	for name, categories := range segmentMaps {
		sc := NewSegmentCatalog(name, categories, documentsBase, st, months, logger)
		m.segments[sc.Name()] = sc
		m.names = append(m.names, sc.Name())
	}
	sort.Strings(m.names)
	return m
}

// Segment looks up a configured segment, case/whitespace-insensitive.
func (m *Manager) Segment(name string) (*SegmentCatalog, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	sc, ok := m.segments[normalized]
	if !ok {
		return nil, fmt.Errorf("%w: %q (configured: %s)", ErrSegmentNotFound, normalized, strings.Join(m.names, ", "))
	}
	return sc, nil
}

// Segments returns the configured segment names, sorted.
func (m *Manager) Segments() []string {
	return m.names
}

// Invalidate clears the named segment's cache, or every segment's when
// name is empty. Unknown names degrade to a logged warning so a write
// path can never fail on invalidation.
func (m *Manager) Invalidate(name string) {
	if name == "" {
		for _, sc := range m.segments {
			sc.Invalidate()
		}
		m.logger.Info("Cache invalidated for all segments")
		return
	}
	sc, err := m.Segment(name)
	if err != nil {
		m.logger.Warn("Invalidate for unknown segment", zap.String("segment", name))
		return
	}
	sc.Invalidate()
}

// DetectCurrent reports the currently detected catalog for a segment.
func (m *Manager) DetectCurrent(segment string) (*CurrentCatalog, error) {
	sc, err := m.Segment(segment)
	if err != nil {
		return nil, err
	}
	return &CurrentCatalog{CurrentMonth: sc.DetectCurrent(), Segment: sc.Name()}, nil
}

// LoadCatalog returns the (year, month) view of a segment.
func (m *Manager) LoadCatalog(ctx context.Context, year int, month, segment string) (domain.CatalogView, error) {
	sc, err := m.Segment(segment)
	if err != nil {
		return nil, err
	}
	return sc.Load(ctx, year, month)
}

// ValidateProduct checks a product against a segment's current month.
func (m *Manager) ValidateProduct(ctx context.Context, code, category, segment string) (*ValidationResult, error) {
	sc, err := m.Segment(segment)
	if err != nil {
		return nil, err
	}
	return sc.ValidateProduct(ctx, code, category)
}

// AvailableMonths reports the distinct (year, month) pairs across all
// segments with a product count each, newest first. A cross-segment
// aggregate, unlike Load.
func (m *Manager) AvailableMonths(ctx context.Context) ([]store.MonthCount, error) {
	months, err := m.store.DistinctMonths(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: available months: %w", err)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year > months[j].Year
		}
		return months[i].Month > months[j].Month
	})
	return months, nil
}

// CategoryPDF locates one category's PDF for a segment.
func (m *Manager) CategoryPDF(year int, month, category, segment string) (string, bool, error) {
	sc, err := m.Segment(segment)
	if err != nil {
		return "", false, err
	}
	path, ok := sc.CategoryPDF(year, month, category)
	return path, ok, nil
}

// MonthPDFs lists a segment's category PDFs for a month.
func (m *Manager) MonthPDFs(year int, month, segment string) (map[string]string, error) {
	sc, err := m.Segment(segment)
	if err != nil {
		return nil, err
	}
	return sc.MonthPDFs(year, month), nil
}

// FullCatalogPDF locates a segment's month-level catalog document.
func (m *Manager) FullCatalogPDF(year int, month, segment string) (string, bool, error) {
	sc, err := m.Segment(segment)
	if err != nil {
		return "", false, err
	}
	path, ok := sc.FullCatalogPDF(year, month)
	return path, ok, nil
}
