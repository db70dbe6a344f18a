package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"retail-catalog-service/internal/domain"
	"retail-catalog-service/internal/store"
)

// Validation reasons reported by ValidateProduct. Not-found is a normal
// negative result, never an error.
const (
	ReasonCategoryNotFound = "category_not_found"
	ReasonProductNotFound  = "product_not_found"
	ReasonOutOfStock       = "out_of_stock"
)

// ValidationResult is the outcome of checking one product against the
// currently detected month's catalog.
type ValidationResult struct {
	Available bool                   `json:"available"`
	Reason    string                 `json:"reason,omitempty"`
	Product   *domain.CatalogProduct `json:"product,omitempty"`
}

// SegmentCatalog is the authoritative view of one segment's products per
// month. It owns the segment's category map, its document locator, and
// one in-memory cache keyed by (year, month). The cache never expires by
// time, only by explicit invalidation.
type SegmentCatalog struct {
	name       string
	categories CategoryMap
	locator    *DocumentLocator
	store      store.ProductStorer
	months     *MonthResolver
	logger     *zap.Logger

	mu    sync.RWMutex
	cache map[string]domain.CatalogView
}

// NewSegmentCatalog builds the catalog for one segment. documentsBase is
// the root of the on-disk PDF tree shared by all segments.
func NewSegmentCatalog(name string, categories CategoryMap, documentsBase string, st store.ProductStorer, months *MonthResolver, logger *zap.Logger) *SegmentCatalog {
	normalized := strings.ToLower(strings.TrimSpace(name))
	return &SegmentCatalog{
		name:       normalized,
		categories: categories,
		locator:    NewDocumentLocator(documentsBase, normalized, categories),
		store:      st,
		months:     months,
		logger:     logger.With(zap.String("segment", normalized)),
		cache:      make(map[string]domain.CatalogView),
	}
}

// Name returns the normalized segment identifier.
func (s *SegmentCatalog) Name() string {
	return s.name
}

// Categories returns the segment's category map.
func (s *SegmentCatalog) Categories() CategoryMap {
	return s.categories
}

// DetectCurrent reports the currently detected (year, month) for this
// segment.
func (s *SegmentCatalog) DetectCurrent() CurrentMonth {
	return s.months.Current()
}

// Load returns the catalog view for (year, month), querying the row
// store on a cache miss. Composite month tokens like "12-december" are
// decomposed to the canonical name first. A store failure leaves the
// cache exactly as it was.
func (s *SegmentCatalog) Load(ctx context.Context, year int, month string) (domain.CatalogView, error) {
	monthName := BareMonth(month)
	key := cacheKey(year, monthName)

	s.mu.RLock()
	view, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		cacheHitsTotal.WithLabelValues(s.name).Inc()
		return view, nil
	}
	cacheMissesTotal.WithLabelValues(s.name).Inc()

	start := time.Now()
	products, err := s.store.ListByMonth(ctx, year, monthName, s.name)
	if err != nil {
		return nil, fmt.Errorf("catalog: load %s %s: %w", s.name, key, err)
	}
	catalogLoadDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())

	view = s.buildView(year, monthName, products)

	s.mu.Lock()
	s.cache[key] = view
	s.mu.Unlock()

	s.logger.Info("Catalog loaded",
		zap.String("key", key),
		zap.Int("products", len(products)),
		zap.Int("categories", len(view)))
	return view, nil
}

// buildView groups rows by category and derives the per-request Active
// flag. The status/in_stock conjunction is taken literally even when the
// two fields disagree; the write path keeps them in sync, the read path
// does not re-derive one from the other.
func (s *SegmentCatalog) buildView(year int, monthName string, products []domain.Product) domain.CatalogView {
	current := s.months.IsCurrent(year, monthName)
	validity := domain.Validity(year, monthName)

	view := make(domain.CatalogView)
	for _, p := range products {
		view[p.Category] = append(view[p.Category], domain.CatalogProduct{
			Product:  p,
			Active:   p.Status == domain.StatusAvailable && p.InStock && current,
			Validity: validity,
		})
	}
	return view
}

// Invalidate clears the segment's entire cache, every month. Writes may
// touch a (year, month) other than what is cached, so clearing a single
// key would be unsafe.
func (s *SegmentCatalog) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]domain.CatalogView)
	s.mu.Unlock()
	cacheInvalidationsTotal.WithLabelValues(s.name).Inc()
	s.logger.Info("Cache invalidated")
}

// ValidateProduct checks product availability in the currently detected
// month, not an arbitrary one.
func (s *SegmentCatalog) ValidateProduct(ctx context.Context, code, category string) (*ValidationResult, error) {
	current := s.DetectCurrent()
	view, err := s.Load(ctx, current.Year, current.Month)
	if err != nil {
		return nil, err
	}

	canonical, ok := s.categories.Resolve(category)
	if !ok {
		return &ValidationResult{Reason: ReasonCategoryNotFound}, nil
	}
	products, ok := view[canonical]
	if !ok {
		return &ValidationResult{Reason: ReasonCategoryNotFound}, nil
	}

	for i := range products {
		if products[i].Code == code {
			if !products[i].InStock {
				return &ValidationResult{Reason: ReasonOutOfStock}, nil
			}
			return &ValidationResult{Available: true, Product: &products[i]}, nil
		}
	}
	return &ValidationResult{Reason: ReasonProductNotFound}, nil
}

// CategoryPDF locates the companion PDF for one category. Uncached.
func (s *SegmentCatalog) CategoryPDF(year int, month, category string) (string, bool) {
	return s.locator.CategoryPDF(year, month, category)
}

// MonthPDFs lists the category PDFs for a month, one entry per
// configured category.
func (s *SegmentCatalog) MonthPDFs(year int, month string) map[string]string {
	return s.locator.MonthPDFs(year, month)
}

// FullCatalogPDF locates the month-level catalog document.
func (s *SegmentCatalog) FullCatalogPDF(year int, month string) (string, bool) {
	return s.locator.FullCatalogPDF(year, month)
}

func cacheKey(year int, month string) string {
	return fmt.Sprintf("%d-%s", year, month)
}
