package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"retail-catalog-service/internal/catalog"
	"retail-catalog-service/internal/domain"
	"retail-catalog-service/internal/store"
)

const defaultSegment = "fnb"

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	catalogs     *catalog.Manager
	productStore store.ProductStorer
	validate     *validator.Validate
	logger       *zap.Logger
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(catalogs *catalog.Manager, ps store.ProductStorer, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		catalogs:     catalogs,
		productStore: ps,
		validate:     validator.New(),
		logger:       logger,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, ErrorResponse{Error: message})
}

func (h *HTTPHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Error("Failed to encode JSON response", zap.Error(err))
		}
	}
}

func querySegment(r *http.Request) string {
	if s := r.URL.Query().Get("segment"); s != "" {
		return s
	}
	return defaultSegment
}

// yearMonthParams parses the {year}/{month} URL segments. The month is
// passed through as-is; composite tokens are decomposed downstream.
func yearMonthParams(r *http.Request) (int, string, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year <= 0 {
		return 0, "", errors.New("invalid year")
	}
	month := strings.ToLower(chi.URLParam(r, "month"))
	if month == "" {
		return 0, "", errors.New("invalid month")
	}
	return year, month, nil
}

// catalogError maps catalog-layer failures onto status codes: unknown
// segment is a normal 404, anything else is the row store or filesystem
// misbehaving and surfaces as temporarily unavailable.
func (h *HTTPHandler) catalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrSegmentNotFound) {
		h.respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error("Catalog operation failed", zap.Error(err))
	h.respondWithError(w, http.StatusServiceUnavailable, "Catalog temporarily unavailable")
}

// --- Catalog Handlers ---

func (h *HTTPHandler) DetectCurrent(w http.ResponseWriter, r *http.Request) {
	current, err := h.catalogs.DetectCurrent(querySegment(r))
	if err != nil {
		h.catalogError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, current)
}

func (h *HTTPHandler) LoadCatalog(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonthParams(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.catalogs.LoadCatalog(r.Context(), year, month, querySegment(r))
	if err != nil {
		h.catalogError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) ValidateProduct(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("product_id")
	category := r.URL.Query().Get("category")
	if code == "" || category == "" {
		h.respondWithError(w, http.StatusBadRequest, "product_id and category are required")
		return
	}

	result, err := h.catalogs.ValidateProduct(r.Context(), code, category, querySegment(r))
	if err != nil {
		h.catalogError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) AvailableMonths(w http.ResponseWriter, r *http.Request) {
	months, err := h.catalogs.AvailableMonths(r.Context())
	if err != nil {
		h.catalogError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, months)
}

func (h *HTTPHandler) ListSegments(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.catalogs.Segments())
}

// pdfResponse carries a located document path; Path is null for absent
// documents, mirroring the locator's "absence is not an error" contract.
type pdfResponse struct {
	Category string  `json:"category,omitempty"`
	Path     *string `json:"path"`
}

func (h *HTTPHandler) CategoryPDF(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonthParams(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	category := r.URL.Query().Get("category")
	if category == "" {
		h.respondWithError(w, http.StatusBadRequest, "category is required")
		return
	}

	path, ok, err := h.catalogs.CategoryPDF(year, month, category, querySegment(r))
	if err != nil {
		h.catalogError(w, err)
		return
	}
	resp := pdfResponse{Category: category}
	if ok {
		resp.Path = &path
	}
	h.respondWithJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) MonthPDFs(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonthParams(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	pdfs, err := h.catalogs.MonthPDFs(year, month, querySegment(r))
	if err != nil {
		h.catalogError(w, err)
		return
	}

	// Every configured category appears, null when no PDF exists.
	response := make(map[string]*string, len(pdfs))
	for category, path := range pdfs {
		if path == "" {
			response[category] = nil
		} else {
			p := path
			response[category] = &p
		}
	}
	h.respondWithJSON(w, http.StatusOK, response)
}

func (h *HTTPHandler) FullCatalogPDF(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonthParams(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, ok, err := h.catalogs.FullCatalogPDF(year, month, querySegment(r))
	if err != nil {
		h.catalogError(w, err)
		return
	}
	resp := pdfResponse{}
	if ok {
		resp.Path = &path
	}
	h.respondWithJSON(w, http.StatusOK, resp)
}

// --- Product Handlers ---

// ProductCreateInput defines the expected input for creating a product.
// Price arrives as a currency-formatted string and is normalized at
// ingestion; the read path only ever sees canonical decimals.
type ProductCreateInput struct {
	Code              string                     `json:"code" validate:"required,max=50"`
	Name              string                     `json:"name" validate:"required,max=200"`
	Description       string                     `json:"description" validate:"max=500"`
	Price             string                     `json:"price" validate:"required"`
	Category          string                     `json:"category" validate:"required,max=100"`
	ImageListingPath  string                     `json:"image_listing_path" validate:"max=500"`
	ImageFeaturesPath *string                    `json:"image_features_path" validate:"omitempty,max=500"`
	Installments      map[string]decimal.Decimal `json:"installments"`
	Month             string                     `json:"month" validate:"required,max=20"`
	Year              int                        `json:"year" validate:"required,gt=0"`
	Segment           string                     `json:"segment" validate:"omitempty,max=50"`
	Status            string                     `json:"status" validate:"omitempty,oneof=available unavailable out_of_stock"`
	InStock           *bool                      `json:"in_stock"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	segment := input.Segment
	if segment == "" {
		segment = defaultSegment
	}
	status := input.Status
	if status == "" {
		status = domain.StatusAvailable
	}
	inStock := true
	if input.InStock != nil {
		inStock = *input.InStock
	}
	status, inStock = syncStatusStock(status, inStock)

	product := &domain.Product{
		Code:              input.Code,
		Name:              input.Name,
		Description:       input.Description,
		Price:             catalog.ParsePrice(input.Price),
		Category:          input.Category,
		ImageListingPath:  input.ImageListingPath,
		ImageFeaturesPath: input.ImageFeaturesPath,
		Installments:      input.Installments,
		Month:             catalog.BareMonth(strings.ToLower(input.Month)),
		Year:              input.Year,
		Segment:           segment,
		Status:            status,
		InStock:           inStock,
	}

	created, err := h.productStore.CreateProduct(r.Context(), product)
	if err != nil {
		h.logger.Error("CreateProduct store operation failed", zap.Error(err))
		if errors.Is(err, store.ErrProductCodeExists) {
			h.respondWithError(w, http.StatusConflict, store.ErrProductCodeExists.Error())
		} else {
			h.respondWithError(w, http.StatusInternalServerError, "Failed to create product")
		}
		return
	}

	// Invalidate before responding so a read that follows the write
	// cannot observe the stale view.
	h.catalogs.Invalidate(created.Segment)

	h.respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := store.ListProductsParams{}
	qParams := r.URL.Query()

	if s := qParams.Get("segment"); s != "" {
		params.Segment = &s
	}
	if yearStr := qParams.Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil || year <= 0 {
			h.respondWithError(w, http.StatusBadRequest, "Invalid year format")
			return
		}
		params.Year = &year
	}
	if month := qParams.Get("month"); month != "" {
		m := strings.ToLower(month)
		params.Month = &m
	}

	products, err := h.productStore.ListProducts(r.Context(), params)
	if err != nil {
		h.logger.Error("ListProducts store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}
	h.respondWithJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || productID <= 0 {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			h.logger.Error("GetProductByID store operation failed", zap.Int64("id", productID), zap.Error(err))
			h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		}
		return
	}
	h.respondWithJSON(w, http.StatusOK, product)
}

// ProductUpdateInput defines the expected input for updating a product.
// All fields are optional; omitted ones keep their stored value.
type ProductUpdateInput struct {
	Code              *string                    `json:"code" validate:"omitempty,max=50"`
	Name              *string                    `json:"name" validate:"omitempty,max=200"`
	Description       *string                    `json:"description" validate:"omitempty,max=500"`
	Price             *string                    `json:"price"`
	Category          *string                    `json:"category" validate:"omitempty,max=100"`
	ImageListingPath  *string                    `json:"image_listing_path" validate:"omitempty,max=500"`
	ImageFeaturesPath *string                    `json:"image_features_path" validate:"omitempty,max=500"`
	Installments      map[string]decimal.Decimal `json:"installments"`
	Month             *string                    `json:"month" validate:"omitempty,max=20"`
	Year              *int                       `json:"year" validate:"omitempty,gt=0"`
	Segment           *string                    `json:"segment" validate:"omitempty,max=50"`
	Status            *string                    `json:"status" validate:"omitempty,oneof=available unavailable out_of_stock"`
	InStock           *bool                      `json:"in_stock"`
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || productID <= 0 {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input ProductUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	existing, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			h.logger.Error("Product lookup for update failed", zap.Int64("id", productID), zap.Error(err))
			h.respondWithError(w, http.StatusInternalServerError, "Error checking product existence")
		}
		return
	}
	previousSegment := existing.Segment

	product := applyProductUpdate(*existing, input)

	updated, err := h.productStore.UpdateProduct(r.Context(), &product)
	if err != nil {
		h.logger.Error("UpdateProduct store operation failed", zap.Int64("id", productID), zap.Error(err))
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else if errors.Is(err, store.ErrProductCodeExists) {
			h.respondWithError(w, http.StatusConflict, store.ErrProductCodeExists.Error())
		} else {
			h.respondWithError(w, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	h.catalogs.Invalidate(updated.Segment)
	if previousSegment != updated.Segment {
		h.catalogs.Invalidate(previousSegment)
	}

	h.respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || productID <= 0 {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	// The segment must be captured before the row disappears.
	existing, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			h.logger.Error("Product lookup for delete failed", zap.Int64("id", productID), zap.Error(err))
			h.respondWithError(w, http.StatusInternalServerError, "Error checking product existence")
		}
		return
	}

	if err := h.productStore.DeleteProduct(r.Context(), productID); err != nil {
		h.logger.Error("DeleteProduct store operation failed", zap.Int64("id", productID), zap.Error(err))
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			h.respondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		}
		return
	}

	h.catalogs.Invalidate(existing.Segment)

	h.respondWithJSON(w, http.StatusNoContent, nil)
}

// applyProductUpdate merges a partial update onto the stored row and
// keeps status and in_stock moving in lockstep: an explicit status wins,
// a stock-only change of in_stock=false marks the product out of stock.
func applyProductUpdate(product domain.Product, input ProductUpdateInput) domain.Product {
	if input.Code != nil {
		product.Code = *input.Code
	}
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = catalog.ParsePrice(*input.Price)
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.ImageListingPath != nil {
		product.ImageListingPath = *input.ImageListingPath
	}
	if input.ImageFeaturesPath != nil {
		product.ImageFeaturesPath = input.ImageFeaturesPath
	}
	if input.Installments != nil {
		product.Installments = input.Installments
	}
	if input.Month != nil {
		product.Month = catalog.BareMonth(strings.ToLower(*input.Month))
	}
	if input.Year != nil {
		product.Year = *input.Year
	}
	if input.Segment != nil {
		product.Segment = strings.ToLower(strings.TrimSpace(*input.Segment))
	}

	switch {
	case input.Status != nil:
		product.Status = *input.Status
		if input.InStock != nil {
			product.InStock = *input.InStock
		}
		product.Status, product.InStock = syncStatusStock(product.Status, product.InStock)
	case input.InStock != nil:
		product.InStock = *input.InStock
		if !product.InStock {
			product.Status = domain.StatusOutOfStock
		}
	}
	return product
}

// syncStatusStock applies the write-path invariant: out_of_stock forces
// in_stock=false, available forces in_stock=true, unavailable leaves the
// stock flag alone.
func syncStatusStock(status string, inStock bool) (string, bool) {
	switch status {
	case domain.StatusOutOfStock:
		return status, false
	case domain.StatusAvailable:
		return status, true
	default:
		return status, inStock
	}
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/current", h.DetectCurrent)
		r.Get("/months", h.AvailableMonths)
		r.Get("/segments", h.ListSegments)
		r.Get("/validate", h.ValidateProduct)
		r.Route("/{year}/{month}", func(r chi.Router) {
			r.Get("/", h.LoadCatalog)
			r.Get("/pdf", h.CategoryPDF)
			r.Get("/pdfs", h.MonthPDFs)
			r.Get("/catalog.pdf", h.FullCatalogPDF)
		})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/", h.ListProducts)
		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", h.GetProductByID)
			r.Put("/", h.UpdateProduct)
			r.Delete("/", h.DeleteProduct)
		})
	})
}
