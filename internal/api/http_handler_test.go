package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"retail-catalog-service/internal/catalog"
	"retail-catalog-service/internal/domain"
	"retail-catalog-service/internal/store"
)

// MockProductStorer is a mock implementation of store.ProductStorer
type MockProductStorer struct {
	mock.Mock
}

func (m *MockProductStorer) ListByMonth(ctx context.Context, year int, month, segment string) ([]domain.Product, error) {
	args := m.Called(ctx, year, month, segment)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

func (m *MockProductStorer) DistinctMonths(ctx context.Context) ([]store.MonthCount, error) {
	args := m.Called(ctx)
	var months []store.MonthCount
	if arg0 := args.Get(0); arg0 != nil {
		months = arg0.([]store.MonthCount)
	}
	return months, args.Error(1)
}

func (m *MockProductStorer) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) ListProducts(ctx context.Context, params store.ListProductsParams) ([]domain.Product, error) {
	args := m.Called(ctx, params)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

func (m *MockProductStorer) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) DeleteProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T, ps store.ProductStorer) *httptest.Server {
	t.Helper()
	segmentMaps := map[string]catalog.CategoryMap{
		"fnb":  {"1-phones": "phones", "2-laptops": "laptops"},
		"gaso": {"1-phones": "phones"},
	}
	catalogs := catalog.NewManager(segmentMaps, t.TempDir(), ps, catalog.NewMonthResolver(), zap.NewNop())
	handler := NewHTTPHandler(catalogs, ps, zap.NewNop())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func catalogRow(code string) domain.Product {
	return domain.Product{
		ID:       1,
		Code:     code,
		Name:     "Phone X",
		Price:    decimal.RequireFromString("999.90"),
		Category: "phones",
		Month:    "november",
		Year:     2025,
		Segment:  "fnb",
		Status:   domain.StatusAvailable,
		InStock:  true,
	}
}

func TestListSegments(t *testing.T) {
	server := setupTestChiServer(t, new(MockProductStorer))

	resp, err := http.Get(server.URL + "/api/v1/catalog/segments")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var segments []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&segments))
	assert.Equal(t, []string{"fnb", "gaso"}, segments)
}

func TestDetectCurrent_UnknownSegment(t *testing.T) {
	server := setupTestChiServer(t, new(MockProductStorer))

	resp, err := http.Get(server.URL + "/api/v1/catalog/current?segment=retail")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDetectCurrent_DefaultSegment(t *testing.T) {
	server := setupTestChiServer(t, new(MockProductStorer))

	resp, err := http.Get(server.URL + "/api/v1/catalog/current")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var current struct {
		Year    int    `json:"year"`
		Month   string `json:"month"`
		Segment string `json:"segment"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&current))
	assert.Equal(t, "fnb", current.Segment)
	assert.NotEmpty(t, current.Month)
	assert.NotZero(t, current.Year)
}

func TestLoadCatalog(t *testing.T) {
	mockStore := new(MockProductStorer)
	mockStore.On("ListByMonth", mock.Anything, 2025, "november", "fnb").
		Return([]domain.Product{catalogRow("P1")}, nil).Once()

	server := setupTestChiServer(t, mockStore)

	resp, err := http.Get(server.URL + "/api/v1/catalog/2025/november?segment=fnb")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view map[string][]map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Len(t, view["phones"], 1)
	assert.Equal(t, "P1", view["phones"][0]["code"])

	mockStore.AssertExpectations(t)
}

func TestLoadCatalog_CachedAcrossRequests(t *testing.T) {
	mockStore := new(MockProductStorer)
	mockStore.On("ListByMonth", mock.Anything, 2025, "november", "fnb").
		Return([]domain.Product{catalogRow("P1")}, nil).Once()

	server := setupTestChiServer(t, mockStore)

	for i := 0; i < 3; i++ {
		resp, err := http.Get(server.URL + "/api/v1/catalog/2025/november")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	mockStore.AssertNumberOfCalls(t, "ListByMonth", 1)
}

func TestLoadCatalog_StoreFailure(t *testing.T) {
	mockStore := new(MockProductStorer)
	mockStore.On("ListByMonth", mock.Anything, 2025, "november", "fnb").
		Return(nil, errors.New("connection refused"))

	server := setupTestChiServer(t, mockStore)

	resp, err := http.Get(server.URL + "/api/v1/catalog/2025/november")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestLoadCatalog_InvalidYear(t *testing.T) {
	server := setupTestChiServer(t, new(MockProductStorer))

	resp, err := http.Get(server.URL + "/api/v1/catalog/banana/november")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidateProduct_MissingParams(t *testing.T) {
	server := setupTestChiServer(t, new(MockProductStorer))

	resp, err := http.Get(server.URL + "/api/v1/catalog/validate?product_id=P1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAvailableMonths(t *testing.T) {
	mockStore := new(MockProductStorer)
	mockStore.On("DistinctMonths", mock.Anything).
		Return([]store.MonthCount{{Year: 2025, Month: "november", ProductCount: 4}}, nil).Once()

	server := setupTestChiServer(t, mockStore)

	resp, err := http.Get(server.URL + "/api/v1/catalog/months")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var months []store.MonthCount
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&months))
	require.Len(t, months, 1)
	assert.Equal(t, 4, months[0].ProductCount)

	mockStore.AssertExpectations(t)
}

func TestMonthPDFs_AllCategoriesPresent(t *testing.T) {
	server := setupTestChiServer(t, new(MockProductStorer))

	resp, err := http.Get(server.URL + "/api/v1/catalog/2025/november/pdfs")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pdfs map[string]*string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pdfs))
	require.Len(t, pdfs, 2, "every configured category must appear")
	assert.Nil(t, pdfs["phones"])
	assert.Nil(t, pdfs["laptops"])
}

func TestCreateProduct_ParsesFormattedPrice(t *testing.T) {
	mockStore := new(MockProductStorer)
	created := catalogRow("P1")
	mockStore.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Code == "P1" &&
			p.Price.Equal(decimal.RequireFromString("4599")) &&
			p.Segment == "fnb" &&
			p.Status == domain.StatusAvailable &&
			p.InStock
	})).Return(&created, nil).Once()

	server := setupTestChiServer(t, mockStore)

	body := map[string]interface{}{
		"code":     "P1",
		"name":     "Phone X",
		"price":    "S/. 4,599",
		"category": "phones",
		"month":    "November",
		"year":     2025,
	}
	payload, _ := json.Marshal(body)

	resp, err := http.Post(server.URL+"/api/v1/products", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	mockStore.AssertExpectations(t)
}

func TestCreateProduct_InvalidatesSegmentCache(t *testing.T) {
	mockStore := new(MockProductStorer)
	mockStore.On("ListByMonth", mock.Anything, 2025, "november", "fnb").
		Return([]domain.Product{}, nil)
	created := catalogRow("P1")
	mockStore.On("CreateProduct", mock.Anything, mock.Anything).Return(&created, nil).Once()

	server := setupTestChiServer(t, mockStore)

	// Prime the cache.
	resp, err := http.Get(server.URL + "/api/v1/catalog/2025/november")
	require.NoError(t, err)
	resp.Body.Close()
	mockStore.AssertNumberOfCalls(t, "ListByMonth", 1)

	body := map[string]interface{}{
		"code": "P1", "name": "Phone X", "price": "999.90",
		"category": "phones", "month": "november", "year": 2025,
	}
	payload, _ := json.Marshal(body)
	resp, err = http.Post(server.URL+"/api/v1/products", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The write must have evicted the cached view.
	resp, err = http.Get(server.URL + "/api/v1/catalog/2025/november")
	require.NoError(t, err)
	resp.Body.Close()
	mockStore.AssertNumberOfCalls(t, "ListByMonth", 2)
}

func TestCreateProduct_ValidationFailure(t *testing.T) {
	server := setupTestChiServer(t, new(MockProductStorer))

	payload, _ := json.Marshal(map[string]interface{}{"name": "No code"})
	resp, err := http.Post(server.URL+"/api/v1/products", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	mockStore := new(MockProductStorer)
	mockStore.On("GetProductByID", mock.Anything, int64(99)).
		Return(nil, store.ErrProductNotFound).Once()

	server := setupTestChiServer(t, mockStore)

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/products/99", server.URL), nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	mockStore.AssertExpectations(t)
}

func TestApplyProductUpdate_StatusStockSync(t *testing.T) {
	base := catalogRow("P1")

	outOfStock := domain.StatusOutOfStock
	updated := applyProductUpdate(base, ProductUpdateInput{Status: &outOfStock})
	assert.Equal(t, domain.StatusOutOfStock, updated.Status)
	assert.False(t, updated.InStock, "out_of_stock forces in_stock=false")

	available := domain.StatusAvailable
	updated = applyProductUpdate(updated, ProductUpdateInput{Status: &available})
	assert.True(t, updated.InStock, "available forces in_stock=true")

	noStock := false
	updated = applyProductUpdate(base, ProductUpdateInput{InStock: &noStock})
	assert.Equal(t, domain.StatusOutOfStock, updated.Status, "stock-only change syncs status")

	unavailable := domain.StatusUnavailable
	withStock := base
	withStock.InStock = true
	updated = applyProductUpdate(withStock, ProductUpdateInput{Status: &unavailable})
	assert.Equal(t, domain.StatusUnavailable, updated.Status)
	assert.True(t, updated.InStock, "unavailable leaves the stock flag alone")
}

func TestApplyProductUpdate_PartialFields(t *testing.T) {
	base := catalogRow("P1")

	newName := "Phone X Pro"
	newPrice := "S/. 1.299.00"
	updated := applyProductUpdate(base, ProductUpdateInput{Name: &newName, Price: &newPrice})

	assert.Equal(t, "Phone X Pro", updated.Name)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("1299")))
	assert.Equal(t, base.Code, updated.Code, "omitted fields keep their stored value")
	assert.Equal(t, base.Category, updated.Category)
}
