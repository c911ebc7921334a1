package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/catalog-service/internal/app/catalog/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSecret       = "test-secret"
	testOwner  int64 = 42
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockCatalogService мок для CatalogService в тестах handler
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) CreateProduct(ctx context.Context, ownerID int64, req *entity.CreateProductRequest) (*entity.Product, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockCatalogService) GetProduct(ctx context.Context, ownerID int64, id uint) (*entity.Product, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockCatalogService) ListProducts(ctx context.Context, ownerID int64, shopID *uint) ([]entity.Product, error) {
	args := m.Called(ctx, ownerID, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Product), args.Error(1)
}

func (m *MockCatalogService) UpdateProduct(ctx context.Context, ownerID int64, id uint, req *entity.UpdateProductRequest) (*entity.Product, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockCatalogService) DeleteProduct(ctx context.Context, ownerID int64, id uint) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockCatalogService) SyncAll(ctx context.Context, ownerID int64) (*entity.SyncAllResponse, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SyncAllResponse), args.Error(1)
}

func (m *MockCatalogService) CreateCategory(ctx context.Context, ownerID int64, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockCatalogService) ListCategories(ctx context.Context, ownerID int64, shopID *uint) ([]entity.Category, error) {
	args := m.Called(ctx, ownerID, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Category), args.Error(1)
}

func (m *MockCatalogService) UpdateCategory(ctx context.Context, ownerID int64, id uint, req *entity.UpdateCategoryRequest) (*entity.Category, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockCatalogService) DeleteCategory(ctx context.Context, ownerID int64, id uint) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockCatalogService) RegisterShop(ctx context.Context, ownerID int64, req *entity.RegisterShopRequest) (*entity.Shop, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Shop), args.Error(1)
}

func (m *MockCatalogService) ListShops(ctx context.Context, ownerID int64) ([]entity.Shop, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Shop), args.Error(1)
}

func (m *MockCatalogService) DeactivateShop(ctx context.Context, ownerID int64, id uint) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockCatalogService) ListSyncRuns(ctx context.Context, ownerID int64, limit int64) ([]entity.SyncRun, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SyncRun), args.Error(1)
}

// Хелперы для создания тестового окружения

func setupTestRouter(svc service.CatalogServiceInterface, syncBurst int) *gin.Engine {
	return SetupRoutes(
		NewCatalogHandler(svc),
		NewAuthMiddleware(testSecret),
		NewOwnerRateLimiter(0.001, syncBurst),
		[]string{"*"},
	)
}

func signToken(t *testing.T, ownerID int64, secret string, ttl time.Duration) string {
	t.Helper()
	claims := JWTClaims{
		OwnerUserID: ownerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, testOwner, testSecret, time.Hour))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) entity.ErrorResponse {
	t.Helper()
	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ==================== Auth Middleware Tests ====================

func TestAuth_MissingHeader(t *testing.T) {
	router := setupTestRouter(new(MockCatalogService), 1)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_WrongSecret(t *testing.T) {
	router := setupTestRouter(new(MockCatalogService), 1)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testOwner, "other-secret", time.Hour))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	router := setupTestRouter(new(MockCatalogService), 1)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testOwner, testSecret, -time.Minute))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_MissingOwnerClaim(t *testing.T) {
	router := setupTestRouter(new(MockCatalogService), 1)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 0, testSecret, time.Hour))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token claims", decodeError(t, w).Message)
}

func TestHealth_Public(t *testing.T) {
	router := setupTestRouter(new(MockCatalogService), 1)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "catalog-service")
}

// ==================== Product Handler Tests ====================

func TestCreateProductHandler_Success(t *testing.T) {
	// Arrange
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)

	shopID := uint(3)
	created := &entity.Product{ID: 10, OwnerUserID: testOwner, ShopID: &shopID, Name: "Widget", Price: 10, SyncProductID: &shopID}
	svc.On("CreateProduct", mock.Anything, testOwner, mock.MatchedBy(func(req *entity.CreateProductRequest) bool {
		return req.Name == "Widget" && req.ShopID != nil && *req.ShopID == 3
	})).Return(created, nil)

	// Act
	w := doRequest(t, router, http.MethodPost, "/products", entity.CreateProductRequest{ShopID: &shopID, Name: "Widget", Price: 10})

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)
	var resp entity.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(10), resp.ID)
	svc.AssertExpectations(t)
}

func TestCreateProductHandler_InvalidJSON(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)

	w := doRequest(t, router, http.MethodPost, "/products", "invalid json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateProductHandler_ValidationError(t *testing.T) {
	// Arrange
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)

	// Price должен быть больше нуля
	w := doRequest(t, router, http.MethodPost, "/products", entity.CreateProductRequest{Name: "Widget"})

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Price is required", decodeError(t, w).Message)
	svc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateProductHandler_ShopErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"foreign shop", service.ErrShopNotFound, http.StatusNotFound},
		{"inactive shop", service.ErrShopInactive, http.StatusConflict},
		{"category from another shop", service.ErrCategoryShopMismatch, http.StatusBadRequest},
		{"database failure", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockCatalogService)
			router := setupTestRouter(svc, 1)
			svc.On("CreateProduct", mock.Anything, testOwner, mock.Anything).Return(nil, tc.err)

			w := doRequest(t, router, http.MethodPost, "/products", entity.CreateProductRequest{Name: "Widget", Price: 10})

			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestListProductsHandler_MainShop(t *testing.T) {
	// Arrange
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	products := []entity.Product{{ID: 1, Name: "Widget", Price: 10}, {ID: 2, Name: "Gadget", Price: 5}}
	svc.On("ListProducts", mock.Anything, testOwner, (*uint)(nil)).Return(products, nil)

	// Act
	w := doRequest(t, router, http.MethodGet, "/products", nil)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	var resp entity.ProductListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	svc.AssertExpectations(t)
}

func TestListProductsHandler_SatelliteShop(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	shopID := uint(7)
	svc.On("ListProducts", mock.Anything, testOwner, &shopID).Return([]entity.Product{}, nil)

	w := doRequest(t, router, http.MethodGet, "/products?shop_id=7", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestListProductsHandler_InvalidShopID(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)

	w := doRequest(t, router, http.MethodGet, "/products?shop_id=abc", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "ListProducts", mock.Anything, mock.Anything, mock.Anything)
}

func TestListProductsHandler_ReconcileFailure(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	svc.On("ListProducts", mock.Anything, testOwner, (*uint)(nil)).Return(nil, errors.New("failed to reconcile catalog"))

	w := doRequest(t, router, http.MethodGet, "/products", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to get products", decodeError(t, w).Message)
}

func TestGetProductHandler_InvalidID(t *testing.T) {
	router := setupTestRouter(new(MockCatalogService), 1)

	w := doRequest(t, router, http.MethodGet, "/products/abc", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProductHandler_NotFound(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	svc.On("GetProduct", mock.Anything, testOwner, uint(99)).Return(nil, service.ErrProductNotFound)

	w := doRequest(t, router, http.MethodGet, "/products/99", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", decodeError(t, w).Message)
}

func TestUpdateProductHandler_Success(t *testing.T) {
	// Arrange
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	price := 12.5
	svc.On("UpdateProduct", mock.Anything, testOwner, uint(5), mock.MatchedBy(func(req *entity.UpdateProductRequest) bool {
		return req.Price != nil && *req.Price == 12.5 && req.Name == nil
	})).Return(&entity.Product{ID: 5, Name: "Widget", Price: 12.5}, nil)

	// Act
	w := doRequest(t, router, http.MethodPut, "/products/5", entity.UpdateProductRequest{Price: &price})

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestUpdateProductHandler_ValidationError(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	discount := 150.0

	w := doRequest(t, router, http.MethodPut, "/products/5", entity.UpdateProductRequest{Discount: &discount})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProductHandler_ClearCategory(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	svc.On("UpdateProduct", mock.Anything, testOwner, uint(5), mock.MatchedBy(func(req *entity.UpdateProductRequest) bool {
		return req.ClearCategory && req.CategoryID == nil
	})).Return(&entity.Product{ID: 5, Name: "Widget"}, nil)

	w := doRequest(t, router, http.MethodPut, "/products/5", map[string]interface{}{"clear_category": true})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestUpdateProductHandler_ClearCategoryWithCategoryID(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)

	w := doRequest(t, router, http.MethodPut, "/products/5", map[string]interface{}{
		"clear_category": true,
		"category_id":    3,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ClearCategory is excluded_with")
	svc.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteProductHandler_Success(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	svc.On("DeleteProduct", mock.Anything, testOwner, uint(5)).Return(nil)

	w := doRequest(t, router, http.MethodDelete, "/products/5", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

// ==================== Sync All Handler Tests ====================

func TestSyncAllHandler_Success(t *testing.T) {
	// Arrange
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	svc.On("SyncAll", mock.Anything, testOwner).Return(&entity.SyncAllResponse{SyncedCount: 3, DeletedCount: 1}, nil)

	// Act
	w := doRequest(t, router, http.MethodPost, "/products/sync-all", nil)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"synced_count":3,"deleted_count":1}`, w.Body.String())
}

func TestSyncAllHandler_RateLimited(t *testing.T) {
	// Arrange
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	svc.On("SyncAll", mock.Anything, testOwner).Return(&entity.SyncAllResponse{}, nil).Once()

	// Act
	first := doRequest(t, router, http.MethodPost, "/products/sync-all", nil)
	second := doRequest(t, router, http.MethodPost, "/products/sync-all", nil)

	// Assert
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	svc.AssertNumberOfCalls(t, "SyncAll", 1)
}

func TestSyncAllHandler_Failure(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	svc.On("SyncAll", mock.Anything, testOwner).Return(nil, errors.New("deadlock detected"))

	w := doRequest(t, router, http.MethodPost, "/products/sync-all", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestOwnerRateLimiter_PerOwner(t *testing.T) {
	limiter := NewOwnerRateLimiter(0.001, 1)

	assert.True(t, limiter.allow(1))
	assert.False(t, limiter.allow(1))
	assert.True(t, limiter.allow(2))
}

func TestOwnerRateLimiter_Disabled(t *testing.T) {
	limiter := NewOwnerRateLimiter(0, 0)

	for i := 0; i < 10; i++ {
		assert.True(t, limiter.allow(1))
	}
	assert.Zero(t, limiter.size())
}

func TestOwnerRateLimiter_EvictsIdleOwners(t *testing.T) {
	// Arrange: 1 rps, burst 2 - корзина наполняется за 2s
	clock := time.Unix(1_700_000_000, 0)
	limiter := NewOwnerRateLimiter(1, 2)
	limiter.now = func() time.Time { return clock }
	limiter.lastSweep = clock

	assert.True(t, limiter.allow(1))
	assert.True(t, limiter.allow(2))

	// Act: до истечения idle ничего не удаляется
	clock = clock.Add(time.Second)
	assert.True(t, limiter.allow(2))

	// Assert
	assert.Equal(t, 2, limiter.size())

	// Act: владелец 1 простаивает дольше 2s
	clock = clock.Add(1500 * time.Millisecond)
	assert.True(t, limiter.allow(3))

	// Assert
	assert.Equal(t, 2, limiter.size())
	_, kept := limiter.limiters[1]
	assert.False(t, kept)
	_, kept = limiter.limiters[2]
	assert.True(t, kept)
}

func TestOwnerRateLimiter_LimitSurvivesSweep(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	limiter := NewOwnerRateLimiter(0.5, 1)
	limiter.now = func() time.Time { return clock }
	limiter.lastSweep = clock

	assert.True(t, limiter.allow(1))
	clock = clock.Add(time.Second)
	assert.False(t, limiter.allow(1))

	// Через 2s после первого запроса корзина снова полна
	clock = clock.Add(time.Second)
	assert.True(t, limiter.allow(1))
	assert.False(t, limiter.allow(1))
}

// ==================== Category Handler Tests ====================

func TestCreateCategoryHandler_Success(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	svc.On("CreateCategory", mock.Anything, testOwner, mock.AnythingOfType("*entity.CreateCategoryRequest")).
		Return(&entity.Category{ID: 1, Name: "Food"}, nil)

	w := doRequest(t, router, http.MethodPost, "/categories", entity.CreateCategoryRequest{Name: "Food"})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateCategoryHandler_ValidationError(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)

	// Name слишком короткий (меньше 2 символов)
	w := doRequest(t, router, http.MethodPost, "/categories", entity.CreateCategoryRequest{Name: "A"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name is min", decodeError(t, w).Message)
}

func TestListCategoriesHandler_Success(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	shopID := uint(3)
	svc.On("ListCategories", mock.Anything, testOwner, &shopID).Return([]entity.Category{{ID: 1, Name: "Food", ShopID: &shopID}}, nil)

	w := doRequest(t, router, http.MethodGet, "/categories?shop_id=3", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp entity.CategoryListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestUpdateCategoryHandler_InvalidParent(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	parent := uint(4)
	svc.On("UpdateCategory", mock.Anything, testOwner, uint(4), mock.Anything).Return(nil, service.ErrInvalidParent)

	w := doRequest(t, router, http.MethodPut, "/categories/4", entity.UpdateCategoryRequest{ParentID: &parent})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteCategoryHandler_NotFound(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	svc.On("DeleteCategory", mock.Anything, testOwner, uint(8)).Return(service.ErrCategoryNotFound)

	w := doRequest(t, router, http.MethodDelete, "/categories/8", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ==================== Shop Handler Tests ====================

func TestRegisterShopHandler_Success(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	svc.On("RegisterShop", mock.Anything, testOwner, &entity.RegisterShopRequest{Name: "Second bot"}).
		Return(&entity.Shop{ID: 3, OwnerUserID: testOwner, Name: "Second bot", IsActive: true}, nil)

	w := doRequest(t, router, http.MethodPost, "/shops", entity.RegisterShopRequest{Name: "Second bot"})

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestListShopsHandler_Success(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	svc.On("ListShops", mock.Anything, testOwner).Return([]entity.Shop{{ID: 3, Name: "B", IsActive: true}}, nil)

	w := doRequest(t, router, http.MethodGet, "/shops", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp entity.ShopListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestDeactivateShopHandler_NotFound(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	svc.On("DeactivateShop", mock.Anything, testOwner, uint(3)).Return(service.ErrShopNotFound)

	w := doRequest(t, router, http.MethodPost, "/shops/3/deactivate", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ==================== Sync Runs Handler Tests ====================

func TestListSyncRunsHandler_Success(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)
	svc.On("ListSyncRuns", mock.Anything, testOwner, int64(5)).Return([]entity.SyncRun{{OwnerUserID: testOwner, Trigger: "cron"}}, nil)

	w := doRequest(t, router, http.MethodGet, "/sync-runs?limit=5", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestListSyncRunsHandler_InvalidLimit(t *testing.T) {
	svc := new(MockCatalogService)
	router := setupTestRouter(svc, 1)

	w := doRequest(t, router, http.MethodGet, "/sync-runs?limit=-1", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
