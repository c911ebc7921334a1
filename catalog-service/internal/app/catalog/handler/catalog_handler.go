package handler

import (
	"errors"
	"net/http"
	"strconv"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/catalog-service/internal/app/catalog/service"
	"tgshop/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CatalogHandler обрабатывает HTTP запросы для каталога с использованием Gin
type CatalogHandler struct {
	catalogService service.CatalogServiceInterface
	validator      *validator.Validate
}

// NewCatalogHandler создает новый обработчик каталога
func NewCatalogHandler(catalogService service.CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		validator:      validator.New(),
	}
}

// === PRODUCTS HANDLERS ===

// CreateProduct обрабатывает POST /products
// shop_id в теле не задан - товар создается в главном магазине
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	ownerID := c.GetInt64(ownerKey)

	var req entity.CreateProductRequest
	if !h.bind(c, &req) {
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.respondServiceError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProduct обрабатывает GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "Invalid product ID")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), c.GetInt64(ownerKey), id)
	if err != nil {
		h.respondServiceError(c, err, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListProducts обрабатывает GET /products?shop_id=
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	shopID, ok := parseShopID(c)
	if !ok {
		return
	}

	products, err := h.catalogService.ListProducts(c.Request.Context(), c.GetInt64(ownerKey), shopID)
	if err != nil {
		h.respondServiceError(c, err, "Failed to get products")
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{
		Products: products,
		Total:    len(products),
	})
}

// UpdateProduct обрабатывает PUT /products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "Invalid product ID")
	if !ok {
		return
	}

	var req entity.UpdateProductRequest
	if !h.bind(c, &req) {
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), c.GetInt64(ownerKey), id, &req)
	if err != nil {
		h.respondServiceError(c, err, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct обрабатывает DELETE /products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "Invalid product ID")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), c.GetInt64(ownerKey), id); err != nil {
		h.respondServiceError(c, err, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Product deleted successfully",
	})
}

// SyncAll обрабатывает POST /products/sync-all
func (h *CatalogHandler) SyncAll(c *gin.Context) {
	resp, err := h.catalogService.SyncAll(c.Request.Context(), c.GetInt64(ownerKey))
	if err != nil {
		h.respondServiceError(c, err, "Failed to sync catalog")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// === CATEGORIES HANDLERS ===

// CreateCategory обрабатывает POST /categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req entity.CreateCategoryRequest
	if !h.bind(c, &req) {
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), c.GetInt64(ownerKey), &req)
	if err != nil {
		h.respondServiceError(c, err, "Failed to create category")
		return
	}

	c.JSON(http.StatusCreated, category)
}

// ListCategories обрабатывает GET /categories?shop_id=
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	shopID, ok := parseShopID(c)
	if !ok {
		return
	}

	categories, err := h.catalogService.ListCategories(c.Request.Context(), c.GetInt64(ownerKey), shopID)
	if err != nil {
		h.respondServiceError(c, err, "Failed to get categories")
		return
	}

	c.JSON(http.StatusOK, entity.CategoryListResponse{
		Categories: categories,
		Total:      len(categories),
	})
}

// UpdateCategory обрабатывает PUT /categories/:id
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "Invalid category ID")
	if !ok {
		return
	}

	var req entity.UpdateCategoryRequest
	if !h.bind(c, &req) {
		return
	}

	category, err := h.catalogService.UpdateCategory(c.Request.Context(), c.GetInt64(ownerKey), id, &req)
	if err != nil {
		h.respondServiceError(c, err, "Failed to update category")
		return
	}

	c.JSON(http.StatusOK, category)
}

// DeleteCategory обрабатывает DELETE /categories/:id
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "Invalid category ID")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteCategory(c.Request.Context(), c.GetInt64(ownerKey), id); err != nil {
		h.respondServiceError(c, err, "Failed to delete category")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Category deleted successfully",
	})
}

// === SHOPS HANDLERS ===

// RegisterShop обрабатывает POST /shops
func (h *CatalogHandler) RegisterShop(c *gin.Context) {
	var req entity.RegisterShopRequest
	if !h.bind(c, &req) {
		return
	}

	shop, err := h.catalogService.RegisterShop(c.Request.Context(), c.GetInt64(ownerKey), &req)
	if err != nil {
		h.respondServiceError(c, err, "Failed to register shop")
		return
	}

	c.JSON(http.StatusCreated, shop)
}

// ListShops обрабатывает GET /shops
func (h *CatalogHandler) ListShops(c *gin.Context) {
	shops, err := h.catalogService.ListShops(c.Request.Context(), c.GetInt64(ownerKey))
	if err != nil {
		h.respondServiceError(c, err, "Failed to get shops")
		return
	}

	c.JSON(http.StatusOK, entity.ShopListResponse{
		Shops: shops,
		Total: len(shops),
	})
}

// DeactivateShop обрабатывает POST /shops/:id/deactivate
func (h *CatalogHandler) DeactivateShop(c *gin.Context) {
	id, ok := parseID(c, "Invalid shop ID")
	if !ok {
		return
	}

	if err := h.catalogService.DeactivateShop(c.Request.Context(), c.GetInt64(ownerKey), id); err != nil {
		h.respondServiceError(c, err, "Failed to deactivate shop")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Shop deactivated",
	})
}

// ListSyncRuns обрабатывает GET /sync-runs?limit=
func (h *CatalogHandler) ListSyncRuns(c *gin.Context) {
	var limit int64
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			respondError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = v
	}

	runs, err := h.catalogService.ListSyncRuns(c.Request.Context(), c.GetInt64(ownerKey), limit)
	if err != nil {
		h.respondServiceError(c, err, "Failed to get sync runs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

// === HELPER FUNCTIONS ===

// bind разбирает JSON тело и валидирует его; при ошибке ответ уже отправлен
func (h *CatalogHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}

	// Валидация
	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return false
	}
	return true
}

// respondServiceError переводит ошибки сервиса в HTTP статусы
func (h *CatalogHandler) respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, http.StatusNotFound, "Category not found")
	case errors.Is(err, service.ErrShopNotFound):
		respondError(c, http.StatusNotFound, "Shop not found")
	case errors.Is(err, service.ErrShopInactive):
		respondError(c, http.StatusConflict, "Shop is inactive")
	case errors.Is(err, service.ErrCategoryShopMismatch):
		respondError(c, http.StatusBadRequest, "Category belongs to another shop")
	case errors.Is(err, service.ErrInvalidParent):
		respondError(c, http.StatusBadRequest, "Category cannot be its own parent")
	default:
		logger.Error().Err(err).
			Str("request_id", c.GetString(logger.RequestIDKey)).
			Int64("owner_user_id", c.GetInt64(ownerKey)).
			Msg(fallback)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

func parseID(c *gin.Context, message string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, message)
		return 0, false
	}
	return uint(id), true
}

// parseShopID читает ?shop_id=; отсутствие параметра означает главный магазин
func parseShopID(c *gin.Context) (*uint, bool) {
	raw := c.Query("shop_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "Invalid shop_id")
		return nil, false
	}
	shopID := uint(id)
	return &shopID, true
}

// respondError отправляет ответ об ошибке
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// formatValidationError форматирует ошибки валидации
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return validationErrors[0].Field() + " is " + validationErrors[0].Tag()
	}
	return "Validation failed"
}
