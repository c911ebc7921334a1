package entity

type CreateCategoryRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	ShopID   *uint  `json:"shop_id" validate:"omitempty,gt=0"`
	ParentID *uint  `json:"parent_id" validate:"omitempty,gt=0"`
}

type UpdateCategoryRequest struct {
	Name     string `json:"name" validate:"omitempty,min=2,max=100"`
	ParentID *uint  `json:"parent_id" validate:"omitempty,gt=0"`
}

type CreateProductRequest struct {
	ShopID      *uint    `json:"shop_id" validate:"omitempty,gt=0"`
	CategoryID  *uint    `json:"category_id" validate:"omitempty,gt=0"`
	Name        string   `json:"name" validate:"required,min=2,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Discount    float64  `json:"discount" validate:"gte=0,lte=100"`
	Quantity    int      `json:"quantity" validate:"gte=0"`
	Images      []string `json:"images" validate:"max=10,dive,url"`
	IsHidden    bool     `json:"is_hidden"`
	IsPreorder  bool     `json:"is_preorder"`
}

// UpdateProductRequest - частичное обновление: nil означает "не менять"
type UpdateProductRequest struct {
	CategoryID *uint `json:"category_id" validate:"omitempty,gt=0"`
	// ClearCategory убирает товар из категории; вместе с category_id не допускается
	ClearCategory bool      `json:"clear_category" validate:"excluded_with=CategoryID"`
	Name          *string   `json:"name" validate:"omitempty,min=2,max=200"`
	Description   *string   `json:"description" validate:"omitempty,max=2000"`
	Price         *float64  `json:"price" validate:"omitempty,gt=0"`
	Discount      *float64  `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Quantity      *int      `json:"quantity" validate:"omitempty,gte=0"`
	Images        *[]string `json:"images" validate:"omitempty,max=10,dive,url"`
	IsHidden      *bool     `json:"is_hidden"`
	IsPreorder    *bool     `json:"is_preorder"`
}

type RegisterShopRequest struct {
	Name string `json:"name" validate:"required,min=2,max=200"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

type CategoryListResponse struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
}

type ShopListResponse struct {
	Shops []Shop `json:"shops"`
	Total int    `json:"total"`
}

// SyncAllResponse - ответ POST /products/sync-all
type SyncAllResponse struct {
	SyncedCount  int `json:"synced_count"`
	DeletedCount int `json:"deleted_count"`
}
