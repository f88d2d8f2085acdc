package handler

import (
	"github.com/storefront/commerce-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	ID           string `json:"id"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type profileResponse struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// --- Users ---

type createUserRequest struct {
	Name      string `json:"name"      validate:"required,max=100"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"omitempty,min=6,max=128"`
	Provider  string `json:"provider"  validate:"omitempty,oneof=LOCAL GOOGLE APPLE"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url"`
}

type updateUserRequest struct {
	Name      *string `json:"name"      validate:"omitempty,max=100"`
	Email     *string `json:"email"     validate:"omitempty,email"`
	Password  *string `json:"password"  validate:"omitempty,min=6,max=128"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,url"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN EDITOR USER"`
}

type listUsersQuery struct {
	Email string `query:"email" validate:"omitempty,email"`
	Role  string `query:"role"  validate:"omitempty,oneof=ADMIN EDITOR USER"`
	Page  int    `query:"page"  validate:"omitempty,min=1"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

type userListResponse struct {
	Items      []*domain.User `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

// --- Products ---

type createProductRequest struct {
	ProductName     string   `json:"productName"     validate:"required,max=200"`
	Description     string   `json:"description"     validate:"omitempty,max=2000"`
	Price           float64  `json:"price"           validate:"required,gt=0"`
	QuantityInStock int      `json:"quantityInStock" validate:"min=0"`
	ImageURL        string   `json:"imageUrl"        validate:"omitempty,url"`
	Rating          *float64 `json:"rating"          validate:"omitempty,min=0,max=5"`
}

type updateProductRequest struct {
	ProductName     *string  `json:"productName"     validate:"omitempty,min=1,max=200"`
	Description     *string  `json:"description"     validate:"omitempty,max=2000"`
	Price           *float64 `json:"price"           validate:"omitempty,gt=0"`
	QuantityInStock *int     `json:"quantityInStock" validate:"omitempty,min=0"`
	ImageURL        *string  `json:"imageUrl"        validate:"omitempty,url"`
	Rating          *float64 `json:"rating"          validate:"omitempty,min=0,max=5"`
}

type listProductsQuery struct {
	Name    string `query:"name"`
	Sort    string `query:"sort"    validate:"omitempty,oneof=createdAt productName price quantityInStock rating"`
	SortDir string `query:"sortDir" validate:"omitempty,oneof=ASC DESC asc desc"`
	Page    int    `query:"page"    validate:"omitempty,min=1"`
	Limit   int    `query:"limit"   validate:"omitempty,min=1,max=100"`
}

type productListResponse struct {
	Items      []*domain.Product `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

// --- Orders ---

type placeOrderRequest struct {
	ProductIDs []string `json:"productIds" validate:"required,min=1,dive,required"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed cancelled"`
}

type listOrdersQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=pending completed cancelled"`
	Page   int    `query:"page"   validate:"omitempty,min=1"`
	Limit  int    `query:"limit"  validate:"omitempty,min=1,max=100"`
}

type orderListResponse struct {
	Items      []*domain.Order `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}
