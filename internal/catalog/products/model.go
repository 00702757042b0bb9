package products

// Product is a catalog item priced per unit, stocked per size.
type Product struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	Description     *string     `json:"description,omitempty"`
	Price           float64     `json:"price"`
	DiscountPct     *float64    `json:"discount_pct,omitempty"`
	DiscountedPrice *float64    `json:"discounted_price,omitempty"`
	CategoryID      int64       `json:"category_id"`
	CategoryName    string      `json:"category,omitempty"`
	IsActive        bool        `json:"is_active"`
	Sizes           []SizeStock `json:"sizes"`
	StockTotal      int         `json:"stock_total"`
}

// Size is a catalog-wide size definition (e.g. S, M, L).
type Size struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// SizeStock is the per-size stock count of one product. Stock never goes
// below zero; the sales core is the only writer besides administrative sets.
type SizeStock struct {
	SizeID   int64  `json:"size_id"`
	SizeName string `json:"size"`
	Stock    int    `json:"stock"`
}

// CreateRequest carries fields for creating a product.
type CreateRequest struct {
	Name        string         `json:"name" validate:"required,max=200"`
	Description *string        `json:"description,omitempty" validate:"omitempty,max=1000"`
	Price       float64        `json:"price" validate:"required,gt=0"`
	DiscountPct *float64       `json:"discount_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
	CategoryID  int64          `json:"category_id" validate:"required,gt=0"`
	Sizes       []SizeStockReq `json:"sizes" validate:"dive"`
}

// UpdateRequest carries fields for updating a product. The size set replaces
// the stored one in full.
type UpdateRequest struct {
	Name        string         `json:"name" validate:"required,max=200"`
	Description *string        `json:"description,omitempty" validate:"omitempty,max=1000"`
	Price       float64        `json:"price" validate:"required,gt=0"`
	DiscountPct *float64       `json:"discount_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
	CategoryID  int64          `json:"category_id" validate:"required,gt=0"`
	Sizes       []SizeStockReq `json:"sizes" validate:"dive"`
}

// SizeStockReq is one size/stock pair in a create or update request.
type SizeStockReq struct {
	SizeID int64 `json:"size_id" validate:"required,gt=0"`
	Stock  int   `json:"stock" validate:"gte=0"`
}

// ListFilter narrows product listings.
type ListFilter struct {
	CategoryID int64
	Search     string
}
