package sales

import "time"

// Status enumerates sale lifecycle states. Sales are an append-only ledger;
// today every committed sale is COMPLETED.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
)

// Sale is the committed header of one point-of-sale transaction.
type Sale struct {
	ID                int64      `json:"id" db:"id"`
	Folio             string     `json:"folio" db:"folio"`
	SellerID          int64      `json:"seller_id" db:"seller_id"`
	SellerName        string     `json:"seller,omitempty" db:"seller_name"`
	Subtotal          float64    `json:"subtotal" db:"subtotal"`
	Discount          float64    `json:"discount" db:"discount"`
	DiscountNote      *string    `json:"discount_note,omitempty" db:"discount_note"`
	Total             float64    `json:"total" db:"total"`
	PaymentMethodID   int64      `json:"payment_method_id" db:"payment_method_id"`
	PaymentMethodName string     `json:"payment_method,omitempty" db:"payment_method_name"`
	AmountTendered    *float64   `json:"amount_tendered,omitempty" db:"amount_tendered"`
	Change            *float64   `json:"change,omitempty" db:"change"`
	Status            Status     `json:"status" db:"status"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	Lines             []SaleLine `json:"lines,omitempty" db:"-"`
	NumItems          int        `json:"num_items,omitempty" db:"-"`
}

// SaleLine is one product-size-quantity entry within a sale. Product and
// size names are denormalized at sale time so later catalog edits or
// deletions never rewrite history.
type SaleLine struct {
	ID          int64   `json:"id" db:"id"`
	SaleID      int64   `json:"sale_id" db:"sale_id"`
	ProductID   int64   `json:"product_id" db:"product_id"`
	SizeID      int64   `json:"size_id" db:"size_id"`
	ProductName string  `json:"product_name" db:"product_name"`
	SizeName    string  `json:"size_name" db:"size_name"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	Quantity    int     `json:"quantity" db:"quantity"`
	Subtotal    float64 `json:"subtotal" db:"subtotal"`
}

// PaymentMethod is a lookup row referenced by sales.
type PaymentMethod struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Seller is the subset of a user account shown in POS pickers.
type Seller struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateRequest is the submit-sale payload.
type CreateRequest struct {
	Items           []ItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethodID int64         `json:"payment_method_id" validate:"required,gt=0"`
	Discount        float64       `json:"discount" validate:"gte=0"`
	DiscountNote    *string       `json:"discount_note,omitempty" validate:"omitempty,max=500"`
	AmountTendered  *float64      `json:"amount_tendered,omitempty" validate:"omitempty,gte=0"`
}

// ItemRequest is one cart line. The unit price is the price shown to the
// buyer at sale time and is deliberately not re-read from the catalog.
type ItemRequest struct {
	ProductID   int64   `json:"product_id" validate:"required,gt=0"`
	SizeID      int64   `json:"size_id" validate:"required,gt=0"`
	ProductName string  `json:"product_name" validate:"required,max=200"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
}

// CreateResult identifies the committed sale.
type CreateResult struct {
	ID    int64  `json:"id"`
	Folio string `json:"folio"`
}

// ListFilter narrows sale listings.
type ListFilter struct {
	DateFrom        *time.Time
	DateTo          *time.Time
	SellerID        int64
	PaymentMethodID int64
	ProductID       int64
}
