package categories

// Category represents a product category. Soft-deleted rows stay in storage
// with is_active=false so historical references survive.
type Category struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsActive    bool    `json:"is_active"`
	NumProducts int     `json:"num_products"`
}

// CreateRequest carries fields for creating a category.
type CreateRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// UpdateRequest carries fields for updating a category.
type UpdateRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}
