package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid indicates a malformed, expired or badly signed token.
	ErrTokenInvalid = errors.New("invalid or expired token")
	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrSizeUnavailable indicates the requested size variant does not exist.
	ErrSizeUnavailable = errors.New("size not available for product")
	// ErrStockTooLow indicates available stock is below the requested quantity.
	ErrStockTooLow = errors.New("insufficient stock")
	// ErrCategoryNotEmpty blocks deleting a category that still has active products.
	ErrCategoryNotEmpty = errors.New("category has active products")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrSelfDelete blocks a user from deactivating their own account.
	ErrSelfDelete = errors.New("cannot delete own account")
)
