// Package errors provides custom error types for the catalog API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Genre errors.
var (
	ErrGenreNotFound       = &AppError{Code: "GENRE_NOT_FOUND", Message: "Genre not found", StatusCode: http.StatusNotFound}
	ErrParentGenreNotFound = &AppError{Code: "PARENT_GENRE_NOT_FOUND", Message: "Parent genre not found", StatusCode: http.StatusNotFound}
	ErrInvalidGenreName    = &AppError{Code: "INVALID_GENRE_NAME", Message: "Genre name must not be blank", StatusCode: http.StatusBadRequest}
	ErrGenreCycle          = &AppError{Code: "GENRE_CYCLE", Message: "A genre cannot be moved under itself or one of its descendants", StatusCode: http.StatusConflict}
)

// Product errors.
var (
	ErrProductNotFound       = &AppError{Code: "PRODUCT_NOT_FOUND", Message: "Product not found", StatusCode: http.StatusNotFound}
	ErrInvalidISBN           = &AppError{Code: "INVALID_ISBN", Message: "ISBN is invalid", StatusCode: http.StatusBadRequest}
	ErrMissingISBN           = &AppError{Code: "MISSING_ISBN", Message: "Provide an ISBN", StatusCode: http.StatusBadRequest}
	ErrDuplicateISBN         = &AppError{Code: "DUPLICATE_ISBN", Message: "ISBN must be unique", StatusCode: http.StatusConflict}
	ErrDuplicateBook         = &AppError{Code: "DUPLICATE_BOOK", Message: "Book title and publication date must be unique", StatusCode: http.StatusConflict}
	ErrFuturePublicationDate = &AppError{Code: "FUTURE_PUBLICATION_DATE", Message: "Publication date must not be in the future", StatusCode: http.StatusBadRequest}
)

// Partner errors.
var (
	ErrPartnerNotFound = &AppError{Code: "PARTNER_NOT_FOUND", Message: "Partner not found", StatusCode: http.StatusNotFound}
	ErrNotAnAuthor     = &AppError{Code: "NOT_AN_AUTHOR", Message: "Partner is not an author", StatusCode: http.StatusBadRequest}
	ErrNotAPublisher   = &AppError{Code: "NOT_A_PUBLISHER", Message: "Partner is not a publisher", StatusCode: http.StatusBadRequest}
)
