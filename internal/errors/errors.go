package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrBookNotFound is returned when a book is not found.
	ErrBookNotFound = errors.New("Book not found")
	// ErrReviewNotFound is returned when a review is not found.
	ErrReviewNotFound = errors.New("Review not found")
	// ErrUserNotFound is returned when the user behind a token no longer exists.
	ErrUserNotFound = errors.New("User not found")
	// ErrForbidden is returned when the caller does not own the target record.
	ErrForbidden = errors.New("Unauthorized")
	// ErrEmailExists is returned on signup with an already registered email.
	ErrEmailExists = errors.New("Email already exists")
	// ErrDuplicateReview is returned when the caller already reviewed the book.
	ErrDuplicateReview = errors.New("You have already reviewed this book")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("Invalid credentials")
	// ErrInvalidToken is returned when a bearer token is missing, malformed, expired or revoked.
	ErrInvalidToken = errors.New("Token is not valid")
	// ErrMissingSecret is returned when tokens are requested without a signing secret.
	ErrMissingSecret = errors.New("token signing secret is not configured")
	// ErrInvalidID is returned when a path or body id is not a valid identifier.
	ErrInvalidID = errors.New("Invalid ID format")
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Message string       `json:"message"`
	Code    string       `json:"code"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     []FieldError
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// NewValidationError creates a 400 error carrying field-level messages.
func NewValidationError(fields []FieldError) *HTTPError {
	return &HTTPError{
		StatusCode: http.StatusBadRequest,
		Message:    "Validation Error",
		Code:       "VALIDATION_ERROR",
		Fields:     fields,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message: e.Message,
		Code:    e.Code,
		Errors:  e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
// Unknown errors become a generic 500; callers log the original.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, ErrBookNotFound):
		return NewHTTPError(http.StatusNotFound, ErrBookNotFound.Error(), "BOOK_NOT_FOUND")
	case errors.Is(err, ErrReviewNotFound):
		return NewHTTPError(http.StatusNotFound, ErrReviewNotFound.Error(), "REVIEW_NOT_FOUND")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrEmailExists):
		return NewHTTPError(http.StatusBadRequest, ErrEmailExists.Error(), "EMAIL_EXISTS")
	case errors.Is(err, ErrDuplicateReview):
		return NewHTTPError(http.StatusBadRequest, ErrDuplicateReview.Error(), "DUPLICATE_REVIEW")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrInvalidID):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidID.Error(), "INVALID_ID")
	default:
		return NewHTTPError(http.StatusInternalServerError, "Server error", "INTERNAL_ERROR")
	}
}
