package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes returned in the error_code member of problem responses
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeInvalidFileType     = "INVALID_FILE_TYPE"
	CodeEmptyFile           = "EMPTY_FILE"
	CodeMissingColumns      = "MISSING_COLUMNS"
	CodeInvalidRow          = "INVALID_ROW"
	CodeNotFound            = "NOT_FOUND"
	CodeDatasetNotFound     = "DATASET_NOT_FOUND"
	CodeSKUNotFound         = "SKU_NOT_FOUND"
	CodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	CodeInsufficientHistory = "INSUFFICIENT_HISTORY"
	CodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	CodeInternal            = "INTERNAL_SERVER_ERROR"
	CodeForecastFailed      = "FORECAST_FAILED"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	// 400 Bad Request
	ErrInvalidRequest   = New(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, CodeValidationFailed, "Request validation failed")
	ErrEmptyFile        = New(http.StatusBadRequest, CodeEmptyFile, "The uploaded file contains no data rows")

	// 404 Not Found
	ErrNotFound = New(http.StatusNotFound, CodeNotFound, "Resource not found")

	// 413 Payload Too Large
	ErrPayloadTooLarge = New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "The uploaded file exceeds the maximum allowed size")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, CodeInternal, "Internal server error")

	// 503 Service Unavailable
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, CodeServiceUnavailable, "Service temporarily unavailable")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// InvalidFileType rejects an upload that is not a CSV file
func InvalidFileType(name string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidFileType,
		"Only .csv files are accepted", map[string]string{"file": name})
}

// MissingColumns reports the required columns absent from an upload header
func MissingColumns(missing []string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeMissingColumns,
		"The file must contain the columns date, sku and quantity",
		map[string]interface{}{"missing": missing})
}

// InvalidRow reports a row whose date or quantity could not be parsed
func InvalidRow(row int, column, value, reason string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRow,
		fmt.Sprintf("Row %d has an invalid %s value", row, column),
		map[string]interface{}{"row": row, "column": column, "value": value, "reason": reason})
}

// DatasetNotFound reports an unknown or expired dataset
func DatasetNotFound(id string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeDatasetNotFound,
		"Dataset not found or expired; upload the file again", map[string]string{"dataset_id": id})
}

// SKUNotFound reports a SKU absent from the dataset
func SKUNotFound(sku string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeSKUNotFound,
		fmt.Sprintf("SKU %q does not appear in the uploaded data", sku), map[string]string{"sku": sku})
}

// InsufficientHistory reports that a SKU has too few days to fit a model
func InsufficientHistory(have, need int) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, CodeInsufficientHistory,
		"not enough data for this SKU", map[string]int{"have": have, "need": need})
}

// ForecastFailed reports a model fit or prediction failure
func ForecastFailed(err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, CodeForecastFailed,
		"The forecast could not be computed", err.Error())
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeValidationFailed,
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}
