package models

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Error codes carried in every error envelope.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeUserExists        = "USER_EXISTS"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeMissingCredential = "MISSING_CREDENTIAL"
	CodeInvalidCredential = "INVALID_CREDENTIAL"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeUpstream          = "UPSTREAM_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string       `json:"error"`
	Code    string       `json:"code,omitempty"`
	Details string       `json:"details,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Status  int
	Code    string
	Message string
	Details string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Status:  fiber.StatusNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewMissingError is a not-found error without an identifier, e.g. "There is no profile for this user".
func NewMissingError(message string) *AppError {
	return &AppError{
		Status:  fiber.StatusNotFound,
		Code:    CodeNotFound,
		Message: message,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Status:  fiber.StatusBadRequest,
		Code:    CodeValidation,
		Message: message,
	}
}

// NewFieldValidationError reports every rejected field at once.
func NewFieldValidationError(fields []FieldError) *AppError {
	msg := "Validation failed"
	if len(fields) > 0 {
		msg = fields[0].Message
	}
	return &AppError{
		Status:  fiber.StatusBadRequest,
		Code:    CodeValidation,
		Message: msg,
		Fields:  fields,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Status:  fiber.StatusBadRequest,
		Code:    CodeUserExists,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Status:  fiber.StatusUnauthorized,
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewCredentialError is the Auth Gate rejection; code distinguishes missing from invalid credentials.
func NewCredentialError(code, message string) *AppError {
	return &AppError{
		Status:  fiber.StatusUnauthorized,
		Code:    code,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Status:  fiber.StatusForbidden,
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewUpstreamError wraps a failed call to a third-party API.
func NewUpstreamError(message string, upstreamStatus int, err error) *AppError {
	appErr := &AppError{
		Status:  fiber.StatusBadGateway,
		Code:    CodeUpstream,
		Message: message,
		Err:     err,
	}
	if upstreamStatus > 0 {
		appErr.Details = fmt.Sprintf("upstream status %d", upstreamStatus)
	}
	return appErr
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Status:  fiber.StatusInternalServerError,
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response with an explicit status.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
			Errors:  appErr.Fields,
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

// Respond maps any service error onto its HTTP status and writes the envelope.
// Unknown errors become a 500 without leaking their text to the client.
func Respond(c *fiber.Ctx, err error) error {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		if appErr.Status >= fiber.StatusInternalServerError && appErr.Err != nil {
			slog.ErrorContext(c.UserContext(), "request error",
				slog.String("code", appErr.Code),
				slog.String("error", appErr.Err.Error()),
			)
		}
		status := appErr.Status
		if status == 0 {
			status = fiber.StatusInternalServerError
		}
		return RespondWithError(c, status, appErr)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return RespondWithError(c, fiber.StatusNotFound, NewMissingError("Resource not found"))
	default:
		slog.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(nil))
	}
}
