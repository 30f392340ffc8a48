// Package api provides error handling utilities for the HTTP API.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/AE-MS/AE-SearchME/internal/search"
)

// APIError represents a structured API error.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Common API error codes.
const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeUpstream         = "UPSTREAM_ERROR"
	ErrCodeMalformed        = "MALFORMED_UPSTREAM_RESPONSE"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Predefined API errors.
var (
	ErrInvalidJSON = &APIError{
		HTTPStatus: http.StatusBadRequest,
		Code:       ErrCodeInvalidJSON,
		Message:    "Invalid JSON body",
	}
	ErrRouteNotFound = &APIError{
		HTTPStatus: http.StatusNotFound,
		Code:       ErrCodeNotFound,
		Message:    "Route not found",
	}
	ErrMethodNotAllowed = &APIError{
		HTTPStatus: http.StatusMethodNotAllowed,
		Code:       ErrCodeMethodNotAllowed,
		Message:    "Method not allowed",
	}
	ErrUpstream = &APIError{
		HTTPStatus: http.StatusBadGateway,
		Code:       ErrCodeUpstream,
		Message:    "Package registry request failed",
	}
	ErrMalformedUpstream = &APIError{
		HTTPStatus: http.StatusBadGateway,
		Code:       ErrCodeMalformed,
		Message:    "Package registry returned an unexpected response",
	}
	ErrTimeout = &APIError{
		HTTPStatus: http.StatusGatewayTimeout,
		Code:       ErrCodeTimeout,
		Message:    "Request timed out",
	}
	ErrInternalError = &APIError{
		HTTPStatus: http.StatusInternalServerError,
		Code:       ErrCodeInternalError,
		Message:    "Internal server error",
	}
)

// NewValidationError creates a validation error with a custom message.
func NewValidationError(message string) *APIError {
	return &APIError{
		HTTPStatus: http.StatusBadRequest,
		Code:       ErrCodeValidation,
		Message:    message,
	}
}

// MapDomainError maps search errors to API errors.
func MapDomainError(err error) *APIError {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, search.ErrMalformedResponse):
		return ErrMalformedUpstream
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, search.ErrUpstream):
		return ErrUpstream
	default:
		return ErrInternalError
	}
}

// WriteAPIError writes an API error response.
func (h *Handler) WriteAPIError(w http.ResponseWriter, err *APIError) {
	h.writeJSON(w, err.HTTPStatus, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    err.Code,
			Message: err.Message,
		},
	})
}

// HandleError maps a domain error to an API error and writes the response.
// Returns true if an error was handled, false if err was nil.
func (h *Handler) HandleError(w http.ResponseWriter, err error, operation string) bool {
	if err == nil {
		return false
	}

	apiErr := MapDomainError(err)
	if apiErr.Code == ErrCodeInternalError {
		h.logger.Error().Err(err).Str("operation", operation).Msg("Request failed")
	} else {
		h.logger.Warn().Err(err).Str("operation", operation).Msg("Request failed")
	}

	h.WriteAPIError(w, apiErr)
	return true
}
