package handler

import "github.com/farmstock/backend/internal/interfaces/http/dto"

// APIResponse represents a generic API response for OpenAPI documentation
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse represents an error API response for OpenAPI documentation
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// SuccessResponse represents a simple success API response for OpenAPI documentation
// @Description Simple success response without data
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// QuantityData represents a single quantity value in response
// @Description Quantity data
type QuantityData struct {
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

// DepletedData reports whether a lot is fully drained
// @Description Lot depletion state
type DepletedData struct {
	Depleted bool `json:"depleted"`
}

// ValidData reports a ledger verification outcome
// @Description Ledger verification result
type ValidData struct {
	Valid bool `json:"valid"`
}
