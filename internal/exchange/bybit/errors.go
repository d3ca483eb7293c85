package bybit

import (
	"errors"
	"fmt"
)

// APIError represents a non-zero retCode from the Bybit API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Bybit API error %d: %s", e.Code, e.Message)
}

// NewAPIError creates a new APIError.
func NewAPIError(code int, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// Common Bybit error codes.
const (
	ErrCodeInvalidAPIKey       = 10003
	ErrCodeInvalidSignature    = 10004
	ErrCodeInvalidTimestamp    = 10005
	ErrCodeRateLimitExceeded   = 10006
	ErrCodeOrderNotFound       = 110001
	ErrCodeInvalidOrderType    = 110004
	ErrCodeInsufficientBalance = 110007
	ErrCodeSymbolNotFound      = 110009
	ErrCodeInvalidQuantity     = 110020
	ErrCodeInvalidPrice        = 110021
	ErrCodeLeverageNotModified = 110043
)

// IsRetryableError reports whether the error is transient (rate limit
// or gateway-level failure) and worth a bounded retry.
func IsRetryableError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case ErrCodeRateLimitExceeded, 500, 502, 503, 504:
			return true
		}
	}
	return false
}

// IsAuthenticationError checks if the error is related to credentials.
func IsAuthenticationError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case ErrCodeInvalidAPIKey, ErrCodeInvalidSignature, ErrCodeInvalidTimestamp:
			return true
		}
	}
	return false
}

// IsLeverageNotModifiedError checks if the error is the venue rejecting
// a leverage change to the value already in effect.
func IsLeverageNotModifiedError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == ErrCodeLeverageNotModified
	}
	return false
}

// IsInsufficientBalanceError checks if the error is due to insufficient
// balance.
func IsInsufficientBalanceError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == ErrCodeInsufficientBalance
	}
	return false
}
