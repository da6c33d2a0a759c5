package service

import "errors"

// Stable codes for user-correctable rejections. Handlers map these to 400.
const (
	CodeDuplicateActivePrediction = "duplicate_active_prediction"
	CodeIncoherentReasoning       = "incoherent_reasoning"
	CodeDirectionPriceMismatch    = "direction_price_mismatch"
	CodeInsufficientDeviation     = "insufficient_deviation"
	CodeFulfillmentInPast         = "fulfillment_in_past"
	CodeInvalidTimeframe          = "invalid_timeframe"
	CodeInsufficientData          = "insufficient_data_for_summary"
)

// ValidationError is a business-rule rejection with a user-facing message.
// It never indicates partial writes: validation always precedes persistence.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

var (
	// ErrValidationUnavailable signals AI quota exhaustion during the
	// coherence check. Retryable by the caller (503).
	ErrValidationUnavailable = errors.New("prediction validation temporarily unavailable due to API quota limits, please try again later")

	// ErrMarketUnavailable signals a market-data provider failure while a
	// price was required to make a decision (503).
	ErrMarketUnavailable = errors.New("market data temporarily unavailable, please try again later")

	// ErrCoinNotFound is returned when an operation targets a slug with no
	// aggregate (404 where an error is appropriate).
	ErrCoinNotFound = errors.New("prediction not found")
)
