package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on code so errors.Is(err, ErrInsufficientFunds()) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) string {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// ---- Ledger (LED) ----

func ErrInsufficientFunds() *AppError {
	return New("LED_001", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("LED_002", "Invalid amount", http.StatusBadRequest)
}

func ErrQuoteNotFound() *AppError {
	return New("LED_003", "Swap quote not found", http.StatusNotFound)
}

func ErrQuoteExpired() *AppError {
	return New("LED_004", "Swap quote expired", http.StatusGone)
}

func ErrUnsupportedCurrency(currency string) *AppError {
	return New("LED_005", fmt.Sprintf("Unsupported currency %q", currency), http.StatusBadRequest)
}

func ErrInvalidAddress(err error) *AppError {
	return Wrap("LED_006", "Invalid destination address", http.StatusBadRequest, err)
}

func ErrNotFound(entity string) *AppError {
	return New("LED_007", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrNotResolvable() *AppError {
	return New("LED_008", "Transaction is not a failed, unresolved send", http.StatusConflict)
}

func ErrDuplicateReference() *AppError {
	return New("LED_009", "Reference already used by a different operation", http.StatusConflict)
}

// ---- Key custody (KEY) ----

func ErrKeyUnavailable() *AppError {
	return New("KEY_001", "No key material for owner and chain", http.StatusNotFound)
}

func ErrKeyCustodyFailure(err error) *AppError {
	return Wrap("KEY_002", "Key custody failure", http.StatusInternalServerError, err)
}

// ---- Chain adapters (CHN) ----

func ErrBroadcastFailure(err error) *AppError {
	return Wrap("CHN_001", "Chain broadcast failed", http.StatusBadGateway, err)
}

func ErrAdapterNotRegistered(currency string) *AppError {
	return New("CHN_002", fmt.Sprintf("No chain adapter for %q", currency), http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a LED_002-style validation error.
func Validation(message string) *AppError {
	return New("LED_002", message, http.StatusBadRequest)
}
