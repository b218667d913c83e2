package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrLookupFailed is matched by every LookupError
	ErrLookupFailed = errors.New("barcode lookup failed")

	// ErrSupplierRecordMissing is returned when the supplier table has no row for a UPC
	ErrSupplierRecordMissing = errors.New("supplier record not found")

	// ErrClassifierFailed is returned when the classifier cannot produce a prediction
	ErrClassifierFailed = errors.New("classifier prediction failed")

	// ErrMissingRequiredInput is returned when the UPC list or mapping table is absent
	ErrMissingRequiredInput = errors.New("missing required input")

	// ErrInvalidTable is returned when an input table lacks a required column
	ErrInvalidTable = errors.New("invalid input table")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)

// LookupFailureReason classifies why a barcode lookup produced no product
type LookupFailureReason string

const (
	LookupDisabled  LookupFailureReason = "disabled"
	LookupTransport LookupFailureReason = "transport"
	LookupStatus    LookupFailureReason = "status"
	LookupDecode    LookupFailureReason = "decode"
	LookupEmpty     LookupFailureReason = "empty"
)

// LookupError is the typed failure of a single barcode lookup.
// Every reason is handled the same way by the resolver: fall back to the supplier table.
type LookupError struct {
	UPC    string
	Reason LookupFailureReason
	Err    error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("barcode lookup %s for %q: %v", e.Reason, e.UPC, e.Err)
	}
	return fmt.Sprintf("barcode lookup %s for %q", e.Reason, e.UPC)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrLookupFailed) true for any LookupError
func (e *LookupError) Is(target error) bool {
	return target == ErrLookupFailed
}

// NewLookupError creates a LookupError
func NewLookupError(upc string, reason LookupFailureReason, err error) *LookupError {
	return &LookupError{UPC: upc, Reason: reason, Err: err}
}

// LookupReason extracts the failure reason from an error chain.
// Errors that are not LookupErrors report LookupTransport.
func LookupReason(err error) LookupFailureReason {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr.Reason
	}
	return LookupTransport
}
