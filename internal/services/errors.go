package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReserved is returned when charge or confirm is attempted without a booking id
	ErrNotReserved = errors.New("cart has not been reserved (bookingId missing)")
	// ErrCartConfirmed is returned for any mutation after confirmation
	ErrCartConfirmed = errors.New("cart is already confirmed")
	// ErrPaymentIDAlreadyUsed means the payment reference was consumed by an earlier confirm
	ErrPaymentIDAlreadyUsed = errors.New("invalid payment id: already used")
)

// CartWorkflowError is a local precondition or translated remote failure of a cart call
type CartWorkflowError struct {
	Op      string
	Message string
	Err     error
}

func (e *CartWorkflowError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cart %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("cart %s: %v", e.Op, e.Err)
}

func (e *CartWorkflowError) Unwrap() error {
	return e.Err
}

// ResolutionKind classifies catalog resolution failures
type ResolutionKind string

const (
	ResolutionConfig           ResolutionKind = "config"
	ResolutionInvalidStartTime ResolutionKind = "invalid_start_time"
	ResolutionMissingCategory  ResolutionKind = "missing_category"
	ResolutionExtraUnavailable ResolutionKind = "extra_unavailable"
	ResolutionProductNotFound  ResolutionKind = "product_not_found"
)

// ResolutionError is raised when catalog data cannot produce a remote identifier
type ResolutionError struct {
	Kind    ResolutionKind
	Message string
}

func (e *ResolutionError) Error() string {
	return e.Message
}

// IsResolutionKind reports whether err is a ResolutionError of the given kind
func IsResolutionKind(err error, kind ResolutionKind) bool {
	var resErr *ResolutionError
	return errors.As(err, &resErr) && resErr.Kind == kind
}

// ValidationError rejects a request before any remote call
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
