package dagpay

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField       = errors.New("missing field")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidNonceLength = errors.New("nonce length must be positive")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrUnknownEnvironment = errors.New("unknown environment")
	ErrMalformedPayload   = errors.New("malformed payload")
)

// MissingFieldError reports a required field that was not defined on a record
// passed into canonicalization.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: %s", e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

type InvalidAmountError struct {
	Value string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount: %q", e.Value)
}

func (e *InvalidAmountError) Unwrap() error {
	return ErrInvalidAmount
}

type RejectReason string

const (
	RejectSignatureMismatch  RejectReason = "signature_mismatch"
	RejectUnknownEnvironment RejectReason = "unknown_environment"
	RejectMalformedPayload   RejectReason = "malformed_payload"
)

// RejectionError is returned by CallbackVerifier for every payload it refuses.
// It carries both signatures for audit; it never says which field diverged.
type RejectionError struct {
	Reason            RejectReason
	ExpectedSignature string
	ProvidedSignature string
	Err               error
}

func (e *RejectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("status callback rejected: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("status callback rejected: %s", e.Reason)
}

func (e *RejectionError) Unwrap() []error {
	var reason error
	switch e.Reason {
	case RejectSignatureMismatch:
		reason = ErrSignatureMismatch
	case RejectUnknownEnvironment:
		reason = ErrUnknownEnvironment
	default:
		reason = ErrMalformedPayload
	}
	if e.Err == nil {
		return []error{reason}
	}
	return []error{reason, e.Err}
}
