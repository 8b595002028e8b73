package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindTransport         ErrorKind = "transport"
	KindBackendRejection  ErrorKind = "backend_rejection"
	KindGatewayCancelled  ErrorKind = "gateway_cancelled"
	KindSettlementPersist ErrorKind = "settlement_persist"
)

// NetworkErrorMessage is what the user sees for any transport failure.
const NetworkErrorMessage = "Network error"

// Error is the user-facing failure of a flow step. Message is safe to show verbatim.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Status  int       `json:"status,omitempty"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewGatewayCancelled(message string) *Error {
	return &Error{Kind: KindGatewayCancelled, Message: message}
}

func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
