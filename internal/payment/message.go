package payment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	CancelledByUser = "Payment Cancelled by User"
	TimedOut        = "Payment timed out"

	maxMessageBytes = 16 << 10
)

var ErrMalformedMessage = errors.New("malformed gateway message")

// Result is the terminal outcome reported by the embedded page. It is only a
// claim: the backend verifies it with the gateway during settlement.
type Result struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId,omitempty"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// pageMessage accepts both the gateway's snake_case keys and camelCase.
// Echoed order ids and amounts are read so they can be ignored, never trusted.
type pageMessage struct {
	Success        *bool  `json:"success"`
	PaymentID      string `json:"payment_id"`
	PaymentIDCamel string `json:"paymentId"`
	Signature      string `json:"signature"`
	Error          string `json:"error"`
}

func parseMessage(raw []byte) (Result, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Result{}, fmt.Errorf("%w: empty body", ErrMalformedMessage)
	}
	if len(raw) > maxMessageBytes {
		return Result{}, fmt.Errorf("%w: body too large", ErrMalformedMessage)
	}

	var msg pageMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Success == nil {
		return Result{}, fmt.Errorf("%w: missing success flag", ErrMalformedMessage)
	}

	paymentID := strings.TrimSpace(msg.PaymentID)
	if paymentID == "" {
		paymentID = strings.TrimSpace(msg.PaymentIDCamel)
	}

	if *msg.Success {
		if paymentID == "" {
			return Result{}, fmt.Errorf("%w: success without payment id", ErrMalformedMessage)
		}
		return Result{Success: true, PaymentID: paymentID, Signature: strings.TrimSpace(msg.Signature)}, nil
	}

	reason := strings.TrimSpace(msg.Error)
	if reason == "" {
		reason = "Payment failed"
	}
	return Result{Success: false, PaymentID: paymentID, Error: reason}, nil
}
