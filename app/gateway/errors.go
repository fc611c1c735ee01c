package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidResponse = errors.New("invalid gateway response")
	ErrUnsignedRequest = errors.New("invoice request signature does not match its fields")
)

// RemoteInvoiceCreationError is a rejection by the gateway itself. Status code
// and body are kept verbatim for merchant-side debugging.
type RemoteInvoiceCreationError struct {
	StatusCode int
	Body       string
}

func (e *RemoteInvoiceCreationError) Error() string {
	return fmt.Sprintf("dagpay invoice creation failed: status=%d body=%s", e.StatusCode, e.Body)
}
