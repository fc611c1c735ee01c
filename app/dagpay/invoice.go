package dagpay

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	// TimestampLayout is ISO-8601 in UTC with millisecond precision.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
	DefaultCurrency = "DAG"
)

// InvoiceCreateRequest is the merchant-signed body posted to the gateway's
// invoice creation endpoint. It must not be changed after Signature is set.
type InvoiceCreateRequest struct {
	UserID         string  `json:"userId"`
	EnvironmentID  string  `json:"environmentId"`
	CurrencyAmount *Amount `json:"currencyAmount"`
	Currency       string  `json:"currency"`
	Description    string  `json:"description"`
	Data           string  `json:"data"`
	PaymentID      string  `json:"paymentId"`
	Date           string  `json:"date"`
	Nonce          string  `json:"nonce"`
	Signature      string  `json:"signature"`
}

func (r *InvoiceCreateRequest) ExpectedSignature(secret string) (string, error) {
	tokens, err := CreationTokens(r)
	if err != nil {
		return "", err
	}
	return Sign(tokens, secret), nil
}

// Verify reports whether Signature still matches the signed fields.
func (r *InvoiceCreateRequest) Verify(secret string) (bool, error) {
	tokens, err := CreationTokens(r)
	if err != nil {
		return false, err
	}
	return Verify(tokens, secret, r.Signature), nil
}

// InvoiceStatus is the gateway-signed lifecycle record of an invoice. State
// values are defined by the gateway and are not interpreted here.
type InvoiceStatus struct {
	ID                     string  `json:"id"`
	UserID                 string  `json:"userId"`
	EnvironmentID          string  `json:"environmentId"`
	CoinAmount             *Amount `json:"coinAmount"`
	CurrencyAmount         *Amount `json:"currencyAmount"`
	Currency               string  `json:"currency"`
	Description            string  `json:"description"`
	Data                   string  `json:"data"`
	PaymentID              string  `json:"paymentId"`
	QRCodeURL              string  `json:"qrCodeUrl"`
	PaymentURL             string  `json:"paymentUrl"`
	State                  string  `json:"state"`
	CreatedDate            string  `json:"createdDate"`
	UpdatedDate            string  `json:"updatedDate"`
	ExpiryDate             string  `json:"expiryDate"`
	ValidForSeconds        int64   `json:"validForSeconds"`
	StatusDelivered        bool    `json:"statusDelivered"`
	StatusDeliveryAttempts int64   `json:"statusDeliveryAttempts"`
	StatusLastAttemptDate  *string `json:"statusLastAttemptDate"`
	StatusDeliveredDate    *string `json:"statusDeliveredDate"`
	Date                   string  `json:"date"`
	Nonce                  string  `json:"nonce"`
	Signature              string  `json:"signature"`
}

func (s *InvoiceStatus) ExpectedSignature(secret string) (string, error) {
	tokens, err := StatusTokens(s)
	if err != nil {
		return "", err
	}
	return Sign(tokens, secret), nil
}

// statusRequiredFields lists the keys that must be present and non-null in a
// status document. statusLastAttemptDate and statusDeliveredDate are optional.
var statusRequiredFields = []string{
	"id",
	"userId",
	"environmentId",
	"coinAmount",
	"currencyAmount",
	"currency",
	"description",
	"data",
	"paymentId",
	"qrCodeUrl",
	"paymentUrl",
	"state",
	"createdDate",
	"updatedDate",
	"expiryDate",
	"validForSeconds",
	"statusDelivered",
	"statusDeliveryAttempts",
	"date",
	"nonce",
	"signature",
}

// ParseInvoiceStatus decodes an untrusted status document. A required key that
// is absent or null yields a MissingFieldError; an optional date that is absent
// or null decodes to nil.
func ParseInvoiceStatus(raw []byte) (*InvoiceStatus, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	for _, key := range statusRequiredFields {
		value, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return nil, &MissingFieldError{Field: key}
		}
	}

	var status InvoiceStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &status, nil
}
