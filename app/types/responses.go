package types

import "encoding/json"

type Invoice struct {
	ID                     string  `json:"id"`
	Environment            string  `json:"environment"`
	UserID                 string  `json:"userId"`
	EnvironmentID          string  `json:"environmentId"`
	CoinAmount             string  `json:"coinAmount"`
	CurrencyAmount         string  `json:"currencyAmount"`
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
	UpdatedAt              string  `json:"updatedAt"`
}

type InvoiceEnvelopeResponse struct {
	Invoice *Invoice `json:"invoice"`
}

type CreateInvoiceResponse struct {
	Invoice       *Invoice `json:"invoice,omitempty"`
	InvoiceID     string   `json:"invoiceId"`
	PaymentURL    string   `json:"paymentUrl"`
	CorrelationID string   `json:"correlationId"`
	Verified      bool     `json:"verified"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// RemoteErrorResponse relays a gateway rejection. Data is the gateway body,
// verbatim when it is JSON.
type RemoteErrorResponse struct {
	Error  string          `json:"error"`
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
