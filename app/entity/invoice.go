package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the locally stored copy of the last verified gateway status
// record. ID is the gateway-assigned invoice id.
type Invoice struct {
	ID string

	Environment   string
	UserID        string
	EnvironmentID string

	CoinAmount     decimal.Decimal
	CurrencyAmount decimal.Decimal
	Currency       string
	Description    string
	Data           string
	PaymentID      string

	QRCodeURL  string
	PaymentURL string
	State      string

	CreatedDate     string
	UpdatedDate     string
	ExpiryDate      string
	ValidForSeconds int64

	StatusDelivered        bool
	StatusDeliveryAttempts int64
	StatusLastAttemptDate  *string
	StatusDeliveredDate    *string

	Date      string
	Nonce     string
	Signature string

	CreatedAt time.Time
	UpdatedAt time.Time
}
