package dagpay

import (
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-dagpay/app/environment"
)

type InvoiceInput struct {
	Amount      string
	Currency    string
	Description string
	Data        string
	PaymentID   string
}

// InvoiceBuilder assembles signed invoice creation requests. It holds no
// per-request state and is safe for concurrent use.
type InvoiceBuilder struct {
	nonces *NonceGenerator
	now    func() time.Time
}

func NewInvoiceBuilder(nonces *NonceGenerator, now func() time.Time) *InvoiceBuilder {
	if nonces == nil {
		nonces = NewNonceGenerator()
	}
	if now == nil {
		now = time.Now
	}
	return &InvoiceBuilder{nonces: nonces, now: now}
}

// Build returns a request signed with the environment secret and a fresh
// correlation id for tracing the outbound call. Nonce, payment id (when not
// supplied) and date are produced on every call.
func (b *InvoiceBuilder) Build(env environment.Environment, input InvoiceInput) (*InvoiceCreateRequest, string, error) {
	amount, err := ParseAmount(input.Amount)
	if err != nil {
		return nil, "", err
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	paymentID := strings.TrimSpace(input.PaymentID)
	if paymentID == "" {
		if paymentID, err = b.nonces.Generate(NonceLength); err != nil {
			return nil, "", err
		}
	}

	nonce, err := b.nonces.Generate(NonceLength)
	if err != nil {
		return nil, "", err
	}
	correlationID, err := b.nonces.Generate(NonceLength)
	if err != nil {
		return nil, "", err
	}

	req := &InvoiceCreateRequest{
		UserID:         env.UserID,
		EnvironmentID:  env.EnvironmentID,
		CurrencyAmount: &amount,
		Currency:       currency,
		Description:    input.Description,
		Data:           input.Data,
		PaymentID:      paymentID,
		Date:           b.now().UTC().Format(TimestampLayout),
		Nonce:          nonce,
	}

	signature, err := req.ExpectedSignature(env.Secret)
	if err != nil {
		return nil, "", err
	}
	req.Signature = signature

	return req, correlationID, nil
}
