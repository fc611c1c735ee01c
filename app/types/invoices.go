package types

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
)

type CreateInvoiceRequest struct {
	RequestID      string      `json:"-" form:"-"`
	Environment    string      `json:"environment" form:"environment"`
	CurrencyAmount json.Number `json:"currencyAmount" form:"currencyAmount"`
	Currency       string      `json:"currency" form:"currency"`
	Description    string      `json:"description" form:"description"`
	Data           string      `json:"data" form:"data"`
	PaymentID      string      `json:"paymentId" form:"paymentId"`
}

func NewCreateInvoiceRequestFromContext(ctx echo.Context) (*CreateInvoiceRequest, error) {
	var body CreateInvoiceRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.RequestID = strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
	body.Environment = strings.ToLower(strings.TrimSpace(body.Environment))
	body.CurrencyAmount = json.Number(strings.TrimSpace(body.CurrencyAmount.String()))
	body.Currency = strings.ToUpper(strings.TrimSpace(body.Currency))
	body.PaymentID = strings.TrimSpace(body.PaymentID)

	return &body, nil
}

func (r *CreateInvoiceRequest) Validate() error {
	if r.CurrencyAmount.String() == "" {
		return errors.New("currencyAmount is required")
	}
	if len(r.Currency) > 10 {
		return errors.New("currency is invalid")
	}
	return nil
}

func (r *CreateInvoiceRequest) GetEnvironment() string {
	return r.Environment
}

func (r *CreateInvoiceRequest) GetCurrencyAmount() string {
	return r.CurrencyAmount.String()
}

func (r *CreateInvoiceRequest) GetCurrency() string {
	return r.Currency
}

func (r *CreateInvoiceRequest) GetDescription() string {
	return r.Description
}

func (r *CreateInvoiceRequest) GetData() string {
	return r.Data
}

func (r *CreateInvoiceRequest) GetPaymentId() string {
	return r.PaymentID
}

func (r *CreateInvoiceRequest) GetRequestId() string {
	return r.RequestID
}

type GetInvoiceRequest struct {
	ID string
}

func NewGetInvoiceRequestFromContext(ctx echo.Context) (*GetInvoiceRequest, error) {
	return &GetInvoiceRequest{ID: strings.TrimSpace(ctx.Param("id"))}, nil
}

func (r *GetInvoiceRequest) Validate() error {
	if r.ID == "" || len(r.ID) > 64 {
		return errors.New("invalid invoice id")
	}
	return nil
}

// StatusCallbackRequest carries the raw callback body. The body is parsed
// only by the verifier.
type StatusCallbackRequest struct {
	RequestID   string
	Environment string
	Payload     []byte
}

func NewStatusCallbackRequestFromContext(ctx echo.Context) (*StatusCallbackRequest, error) {
	rawBody, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, err
	}

	return &StatusCallbackRequest{
		RequestID:   strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID)),
		Environment: strings.ToLower(strings.TrimSpace(ctx.Param("environment"))),
		Payload:     rawBody,
	}, nil
}

func (r *StatusCallbackRequest) Validate() error {
	if len(strings.TrimSpace(string(r.Payload))) == 0 {
		return errors.New("payload is required")
	}
	return nil
}

func (r *StatusCallbackRequest) GetEnvironment() string {
	return r.Environment
}

func (r *StatusCallbackRequest) GetPayload() []byte {
	return r.Payload
}

func (r *StatusCallbackRequest) GetRequestId() string {
	return r.RequestID
}
