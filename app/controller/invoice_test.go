package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-dagpay/app/dagpay"
	"github.com/vibast-solutions/ms-go-dagpay/app/entity"
	"github.com/vibast-solutions/ms-go-dagpay/app/environment"
	"github.com/vibast-solutions/ms-go-dagpay/app/gateway"
	"github.com/vibast-solutions/ms-go-dagpay/app/service"
	"github.com/vibast-solutions/ms-go-dagpay/app/types"
	"github.com/vibast-solutions/ms-go-dagpay/config"
)

const controllerSecret = "topsecret"

type controllerInvoiceRepo struct {
	findByIDFn func(ctx context.Context, id string) (*entity.Invoice, error)
	upserted   []*entity.Invoice
}

func (r *controllerInvoiceRepo) Upsert(_ context.Context, invoice *entity.Invoice) error {
	r.upserted = append(r.upserted, invoice)
	return nil
}

func (r *controllerInvoiceRepo) FindByID(ctx context.Context, id string) (*entity.Invoice, error) {
	if r.findByIDFn != nil {
		return r.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (r *controllerInvoiceRepo) ListForReconcile(context.Context, time.Time, int32) ([]*entity.Invoice, error) {
	return []*entity.Invoice{}, nil
}

func (r *controllerInvoiceRepo) TouchUpdatedAt(context.Context, string, time.Time) error {
	return nil
}

type controllerCallbackRepo struct{}

func (r *controllerCallbackRepo) Create(context.Context, *entity.StatusCallback) error {
	return nil
}

type controllerGateway struct {
	createErr error
}

func (g *controllerGateway) CreateInvoice(context.Context, environment.Environment, *dagpay.InvoiceCreateRequest, string) (*gateway.CreateResult, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &gateway.CreateResult{
		InvoiceID:  "inv-1",
		PaymentURL: "https://gateway.example/pay/inv-1",
		Payload:    []byte(`{"id":"inv-1"}`),
	}, nil
}

func (g *controllerGateway) GetInvoice(context.Context, environment.Environment, string) ([]byte, error) {
	return nil, gateway.ErrInvalidResponse
}

func newControllerForTest(t *testing.T, repo *controllerInvoiceRepo, gw *controllerGateway) *InvoiceController {
	t.Helper()
	registry, err := environment.NewRegistry(environment.Environment{
		Name:          environment.Test,
		APIBaseURL:    "https://test.gateway.example",
		UserID:        "user-1",
		EnvironmentID: "env-test",
		Secret:        controllerSecret,
	})
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}

	invoiceService := service.NewInvoiceService(
		repo,
		&controllerCallbackRepo{},
		registry,
		gw,
		config.DagpayConfig{Currency: "DAG", ReplayTTL: time.Minute},
		config.JobsConfig{ReconcileStaleAfter: time.Minute, BatchSize: 100},
	)
	return NewInvoiceController(invoiceService)
}

func signedStatusBody(t *testing.T, secret string) []byte {
	t.Helper()
	coin, _ := dagpay.ParseAmount("12.5")
	currency, _ := dagpay.ParseAmount("0.1")
	status := &dagpay.InvoiceStatus{
		ID:             "inv-1",
		UserID:         "user-1",
		EnvironmentID:  "env-test",
		CoinAmount:     &coin,
		CurrencyAmount: &currency,
		Currency:       "DAG",
		State:          "PAID",
		CreatedDate:    "2018-05-10T12:00:00.000Z",
		UpdatedDate:    "2018-05-10T12:01:00.000Z",
		ExpiryDate:     "2018-05-10T12:15:00.000Z",
		Date:           "2018-05-10T12:01:00.000Z",
		Nonce:          "ABCDEF0123456789ABCDEF0123456789",
	}
	signature, err := status.ExpectedSignature(secret)
	if err != nil {
		t.Fatalf("failed to sign status: %v", err)
	}
	status.Signature = signature
	body, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("failed to marshal status: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	ctrl := newControllerForTest(t, &controllerInvoiceRepo{}, &controllerGateway{})
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := ctrl.Health(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateInvoiceBadBody(t *testing.T) {
	ctrl := newControllerForTest(t, &controllerInvoiceRepo{}, &controllerGateway{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewBufferString("{bad"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := ctrl.CreateInvoice(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateInvoiceInvalidAmount(t *testing.T) {
	ctrl := newControllerForTest(t, &controllerInvoiceRepo{}, &controllerGateway{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewBufferString(`{"currencyAmount":"ten"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := ctrl.CreateInvoice(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateInvoiceSuccess(t *testing.T) {
	ctrl := newControllerForTest(t, &controllerInvoiceRepo{}, &controllerGateway{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewBufferString(`{"currencyAmount":0.1,"description":"iPhone X"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := ctrl.CreateInvoice(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp types.CreateInvoiceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.PaymentURL != "https://gateway.example/pay/inv-1" || resp.InvoiceID != "inv-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Verified {
		t.Fatal("expected unsigned gateway record to be reported as unverified")
	}
}

func TestCreateInvoiceRemoteRejection(t *testing.T) {
	ctrl := newControllerForTest(t, &controllerInvoiceRepo{}, &controllerGateway{
		createErr: &gateway.RemoteInvoiceCreationError{StatusCode: 400, Body: `{"success":false,"message":"invalid signature"}`},
	})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewBufferString(`{"currencyAmount":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := ctrl.CreateInvoice(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}

	var resp struct {
		Error  string                 `json:"error"`
		Status int                    `json:"status"`
		Data   map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != 400 || resp.Data["message"] != "invalid signature" {
		t.Fatalf("expected remote body to be relayed, got %+v", resp)
	}
}

func TestBuyRedirectsToPaymentURL(t *testing.T) {
	ctrl := newControllerForTest(t, &controllerInvoiceRepo{}, &controllerGateway{})
	e := echo.New()
	form := url.Values{}
	form.Set("currencyAmount", "0.1")
	form.Set("description", "iPhone X")
	req := httptest.NewRequest(http.MethodPost, "/buy", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := ctrl.Buy(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if location := rec.Header().Get(echo.HeaderLocation); location != "https://gateway.example/pay/inv-1" {
		t.Fatalf("unexpected redirect location: %s", location)
	}
}

func TestGetInvoiceNotFound(t *testing.T) {
	ctrl := newControllerForTest(t, &controllerInvoiceRepo{}, &controllerGateway{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/invoices/inv-9", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("inv-9")

	if err := ctrl.GetInvoice(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetInvoiceSuccess(t *testing.T) {
	ctrl := newControllerForTest(t, &controllerInvoiceRepo{findByIDFn: func(_ context.Context, id string) (*entity.Invoice, error) {
		return &entity.Invoice{ID: id, Environment: "test", State: "PAID"}, nil
	}}, &controllerGateway{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/invoices/inv-1", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("inv-1")

	if err := ctrl.GetInvoice(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp types.InvoiceEnvelopeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Invoice == nil || resp.Invoice.State != "PAID" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleStatusCallbackAccepted(t *testing.T) {
	repo := &controllerInvoiceRepo{}
	ctrl := newControllerForTest(t, repo, &controllerGateway{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/status", bytes.NewReader(signedStatusBody(t, controllerSecret)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := ctrl.HandleStatusCallback(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("expected one upsert, got %d", len(repo.upserted))
	}
}

func TestHandleStatusCallbackRejected(t *testing.T) {
	repo := &controllerInvoiceRepo{}
	ctrl := newControllerForTest(t, repo, &controllerGateway{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/status", bytes.NewReader(signedStatusBody(t, "wrongsecret")))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := ctrl.HandleStatusCallback(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Body.String() != "Invalid signature provided" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
	if len(repo.upserted) != 0 {
		t.Fatal("expected no upsert for rejected callback")
	}
}

func TestHandleStatusCallbackEmptyBody(t *testing.T) {
	ctrl := newControllerForTest(t, &controllerInvoiceRepo{}, &controllerGateway{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/status", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := ctrl.HandleStatusCallback(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
