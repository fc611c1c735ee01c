package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-dagpay/app/dagpay"
	"github.com/vibast-solutions/ms-go-dagpay/app/environment"
)

func testEnvironment(baseURL string) environment.Environment {
	return environment.Environment{
		Name:          environment.Test,
		APIBaseURL:    baseURL,
		UserID:        "user-1",
		EnvironmentID: "env-1",
		Secret:        "topsecret",
	}
}

func buildRequest(t *testing.T, env environment.Environment) (*dagpay.InvoiceCreateRequest, string) {
	t.Helper()
	builder := dagpay.NewInvoiceBuilder(nil, func() time.Time { return time.Date(2018, 5, 10, 12, 0, 0, 0, time.UTC) })
	req, correlationID, err := builder.Build(env, dagpay.InvoiceInput{Amount: "0.1", Currency: "DAG", Description: "iPhone X"})
	require.NoError(t, err)
	return req, correlationID
}

func TestCreateInvoicePostsSignedRequest(t *testing.T) {
	var received map[string]interface{}
	var requestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/invoices", r.URL.Path)
		requestID = r.Header.Get("X-Request-ID")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"payload":{"id":"inv-1","paymentUrl":"https://gateway.example/pay/inv-1"}}`))
	}))
	defer server.Close()

	env := testEnvironment(server.URL)
	req, correlationID := buildRequest(t, env)

	result, err := NewClient(Config{Timeout: time.Second}).CreateInvoice(context.Background(), env, req, correlationID)
	require.NoError(t, err)

	assert.Equal(t, "inv-1", result.InvoiceID)
	assert.Equal(t, "https://gateway.example/pay/inv-1", result.PaymentURL)
	assert.Equal(t, correlationID, requestID)
	assert.Equal(t, req.Signature, received["signature"])
	assert.Equal(t, 0.1, received["currencyAmount"])
	assert.Equal(t, req.Nonce, received["nonce"])
	assert.Equal(t, req.Date, received["date"])
}

func TestCreateInvoiceRemoteRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"currencyAmount must be positive"}`))
	}))
	defer server.Close()

	env := testEnvironment(server.URL)
	req, correlationID := buildRequest(t, env)

	_, err := NewClient(Config{}).CreateInvoice(context.Background(), env, req, correlationID)
	var remote *RemoteInvoiceCreationError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusBadRequest, remote.StatusCode)
	assert.Contains(t, remote.Body, "currencyAmount must be positive")
}

func TestCreateInvoiceRefusesMutatedRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	env := testEnvironment(server.URL)
	req, correlationID := buildRequest(t, env)
	req.Description = "changed after signing"

	_, err := NewClient(Config{}).CreateInvoice(context.Background(), env, req, correlationID)
	assert.ErrorIs(t, err, ErrUnsignedRequest)
	assert.False(t, called)
}

func TestCreateInvoiceInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	env := testEnvironment(server.URL)
	req, correlationID := buildRequest(t, env)

	_, err := NewClient(Config{}).CreateInvoice(context.Background(), env, req, correlationID)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestGetInvoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoices/inv-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"payload":{"id":"inv-1","state":"PAID"}}`))
	}))
	defer server.Close()

	payload, err := NewClient(Config{}).GetInvoice(context.Background(), testEnvironment(server.URL), "inv-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"inv-1","state":"PAID"}`, string(payload))
}

func TestGetInvoiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(Config{}).GetInvoice(context.Background(), testEnvironment(server.URL), "missing")
	assert.Error(t, err)
}
