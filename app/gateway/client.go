package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dagpay/app/dagpay"
	"github.com/vibast-solutions/ms-go-dagpay/app/environment"
	"github.com/vibast-solutions/ms-go-dagpay/app/metrics"
)

type Config struct {
	Timeout time.Duration
}

// Client talks to the Dagpay REST API. It never retries; callers own that
// policy.
type Client struct {
	http   *resty.Client
	logger logrus.FieldLogger
}

type CreateResult struct {
	InvoiceID  string
	PaymentURL string
	Payload    []byte
}

type envelope struct {
	Success bool            `json:"success"`
	Payload json.RawMessage `json:"payload"`
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New()
	httpClient.SetTimeout(timeout)
	httpClient.SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		logger: logrus.WithField("module", "dagpay-gateway"),
	}
}

// CreateInvoice posts a signed creation request to {apiBaseUrl}/invoices.
func (c *Client) CreateInvoice(
	ctx context.Context,
	env environment.Environment,
	req *dagpay.InvoiceCreateRequest,
	correlationID string,
) (result *CreateResult, err error) {
	started := time.Now()
	defer func() { metrics.ObserveGatewayCall(env.Name.String(), "create_invoice", started, err) }()

	ok, err := req.Verify(env.Secret)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnsignedRequest
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-ID", correlationID).
		SetBody(req).
		Post(env.APIBaseURL + "/invoices")
	if err != nil {
		return nil, fmt.Errorf("dagpay create invoice request: %w", err)
	}
	if resp.StatusCode() >= 400 {
		c.logger.WithFields(env.LogFields()).
			WithField("correlation_id", correlationID).
			WithField("status", resp.StatusCode()).
			Warn("Gateway rejected invoice creation")
		return nil, &RemoteInvoiceCreationError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	payload, err := decodeEnvelope(resp.Body())
	if err != nil {
		return nil, err
	}

	var summary struct {
		ID         string `json:"id"`
		PaymentURL string `json:"paymentUrl"`
	}
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if strings.TrimSpace(summary.PaymentURL) == "" {
		return nil, fmt.Errorf("%w: paymentUrl missing", ErrInvalidResponse)
	}

	return &CreateResult{
		InvoiceID:  strings.TrimSpace(summary.ID),
		PaymentURL: strings.TrimSpace(summary.PaymentURL),
		Payload:    payload,
	}, nil
}

// GetInvoice returns the raw invoice status document for id. The document is
// gateway-signed and must be verified before use.
func (c *Client) GetInvoice(ctx context.Context, env environment.Environment, id string) (payload []byte, err error) {
	started := time.Now()
	defer func() { metrics.ObserveGatewayCall(env.Name.String(), "get_invoice", started, err) }()

	resp, err := c.http.R().
		SetContext(ctx).
		Get(env.APIBaseURL + "/invoices/" + url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("dagpay get invoice request: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("dagpay get invoice failed: status=%d body=%s", resp.StatusCode(), string(resp.Body()))
	}

	return decodeEnvelope(resp.Body())
}

func decodeEnvelope(body []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return nil, fmt.Errorf("%w: payload missing", ErrInvalidResponse)
	}
	return env.Payload, nil
}
