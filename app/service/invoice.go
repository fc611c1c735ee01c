package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dagpay/app/dagpay"
	"github.com/vibast-solutions/ms-go-dagpay/app/entity"
	"github.com/vibast-solutions/ms-go-dagpay/app/environment"
	"github.com/vibast-solutions/ms-go-dagpay/app/factory"
	"github.com/vibast-solutions/ms-go-dagpay/app/gateway"
	"github.com/vibast-solutions/ms-go-dagpay/app/mapper"
	"github.com/vibast-solutions/ms-go-dagpay/app/metrics"
	"github.com/vibast-solutions/ms-go-dagpay/config"
)

const (
	defaultBatchSize = int32(100)
	defaultReplayTTL = time.Hour
)

type createInvoiceRequest interface {
	GetEnvironment() string
	GetCurrencyAmount() string
	GetCurrency() string
	GetDescription() string
	GetData() string
	GetPaymentId() string
}

type invoiceRepository interface {
	Upsert(ctx context.Context, invoice *entity.Invoice) error
	FindByID(ctx context.Context, id string) (*entity.Invoice, error)
	ListForReconcile(ctx context.Context, before time.Time, limit int32) ([]*entity.Invoice, error)
	TouchUpdatedAt(ctx context.Context, id string, at time.Time) error
}

type statusCallbackRepository interface {
	Create(ctx context.Context, callback *entity.StatusCallback) error
}

type invoiceGateway interface {
	CreateInvoice(ctx context.Context, env environment.Environment, req *dagpay.InvoiceCreateRequest, correlationID string) (*gateway.CreateResult, error)
	GetInvoice(ctx context.Context, env environment.Environment, id string) ([]byte, error)
}

type CreateInvoiceResult struct {
	Environment   environment.Environment
	InvoiceID     string
	PaymentURL    string
	CorrelationID string
	// Invoice is set only when the gateway response carried a valid signature.
	Invoice *entity.Invoice
}

type InvoiceService struct {
	invoiceRepo  invoiceRepository
	callbackRepo statusCallbackRepository
	registry     *environment.Registry
	builder      *dagpay.InvoiceBuilder
	verifier     *dagpay.CallbackVerifier
	gateway      invoiceGateway
	replay       *cache.Cache
	dagpayCfg    config.DagpayConfig
	jobsCfg      config.JobsConfig
	logger       logrus.FieldLogger
	now          func() time.Time
}

func NewInvoiceService(
	invoiceRepo invoiceRepository,
	callbackRepo statusCallbackRepository,
	registry *environment.Registry,
	invoiceGateway invoiceGateway,
	dagpayCfg config.DagpayConfig,
	jobsCfg config.JobsConfig,
) *InvoiceService {
	replayTTL := dagpayCfg.ReplayTTL
	if replayTTL <= 0 {
		replayTTL = defaultReplayTTL
	}

	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		callbackRepo: callbackRepo,
		registry:     registry,
		builder:      dagpay.NewInvoiceBuilder(nil, nil),
		verifier:     dagpay.NewCallbackVerifier(registry),
		gateway:      invoiceGateway,
		replay:       cache.New(replayTTL, 2*replayTTL),
		dagpayCfg:    dagpayCfg,
		jobsCfg:      jobsCfg,
		logger:       factory.NewModuleLogger("invoice-service"),
		now:          time.Now,
	}
}

// CreateInvoice signs a creation request for the requested environment (the
// default one when empty) and submits it to the gateway.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req createInvoiceRequest) (*CreateInvoiceResult, error) {
	env, err := s.registry.Lookup(req.GetEnvironment())
	if err != nil {
		metrics.InvoicesCreated.WithLabelValues(metrics.ResultUnknownEnvLabel, metrics.ResultError).Inc()
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnvironment, req.GetEnvironment())
	}
	envLabel := env.Name.String()

	currency := strings.TrimSpace(req.GetCurrency())
	if currency == "" {
		currency = s.dagpayCfg.Currency
	}

	createReq, correlationID, err := s.builder.Build(env, dagpay.InvoiceInput{
		Amount:      req.GetCurrencyAmount(),
		Currency:    currency,
		Description: req.GetDescription(),
		Data:        req.GetData(),
		PaymentID:   req.GetPaymentId(),
	})
	if err != nil {
		if errors.Is(err, dagpay.ErrInvalidAmount) {
			metrics.InvoicesCreated.WithLabelValues(envLabel, metrics.ResultInvalidAmount).Inc()
			return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		metrics.InvoicesCreated.WithLabelValues(envLabel, metrics.ResultError).Inc()
		return nil, err
	}

	logger := s.logger.WithFields(env.LogFields()).WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"payment_id":     createReq.PaymentID,
	})

	created, err := s.gateway.CreateInvoice(ctx, env, createReq, correlationID)
	if err != nil {
		var remoteErr *gateway.RemoteInvoiceCreationError
		if errors.As(err, &remoteErr) {
			metrics.InvoicesCreated.WithLabelValues(envLabel, metrics.ResultRemoteRejected).Inc()
			return nil, fmt.Errorf("%w: %w", ErrRemoteRejected, err)
		}
		metrics.InvoicesCreated.WithLabelValues(envLabel, metrics.ResultError).Inc()
		logger.WithError(err).Error("Gateway invoice creation failed")
		return nil, err
	}

	result := &CreateInvoiceResult{
		Environment:   env,
		InvoiceID:     created.InvoiceID,
		PaymentURL:    created.PaymentURL,
		CorrelationID: correlationID,
	}

	verification, err := s.verifier.Verify(created.Payload, envLabel)
	if err != nil {
		logger.WithError(err).Warn("Created invoice record failed verification, not stored")
	} else {
		invoice, _, err := s.storeVerifiedStatus(ctx, verification)
		if err != nil {
			logger.WithError(err).Error("Failed to store created invoice")
		}
		result.Invoice = invoice
	}

	metrics.InvoicesCreated.WithLabelValues(envLabel, metrics.ResultOK).Inc()
	logger.WithField("invoice_id", result.InvoiceID).Info("Invoice created")

	return result, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (*entity.Invoice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidRequest
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}

	return invoice, nil
}

// storeVerifiedStatus upserts a verified record unless the stored copy carries
// a later gateway update date. It reports whether the record was written.
func (s *InvoiceService) storeVerifiedStatus(ctx context.Context, verification *dagpay.Verification) (*entity.Invoice, bool, error) {
	now := s.now().UTC()
	invoice := mapper.StatusToEntity(verification.Status, verification.Environment.Name.String(), now)

	existing, err := s.invoiceRepo.FindByID(ctx, invoice.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if existing.UpdatedDate > invoice.UpdatedDate {
			return existing, false, nil
		}
		invoice.CreatedAt = existing.CreatedAt
	}

	if err := s.invoiceRepo.Upsert(ctx, invoice); err != nil {
		return nil, false, err
	}

	return invoice, true, nil
}

func (s *InvoiceService) batchSize() int32 {
	if s.jobsCfg.BatchSize > 0 {
		return s.jobsCfg.BatchSize
	}
	return defaultBatchSize
}
