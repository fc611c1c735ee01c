package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dagpay/app/dagpay"
	"github.com/vibast-solutions/ms-go-dagpay/app/entity"
	"github.com/vibast-solutions/ms-go-dagpay/app/metrics"
)

const (
	callbackSourceGateway   = "callback"
	callbackSourceReconcile = "reconcile"
)

type statusCallbackRequest interface {
	GetEnvironment() string
	GetPayload() []byte
}

// HandleStatusCallback verifies a gateway status record and stores it. Any
// verification failure is audited and reported as ErrCallbackRejected.
func (s *InvoiceService) HandleStatusCallback(ctx context.Context, req statusCallbackRequest) (*entity.Invoice, error) {
	payload := req.GetPayload()
	hint := req.GetEnvironment()

	verification, err := s.verifier.Verify(payload, hint)
	if err != nil {
		known := s.knownEnvironment(hint)
		s.persistRejectedCallback(ctx, callbackSourceGateway, known, payload, err)
		envLabel := known
		if envLabel == "" {
			envLabel = metrics.ResultUnknownEnvLabel
		}
		metrics.StatusCallbacks.WithLabelValues(envLabel, metrics.ResultRejected).Inc()
		return nil, fmt.Errorf("%w: %w", ErrCallbackRejected, err)
	}

	status := verification.Status
	envName := verification.Environment.Name.String()
	replayKey := envName + ":" + status.Signature

	if _, found := s.replay.Get(replayKey); found {
		s.persistCallback(ctx, verification, payload, callbackSourceGateway, entity.StatusCallbackDuplicate)
		metrics.StatusCallbacks.WithLabelValues(envName, metrics.ResultDuplicate).Inc()
		return s.storedInvoice(ctx, status.ID), nil
	}

	invoice, stored, err := s.storeVerifiedStatus(ctx, verification)
	if err != nil {
		metrics.StatusCallbacks.WithLabelValues(envName, metrics.ResultError).Inc()
		return nil, err
	}
	s.replay.Set(replayKey, struct{}{}, cache.DefaultExpiration)

	callbackStatus := entity.StatusCallbackProcessed
	result := metrics.ResultAccepted
	if !stored {
		callbackStatus = entity.StatusCallbackDuplicate
		result = metrics.ResultDuplicate
	}
	s.persistCallback(ctx, verification, payload, callbackSourceGateway, callbackStatus)
	metrics.StatusCallbacks.WithLabelValues(envName, result).Inc()

	s.logger.WithFields(verification.Environment.LogFields()).WithFields(logrus.Fields{
		"invoice_id": status.ID,
		"state":      status.State,
		"stored":     stored,
	}).Info("Status callback accepted")

	return invoice, nil
}

// knownEnvironment returns the hint only when it names a configured
// environment. Route values are caller-controlled.
func (s *InvoiceService) knownEnvironment(hint string) string {
	if strings.TrimSpace(hint) == "" {
		return ""
	}
	env, err := s.registry.Lookup(hint)
	if err != nil {
		return ""
	}
	return env.Name.String()
}

func (s *InvoiceService) storedInvoice(ctx context.Context, id string) *entity.Invoice {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("invoice_id", id).Warn("Failed to load stored invoice")
		return nil
	}
	return invoice
}

func (s *InvoiceService) persistCallback(
	ctx context.Context,
	verification *dagpay.Verification,
	payload []byte,
	source string,
	status int32,
) {
	invoiceID := verification.Status.ID
	callback := &entity.StatusCallback{
		InvoiceID:         &invoiceID,
		Environment:       verification.Environment.Name.String(),
		Source:            source,
		ProvidedSignature: verification.Status.Signature,
		ExpectedSignature: verification.Status.Signature,
		PayloadJSON:       string(payload),
		Status:            status,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.callbackRepo.Create(ctx, callback); err != nil {
		s.logger.WithError(err).Warn("Failed to persist status callback")
	}
}

func (s *InvoiceService) persistRejectedCallback(ctx context.Context, source, envName string, payload []byte, cause error) {
	errMsg := cause.Error()
	callback := &entity.StatusCallback{
		Environment: envName,
		Source:      source,
		PayloadJSON: string(payload),
		Status:      entity.StatusCallbackRejected,
		Error:       &errMsg,
		CreatedAt:   s.now().UTC(),
	}

	var rejection *dagpay.RejectionError
	if errors.As(cause, &rejection) {
		callback.ProvidedSignature = rejection.ProvidedSignature
		callback.ExpectedSignature = rejection.ExpectedSignature
	}

	if err := s.callbackRepo.Create(ctx, callback); err != nil {
		s.logger.WithError(err).Warn("Failed to persist rejected status callback")
	}
}
