package service

import (
	"context"
	"fmt"

	"github.com/vibast-solutions/ms-go-dagpay/app/entity"
)

// RunReconcileBatch re-fetches invoices whose status callback the gateway has
// not delivered yet. Fetched records are verified like callbacks before they
// are stored.
func (s *InvoiceService) RunReconcileBatch(ctx context.Context) error {
	now := s.now().UTC()
	before := now.Add(-s.jobsCfg.ReconcileStaleAfter)
	items, err := s.invoiceRepo.ListForReconcile(ctx, before, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, invoice := range items {
		if invoice == nil || invoice.ID == "" {
			continue
		}
		stored, err := s.reconcileInvoice(ctx, invoice)
		if err != nil {
			s.logger.WithError(err).WithField("invoice_id", invoice.ID).Warn("Invoice reconcile failed")
			firstErr = keepFirstErr(firstErr, err)
		}
		if !stored {
			if err := s.invoiceRepo.TouchUpdatedAt(ctx, invoice.ID, now); err != nil {
				s.logger.WithError(err).WithField("invoice_id", invoice.ID).Warn("Failed to touch reconciled invoice")
				firstErr = keepFirstErr(firstErr, err)
			}
		}
	}

	return firstErr
}

// reconcileInvoice reports whether a fetched record was written.
func (s *InvoiceService) reconcileInvoice(ctx context.Context, invoice *entity.Invoice) (bool, error) {
	env, err := s.registry.Lookup(invoice.Environment)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownEnvironment, invoice.Environment)
	}

	payload, err := s.gateway.GetInvoice(ctx, env, invoice.ID)
	if err != nil {
		return false, err
	}

	verification, err := s.verifier.Verify(payload, env.Name.String())
	if err != nil {
		s.persistRejectedCallback(ctx, callbackSourceReconcile, env.Name.String(), payload, err)
		return false, fmt.Errorf("%w: %w", ErrCallbackRejected, err)
	}
	if verification.Status.ID != invoice.ID {
		return false, fmt.Errorf("%w: gateway returned invoice %q for %q", ErrCallbackRejected, verification.Status.ID, invoice.ID)
	}

	_, stored, err := s.storeVerifiedStatus(ctx, verification)
	if err != nil {
		return false, err
	}

	callbackStatus := entity.StatusCallbackProcessed
	if !stored {
		callbackStatus = entity.StatusCallbackDuplicate
	}
	s.persistCallback(ctx, verification, payload, callbackSourceReconcile, callbackStatus)

	return stored, nil
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
