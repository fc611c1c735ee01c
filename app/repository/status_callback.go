package repository

import (
	"context"

	"github.com/vibast-solutions/ms-go-dagpay/app/entity"
)

type StatusCallbackRepository struct {
	db DBTX
}

func NewStatusCallbackRepository(db DBTX) *StatusCallbackRepository {
	return &StatusCallbackRepository{db: db}
}

func (r *StatusCallbackRepository) Create(ctx context.Context, callback *entity.StatusCallback) error {
	query := `
		INSERT INTO dagpay_status_callbacks (
			invoice_id, environment, source, provided_signature, expected_signature, payload_json, status, error, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableStringValue(callback.InvoiceID),
		callback.Environment,
		callback.Source,
		callback.ProvidedSignature,
		callback.ExpectedSignature,
		callback.PayloadJSON,
		callback.Status,
		nullableStringValue(callback.Error),
		callback.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	callback.ID = uint64(id)

	return nil
}
