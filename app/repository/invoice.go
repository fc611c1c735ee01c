package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-dagpay/app/entity"
)

const invoiceColumns = `
	id, environment, user_id, environment_id,
	coin_amount, currency_amount, currency, description, data, payment_id,
	qr_code_url, payment_url, state,
	created_date, updated_date, expiry_date, valid_for_seconds,
	status_delivered, status_delivery_attempts, status_last_attempt_date, status_delivered_date,
	date, nonce, signature,
	created_at, updated_at
`

type InvoiceRepository struct {
	db DBTX
}

func NewInvoiceRepository(db DBTX) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Upsert stores the latest verified status record for an invoice.
func (r *InvoiceRepository) Upsert(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO dagpay_invoices (` + invoiceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			environment = VALUES(environment),
			user_id = VALUES(user_id),
			environment_id = VALUES(environment_id),
			coin_amount = VALUES(coin_amount),
			currency_amount = VALUES(currency_amount),
			currency = VALUES(currency),
			description = VALUES(description),
			data = VALUES(data),
			payment_id = VALUES(payment_id),
			qr_code_url = VALUES(qr_code_url),
			payment_url = VALUES(payment_url),
			state = VALUES(state),
			created_date = VALUES(created_date),
			updated_date = VALUES(updated_date),
			expiry_date = VALUES(expiry_date),
			valid_for_seconds = VALUES(valid_for_seconds),
			status_delivered = VALUES(status_delivered),
			status_delivery_attempts = VALUES(status_delivery_attempts),
			status_last_attempt_date = VALUES(status_last_attempt_date),
			status_delivered_date = VALUES(status_delivered_date),
			date = VALUES(date),
			nonce = VALUES(nonce),
			signature = VALUES(signature),
			updated_at = VALUES(updated_at)
	`

	_, err := r.db.ExecContext(ctx, query,
		invoice.ID,
		invoice.Environment,
		invoice.UserID,
		invoice.EnvironmentID,
		invoice.CoinAmount,
		invoice.CurrencyAmount,
		invoice.Currency,
		invoice.Description,
		invoice.Data,
		invoice.PaymentID,
		invoice.QRCodeURL,
		invoice.PaymentURL,
		invoice.State,
		invoice.CreatedDate,
		invoice.UpdatedDate,
		invoice.ExpiryDate,
		invoice.ValidForSeconds,
		invoice.StatusDelivered,
		invoice.StatusDeliveryAttempts,
		nullableStringValue(invoice.StatusLastAttemptDate),
		nullableStringValue(invoice.StatusDeliveredDate),
		invoice.Date,
		invoice.Nonce,
		invoice.Signature,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)
	return err
}

func (r *InvoiceRepository) FindByID(ctx context.Context, id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM dagpay_invoices WHERE id = ?`

	invoice := &entity.Invoice{}
	if err := scanInvoice(r.db.QueryRowContext(ctx, query, id), invoice); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return invoice, nil
}

// TouchUpdatedAt moves an invoice to the back of the reconcile queue without
// changing its status record.
func (r *InvoiceRepository) TouchUpdatedAt(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE dagpay_invoices SET updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, at, id)
	return err
}

// ListForReconcile returns invoices whose status the gateway has not yet
// delivered and that were last touched before the given time.
func (r *InvoiceRepository) ListForReconcile(ctx context.Context, before time.Time, limit int32) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM dagpay_invoices
		WHERE status_delivered = ?
		  AND updated_at <= ?
		ORDER BY updated_at ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, false, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]*entity.Invoice, 0)
	for rows.Next() {
		item := &entity.Invoice{}
		if err := scanInvoice(rows, item); err != nil {
			return nil, err
		}
		invoices = append(invoices, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return invoices, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(scan rowScanner, invoice *entity.Invoice) error {
	var lastAttempt sql.NullString
	var delivered sql.NullString

	err := scan.Scan(
		&invoice.ID,
		&invoice.Environment,
		&invoice.UserID,
		&invoice.EnvironmentID,
		&invoice.CoinAmount,
		&invoice.CurrencyAmount,
		&invoice.Currency,
		&invoice.Description,
		&invoice.Data,
		&invoice.PaymentID,
		&invoice.QRCodeURL,
		&invoice.PaymentURL,
		&invoice.State,
		&invoice.CreatedDate,
		&invoice.UpdatedDate,
		&invoice.ExpiryDate,
		&invoice.ValidForSeconds,
		&invoice.StatusDelivered,
		&invoice.StatusDeliveryAttempts,
		&lastAttempt,
		&delivered,
		&invoice.Date,
		&invoice.Nonce,
		&invoice.Signature,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		return err
	}

	invoice.StatusLastAttemptDate = stringPtrFromNull(lastAttempt)
	invoice.StatusDeliveredDate = stringPtrFromNull(delivered)
	return nil
}
