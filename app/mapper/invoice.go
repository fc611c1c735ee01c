package mapper

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-dagpay/app/dagpay"
	"github.com/vibast-solutions/ms-go-dagpay/app/entity"
	"github.com/vibast-solutions/ms-go-dagpay/app/types"
)

// StatusToEntity converts a verified status record into its stored form.
func StatusToEntity(status *dagpay.InvoiceStatus, environment string, now time.Time) *entity.Invoice {
	if status == nil {
		return nil
	}

	return &entity.Invoice{
		ID:                     status.ID,
		Environment:            environment,
		UserID:                 status.UserID,
		EnvironmentID:          status.EnvironmentID,
		CoinAmount:             amountValue(status.CoinAmount),
		CurrencyAmount:         amountValue(status.CurrencyAmount),
		Currency:               status.Currency,
		Description:            status.Description,
		Data:                   status.Data,
		PaymentID:              status.PaymentID,
		QRCodeURL:              status.QRCodeURL,
		PaymentURL:             status.PaymentURL,
		State:                  status.State,
		CreatedDate:            status.CreatedDate,
		UpdatedDate:            status.UpdatedDate,
		ExpiryDate:             status.ExpiryDate,
		ValidForSeconds:        status.ValidForSeconds,
		StatusDelivered:        status.StatusDelivered,
		StatusDeliveryAttempts: status.StatusDeliveryAttempts,
		StatusLastAttemptDate:  cloneString(status.StatusLastAttemptDate),
		StatusDeliveredDate:    cloneString(status.StatusDeliveredDate),
		Date:                   status.Date,
		Nonce:                  status.Nonce,
		Signature:              status.Signature,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

func InvoiceToResponse(item *entity.Invoice) *types.Invoice {
	if item == nil {
		return nil
	}

	return &types.Invoice{
		ID:                     item.ID,
		Environment:            item.Environment,
		UserID:                 item.UserID,
		EnvironmentID:          item.EnvironmentID,
		CoinAmount:             item.CoinAmount.String(),
		CurrencyAmount:         item.CurrencyAmount.String(),
		Currency:               item.Currency,
		Description:            item.Description,
		Data:                   item.Data,
		PaymentID:              item.PaymentID,
		QRCodeURL:              item.QRCodeURL,
		PaymentURL:             item.PaymentURL,
		State:                  item.State,
		CreatedDate:            item.CreatedDate,
		UpdatedDate:            item.UpdatedDate,
		ExpiryDate:             item.ExpiryDate,
		ValidForSeconds:        item.ValidForSeconds,
		StatusDelivered:        item.StatusDelivered,
		StatusDeliveryAttempts: item.StatusDeliveryAttempts,
		StatusLastAttemptDate:  cloneString(item.StatusLastAttemptDate),
		StatusDeliveredDate:    cloneString(item.StatusDeliveredDate),
		UpdatedAt:              item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func amountValue(v *dagpay.Amount) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return v.Decimal
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
