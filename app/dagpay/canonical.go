package dagpay

import "strconv"

type requiredField struct {
	name  string
	value string
}

func requireFields(fields ...requiredField) error {
	for _, f := range fields {
		if f.value == "" {
			return &MissingFieldError{Field: f.name}
		}
	}
	return nil
}

// CreationTokens returns the signed token order of an invoice creation request:
// currencyAmount, currency, description, data, userId, paymentId, date, nonce.
func CreationTokens(req *InvoiceCreateRequest) ([]string, error) {
	if req == nil {
		return nil, &MissingFieldError{Field: "request"}
	}
	if req.CurrencyAmount == nil {
		return nil, &MissingFieldError{Field: "currencyAmount"}
	}
	if err := requireFields(
		requiredField{"currency", req.Currency},
		requiredField{"userId", req.UserID},
		requiredField{"paymentId", req.PaymentID},
		requiredField{"date", req.Date},
		requiredField{"nonce", req.Nonce},
	); err != nil {
		return nil, err
	}

	return []string{
		req.CurrencyAmount.String(),
		req.Currency,
		req.Description,
		req.Data,
		req.UserID,
		req.PaymentID,
		req.Date,
		req.Nonce,
	}, nil
}

// StatusTokens returns the signed token order of an invoice status record.
// Missing optional dates become empty tokens, never "null".
func StatusTokens(status *InvoiceStatus) ([]string, error) {
	if status == nil {
		return nil, &MissingFieldError{Field: "status"}
	}
	if status.CoinAmount == nil {
		return nil, &MissingFieldError{Field: "coinAmount"}
	}
	if status.CurrencyAmount == nil {
		return nil, &MissingFieldError{Field: "currencyAmount"}
	}
	if err := requireFields(
		requiredField{"id", status.ID},
		requiredField{"userId", status.UserID},
		requiredField{"environmentId", status.EnvironmentID},
		requiredField{"state", status.State},
		requiredField{"date", status.Date},
		requiredField{"nonce", status.Nonce},
	); err != nil {
		return nil, err
	}

	return []string{
		status.ID,
		status.UserID,
		status.EnvironmentID,
		status.CoinAmount.String(),
		status.CurrencyAmount.String(),
		status.Currency,
		status.Description,
		status.Data,
		status.PaymentID,
		status.QRCodeURL,
		status.PaymentURL,
		status.State,
		status.CreatedDate,
		status.UpdatedDate,
		status.ExpiryDate,
		strconv.FormatInt(status.ValidForSeconds, 10),
		strconv.FormatBool(status.StatusDelivered),
		strconv.FormatInt(status.StatusDeliveryAttempts, 10),
		optionalToken(status.StatusLastAttemptDate),
		optionalToken(status.StatusDeliveredDate),
		status.Date,
		status.Nonce,
	}, nil
}

func optionalToken(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
