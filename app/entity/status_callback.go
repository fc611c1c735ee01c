package entity

import "time"

const (
	StatusCallbackProcessed int32 = 10
	StatusCallbackDuplicate int32 = 15
	StatusCallbackRejected  int32 = 20
)

type StatusCallback struct {
	ID uint64

	InvoiceID   *string
	Environment string
	Source      string

	ProvidedSignature string
	ExpectedSignature string
	PayloadJSON       string
	Status            int32
	Error             *string

	CreatedAt time.Time
}
