package service

import "errors"

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrUnknownEnvironment = errors.New("unknown environment")
	ErrRemoteRejected     = errors.New("gateway rejected invoice creation")
	ErrCallbackRejected   = errors.New("callback rejected")
)
