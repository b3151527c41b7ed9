package models

import "errors"

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrGateway           = errors.New("payment gateway error")
	ErrOrderNotFound     = errors.New("order not found")
	ErrSoldOut           = errors.New("campaign sold out")
	ErrTransientStore    = errors.New("store temporarily unavailable")
	ErrIllegalTransition = errors.New("illegal order status transition")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidInput      = errors.New("invalid input")
	ErrOrderNotPending   = errors.New("order is not pending")
	ErrConflict          = errors.New("conflict")
)
