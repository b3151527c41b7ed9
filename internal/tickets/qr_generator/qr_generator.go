package qr

import (
	"errors"

	"github.com/skip2/go-qrcode"
)

const DefaultSize = 256

// QRGenerator renders ticket QR codes. The code carries the bare order id,
// which is what the partner scanner posts back for verification.
type QRGenerator struct {
	size int
}

func NewQRGenerator(size int) *QRGenerator {
	if size <= 0 {
		size = DefaultSize
	}
	return &QRGenerator{size: size}
}

func (q *QRGenerator) GenerateOrderQR(orderID string) ([]byte, error) {
	if orderID == "" {
		return nil, errors.New("empty order id")
	}
	return qrcode.Encode(orderID, qrcode.Medium, q.size)
}
