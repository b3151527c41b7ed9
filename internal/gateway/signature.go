package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"ms-booking/internal/models"
)

// NotificationSignature computes Midtrans' signature_key:
// SHA512(order_id + status_code + gross_amount + server_key), hex encoded.
func NotificationSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func VerifyNotification(n models.Notification, serverKey string) bool {
	if n.SignatureKey == "" {
		return false
	}
	want := NotificationSignature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(n.SignatureKey)) == 1
}
