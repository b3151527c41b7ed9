package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrMalformedReference = errors.New("malformed transaction reference")

// BuildTransactionRef returns "<orderID>-<epochMillis>". Midtrans rejects a
// reused order_id, so every token request for the same order gets its own
// reference.
func BuildTransactionRef(orderID string, at time.Time) string {
	return fmt.Sprintf("%s-%d", orderID, at.UnixMilli())
}

// ParseTransactionRef recovers the order id from a reference built by
// BuildTransactionRef. The trailing segment must be all digits and the rest a
// canonical UUID.
func ParseTransactionRef(ref string) (string, error) {
	idx := strings.LastIndexByte(ref, '-')
	if idx <= 0 || idx == len(ref)-1 {
		return "", fmt.Errorf("%w: %q", ErrMalformedReference, ref)
	}

	orderID, suffix := ref[:idx], ref[idx+1:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q has non-numeric suffix", ErrMalformedReference, ref)
		}
	}
	if !IsOrderID(orderID) {
		return "", fmt.Errorf("%w: %q has no order id prefix", ErrMalformedReference, ref)
	}
	return orderID, nil
}

// IsOrderID reports whether s is a UUID in its 36-character canonical form.
func IsOrderID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
