package order

import (
	"fmt"

	"ms-booking/internal/models"
)

// PaymentOutcome is what a gateway notification means for an order.
type PaymentOutcome int

const (
	PaymentIgnored PaymentOutcome = iota
	PaymentSucceeded
	PaymentFailed
)

func (o PaymentOutcome) String() string {
	switch o {
	case PaymentSucceeded:
		return "succeeded"
	case PaymentFailed:
		return "failed"
	default:
		return "ignored"
	}
}

// ClassifyTransaction maps Midtrans transaction_status and fraud_status.
// settlement, or capture with fraud accept, is a paid transaction; deny,
// expire and cancel are failures; everything else (pending, authorize,
// capture under challenge, refund...) is acknowledged without action.
func ClassifyTransaction(transactionStatus, fraudStatus string) PaymentOutcome {
	switch transactionStatus {
	case "settlement":
		return PaymentSucceeded
	case "capture":
		if fraudStatus == "accept" {
			return PaymentSucceeded
		}
		return PaymentIgnored
	case "deny", "expire", "cancel":
		return PaymentFailed
	default:
		return PaymentIgnored
	}
}

// NextStatus is the order state machine. pending moves to success or failed;
// terminal states accept no payment outcome and return ErrIllegalTransition.
// An ignored outcome never changes the status.
func NextStatus(current models.OrderStatus, outcome PaymentOutcome) (models.OrderStatus, error) {
	if !current.Valid() {
		return current, fmt.Errorf("%w: unknown status %q", models.ErrIllegalTransition, current)
	}
	if outcome == PaymentIgnored {
		return current, nil
	}
	if current.IsTerminal() {
		return current, fmt.Errorf("%w: %s is terminal, cannot apply %s", models.ErrIllegalTransition, current, outcome)
	}

	switch outcome {
	case PaymentSucceeded:
		return models.OrderStatusSuccess, nil
	case PaymentFailed:
		return models.OrderStatusFailed, nil
	}
	return current, fmt.Errorf("%w: unknown outcome %d", models.ErrIllegalTransition, outcome)
}
