package order_test

import (
	"testing"

	"ms-booking/internal/models"
	"ms-booking/internal/order"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTransaction(t *testing.T) {
	cases := []struct {
		status, fraud string
		want          order.PaymentOutcome
	}{
		{"settlement", "", order.PaymentSucceeded},
		{"settlement", "accept", order.PaymentSucceeded},
		{"capture", "accept", order.PaymentSucceeded},
		{"capture", "challenge", order.PaymentIgnored},
		{"capture", "", order.PaymentIgnored},
		{"deny", "", order.PaymentFailed},
		{"expire", "", order.PaymentFailed},
		{"cancel", "", order.PaymentFailed},
		{"pending", "", order.PaymentIgnored},
		{"authorize", "accept", order.PaymentIgnored},
		{"refund", "", order.PaymentIgnored},
		{"", "", order.PaymentIgnored},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, order.ClassifyTransaction(tc.status, tc.fraud), "%s/%s", tc.status, tc.fraud)
	}
}

func TestNextStatusFromPending(t *testing.T) {
	next, err := order.NextStatus(models.OrderStatusPending, order.PaymentSucceeded)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusSuccess, next)

	next, err = order.NextStatus(models.OrderStatusPending, order.PaymentFailed)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusFailed, next)

	next, err = order.NextStatus(models.OrderStatusPending, order.PaymentIgnored)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, next)
}

func TestNextStatusNeverLeavesTerminal(t *testing.T) {
	for _, current := range []models.OrderStatus{models.OrderStatusSuccess, models.OrderStatusFailed} {
		for _, outcome := range []order.PaymentOutcome{order.PaymentSucceeded, order.PaymentFailed} {
			next, err := order.NextStatus(current, outcome)
			assert.ErrorIs(t, err, models.ErrIllegalTransition)
			assert.Equal(t, current, next, "%s must not change on %s", current, outcome)
		}

		next, err := order.NextStatus(current, order.PaymentIgnored)
		assert.NoError(t, err)
		assert.Equal(t, current, next)
	}
}

func TestNextStatusRejectsUnknownStatus(t *testing.T) {
	_, err := order.NextStatus(models.OrderStatus("cancelled"), order.PaymentSucceeded)
	assert.ErrorIs(t, err, models.ErrIllegalTransition)
}
