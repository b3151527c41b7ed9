package gateway_test

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ms-booking/internal/gateway"
	"ms-booking/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRefRoundTrip(t *testing.T) {
	for i := 0; i < 50; i++ {
		orderID := uuid.NewString()
		at := time.UnixMilli(time.Now().UnixMilli() + int64(i))

		ref := gateway.BuildTransactionRef(orderID, at)
		assert.Equal(t, fmt.Sprintf("%s-%d", orderID, at.UnixMilli()), ref)
		assert.Len(t, strings.Split(ref, "-"), 6)

		got, err := gateway.ParseTransactionRef(ref)
		require.NoError(t, err)
		assert.Equal(t, orderID, got)
	}
}

func TestTransactionRefDistinctPerCall(t *testing.T) {
	orderID := uuid.NewString()
	now := time.Now()
	a := gateway.BuildTransactionRef(orderID, now)
	b := gateway.BuildTransactionRef(orderID, now.Add(time.Millisecond))
	assert.NotEqual(t, a, b)
}

func TestParseTransactionRefRejectsMalformed(t *testing.T) {
	id := uuid.NewString()
	cases := map[string]string{
		"empty":          "",
		"no suffix":      id,
		"trailing dash":  id + "-",
		"letters suffix": id + "-abc",
		"short prefix":   "1234-1700000000000",
		"not a uuid":     "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz-1700000000000",
		"extra segment":  id + "-1-1700000000000",
	}
	for name, ref := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := gateway.ParseTransactionRef(ref)
			assert.ErrorIs(t, err, gateway.ErrMalformedReference)
		})
	}
}

func TestBuildSnapRequestCarriesOrderID(t *testing.T) {
	orderID := uuid.NewString()
	ref := gateway.BuildTransactionRef(orderID, time.Now())

	req, err := gateway.BuildSnapRequest(gateway.SnapRequest{
		TransactionRef: ref,
		OrderID:        orderID,
		GrossAmount:    decimal.NewFromInt(100000),
		ItemID:         uuid.NewString(),
		ItemName:       strings.Repeat("x", 80),
		CustomerID:     "buyer-1",
	})
	require.NoError(t, err)

	assert.Equal(t, ref, req.TransactionDetails.OrderID)
	assert.Equal(t, int64(100000), req.TransactionDetails.GrossAmt)
	assert.Equal(t, orderID, req.CustomField1)
	require.NotNil(t, req.CreditCard)
	assert.True(t, req.CreditCard.Secure)
	require.NotNil(t, req.Items)
	assert.Len(t, (*req.Items)[0].Name, 50)
}

func TestBuildSnapRequestTruncatesNameByCharacter(t *testing.T) {
	name := "Konser " + strings.Repeat("é", 60)
	req, err := gateway.BuildSnapRequest(gateway.SnapRequest{
		TransactionRef: gateway.BuildTransactionRef(uuid.NewString(), time.Now()),
		OrderID:        uuid.NewString(),
		GrossAmount:    decimal.NewFromInt(75000),
		ItemID:         uuid.NewString(),
		ItemName:       name,
	})
	require.NoError(t, err)

	got := (*req.Items)[0].Name
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 50, utf8.RuneCountInString(got))
	assert.True(t, strings.HasPrefix(name, got))
}

func TestGrossAmountIDR(t *testing.T) {
	v, err := gateway.GrossAmountIDR(decimal.RequireFromString("150000.00"))
	require.NoError(t, err)
	assert.Equal(t, int64(150000), v)

	_, err = gateway.GrossAmountIDR(decimal.Zero)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	_, err = gateway.GrossAmountIDR(decimal.RequireFromString("10.5"))
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
}

func TestVerifyNotification(t *testing.T) {
	n := models.Notification{OrderID: "ref-1", StatusCode: "200", GrossAmount: "100000.00"}
	n.SignatureKey = gateway.NotificationSignature(n.OrderID, n.StatusCode, n.GrossAmount, "server-key")

	assert.True(t, gateway.VerifyNotification(n, "server-key"))
	assert.False(t, gateway.VerifyNotification(n, "other-key"))

	n.SignatureKey = ""
	assert.False(t, gateway.VerifyNotification(n, "server-key"))
}
