package template_test

import (
	"bytes"
	"testing"
	"time"

	"ms-booking/internal/models"
	qr "ms-booking/internal/tickets/qr_generator"
	"ms-booking/internal/tickets/template"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTicketPDF(t *testing.T) {
	order := &models.Order{
		ID:            "7b0f4f5e-3a9e-4d55-9a51-8c1f3f6b2a10",
		Amount:        decimal.NewFromInt(150000),
		PaymentMethod: models.DefaultPaymentMethod,
		Status:        models.OrderStatusSuccess,
		UpdatedAt:     time.Now(),
	}
	campaign := &models.Campaign{Name: "Jazz Night", Date: "2026-12-01", Time: "19:30"}

	code, err := qr.NewQRGenerator(0).GenerateOrderQR(order.ID)
	require.NoError(t, err)

	pdf, err := template.NewTicketPDFGenerator().Generate(order, campaign, code)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
