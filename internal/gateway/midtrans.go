package gateway

import (
	"context"
	"fmt"
	"unicode/utf8"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
)

// SnapRequest describes one payment attempt for an order.
type SnapRequest struct {
	TransactionRef string
	OrderID        string
	GrossAmount    decimal.Decimal
	ItemID         string
	ItemName       string
	CustomerID     string
}

type SnapToken struct {
	Token       string
	RedirectURL string
}

// Midtrans mints Snap payment tokens.
type Midtrans struct {
	client snap.Client
	logger *logger.Logger
}

func NewMidtrans(serverKey string, production bool, log *logger.Logger) *Midtrans {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	m := &Midtrans{logger: log}
	m.client.New(serverKey, env)
	return m
}

// GrossAmountIDR converts an amount to the integer rupiah value Midtrans expects.
func GrossAmountIDR(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: gross amount must be positive, got %s", models.ErrInvalidAmount, amount.String())
	}
	if !amount.Equal(amount.Truncate(0)) {
		return 0, fmt.Errorf("%w: gross amount must be whole rupiah, got %s", models.ErrInvalidAmount, amount.String())
	}
	return amount.IntPart(), nil
}

// Midtrans rejects item names longer than 50 characters.
const maxItemNameRunes = 50

// BuildSnapRequest maps a payment attempt onto the Snap API request. The
// order id travels in custom_field1 so notifications carry it verbatim.
func BuildSnapRequest(req SnapRequest) (*snap.Request, error) {
	gross, err := GrossAmountIDR(req.GrossAmount)
	if err != nil {
		return nil, err
	}

	name := req.ItemName
	if utf8.RuneCountInString(name) > maxItemNameRunes {
		name = string([]rune(name)[:maxItemNameRunes])
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.TransactionRef,
			GrossAmt: gross,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		CustomField1: req.OrderID,
		CustomField2: req.CustomerID,
	}
	if req.ItemID != "" {
		snapReq.Items = &[]midtrans.ItemDetails{{
			ID:    req.ItemID,
			Name:  name,
			Price: gross,
			Qty:   1,
		}}
	}
	return snapReq, nil
}

func (m *Midtrans) CreateSnapToken(ctx context.Context, req SnapRequest) (*SnapToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrGateway, err)
	}

	snapReq, err := BuildSnapRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrGateway, err)
	}

	m.logger.Info("PAYMENT", fmt.Sprintf("Requesting Snap token: ref=%s amount=%d", req.TransactionRef, snapReq.TransactionDetails.GrossAmt))

	resp, merr := m.client.CreateTransaction(snapReq)
	if merr != nil {
		m.logger.Error("PAYMENT", fmt.Sprintf("Snap token request failed: ref=%s status=%d err=%s", req.TransactionRef, merr.StatusCode, merr.Message))
		return nil, fmt.Errorf("%w: %s", models.ErrGateway, merr.Message)
	}
	if resp == nil || resp.Token == "" {
		return nil, fmt.Errorf("%w: empty token in Snap response", models.ErrGateway)
	}

	return &SnapToken{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}
