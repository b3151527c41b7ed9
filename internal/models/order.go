package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusSuccess OrderStatus = "success"
	OrderStatusFailed  OrderStatus = "failed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusSuccess, OrderStatusFailed:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusSuccess || s == OrderStatusFailed
}

const DefaultPaymentMethod = "qris"

// Order is a buyer's intent to pay for one seat of a campaign. Its ID doubles
// as the ticket identifier encoded in the QR code.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID            string          `bun:"id,pk" json:"id"`
	UserID        string          `bun:"user_id,notnull" json:"user_id"`
	CampaignID    string          `bun:"campaign_id,notnull" json:"campaign_id"`
	PaymentMethod string          `bun:"payment_method,notnull" json:"payment_method"`
	Amount        decimal.Decimal `bun:"amount,type:numeric(12,2),notnull" json:"amount"`
	Status        OrderStatus     `bun:"status,notnull" json:"status"`
	CreatedAt     time.Time       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time       `bun:"updated_at,notnull" json:"updated_at"`

	Campaign *Campaign `bun:"rel:belongs-to,join:campaign_id=id" json:"campaign,omitempty"`
}

type CheckoutRequest struct {
	CampaignID    string          `json:"campaignId"`
	UserID        string          `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
}

type CheckoutResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url,omitempty"`
	OrderID     string `json:"order_id"`
}

type TokenRequest struct {
	OrderID     string          `json:"orderId"`
	GrossAmount decimal.Decimal `json:"grossAmount"`
}

type TokenResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url,omitempty"`
}
