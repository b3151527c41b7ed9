package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderEvent struct {
	OrderID        string          `json:"order_id"`
	CampaignID     string          `json:"campaign_id"`
	UserID         string          `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         OrderStatus     `json:"status"`
	TransactionRef string          `json:"transaction_ref,omitempty"`
	SeatsRemaining *int            `json:"seats_remaining,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}
