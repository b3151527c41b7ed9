package models

import (
	"time"

	"github.com/uptrace/bun"
)

type AlertKind string

const (
	AlertOrderNotFound  AlertKind = "order_not_found"
	AlertSoldOut        AlertKind = "sold_out"
	AlertLateSettlement AlertKind = "late_settlement"
)

// ReconciliationTask is an operator follow-up persisted alongside the state
// change that caused it.
type ReconciliationTask struct {
	bun.BaseModel `bun:"table:reconciliation_tasks"`

	ID             string    `bun:"id,pk" json:"id"`
	Kind           AlertKind `bun:"kind,notnull" json:"kind"`
	OrderID        string    `bun:"order_id,notnull" json:"order_id"`
	CampaignID     string    `bun:"campaign_id" json:"campaign_id"`
	TransactionRef string    `bun:"transaction_ref" json:"transaction_ref"`
	Detail         string    `bun:"detail" json:"detail"`
	Resolved       bool      `bun:"resolved,notnull" json:"resolved"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
}

type Alert struct {
	Kind           AlertKind `json:"kind"`
	OrderID        string    `json:"order_id"`
	CampaignID     string    `json:"campaign_id,omitempty"`
	TransactionRef string    `json:"transaction_ref,omitempty"`
	Detail         string    `json:"detail"`
	OccurredAt     time.Time `json:"occurred_at"`
}
