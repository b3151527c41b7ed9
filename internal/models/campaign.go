package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Campaign is a partner-owned event with a finite seat inventory.
// Seats is written once at creation; afterwards only the store's
// conditional decrement may change it.
type Campaign struct {
	bun.BaseModel `bun:"table:campaigns"`

	ID          string          `bun:"id,pk" json:"id"`
	Name        string          `bun:"campaign_name,notnull" json:"campaign_name"`
	Description string          `bun:"description" json:"description"`
	Date        string          `bun:"event_date,notnull" json:"date"`
	Time        string          `bun:"event_time,notnull" json:"time"`
	Seats       int             `bun:"seats,notnull" json:"seats"`
	Price       decimal.Decimal `bun:"price,type:numeric(12,2),notnull" json:"price"`
	ImageURL    string          `bun:"image_url" json:"image_url"`
	OwnerID     string          `bun:"owner_id,notnull" json:"owner_id"`
	CategoryID  string          `bun:"category_id,nullzero" json:"category_id,omitempty"`
	CreatedAt   time.Time       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time       `bun:"updated_at,notnull" json:"updated_at"`
}

type CampaignRequest struct {
	Name        string          `json:"campaign_name"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	Seats       int             `json:"seats"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	CategoryID  string          `json:"category_id"`
}
