package migrations

import (
	"context"
	"time"

	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// DemoCampaignID is stable so seeding twice leaves a single row.
const DemoCampaignID = "5f0c6f5e-9d8a-4a53-8d0e-3b7c2a1f9e01"

// Seed inserts a demo campaign owned by "demo-partner".
func Seed(ctx context.Context, db bun.IDB) error {
	now := time.Now().UTC()
	campaign := &models.Campaign{
		ID:          DemoCampaignID,
		Name:        "Summer Fest 2026",
		Description: "Annual summer music festival.",
		Date:        now.AddDate(0, 1, 0).Format("2006-01-02"),
		Time:        "19:00",
		Seats:       100,
		Price:       decimal.NewFromInt(150000),
		OwnerID:     "demo-partner",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := db.NewInsert().Model(campaign).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	return err
}
