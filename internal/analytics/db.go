package analytics

import (
	"context"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

// DB handles analytics database operations
type DB struct {
	bun bun.IDB
}

func NewDB(db bun.IDB) *DB {
	return &DB{bun: db}
}

// GetCampaignsByOwner retrieves a partner's campaigns ordered by event date.
func (db *DB) GetCampaignsByOwner(ctx context.Context, ownerID string) ([]models.Campaign, error) {
	campaigns := []models.Campaign{}
	err := db.bun.NewSelect().
		Model(&campaigns).
		Where("owner_id = ?", ownerID).
		Order("event_date ASC", "event_time ASC").
		Scan(ctx)

	return campaigns, err
}

// GetOrdersByCampaignIDs retrieves the orders of the given campaigns,
// optionally restricted to some statuses.
func (db *DB) GetOrdersByCampaignIDs(ctx context.Context, campaignIDs []string, statuses ...models.OrderStatus) ([]models.Order, error) {
	orders := []models.Order{}
	if len(campaignIDs) == 0 {
		return orders, nil
	}

	query := db.bun.NewSelect().
		Model(&orders).
		Where("?TableAlias.campaign_id IN (?)", bun.In(campaignIDs))
	if len(statuses) > 0 {
		query = query.Where("?TableAlias.status IN (?)", bun.In(statuses))
	}
	err := query.OrderExpr("?TableAlias.updated_at ASC").Scan(ctx)

	return orders, err
}
