// Package storagetest opens throwaway SQLite-backed stores for tests.
package storagetest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-booking/internal/models"
	"ms-booking/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// NewDB returns an in-memory SQLite bun.DB with the booking tables created.
// A single connection keeps the in-memory database alive for the whole test.
func NewDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err, "open in-memory sqlite")
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Campaign)(nil),
		(*models.Order)(nil),
		(*models.ReconciliationTask)(nil),
	} {
		_, err := bunDB.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err, "create table")
	}
	return bunDB
}

func NewStore(t *testing.T) (*storage.BunStore, *bun.DB) {
	t.Helper()
	bunDB := NewDB(t)
	return storage.NewBunStore(bunDB), bunDB
}

// SeedCampaign inserts a campaign with the given seats and price.
func SeedCampaign(t *testing.T, store storage.Store, ownerID string, seats int, price int64) *models.Campaign {
	t.Helper()
	now := time.Now().UTC()
	c := &models.Campaign{
		ID:        uuid.NewString(),
		Name:      "Jazz Night",
		Date:      "2026-12-01",
		Time:      "19:30",
		Seats:     seats,
		Price:     decimal.NewFromInt(price),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.CreateCampaign(context.Background(), c))
	return c
}

// SeedOrder inserts an order in the given status for the campaign.
func SeedOrder(t *testing.T, store storage.Store, campaign *models.Campaign, userID string, status models.OrderStatus) *models.Order {
	t.Helper()
	now := time.Now().UTC()
	o := &models.Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		CampaignID:    campaign.ID,
		PaymentMethod: models.DefaultPaymentMethod,
		Amount:        campaign.Price,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, store.CreateOrder(context.Background(), o))
	return o
}
