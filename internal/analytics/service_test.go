package analytics_test

import (
	"context"
	"testing"
	"time"

	"ms-booking/internal/analytics"
	"ms-booking/internal/models"
	"ms-booking/internal/storage/storagetest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDashboard(t *testing.T) {
	store, db := storagetest.NewStore(t)
	ctx := context.Background()

	jazz := storagetest.SeedCampaign(t, store, "partner-1", 8, 100000)
	rock := storagetest.SeedCampaign(t, store, "partner-1", 3, 50000)
	other := storagetest.SeedCampaign(t, store, "partner-2", 5, 10000)

	storagetest.SeedOrder(t, store, jazz, "b1", models.OrderStatusSuccess)
	storagetest.SeedOrder(t, store, jazz, "b2", models.OrderStatusSuccess)
	storagetest.SeedOrder(t, store, jazz, "b3", models.OrderStatusPending)
	storagetest.SeedOrder(t, store, rock, "b1", models.OrderStatusFailed)
	storagetest.SeedOrder(t, store, other, "b1", models.OrderStatusSuccess)

	dash, err := analytics.NewService(db).GetDashboard(ctx, "partner-1")
	require.NoError(t, err)
	require.Len(t, dash.Campaigns, 2)

	rows := map[string]analytics.CampaignSummary{}
	for _, row := range dash.Campaigns {
		rows[row.CampaignID] = row
	}
	assert.Equal(t, 2, rows[jazz.ID].TicketsSold)
	assert.Equal(t, 1, rows[jazz.ID].PendingOrders)
	assert.Equal(t, 8, rows[jazz.ID].SeatsRemaining)
	assert.True(t, decimal.NewFromInt(200000).Equal(rows[jazz.ID].Revenue))
	assert.Equal(t, 1, rows[rock.ID].FailedOrders)
	assert.Equal(t, 0, rows[rock.ID].TicketsSold)

	assert.Equal(t, 2, dash.Totals.Campaigns)
	assert.Equal(t, 2, dash.Totals.TicketsSold)
	assert.Equal(t, 1, dash.Totals.PendingOrders)
	assert.True(t, decimal.NewFromInt(200000).Equal(dash.Totals.Revenue))
}

func TestGetDashboardWithoutCampaigns(t *testing.T) {
	_, db := storagetest.NewStore(t)
	dash, err := analytics.NewService(db).GetDashboard(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, dash.Campaigns)
	assert.True(t, dash.Totals.Revenue.IsZero())
}

func TestGetCampaignSalesByDay(t *testing.T) {
	store, db := storagetest.NewStore(t)
	ctx := context.Background()
	c := storagetest.SeedCampaign(t, store, "partner-1", 8, 100000)

	day1 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	for _, at := range []time.Time{day1, day1.Add(time.Hour), day2} {
		o := storagetest.SeedOrder(t, store, c, "b1", models.OrderStatusSuccess)
		_, err := db.NewUpdate().Model((*models.Order)(nil)).
			Set("updated_at = ?", at).
			Where("id = ?", o.ID).
			Exec(ctx)
		require.NoError(t, err)
	}
	storagetest.SeedOrder(t, store, c, "b2", models.OrderStatusPending)

	sales, err := analytics.NewService(db).GetCampaignSales(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, sales.TicketsSold)
	assert.True(t, decimal.NewFromInt(300000).Equal(sales.TotalRevenue))
	require.Len(t, sales.DailySales, 2)
	assert.Equal(t, "2026-05-01", sales.DailySales[0].Date)
	assert.Equal(t, 2, sales.DailySales[0].TicketsSold)
	assert.Equal(t, "2026-05-02", sales.DailySales[1].Date)
}
