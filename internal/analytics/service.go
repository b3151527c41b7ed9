package analytics

import (
	"context"
	"fmt"
	"sort"

	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

const dayLayout = "2006-01-02"

// Service handles analytics operations
type Service struct {
	db *DB
}

func NewService(db bun.IDB) *Service {
	return &Service{db: NewDB(db)}
}

// CampaignSummary is one row of the partner dashboard.
type CampaignSummary struct {
	CampaignID     string          `json:"campaign_id"`
	Name           string          `json:"campaign_name"`
	Date           string          `json:"date"`
	Time           string          `json:"time"`
	SeatsRemaining int             `json:"seats_remaining"`
	TicketsSold    int             `json:"tickets_sold"`
	Revenue        decimal.Decimal `json:"revenue"`
	PendingOrders  int             `json:"pending_orders"`
	FailedOrders   int             `json:"failed_orders"`
}

type DashboardTotals struct {
	Campaigns     int             `json:"campaigns"`
	TicketsSold   int             `json:"tickets_sold"`
	Revenue       decimal.Decimal `json:"revenue"`
	PendingOrders int             `json:"pending_orders"`
}

type Dashboard struct {
	Campaigns []CampaignSummary `json:"campaigns"`
	Totals    DashboardTotals   `json:"totals"`
}

// DailySalesMetrics contains metrics for a single day
type DailySalesMetrics struct {
	Date        string          `json:"date"`
	Revenue     decimal.Decimal `json:"revenue"`
	TicketsSold int             `json:"tickets_sold"`
}

type CampaignSales struct {
	CampaignID   string              `json:"campaign_id"`
	TotalRevenue decimal.Decimal     `json:"total_revenue"`
	TicketsSold  int                 `json:"tickets_sold"`
	DailySales   []DailySalesMetrics `json:"daily_sales"`
}

// GetDashboard aggregates every campaign the partner owns. One paid order is
// one ticket.
func (s *Service) GetDashboard(ctx context.Context, ownerID string) (*Dashboard, error) {
	campaigns, err := s.db.GetCampaignsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}

	ids := make([]string, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}
	orders, err := s.db.GetOrdersByCampaignIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	byCampaign := make(map[string]*CampaignSummary, len(campaigns))
	dashboard := &Dashboard{Campaigns: make([]CampaignSummary, len(campaigns))}
	for i, c := range campaigns {
		dashboard.Campaigns[i] = CampaignSummary{
			CampaignID:     c.ID,
			Name:           c.Name,
			Date:           c.Date,
			Time:           c.Time,
			SeatsRemaining: c.Seats,
			Revenue:        decimal.Zero,
		}
		byCampaign[c.ID] = &dashboard.Campaigns[i]
	}

	for _, o := range orders {
		row := byCampaign[o.CampaignID]
		if row == nil {
			continue
		}
		switch o.Status {
		case models.OrderStatusSuccess:
			row.TicketsSold++
			row.Revenue = row.Revenue.Add(o.Amount)
		case models.OrderStatusPending:
			row.PendingOrders++
		case models.OrderStatusFailed:
			row.FailedOrders++
		}
	}

	dashboard.Totals.Revenue = decimal.Zero
	dashboard.Totals.Campaigns = len(campaigns)
	for _, row := range dashboard.Campaigns {
		dashboard.Totals.TicketsSold += row.TicketsSold
		dashboard.Totals.Revenue = dashboard.Totals.Revenue.Add(row.Revenue)
		dashboard.Totals.PendingOrders += row.PendingOrders
	}
	return dashboard, nil
}

// GetCampaignSales returns the daily series of paid orders for a campaign,
// bucketed by the day the order was settled (UTC).
func (s *Service) GetCampaignSales(ctx context.Context, campaignID string) (*CampaignSales, error) {
	orders, err := s.db.GetOrdersByCampaignIDs(ctx, []string{campaignID}, models.OrderStatusSuccess)
	if err != nil {
		return nil, fmt.Errorf("load paid orders: %w", err)
	}

	sales := &CampaignSales{CampaignID: campaignID, TotalRevenue: decimal.Zero, DailySales: []DailySalesMetrics{}}
	days := map[string]*DailySalesMetrics{}
	for _, o := range orders {
		day := o.UpdatedAt.UTC().Format(dayLayout)
		m, ok := days[day]
		if !ok {
			m = &DailySalesMetrics{Date: day, Revenue: decimal.Zero}
			days[day] = m
		}
		m.TicketsSold++
		m.Revenue = m.Revenue.Add(o.Amount)

		sales.TicketsSold++
		sales.TotalRevenue = sales.TotalRevenue.Add(o.Amount)
	}

	for _, m := range days {
		sales.DailySales = append(sales.DailySales, *m)
	}
	sort.Slice(sales.DailySales, func(i, j int) bool {
		return sales.DailySales[i].Date < sales.DailySales[j].Date
	})
	return sales, nil
}
