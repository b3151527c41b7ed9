package storage

import (
	"context"

	"ms-booking/internal/models"
)

// Tx is the set of operations that run inside one store transaction during
// payment reconciliation.
type Tx interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	TransitionOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error)
	DecrementSeat(ctx context.Context, campaignID string) (int, error)
	CreateReconciliationTask(ctx context.Context, task *models.ReconciliationTask) error
}

type Store interface {
	Tx

	// Campaign inventory
	CreateCampaign(ctx context.Context, campaign *models.Campaign) error
	GetCampaignByID(ctx context.Context, id string) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]models.Campaign, error)
	UpdateCampaign(ctx context.Context, campaign *models.Campaign) error
	DeleteCampaign(ctx context.Context, id string) error

	// Orders
	CreateOrder(ctx context.Context, order *models.Order) error
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListReconciliationTasks(ctx context.Context, unresolvedOnly bool) ([]models.ReconciliationTask, error)

	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Health and maintenance
	HealthCheck(ctx context.Context) error
	Close() error
}

type CampaignFilter struct {
	OwnerID    string
	CategoryID string
}
