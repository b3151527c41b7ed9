package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-booking/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

// BunStore implements Store on top of bun. The same type serves as the
// transaction-scoped Tx handed to WithTx callbacks.
type BunStore struct {
	root *bun.DB
	db   bun.IDB
}

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{root: db, db: db}
}

func (s *BunStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &BunStore{root: s.root, db: tx})
	})
}

func (s *BunStore) HealthCheck(ctx context.Context) error {
	return s.root.PingContext(ctx)
}

func (s *BunStore) Close() error {
	return s.root.Close()
}

// ---------------- CAMPAIGNS ----------------

func (s *BunStore) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	if _, err := s.db.NewInsert().Model(campaign).Exec(ctx); err != nil {
		return storeErr("create campaign", err)
	}
	return nil
}

func (s *BunStore) GetCampaignByID(ctx context.Context, id string) (*models.Campaign, error) {
	if !validID(id) {
		return nil, fmt.Errorf("campaign %q: %w", id, models.ErrNotFound)
	}

	var campaign models.Campaign
	err := s.db.NewSelect().
		Model(&campaign).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, storeErr("get campaign "+id, err)
	}
	return &campaign, nil
}

func (s *BunStore) ListCampaigns(ctx context.Context, filter CampaignFilter) ([]models.Campaign, error) {
	campaigns := []models.Campaign{}
	q := s.db.NewSelect().Model(&campaigns)
	if filter.OwnerID != "" {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if err := q.Order("event_date ASC", "event_time ASC").Scan(ctx); err != nil {
		return nil, storeErr("list campaigns", err)
	}
	return campaigns, nil
}

// UpdateCampaign writes the editable attributes. Seats is deliberately absent.
func (s *BunStore) UpdateCampaign(ctx context.Context, campaign *models.Campaign) error {
	campaign.UpdatedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().
		Model(campaign).
		Column("campaign_name", "description", "event_date", "event_time", "price", "image_url", "category_id", "updated_at").
		Where("id = ?", campaign.ID).
		Exec(ctx)
	if err != nil {
		return storeErr("update campaign "+campaign.ID, err)
	}
	return requireAffected(res, "campaign "+campaign.ID)
}

// DeleteCampaign removes a campaign together with its failed orders. Pending
// and paid orders still hold the campaign, so the delete is refused with
// ErrConflict while any exist. The check and the delete share a transaction
// and the final DELETE re-checks for orders, so a buyer checking out
// concurrently cannot lose their order.
func (s *BunStore) DeleteCampaign(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("campaign %q: %w", id, models.ErrNotFound)
	}
	return s.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		live, err := tx.NewSelect().
			Model((*models.Order)(nil)).
			Where("campaign_id = ?", id).
			Where("status IN (?)", bun.In([]models.OrderStatus{models.OrderStatusPending, models.OrderStatusSuccess})).
			Count(ctx)
		if err != nil {
			return storeErr("count live orders", err)
		}
		if live > 0 {
			return fmt.Errorf("campaign %s has %d pending or paid orders: %w", id, live, models.ErrConflict)
		}

		if _, err := tx.NewDelete().
			Model((*models.Order)(nil)).
			Where("campaign_id = ?", id).
			Where("status = ?", models.OrderStatusFailed).
			Exec(ctx); err != nil {
			return storeErr("delete failed orders", err)
		}

		res, err := tx.NewDelete().
			Model((*models.Campaign)(nil)).
			Where("id = ?", id).
			Where("NOT EXISTS (SELECT 1 FROM orders WHERE orders.campaign_id = ?)", id).
			Exec(ctx)
		if err != nil {
			return storeErr("delete campaign "+id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storeErr("delete campaign "+id, err)
		}
		if n > 0 {
			return nil
		}
		exists, err := tx.NewSelect().Model((*models.Campaign)(nil)).Where("id = ?", id).Exists(ctx)
		if err != nil {
			return storeErr("delete campaign "+id, err)
		}
		if exists {
			return fmt.Errorf("campaign %s gained an order during delete: %w", id, models.ErrConflict)
		}
		return fmt.Errorf("campaign %s: %w", id, models.ErrNotFound)
	})
}

// DecrementSeat removes one seat in a single conditional UPDATE and returns
// the remaining count. It never reads-then-writes the counter.
func (s *BunStore) DecrementSeat(ctx context.Context, campaignID string) (int, error) {
	if !validID(campaignID) {
		return 0, fmt.Errorf("campaign %q: %w", campaignID, models.ErrNotFound)
	}

	res, err := s.db.NewUpdate().
		Model((*models.Campaign)(nil)).
		Set("seats = seats - 1").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", campaignID).
		Where("seats > 0").
		Exec(ctx)
	if err != nil {
		return 0, storeErr("decrement seat "+campaignID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("decrement seat "+campaignID, err)
	}

	var seats int
	err = s.db.NewSelect().
		Model((*models.Campaign)(nil)).
		Column("seats").
		Where("id = ?", campaignID).
		Scan(ctx, &seats)
	if err != nil {
		return 0, storeErr("read seats "+campaignID, err)
	}

	if affected == 0 {
		return seats, fmt.Errorf("campaign %s: %w", campaignID, models.ErrSoldOut)
	}
	return seats, nil
}

// ---------------- ORDERS ----------------

func (s *BunStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if _, err := s.db.NewInsert().Model(order).Exec(ctx); err != nil {
		return storeErr("create order", err)
	}
	return nil
}

func (s *BunStore) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	if !validID(id) {
		return nil, fmt.Errorf("order %q: %w", id, models.ErrNotFound)
	}

	var order models.Order
	err := s.db.NewSelect().
		Model(&order).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, storeErr("get order "+id, err)
	}
	return &order, nil
}

// ListOrdersByUser returns the buyer's orders newest first, each with its campaign.
func (s *BunStore) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.NewSelect().
		Model(&orders).
		Relation("Campaign").
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, storeErr("list orders for user "+userID, err)
	}
	return orders, nil
}

// TransitionOrderStatus moves an order from one status to another only if it
// is still in the expected status. It reports whether this call won.
func (s *BunStore) TransitionOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return false, storeErr("transition order "+id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("transition order "+id, err)
	}
	return affected == 1, nil
}

// ---------------- RECONCILIATION ----------------

func (s *BunStore) CreateReconciliationTask(ctx context.Context, task *models.ReconciliationTask) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(task).Exec(ctx); err != nil {
		return storeErr("create reconciliation task", err)
	}
	return nil
}

func (s *BunStore) ListReconciliationTasks(ctx context.Context, unresolvedOnly bool) ([]models.ReconciliationTask, error) {
	tasks := []models.ReconciliationTask{}
	q := s.db.NewSelect().Model(&tasks).Order("created_at DESC")
	if unresolvedOnly {
		q = q.Where("resolved = ?", false)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, storeErr("list reconciliation tasks", err)
	}
	return tasks, nil
}

// foreignKeyViolation is the Postgres SQLSTATE raised when a RESTRICT
// reference blocks a delete.
const foreignKeyViolation = "23503"

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

func storeErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return fmt.Errorf("%s: %w: %s", op, models.ErrConflict, pqErr.Message)
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrTransientStore, err)
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return nil
}
