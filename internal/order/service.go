package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-booking/internal/gateway"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/storage"

	"github.com/google/uuid"
)

type PaymentGateway interface {
	CreateSnapToken(ctx context.Context, req gateway.SnapRequest) (*gateway.SnapToken, error)
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event models.OrderEvent) error
	PublishOrderPaid(ctx context.Context, event models.OrderEvent) error
	PublishOrderFailed(ctx context.Context, event models.OrderEvent) error
	PublishAlert(ctx context.Context, alert models.Alert) error
}

// ExpiryScheduler arms and disarms the pending-order timeout.
type ExpiryScheduler interface {
	Schedule(ctx context.Context, orderID string, ttl time.Duration) error
	Cancel(ctx context.Context, orderID string) error
}

// IdempotencyStore remembers which order a checkout key produced.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (orderID string, reserved bool, err error)
	Complete(ctx context.Context, key, orderID string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// CheckoutNotifier receives every committed paid checkout.
type CheckoutNotifier interface {
	EmitPaidCheckout(event models.OrderEvent)
}

type OrderService struct {
	Store   storage.Store
	Gateway PaymentGateway
	Events  EventPublisher

	expiry      ExpiryScheduler
	idempotency IdempotencyStore
	checkouts   CheckoutNotifier

	pendingTTL      time.Duration
	idempotencyTTL  time.Duration
	serverKey       string
	verifySignature bool

	logger *logger.Logger
	now    func() time.Time
}

type Option func(*OrderService)

// WithExpiry fails pending orders that stay unpaid for ttl.
func WithExpiry(s ExpiryScheduler, ttl time.Duration) Option {
	return func(o *OrderService) {
		o.expiry = s
		o.pendingTTL = ttl
	}
}

func WithIdempotency(s IdempotencyStore, ttl time.Duration) Option {
	return func(o *OrderService) {
		o.idempotency = s
		o.idempotencyTTL = ttl
	}
}

func WithCheckoutNotifier(n CheckoutNotifier) Option {
	return func(o *OrderService) { o.checkouts = n }
}

// WithSignatureVerification rejects notifications whose signature_key does
// not match the server key.
func WithSignatureVerification(serverKey string) Option {
	return func(o *OrderService) {
		o.serverKey = serverKey
		o.verifySignature = true
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *OrderService) { o.now = now }
}

func NewOrderService(store storage.Store, gw PaymentGateway, events EventPublisher, log *logger.Logger, opts ...Option) *OrderService {
	s := &OrderService{
		Store:   store,
		Gateway: gw,
		Events:  events,
		logger:  log,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ---------------- CHECKOUT ----------------

// CreateOrder creates one pending order priced at the campaign's current
// price. Each call creates a new row.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID string, req models.CheckoutRequest) (*models.Order, *models.Campaign, error) {
	if buyerID == "" {
		return nil, nil, models.ErrUnauthenticated
	}
	if req.UserID != "" && req.UserID != buyerID {
		return nil, nil, fmt.Errorf("%w: userId does not match the authenticated buyer", models.ErrForbidden)
	}

	campaign, err := s.Store.GetCampaignByID(ctx, req.CampaignID)
	if err != nil {
		return nil, nil, fmt.Errorf("load campaign for checkout: %w", err)
	}

	if !req.Amount.IsZero() && !req.Amount.Equal(campaign.Price) {
		s.logger.Warn("ORDER", fmt.Sprintf("Client amount %s differs from campaign %s price %s, using campaign price",
			req.Amount.String(), campaign.ID, campaign.Price.String()))
	}
	if campaign.Seats <= 0 {
		s.logger.Warn("ORDER", fmt.Sprintf("Checkout on campaign %s with no seats left", campaign.ID))
	}

	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = models.DefaultPaymentMethod
	}

	now := s.now()
	order := &models.Order{
		ID:            uuid.NewString(),
		UserID:        buyerID,
		CampaignID:    campaign.ID,
		PaymentMethod: method,
		Amount:        campaign.Price,
		Status:        models.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Store.CreateOrder(ctx, order); err != nil {
		return nil, nil, fmt.Errorf("create order: %w", err)
	}
	s.logger.LogOrder("CREATED", order.ID, fmt.Sprintf("campaign=%s buyer=%s amount=%s", campaign.ID, buyerID, order.Amount.String()))

	if s.expiry != nil && s.pendingTTL > 0 {
		if err := s.expiry.Schedule(ctx, order.ID, s.pendingTTL); err != nil {
			s.logger.Warn("REDIS", fmt.Sprintf("Failed to schedule expiry for order %s: %v", order.ID, err))
		}
	}
	if err := s.Events.PublishOrderCreated(ctx, orderEvent(order, "", nil, now)); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish order created %s: %v", order.ID, err))
	}

	return order, campaign, nil
}

// Checkout creates a pending order and mints its first payment token in one
// call. A repeated idempotency key returns the order from the first call
// with a fresh token.
func (s *OrderService) Checkout(ctx context.Context, buyerID string, req models.CheckoutRequest, idempotencyKey string) (resp *models.CheckoutResponse, err error) {
	if buyerID == "" {
		return nil, models.ErrUnauthenticated
	}

	if idempotencyKey != "" && s.idempotency != nil {
		key := buyerID + ":" + idempotencyKey
		existingID, reserved, rerr := s.idempotency.Reserve(ctx, key, s.idempotencyTTL)
		switch {
		case rerr != nil:
			s.logger.Warn("REDIS", fmt.Sprintf("Idempotency reserve failed for %s, continuing without it: %v", key, rerr))
		case !reserved && existingID == "":
			return nil, fmt.Errorf("%w: a checkout with this idempotency key is in progress", models.ErrConflict)
		case !reserved:
			s.logger.LogOrder("REPLAY", existingID, "idempotency key matched an earlier checkout")
			return s.replayCheckout(ctx, buyerID, existingID)
		default:
			defer func() {
				if resp != nil && resp.OrderID != "" {
					if cerr := s.idempotency.Complete(ctx, key, resp.OrderID, s.idempotencyTTL); cerr != nil {
						s.logger.Warn("REDIS", fmt.Sprintf("Failed to record idempotency key %s: %v", key, cerr))
					}
					return
				}
				if rerr := s.idempotency.Release(ctx, key); rerr != nil {
					s.logger.Warn("REDIS", fmt.Sprintf("Failed to release idempotency key %s: %v", key, rerr))
				}
			}()
		}
	}

	order, campaign, err := s.CreateOrder(ctx, buyerID, req)
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(ctx, order, campaign)
	if err != nil {
		// The order stays pending so the buyer can retry through the token endpoint.
		return &models.CheckoutResponse{OrderID: order.ID}, err
	}
	return &models.CheckoutResponse{OrderID: order.ID, Token: token.Token, RedirectURL: token.RedirectURL}, nil
}

func (s *OrderService) replayCheckout(ctx context.Context, buyerID, orderID string) (*models.CheckoutResponse, error) {
	order, err := s.Store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load replayed order: %w", err)
	}
	if order.UserID != buyerID {
		return nil, models.ErrForbidden
	}
	if order.Status != models.OrderStatusPending {
		return &models.CheckoutResponse{OrderID: order.ID}, fmt.Errorf("%w: order %s is %s", models.ErrOrderNotPending, order.ID, order.Status)
	}

	token, err := s.issueToken(ctx, order, nil)
	if err != nil {
		return &models.CheckoutResponse{OrderID: order.ID}, err
	}
	return &models.CheckoutResponse{OrderID: order.ID, Token: token.Token, RedirectURL: token.RedirectURL}, nil
}

// ---------------- PAYMENT TOKENS ----------------

// IssueToken mints a Snap token for a pending order owned by the buyer. A
// zero grossAmount means "the order amount"; any other value must match it.
func (s *OrderService) IssueToken(ctx context.Context, buyerID string, req models.TokenRequest) (*models.TokenResponse, error) {
	if buyerID == "" {
		return nil, models.ErrUnauthenticated
	}

	order, err := s.Store.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load order for token: %w", err)
	}
	if order.UserID != buyerID {
		return nil, fmt.Errorf("%w: order %s belongs to another buyer", models.ErrForbidden, order.ID)
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("%w: order %s is %s", models.ErrOrderNotPending, order.ID, order.Status)
	}
	if !req.GrossAmount.IsZero() && !req.GrossAmount.Equal(order.Amount) {
		return nil, fmt.Errorf("%w: gross amount %s does not match order amount %s",
			models.ErrInvalidAmount, req.GrossAmount.String(), order.Amount.String())
	}

	token, err := s.issueToken(ctx, order, nil)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{Token: token.Token, RedirectURL: token.RedirectURL}, nil
}

func (s *OrderService) issueToken(ctx context.Context, order *models.Order, campaign *models.Campaign) (*gateway.SnapToken, error) {
	ref := gateway.BuildTransactionRef(order.ID, s.now())

	req := gateway.SnapRequest{
		TransactionRef: ref,
		OrderID:        order.ID,
		GrossAmount:    order.Amount,
		CustomerID:     order.UserID,
	}
	if campaign != nil {
		req.ItemID = campaign.ID
		req.ItemName = campaign.Name
	}

	token, err := s.Gateway.CreateSnapToken(ctx, req)
	if err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Token request failed for order %s ref=%s: %v", order.ID, ref, err))
		if !errors.Is(err, models.ErrGateway) {
			err = fmt.Errorf("%w: %w", models.ErrGateway, err)
		}
		return nil, err
	}
	s.logger.LogOrder("TOKEN", order.ID, "issued payment token ref="+ref)
	return token, nil
}

// ---------------- READS ----------------

func (s *OrderService) GetOrder(ctx context.Context, buyerID, orderID string) (*models.Order, error) {
	if buyerID == "" {
		return nil, models.ErrUnauthenticated
	}
	order, err := s.Store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != buyerID {
		return nil, models.ErrForbidden
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, buyerID string) ([]models.Order, error) {
	if buyerID == "" {
		return nil, models.ErrUnauthenticated
	}
	return s.Store.ListOrdersByUser(ctx, buyerID)
}

// VerifyTicket checks that a scanned order id is a paid order for a campaign
// owned by the partner.
func (s *OrderService) VerifyTicket(ctx context.Context, partnerID, orderID string) (*models.Order, error) {
	if partnerID == "" {
		return nil, models.ErrUnauthenticated
	}
	order, err := s.Store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	campaign, err := s.Store.GetCampaignByID(ctx, order.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign.OwnerID != partnerID {
		return nil, models.ErrForbidden
	}
	if order.Status != models.OrderStatusSuccess {
		return order, fmt.Errorf("%w: order %s is %s", models.ErrOrderNotPending, order.ID, order.Status)
	}
	order.Campaign = campaign
	return order, nil
}

// ---------------- EXPIRY ----------------

// ExpireOrder fails an order that is still pending when its timeout fires.
func (s *OrderService) ExpireOrder(ctx context.Context, orderID string) error {
	order, err := s.Store.GetOrderByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order for expiry: %w", err)
	}

	next, err := NextStatus(order.Status, PaymentFailed)
	if err != nil {
		s.logger.LogOrder("EXPIRY", order.ID, fmt.Sprintf("already %s, nothing to expire", order.Status))
		return nil
	}

	won, err := s.Store.TransitionOrderStatus(ctx, order.ID, order.Status, next)
	if err != nil {
		return fmt.Errorf("expire order %s: %w", order.ID, err)
	}
	if !won {
		s.logger.LogOrder("EXPIRY", order.ID, "lost race with a notification, leaving as is")
		return nil
	}

	order.Status = next
	s.logger.LogOrder("EXPIRED", order.ID, "pending order timed out")
	if err := s.Events.PublishOrderFailed(ctx, orderEvent(order, "", nil, s.now())); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish order failed %s: %v", order.ID, err))
	}
	return nil
}

func orderEvent(order *models.Order, ref string, seatsRemaining *int, at time.Time) models.OrderEvent {
	return models.OrderEvent{
		OrderID:        order.ID,
		CampaignID:     order.CampaignID,
		UserID:         order.UserID,
		Amount:         order.Amount,
		Status:         order.Status,
		TransactionRef: ref,
		SeatsRemaining: seatsRemaining,
		OccurredAt:     at,
	}
}
