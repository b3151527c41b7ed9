package order_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"ms-booking/internal/gateway"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/order"
	"ms-booking/internal/storage"
	"ms-booking/internal/storage/storagetest"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateSnapToken(ctx context.Context, req gateway.SnapRequest) (*gateway.SnapToken, error) {
	args := m.Called(ctx, req)
	if tok := args.Get(0); tok != nil {
		return tok.(*gateway.SnapToken), args.Error(1)
	}
	return nil, args.Error(1)
}

type recordingEvents struct {
	mu      sync.Mutex
	created []models.OrderEvent
	paid    []models.OrderEvent
	failed  []models.OrderEvent
	alerts  []models.Alert
}

func (r *recordingEvents) PublishOrderCreated(_ context.Context, e models.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, e)
	return nil
}

func (r *recordingEvents) PublishOrderPaid(_ context.Context, e models.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paid = append(r.paid, e)
	return nil
}

func (r *recordingEvents) PublishOrderFailed(_ context.Context, e models.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, e)
	return nil
}

func (r *recordingEvents) PublishAlert(_ context.Context, a models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return nil
}

func (r *recordingEvents) alertKinds() []models.AlertKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]models.AlertKind, 0, len(r.alerts))
	for _, a := range r.alerts {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (n *recordingNotifier) EmitPaidCheckout(e models.OrderEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

type fakeExpiry struct {
	mu        sync.Mutex
	scheduled map[string]time.Duration
	cancelled []string
}

func (f *fakeExpiry) Schedule(_ context.Context, orderID string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scheduled == nil {
		f.scheduled = map[string]time.Duration{}
	}
	f.scheduled[orderID] = ttl
	return nil
}

func (f *fakeExpiry) Cancel(_ context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, orderID)
	return nil
}

type fixture struct {
	store    *storage.BunStore
	gateway  *MockGateway
	events   *recordingEvents
	notifier *recordingNotifier
	expiry   *fakeExpiry
	service  *order.OrderService
}

func newFixture(t *testing.T, opts ...order.Option) *fixture {
	t.Helper()
	store, _ := storagetest.NewStore(t)
	f := &fixture{
		store:    store,
		gateway:  &MockGateway{},
		events:   &recordingEvents{},
		notifier: &recordingNotifier{},
		expiry:   &fakeExpiry{},
	}
	opts = append([]order.Option{
		order.WithCheckoutNotifier(f.notifier),
		order.WithExpiry(f.expiry, 30*time.Minute),
	}, opts...)
	f.service = order.NewOrderService(store, f.gateway, f.events, logger.NewDiscard(), opts...)
	return f
}

// failingStore lets a test make individual store calls fail transiently.
type failingStore struct {
	storage.Store
	getOrderErr  error
	decrementErr error
}

func (f *failingStore) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	if f.getOrderErr != nil {
		return nil, f.getOrderErr
	}
	return f.Store.GetOrderByID(ctx, id)
}

func (f *failingStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return f.Store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return fn(ctx, &failingTx{Tx: tx, decrementErr: f.decrementErr})
	})
}

type failingTx struct {
	storage.Tx
	decrementErr error
}

func (f *failingTx) DecrementSeat(ctx context.Context, campaignID string) (int, error) {
	if f.decrementErr != nil {
		return 0, f.decrementErr
	}
	return f.Tx.DecrementSeat(ctx, campaignID)
}
