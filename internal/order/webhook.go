package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ms-booking/internal/gateway"
	"ms-booking/internal/models"
	"ms-booking/internal/storage"
)

const maxNotificationBytes = 64 << 10

// WebhookError represents an error that occurred during webhook processing.
type WebhookError struct {
	Category      string // "validation", "signature", "store"
	StatusCode    int    // HTTP status code
	PublicError   string // Safe to expose to clients
	InternalError string // Detailed error for logs only
	OriginalErr   error  // Underlying error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}

// NotificationOutcome says what a notification did to the order.
type NotificationOutcome string

const (
	OutcomePaid            NotificationOutcome = "paid"
	OutcomePaidSoldOut     NotificationOutcome = "paid_sold_out"
	OutcomeFailed          NotificationOutcome = "failed"
	OutcomeDuplicate       NotificationOutcome = "duplicate"
	OutcomeAlreadyTerminal NotificationOutcome = "already_terminal"
	OutcomeLateSettlement  NotificationOutcome = "late_settlement"
	OutcomeIgnored         NotificationOutcome = "ignored"
	OutcomeOrderNotFound   NotificationOutcome = "order_not_found"
)

type NotificationResult struct {
	Outcome        NotificationOutcome
	OrderID        string
	TransactionRef string
	SeatsRemaining *int
}

// HandleMidtransWebhook reads, authenticates and reconciles one notification.
// A nil error means the gateway should get a 200.
func (s *OrderService) HandleMidtransWebhook(r *http.Request) (*NotificationResult, error) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBytes))
	if err != nil {
		s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to read webhook payload: %v", err))
		return nil, &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook payload",
			InternalError: fmt.Sprintf("Failed to read webhook payload: %v", err),
			OriginalErr:   err,
		}
	}

	var n models.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to decode webhook payload: %v", err))
		return nil, &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook payload",
			InternalError: fmt.Sprintf("Failed to decode webhook payload: %v", err),
			OriginalErr:   err,
		}
	}

	if s.verifySignature && !gateway.VerifyNotification(n, s.serverKey) {
		s.logger.LogSecurity("WEBHOOK_SIGNATURE", fmt.Sprintf("Rejected notification with bad signature ref=%s", n.OrderID))
		return nil, &WebhookError{
			Category:      "signature",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid signature",
			InternalError: fmt.Sprintf("signature mismatch for ref=%s", n.OrderID),
		}
	}

	return s.ReconcileNotification(r.Context(), n)
}

// ReconcileNotification applies one gateway notification to its order. The
// first terminal outcome wins; later or duplicate deliveries change nothing.
func (s *OrderService) ReconcileNotification(ctx context.Context, n models.Notification) (*NotificationResult, error) {
	ref := n.OrderID
	s.logger.Info("WEBHOOK", fmt.Sprintf("Notification ref=%s status=%s fraud=%s", ref, n.TransactionStatus, n.FraudStatus))

	orderID, err := resolveOrderID(n)
	if err != nil {
		s.raise(ctx, models.Alert{Kind: models.AlertOrderNotFound, TransactionRef: ref, Detail: err.Error()})
		return &NotificationResult{Outcome: OutcomeOrderNotFound, TransactionRef: ref}, nil
	}

	order, err := s.Store.GetOrderByID(ctx, orderID)
	if errors.Is(err, models.ErrNotFound) {
		s.raise(ctx, models.Alert{Kind: models.AlertOrderNotFound, OrderID: orderID, TransactionRef: ref, Detail: "no order with this id"})
		return &NotificationResult{Outcome: OutcomeOrderNotFound, OrderID: orderID, TransactionRef: ref}, nil
	}
	if err != nil {
		return nil, storeFailure(ref, err)
	}

	switch ClassifyTransaction(n.TransactionStatus, n.FraudStatus) {
	case PaymentSucceeded:
		return s.applySuccess(ctx, order, ref)
	case PaymentFailed:
		return s.applyFailure(ctx, order, ref)
	default:
		s.logger.LogOrder("NOTIFY", order.ID, fmt.Sprintf("status %q acknowledged without action", n.TransactionStatus))
		return &NotificationResult{Outcome: OutcomeIgnored, OrderID: order.ID, TransactionRef: ref}, nil
	}
}

func (s *OrderService) applySuccess(ctx context.Context, order *models.Order, ref string) (*NotificationResult, error) {
	result := &NotificationResult{OrderID: order.ID, TransactionRef: ref}

	if _, err := NextStatus(order.Status, PaymentSucceeded); err != nil {
		return s.terminalSuccess(ctx, order, result), nil
	}

	var soldOutErr error
	err := s.Store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		won, err := tx.TransitionOrderStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusSuccess)
		if err != nil {
			return err
		}
		if !won {
			current, err := tx.GetOrderByID(ctx, order.ID)
			if err != nil {
				return err
			}
			order.Status = current.Status
			return nil
		}
		order.Status = models.OrderStatusSuccess

		remaining, err := tx.DecrementSeat(ctx, order.CampaignID)
		switch {
		case errors.Is(err, models.ErrSoldOut), errors.Is(err, models.ErrNotFound):
			soldOutErr = err
			result.SeatsRemaining = &remaining
			return tx.CreateReconciliationTask(ctx, &models.ReconciliationTask{
				Kind:           models.AlertSoldOut,
				OrderID:        order.ID,
				CampaignID:     order.CampaignID,
				TransactionRef: ref,
				Detail:         err.Error(),
			})
		case err != nil:
			return err
		}
		result.SeatsRemaining = &remaining
		return nil
	})
	if err != nil {
		order.Status = models.OrderStatusPending
		return nil, storeFailure(ref, err)
	}

	if order.Status != models.OrderStatusSuccess || result.SeatsRemaining == nil {
		// Another delivery or the expiry timer got there first.
		return s.terminalSuccess(ctx, order, result), nil
	}

	now := s.now()
	if soldOutErr != nil {
		result.Outcome = OutcomePaidSoldOut
		s.raise(ctx, models.Alert{
			Kind:           models.AlertSoldOut,
			OrderID:        order.ID,
			CampaignID:     order.CampaignID,
			TransactionRef: ref,
			Detail:         "payment settled but seat decrement failed: " + soldOutErr.Error(),
		})
	} else {
		result.Outcome = OutcomePaid
		s.logger.LogOrder("PAID", order.ID, fmt.Sprintf("ref=%s seats_remaining=%d", ref, *result.SeatsRemaining))
	}

	event := orderEvent(order, ref, result.SeatsRemaining, now)
	if err := s.Events.PublishOrderPaid(ctx, event); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish order paid %s: %v", order.ID, err))
	}
	if s.checkouts != nil {
		s.checkouts.EmitPaidCheckout(event)
	}
	s.disarmExpiry(ctx, order.ID)
	return result, nil
}

// terminalSuccess handles a success notification for an order that is
// already terminal: a duplicate when it is paid, an alert when it failed.
func (s *OrderService) terminalSuccess(ctx context.Context, order *models.Order, result *NotificationResult) *NotificationResult {
	result.SeatsRemaining = nil
	if order.Status == models.OrderStatusSuccess {
		result.Outcome = OutcomeDuplicate
		s.logger.LogOrder("NOTIFY", order.ID, "duplicate success notification, already paid")
		return result
	}

	result.Outcome = OutcomeLateSettlement
	s.raise(ctx, models.Alert{
		Kind:           models.AlertLateSettlement,
		OrderID:        order.ID,
		CampaignID:     order.CampaignID,
		TransactionRef: result.TransactionRef,
		Detail:         fmt.Sprintf("payment settled for an order already %s", order.Status),
	})
	return result
}

func (s *OrderService) applyFailure(ctx context.Context, order *models.Order, ref string) (*NotificationResult, error) {
	result := &NotificationResult{OrderID: order.ID, TransactionRef: ref}

	next, err := NextStatus(order.Status, PaymentFailed)
	if err != nil {
		result.Outcome = OutcomeAlreadyTerminal
		s.logger.LogOrder("NOTIFY", order.ID, fmt.Sprintf("failure notification ignored, order already %s", order.Status))
		return result, nil
	}

	won, err := s.Store.TransitionOrderStatus(ctx, order.ID, order.Status, next)
	if err != nil {
		return nil, storeFailure(ref, err)
	}
	if !won {
		result.Outcome = OutcomeAlreadyTerminal
		s.logger.LogOrder("NOTIFY", order.ID, "failure notification lost the race to another terminal update")
		return result, nil
	}

	order.Status = next
	result.Outcome = OutcomeFailed
	s.logger.LogOrder("FAILED", order.ID, "ref="+ref)

	if err := s.Events.PublishOrderFailed(ctx, orderEvent(order, ref, nil, s.now())); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish order failed %s: %v", order.ID, err))
	}
	s.disarmExpiry(ctx, order.ID)
	return result, nil
}

// resolveOrderID prefers the order id carried in custom_field1 and falls back
// to parsing the transaction reference.
func resolveOrderID(n models.Notification) (string, error) {
	parsed, parseErr := gateway.ParseTransactionRef(n.OrderID)
	if n.CustomField1 != "" {
		if gateway.IsOrderID(n.CustomField1) {
			if parseErr == nil && parsed != n.CustomField1 {
				return "", fmt.Errorf("custom_field1 %s disagrees with reference %s", n.CustomField1, n.OrderID)
			}
			return n.CustomField1, nil
		}
	}
	if parseErr != nil {
		return "", parseErr
	}
	return parsed, nil
}

func (s *OrderService) raise(ctx context.Context, alert models.Alert) {
	alert.OccurredAt = s.now()
	s.logger.LogAlert(string(alert.Kind), alert.OrderID, fmt.Sprintf("ref=%s campaign=%s %s", alert.TransactionRef, alert.CampaignID, alert.Detail))
	if err := s.Events.PublishAlert(ctx, alert); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s alert: %v", alert.Kind, err))
	}
}

func (s *OrderService) disarmExpiry(ctx context.Context, orderID string) {
	if s.expiry == nil {
		return
	}
	if err := s.expiry.Cancel(ctx, orderID); err != nil {
		s.logger.Warn("REDIS", fmt.Sprintf("Failed to cancel expiry for order %s: %v", orderID, err))
	}
}

func storeFailure(ref string, err error) *WebhookError {
	return &WebhookError{
		Category:      "store",
		StatusCode:    http.StatusInternalServerError,
		PublicError:   "temporarily unable to process notification",
		InternalError: fmt.Sprintf("store failure for ref=%s: %v", ref, err),
		OriginalErr:   fmt.Errorf("%w: %w", models.ErrTransientStore, err),
	}
}
