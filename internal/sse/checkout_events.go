package sse

import (
	"context"
	"sync"

	"ms-booking/internal/models"
)

const clientBuffer = 10

// CheckoutEventEmitter fans paid checkouts out to the partner dashboards
// watching each campaign.
type CheckoutEventEmitter struct {
	mu      sync.RWMutex
	clients map[string][]chan models.OrderEvent
}

func NewCheckoutEventEmitter() *CheckoutEventEmitter {
	return &CheckoutEventEmitter{
		clients: make(map[string][]chan models.OrderEvent),
	}
}

// Subscribe registers a client for a campaign. The channel is closed once
// ctx is done.
func (e *CheckoutEventEmitter) Subscribe(ctx context.Context, campaignID string) <-chan models.OrderEvent {
	clientChan := make(chan models.OrderEvent, clientBuffer)

	e.mu.Lock()
	e.clients[campaignID] = append(e.clients[campaignID], clientChan)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(campaignID, clientChan)
	}()

	return clientChan
}

// EmitPaidCheckout broadcasts a paid order to the campaign's subscribers.
// Slow clients miss events rather than block the webhook.
func (e *CheckoutEventEmitter) EmitPaidCheckout(event models.OrderEvent) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, clientChan := range e.clients[event.CampaignID] {
		select {
		case clientChan <- event:
		default:
		}
	}
}

func (e *CheckoutEventEmitter) remove(campaignID string, clientChan chan models.OrderEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[campaignID]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[campaignID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}
	if len(e.clients[campaignID]) == 0 {
		delete(e.clients, campaignID)
	}
}

// ClientCount returns the number of clients watching a campaign.
func (e *CheckoutEventEmitter) ClientCount(campaignID string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[campaignID])
}
