package order_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/sse"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

const keepAliveInterval = 25 * time.Second

// CampaignOwnership loads a campaign only for its owner.
type CampaignOwnership interface {
	Owned(ctx context.Context, ownerID, campaignID string) (*models.Campaign, error)
}

// SSEHandler manages Server-Sent Events endpoints for checkout events
type SSEHandler struct {
	Logger       *logger.Logger
	EventEmitter *sse.CheckoutEventEmitter
	Campaigns    CampaignOwnership
}

func NewSSEHandler(logger *logger.Logger, emitter *sse.CheckoutEventEmitter, campaigns CampaignOwnership) *SSEHandler {
	return &SSEHandler{
		Logger:       logger,
		EventEmitter: emitter,
		Campaigns:    campaigns,
	}
}

// RegisterRoutes mounts the stream on a partner-only router.
func (h *SSEHandler) RegisterRoutes(r chi.Router) {
	r.Get("/campaigns/{campaignId}/checkouts/stream", h.HandleCampaignCheckouts)
}

// HandleCampaignCheckouts streams paid checkouts for one campaign.
func (h *SSEHandler) HandleCampaignCheckouts(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignId")
	partnerID := auth.UserID(r.Context())

	if _, err := h.Campaigns.Owned(r.Context(), partnerID, campaignID); err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Campaign access verification failed: %v", err))
		utils.WriteDomainError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	h.setupSSEHeaders(w)

	ctx := r.Context()
	eventChan := h.EventEmitter.Subscribe(ctx, campaignID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"campaignId\":\"%s\"}\n\n", campaignID)
	flusher.Flush()
	h.Logger.Info("SSE", fmt.Sprintf("Client connected to checkout events for campaign: %s", campaignID))

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Channel closed for campaign: %s", campaignID))
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize checkout event: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: checkout\ndata: %s\n\n", jsonData)
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from checkout events for: %s", campaignID))
			return
		}
	}
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
