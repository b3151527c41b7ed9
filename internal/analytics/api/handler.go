package analytics_api

import (
	"context"
	"fmt"
	"net/http"

	"ms-booking/internal/analytics"
	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

// OwnershipChecker loads a campaign only when the partner owns it.
type OwnershipChecker interface {
	Owned(ctx context.Context, ownerID, campaignID string) (*models.Campaign, error)
}

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service   *analytics.Service
	Campaigns OwnershipChecker
	Logger    *logger.Logger
}

func NewHandler(service *analytics.Service, campaigns OwnershipChecker, logger *logger.Logger) *Handler {
	return &Handler{
		Service:   service,
		Campaigns: campaigns,
		Logger:    logger,
	}
}

// RegisterRoutes registers the analytics routes on a partner-only router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.GetDashboard)
	r.Get("/campaigns/{campaignId}/sales", h.GetCampaignSales)
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	partnerID := auth.UserID(r.Context())
	if partnerID == "" {
		utils.WriteDomainError(w, models.ErrUnauthenticated)
		return
	}

	dashboard, err := h.Service.GetDashboard(r.Context(), partnerID)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Error getting dashboard for %s: %v", partnerID, err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to get analytics")
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) GetCampaignSales(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignId")
	partnerID := auth.UserID(r.Context())

	if _, err := h.Campaigns.Owned(r.Context(), partnerID, campaignID); err != nil {
		h.Logger.Warn("ANALYTICS", fmt.Sprintf("Sales for campaign %s refused to %s: %v", campaignID, partnerID, err))
		utils.WriteDomainError(w, err)
		return
	}

	sales, err := h.Service.GetCampaignSales(r.Context(), campaignID)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Error getting sales for campaign %s: %v", campaignID, err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to get analytics")
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, sales)
}
