package campaign_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-booking/internal/auth"
	"ms-booking/internal/campaign"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	Service *campaign.CampaignService
	Logger  *logger.Logger
}

func NewHandler(service *campaign.CampaignService, logger *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: logger}
}

// RegisterPublicRoutes mounts the browse endpoints.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/campaigns", h.ListCampaigns)
	r.Get("/campaigns/{campaignId}", h.GetCampaign)
}

// RegisterPartnerRoutes mounts the management endpoints on a partner-only router.
func (h *Handler) RegisterPartnerRoutes(r chi.Router) {
	r.Get("/campaigns", h.ListOwnCampaigns)
	r.Post("/campaigns", h.CreateCampaign)
	r.Put("/campaigns/{campaignId}", h.UpdateCampaign)
	r.Delete("/campaigns/{campaignId}", h.DeleteCampaign)
}

func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Service.ListPublic(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListCampaigns: %v", err))
		utils.WriteDomainError(w, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, campaigns)
}

func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.Get(r.Context(), chi.URLParam(r, "campaignId"))
	if err != nil {
		utils.WriteDomainError(w, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) ListOwnCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Service.ListOwned(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListOwnCampaigns: %v", err))
		utils.WriteDomainError(w, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, campaigns)
}

func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	c, err := h.Service.Create(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateCampaign: %v", err))
		utils.WriteDomainError(w, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	c, err := h.Service.Update(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "campaignId"), req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("UpdateCampaign: %v", err))
		utils.WriteDomainError(w, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "campaignId")); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("DeleteCampaign: %v", err))
		utils.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (models.CampaignRequest, bool) {
	var req models.CampaignRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return req, false
	}
	return req, true
}
