package order_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/order"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	maxBodyBytes         = 1 << 20
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, logger *logger.Logger) *Handler {
	return &Handler{
		OrderService: orderService,
		Logger:       logger,
	}
}

// RegisterRoutes mounts the buyer endpoints on an authenticated router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/checkout", h.Checkout)
	r.Post("/payment/create", h.CreatePaymentToken)
	r.Post("/create-token", h.CreatePaymentToken)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{orderId}", h.GetOrder)
}

// checkoutError carries the order id when the order exists but no token
// could be issued, so the client can retry through the token endpoint.
type checkoutError struct {
	Error   string `json:"error"`
	OrderID string `json:"order_id,omitempty"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Checkout: failed to decode request body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.CampaignID == "" {
		utils.WriteError(w, http.StatusBadRequest, "campaignId is required")
		return
	}

	buyerID := auth.UserID(r.Context())
	resp, err := h.OrderService.Checkout(r.Context(), buyerID, req, r.Header.Get(HeaderIdempotencyKey))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Checkout: campaign=%s buyer=%s: %v", req.CampaignID, buyerID, err))
		body := checkoutError{Error: utils.PublicMessage(err)}
		if resp != nil {
			body.OrderID = resp.OrderID
		}
		_ = utils.WriteJSON(w, utils.StatusFor(err), body)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("Checkout: order %s created for campaign %s", resp.OrderID, req.CampaignID))
	_ = utils.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) CreatePaymentToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.OrderID == "" {
		utils.WriteError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	resp, err := h.OrderService.IssueToken(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreatePaymentToken: order=%s: %v", req.OrderID, err))
		utils.WriteDomainError(w, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.ListOrders(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListOrders: %v", err))
		utils.WriteDomainError(w, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	o, err := h.OrderService.GetOrder(r.Context(), auth.UserID(r.Context()), orderID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.Logger.Warn("API", fmt.Sprintf("GetOrder: order=%s: %v", orderID, err))
		}
		utils.WriteDomainError(w, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, o)
}
