package ticket_api

import (
	"context"
	"fmt"
	"net/http"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	tickets "ms-booking/internal/tickets"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

// TicketVerifier checks a scanned order id on behalf of a partner.
type TicketVerifier interface {
	VerifyTicket(ctx context.Context, partnerID, orderID string) (*models.Order, error)
}

type Handler struct {
	TicketService *tickets.TicketService
	Verifier      TicketVerifier
	Logger        *logger.Logger
}

func NewHandler(ticketService *tickets.TicketService, verifier TicketVerifier, log *logger.Logger) *Handler {
	return &Handler{
		TicketService: ticketService,
		Verifier:      verifier,
		Logger:        log,
	}
}

// VerifyResponse is what the partner scanner shows after a scan.
type VerifyResponse struct {
	Valid        bool               `json:"valid"`
	OrderID      string             `json:"order_id"`
	CampaignID   string             `json:"campaign_id"`
	CampaignName string             `json:"campaign_name"`
	BuyerID      string             `json:"buyer_id"`
	Status       models.OrderStatus `json:"status"`
}

// RegisterBuyerRoutes mounts ticket downloads on an authenticated router.
func (h *Handler) RegisterBuyerRoutes(r chi.Router) {
	r.Get("/orders/{orderId}/ticket", h.ViewTicketQR)
	r.Get("/orders/{orderId}/ticket.pdf", h.DownloadTicketPDF)
}

// RegisterPartnerRoutes mounts the scanner endpoint on a partner-only router.
func (h *Handler) RegisterPartnerRoutes(r chi.Router) {
	r.Get("/tickets/{orderId}/verify", h.VerifyTicket)
}

func (h *Handler) ViewTicketQR(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	png, err := h.TicketService.TicketQR(r.Context(), auth.UserID(r.Context()), orderID)
	if err != nil {
		h.Logger.Warn("TICKET", fmt.Sprintf("QR for order %s refused: %v", orderID, err))
		utils.WriteDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) DownloadTicketPDF(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	pdf, err := h.TicketService.TicketPDF(r.Context(), auth.UserID(r.Context()), orderID)
	if err != nil {
		h.Logger.Warn("TICKET", fmt.Sprintf("PDF for order %s refused: %v", orderID, err))
		utils.WriteDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ticket-%s.pdf"`, orderID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	partnerID := auth.UserID(r.Context())

	order, err := h.Verifier.VerifyTicket(r.Context(), partnerID, orderID)
	if err != nil {
		h.Logger.Warn("TICKET", fmt.Sprintf("Verification of %s by %s failed: %v", orderID, partnerID, err))
		utils.WriteDomainError(w, err)
		return
	}

	resp := VerifyResponse{
		Valid:      true,
		OrderID:    order.ID,
		CampaignID: order.CampaignID,
		BuyerID:    order.UserID,
		Status:     order.Status,
	}
	if order.Campaign != nil {
		resp.CampaignName = order.Campaign.Name
	}
	h.Logger.Info("TICKET", fmt.Sprintf("Ticket %s verified by %s", orderID, partnerID))
	_ = utils.WriteJSON(w, http.StatusOK, resp)
}
