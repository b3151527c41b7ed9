package order_api

import (
	"errors"
	"fmt"
	"net/http"

	"ms-booking/internal/order"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

// RegisterWebhookRoutes mounts the gateway callback, which carries no user
// token.
func (h *Handler) RegisterWebhookRoutes(r chi.Router) {
	r.Post("/payment/notification", h.MidtransWebhook)
}

type webhookAck struct {
	Status  string `json:"status"`
	Outcome string `json:"outcome,omitempty"`
}

// MidtransWebhook answers 200 for every handled or deliberately ignored
// notification and a non-2xx status only when a redelivery could help.
func (h *Handler) MidtransWebhook(w http.ResponseWriter, r *http.Request) {
	result, err := h.OrderService.HandleMidtransWebhook(r)
	if err != nil {
		var webhookErr *order.WebhookError
		if errors.As(err, &webhookErr) {
			h.Logger.Error("WEBHOOK", fmt.Sprintf("category=%s status=%d: %s",
				webhookErr.Category, webhookErr.StatusCode, webhookErr.InternalError))
			utils.WriteError(w, webhookErr.StatusCode, webhookErr.PublicError)
			return
		}

		h.Logger.Error("WEBHOOK", fmt.Sprintf("unexpected failure: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Webhook processing error")
		return
	}

	h.Logger.Info("WEBHOOK", fmt.Sprintf("ref=%s order=%s outcome=%s", result.TransactionRef, result.OrderID, result.Outcome))
	_ = utils.WriteJSON(w, http.StatusOK, webhookAck{Status: "ok", Outcome: string(result.Outcome)})
}
