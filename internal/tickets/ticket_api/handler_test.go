package ticket_api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/order"
	kafkapub "ms-booking/internal/order/kafka"
	"ms-booking/internal/storage"
	"ms-booking/internal/storage/storagetest"
	tickets "ms-booking/internal/tickets"
	"ms-booking/internal/tickets/ticket_api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(store storage.Store, identity *auth.Identity) http.Handler {
	log := logger.NewDiscard()
	orders := order.NewOrderService(store, nil, kafkapub.NopPublisher{}, log)
	h := ticket_api.NewHandler(tickets.NewTicketService(orders, store), orders, log)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithIdentity(req.Context(), identity)))
		})
	})
	h.RegisterBuyerRoutes(r)
	r.Route("/partner", h.RegisterPartnerRoutes)
	return r
}

func TestTicketQROnlyForPaidOrders(t *testing.T) {
	store, _ := storagetest.NewStore(t)
	c := storagetest.SeedCampaign(t, store, "partner-1", 5, 1000)
	paid := storagetest.SeedOrder(t, store, c, "buyer-1", models.OrderStatusSuccess)
	pending := storagetest.SeedOrder(t, store, c, "buyer-1", models.OrderStatusPending)
	buyer := newRouter(store, &auth.Identity{UserID: "buyer-1", Role: auth.RoleUser})

	rec := httptest.NewRecorder()
	buyer.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+paid.ID+"/ticket", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = httptest.NewRecorder()
	buyer.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+pending.ID+"/ticket", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	stranger := newRouter(store, &auth.Identity{UserID: "buyer-2", Role: auth.RoleUser})
	rec = httptest.NewRecorder()
	stranger.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+paid.ID+"/ticket", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTicketPDF(t *testing.T) {
	store, _ := storagetest.NewStore(t)
	c := storagetest.SeedCampaign(t, store, "partner-1", 5, 1000)
	paid := storagetest.SeedOrder(t, store, c, "buyer-1", models.OrderStatusSuccess)

	rec := httptest.NewRecorder()
	newRouter(store, &auth.Identity{UserID: "buyer-1"}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+paid.ID+"/ticket.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}

func TestPartnerVerifiesTicket(t *testing.T) {
	store, _ := storagetest.NewStore(t)
	c := storagetest.SeedCampaign(t, store, "partner-1", 5, 1000)
	paid := storagetest.SeedOrder(t, store, c, "buyer-1", models.OrderStatusSuccess)

	rec := httptest.NewRecorder()
	newRouter(store, &auth.Identity{UserID: "partner-1", Role: auth.RolePartner}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/partner/tickets/"+paid.ID+"/verify", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ticket_api.VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, "buyer-1", resp.BuyerID)
	assert.Equal(t, c.Name, resp.CampaignName)

	rec = httptest.NewRecorder()
	newRouter(store, &auth.Identity{UserID: "partner-2", Role: auth.RolePartner}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/partner/tickets/"+paid.ID+"/verify", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
