package campaign_api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ms-booking/internal/auth"
	"ms-booking/internal/campaign"
	"ms-booking/internal/campaign/campaign_api"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/storage"
	"ms-booking/internal/storage/storagetest"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, store storage.Store, partnerID string) http.Handler {
	t.Helper()
	log := logger.NewDiscard()
	h := campaign_api.NewHandler(campaign.NewCampaignService(store, log), log)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterPublicRoutes(r)
		r.Route("/partner", func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					ctx := auth.WithIdentity(req.Context(), &auth.Identity{UserID: partnerID, Role: auth.RolePartner})
					next.ServeHTTP(w, req.WithContext(ctx))
				})
			})
			h.RegisterPartnerRoutes(r)
		})
	})
	return r
}

func TestCreateThenBrowse(t *testing.T) {
	store, _ := storagetest.NewStore(t)
	router := newRouter(t, store, "partner-1")

	body := `{"campaign_name":"Jazz Night","date":"2026-12-01","time":"19:30","seats":50,"price":"150000"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/partner/campaigns", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "partner-1", created.OwnerID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/campaigns/"+created.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/campaigns", nil))
	var list []models.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	store, _ := storagetest.NewStore(t)
	router := newRouter(t, store, "partner-1")

	body := `{"campaign_name":"Jazz Night","date":"tomorrow","time":"19:30","seats":-1,"price":"1"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/partner/campaigns", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "date must be YYYY-MM-DD")
}

func TestDeleteWithPaidOrdersConflicts(t *testing.T) {
	store, _ := storagetest.NewStore(t)
	c := storagetest.SeedCampaign(t, store, "partner-1", 5, 1000)
	storagetest.SeedOrder(t, store, c, "buyer-1", models.OrderStatusSuccess)

	rec := httptest.NewRecorder()
	newRouter(t, store, "partner-1").ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/partner/campaigns/"+c.ID, nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	newRouter(t, store, "partner-2").ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/partner/campaigns/"+c.ID, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUnknownCampaignIs404(t *testing.T) {
	store, _ := storagetest.NewStore(t)
	rec := httptest.NewRecorder()
	newRouter(t, store, "partner-1").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/campaigns/not-a-uuid", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"campaign \"not-a-uuid\": not found"}`, rec.Body.String())
}
