package middleware

import (
	"context"
	"net/http"
	"time"

	"ms-booking/internal/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/lithammer/shortuuid/v3"
)

const HeaderCorrelationID = "X-Correlation-ID"

type ctxKey int

const correlationIDKey ctxKey = iota

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func CorrelationIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		return v
	}
	return ""
}

// Correlation tags each request with a correlation id, taken from the
// incoming header or generated, echoes it back and writes one access log
// line per request.
func Correlation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			correlationID := r.Header.Get(HeaderCorrelationID)
			if correlationID == "" {
				correlationID = "gen_" + shortuuid.New()
			}
			w.Header().Set(HeaderCorrelationID, correlationID)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ContextWithCorrelationID(r.Context(), correlationID)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, status, time.Since(start), correlationID)
		})
	}
}
