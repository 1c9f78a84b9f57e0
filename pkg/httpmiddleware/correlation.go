package httpmiddleware

import (
	"net/http"

	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// CorrelationID middleware ensures every request carries a correlation ID.
// A valid UUID sent by the widget is kept so browser and server logs line up;
// anything else is replaced. The ID is echoed on the response.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, correlationID := logger.EnsureHTTPCorrelationID(r)
			w.Header().Set(logger.CorrelationIDHeader, correlationID)
			next.ServeHTTP(w, r)
		})
	}
}
