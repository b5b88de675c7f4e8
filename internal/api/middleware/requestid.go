package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id between client and server.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = contextKey("request_id")

// maxInboundIDLength bounds inbound correlation ids; anything longer is
// replaced with a fresh one.
const maxInboundIDLength = 64

// RequestID assigns each request a correlation id. An inbound X-Request-ID
// within the length bound is honored, otherwise a UUID is minted. The id is
// echoed on the response and stored in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxInboundIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the request's correlation id, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
