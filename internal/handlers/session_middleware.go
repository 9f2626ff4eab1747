package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jardindethes/storefront-api/internal/platform/httpx"
	"github.com/jardindethes/storefront-api/internal/platform/requestctx"
)

// DefaultSessionHeader carries the storefront session identity.
const DefaultSessionHeader = "X-Session-ID"

const maxSessionIDLength = 128

// RequireSession ensures a session id header is present and stashes it in the
// request context for handlers and the request logger.
func RequireSession(header string) func(http.Handler) http.Handler {
	if strings.TrimSpace(header) == "" {
		header = DefaultSessionHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(header))
			if sessionID == "" {
				httpx.WriteError(r.Context(), w, httpx.NewError("session_required", header+" header is required", http.StatusBadRequest))
				return
			}
			if len(sessionID) > maxSessionIDLength {
				httpx.WriteError(r.Context(), w, httpx.NewError("session_invalid", "session id is too long", http.StatusBadRequest))
				return
			}
			ctx := requestctx.WithSessionID(r.Context(), sessionID)
			ctx = requestctx.WithLogger(ctx, requestctx.Logger(ctx).With(zap.String("session_id", sessionID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionID(r *http.Request) string {
	return requestctx.SessionID(r.Context())
}
