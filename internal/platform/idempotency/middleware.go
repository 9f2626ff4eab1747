package idempotency

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jardindethes/storefront-api/internal/platform/httpx"
	"github.com/jardindethes/storefront-api/internal/platform/requestctx"
)

// HeaderKey is the request header carrying the client idempotency key.
const HeaderKey = "Idempotency-Key"

const maxFingerprintBody = 64 * 1024

// MiddlewareConfig tunes the idempotency middleware.
type MiddlewareConfig struct {
	Store Store
	TTL   time.Duration
	Clock func() time.Time
}

// Middleware replays stored responses for repeated mutation requests carrying
// the same Idempotency-Key. Requests without the header pass through
// untouched. Only successful JSON responses are stored; failures release the
// key so the client can retry.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(HeaderKey))
			if cfg.Store == nil || key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()

			body, err := io.ReadAll(io.LimitReader(r.Body, maxFingerprintBody))
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "failed to read request body", http.StatusBadRequest))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := Fingerprint(r.Method, r.URL.Path, requestctx.SessionID(ctx), string(body))

			reservation, err := cfg.Store.Reserve(ctx, key, fingerprint, cfg.Clock(), cfg.TTL)
			if err != nil {
				if errors.Is(err, ErrFingerprintMismatch) {
					httpx.WriteError(ctx, w, httpx.NewError("idempotency_key_reused", "idempotency key was used for a different request", http.StatusUnprocessableEntity))
					return
				}
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_unavailable", "idempotency store is unavailable", http.StatusServiceUnavailable))
				return
			}

			switch reservation.State {
			case ReservationCompleted:
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set(HeaderKey, key)
				w.WriteHeader(reservation.Record.ResponseStatus)
				_, _ = w.Write(reservation.Record.ResponseBody)
				return
			case ReservationPending:
				httpx.WriteError(ctx, w, httpx.NewError("request_in_flight", "a request with this idempotency key is still processing", http.StatusConflict))
				return
			}

			recorder := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			if recorder.status >= 200 && recorder.status < 300 {
				_ = cfg.Store.SaveResponse(ctx, key, fingerprint, recorder.status, recorder.body.Bytes(), cfg.Clock(), cfg.TTL)
				return
			}
			_ = cfg.Store.Release(ctx, key)
		})
	}
}

type captureWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	w.body.Write(p)
	return w.ResponseWriter.Write(p)
}
