package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"dawaam/internal/platform/idempotency"
	"dawaam/internal/transport/http/api"
)

const idempotencyHeader = "Idempotency-Key"

type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a request carries an
// Idempotency-Key header already completed by the same account on the
// same endpoint. Requests without the header pass straight through.
func Idempotency(store *idempotency.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyHeader)
			if key == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			account, ok := GetAccount(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			endpoint := r.Method + " " + r.URL.Path

			rec, err := store.Claim(r.Context(), account.AccountID, endpoint, key)
			if err != nil {
				if errors.Is(err, idempotency.ErrInFlight) {
					api.Fail(w, http.StatusConflict, "conflict", "a request with this idempotency key is still processing", GetRequestID(r.Context()))
					return
				}
				slog.Warn("idempotency claim failed, proceeding without replay", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if rec != nil {
				if rec.ContentType != "" {
					w.Header().Set("Content-Type", rec.ContentType)
				}
				w.Header().Set("Idempotency-Replayed", "true")
				w.WriteHeader(rec.StatusCode)
				_, _ = w.Write(rec.Body)
				return
			}

			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(cw, r)

			if cw.status >= http.StatusInternalServerError {
				if err := store.Release(r.Context(), account.AccountID, endpoint, key); err != nil {
					slog.Warn("idempotency release failed", "error", err)
				}
				return
			}
			if err := store.Complete(r.Context(), account.AccountID, endpoint, key, cw.status, cw.Header().Get("Content-Type"), cw.buf.Bytes()); err != nil {
				slog.Warn("idempotency complete failed", "error", err)
			}
		})
	}
}
