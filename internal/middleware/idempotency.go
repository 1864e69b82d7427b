package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/heritage-ledger/internal/auth"
	"github.com/josh-kwaku/heritage-ledger/internal/handler"
	"github.com/josh-kwaku/heritage-ledger/internal/logging"
	"github.com/josh-kwaku/heritage-ledger/internal/repository"
)

type idempotencyRepository interface {
	Lookup(ctx context.Context, key string, userID uuid.UUID) (*repository.IdempotencyRecord, error)
	Save(ctx context.Context, rec *repository.IdempotencyRecord) error
}

type inFlightLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

const inFlightTTL = 30 * time.Second

// Idempotency replays the stored response for a repeated Idempotency-Key. A
// second request arriving while the first is still running gets 409.
func Idempotency(repo idempotencyRepository, locks inFlightLocker, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			log := logging.FromContext(r.Context())

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				handler.RespondAppError(w, handler.ErrMissingIdempotencyKey, nil)
				return
			}

			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := computeHash(r.Method, r.URL.Path, body)

			cached, err := repo.Lookup(r.Context(), key, userID)
			if err != nil {
				log.Error("idempotency cache lookup failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrServiceUnavailable, nil)
				return
			}
			if cached != nil {
				replay(w, r, cached, reqHash)
				return
			}

			lockKey := "idem:" + userID.String() + ":" + key
			acquired, err := locks.Acquire(r.Context(), lockKey, inFlightTTL)
			if err != nil {
				log.Error("idempotency lock failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrServiceUnavailable, nil)
				return
			}
			if !acquired {
				handler.RespondAppError(w, handler.ErrRequestInFlight, nil)
				return
			}
			defer func() {
				if err := locks.Release(context.WithoutCancel(r.Context()), lockKey); err != nil {
					log.Warn("idempotency lock release failed", "error", err, "idempotency_key", key)
				}
			}()

			// A request holding the lock may have finished between the first
			// lookup and Acquire.
			cached, err = repo.Lookup(r.Context(), key, userID)
			if err != nil {
				log.Error("idempotency cache lookup failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrServiceUnavailable, nil)
				return
			}
			if cached != nil {
				replay(w, r, cached, reqHash)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			// 5xx responses are retryable and never cached.
			if rec.statusCode >= http.StatusInternalServerError {
				return
			}

			now := time.Now().UTC()
			entry := &repository.IdempotencyRecord{
				Key:          key,
				UserID:       userID,
				RequestHash:  reqHash,
				StatusCode:   rec.statusCode,
				ResponseBody: rec.body.Bytes(),
				CreatedAt:    now,
				ExpiresAt:    now.Add(ttl),
			}
			if err := repo.Save(context.WithoutCancel(r.Context()), entry); err != nil {
				log.Error("idempotency cache store failed", "error", err, "idempotency_key", key)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, cached *repository.IdempotencyRecord, reqHash string) {
	if cached.RequestHash != reqHash {
		handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	if _, err := w.Write(cached.ResponseBody); err != nil {
		logging.FromContext(r.Context()).Error("failed to write idempotent replay", "error", err, "idempotency_key", cached.Key)
	}
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
