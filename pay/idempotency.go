package pay

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ticketbari/apperr"
	"ticketbari/logger"
	"ticketbari/models"
	"ticketbari/utils"

	"github.com/julienschmidt/httprouter"
)

const IdempotencyHeader = "Idempotency-Key"

type IdempotencyStore interface {
	// Reserve fails with apperr.ErrDuplicate when the key is already taken.
	Reserve(ctx context.Context, rec models.IdempotencyRecord) error
	Find(ctx context.Context, key string) (models.IdempotencyRecord, error)
	Complete(ctx context.Context, key string, status int, contentType string, body []byte) error
	Release(ctx context.Context, key string) error
}

func computeRequestHash(r *http.Request, body []byte, principal string) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":" + principal + ":"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// CaptureResponseWriter tees the response so it can be stored for replay.
type CaptureResponseWriter struct {
	w           http.ResponseWriter
	statusCode  int
	buf         bytes.Buffer
	wroteHeader bool
}

func NewCaptureResponseWriter(w http.ResponseWriter) *CaptureResponseWriter {
	return &CaptureResponseWriter{w: w, statusCode: http.StatusOK}
}

func (c *CaptureResponseWriter) Header() http.Header { return c.w.Header() }

func (c *CaptureResponseWriter) WriteHeader(statusCode int) {
	if !c.wroteHeader {
		c.statusCode = statusCode
		c.w.WriteHeader(statusCode)
		c.wroteHeader = true
	}
}

func (c *CaptureResponseWriter) Write(b []byte) (int, error) {
	c.buf.Write(b)
	return c.w.Write(b)
}

// Idempotent replays the stored response when a client retries a mutating
// request with the same Idempotency-Key. Without the header it passes through.
//
//   - first use of a key: the handler runs and a non-5xx response is stored
//   - same key, same request: the stored response is written again
//   - same key, different request: 409
//   - same key while the first request is still running: 429 please retry
func Idempotent(store IdempotencyStore, ttl time.Duration) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			header := r.Header.Get(IdempotencyHeader)
			if header == "" {
				next(w, r, ps)
				return
			}

			principal := utils.GetPrincipalEmail(r)
			body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
			if err != nil {
				utils.RespondWithError(w, r, fmt.Errorf("read body: %v: %w", err, apperr.ErrValidation))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			ctx := r.Context()
			key := principal + "|" + header
			reqHash := computeRequestHash(r, body, principal)
			now := time.Now().UTC()
			err = store.Reserve(ctx, models.IdempotencyRecord{
				Key:         key,
				Method:      r.Method,
				Path:        r.URL.Path,
				Principal:   principal,
				RequestHash: reqHash,
				CreatedAt:   now,
				ExpiresAt:   now.Add(ttl),
			})
			if err == nil {
				crw := NewCaptureResponseWriter(w)
				next(crw, r, ps)
				// the client may have gone away; the bookkeeping must still land
				bg := context.WithoutCancel(ctx)
				if crw.statusCode >= http.StatusInternalServerError {
					if err := store.Release(bg, key); err != nil {
						logger.WithCtx(ctx).Error("idempotency key not released; retries get 409 until it expires",
							"key", header, "err", err)
					}
					return
				}
				if err := store.Complete(bg, key, crw.statusCode, w.Header().Get("Content-Type"), crw.buf.Bytes()); err != nil {
					logger.WithCtx(ctx).Warn("idempotency record not saved", "key", header, "err", err)
				}
				return
			}
			if !errors.Is(err, apperr.ErrDuplicate) {
				utils.RespondWithError(w, r, err)
				return
			}

			existing, err := store.Find(ctx, key)
			if err != nil {
				utils.RespondWithError(w, r, err)
				return
			}
			switch {
			case existing.RequestHash != reqHash:
				utils.RespondWithJSON(w, http.StatusConflict, utils.M{"error": "idempotency-key conflict"})
			case !existing.Completed:
				utils.RespondWithError(w, r, apperr.ErrBusy)
			default:
				if existing.ContentType != "" {
					w.Header().Set("Content-Type", existing.ContentType)
				}
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(existing.Status)
				_, _ = w.Write(existing.Body)
			}
		}
	}
}
