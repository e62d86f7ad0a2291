// Reload HTTP handlers.
//
// This file exposes the operator-facing ingestion triggers:
//   - POST /providers/{name}/reload  (one provider)
//   - POST /reload                   (all providers)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous reload
// trigger with the same key already completed for the provider, the handler
// acknowledges without starting a new cycle and sets
// `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/homefeed/go-listing-backend/internal/domain"
	"github.com/homefeed/go-listing-backend/internal/repo"
	"github.com/homefeed/go-listing-backend/internal/services"
)

// ReloadResponse wraps the outcome of one provider's reload cycle.
type ReloadResponse struct {
	Provider    string `json:"provider"`
	Status      string `json:"status"`
	Inserted    int    `json:"inserted"`
	Updated     int    `json:"updated"`
	Unchanged   int    `json:"unchanged"`
	Retired     int64  `json:"retired"`
	ParseErrors int    `json:"parse_errors"`
	DurationMS  int64  `json:"duration_ms"`
}

// ReloadAllResponse wraps the per-provider outcomes of a full reload.
type ReloadAllResponse struct {
	Results []ReloadResponse `json:"results"`
}

func toReloadResponse(r *services.ReloadResult) ReloadResponse {
	return ReloadResponse{
		Provider:    r.Provider,
		Status:      r.Status,
		Inserted:    r.Inserted,
		Updated:     r.Updated,
		Unchanged:   r.Unchanged,
		Retired:     r.Retired,
		ParseErrors: r.ParseErrors,
		DurationMS:  r.Duration.Milliseconds(),
	}
}

// ReloadProvider godoc
// @ID          reloadProvider
// @Summary     Trigger a reload for one provider
// @Description Fetches the provider's feed, ingests it, and retires listings that went missing. Supports idempotency via the Idempotency-Key header.
// @Tags        Reload
// @Produce     json
//
// @Param       name             path    string  true  "Provider name"  example(acme)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
//
// @Success     200  {object} handlers.ReloadResponse
// @Failure     404  {object} handlers.ErrorResponse "Provider not found"
// @Failure     409  {object} handlers.ErrorResponse "Reload already in progress"
// @Failure     502  {object} handlers.ErrorResponse "Reload failed"
// @Router      /providers/{name}/reload [post]
func (h *Handlers) ReloadProvider(c *gin.Context) {
	ctx := c.Request.Context()
	name := strings.TrimSpace(c.Param("name"))

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middlewareGetIdempotencyKey(c)
	svc, hasDB := h.reloadSvc.(*services.ReloadService)
	if idemKey != "" && hasDB {
		if rec, err := repo.GetIdempotency(ctx, svc.DB, name, idemKey, time.Now().UTC()); err == nil && rec != nil {
			c.Header("Idempotency-Replayed", "true")
			ok(c, rec.Status, gin.H{"provider": name, "replayed": true})
			return
		}
	}

	res, err := h.reloadSvc.Reload(ctx, name)
	switch {
	case errors.Is(err, services.ErrProviderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "provider not found")
		return
	case errors.Is(err, services.ErrReloadBusy):
		fail(c, http.StatusConflict, ErrCodeConflict, "reload already in progress")
		return
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodeReloadFailed, err.Error())
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && hasDB && res.Status != domain.ReloadFailed {
		ttl := h.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		_, _ = repo.CreateIdempotency(ctx, svc.DB, name, idemKey, http.StatusOK, ttl)
	}
	ok(c, http.StatusOK, toReloadResponse(res))
}

// ReloadAll godoc
// @ID          reloadAll
// @Summary     Trigger a reload for every provider
// @Description Runs a reload cycle for every configured provider with bounded concurrency and reports per-provider outcomes.
// @Tags        Reload
// @Produce     json
//
// @Success     200  {object} handlers.ReloadAllResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /reload [post]
func (h *Handlers) ReloadAll(c *gin.Context) {
	results, err := h.reloadSvc.ReloadAll(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeReloadFailed, err.Error())
		return
	}
	resp := ReloadAllResponse{Results: make([]ReloadResponse, 0, len(results))}
	for i := range results {
		resp.Results = append(resp.Results, toReloadResponse(&results[i]))
	}
	ok(c, http.StatusOK, resp)
}

// middlewareGetIdempotencyKey extracts an idempotency key if an upstream
// middleware stashed one; it degrades gracefully to reading the
// "Idempotency-Key" header directly when no dedicated middleware exists.
func middlewareGetIdempotencyKey(c *gin.Context) (string, bool) {
	if v := strings.TrimSpace(c.GetHeader("Idempotency-Key")); v != "" {
		return v, true
	}
	return "", false
}
