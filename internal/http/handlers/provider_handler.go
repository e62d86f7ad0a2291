// Provider HTTP handlers.
//
// This file exposes the provider status endpoints:
//   - GET /providers         (all configured providers)
//   - GET /providers/{name}  (one provider)
//
// The status view merges static configuration with persisted reload state
// and listing population counts.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/homefeed/go-listing-backend/internal/services"
)

// ListProvidersResponse wraps the health view of every configured provider.
type ListProvidersResponse struct {
	Providers []services.ProviderStatus `json:"providers"`
}

// ListProviders godoc
// @ID          listProviders
// @Summary     List provider status
// @Description Returns configuration, listing population, and reload health for every configured provider.
// @Tags        Providers
// @Produce     json
//
// @Success     200  {object} handlers.ListProvidersResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /providers [get]
func (h *Handlers) ListProviders(c *gin.Context) {
	providers, err := h.providerSvc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatusFailed, err.Error())
		return
	}
	if providers == nil {
		providers = []services.ProviderStatus{}
	}
	ok(c, http.StatusOK, ListProvidersResponse{Providers: providers})
}

// GetProvider godoc
// @ID          getProvider
// @Summary     Get one provider's status
// @Description Returns configuration, listing population, and reload health for one configured provider.
// @Tags        Providers
// @Produce     json
//
// @Param       name  path  string  true "Provider name"  example(acme)
//
// @Success     200  {object} services.ProviderStatus
// @Failure     404  {object} handlers.ErrorResponse "Provider not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /providers/{name} [get]
func (h *Handlers) GetProvider(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	st, err := h.providerSvc.Status(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrProviderNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "provider not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeStatusFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}
