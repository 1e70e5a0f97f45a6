package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/card-price-tracker/internal/ebay"
)

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	tokens  ebay.TokenProvider
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. Readiness requires a bearer
// token from tokens.
func NewHealthHandler(tokens ebay.TokenProvider) *HealthHandler {
	return &HealthHandler{tokens: tokens, timeout: 5 * time.Second}
}

// Healthz returns 200 if the process is running.
//
// @Summary Liveness check
// @Description Returns 200 if the process is running.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /healthz [get]
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 200 when marketplace credentials are configured and a token
// can be obtained, 503 otherwise.
//
// @Summary Readiness check
// @Description Returns 200 when a marketplace token can be obtained, 503 otherwise.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 503 {object} StatusResponse
// @Router /readyz [get]
func (h *HealthHandler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if h.tokens == nil {
		return c.JSON(http.StatusServiceUnavailable, StatusResponse{Status: "unconfigured"})
	}
	if _, err := h.tokens.Token(ctx); err != nil {
		status := "unavailable"
		if ebay.IsConfigError(err) {
			status = "unconfigured"
		}
		return c.JSON(http.StatusServiceUnavailable, StatusResponse{Status: status})
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
}

// RegisterHealthRoutes mounts the probes on e, outside the huma API.
func RegisterHealthRoutes(e *echo.Echo, h *HealthHandler) {
	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)
}
