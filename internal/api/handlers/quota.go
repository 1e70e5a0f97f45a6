package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/card-price-tracker/internal/ebay"
)

// QuotaHandler exposes rate limiter and backoff state.
type QuotaHandler struct {
	ctrl *ebay.Controller
	sync ebay.QuotaSyncer
}

// NewQuotaHandler creates a new QuotaHandler. sync may be nil.
func NewQuotaHandler(ctrl *ebay.Controller, sync ebay.QuotaSyncer) *QuotaHandler {
	return &QuotaHandler{ctrl: ctrl, sync: sync}
}

// QuotaInput selects whether to refresh from the Analytics API first.
type QuotaInput struct {
	Refresh bool `query:"refresh" doc:"Sync the Browse counter from the eBay Analytics API before answering"`
}

// QuotaOutput is the response body for the quota endpoint.
type QuotaOutput struct {
	Body struct {
		Limiters []ebay.LimiterState `json:"limiters" doc:"Per-upstream limiter and backoff state"`
		Synced   bool                `json:"synced"   doc:"Whether the Browse counter was refreshed for this response"`
	}
}

// GetQuota returns per-key limiter state. A failed refresh is reported as
// synced=false rather than an error; the local counters are still useful.
func (h *QuotaHandler) GetQuota(ctx context.Context, input *QuotaInput) (*QuotaOutput, error) {
	resp := &QuotaOutput{}
	resp.Body.Limiters = []ebay.LimiterState{}
	if h.ctrl == nil {
		return resp, nil
	}

	if input.Refresh && h.sync != nil {
		if _, err := h.sync.SyncBrowseQuota(ctx, h.ctrl); err == nil {
			resp.Body.Synced = true
		}
	}

	resp.Body.Limiters = h.ctrl.Snapshots()
	return resp, nil
}

// RegisterQuotaRoutes registers the quota endpoint with the Huma API.
func RegisterQuotaRoutes(api huma.API, h *QuotaHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-quota",
		Method:      http.MethodGet,
		Path:        "/api/v1/quota",
		Summary:     "Get upstream quota and backoff state",
		Description: "Returns daily usage, consecutive errors and any active backoff window for each upstream.",
		Tags:        []string{"ebay"},
	}, h.GetQuota)
}
