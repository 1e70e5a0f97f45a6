// Package handlers serves the card lookup API. Lookup, parse and quota are
// huma operations; the probes are plain echo handlers so they stay out of
// the OpenAPI document.
package handlers

// StatusResponse is the body of the probe endpoints: "ok", "ready",
// "unconfigured" or "unavailable".
type StatusResponse struct {
	Status string `json:"status" example:"ready"`
}
