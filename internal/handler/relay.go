package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/protanvir/runners-bd/internal/strava"
)

// Relay CORS headers, sent on every response including errors.
const (
	relayAllowOrigin  = "*"
	relayAllowHeaders = "authorization, x-client-info, apikey, content-type"
)

// TokenExchanger swaps a grant for a token response.
type TokenExchanger interface {
	Exchange(ctx context.Context, g strava.Grant) (json.RawMessage, error)
}

// RelayHandler is the token relay. It holds the Strava client credentials
// so the browser never does; it stores nothing and never retries.
//
// CONTRACT:
//
//	OPTIONS                       → 200 "ok"
//	POST {"code": "..."}          → 200 upstream JSON, verbatim
//	POST {"refresh_token": "..."} → 200 upstream JSON, verbatim
//	anything else or any failure  → 400 {"error": "<message>"}
type RelayHandler struct {
	exchanger TokenExchanger
	logger    *slog.Logger
}

// NewRelayHandler creates a RelayHandler. A nil exchanger answers every
// POST with a configuration error.
func NewRelayHandler(exchanger TokenExchanger, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{exchanger: exchanger, logger: logger}
}

// HTTP: OPTIONS|POST /functions/strava-auth
func (h *RelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", relayAllowOrigin)
	w.Header().Set("Access-Control-Allow-Headers", relayAllowHeaders)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
		return
	}

	var g strava.Grant
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&g); err != nil {
		h.fail(w, "Invalid JSON body")
		return
	}
	if err := g.Validate(); err != nil {
		h.fail(w, err.Error())
		return
	}
	if h.exchanger == nil {
		h.fail(w, "Strava credentials not configured")
		return
	}

	raw, err := h.exchanger.Exchange(r.Context(), g)
	if err != nil {
		h.logger.Warn("relay: token exchange failed", slog.String("error", err.Error()))
		h.fail(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

func (h *RelayHandler) fail(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}
