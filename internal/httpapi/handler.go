// Package httpapi implements the HTTP surface of the matcher service.
//
// Routes:
//
//	POST /matching/run                       → trigger one matching pass now
//	GET  /matching/status                    → stats of the most recent pass
//	GET  /recommendations/{subscriberId}     → profile-scored job ranking
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/start-upps/birjobBackend-sub001/internal/engine"
	"github.com/start-upps/birjobBackend-sub001/internal/recommend"
	"github.com/start-upps/birjobBackend-sub001/internal/store"
)

const maxRecommendLimit = 100

// Handler holds shared dependencies.
//
// runCtx outlives individual requests: a triggered pass keeps running after
// the 202 response is written, so it must not inherit the request context.
type Handler struct {
	engine      *engine.Engine
	recommender *recommend.Recommender
	runCtx      context.Context
}

// NewHandler returns a configured Handler. runCtx is the process-lifetime
// context passes are run under.
func NewHandler(runCtx context.Context, eng *engine.Engine, rec *recommend.Recommender) *Handler {
	return &Handler{engine: eng, recommender: rec, runCtx: runCtx}
}

// RegisterRoutes mounts all matcher-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/matching/run", h.handleRun)
	mux.HandleFunc("/matching/status", h.handleStatus)
	mux.HandleFunc("/recommendations/", h.handleRecommendations)
}

// handleRun handles POST /matching/run. Safe to call at any time: if a pass
// is already in flight the request coalesces with it.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.engine.Running() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already running"})
		return
	}

	go func() {
		if err := h.engine.Process(h.runCtx); err != nil && !errors.Is(err, engine.ErrPassInFlight) {
			log.Printf("[httpapi] triggered pass failed: %v", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// handleStatus handles GET /matching/status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, ok := h.engine.LastPass()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"running": h.engine.Running()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"running":  h.engine.Running(),
		"lastPass": stats,
	})
}

// handleRecommendations handles GET /recommendations/{subscriberId}?limit=N.
func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	subscriberID := strings.TrimPrefix(r.URL.Path, "/recommendations/")
	if subscriberID == "" || strings.Contains(subscriberID, "/") {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}

	limit := recommend.DefaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		if v > maxRecommendLimit {
			v = maxRecommendLimit
		}
		limit = v
	}

	recs, err := h.recommender.Recommend(r.Context(), subscriberID, limit)
	if err != nil {
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			jsonError(w, "subscription not found", http.StatusNotFound)
			return
		}
		log.Printf("[httpapi] recommendations error for %s: %v", subscriberID, err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subscriberId":    subscriberID,
		"recommendations": recs,
		"total":           len(recs),
	})
}

// ─── JSON helpers ────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[httpapi] response encode error: %v", err)
	}
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
