package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/voicetriage/voicetriage/internal/config"
	"github.com/voicetriage/voicetriage/internal/pipeline"
	"github.com/voicetriage/voicetriage/internal/store"
	"github.com/voicetriage/voicetriage/internal/triage"
	"github.com/voicetriage/voicetriage/pkg/logger"
)

// callRegistryTTL bounds how long a call-start entry waits for its
// recording callback.
const callRegistryTTL = time.Hour

// Handler contains the HTTP handlers
type Handler struct {
	pipeline *pipeline.Pipeline
	store    store.Store
	guard    *RecordingGuard
	calls    *callRegistry
	config   *config.Config
	logger   *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(p *pipeline.Pipeline, recordStore store.Store, cfg *config.Config, logger *logger.Logger) *Handler {
	return &Handler{
		pipeline: p,
		store:    recordStore,
		guard:    NewRecordingGuard(),
		calls:    newCallRegistry(callRegistryTTL),
		config:   cfg,
		logger:   logger.Named("api-handler"),
	}
}

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	Data       *triage.Draft `json:"data,omitempty"`
	Valid      bool          `json:"valid"`
	Errors     []string      `json:"errors"`
	LatencyMS  int64         `json:"latency_ms"`
	EstCostUSD float64       `json:"est_cost_usd"`
}

// Extract runs the pipeline synchronously over pasted text and returns
// the resulting record fields. A pipeline run that captured provider
// failures still answers 200; only malformed input is a client error.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeError(w, http.StatusBadRequest, "missing field: text")
		return
	}

	rec, err := h.pipeline.Run(r.Context(), pipeline.Submission{
		Kind: pipeline.KindText,
		Body: req.Text,
	})
	if err != nil {
		h.logger.Error("Pipeline run failed", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, extractResponse{
		Data:       rec.Data,
		Valid:      rec.Valid,
		Errors:     rec.Errors,
		LatencyMS:  rec.LatencyMS,
		EstCostUSD: rec.EstCostUSD,
	})
}

// GetMessages returns all records, newest first.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.Newest()
	if err != nil {
		h.logger.Error("Failed to list records", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if records == nil {
		records = []*store.Record{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

// GetStats returns the aggregate statistics.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats()
	if err != nil {
		h.logger.Error("Failed to compute stats", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// GetHealth is the health check endpoint.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
