package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/magicchess/predictor-api/internal/models"
)

// IngestObservations handles POST /api/v1/ingest/observations
// Accepts newline-separated JSON match observations from the trainer and
// queues them for batched ClickHouse insertion.
func (h *Handler) IngestObservations(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	defer r.Body.Close()

	processed := 0
	skipped := 0
	for i, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var obs models.MatchObservation
		if err := json.Unmarshal([]byte(line), &obs); err != nil {
			h.logger.Warnw("Failed to unmarshal observation",
				"error", err, "lineNum", i, "preview", line[:min(len(line), 100)])
			skipped++
			continue
		}

		if err := h.validator.Struct(&obs); err != nil {
			h.logger.Warnw("Observation failed validation",
				"error", err, "lineNum", i, "match_id", obs.MatchID)
			skipped++
			continue
		}

		if !h.pool.Enqueue(&obs) {
			h.logger.Warn("Worker pool queue full, dropping remaining observations in batch")
			break
		}
		processed++
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "accepted",
		"processed": processed,
		"skipped":   skipped,
	})
}
