package handlers

import (
	"net/http"
	"sort"

	"github.com/magicchess/predictor-api/internal/models"
)

// Players handles GET /api/v1/players
// Returns the fixed lobby roster, extended with any extra names seen in
// ingested training data.
func (h *Handler) Players(w http.ResponseWriter, r *http.Request) {
	players := append([]string(nil), models.Players...)

	if h.redis != nil {
		known, err := h.redis.SMembers(r.Context(), "players:known").Result()
		if err != nil {
			h.logger.Warnw("Failed to read known players from Redis", "error", err)
		} else {
			extra := make([]string, 0)
			for _, name := range known {
				if !models.IsPlayer(name) {
					extra = append(extra, name)
				}
			}
			sort.Strings(extra)
			players = append(players, extra...)
		}
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"players": players,
	})
}

// Rounds handles GET /api/v1/rounds
// Returns the stage-round labels in play order.
func (h *Handler) Rounds(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"rounds":  models.Rounds,
	})
}
