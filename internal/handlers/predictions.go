package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/magicchess/predictor-api/internal/models"
	"github.com/magicchess/predictor-api/internal/session"
)

// ErrPredictionFailed is the fixed message shown when the engine cannot
// produce a prediction. Clients display it verbatim.
const ErrPredictionFailed = "Failed to get prediction"

// Predict handles POST /api/v1/predict
// Scores the likely opponents for the round after current_round. Omitted
// fields fall back to the documented defaults.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Player == "" {
		req.Player = session.DefaultPlayer
	}
	if req.CurrentRound == "" {
		req.CurrentRound = session.DefaultRound
	}
	if req.LastOpponent == "" {
		req.LastOpponent = session.DefaultOpponent
	}

	switch {
	case !models.IsPlayer(req.Player):
		h.errorResponse(w, http.StatusBadRequest, "Unknown player: "+req.Player)
		return
	case !models.IsRound(req.CurrentRound):
		h.errorResponse(w, http.StatusBadRequest, "Unknown round: "+req.CurrentRound)
		return
	case !models.IsPlayer(req.LastOpponent):
		h.errorResponse(w, http.StatusBadRequest, "Unknown opponent: "+req.LastOpponent)
		return
	}

	preds, err := h.predictor.PredictNext(r.Context(), req.Player, req.CurrentRound, req.LastOpponent)
	if err != nil {
		h.logger.Errorw("Prediction failed",
			"error", err, "player", req.Player, "round", req.CurrentRound)
		h.errorResponse(w, http.StatusInternalServerError, ErrPredictionFailed)
		return
	}

	h.jsonResponse(w, http.StatusOK, models.PredictResponse{
		Success:         true,
		Player:          req.Player,
		CurrentRound:    req.CurrentRound,
		LastOpponent:    req.LastOpponent,
		NextPredictions: preds,
		Timestamp:       time.Now().UTC(),
	})
}

// PredictBatch handles POST /api/v1/predict/batch
// Replays a recorded (round, opponent) sequence and returns one prediction
// set per step.
func (h *Handler) PredictBatch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchPredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Player == "" {
		req.Player = session.DefaultPlayer
	}
	if !models.IsPlayer(req.Player) {
		h.errorResponse(w, http.StatusBadRequest, "Unknown player: "+req.Player)
		return
	}

	results, err := h.predictor.PredictBatch(r.Context(), req.Player, req.History)
	if err != nil {
		h.logger.Errorw("Batch prediction failed", "error", err, "player", req.Player)
		h.errorResponse(w, http.StatusInternalServerError, ErrPredictionFailed)
		return
	}

	h.jsonResponse(w, http.StatusOK, models.BatchPredictResponse{
		Success:            true,
		Player:             req.Player,
		PredictionsHistory: results,
	})
}
