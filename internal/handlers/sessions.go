package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/magicchess/predictor-api/internal/session"
)

type sessionResponse struct {
	Success   bool          `json:"success"`
	SessionID string        `json:"session_id"`
	State     session.State `json:"state"`
}

// CreateSession handles POST /api/v1/sessions
// Opens a fresh prediction session at the documented defaults.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, ctrl := h.sessions.Create()
	h.jsonResponse(w, http.StatusCreated, sessionResponse{
		Success:   true,
		SessionID: id,
		State:     ctrl.State(),
	})
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := h.session(w, r)
	if !ok {
		return
	}
	h.jsonResponse(w, http.StatusOK, sessionResponse{
		Success:   true,
		SessionID: id,
		State:     ctrl.State(),
	})
}

// SessionPredict handles POST /api/v1/sessions/{id}/predict
// Runs a prediction with the session's current player, round and opponent and
// returns the resulting state. Engine failures land in the state's error
// field, not in the HTTP status.
func (h *Handler) SessionPredict(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	s := ctrl.State()
	err := ctrl.Predict(r.Context(), s.SelectedPlayer, s.CurrentRound, s.LastOpponent)
	if isValidationError(err) {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.jsonResponse(w, http.StatusOK, sessionResponse{
		Success:   err == nil,
		SessionID: id,
		State:     ctrl.State(),
	})
}

// SessionContinue handles POST /api/v1/sessions/{id}/continue
// Records the opponent actually faced, advances the round and chains the next
// prediction in the background. At the final round nothing changes.
func (h *Handler) SessionContinue(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Opponent string `json:"opponent" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	advanced := ctrl.SelectContinuation(req.Opponent)

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"session_id": id,
		"advanced":   advanced,
		"state":      ctrl.State(),
	})
}

// ResetSession handles POST /api/v1/sessions/{id}/reset
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	ctrl.Reset()
	h.jsonResponse(w, http.StatusOK, sessionResponse{
		Success:   true,
		SessionID: id,
		State:     ctrl.State(),
	})
}

// ChangeSessionPlayer handles PUT /api/v1/sessions/{id}/player
// Selecting a player starts over: the rest of the session resets.
func (h *Handler) ChangeSessionPlayer(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Player string `json:"player" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if err := ctrl.ChangePlayer(req.Player); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Unknown player: "+req.Player)
		return
	}

	h.jsonResponse(w, http.StatusOK, sessionResponse{
		Success:   true,
		SessionID: id,
		State:     ctrl.State(),
	})
}

// session resolves the {id} URL parameter to a live controller, writing the
// 404 itself when the session is unknown or already evicted.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, *session.Controller, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.errorResponse(w, http.StatusBadRequest, "Session ID is required")
		return "", nil, false
	}

	ctrl, ok := h.sessions.Get(id)
	if !ok {
		h.errorResponse(w, http.StatusNotFound, "Session not found")
		return "", nil, false
	}
	return id, ctrl, true
}

func isValidationError(err error) bool {
	return errors.Is(err, session.ErrUnknownPlayer) ||
		errors.Is(err, session.ErrUnknownRound) ||
		errors.Is(err, session.ErrUnknownOpponent)
}
