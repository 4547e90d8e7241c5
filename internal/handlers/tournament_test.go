package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPlayers(t *testing.T) {
	h, _ := newTestHandler(nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/players", nil)
	w := httptest.NewRecorder()
	h.Players(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Success bool     `json:"success"`
		Players []string `json:"players"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Players) != 8 {
		t.Errorf("got %d players, want 8", len(resp.Players))
	}
	if resp.Players[0] != "Player 1" || resp.Players[7] != "Player 8" {
		t.Errorf("roster = %v", resp.Players)
	}
}

func TestRounds(t *testing.T) {
	h, _ := newTestHandler(nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/rounds", nil)
	w := httptest.NewRecorder()
	h.Rounds(w, req)

	var resp struct {
		Rounds []string `json:"rounds"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Rounds) != 20 {
		t.Errorf("got %d rounds, want 20", len(resp.Rounds))
	}
	if resp.Rounds[0] != "I-1" || resp.Rounds[19] != "V-4" {
		t.Errorf("rounds = %v", resp.Rounds)
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %v", resp["status"])
	}
}

func TestIndex_ServesWebShell(t *testing.T) {
	h, _ := newTestHandler(nil, nil)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	h.Index(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Opponent Predictor") {
		t.Error("page is missing the shell markup")
	}
}
