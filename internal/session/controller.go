// Package session owns the prediction-chaining state machine behind the web
// shell: one controller per visitor, holding the selected player, the current
// round, the latest prediction set and the append-only history of past rounds.
//
// All mutation funnels through the controller's methods and is serialized by a
// single mutex; network completions re-enter through one apply step, so an
// overlapping request resolves last-writer-wins without torn state. Overlapping
// predicts are deliberately allowed - the loading flag is advisory, not a lock.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/magicchess/predictor-api/internal/models"
)

// Fixed defaults a fresh or reset session starts from.
const (
	DefaultPlayer   = "Player 1"
	DefaultRound    = "I-2"
	DefaultOpponent = "Player 3"
)

var (
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrUnknownRound    = errors.New("unknown round")
	ErrUnknownOpponent = errors.New("unknown opponent")
)

// Client is the prediction service dependency of a controller.
type Client interface {
	Predict(ctx context.Context, player, currentRound, lastOpponent string) ([]models.Prediction, error)
}

// State is a snapshot of a session. History is append-only and never
// reordered or deduplicated: repeating a prediction with identical arguments
// appends a second, distinct entry.
type State struct {
	SelectedPlayer string                    `json:"selected_player"`
	CurrentRound   string                    `json:"current_round"`
	LastOpponent   string                    `json:"last_opponent"`
	Predictions    []models.Prediction       `json:"predictions"`
	History        []models.PredictionResult `json:"history"`
	Loading        bool                      `json:"loading"`
	Error          string                    `json:"error,omitempty"`
}

func defaultState() State {
	return State{
		SelectedPlayer: DefaultPlayer,
		CurrentRound:   DefaultRound,
		LastOpponent:   DefaultOpponent,
	}
}

// ControllerConfig wires a controller's dependencies.
type ControllerConfig struct {
	Client Client
	Logger *zap.Logger
	// OnHistory, when set, is invoked after each successful prediction with
	// the entry that was appended. Used for fire-and-forget persistence.
	OnHistory func(models.PredictionResult)
}

// Controller is the prediction session state machine.
type Controller struct {
	mu        sync.Mutex
	state     State
	touched   time.Time
	client    Client
	logger    *zap.SugaredLogger
	onHistory func(models.PredictionResult)

	// spawn runs the chained follow-up prediction; replaced in tests to
	// run synchronously.
	spawn func(func())
}

// NewController returns a controller initialized to the fixed defaults.
func NewController(cfg ControllerConfig) *Controller {
	return &Controller{
		state:     defaultState(),
		touched:   time.Now(),
		client:    cfg.Client,
		logger:    cfg.Logger.Sugar(),
		onHistory: cfg.OnHistory,
		spawn:     func(f func()) { go f() },
	}
}

// State returns a snapshot. Slices are copied so callers can hold the
// snapshot across later mutations.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Predictions = append([]models.Prediction(nil), c.state.Predictions...)
	s.History = append([]models.PredictionResult(nil), c.state.History...)
	return s
}

// LastActive reports when the controller last handled an operation.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched
}

// Predict requests predictions for the round after currentRound and applies
// the outcome: on success it replaces the current prediction list and appends
// one history entry; on failure it records a user-visible error and leaves
// predictions and history untouched. The loading flag is cleared on every
// path.
func (c *Controller) Predict(ctx context.Context, player, currentRound, lastOpponent string) error {
	return c.predict(ctx, player, currentRound, lastOpponent, true)
}

func (c *Controller) predict(ctx context.Context, player, currentRound, lastOpponent string, surface bool) error {
	switch {
	case !models.IsPlayer(player):
		return ErrUnknownPlayer
	case !models.IsRound(currentRound):
		return ErrUnknownRound
	case !models.IsPlayer(lastOpponent):
		return ErrUnknownOpponent
	}

	c.mu.Lock()
	c.state.Loading = true
	if surface {
		c.state.Error = ""
	}
	c.touched = time.Now()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state.Loading = false
		c.mu.Unlock()
	}()

	preds, err := c.client.Predict(ctx, player, currentRound, lastOpponent)
	if err != nil {
		if surface {
			c.mu.Lock()
			c.state.Error = err.Error()
			c.mu.Unlock()
		} else {
			// Chained follow-ups swallow failures: logged, never shown.
			c.logger.Warnw("Chained prediction failed",
				"player", player, "round", currentRound, "opponent", lastOpponent, "error", err)
		}
		return err
	}

	entry := models.PredictionResult{
		Round:       currentRound,
		Opponent:    lastOpponent,
		Predictions: preds,
	}

	c.mu.Lock()
	c.state.Predictions = preds
	c.state.History = append(c.state.History, entry)
	c.state.Error = ""
	c.mu.Unlock()

	if c.onHistory != nil {
		c.onHistory(entry)
	}
	return nil
}

// SelectContinuation records opponent as the faced opponent of the current
// round, advances to the successor round and fires the follow-up prediction
// asynchronously. At the final round it is a silent no-op. The follow-up's
// outcome is not awaited and its errors are never surfaced.
func (c *Controller) SelectContinuation(opponent string) bool {
	if !models.IsPlayer(opponent) {
		return false
	}

	c.mu.Lock()
	next, ok := models.NextRound(c.state.CurrentRound)
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.state.CurrentRound = next
	c.state.LastOpponent = opponent
	player := c.state.SelectedPlayer
	c.touched = time.Now()
	c.mu.Unlock()

	c.spawn(func() {
		_ = c.predict(context.Background(), player, next, opponent, false)
	})
	return true
}

// Reset restores the documented defaults wholesale: default player, round and
// opponent, empty predictions and history, no error.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.state = defaultState()
	c.touched = time.Now()
	c.mu.Unlock()
}

// ChangePlayer selects a new player and unconditionally resets the rest of
// the session - a chain is only meaningful for one player.
func (c *Controller) ChangePlayer(player string) error {
	if !models.IsPlayer(player) {
		return ErrUnknownPlayer
	}

	c.mu.Lock()
	c.state = defaultState()
	c.state.SelectedPlayer = player
	c.touched = time.Now()
	c.mu.Unlock()
	return nil
}
