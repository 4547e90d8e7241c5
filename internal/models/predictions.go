package models

import "time"

// Prediction is one (opponent, probability) pair returned by the engine.
// Probabilities are percentage scores; they are not guaranteed to sum to 100.
type Prediction struct {
	Opponent    string  `json:"opponent"`
	Probability float64 `json:"probability"`
}

// PredictionResult is one entry of a session's append-only history:
// the round that was played, the opponent actually faced, and the
// predictions that were issued for the following round.
type PredictionResult struct {
	Round       string       `json:"round"`
	Opponent    string       `json:"opponent"`
	Predictions []Prediction `json:"predictions"`
}

// PredictRequest is the wire contract of POST /api/v1/predict.
type PredictRequest struct {
	Player       string `json:"player" validate:"required"`
	CurrentRound string `json:"current_round" validate:"required"`
	LastOpponent string `json:"last_opponent" validate:"required"`
}

// PredictResponse mirrors the original backend's response shape.
type PredictResponse struct {
	Success         bool         `json:"success"`
	Player          string       `json:"player"`
	CurrentRound    string       `json:"current_round"`
	LastOpponent    string       `json:"last_opponent"`
	NextPredictions []Prediction `json:"next_predictions"`
	Timestamp       time.Time    `json:"timestamp"`
}

// BatchPredictItem is one (round, opponent) step of a replayed run.
type BatchPredictItem struct {
	Round    string `json:"round" validate:"required"`
	Opponent string `json:"opponent" validate:"required"`
}

// BatchPredictRequest is the wire contract of POST /api/v1/predict/batch.
type BatchPredictRequest struct {
	Player  string             `json:"player" validate:"required"`
	History []BatchPredictItem `json:"history" validate:"dive"`
}

// BatchPredictResponse carries one prediction set per requested step.
type BatchPredictResponse struct {
	Success            bool               `json:"success"`
	Player             string             `json:"player"`
	PredictionsHistory []PredictionResult `json:"predictions_history"`
}
