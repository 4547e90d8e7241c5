// Package client implements the HTTP client side of the prediction service
// contract: POST /api/v1/predict with {player, current_round, last_opponent},
// answered by {next_predictions: [{opponent, probability}, ...]}.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/magicchess/predictor-api/internal/models"
)

// FallbackErrorMessage is reported when a failed response carries no
// error field of its own.
const FallbackErrorMessage = "Failed to get prediction"

// Prediction calls a prediction service endpoint. Requests are not retried
// and carry no client-side deadline beyond the caller's context.
type Prediction struct {
	baseURL string
	http    *http.Client
	logger  *zap.SugaredLogger
}

// New returns a client for the service at baseURL. A nil httpClient falls
// back to http.DefaultClient.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Prediction {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Prediction{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger.Sugar(),
	}
}

// Predict requests the prediction set for the round following currentRound.
// On any failure it returns an error whose message is suitable for display:
// the service's own error message when one was provided, otherwise
// FallbackErrorMessage.
func (c *Prediction) Predict(ctx context.Context, player, currentRound, lastOpponent string) ([]models.Prediction, error) {
	payload := models.PredictRequest{
		Player:       player,
		CurrentRound: currentRound,
		LastOpponent: lastOpponent,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	url := c.baseURL + "/api/v1/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warnw("Prediction request failed", "url", url, "error", err)
		return nil, fmt.Errorf("%s: %w", FallbackErrorMessage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s", c.decodeError(resp))
	}

	var out models.PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: %w", FallbackErrorMessage, err)
	}
	return out.NextPredictions, nil
}

// decodeError extracts the service's error message from a failure response,
// falling back to the generic message when the body has no usable one.
func (c *Prediction) decodeError(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && strings.TrimSpace(body.Error) != "" {
		return body.Error
	}
	return FallbackErrorMessage
}
