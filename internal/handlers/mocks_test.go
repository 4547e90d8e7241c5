package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/magicchess/predictor-api/internal/models"
	"github.com/magicchess/predictor-api/internal/session"
)

// MockPredictorService
type MockPredictorService struct {
	PredictNextFunc  func(ctx context.Context, player, currentRound, lastOpponent string) ([]models.Prediction, error)
	PredictBatchFunc func(ctx context.Context, player string, history []models.BatchPredictItem) ([]models.PredictionResult, error)
}

func (m *MockPredictorService) PredictNext(ctx context.Context, player, currentRound, lastOpponent string) ([]models.Prediction, error) {
	if m.PredictNextFunc != nil {
		return m.PredictNextFunc(ctx, player, currentRound, lastOpponent)
	}
	return []models.Prediction{{Opponent: "Player 4", Probability: 55}}, nil
}

func (m *MockPredictorService) PredictBatch(ctx context.Context, player string, history []models.BatchPredictItem) ([]models.PredictionResult, error) {
	if m.PredictBatchFunc != nil {
		return m.PredictBatchFunc(ctx, player, history)
	}
	return nil, nil
}

// MockIngestQueue
type MockIngestQueue struct {
	EnqueueFunc func(obs *models.MatchObservation) bool
	Enqueued    []*models.MatchObservation
}

func (m *MockIngestQueue) Enqueue(obs *models.MatchObservation) bool {
	if m.EnqueueFunc != nil && !m.EnqueueFunc(obs) {
		return false
	}
	m.Enqueued = append(m.Enqueued, obs)
	return true
}

func (m *MockIngestQueue) QueueDepth() int { return len(m.Enqueued) }

// mockSessionClient satisfies session.Client for session endpoint tests
type mockSessionClient struct {
	PredictFunc func(ctx context.Context, player, currentRound, lastOpponent string) ([]models.Prediction, error)
}

func (m *mockSessionClient) Predict(ctx context.Context, player, currentRound, lastOpponent string) ([]models.Prediction, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, player, currentRound, lastOpponent)
	}
	return []models.Prediction{{Opponent: "Player 4", Probability: 55}}, nil
}

func newTestHandler(predictor *MockPredictorService, client session.Client) (*Handler, *MockIngestQueue) {
	if predictor == nil {
		predictor = &MockPredictorService{}
	}
	if client == nil {
		client = &mockSessionClient{}
	}
	queue := &MockIngestQueue{}
	h := New(Config{
		WorkerPool: queue,
		Logger:     zap.NewNop(),
		Predictor:  predictor,
		Sessions: session.NewManager(session.ManagerConfig{
			Client:  client,
			Logger:  zap.NewNop(),
			IdleTTL: time.Minute,
		}),
	})
	return h, queue
}
