package session

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/magicchess/predictor-api/internal/models"
)

type predictCall struct {
	Player   string
	Round    string
	Opponent string
}

type MockClient struct {
	mu          sync.Mutex
	calls       []predictCall
	PredictFunc func(ctx context.Context, player, round, opponent string) ([]models.Prediction, error)
}

func (m *MockClient) Predict(ctx context.Context, player, round, opponent string) ([]models.Prediction, error) {
	m.mu.Lock()
	m.calls = append(m.calls, predictCall{Player: player, Round: round, Opponent: opponent})
	m.mu.Unlock()

	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, player, round, opponent)
	}
	return nil, nil
}

func (m *MockClient) Calls() []predictCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]predictCall(nil), m.calls...)
}

// newTestController wires a controller whose chained follow-ups run
// synchronously, so tests observe them deterministically.
func newTestController(client Client) *Controller {
	c := NewController(ControllerConfig{Client: client, Logger: zap.NewNop()})
	c.spawn = func(f func()) { f() }
	return c
}

var samplePredictions = []models.Prediction{
	{Opponent: "Player 4", Probability: 55},
	{Opponent: "Player 2", Probability: 30},
}

func TestPredict_TableDriven(t *testing.T) {
	tests := []struct {
		name            string
		predictFunc     func(ctx context.Context, player, round, opponent string) ([]models.Prediction, error)
		expectErr       bool
		expectedHistory int
		expectedError   string
	}{
		{
			name: "Success Appends One History Entry",
			predictFunc: func(ctx context.Context, player, round, opponent string) ([]models.Prediction, error) {
				return samplePredictions, nil
			},
			expectedHistory: 1,
		},
		{
			name: "Failure Leaves History Untouched",
			predictFunc: func(ctx context.Context, player, round, opponent string) ([]models.Prediction, error) {
				return nil, errors.New("Failed to get prediction")
			},
			expectErr:       true,
			expectedHistory: 0,
			expectedError:   "Failed to get prediction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(&MockClient{PredictFunc: tt.predictFunc})

			err := c.Predict(context.Background(), "Player 1", "I-2", "Player 3")
			if (err != nil) != tt.expectErr {
				t.Fatalf("Predict error = %v, expectErr = %v", err, tt.expectErr)
			}

			s := c.State()
			if len(s.History) != tt.expectedHistory {
				t.Errorf("history length = %d, want %d", len(s.History), tt.expectedHistory)
			}
			if s.Error != tt.expectedError {
				t.Errorf("error message = %q, want %q", s.Error, tt.expectedError)
			}
			if s.Loading {
				t.Error("loading flag not cleared")
			}
		})
	}
}

func TestPredict_RejectsUnknownInputs(t *testing.T) {
	mock := &MockClient{}
	c := newTestController(mock)

	tests := []struct {
		name     string
		player   string
		round    string
		opponent string
		expected error
	}{
		{name: "Unknown Player", player: "Player 99", round: "I-2", opponent: "Player 3", expected: ErrUnknownPlayer},
		{name: "Unknown Round", player: "Player 1", round: "VI-1", opponent: "Player 3", expected: ErrUnknownRound},
		{name: "Unknown Opponent", player: "Player 1", round: "I-2", opponent: "Creep", expected: ErrUnknownOpponent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Predict(context.Background(), tt.player, tt.round, tt.opponent); !errors.Is(err, tt.expected) {
				t.Errorf("Predict = %v, want %v", err, tt.expected)
			}
		})
	}

	if calls := mock.Calls(); len(calls) != 0 {
		t.Errorf("invalid inputs reached the client: %d calls", len(calls))
	}
}

func TestPredict_RepeatCallsAppendDistinctEntries(t *testing.T) {
	c := newTestController(&MockClient{
		PredictFunc: func(ctx context.Context, player, round, opponent string) ([]models.Prediction, error) {
			return samplePredictions, nil
		},
	})

	// History is an append log, not a map: identical arguments append again.
	for i := 0; i < 3; i++ {
		if err := c.Predict(context.Background(), "Player 1", "I-2", "Player 3"); err != nil {
			t.Fatalf("Predict: %v", err)
		}
	}

	if got := len(c.State().History); got != 3 {
		t.Errorf("history length = %d, want 3", got)
	}
}

func TestSelectContinuation_AtFinalRoundIsNoOp(t *testing.T) {
	mock := &MockClient{}
	c := newTestController(mock)

	c.mu.Lock()
	c.state.CurrentRound = "V-4"
	c.state.LastOpponent = "Player 5"
	c.mu.Unlock()

	if advanced := c.SelectContinuation("Player 2"); advanced {
		t.Error("SelectContinuation advanced past the final round")
	}

	s := c.State()
	if s.CurrentRound != "V-4" || s.LastOpponent != "Player 5" {
		t.Errorf("state changed at final round: round=%q opponent=%q", s.CurrentRound, s.LastOpponent)
	}
	if calls := mock.Calls(); len(calls) != 0 {
		t.Errorf("final-round continuation triggered %d requests", len(calls))
	}
}

func TestSelectContinuation_AdvancesAndChains(t *testing.T) {
	mock := &MockClient{
		PredictFunc: func(ctx context.Context, player, round, opponent string) ([]models.Prediction, error) {
			return samplePredictions, nil
		},
	}
	c := newTestController(mock)

	if err := c.Predict(context.Background(), "Player 1", "I-2", "Player 3"); err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if advanced := c.SelectContinuation("Player 4"); !advanced {
		t.Fatal("SelectContinuation did not advance")
	}

	s := c.State()
	if s.CurrentRound != "I-3" {
		t.Errorf("current round = %q, want I-3", s.CurrentRound)
	}
	if s.LastOpponent != "Player 4" {
		t.Errorf("last opponent = %q, want Player 4", s.LastOpponent)
	}

	calls := mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 predict calls, got %d", len(calls))
	}
	want := predictCall{Player: "Player 1", Round: "I-3", Opponent: "Player 4"}
	if calls[1] != want {
		t.Errorf("chained call = %+v, want %+v", calls[1], want)
	}
	if len(s.History) != 2 {
		t.Errorf("history length = %d, want 2", len(s.History))
	}
}

func TestSelectContinuation_ChainedErrorIsSwallowed(t *testing.T) {
	mock := &MockClient{
		PredictFunc: func(ctx context.Context, player, round, opponent string) ([]models.Prediction, error) {
			return nil, errors.New("service down")
		},
	}
	c := newTestController(mock)

	c.SelectContinuation("Player 4")

	s := c.State()
	if s.Error != "" {
		t.Errorf("chained failure surfaced error %q", s.Error)
	}
	if s.CurrentRound != "I-3" || s.LastOpponent != "Player 4" {
		t.Errorf("advance not applied despite chained failure: round=%q opponent=%q", s.CurrentRound, s.LastOpponent)
	}
	if len(s.History) != 0 {
		t.Errorf("failed chain appended history: %d entries", len(s.History))
	}
}

func TestReset_RestoresDocumentedDefaults(t *testing.T) {
	c := newTestController(&MockClient{
		PredictFunc: func(ctx context.Context, player, round, opponent string) ([]models.Prediction, error) {
			return samplePredictions, nil
		},
	})

	c.Predict(context.Background(), "Player 2", "II-1", "Player 6")
	c.SelectContinuation("Player 4")
	c.Reset()

	s := c.State()
	if s.SelectedPlayer != DefaultPlayer || s.CurrentRound != DefaultRound || s.LastOpponent != DefaultOpponent {
		t.Errorf("defaults not restored: %+v", s)
	}
	if len(s.Predictions) != 0 || len(s.History) != 0 || s.Error != "" || s.Loading {
		t.Errorf("state not fully cleared: %+v", s)
	}
}

func TestChangePlayer_EqualsResetWithNewPlayer(t *testing.T) {
	c := newTestController(&MockClient{
		PredictFunc: func(ctx context.Context, player, round, opponent string) ([]models.Prediction, error) {
			return samplePredictions, nil
		},
	})

	c.Predict(context.Background(), "Player 1", "I-2", "Player 3")
	if err := c.ChangePlayer("Player 7"); err != nil {
		t.Fatalf("ChangePlayer: %v", err)
	}

	got := c.State()
	want := defaultState()
	want.SelectedPlayer = "Player 7"
	if got.SelectedPlayer != want.SelectedPlayer || got.CurrentRound != want.CurrentRound ||
		got.LastOpponent != want.LastOpponent || got.Error != "" || got.Loading {
		t.Errorf("state = %+v, want reset state with player %q", got, "Player 7")
	}
	if len(got.Predictions) != 0 || len(got.History) != 0 {
		t.Errorf("chain survived player change: %+v", got)
	}

	if err := c.ChangePlayer("Player 99"); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("ChangePlayer with unknown player = %v, want ErrUnknownPlayer", err)
	}
}

func TestPredictScenario_DefaultsThenContinue(t *testing.T) {
	mock := &MockClient{
		PredictFunc: func(ctx context.Context, player, round, opponent string) ([]models.Prediction, error) {
			return samplePredictions, nil
		},
	}
	c := newTestController(mock)

	if err := c.Predict(context.Background(), "Player 1", "I-2", "Player 3"); err != nil {
		t.Fatalf("Predict: %v", err)
	}

	s := c.State()
	if !reflect.DeepEqual(s.Predictions, samplePredictions) {
		t.Errorf("predictions = %+v, want %+v", s.Predictions, samplePredictions)
	}
	wantHistory := []models.PredictionResult{
		{Round: "I-2", Opponent: "Player 3", Predictions: samplePredictions},
	}
	if !reflect.DeepEqual(s.History, wantHistory) {
		t.Errorf("history = %+v, want %+v", s.History, wantHistory)
	}

	c.SelectContinuation("Player 4")

	s = c.State()
	if s.CurrentRound != "I-3" || s.LastOpponent != "Player 4" {
		t.Errorf("continuation state: round=%q opponent=%q", s.CurrentRound, s.LastOpponent)
	}
	calls := mock.Calls()
	if len(calls) != 2 || calls[1] != (predictCall{Player: "Player 1", Round: "I-3", Opponent: "Player 4"}) {
		t.Errorf("calls = %+v", calls)
	}
}
