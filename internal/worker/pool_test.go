package worker

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/magicchess/predictor-api/internal/models"
)

// newTestPool builds a pool without Start so no workers drain the queue.
// ClickHouse and Redis stay nil; these tests only cover queue mechanics.
func newTestPool(queueSize int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		config: PoolConfig{
			WorkerCount:   1,
			QueueSize:     queueSize,
			BatchSize:     10,
			FlushInterval: time.Second,
		},
		jobQueue: make(chan Job, queueSize),
		ctx:      ctx,
		cancel:   cancel,
		logger:   zap.NewNop().Sugar(),
	}
}

func sampleObservation() *models.MatchObservation {
	return &models.MatchObservation{
		MatchID:      "Match-001",
		Player:       "Player 1",
		RoundIndex:   1,
		Opponent:     "Player 4",
		PrevOpponent: "Player 3",
	}
}

func TestEnqueue(t *testing.T) {
	p := newTestPool(10)
	defer p.cancel()

	if !p.Enqueue(sampleObservation()) {
		t.Error("Enqueue returned false with room in the queue")
	}
	if p.QueueDepth() != 1 {
		t.Errorf("queue depth = %d, want 1", p.QueueDepth())
	}
}

func TestEnqueue_ShedsLoadWhenFull(t *testing.T) {
	p := newTestPool(2)
	defer p.cancel()

	if !p.Enqueue(sampleObservation()) || !p.Enqueue(sampleObservation()) {
		t.Fatal("failed to fill the queue")
	}

	if p.Enqueue(sampleObservation()) {
		t.Error("Enqueue returned true on a full queue")
	}
	if p.QueueDepth() != 2 {
		t.Errorf("queue depth = %d, want 2", p.QueueDepth())
	}
}

func TestEnqueue_DropsAfterCancel(t *testing.T) {
	p := newTestPool(10)
	p.cancel()

	// Give the canceled context a moment to propagate through select
	time.Sleep(time.Millisecond)

	if p.Enqueue(sampleObservation()) {
		t.Error("Enqueue returned true after cancel")
	}
}

func TestEnqueue_SurvivesClosedQueue(t *testing.T) {
	p := newTestPool(10)
	p.cancel()
	close(p.jobQueue)

	// Must not panic; recover guard converts it into a dropped observation
	p.Enqueue(sampleObservation())
}

func TestNewPool_Defaults(t *testing.T) {
	p := NewPool(PoolConfig{Logger: zap.NewNop()})

	if p.config.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d, want 4", p.config.WorkerCount)
	}
	if p.config.QueueSize != 10000 {
		t.Errorf("QueueSize = %d, want 10000", p.config.QueueSize)
	}
	if p.config.BatchSize != 500 {
		t.Errorf("BatchSize = %d, want 500", p.config.BatchSize)
	}
	if p.config.FlushInterval != time.Second {
		t.Errorf("FlushInterval = %v, want 1s", p.config.FlushInterval)
	}
}
