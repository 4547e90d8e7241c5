package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/magicchess/predictor-api/internal/models"
)

// HistoryStore is the subset of pgxpool.Pool the manager needs to append
// history rows.
type HistoryStore interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ManagerConfig wires a manager's dependencies. Postgres may be nil, in which
// case history entries are kept in memory only.
type ManagerConfig struct {
	Client   Client
	Postgres HistoryStore
	Logger   *zap.Logger
	IdleTTL  time.Duration
}

// Manager owns all live session controllers, keyed by opaque UUID. Idle
// sessions are evicted after IdleTTL without activity.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Controller

	client  Client
	pg      HistoryStore
	logger  *zap.SugaredLogger
	zlogger *zap.Logger
	idleTTL time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a manager. Call Start to begin idle eviction.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	return &Manager{
		sessions: make(map[string]*Controller),
		client:   cfg.Client,
		pg:       cfg.Postgres,
		logger:   cfg.Logger.Sugar(),
		zlogger:  cfg.Logger,
		idleTTL:  cfg.IdleTTL,
	}
}

// Create registers a fresh controller and returns its session ID.
func (m *Manager) Create() (string, *Controller) {
	id := uuid.NewString()

	ctrl := NewController(ControllerConfig{
		Client: m.client,
		Logger: m.zlogger,
		OnHistory: func(entry models.PredictionResult) {
			m.persistHistory(id, entry)
		},
	})

	m.mu.Lock()
	m.sessions[id] = ctrl
	m.mu.Unlock()

	m.logger.Infow("Session created", "session_id", id)
	return id, ctrl
}

// Get returns the controller for id, if it is still live.
func (m *Manager) Get(id string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.sessions[id]
	return ctrl, ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Start launches the idle-session sweeper.
func (m *Manager) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go m.sweep()
}

// Stop halts the sweeper. Live sessions are discarded with the process.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Manager) sweep() {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle(time.Now())
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Manager) evictIdle(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, ctrl := range m.sessions {
		if now.Sub(ctrl.LastActive()) > m.idleTTL {
			delete(m.sessions, id)
			m.logger.Infow("Session evicted", "session_id", id)
		}
	}
}

// persistHistory appends one history row to Postgres without blocking the
// controller. Failures are logged; controller state is already committed.
func (m *Manager) persistHistory(sessionID string, entry models.PredictionResult) {
	if m.pg == nil {
		return
	}

	go func() {
		defer func() { recover() }()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		preds, _ := json.Marshal(entry.Predictions)
		_, err := m.pg.Exec(ctx, `
			INSERT INTO session_history (session_id, round, opponent, predictions, created_at)
			VALUES ($1, $2, $3, $4, NOW())
		`, sessionID, entry.Round, entry.Opponent, preds)
		if err != nil {
			m.logger.Warnw("Failed to persist history entry",
				"session_id", sessionID, "round", entry.Round, "error", err)
		}
	}()
}
