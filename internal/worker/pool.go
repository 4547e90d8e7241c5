// Package worker implements the buffered worker pool for async observation
// ingestion. This decouples HTTP request handling from database writes:
// - Backpressure handling via load shedding
// - Batch inserts for efficient ClickHouse writes
// - Graceful shutdown with flush guarantees

package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/magicchess/predictor-api/internal/models"
)

// Prometheus metrics
var (
	observationsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magicchess_observations_ingested_total",
		Help: "Total number of match observations accepted into the queue",
	})

	observationsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magicchess_observations_processed_total",
		Help: "Total number of match observations written to ClickHouse",
	})

	observationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magicchess_observations_failed_total",
		Help: "Total number of match observations that failed processing",
	})

	observationsLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magicchess_observations_load_shed_total",
		Help: "Total number of match observations dropped due to load shedding",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "magicchess_worker_queue_depth",
		Help: "Current depth of the worker queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "magicchess_batch_insert_duration_seconds",
		Help:    "Duration of batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})
)

// Job represents a unit of work for the worker pool
type Job struct {
	Obs       *models.MatchObservation
	Timestamp time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Redis         *redis.Client
	Logger        *zap.Logger
}

// Pool manages a pool of workers for async observation processing
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop gracefully shuts down the worker pool, flushing pending batches
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")
	p.cancel()
	close(p.jobQueue)
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

// Enqueue adds an observation to the queue. Returns false when the queue is
// full or the pool is stopping; the observation is dropped in either case.
func (p *Pool) Enqueue(obs *models.MatchObservation) bool {
	job := Job{Obs: obs, Timestamp: time.Now()}

	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue observation (pool stopped)", "error", r)
		}
	}()

	select {
	case p.jobQueue <- job:
		observationsIngested.Inc()
		return true
	case <-p.ctx.Done():
		p.logger.Warn("Worker pool context canceled, dropping observation")
		observationsLoadShed.Inc()
		return false
	default:
		observationsLoadShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker processes jobs from the queue in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.processBatch(batch); err != nil {
			p.logger.Errorw("Batch processing failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			observationsFailed.Add(float64(len(batch)))
		} else {
			observationsProcessed.Add(float64(len(batch)))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}

			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-p.ctx.Done():
			flush()
			return
		}
	}
}

// processBatch writes a batch of observations to ClickHouse, then applies
// Redis side effects
func (p *Pool) processBatch(batch []Job) error {
	if len(batch) == 0 {
		return nil
	}

	ctx := context.Background()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO magicchess.match_observations (
			match_id, player, round_index, opponent, prev_opponent, ingested_at
		)
	`)
	if err != nil {
		return err
	}

	for _, job := range batch {
		obs := job.Obs
		if err := chBatch.Append(
			obs.MatchID,
			obs.Player,
			uint16(obs.RoundIndex),
			obs.Opponent,
			obs.PrevOpponent,
			job.Timestamp,
		); err != nil {
			p.logger.Warnw("Failed to append observation to batch",
				"error", err, "match_id", obs.MatchID, "player", obs.Player)
			continue
		}
	}

	if err := chBatch.Send(); err != nil {
		p.logger.Errorw("Failed to send batch to ClickHouse", "error", err, "batchSize", len(batch))
		return err
	}

	// Redis side effects after the data is durable. Must copy batch because
	// the slice is reused in the worker loop.
	batchCopy := make([]Job, len(batch))
	copy(batchCopy, batch)
	go p.processBatchSideEffects(ctx, batchCopy)

	return nil
}

// processBatchSideEffects maintains the roster/ingest bookkeeping in Redis:
// the set of players seen in training data and a per-match observation
// counter. Prediction response caches expire on their own TTL.
func (p *Pool) processBatchSideEffects(ctx context.Context, batch []Job) {
	if p.config.Redis == nil || len(batch) == 0 {
		return
	}

	pipe := p.config.Redis.Pipeline()
	for _, job := range batch {
		obs := job.Obs
		pipe.SAdd(ctx, "players:known", obs.Player, obs.Opponent)
		pipe.HIncrBy(ctx, "ingest:matches", obs.MatchID, 1)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		p.logger.Errorw("Redis pipeline failed", "error", err)
	}
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}
