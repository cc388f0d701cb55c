// Package worker implements the buffered worker pool that records profile
// lookups off the request path:
// - Load shedding when the queue is full or the pool is stopped
// - Batch inserts of lookup events into ClickHouse
// - Trust rating persistence and auto-flagging in Postgres
// - Graceful shutdown that drains and flushes the queue
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/pgrep/reputation-api/internal/models"
)

var (
	lookupsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pgrep_lookups_ingested_total",
		Help: "Total number of lookup events accepted by the queue",
	})

	lookupsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pgrep_lookups_processed_total",
		Help: "Total number of lookup events written by workers",
	})

	lookupsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pgrep_lookups_failed_total",
		Help: "Total number of lookup events that failed processing",
	})

	lookupsLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pgrep_lookups_load_shed_total",
		Help: "Total number of lookup events dropped due to load shedding",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pgrep_worker_queue_depth",
		Help: "Current depth of the worker queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pgrep_batch_insert_duration_seconds",
		Help:    "Duration of lookup batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})
)

// LookupSink stores lookup batches.
type LookupSink interface {
	InsertLookups(ctx context.Context, events []models.LookupEvent) error
}

// Job is a queued lookup event.
type Job struct {
	Event      models.LookupEvent
	EnqueuedAt time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	Lookups       LookupSink
	Profiles      ProfileStore
	Stats         StatStore
	Logger        *zap.Logger
}

// Pool manages the lookup workers.
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
	flagger  *AutoFlagger
	mu       sync.RWMutex // guards stopped and the close of jobQueue
	stopped  bool
	stopOnce sync.Once
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
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	logger := cfg.Logger.Sugar()
	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   logger,
		flagger:  NewAutoFlagger(cfg.Profiles, cfg.Stats, logger),
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

// Stop closes the queue, waits for workers to flush what is left and
// then cancels the pool context. Safe to call more than once.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping worker pool...")
		p.mu.Lock()
		p.stopped = true
		close(p.jobQueue)
		p.mu.Unlock()
		p.wg.Wait()
		if p.cancel != nil {
			p.cancel()
		}
		p.logger.Info("Worker pool stopped")
	})
}

// Enqueue adds a lookup to the queue without blocking. It returns false when
// the event was shed because the queue is full or the pool is stopped.
func (p *Pool) Enqueue(event models.LookupEvent) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.logger.Warnw("Worker pool stopped, dropping lookup", "steam_id", event.SteamID)
		lookupsLoadShed.Inc()
		return false
	}

	select {
	case p.jobQueue <- Job{Event: event, EnqueuedAt: time.Now()}:
		lookupsIngested.Inc()
		return true
	default:
		p.logger.Warnw("Worker queue full, dropping lookup", "steam_id", event.SteamID)
		lookupsLoadShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

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
			lookupsFailed.Add(float64(len(batch)))
		} else {
			p.logger.Debugw("Batch processed", "worker", id, "batchSize", len(batch), "duration", time.Since(start))
			lookupsProcessed.Add(float64(len(batch)))
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
		}
	}
}

// processBatch writes the lookups and applies trust side effects. Ratings
// and flags live in Postgres and are applied even when the ClickHouse insert
// fails; that error is still returned for logging and metrics. The batch
// context is detached from the pool so the final flush on Stop runs.
func (p *Pool) processBatch(batch []Job) error {
	if len(batch) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	events := make([]models.LookupEvent, len(batch))
	for i, job := range batch {
		events[i] = job.Event
	}

	var err error
	if p.config.Lookups != nil {
		err = p.config.Lookups.InsertLookups(ctx, events)
	}

	for _, ev := range events {
		p.flagger.Apply(ctx, ev)
	}
	return err
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
