package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CleanupChannel wakes workers for an immediate cleanup run
const CleanupChannel = "cache:cleanup"

const runTimeout = 5 * time.Minute

// Worker runs heat decay and cleanup in the background
type Worker struct {
	service  *Service
	interval time.Duration
	redis    *redis.Client
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewWorker creates a new cache worker; redisClient may be nil
func NewWorker(service *Service, interval time.Duration, redisClient *redis.Client) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Worker{
		service:  service,
		interval: interval,
		redis:    redisClient,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background worker
func (w *Worker) Start() {
	log.Info().Dur("interval", w.interval).Msg("Starting cache worker...")

	wake := make(chan struct{}, 1)
	if w.redis != nil {
		ctx, cancel := context.WithCancel(context.Background())
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			<-w.stopCh
			cancel()
		}()
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			subscribeWakeups(ctx, w.redis, wake)
		}()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(wake)
	}()
}

// Stop gracefully stops the background worker and waits for the current run
func (w *Worker) Stop() {
	log.Info().Msg("Stopping cache worker...")
	close(w.stopCh)
	w.wg.Wait()
}

func (w *Worker) loop(wake <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-wake:
			log.Debug().Msg("Cache cleanup requested")
		case <-w.stopCh:
			return
		}
		w.RunOnce()
	}
}

// RunOnce decays every entry and then runs the tiered cleanup
func (w *Worker) RunOnce() *CleanupResult {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	start := time.Now()
	if _, err := w.service.DecayAll(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to decay cache heat scores")
	}

	result, err := w.service.AutoCleanup(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Cache cleanup failed")
		return nil
	}

	log.Debug().
		Int("cleaned", result.CleanedCount).
		Dur("took", time.Since(start)).
		Msg("Cache maintenance finished")
	return result
}

// RequestCleanup asks running workers to clean up now
func RequestCleanup(ctx context.Context, rdb *redis.Client) error {
	return rdb.Publish(ctx, CleanupChannel, "auto").Err()
}

func subscribeWakeups(ctx context.Context, rdb *redis.Client, wake chan<- struct{}) {
	sub := rdb.Subscribe(ctx, CleanupChannel)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}
}
