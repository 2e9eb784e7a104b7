package seats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"easybus/internal/events"
	"easybus/internal/shared/constants"
	"easybus/pkg/cache"
	"easybus/pkg/logger"
)

// ReleaseJob periodically returns expired and invalid holds to AVAILABLE
type ReleaseJob struct {
	repo      Repository
	cache     cache.Service
	publisher events.Publisher
	interval  time.Duration
	log       *logger.Logger
	now       func() time.Time

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewReleaseJob(repo Repository, cacheSvc cache.Service, publisher events.Publisher, interval time.Duration) *ReleaseJob {
	if interval <= 0 {
		interval = time.Minute
	}
	if cacheSvc == nil {
		cacheSvc = cache.NewNoop()
	}
	if publisher == nil {
		publisher = events.NewLogPublisher(nil)
	}
	return &ReleaseJob{
		repo:      repo,
		cache:     cacheSvc,
		publisher: publisher,
		interval:  interval,
		log:       logger.GetDefault().WithComponent("seat-release-job"),
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval until Stop or ctx ends
func (j *ReleaseJob) Start(ctx context.Context) {
	j.log.Info("Starting seat release job", slog.Duration("interval", j.interval))

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.RunOnce(ctx)
		for {
			select {
			case <-ticker.C:
				j.RunOnce(ctx)
			case <-j.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight sweep
func (j *ReleaseJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.done)
	})
	j.wg.Wait()
	j.log.Info("Seat release job stopped")
}

// RunOnce performs a single sweep. Failures are logged and reported as zero.
func (j *ReleaseJob) RunOnce(ctx context.Context) (expired, invalid int64) {
	now := j.now()

	expired, err := j.repo.ReleaseExpired(ctx, now)
	if err != nil {
		j.log.WithError(err).ErrorContext(ctx, "failed to release expired seat blocks")
		expired = 0
	}

	invalid, err = j.repo.ReleaseInvalid(ctx, now)
	if err != nil {
		j.log.WithError(err).ErrorContext(ctx, "failed to release invalid seat blocks")
		invalid = 0
	}

	if expired+invalid == 0 {
		return 0, 0
	}

	j.log.LogSeatsReleased(ctx, expired, invalid)

	if _, err := j.cache.Incr(ctx, constants.CACHE_KEY_SEAT_MAP_EPOCH); err != nil {
		j.log.WarnContext(ctx, "failed to invalidate seat map cache", slog.Any("error", err))
	}
	if err := j.publisher.Publish(ctx, events.NewSeatsReleased(expired, invalid)); err != nil {
		j.log.WarnContext(ctx, "failed to publish release event", slog.Any("error", err))
	}
	return expired, invalid
}
