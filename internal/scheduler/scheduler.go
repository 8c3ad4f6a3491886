package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	CacheJanitorSpec      = "*/10 * * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
)

// Evictor drops entries whose lifetime has passed and reports how many.
type Evictor interface {
	EvictExpired(now time.Time) int
	Len() int
}

type Scheduler struct {
	ctx   context.Context
	cron  *cron.Cron
	cache Evictor
	now   func() time.Time
	log   *slog.Logger
}

func New(ctx context.Context, cache Evictor, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:   ctx,
		cron:  c,
		cache: cache,
		now:   time.Now,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(CacheJanitorSpec, s.evictExpired); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

// Stop halts the cron and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) evictExpired() {
	select {
	case <-s.ctx.Done():
		s.log.InfoContext(s.ctx, "Scheduler context is done",
			"error", s.ctx.Err())
		return
	default:
	}

	evicted := s.cache.EvictExpired(s.now())
	if evicted == 0 {
		return
	}

	s.log.InfoContext(s.ctx, "Expired summaries are evicted",
		"evicted", evicted,
		"remaining", s.cache.Len())
}
