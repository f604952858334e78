package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"chatroom-service/internal/chat"
	"chatroom-service/internal/models"
	"chatroom-service/internal/observability"
	"chatroom-service/internal/repositories"
)

// Config controls how often the room is swept and how long a participant may stay silent.
type Config struct {
	Interval          time.Duration
	InactivityTimeout time.Duration
	SweepTimeout      time.Duration
}

// Reaper evicts participants whose heartbeat is older than the inactivity timeout.
type Reaper struct {
	repo  repositories.ParticipantRepository
	hooks chat.Hooks
	cfg   Config
	log   *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	stopped chan struct{}
}

func NewReaper(repo repositories.ParticipantRepository, hooks chat.Hooks, cfg Config, log *zap.Logger) *Reaper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reaper{repo: repo, hooks: hooks, cfg: cfg, log: log.Named("reaper")}
}

// Start schedules sweeps every cfg.Interval until Stop is called or ctx is done.
func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return fmt.Errorf("reaper already started")
	}
	if r.cfg.Interval <= 0 {
		return fmt.Errorf("reaper interval must be positive, got %s", r.cfg.Interval)
	}

	logger := newCronLogger(r.log)
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc("@every "+r.cfg.Interval.String(), func() { r.runOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	c.Start()
	r.cron = c
	stopped := make(chan struct{})
	r.stopped = stopped

	r.log.Info("presence reaper started",
		zap.Duration("interval", r.cfg.Interval),
		zap.Duration("inactivity_timeout", r.cfg.InactivityTimeout))

	go func() {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-stopped:
		}
	}()
	return nil
}

// Stop cancels future sweeps and waits for a running one to finish.
func (r *Reaper) Stop() {
	r.mu.Lock()
	c, stopped := r.cron, r.stopped
	r.cron, r.stopped = nil, nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	close(stopped)
	<-c.Stop().Done()
	r.log.Info("presence reaper stopped")
}

func (r *Reaper) runOnce(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx := parent
	if r.cfg.SweepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, r.cfg.SweepTimeout)
		defer cancel()
	}

	removed, err := r.Sweep(ctx)
	if err != nil {
		observability.IncSweep("error")
		r.log.Error("presence sweep failed", zap.Error(err))
		return
	}
	if len(removed) == 0 {
		observability.IncSweep("noop")
		return
	}
	observability.IncSweep("evicted")
}

// Sweep removes every participant last seen before now minus the inactivity
// timeout and records one departure message for each. It returns the names
// actually removed.
func (r *Reaper) Sweep(ctx context.Context) ([]string, error) {
	ctx, span := otel.Tracer("chatroom-service/presence").Start(ctx, "presence.sweep")
	defer span.End()

	now := r.hooks.Time()
	cutoff := now.Add(-r.cfg.InactivityTimeout).UnixMilli()

	stale, err := r.repo.ListInactive(ctx, cutoff)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list inactive: %w", err)
	}
	if len(stale) == 0 {
		return nil, nil
	}

	departures := lo.Map(stale, func(p models.Participant, _ int) models.Message {
		return models.NewStatusMessage(p.Name, chat.DepartureText, now)
	})
	written, err := r.repo.RemoveInactive(ctx, cutoff, departures)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("remove inactive: %w", err)
	}

	removed := lo.Map(written, func(m models.Message, _ int) string { return m.From })
	span.SetAttributes(attribute.Int("presence.removed", len(removed)))
	if len(removed) == 0 {
		return nil, nil
	}

	observability.AddEvicted(len(removed))
	for range written {
		observability.IncMessageStored(string(models.TypeStatus))
	}
	r.log.Info("participants evicted", zap.Strings("names", removed))

	r.hooks.Delivered(written...)
	r.hooks.Left(ctx, removed...)
	return removed, nil
}
