package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"edupanel/internal/queue"
	"edupanel/internal/repository"
)

const sweepBatch = 100

type ObjectRemover interface {
	Remove(ctx context.Context, key string) error
}

type KeyReferences interface {
	ReferencesKey(ctx context.Context, key string) (bool, error)
}

type PendingUploads interface {
	Stale(ctx context.Context, cutoff time.Time, limit int64) ([]string, error)
	Forget(ctx context.Context, keys ...string) error
}

type SubscriptionExpirer interface {
	ExpireIfDue(ctx context.Context, now time.Time) (bool, error)
}

type Processor struct {
	objects       ObjectRemover
	lessons       KeyReferences
	pending       PendingUploads
	subscriptions SubscriptionExpirer
	orphanTTL     time.Duration
	now           func() time.Time
	logger        zerolog.Logger
}

func NewProcessor(objects ObjectRemover, lessons KeyReferences, pending PendingUploads, subscriptions SubscriptionExpirer, orphanTTL time.Duration, logger zerolog.Logger) *Processor {
	return &Processor{
		objects:       objects,
		lessons:       lessons,
		pending:       pending,
		subscriptions: subscriptions,
		orphanTTL:     orphanTTL,
		now:           time.Now,
		logger:        logger,
	}
}

func (p *Processor) Handle(ctx context.Context, task queue.Task) error {
	switch task.Type {
	case queue.TaskDiscardUpload:
		return p.discard(ctx, task.Key)
	case queue.TaskSweepUploads:
		return p.sweep(ctx)
	case queue.TaskExpireSubscription:
		return p.expire(ctx)
	default:
		p.logger.Warn().Str("type", task.Type).Msg("unknown task type")
		return nil
	}
}

// discard removes an uploaded object unless a lesson has claimed it.
func (p *Processor) discard(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	referenced, err := p.lessons.ReferencesKey(ctx, key)
	if err != nil {
		return fmt.Errorf("check references for %s: %w", key, err)
	}
	if referenced {
		p.logger.Debug().Str("key", key).Msg("upload is referenced, keeping")
		return p.pending.Forget(ctx, key)
	}

	if err := p.objects.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	p.logger.Info().Str("key", key).Msg("discarded orphaned upload")
	return p.pending.Forget(ctx, key)
}

func (p *Processor) sweep(ctx context.Context) error {
	keys, err := p.pending.Stale(ctx, p.now().Add(-p.orphanTTL), sweepBatch)
	if err != nil {
		return fmt.Errorf("list stale uploads: %w", err)
	}

	var errs []error
	for _, key := range keys {
		if err := p.discard(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	p.logger.Info().Int("candidates", len(keys)).Int("failed", len(errs)).Msg("upload sweep finished")
	return errors.Join(errs...)
}

func (p *Processor) expire(ctx context.Context) error {
	expired, err := p.subscriptions.ExpireIfDue(ctx, p.now())
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("expire subscription: %w", err)
	}
	if expired {
		p.logger.Info().Msg("subscription expired and deactivated")
	}
	return nil
}
