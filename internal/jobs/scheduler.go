package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"edupanel/internal/config"
	"edupanel/internal/queue"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

type Scheduler struct {
	cron  *cron.Cron
	queue Enqueuer
	cfg   config.JobsConfig
	log   zerolog.Logger
}

func NewScheduler(q Enqueuer, cfg config.JobsConfig, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:  c,
		queue: q,
		cfg:   cfg,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.enqueue(queue.TaskSweepUploads)); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.ExpireSchedule, s.enqueue(queue.TaskExpireSubscription)); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) enqueue(taskType string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.queue.Enqueue(ctx, queue.Task{Type: taskType}); err != nil {
			s.log.Error().Err(err).Str("type", taskType).Msg("enqueue scheduled task failed")
		}
	}
}
