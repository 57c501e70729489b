package jobs

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"edupanel/internal/config"
	"edupanel/internal/queue"
)

type recordingQueue struct {
	mu    sync.Mutex
	tasks []queue.Task
}

func (r *recordingQueue) Enqueue(_ context.Context, task queue.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return nil
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&recordingQueue{}, config.JobsConfig{SweepSchedule: "not a schedule", ExpireSchedule: "0 */5 * * * *"}, zerolog.Nop())
	if err := s.Start(); err == nil {
		t.Fatalf("expected invalid schedule to fail")
	}
}

func TestSchedulerEnqueuesTasks(t *testing.T) {
	q := &recordingQueue{}
	s := NewScheduler(q, config.JobsConfig{SweepSchedule: "0 0 * * * *", ExpireSchedule: "0 */5 * * * *"}, zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	if entries := s.cron.Entries(); len(entries) != 2 {
		t.Fatalf("expected two scheduled entries, got %d", len(entries))
	}

	s.enqueue(queue.TaskSweepUploads)()
	if len(q.tasks) != 1 || q.tasks[0].Type != queue.TaskSweepUploads {
		t.Fatalf("unexpected tasks: %+v", q.tasks)
	}
}
