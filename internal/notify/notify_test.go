package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// collectSender records every delivered job.
type collectSender struct {
	mu   sync.Mutex
	jobs []Job
}

func (s *collectSender) Send(_ context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *collectSender) delivered() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Job(nil), s.jobs...)
}

type failingSender struct{}

func (failingSender) Send(context.Context, Job) error {
	return errors.New("provider down")
}

func TestDispatcher_DeliversJobs(t *testing.T) {
	sender := &collectSender{}
	d := NewDispatcher(sender, 2, 16)

	d.Enqueue(7, "Picked up", "Your child has been picked up by the bus.")
	d.Enqueue(8, "Dropped off", "Your child has been dropped off at home.")
	d.Close()

	jobs := sender.delivered()
	if len(jobs) != 2 {
		t.Fatalf("delivered %d jobs, want 2", len(jobs))
	}
	seen := map[uint]bool{}
	for _, j := range jobs {
		if j.ID == "" {
			t.Errorf("job without id: %+v", j)
		}
		seen[j.RecipientID] = true
	}
	if !seen[7] || !seen[8] {
		t.Errorf("recipients = %v, want 7 and 8", seen)
	}
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	d := NewDispatcher(failingSender{}, 1, 4)

	// Must not panic or block; the failure is logged and dropped.
	d.Enqueue(1, "t", "m")
	d.Close()
}

func TestDispatcher_NilIsSafe(t *testing.T) {
	var d *Dispatcher
	d.Enqueue(1, "t", "m") // no-op
}

func TestDispatcher_DefaultsApplied(t *testing.T) {
	d := NewDispatcher(nil, 0, 0)
	d.Enqueue(1, "t", "m")
	d.Close()
}
