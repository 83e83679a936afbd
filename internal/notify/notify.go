// Package notify is the fire-and-forget notification boundary. Jobs go
// through a bounded queue worked by a fixed pool; a slow or failing
// provider can drop notifications but can never stall or fail the
// mutation that produced them.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	logrus "github.com/sirupsen/logrus"
)

// Job is one notification to one recipient.
type Job struct {
	ID          string
	RecipientID uint
	Title       string
	Message     string
}

// Sender delivers a single notification. Implementations talk to the
// actual push/email provider.
type Sender interface {
	Send(ctx context.Context, job Job) error
}

// LogSender is the default Sender: it just records the notification.
// Useful in development and as the fallback when no provider is wired.
type LogSender struct{}

func (LogSender) Send(_ context.Context, job Job) error {
	logrus.WithFields(logrus.Fields{
		"job_id":    job.ID,
		"recipient": job.RecipientID,
		"title":     job.Title,
	}).Info("notify: delivered")
	return nil
}

// Dispatcher fans notifications out to a Sender from a worker pool.
type Dispatcher struct {
	jobs    chan Job
	sender  Sender
	timeout time.Duration
	wg      sync.WaitGroup

	closeOnce sync.Once
}

// NewDispatcher starts workers draining a queue of the given size.
// Sends get a short per-job timeout so a hung provider only costs one
// worker slot for that long.
func NewDispatcher(sender Sender, workers, queueSize int) *Dispatcher {
	if sender == nil {
		sender = LogSender{}
	}
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}
	d := &Dispatcher{
		jobs:    make(chan Job, queueSize),
		sender:  sender,
		timeout: 5 * time.Second,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for job := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sender.Send(ctx, job); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"job_id":    job.ID,
				"recipient": job.RecipientID,
			}).Warn("notify: delivery failed, dropping")
		}
		cancel()
	}
}

// Enqueue queues a notification without ever blocking the caller. A
// saturated queue drops the job and logs it. Safe on a nil dispatcher
// so callers without a configured provider lose nothing but the send.
func (d *Dispatcher) Enqueue(recipientID uint, title, message string) {
	if d == nil {
		return
	}
	job := Job{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
	}
	select {
	case d.jobs <- job:
	default:
		logrus.WithFields(logrus.Fields{
			"recipient": recipientID,
			"title":     title,
		}).Warn("notify: queue full, dropping notification")
	}
}

// Close stops accepting jobs and waits for in-flight sends to finish.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}
