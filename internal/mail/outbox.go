package mail

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// sendTimeout bounds one delivery attempt, from dial to QUIT.
const sendTimeout = 30 * time.Second

// Job is a queued email. When To is empty the recipient is resolved from
// UserID through the Directory.
type Job struct {
	UserID   string
	To       string
	Subject  string
	Heading  string
	Body     string
	LinkPath string
	LinkText string
}

// Directory resolves a user's email address.
type Directory interface {
	EmailForUser(ctx context.Context, userID string) (string, error)
}

type Stats struct {
	Sent    int64
	Failed  int64
	Dropped int64
}

// Outbox decouples email delivery from the request that caused it. Enqueue
// never blocks; failures are logged and counted, never returned to callers.
type Outbox struct {
	sender Sender
	dir    Directory
	from   string
	appURL string
	now    func() time.Time

	jobs chan Job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	sent    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

func NewOutbox(sender Sender, dir Directory, from, appURL string, queue int) *Outbox {
	if queue < 1 {
		queue = 1
	}
	return &Outbox{
		sender: sender,
		dir:    dir,
		from:   from,
		appURL: appURL,
		now:    time.Now,
		jobs:   make(chan Job, queue),
	}
}

// Start launches the delivery workers.
func (o *Outbox) Start(workers int) {
	for i := 0; i < workers; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for job := range o.jobs {
				o.deliver(job)
			}
		}()
	}
}

// Enqueue queues job and reports whether it was accepted.
func (o *Outbox) Enqueue(job Job) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		o.dropped.Add(1)
		return false
	}
	select {
	case o.jobs <- job:
		return true
	default:
		o.dropped.Add(1)
		return false
	}
}

// Close stops accepting jobs and waits for queued ones to be delivered.
func (o *Outbox) Close() {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.jobs)
	}
	o.mu.Unlock()

	o.wg.Wait()
}

func (o *Outbox) Stats() Stats {
	return Stats{
		Sent:    o.sent.Load(),
		Failed:  o.failed.Load(),
		Dropped: o.dropped.Load(),
	}
}

func (o *Outbox) deliver(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := o.send(ctx, job); err != nil {
		o.failed.Add(1)
		log.Printf("[WARN] email delivery failed user_id=%s subject=%q: %v", job.UserID, job.Subject, err)
		return
	}
	o.sent.Add(1)
}

func (o *Outbox) send(ctx context.Context, job Job) error {
	to := job.To
	if to == "" {
		if o.dir == nil {
			return fmt.Errorf("no recipient for user %s", job.UserID)
		}
		var err error
		to, err = o.dir.EmailForUser(ctx, job.UserID)
		if err != nil {
			return fmt.Errorf("resolving recipient: %w", err)
		}
	}

	msg, err := Compose(o.from, Message{
		To:       to,
		Subject:  job.Subject,
		Heading:  job.Heading,
		Body:     job.Body,
		Link:     o.link(job.LinkPath),
		LinkText: job.LinkText,
		Date:     o.now(),
	})
	if err != nil {
		return err
	}

	return o.sender.Send(ctx, o.from, []string{to}, msg)
}

func (o *Outbox) link(path string) string {
	if path == "" {
		return ""
	}
	return o.appURL + path
}
