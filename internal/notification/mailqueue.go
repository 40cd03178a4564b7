package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eventhive/utils"
)

// JobStatus is the lifecycle state of an outbound notification job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobDelivered JobStatus = "delivered"
	// JobFailed means the attempt cap was exhausted. Failed jobs stay in the
	// store for operator inspection and manual retry.
	JobFailed JobStatus = "failed"
)

// Job type tags.
const (
	TypeBidConfirmation        = "bid_confirmation"
	TypeNewBid                 = "new_bid"
	TypeAuctionWon             = "auction_won"
	TypeAuctionEndedWithWinner = "auction_ended_with_winner"
	TypeAuctionEndedNoBids     = "auction_ended_no_bids"
)

// Job is one durable outbound message. Delivery is at-least-once; recipients
// must tolerate duplicates.
type Job struct {
	JobID       string    `json:"job_id"`
	Recipient   string    `json:"recipient"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Type        string    `json:"type"`
	Priority    int       `json:"priority"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	Status      JobStatus `json:"status"`
	LastError   string    `json:"last_error,omitempty"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// Sender is the pluggable outbound transport (SMTP, SMS gateway, ...)
// supplied by a collaborator.
type Sender interface {
	Send(to, subject, body string) error
}

// JobStore persists jobs so the queue survives a process restart.
type JobStore interface {
	SaveJob(ctx context.Context, job Job) error
	ListJobs(ctx context.Context, status JobStatus) ([]Job, error)
}

// MailQueue processes outbound jobs with a bounded worker pool, exponential
// backoff and an attempt cap.
type MailQueue struct {
	sender      Sender
	store       JobStore
	workers     int
	maxAttempts int
	backoffBase time.Duration

	high   chan Job
	normal chan Job

	ctx context.Context
	wg  sync.WaitGroup
}

// NewMailQueue creates a new MailQueue instance
func NewMailQueue(sender Sender, store JobStore, workers, maxAttempts int, backoffBase time.Duration) *MailQueue {
	if workers <= 0 {
		workers = 1
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &MailQueue{
		sender:      sender,
		store:       store,
		workers:     workers,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		high:        make(chan Job, 256),
		normal:      make(chan Job, 1024),
	}
}

// Start restores persisted pending jobs and launches the worker pool. Workers
// stop when the context is cancelled; Wait blocks until they drain.
func (q *MailQueue) Start(ctx context.Context) {
	q.ctx = ctx

	restored, err := q.store.ListJobs(ctx, JobQueued)
	if err != nil {
		utils.Error("mailqueue: failed to restore pending jobs", map[string]any{"error": err.Error()})
	}
	for _, job := range restored {
		q.push(job)
	}
	if len(restored) > 0 {
		utils.Info("mailqueue: restored pending jobs", map[string]any{"count": len(restored)})
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Wait blocks until all workers have exited.
func (q *MailQueue) Wait() {
	q.wg.Wait()
}

// Enqueue persists and schedules a job, returning its id. It never blocks the
// caller: when the buffers are full the hand-off finishes on a goroutine.
func (q *MailQueue) Enqueue(job Job) string {
	if job.JobID == "" {
		job.JobID = utils.GenerateID()
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = q.maxAttempts
	}
	job.Status = JobQueued
	job.EnqueuedAt = time.Now().UTC()

	if err := q.store.SaveJob(context.Background(), job); err != nil {
		utils.Error("mailqueue: failed to persist job", map[string]any{
			"job_id": job.JobID,
			"type":   job.Type,
			"error":  err.Error(),
		})
	}

	q.push(job)
	utils.Debug("mailqueue: job enqueued", map[string]any{
		"job_id":   job.JobID,
		"type":     job.Type,
		"priority": job.Priority,
	})
	return job.JobID
}

func (q *MailQueue) push(job Job) {
	ch := q.normal
	if job.Priority > 0 {
		ch = q.high
	}
	select {
	case ch <- job:
	default:
		go func() { ch <- job }()
	}
}

func (q *MailQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		// Drain high-priority jobs first.
		select {
		case job := <-q.high:
			q.process(ctx, job)
			continue
		default:
		}
		select {
		case <-ctx.Done():
			return
		case job := <-q.high:
			q.process(ctx, job)
		case job := <-q.normal:
			q.process(ctx, job)
		}
	}
}

func (q *MailQueue) process(ctx context.Context, job Job) {
	err := q.sender.Send(job.Recipient, job.Subject, job.Body)
	job.Attempts++

	if err == nil {
		job.Status = JobDelivered
		job.LastError = ""
		q.save(ctx, job)
		utils.Info("mailqueue: job delivered", map[string]any{
			"job_id":    job.JobID,
			"type":      job.Type,
			"recipient": job.Recipient,
			"attempts":  job.Attempts,
		})
		return
	}

	job.LastError = err.Error()

	if job.Attempts >= job.MaxAttempts {
		job.Status = JobFailed
		q.save(ctx, job)
		utils.Error("mailqueue: job failed permanently", map[string]any{
			"job_id":    job.JobID,
			"type":      job.Type,
			"recipient": job.Recipient,
			"attempts":  job.Attempts,
			"error":     err.Error(),
		})
		return
	}

	q.save(ctx, job)
	delay := q.backoffBase << (job.Attempts - 1)
	utils.Warn("mailqueue: delivery failed, scheduling retry", map[string]any{
		"job_id":  job.JobID,
		"type":    job.Type,
		"attempt": job.Attempts,
		"delay":   delay.String(),
		"error":   err.Error(),
	})
	time.AfterFunc(delay, func() { q.requeue(job) })
}

func (q *MailQueue) requeue(job Job) {
	if q.ctx != nil {
		select {
		case <-q.ctx.Done():
			return
		default:
		}
	}
	q.push(job)
}

func (q *MailQueue) save(ctx context.Context, job Job) {
	if err := q.store.SaveJob(ctx, job); err != nil {
		utils.Error("mailqueue: failed to persist job state", map[string]any{
			"job_id": job.JobID,
			"status": string(job.Status),
			"error":  err.Error(),
		})
	}
}

// FailedJobs returns the terminally failed jobs for operator inspection.
func (q *MailQueue) FailedJobs(ctx context.Context) ([]Job, error) {
	return q.store.ListJobs(ctx, JobFailed)
}

// RetryFailed puts a terminally failed job back on the queue with a fresh
// attempt budget.
func (q *MailQueue) RetryFailed(ctx context.Context, jobID string) error {
	failed, err := q.store.ListJobs(ctx, JobFailed)
	if err != nil {
		return fmt.Errorf("mailqueue: list failed jobs: %w", err)
	}
	for _, job := range failed {
		if job.JobID != jobID {
			continue
		}
		job.Status = JobQueued
		job.Attempts = 0
		job.LastError = ""
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("mailqueue: requeue job %s: %w", jobID, err)
		}
		q.push(job)
		return nil
	}
	return fmt.Errorf("mailqueue: no failed job with id %s", jobID)
}
