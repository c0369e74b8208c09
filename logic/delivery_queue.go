package logic

import (
	"context"
	"fed_courier/dal"
	"fed_courier/shared"
	"fmt"
	"sync"
	"time"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../mocks/mock_delivery_queue.go -package mocks fed_courier/logic IDeliveryQueue

// IDeliveryQueue is the persistent per-destination work queue of outgoing activities.
type IDeliveryQueue interface {
	Enqueue(sender *dal.Actor, inboxUrl string, act *SignedActivity, targetActorId int) (*dal.DeliveryJob, error)
	// EnqueueForFollower queues the activity for follower only while it has an accepted follow on sender.
	// Returns a nil job if there is no such follow.
	EnqueueForFollower(sender, follower *dal.Actor, act *SignedActivity) (*dal.DeliveryJob, error)
	Lease(workerId string, max int) ([]*dal.DeliveryJob, error)
	Complete(jobId int64, workerId string) error
	Fail(jobId int64, workerId string, cause error) (*dal.DeliveryJob, error)
	CancelForTarget(actorId int) (int, error)
	CancelBetween(targetId, senderId int) (int, error)
	GetJob(id int64) (*dal.DeliveryJob, error)
	ListJobs(state dal.JobState, offset, limit int, sort string) ([]*dal.DeliveryJob, int, error)
	CountByState() (map[dal.JobState]int, error)
	// WaitDrained blocks until no waiting, active or delayed job remains, or ctx is done.
	WaitDrained(ctx context.Context) error
	// Wake returns a channel that is closed on the next state change in the queue.
	Wake() <-chan struct{}
	PurgeArchived(olderThan time.Time) (int, error)
}

// notifier broadcasts to every waiter by closing the current channel and replacing it.
type notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{})}
}

func (n *notifier) wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch
}

func (n *notifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	close(n.ch)
	n.ch = make(chan struct{})
}

type deliveryQueue struct {
	cfg     *shared.Config
	logger  shared.ILogger
	repo    dal.IRepo
	health  IFollowerHealth
	metrics IMetrics
	changed *notifier
}

func NewDeliveryQueue(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	health IFollowerHealth,
	metrics IMetrics,
) IDeliveryQueue {
	return &deliveryQueue{
		cfg:     cfg,
		logger:  logger,
		repo:    repo,
		health:  health,
		metrics: metrics,
		changed: newNotifier(),
	}
}

func newJob(sender *dal.Actor, inboxUrl string, act *SignedActivity, targetActorId int) *dal.DeliveryJob {
	return &dal.DeliveryJob{
		ActivityId:   act.Id,
		ActivityType: act.Type,
		SenderId:     sender.Id,
		SendingActor: sender.Name,
		TargetId:     targetActorId,
		ToInbox:      inboxUrl,
		Payload:      act.Body,
		CreatedAt:    time.Now().UTC(),
	}
}

func (q *deliveryQueue) Enqueue(sender *dal.Actor, inboxUrl string, act *SignedActivity,
	targetActorId int) (*dal.DeliveryJob, error) {

	job := newJob(sender, inboxUrl, act, targetActorId)
	if err := q.repo.AddJob(job); err != nil {
		return nil, err
	}
	q.logger.Debugf("Enqueued %s %s to %s as job #%d", act.Type, act.Id, inboxUrl, job.Id)
	q.changed.notify()
	return job, nil
}

func (q *deliveryQueue) EnqueueForFollower(sender, follower *dal.Actor, act *SignedActivity) (*dal.DeliveryJob, error) {

	job := newJob(sender, follower.Inbox, act, follower.Id)
	added, err := q.repo.AddJobIfFollowing(sender.Id, job)
	if err != nil {
		return nil, err
	}
	if !added {
		q.logger.Debugf("Not enqueuing %s for %s; no accepted follow", act.Id, follower.ActorUrl)
		return nil, nil
	}
	q.changed.notify()
	return job, nil
}

func (q *deliveryQueue) Lease(workerId string, max int) ([]*dal.DeliveryJob, error) {
	now := time.Now()
	leaseUntil := now.Add(time.Duration(q.cfg.Delivery.LeaseTimeoutMsec) * time.Millisecond)
	jobs, err := q.repo.LeaseJobs(workerId, max, now, leaseUntil)
	if err != nil {
		return nil, err
	}
	if len(jobs) != 0 {
		q.changed.notify()
	}
	return jobs, nil
}

func (q *deliveryQueue) Complete(jobId int64, workerId string) error {

	job, err := q.repo.CompleteJob(jobId, workerId, time.Now())
	if err != nil {
		return err
	}
	if job == nil {
		q.logger.Warnf("Job #%d completed by %s, but it is no longer leased by it; outcome discarded", jobId, workerId)
		return nil
	}
	q.changed.notify()
	q.metrics.DeliveryOutcome(outcomeCompleted)

	if job.TargetId != 0 {
		if err = q.health.OnDeliverySuccess(job.TargetId); err != nil {
			q.logger.Errorf("Failed to record delivery success for actor #%d: %v", job.TargetId, err)
		}
	}
	return nil
}

func (q *deliveryQueue) Fail(jobId int64, workerId string, cause error) (*dal.DeliveryJob, error) {

	base := time.Duration(q.cfg.Delivery.BackoffBaseMsec) * time.Millisecond
	maxDelay := time.Duration(q.cfg.Delivery.BackoffCapMsec) * time.Millisecond
	nextAttempt := func(attempts int) time.Time {
		return time.Now().Add(backoff(attempts, base, maxDelay))
	}

	errMsg := "unknown error"
	if cause != nil {
		errMsg = shared.TruncateWithEllipsis(cause.Error(), 1024)
	}

	job, err := q.repo.FailJob(jobId, workerId, errMsg, q.cfg.Delivery.RetryLimit, nextAttempt, time.Now())
	if err != nil {
		return nil, err
	}
	if job == nil {
		q.logger.Warnf("Job #%d failed by %s, but it is no longer leased by it; outcome discarded", jobId, workerId)
		return nil, nil
	}
	q.changed.notify()

	if job.State == dal.JobDelayed {
		q.metrics.DeliveryOutcome(outcomeRetry)
		q.logger.Infof("Delivery of job #%d to %s failed (attempt %d), retrying at %s: %s",
			job.Id, job.ToInbox, job.Attempts, job.NextAttemptAt.Format(time.RFC3339), errMsg)
		return job, nil
	}

	q.metrics.DeliveryOutcome(outcomeFailed)
	q.logger.Warnf("Delivery of job #%d to %s failed permanently after %d attempts: %s",
		job.Id, job.ToInbox, job.Attempts, errMsg)

	if job.TargetId != 0 {
		if err = q.onPermanentFailure(job.TargetId); err != nil {
			q.logger.Errorf("Failed to record delivery failure for actor #%d: %v", job.TargetId, err)
		}
	}
	return job, nil
}

func (q *deliveryQueue) onPermanentFailure(actorId int) error {
	if _, err := q.health.OnDeliveryFailurePermanent(actorId); err != nil {
		return err
	}
	prune, err := q.health.ShouldPrune(actorId)
	if err != nil || !prune {
		return err
	}
	res, err := q.health.Prune(actorId)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}
	if res.JobsCancelled != 0 {
		q.changed.notify()
	}
	return nil
}

func (q *deliveryQueue) CancelForTarget(actorId int) (int, error) {
	return q.CancelBetween(actorId, 0)
}

func (q *deliveryQueue) CancelBetween(targetId, senderId int) (int, error) {
	count, err := q.repo.CancelJobs(targetId, senderId, time.Now())
	if err != nil {
		return 0, err
	}
	if count != 0 {
		q.logger.Infof("Cancelled %d pending deliveries to actor #%d", count, targetId)
		q.changed.notify()
	}
	return count, nil
}

func (q *deliveryQueue) GetJob(id int64) (*dal.DeliveryJob, error) {
	job, err := q.repo.GetJob(id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (q *deliveryQueue) ListJobs(state dal.JobState, offset, limit int, sort string) ([]*dal.DeliveryJob, int, error) {
	return q.repo.ListJobs(state, offset, limit, sort)
}

func (q *deliveryQueue) CountByState() (map[dal.JobState]int, error) {
	return q.repo.CountJobsByState()
}

func (q *deliveryQueue) WaitDrained(ctx context.Context) error {
	for {
		changed := q.changed.wait()
		count, err := q.repo.CountOutstandingJobs()
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

func (q *deliveryQueue) Wake() <-chan struct{} {
	return q.changed.wait()
}

func (q *deliveryQueue) PurgeArchived(olderThan time.Time) (int, error) {
	count, err := q.repo.PurgeArchivedJobs(olderThan)
	if err != nil {
		return 0, err
	}
	if count != 0 {
		q.logger.Infof("Purged %d archived delivery jobs", count)
	}
	return count, nil
}
