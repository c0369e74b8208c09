package logic

import (
	"context"
	"errors"
	"fed_courier/dal"
	"fed_courier/shared"
	"fmt"
	"github.com/sony/gobreaker/v2"
	"github.com/thejerf/suture/v4"
	"net/http"
	"sync"
	"time"
)

const janitorInterval = time.Minute

// IDeliveryPool provides the supervised services that drain the delivery queue.
type IDeliveryPool interface {
	Services() []suture.Service
}

type deliveryPool struct {
	cfg      *shared.Config
	logger   shared.ILogger
	repo     dal.IRepo
	queue    IDeliveryQueue
	sender   IActivitySender
	metrics  IMetrics
	muCbs    sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[interface{}]
}

func NewDeliveryPool(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	queue IDeliveryQueue,
	sender IActivitySender,
	metrics IMetrics,
) IDeliveryPool {
	return &deliveryPool{
		cfg:      cfg,
		logger:   logger,
		repo:     repo,
		queue:    queue,
		sender:   sender,
		metrics:  metrics,
		breakers: make(map[string]*gobreaker.CircuitBreaker[interface{}]),
	}
}

func (pool *deliveryPool) Services() []suture.Service {
	var res []suture.Service
	for i := 0; i < pool.cfg.Delivery.PoolSize; i++ {
		res = append(res, &deliveryWorker{pool: pool, id: fmt.Sprintf("worker-%d", i+1)})
	}
	res = append(res, &queueJanitor{pool: pool})
	return res
}

// breakerCountsAsSuccess tells the breaker which outcomes show that the host is up.
func breakerCountsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, ErrSigning) {
		return true
	}
	var delErr *DeliveryError
	if errors.As(err, &delErr) {
		return delErr.Status < 500 && delErr.Status != http.StatusTooManyRequests
	}
	return false
}

func (pool *deliveryPool) getBreaker(host string) *gobreaker.CircuitBreaker[interface{}] {

	pool.muCbs.Lock()
	defer pool.muCbs.Unlock()

	if cb, ok := pool.breakers[host]; ok {
		return cb
	}
	threshold := uint32(pool.cfg.Delivery.BreakerFailures)
	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Timeout:     time.Duration(pool.cfg.Delivery.BreakerOpenSec) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			pool.logger.Infof("Circuit breaker for %s: %s -> %s", name, from.String(), to.String())
			pool.metrics.BreakerStateChanged(to.String())
		},
		IsSuccessful: breakerCountsAsSuccess,
	})
	pool.breakers[host] = cb
	return cb
}

func (pool *deliveryPool) post(ctx context.Context, job *dal.DeliveryJob) error {

	host, err := shared.GetHostName(job.ToInbox)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(pool.cfg.Delivery.RequestTimeoutMsec)*time.Millisecond)
	defer cancel()

	if pool.cfg.Delivery.BreakerFailures < 0 {
		return pool.sender.Post(ctx, job.SendingActor, job.ToInbox, job.Payload)
	}

	_, err = pool.getBreaker(host).Execute(func() (interface{}, error) {
		return nil, pool.sender.Post(ctx, job.SendingActor, job.ToInbox, job.Payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("host %s: %w", host, err)
	}
	return err
}

func (pool *deliveryPool) deliver(ctx context.Context, workerId string, job *dal.DeliveryJob) {

	pool.logger.Debugf("%s delivering job #%d (%s) to %s", workerId, job.Id, job.ActivityType, job.ToInbox)

	err := pool.post(ctx, job)

	// Shutting down: leave the job to expire its lease
	if ctx.Err() != nil {
		return
	}

	if err == nil {
		err = pool.queue.Complete(job.Id, workerId)
	} else {
		_, err = pool.queue.Fail(job.Id, workerId, err)
	}
	if err != nil {
		pool.logger.Errorf("%s failed to record outcome of job #%d: %v", workerId, job.Id, err)
	}
}

type deliveryWorker struct {
	pool *deliveryPool
	id   string
}

func (w *deliveryWorker) String() string {
	return w.id
}

func (w *deliveryWorker) Serve(ctx context.Context) error {

	cfg := &w.pool.cfg.Delivery
	idleWake := time.Duration(cfg.IdleWakeMsec) * time.Millisecond

	for {
		wake := w.pool.queue.Wake()
		jobs, err := w.pool.queue.Lease(w.id, cfg.BatchSize)
		if err != nil {
			w.pool.logger.Errorf("%s failed to lease jobs: %v", w.id, err)
		}
		for _, job := range jobs {
			w.pool.deliver(ctx, w.id, job)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if len(jobs) != 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		case <-time.After(idleWake):
		}
	}
}

// queueJanitor purges archived jobs and publishes queue gauges.
type queueJanitor struct {
	pool *deliveryPool
}

func (j *queueJanitor) String() string {
	return "queue-janitor"
}

func (j *queueJanitor) tick() {

	ttl := time.Duration(j.pool.cfg.Delivery.ArchiveTtlHours) * time.Hour
	if _, err := j.pool.queue.PurgeArchived(time.Now().Add(-ttl)); err != nil {
		j.pool.logger.Errorf("Failed to purge archived jobs: %v", err)
	}

	counts, err := j.pool.queue.CountByState()
	if err != nil {
		j.pool.logger.Errorf("Failed to count jobs: %v", err)
	} else {
		j.pool.metrics.QueueLength(counts)
	}

	followers, err := j.pool.repo.GetAcceptedFollowerCount()
	if err != nil {
		j.pool.logger.Errorf("Failed to count followers: %v", err)
	} else {
		j.pool.metrics.TotalFollowers(followers)
	}
}

func (j *queueJanitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		j.tick()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
