package logic

import (
	"fed_courier/dal"
	"fed_courier/shared"
	"github.com/prometheus/client_golang/prometheus"
	"time"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../mocks/mock_metrics.go -package mocks fed_courier/logic IMetrics,IRequestObserver

type IMetrics interface {
	StartWebRequestIn(label string) IRequestObserver
	StartApubRequestIn(label string) IRequestObserver
	StartApubRequestOut(label string) IRequestObserver
	ActivityReceived(activityType string)
	DeliveryOutcome(outcome string)
	QueueLength(counts map[dal.JobState]int)
	FollowerPruned()
	ReconcileOutcome(outcome string)
	BreakerStateChanged(toState string)
	ServiceStarted()
	TotalFollowers(count int)
}

type IRequestObserver interface {
	Finish()
}

const (
	outcomeCompleted = "completed"
	outcomeRetry     = "retry"
	outcomeFailed    = "failed"
	outcomeStale     = "stale"
	outcomeMerged    = "merged"
	outcomeUnchanged = "unchanged"
	outcomeGone      = "gone"
)

type metrics struct {
	cfg               *shared.Config
	webRequestsIn     *prometheus.HistogramVec
	apubRequestsIn    *prometheus.HistogramVec
	apubRequestsOut   *prometheus.HistogramVec
	activitiesIn      *prometheus.CounterVec
	deliveryOutcomes  *prometheus.CounterVec
	queueLength       *prometheus.GaugeVec
	followersPruned   prometheus.Counter
	reconcileOutcomes *prometheus.CounterVec
	breakerChanges    *prometheus.CounterVec
	serviceStarted    prometheus.Counter
	totalFollowers    prometheus.Gauge
}

func NewMetrics(cfg *shared.Config) IMetrics {

	res := metrics{}
	res.cfg = cfg

	res.webRequestsIn = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "web_requests_in_duration",
		Help: "Duration in seconds of API requests served.",
	}, []string{"label"})
	prometheus.Register(res.webRequestsIn)

	res.apubRequestsIn = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "apub_requests_in_duration",
		Help: "Duration in seconds of ActivityPub requests served.",
	}, []string{"label"})
	prometheus.Register(res.apubRequestsIn)

	res.apubRequestsOut = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "apub_requests_out_duration",
		Help: "Duration in seconds of ActivityPub requests made.",
	}, []string{"label"})
	prometheus.Register(res.apubRequestsOut)

	res.activitiesIn = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "activities_received",
		Help: "Number of inbound activities by type",
	}, []string{"type"})
	prometheus.Register(res.activitiesIn)

	res.deliveryOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_attempts",
		Help: "Number of delivery attempts by outcome",
	}, []string{"outcome"})
	prometheus.Register(res.deliveryOutcomes)

	res.queueLength = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "delivery_queue_length",
		Help: "Delivery jobs by state",
	}, []string{"state"})
	prometheus.Register(res.queueLength)

	res.followersPruned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "followers_pruned",
		Help: "Number of unreachable followers removed",
	})
	prometheus.Register(res.followersPruned)

	res.reconcileOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_fetches",
		Help: "Number of remote object fetches by outcome",
	}, []string{"outcome"})
	prometheus.Register(res.reconcileOutcomes)

	res.breakerChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "breaker_state_changes",
		Help: "Per-host circuit breaker transitions by target state",
	}, []string{"state"})
	prometheus.Register(res.breakerChanges)

	res.serviceStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "service_started",
		Help: "Service has started up",
	})
	prometheus.Register(res.serviceStarted)

	res.totalFollowers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "total_follower_count",
		Help: "Total accepted follower count of local actors",
	})
	prometheus.Register(res.totalFollowers)

	return &res
}

type requestObserver struct {
	label string
	start time.Time
	hgvec *prometheus.HistogramVec
}

func (ro *requestObserver) Finish() {
	now := time.Now()
	elapsed := float64(now.UnixMilli()-ro.start.UnixMilli()) / 1000.0
	ro.hgvec.WithLabelValues(ro.label).Observe(elapsed)
}

func (m *metrics) StartWebRequestIn(label string) IRequestObserver {
	return &requestObserver{label, time.Now(), m.webRequestsIn}
}

func (m *metrics) StartApubRequestIn(label string) IRequestObserver {
	return &requestObserver{label, time.Now(), m.apubRequestsIn}
}

func (m *metrics) StartApubRequestOut(label string) IRequestObserver {
	return &requestObserver{label, time.Now(), m.apubRequestsOut}
}

func (m *metrics) ActivityReceived(activityType string) {
	m.activitiesIn.WithLabelValues(activityType).Add(1)
}

func (m *metrics) DeliveryOutcome(outcome string) {
	m.deliveryOutcomes.WithLabelValues(outcome).Add(1)
}

func (m *metrics) QueueLength(counts map[dal.JobState]int) {
	for state, count := range counts {
		m.queueLength.WithLabelValues(string(state)).Set(float64(count))
	}
}

func (m *metrics) FollowerPruned() {
	m.followersPruned.Add(1)
}

func (m *metrics) ReconcileOutcome(outcome string) {
	m.reconcileOutcomes.WithLabelValues(outcome).Add(1)
}

func (m *metrics) BreakerStateChanged(toState string) {
	m.breakerChanges.WithLabelValues(toState).Add(1)
}

func (m *metrics) ServiceStarted() {
	m.serviceStarted.Add(1)
}

func (m *metrics) TotalFollowers(count int) {
	m.totalFollowers.Set(float64(count))
}
