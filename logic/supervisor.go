package logic

import (
	"context"
	"fed_courier/shared"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
	"log/slog"
	"time"
)

const (
	supervisorFailureThreshold = 5.0
	supervisorFailureDecay     = 30.0
	supervisorFailureBackoff   = 15 * time.Second
	supervisorShutdownTimeout  = 10 * time.Second
)

// Supervisor runs the background services (delivery workers, queue janitor, profiler) under a suture tree.
type Supervisor struct {
	logger shared.ILogger
	root   *suture.Supervisor
	cancel context.CancelFunc
	done   <-chan error
}

func NewSupervisor(logger shared.ILogger, slogger *slog.Logger, pool IDeliveryPool, prof *Profiler) *Supervisor {

	handler := &sutureslog.Handler{Logger: slogger}

	root := suture.New("fed-courier", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: supervisorFailureThreshold,
		FailureDecay:     supervisorFailureDecay,
		FailureBackoff:   supervisorFailureBackoff,
		Timeout:          supervisorShutdownTimeout,
	})

	delivery := suture.New("delivery", suture.Spec{
		FailureThreshold: supervisorFailureThreshold,
		FailureDecay:     supervisorFailureDecay,
		FailureBackoff:   supervisorFailureBackoff,
		Timeout:          supervisorShutdownTimeout,
	})
	for _, svc := range pool.Services() {
		delivery.Add(svc)
	}
	root.Add(delivery)
	if prof != nil {
		root.Add(prof)
	}

	return &Supervisor{logger: logger, root: root}
}

func (s *Supervisor) Start() {
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.done = s.root.ServeBackground(ctx)
	s.logger.Info("Background services started")
}

func (s *Supervisor) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
		s.logger.Info("Background services stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
