package logic

import (
	"fed_courier/dal"
	"fed_courier/shared"
	"time"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../mocks/mock_follower_health.go -package mocks fed_courier/logic IFollowerHealth

// IFollowerHealth tracks consecutive permanent delivery failures per remote follower
// and removes followers that stay unreachable.
type IFollowerHealth interface {
	OnDeliverySuccess(actorId int) error
	OnDeliveryFailurePermanent(actorId int) (streak int, err error)
	ShouldPrune(actorId int) (bool, error)
	Prune(actorId int) (*dal.PruneResult, error)
	List(offset, limit int) ([]*dal.FollowerHealth, int, error)
}

type followerHealth struct {
	cfg     *shared.Config
	logger  shared.ILogger
	repo    dal.IRepo
	metrics IMetrics
}

func NewFollowerHealth(cfg *shared.Config, logger shared.ILogger, repo dal.IRepo, metrics IMetrics) IFollowerHealth {
	return &followerHealth{cfg, logger, repo, metrics}
}

func (fh *followerHealth) OnDeliverySuccess(actorId int) error {
	tracked, err := fh.repo.RecordDeliverySuccess(actorId, time.Now())
	if err != nil {
		return err
	}
	if !tracked {
		fh.logger.Debugf("Delivery success for actor #%d discarded; not a follower", actorId)
	}
	return nil
}

func (fh *followerHealth) OnDeliveryFailurePermanent(actorId int) (int, error) {
	streak, tracked, err := fh.repo.RecordDeliveryFailure(actorId, time.Now())
	if err != nil {
		return 0, err
	}
	if !tracked {
		fh.logger.Debugf("Delivery failure for actor #%d discarded; not a follower", actorId)
		return 0, nil
	}
	fh.logger.Infof("Follower #%d failure streak is now %d", actorId, streak)
	return streak, nil
}

func (fh *followerHealth) ShouldPrune(actorId int) (bool, error) {
	rec, err := fh.repo.GetFollowerHealth(actorId)
	if err != nil || rec == nil {
		return false, err
	}
	return rec.FailureStreak >= fh.cfg.Health.PruneThreshold, nil
}

func (fh *followerHealth) Prune(actorId int) (*dal.PruneResult, error) {
	res, err := fh.repo.PruneFollower(actorId, time.Now())
	if err != nil {
		return nil, err
	}
	if res.IsNoop() {
		return res, nil
	}
	fh.logger.Infof("Pruned unreachable follower #%d: %d follows removed, %d jobs cancelled, %d redundancies revoked",
		actorId, res.FollowsRemoved, res.JobsCancelled, res.RedundanciesRevoked)
	fh.metrics.FollowerPruned()
	return res, nil
}

func (fh *followerHealth) List(offset, limit int) ([]*dal.FollowerHealth, int, error) {
	return fh.repo.ListFollowerHealth(offset, limit)
}
