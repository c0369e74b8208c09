package logic

import (
	"context"
	"errors"
	"fed_courier/dal"
	"fed_courier/dto"
	"fed_courier/shared"
	"fmt"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../mocks/mock_follow_manager.go -package mocks fed_courier/logic IFollowManager

// IFollowManager runs the follow lifecycle and fans activities out to accepted followers.
type IFollowManager interface {
	RequestFollow(ctx context.Context, followerName, followedUrl string) (*dal.Follow, error)
	ReceiveFollow(follower *dal.Actor, followedName, requestId string) (*dal.Follow, error)
	AcceptFollow(followerId, followedId int) (*dal.Follow, error)
	RejectFollow(followerId, followedId int) (*dal.Follow, error)
	Unfollow(followerId, followedId int) error
	Broadcast(ctx context.Context, actorName, actionType string, object any) (int, error)
	ListFollows(query *dal.FollowQuery) ([]*dal.Follow, int, error)
	SetRedundancyAllowed(followerId, followedId int, allowed bool) error
}

type followManager struct {
	cfg      *shared.Config
	logger   shared.ILogger
	repo     dal.IRepo
	adir     IActorDirectory
	envelope IEnvelope
	queue    IDeliveryQueue
}

func NewFollowManager(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	adir IActorDirectory,
	envelope IEnvelope,
	queue IDeliveryQueue,
) IFollowManager {
	return &followManager{cfg, logger, repo, adir, envelope, queue}
}

// followObject is the Follow activity as referenced from Accept, Reject and Undo.
func followObject(follow *dal.Follow, follower, followed *dal.Actor) *dto.ActivityOut {
	return &dto.ActivityOut{
		Id:     follow.RequestId,
		Type:   "Follow",
		Actor:  follower.ActorUrl,
		Object: followed.ActorUrl,
	}
}

func (fm *followManager) RequestFollow(ctx context.Context, followerName, followedUrl string) (*dal.Follow, error) {

	follower, err := fm.adir.GetLocal(followerName)
	if err != nil {
		return nil, err
	}
	followed, err := fm.adir.Resolve(ctx, followedUrl)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknownActor, followedUrl, err)
	}
	if followed.Id == follower.Id {
		return nil, errors.New("an actor cannot follow itself")
	}

	existing, err := fm.repo.GetFollow(follower.Id, followed.Id)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.State == dal.FollowAccepted {
		return existing, nil
	}

	act, err := fm.envelope.BuildActivity("Follow", follower, followed.ActorUrl, []*dal.Actor{followed})
	if err != nil {
		fm.logger.Errorf("Dropping Follow from %s to %s: %v", follower.ActorUrl, followed.ActorUrl, err)
		return nil, err
	}

	follow, isNew, err := fm.repo.AddFollowIfNew(&dal.Follow{
		FollowerId: follower.Id,
		FollowedId: followed.Id,
		State:      dal.FollowPending,
		RequestId:  act.Id,
	})
	if err != nil {
		return nil, err
	}
	if !isNew {
		// Re-request: rejected goes back to pending; pending gets the new request ID
		var changed bool
		changed, err = fm.repo.SetFollowState(follower.Id, followed.Id, dal.FollowPending, act.Id,
			dal.FollowPending, dal.FollowRejected)
		if err != nil {
			return nil, err
		}
		if !changed {
			return fm.repo.GetFollow(follower.Id, followed.Id)
		}
		if follow, err = fm.repo.GetFollow(follower.Id, followed.Id); err != nil {
			return nil, err
		}
	}

	if _, err = fm.queue.Enqueue(follower, followed.Inbox, act, followed.Id); err != nil {
		return nil, err
	}
	fm.logger.Infof("%s requested to follow %s", follower.Handle(), followed.Handle())
	return follow, nil
}

func (fm *followManager) ReceiveFollow(follower *dal.Actor, followedName, requestId string) (*dal.Follow, error) {

	followed, err := fm.adir.GetLocal(followedName)
	if err != nil {
		return nil, err
	}

	follow, isNew, err := fm.repo.AddFollowIfNew(&dal.Follow{
		FollowerId: follower.Id,
		FollowedId: followed.Id,
		State:      dal.FollowPending,
		RequestId:  requestId,
	})
	if err != nil {
		return nil, err
	}
	if !isNew && follow.State == dal.FollowRejected {
		// Asking again after a rejection
		if _, err = fm.repo.SetFollowState(follower.Id, followed.Id, dal.FollowPending, requestId,
			dal.FollowRejected); err != nil {
			return nil, err
		}
	} else if !isNew && requestId != "" && follow.RequestId != requestId {
		if _, err = fm.repo.SetFollowState(follower.Id, followed.Id, follow.State, requestId, follow.State); err != nil {
			return nil, err
		}
	}
	fm.logger.Infof("Follow request from %s to %s", follower.ActorUrl, followed.Handle())

	if !fm.cfg.AutoAcceptFollows() {
		return fm.repo.GetFollow(follower.Id, followed.Id)
	}
	if !isNew && follow.State == dal.FollowAccepted {
		// Repeated Follow for an accepted edge: confirm again
		if follow, err = fm.repo.GetFollow(follower.Id, followed.Id); err != nil {
			return nil, err
		}
		return follow, fm.sendVerdict("Accept", follow, follower, followed)
	}
	return fm.AcceptFollow(follower.Id, followed.Id)
}

func (fm *followManager) getEdge(followerId, followedId int) (*dal.Follow, *dal.Actor, *dal.Actor, error) {
	follow, err := fm.repo.GetFollow(followerId, followedId)
	if err != nil {
		return nil, nil, nil, err
	}
	if follow == nil {
		return nil, nil, nil, ErrFollowNotFound
	}
	follower, err := fm.adir.GetById(followerId)
	if err != nil {
		return nil, nil, nil, err
	}
	followed, err := fm.adir.GetById(followedId)
	if err != nil {
		return nil, nil, nil, err
	}
	return follow, follower, followed, nil
}

// sendVerdict tells a remote follower about an Accept or Reject by one of our actors.
func (fm *followManager) sendVerdict(verdict string, follow *dal.Follow, follower, followed *dal.Actor) error {
	if !followed.IsLocal || follower.IsLocal {
		return nil
	}
	act, err := fm.envelope.BuildActivity(verdict, followed, followObject(follow, follower, followed),
		[]*dal.Actor{follower})
	if err != nil {
		fm.logger.Errorf("Dropping %s to %s: %v", verdict, follower.ActorUrl, err)
		return err
	}
	_, err = fm.queue.Enqueue(followed, follower.Inbox, act, follower.Id)
	return err
}

func (fm *followManager) transition(followerId, followedId int, to dal.FollowState,
	verdict string, from ...dal.FollowState) (*dal.Follow, error) {

	follow, follower, followed, err := fm.getEdge(followerId, followedId)
	if err != nil {
		return nil, err
	}
	if follow.State == to {
		return follow, nil
	}

	changed, err := fm.repo.SetFollowState(followerId, followedId, to, "", from...)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Edge moved or vanished in the meantime
		follow, err = fm.repo.GetFollow(followerId, followedId)
		if err != nil {
			return nil, err
		}
		if follow == nil {
			return nil, ErrFollowNotFound
		}
		return follow, nil
	}
	fm.logger.Infof("Follow %s -> %s is now %s", follower.ActorUrl, followed.ActorUrl, to)

	if to == dal.FollowRejected {
		if _, err = fm.queue.CancelBetween(followerId, followedId); err != nil {
			return nil, err
		}
	}
	if follow, err = fm.repo.GetFollow(followerId, followedId); err != nil {
		return nil, err
	}
	if err = fm.sendVerdict(verdict, follow, follower, followed); err != nil && !errors.Is(err, ErrSigning) {
		return nil, err
	}
	return follow, nil
}

func (fm *followManager) AcceptFollow(followerId, followedId int) (*dal.Follow, error) {
	return fm.transition(followerId, followedId, dal.FollowAccepted, "Accept",
		dal.FollowPending, dal.FollowRejected)
}

func (fm *followManager) RejectFollow(followerId, followedId int) (*dal.Follow, error) {
	return fm.transition(followerId, followedId, dal.FollowRejected, "Reject",
		dal.FollowPending, dal.FollowAccepted)
}

func (fm *followManager) Unfollow(followerId, followedId int) error {

	follow, follower, followed, err := fm.getEdge(followerId, followedId)
	if errors.Is(err, ErrFollowNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err = fm.repo.DeleteFollow(followerId, followedId); err != nil {
		return err
	}
	if _, err = fm.queue.CancelBetween(followerId, followedId); err != nil {
		return err
	}
	fm.logger.Infof("%s unfollowed %s", follower.ActorUrl, followed.ActorUrl)

	if !follower.IsLocal || followed.IsLocal {
		return nil
	}
	act, err := fm.envelope.BuildActivity("Undo", follower, followObject(follow, follower, followed),
		[]*dal.Actor{followed})
	if err != nil {
		fm.logger.Errorf("Dropping Undo to %s: %v", followed.ActorUrl, err)
		return nil
	}
	_, err = fm.queue.Enqueue(follower, followed.Inbox, act, followed.Id)
	return err
}

func (fm *followManager) Broadcast(ctx context.Context, actorName, actionType string, object any) (int, error) {

	sender, err := fm.adir.GetLocal(actorName)
	if err != nil {
		return 0, err
	}
	followers, err := fm.repo.GetAcceptedFollowers(sender.Id)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, follower := range followers {
		if ctx.Err() != nil {
			return enqueued, ctx.Err()
		}
		act, err := fm.envelope.BuildActivity(actionType, sender, object, []*dal.Actor{follower})
		if err != nil {
			fm.logger.Errorf("Dropping %s from %s: %v", actionType, sender.Handle(), err)
			return enqueued, err
		}
		job, err := fm.queue.EnqueueForFollower(sender, follower, act)
		if err != nil {
			return enqueued, err
		}
		if job != nil {
			enqueued += 1
		}
	}
	fm.logger.Infof("Broadcast %s from %s to %d followers", actionType, sender.Handle(), enqueued)
	return enqueued, nil
}

func (fm *followManager) ListFollows(query *dal.FollowQuery) ([]*dal.Follow, int, error) {
	return fm.repo.ListFollows(query)
}

func (fm *followManager) SetRedundancyAllowed(followerId, followedId int, allowed bool) error {
	changed, err := fm.repo.SetRedundancyAllowed(followerId, followedId, allowed)
	if err != nil {
		return err
	}
	if !changed {
		return ErrFollowNotFound
	}
	return nil
}
