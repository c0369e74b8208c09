package logic

import (
	"context"
	"encoding/json"
	"errors"
	"fed_courier/dal"
	"fed_courier/dto"
	"fed_courier/shared"
	"fmt"
	"regexp"
	"time"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../mocks/mock_inbox.go -package mocks fed_courier/logic IInbox

type IInbox interface {
	// VerifyForwarded checks the embedded signature of an activity relayed by someone other than its actor.
	VerifyForwarded(ctx context.Context, actBase *dto.ActivityInBase, bodyBytes []byte) (*dal.Actor, string, error)
	HandleFollow(receivingUser string, sender *dal.Actor, bodyBytes []byte) (string, error)
	HandleUndo(receivingUser string, sender *dal.Actor, bodyBytes []byte) (string, error)
	HandleAccept(sender *dal.Actor, bodyBytes []byte) (string, error)
	HandleReject(sender *dal.Actor, bodyBytes []byte) (string, error)
	HandleCreateOrUpdate(actBase *dto.ActivityInBase, sender *dal.Actor, bodyBytes []byte) (string, error)
	HandleDelete(actBase *dto.ActivityInBase, sender *dal.Actor) (string, error)
}

type inbox struct {
	cfg             *shared.Config
	logger          shared.ILogger
	idb             shared.IdBuilder
	repo            dal.IRepo
	metrics         IMetrics
	adir            IActorDirectory
	envelope        IEnvelope
	follows         IFollowManager
	health          IFollowerHealth
	reconciler      IReconciler
	reUserUrlParser *regexp.Regexp
}

func NewInbox(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	metrics IMetrics,
	adir IActorDirectory,
	envelope IEnvelope,
	follows IFollowManager,
	health IFollowerHealth,
	reconciler IReconciler,
) IInbox {
	reUserUrlParser := regexp.MustCompile("^https://" + regexp.QuoteMeta(cfg.Host) + "/u/([^/]+)/?$")
	return &inbox{cfg, logger, shared.IdBuilder{Host: cfg.Host}, repo, metrics, adir, envelope,
		follows, health, reconciler, reUserUrlParser}
}

// localActorName returns the name of the local actor at actorUrl, or "" if it is not ours.
func (ib *inbox) localActorName(actorUrl string) string {
	groups := ib.reUserUrlParser.FindStringSubmatch(actorUrl)
	if groups == nil {
		return ""
	}
	return groups[1]
}

// markHandled returns true if the activity was seen before.
func (ib *inbox) markHandled(activityId string) (bool, error) {
	if activityId == "" {
		return false, nil
	}
	alreadyHandled, err := ib.repo.MarkActivityHandled(activityId, time.Now())
	if err != nil {
		return false, err
	}
	if alreadyHandled {
		ib.logger.Infof("Activity has already been handled: %s", activityId)
	}
	return alreadyHandled, nil
}

// forgetOnError releases the claim taken by markHandled if handling failed, so a redelivery is processed.
func (ib *inbox) forgetOnError(activityId string, err *error) {
	if *err == nil || activityId == "" {
		return
	}
	if unmarkErr := ib.repo.UnmarkActivityHandled(activityId); unmarkErr != nil {
		ib.logger.Errorf("Failed to forget activity %s after error: %v", activityId, unmarkErr)
	}
}

func isOwnedBy(objectUrl string, sender *dal.Actor) bool {
	host, err := shared.GetHostName(objectUrl)
	return err == nil && host == sender.Host
}

func (ib *inbox) VerifyForwarded(
	ctx context.Context,
	actBase *dto.ActivityInBase,
	bodyBytes []byte) (*dal.Actor, string, error) {

	if actBase.Signature == nil {
		return nil, fmt.Sprintf("Activity by %s relayed without an embedded signature", actBase.Actor), nil
	}
	actor, err := ib.adir.Resolve(ctx, actBase.Actor)
	if err != nil {
		return nil, fmt.Sprintf("Failed to retrieve actor %s: %v", actBase.Actor, err), nil
	}
	if err = ib.envelope.VerifyActivity(bodyBytes, actor.PubKey); err != nil {
		return nil, fmt.Sprintf("Invalid embedded signature: %v", err), nil
	}
	return actor, "", nil
}

func (ib *inbox) HandleFollow(
	receivingUser string,
	sender *dal.Actor,
	bodyBytes []byte) (reqProblem string, err error) {

	ib.logger.Infof("Handling Follow activity from %s", sender.ActorUrl)

	reqProblem = ""
	err = nil

	var actFollow dto.ActivityIn[string]
	if jsonErr := json.Unmarshal(bodyBytes, &actFollow); jsonErr != nil {
		ib.logger.Info("Invalid JSON in Follow activity body")
		reqProblem = fmt.Sprintf("Invalid JSON: %v", jsonErr)
		return
	}

	// Object must be one of ours; on a personal inbox, the owner of that inbox
	followedName := ib.localActorName(actFollow.Object)
	if followedName == "" || (receivingUser != "" && followedName != receivingUser) {
		reqProblem = fmt.Sprintf("Follow activity sent to inbox of '%s', but object is %s", receivingUser, actFollow.Object)
		return
	}

	var alreadyHandled bool
	if alreadyHandled, err = ib.markHandled(actFollow.Id); err != nil || alreadyHandled {
		return
	}
	defer ib.forgetOnError(actFollow.Id, &err)

	if _, err = ib.follows.ReceiveFollow(sender, followedName, actFollow.Id); err != nil {
		if errors.Is(err, ErrUnknownActor) {
			return fmt.Sprintf("User does not exist: %s", followedName), nil
		}
		if errors.Is(err, ErrSigning) {
			return "", nil
		}
	}
	return
}

func (ib *inbox) HandleUndo(
	receivingUser string,
	sender *dal.Actor,
	bodyBytes []byte) (reqProblem string, err error) {

	ib.logger.Infof("Handling Undo activity from %s", sender.ActorUrl)

	reqProblem = ""
	err = nil

	var actUndo dto.ActivityIn[dto.ActivityInBase]
	if jsonErr := json.Unmarshal(bodyBytes, &actUndo); jsonErr != nil {
		ib.logger.Info("Invalid JSON in Undo activity body")
		reqProblem = fmt.Sprintf("Invalid JSON: %v", jsonErr)
		return
	}

	// Undoing what? Likes, Announces and views carry no state here
	if actUndo.Object.Type != "Follow" {
		ib.logger.Debugf("Ignoring Undo of %s", actUndo.Object.Type)
		return
	}
	if actUndo.Object.Actor != sender.ActorUrl {
		reqProblem = fmt.Sprintf("Undo Follow by %s, but follower is %s", sender.ActorUrl, actUndo.Object.Actor)
		return
	}

	followedUrl := dto.GetIdOrString(actUndo.Object.Object)
	followedName := ib.localActorName(followedUrl)
	if followedName == "" || (receivingUser != "" && followedName != receivingUser) {
		reqProblem = fmt.Sprintf("Undo Follow sent to '%s' but object is %s", receivingUser, followedUrl)
		return
	}

	var alreadyHandled bool
	if alreadyHandled, err = ib.markHandled(actUndo.Id); err != nil || alreadyHandled {
		return
	}
	defer ib.forgetOnError(actUndo.Id, &err)

	var followed *dal.Actor
	if followed, err = ib.adir.GetLocal(followedName); err != nil {
		if errors.Is(err, ErrUnknownActor) {
			return fmt.Sprintf("User does not exist: %s", followedName), nil
		}
		return
	}
	err = ib.follows.Unfollow(sender.Id, followed.Id)
	return
}

// followVerdict handles Accept and Reject of a Follow sent by one of our actors.
func (ib *inbox) followVerdict(
	verdict string,
	sender *dal.Actor,
	bodyBytes []byte,
	apply func(followerId, followedId int) (*dal.Follow, error)) (reqProblem string, err error) {

	ib.logger.Infof("Handling %s activity from %s", verdict, sender.ActorUrl)

	var act dto.ActivityIn[any]
	if jsonErr := json.Unmarshal(bodyBytes, &act); jsonErr != nil {
		return fmt.Sprintf("Invalid JSON: %v", jsonErr), nil
	}

	var follow dto.ActivityInBase
	objMap, ok := act.Object.(map[string]interface{})
	if !ok {
		return fmt.Sprintf("%s must embed the Follow it answers", verdict), nil
	}
	objBytes, _ := json.Marshal(objMap)
	if jsonErr := json.Unmarshal(objBytes, &follow); jsonErr != nil || follow.Type != "Follow" {
		return fmt.Sprintf("%s object is not a Follow", verdict), nil
	}
	if dto.GetIdOrString(follow.Object) != sender.ActorUrl {
		return fmt.Sprintf("%s by %s for a Follow of %v", verdict, sender.ActorUrl, follow.Object), nil
	}
	followerName := ib.localActorName(follow.Actor)
	if followerName == "" {
		return fmt.Sprintf("%s for a Follow by %s, who is not local", verdict, follow.Actor), nil
	}

	var alreadyHandled bool
	alreadyHandled, err = ib.markHandled(act.Id)
	if err != nil || alreadyHandled {
		return "", err
	}
	defer ib.forgetOnError(act.Id, &err)

	var follower *dal.Actor
	if follower, err = ib.adir.GetLocal(followerName); err != nil {
		if errors.Is(err, ErrUnknownActor) {
			return fmt.Sprintf("User does not exist: %s", followerName), nil
		}
		return "", err
	}
	if _, err = apply(follower.Id, sender.Id); err != nil {
		if errors.Is(err, ErrFollowNotFound) {
			return fmt.Sprintf("No follow from %s to %s", follower.ActorUrl, sender.ActorUrl), nil
		}
		return "", err
	}
	return "", nil
}

func (ib *inbox) HandleAccept(sender *dal.Actor, bodyBytes []byte) (string, error) {
	return ib.followVerdict("Accept", sender, bodyBytes, ib.follows.AcceptFollow)
}

func (ib *inbox) HandleReject(sender *dal.Actor, bodyBytes []byte) (string, error) {
	return ib.followVerdict("Reject", sender, bodyBytes, ib.follows.RejectFollow)
}

func (ib *inbox) HandleCreateOrUpdate(
	actBase *dto.ActivityInBase,
	sender *dal.Actor,
	bodyBytes []byte) (reqProblem string, err error) {

	ib.logger.Infof("Handling %s activity from %s", actBase.Type, sender.ActorUrl)

	objMap, ok := actBase.Object.(map[string]interface{})
	if !ok {
		return fmt.Sprintf("%s must embed its object", actBase.Type), nil
	}
	objBytes, _ := json.Marshal(objMap)

	var obj dto.RemoteObject
	if err = json.Unmarshal(objBytes, &obj); err != nil {
		return fmt.Sprintf("Invalid object: %v", err), nil
	}
	if obj.Id == "" {
		return "Object has no id", nil
	}

	var alreadyHandled bool
	if alreadyHandled, err = ib.markHandled(actBase.Id); err != nil || alreadyHandled {
		return
	}
	defer ib.forgetOnError(actBase.Id, &err)

	if obj.Type == "CacheFile" {
		return ib.handleCacheFile(sender, objBytes)
	}

	if !isOwnedBy(obj.Id, sender) {
		return fmt.Sprintf("Object %s does not belong to %s", obj.Id, sender.ActorUrl), nil
	}
	_, err = ib.reconciler.MergeObject(&obj, objBytes)
	return
}

// handleCacheFile records that a remote instance keeps a copy of one of our videos.
func (ib *inbox) handleCacheFile(sender *dal.Actor, objBytes []byte) (string, error) {

	var cacheFile dto.CacheFile
	if err := json.Unmarshal(objBytes, &cacheFile); err != nil {
		return fmt.Sprintf("Invalid CacheFile: %v", err), nil
	}
	if host, err := shared.GetHostName(cacheFile.Object); err != nil || host != ib.cfg.Host {
		return fmt.Sprintf("CacheFile for video %s that is not ours", cacheFile.Object), nil
	}

	follows, _, err := ib.repo.ListFollows(&dal.FollowQuery{
		ActorId: sender.Id,
		State:   dal.FollowAccepted,
		Limit:   1000,
	})
	if err != nil {
		return "", err
	}
	allowed := false
	for _, f := range follows {
		if f.RedundancyAllowed && f.Followed.IsLocal {
			allowed = true
			break
		}
	}
	if !allowed {
		ib.logger.Infof("Ignoring CacheFile from %s; redundancy not allowed", sender.ActorUrl)
		return "", nil
	}

	expires := parseTime(cacheFile.Expires)
	if expires.IsZero() {
		expires = time.Now().UTC().Add(48 * time.Hour)
	}
	return "", ib.repo.AddRedundancy(&dal.Redundancy{
		VideoUrl:  cacheFile.Object,
		ActorId:   sender.Id,
		SizeBytes: cacheFile.SizeBytes,
		ExpiresAt: expires,
	})
}

func (ib *inbox) HandleDelete(actBase *dto.ActivityInBase, sender *dal.Actor) (reqProblem string, err error) {

	ib.logger.Infof("Handling Delete activity from %s", sender.ActorUrl)

	objectUrl := dto.GetIdOrString(actBase.Object)
	if objectUrl == "" {
		return "Delete has no object", nil
	}
	if !isOwnedBy(objectUrl, sender) {
		return fmt.Sprintf("Object %s does not belong to %s", objectUrl, sender.ActorUrl), nil
	}

	var alreadyHandled bool
	if alreadyHandled, err = ib.markHandled(actBase.Id); err != nil || alreadyHandled {
		return
	}
	defer ib.forgetOnError(actBase.Id, &err)

	// Account deleted: drop everything it had with us
	if objectUrl == sender.ActorUrl {
		_, err = ib.health.Prune(sender.Id)
		return
	}
	err = ib.reconciler.DeleteObject(objectUrl)
	return
}
