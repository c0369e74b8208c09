package logic

import (
	"context"
	"encoding/json"
	"fed_courier/dal"
	"fed_courier/dto"
	"fed_courier/shared"
	"fmt"
	"net/http"
	"strings"
	"time"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../mocks/mock_actor_directory.go -package mocks fed_courier/logic IActorDirectory

const remoteActorTtl = 24 * time.Hour

// IActorDirectory knows local actors and caches remote ones.
type IActorDirectory interface {
	CreateLocal(name string) (actor *dal.Actor, isNew bool, err error)
	GetLocal(name string) (*dal.Actor, error)
	GetById(id int) (*dal.Actor, error)
	// Resolve returns a remote actor from the cache, fetching it if missing or expired.
	Resolve(ctx context.Context, actorUrl string) (*dal.Actor, error)
	// Refresh fetches the actor document even if the cached copy is fresh (key rotation).
	Refresh(ctx context.Context, actorUrl string) (*dal.Actor, error)
	ServerActor() (*dal.Actor, error)
	GetActorDoc(name string) (*dto.UserInfo, error)
	GetWebfinger(name string) (*dto.WebfingerResp, error)
	GetFollowersSummary(name string) (*dto.OrderedListSummary, error)
}

type actorDirectory struct {
	cfg      *shared.Config
	logger   shared.ILogger
	repo     dal.IRepo
	idb      shared.IdBuilder
	keyStore IKeyStore
	sender   IActivitySender
}

func NewActorDirectory(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	keyStore IKeyStore,
	sender IActivitySender,
) IActorDirectory {
	return &actorDirectory{
		cfg:      cfg,
		logger:   logger,
		repo:     repo,
		idb:      shared.IdBuilder{Host: cfg.Host},
		keyStore: keyStore,
		sender:   sender,
	}
}

func (adir *actorDirectory) CreateLocal(name string) (*dal.Actor, bool, error) {

	name = strings.ToLower(name)
	if err := shared.ValidateActorName(name); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidActorName, err)
	}

	existing, err := adir.repo.GetLocalActor(name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	pubKey, privKey, err := adir.keyStore.MakeKeyPair()
	if err != nil {
		return nil, false, fmt.Errorf("failed to create key pair: %w", err)
	}

	actor := &dal.Actor{
		ActorUrl:  adir.idb.ActorUrl(name),
		Name:      name,
		Host:      adir.cfg.Host,
		Inbox:     adir.idb.ActorInbox(name),
		PubKey:    pubKey,
		IsLocal:   true,
		CreatedAt: time.Now().UTC(),
	}
	isNew, err := adir.repo.AddLocalActor(actor, privKey)
	if err != nil {
		return nil, false, err
	}
	if isNew {
		adir.logger.Infof("Created local actor '%s'", name)
	}
	return actor, isNew, nil
}

func (adir *actorDirectory) GetLocal(name string) (*dal.Actor, error) {
	actor, err := adir.repo.GetLocalActor(strings.ToLower(name))
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActor, name)
	}
	return actor, nil
}

func (adir *actorDirectory) GetById(id int) (*dal.Actor, error) {
	actor, err := adir.repo.GetActorById(id)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, fmt.Errorf("%w: #%d", ErrUnknownActor, id)
	}
	return actor, nil
}

func (adir *actorDirectory) ServerActor() (*dal.Actor, error) {
	return adir.GetLocal(adir.cfg.ServerActor.Name)
}

func (adir *actorDirectory) Resolve(ctx context.Context, actorUrl string) (*dal.Actor, error) {

	cached, err := adir.repo.GetActorByUrl(actorUrl)
	if err != nil {
		return nil, err
	}
	if cached != nil && (cached.IsLocal || time.Since(cached.FetchedAt) < remoteActorTtl) {
		return cached, nil
	}

	fetched, err := adir.fetch(ctx, actorUrl)
	if err != nil {
		if cached != nil {
			adir.logger.Warnf("Failed to refetch actor %s, using cached copy: %v", actorUrl, err)
			return cached, nil
		}
		return nil, err
	}
	return fetched, nil
}

func (adir *actorDirectory) Refresh(ctx context.Context, actorUrl string) (*dal.Actor, error) {
	cached, err := adir.repo.GetActorByUrl(actorUrl)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.IsLocal {
		return cached, nil
	}
	return adir.fetch(ctx, actorUrl)
}

func (adir *actorDirectory) fetch(ctx context.Context, actorUrl string) (*dal.Actor, error) {

	host, err := shared.GetHostName(actorUrl)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(adir.cfg.Reconcile.RequestTimeoutMsec)*time.Millisecond)
	defer cancel()

	body, status, err := adir.sender.Get(ctx, adir.cfg.ServerActor.Name, actorUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to get actor %s: %w", actorUrl, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("failed to get actor %s; got status %d", actorUrl, status)
	}

	var info dto.UserInfo
	if err = json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("invalid actor document at %s: %w", actorUrl, err)
	}
	if info.Id != actorUrl {
		return nil, fmt.Errorf("actor document id %s does not match %s", info.Id, actorUrl)
	}
	if info.Inbox == "" {
		return nil, fmt.Errorf("actor document at %s has no inbox", actorUrl)
	}

	name := info.PreferredUserName
	if name == "" {
		name = actorUrl[strings.LastIndex(actorUrl, "/")+1:]
	}

	return adir.repo.UpsertRemoteActor(&dal.Actor{
		ActorUrl:    actorUrl,
		Name:        name,
		Host:        host,
		Inbox:       info.Inbox,
		SharedInbox: info.Endpoints.SharedInbox,
		PubKey:      info.PublicKey.PublicKeyPem,
	})
}

func (adir *actorDirectory) GetActorDoc(name string) (*dto.UserInfo, error) {

	actor, err := adir.GetLocal(name)
	if err != nil {
		return nil, err
	}

	actorType := "Person"
	if actor.Name == adir.cfg.ServerActor.Name {
		actorType = "Application"
	}

	resp := dto.UserInfo{
		Context: []string{
			shared.ActivityStreamsContext,
			shared.SecurityContext,
		},
		Id:                actor.ActorUrl,
		Type:              actorType,
		PreferredUserName: actor.Name,
		Name:              actor.Name,
		ManuallyApproves:  !adir.cfg.AutoAcceptFollows(),
		Published:         actor.CreatedAt.Format(time.RFC3339),
		Inbox:             adir.idb.ActorInbox(actor.Name),
		Outbox:            adir.idb.ActorOutbox(actor.Name),
		Followers:         adir.idb.ActorFollowers(actor.Name),
		Following:         adir.idb.ActorFollowing(actor.Name),
		Endpoints:         dto.UserEndpoints{SharedInbox: adir.idb.SharedInbox()},
		PublicKey: dto.PublicKey{
			Id:           adir.idb.ActorKeyId(actor.Name),
			Owner:        actor.ActorUrl,
			PublicKeyPem: actor.PubKey,
		},
	}
	return &resp, nil
}

func (adir *actorDirectory) GetWebfinger(name string) (*dto.WebfingerResp, error) {

	actor, err := adir.GetLocal(name)
	if err != nil {
		return nil, err
	}

	resp := dto.WebfingerResp{
		Subject: "acct:" + actor.Handle(),
		Aliases: []string{actor.ActorUrl},
		Links: []dto.WebfingerLink{
			{
				Rel:  "self",
				Type: "application/activity+json",
				Href: actor.ActorUrl,
			},
		},
	}
	return &resp, nil
}

func (adir *actorDirectory) GetFollowersSummary(name string) (*dto.OrderedListSummary, error) {

	actor, err := adir.GetLocal(name)
	if err != nil {
		return nil, err
	}

	_, total, err := adir.repo.ListFollows(&dal.FollowQuery{
		ActorId:   actor.Id,
		Followers: true,
		State:     dal.FollowAccepted,
		Limit:     0,
	})
	if err != nil {
		return nil, err
	}

	resp := dto.OrderedListSummary{
		Context:    shared.ActivityStreamsContext,
		Id:         adir.idb.ActorFollowers(actor.Name),
		Type:       "OrderedCollection",
		TotalItems: uint(total),
	}
	return &resp, nil
}
