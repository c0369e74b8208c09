package server

import (
	"context"
	"encoding/json"
	"errors"
	"fed_courier/dal"
	"fed_courier/dto"
	"fed_courier/logic"
	"fed_courier/shared"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultWaitMsec = 30 * 1000
	maxWaitMsec     = 5 * 60 * 1000
)

var jobSorts = map[string]bool{"": true, "createdAt": true, "-createdAt": true,
	"nextAttemptAt": true, "-nextAttemptAt": true}

var followSorts = map[string]bool{"": true, "createdAt": true, "-createdAt": true}

type apiHandlerGroup struct {
	cfg        *shared.Config
	logger     shared.ILogger
	metrics    logic.IMetrics
	adir       logic.IActorDirectory
	follows    logic.IFollowManager
	queue      logic.IDeliveryQueue
	health     logic.IFollowerHealth
	reconciler logic.IReconciler
	validate   *validator.Validate
}

func NewApiHandlerGroup(
	cfg *shared.Config,
	logger shared.ILogger,
	metrics logic.IMetrics,
	adir logic.IActorDirectory,
	follows logic.IFollowManager,
	queue logic.IDeliveryQueue,
	health logic.IFollowerHealth,
	reconciler logic.IReconciler,
) IHandlerGroup {
	res := apiHandlerGroup{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		adir:       adir,
		follows:    follows,
		queue:      queue,
		health:     health,
		reconciler: reconciler,
		validate:   validator.New(),
	}
	return &res
}

func (hg *apiHandlerGroup) Prefix() string {
	return "/api"
}

func (hg *apiHandlerGroup) GroupDefs() []handlerDef {
	return []handlerDef{
		{"GET", "/jobs", func(w http.ResponseWriter, r *http.Request) { hg.getJobs(w, r) }},
		{"GET", "/jobs/stats", func(w http.ResponseWriter, r *http.Request) { hg.getJobStats(w, r) }},
		{"GET", "/jobs/wait", func(w http.ResponseWriter, r *http.Request) { hg.getJobsWait(w, r) }},
		{"GET", "/jobs/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) { hg.getJob(w, r) }},
		{"GET", "/follows", func(w http.ResponseWriter, r *http.Request) { hg.getFollows(w, r) }},
		{"POST", "/follows", func(w http.ResponseWriter, r *http.Request) { hg.postFollows(w, r) }},
		{"DELETE", "/follows", func(w http.ResponseWriter, r *http.Request) { hg.deleteFollows(w, r) }},
		{"POST", "/follows/accept", func(w http.ResponseWriter, r *http.Request) { hg.postFollowVerdict(w, r, true) }},
		{"POST", "/follows/reject", func(w http.ResponseWriter, r *http.Request) { hg.postFollowVerdict(w, r, false) }},
		{"POST", "/follows/redundancy", func(w http.ResponseWriter, r *http.Request) { hg.postRedundancy(w, r) }},
		{"GET", "/health/followers", func(w http.ResponseWriter, r *http.Request) { hg.getFollowerHealth(w, r) }},
		{"POST", "/actors", func(w http.ResponseWriter, r *http.Request) { hg.postActors(w, r) }},
		{"POST", "/actors/{user}/broadcast", func(w http.ResponseWriter, r *http.Request) { hg.postBroadcast(w, r) }},
		{"GET", "/objects", func(w http.ResponseWriter, r *http.Request) { hg.getObject(w, r) }},
	}
}

func (hg *apiHandlerGroup) AuthMW() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return hg.authMW(next)
	}
}

func (hg *apiHandlerGroup) authMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var apiKey = r.Header.Get(apiKeyHeader)
		found := false
		for _, key := range hg.cfg.Secrets.ApiKeys {
			if apiKey != "" && apiKey == key {
				found = true
			}
		}
		if !found {
			keyPart := apiKey
			if len(apiKey) > 4 {
				keyPart = apiKey[:4] + "..."
			}
			hg.logger.Warnf("API request with missing or invalid key '%s': %s", keyPart, r.URL.Path)
			writeErrorResponse(w, badApiKeyStr, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// readRequest parses and validates the JSON body; on failure, it has already written the response.
func readRequest[T any](hg *apiHandlerGroup, w http.ResponseWriter, r *http.Request, req *T) bool {
	bodyBytes := readBody(hg.logger, w, r)
	if bodyBytes == nil {
		return false
	}
	if err := json.Unmarshal(bodyBytes, req); err != nil {
		hg.logger.Infof("Invalid JSON in request body: %v", err)
		writeErrorResponse(w, "Request body is not valid JSON", http.StatusBadRequest)
		return false
	}
	if err := hg.validate.Struct(req); err != nil {
		hg.logger.Infof("Invalid request: %v", err)
		writeErrorResponse(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// writeLogicError maps errors from the logic layer to HTTP status codes.
func (hg *apiHandlerGroup) writeLogicError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, logic.ErrUnknownActor),
		errors.Is(err, logic.ErrFollowNotFound),
		errors.Is(err, logic.ErrJobNotFound),
		errors.Is(err, logic.ErrRemoteGone):
		hg.logger.Infof("%s %s: %v", r.Method, r.URL.Path, err)
		writeErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, logic.ErrRemoteUnavailable):
		hg.logger.Warnf("%s %s: %v", r.Method, r.URL.Path, err)
		writeErrorResponse(w, err.Error(), http.StatusBadGateway)
	default:
		hg.logger.Errorf("%s %s failed: %v", r.Method, r.URL.Path, err)
		writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
	}
}

// resolveActor accepts a local actor name or an actor URL.
func (hg *apiHandlerGroup) resolveActor(ctx context.Context, nameOrUrl string) (*dal.Actor, error) {
	if strings.HasPrefix(nameOrUrl, "https://") || strings.HasPrefix(nameOrUrl, "http://") {
		return hg.adir.Resolve(ctx, nameOrUrl)
	}
	return hg.adir.GetLocal(nameOrUrl)
}

func (hg *apiHandlerGroup) resolveEdge(ctx context.Context, req *dto.FollowRequest) (*dal.Actor, *dal.Actor, error) {
	follower, err := hg.resolveActor(ctx, req.Follower)
	if err != nil {
		return nil, nil, err
	}
	followed, err := hg.resolveActor(ctx, req.Followed)
	if err != nil {
		return nil, nil, err
	}
	return follower, followed, nil
}

func toActorDto(actor *dal.Actor) dto.Actor {
	return dto.Actor{
		Id:        actor.Id,
		Handle:    actor.Handle(),
		Url:       actor.ActorUrl,
		Inbox:     actor.Inbox,
		IsLocal:   actor.IsLocal,
		CreatedAt: actor.CreatedAt,
	}
}

func toFollowDto(follow *dal.Follow, follower, followed *dal.Actor) *dto.Follow {
	return &dto.Follow{
		Follower:          toActorDto(follower),
		Followed:          toActorDto(followed),
		State:             string(follow.State),
		RedundancyAllowed: follow.RedundancyAllowed,
		CreatedAt:         follow.CreatedAt,
		UpdatedAt:         follow.UpdatedAt,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toJobDto(job *dal.DeliveryJob) *dto.Job {
	return &dto.Job{
		Id:            job.Id,
		ActivityId:    job.ActivityId,
		ActivityType:  job.ActivityType,
		SendingActor:  job.SendingActor,
		TargetId:      job.TargetId,
		ToInbox:       job.ToInbox,
		State:         string(job.State),
		Attempts:      job.Attempts,
		NextAttemptAt: job.NextAttemptAt,
		LastError:     job.LastError,
		CreatedAt:     job.CreatedAt,
		FinishedAt:    optionalTime(job.FinishedAt),
	}
}

func (hg *apiHandlerGroup) getJobs(w http.ResponseWriter, r *http.Request) {

	hg.logger.Infof("Handling jobs GET: %s", r.URL.RawQuery)
	obs := hg.metrics.StartWebRequestIn("api/jobs")
	defer obs.Finish()

	start, count, ok := getPaging(r)
	if !ok {
		writeErrorResponse(w, "Invalid 'start' or 'count' param", http.StatusBadRequest)
		return
	}
	var state dal.JobState
	if stateStr := r.URL.Query().Get("state"); stateStr != "" {
		if state, ok = dal.ParseJobState(stateStr); !ok {
			writeErrorResponse(w, fmt.Sprintf("Unknown job state '%s'", stateStr), http.StatusBadRequest)
			return
		}
	}
	sort := r.URL.Query().Get("sort")
	if !jobSorts[sort] {
		writeErrorResponse(w, fmt.Sprintf("Unsupported sort '%s'", sort), http.StatusBadRequest)
		return
	}

	jobs, total, err := hg.queue.ListJobs(state, start, count, sort)
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	resp := dto.JobsPage{Total: total, Data: make([]*dto.Job, 0, len(jobs))}
	for _, job := range jobs {
		resp.Data = append(resp.Data, toJobDto(job))
	}
	writeJsonResponse(hg.logger, w, false, &resp)
}

func (hg *apiHandlerGroup) getJob(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartWebRequestIn("api/jobs/id")
	defer obs.Finish()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorResponse(w, "Invalid job ID", http.StatusBadRequest)
		return
	}
	job, err := hg.queue.GetJob(id)
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	writeJsonResponse(hg.logger, w, false, toJobDto(job))
}

func (hg *apiHandlerGroup) getJobStats(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartWebRequestIn("api/jobs/stats")
	defer obs.Finish()

	counts, err := hg.queue.CountByState()
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	resp := dto.JobStats{Counts: make(map[string]int, len(counts))}
	for state, count := range counts {
		resp.Counts[string(state)] = count
		if !state.IsTerminal() {
			resp.Outstanding += count
		}
	}
	writeJsonResponse(hg.logger, w, false, &resp)
}

func (hg *apiHandlerGroup) getJobsWait(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartWebRequestIn("api/jobs/wait")
	defer obs.Finish()

	timeoutMsec := defaultWaitMsec
	if str := r.URL.Query().Get("timeout_msec"); str != "" {
		var err error
		if timeoutMsec, err = strconv.Atoi(str); err != nil || timeoutMsec < 0 {
			writeErrorResponse(w, "Invalid 'timeout_msec' param", http.StatusBadRequest)
			return
		}
	}
	if timeoutMsec > maxWaitMsec {
		timeoutMsec = maxWaitMsec
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(timeoutMsec)*time.Millisecond)
	defer cancel()

	err := hg.queue.WaitDrained(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		hg.writeLogicError(w, r, err)
		return
	}
	writeJsonResponse(hg.logger, w, false, &dto.WaitResult{Drained: err == nil})
}

func (hg *apiHandlerGroup) getFollows(w http.ResponseWriter, r *http.Request) {

	hg.logger.Infof("Handling follows GET: %s", r.URL.RawQuery)
	obs := hg.metrics.StartWebRequestIn("api/follows")
	defer obs.Finish()

	q := r.URL.Query()
	start, count, ok := getPaging(r)
	if !ok {
		writeErrorResponse(w, "Invalid 'start' or 'count' param", http.StatusBadRequest)
		return
	}
	actorParam := q.Get("actor")
	if actorParam == "" {
		writeErrorResponse(w, "Missing 'actor' param", http.StatusBadRequest)
		return
	}
	direction := q.Get("direction")
	if direction != "" && direction != "followers" && direction != "following" {
		writeErrorResponse(w, "'direction' must be followers or following", http.StatusBadRequest)
		return
	}
	state := dal.FollowState(q.Get("state"))
	if state != "" && state != dal.FollowPending && state != dal.FollowAccepted && state != dal.FollowRejected {
		writeErrorResponse(w, fmt.Sprintf("Unknown follow state '%s'", state), http.StatusBadRequest)
		return
	}
	sort := q.Get("sort")
	if !followSorts[sort] {
		writeErrorResponse(w, fmt.Sprintf("Unsupported sort '%s'", sort), http.StatusBadRequest)
		return
	}

	actor, err := hg.resolveActor(r.Context(), actorParam)
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	follows, total, err := hg.follows.ListFollows(&dal.FollowQuery{
		ActorId:   actor.Id,
		Followers: direction != "following",
		State:     state,
		Offset:    start,
		Limit:     count,
		Sort:      sort,
	})
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	resp := dto.FollowsPage{Total: total, Data: make([]*dto.Follow, 0, len(follows))}
	for _, f := range follows {
		resp.Data = append(resp.Data, toFollowDto(f, f.Follower, f.Followed))
	}
	writeJsonResponse(hg.logger, w, false, &resp)
}

func (hg *apiHandlerGroup) postFollows(w http.ResponseWriter, r *http.Request) {

	hg.logger.Info("POST /api/follows: Request received")
	obs := hg.metrics.StartWebRequestIn("api/follows/post")
	defer obs.Finish()

	var req dto.FollowRequest
	if !readRequest(hg, w, r, &req) {
		return
	}
	follower, err := hg.adir.GetLocal(req.Follower)
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	follow, err := hg.follows.RequestFollow(r.Context(), follower.Name, req.Followed)
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	followed, err := hg.adir.GetById(follow.FollowedId)
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	writeJsonResponseCode(hg.logger, w, false, http.StatusAccepted, toFollowDto(follow, follower, followed))
}

func (hg *apiHandlerGroup) postFollowVerdict(w http.ResponseWriter, r *http.Request, accept bool) {

	obs := hg.metrics.StartWebRequestIn("api/follows/verdict")
	defer obs.Finish()

	var req dto.FollowRequest
	if !readRequest(hg, w, r, &req) {
		return
	}
	follower, followed, err := hg.resolveEdge(r.Context(), &req)
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	var follow *dal.Follow
	if accept {
		follow, err = hg.follows.AcceptFollow(follower.Id, followed.Id)
	} else {
		follow, err = hg.follows.RejectFollow(follower.Id, followed.Id)
	}
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	writeJsonResponse(hg.logger, w, false, toFollowDto(follow, follower, followed))
}

func (hg *apiHandlerGroup) deleteFollows(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartWebRequestIn("api/follows/delete")
	defer obs.Finish()

	var req dto.FollowRequest
	if !readRequest(hg, w, r, &req) {
		return
	}
	follower, followed, err := hg.resolveEdge(r.Context(), &req)
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	if err = hg.follows.Unfollow(follower.Id, followed.Id); err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (hg *apiHandlerGroup) postRedundancy(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartWebRequestIn("api/follows/redundancy")
	defer obs.Finish()

	var req dto.RedundancyRequest
	if !readRequest(hg, w, r, &req) {
		return
	}
	follower, followed, err := hg.resolveEdge(r.Context(), &req.FollowRequest)
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	if err = hg.follows.SetRedundancyAllowed(follower.Id, followed.Id, req.Allowed); err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (hg *apiHandlerGroup) getFollowerHealth(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartWebRequestIn("api/health/followers")
	defer obs.Finish()

	start, count, ok := getPaging(r)
	if !ok {
		writeErrorResponse(w, "Invalid 'start' or 'count' param", http.StatusBadRequest)
		return
	}
	items, total, err := hg.health.List(start, count)
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	resp := dto.HealthPage{Total: total, Data: make([]*dto.FollowerHealth, 0, len(items))}
	for _, h := range items {
		resp.Data = append(resp.Data, &dto.FollowerHealth{
			ActorId:         h.ActorId,
			ActorUrl:        h.ActorUrl,
			FailureStreak:   h.FailureStreak,
			LastContactedAt: optionalTime(h.LastContactedAt),
			LastFailureAt:   optionalTime(h.LastFailureAt),
		})
	}
	writeJsonResponse(hg.logger, w, false, &resp)
}

func (hg *apiHandlerGroup) postActors(w http.ResponseWriter, r *http.Request) {

	hg.logger.Info("POST /api/actors: Request received")
	obs := hg.metrics.StartWebRequestIn("api/actors")
	defer obs.Finish()

	var req dto.CreateActorRequest
	if !readRequest(hg, w, r, &req) {
		return
	}
	actor, isNew, err := hg.adir.CreateLocal(req.Name)
	if err != nil {
		if errors.Is(err, logic.ErrInvalidActorName) {
			writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		hg.writeLogicError(w, r, err)
		return
	}
	code := http.StatusOK
	if isNew {
		code = http.StatusCreated
	}
	writeJsonResponseCode(hg.logger, w, false, code, toActorDto(actor))
}

func (hg *apiHandlerGroup) postBroadcast(w http.ResponseWriter, r *http.Request) {

	userName := mux.Vars(r)["user"]
	hg.logger.Infof("POST /api/actors/%s/broadcast: Request received", userName)
	obs := hg.metrics.StartWebRequestIn("api/actors/broadcast")
	defer obs.Finish()

	var req dto.BroadcastRequest
	if !readRequest(hg, w, r, &req) {
		return
	}
	enqueued, err := hg.follows.Broadcast(r.Context(), userName, req.Type, req.Object)
	if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	writeJsonResponseCode(hg.logger, w, false, http.StatusAccepted, &dto.BroadcastResult{Enqueued: enqueued})
}

func (hg *apiHandlerGroup) getObject(w http.ResponseWriter, r *http.Request) {

	obs := hg.metrics.StartWebRequestIn("api/objects")
	defer obs.Finish()

	objectUrl := r.URL.Query().Get("url")
	if objectUrl == "" {
		writeErrorResponse(w, "Missing 'url' param", http.StatusBadRequest)
		return
	}
	hg.logger.Infof("Handling object GET: %s", objectUrl)

	obj, err := hg.reconciler.GetObject(r.Context(), objectUrl)
	stale := false
	if errors.Is(err, logic.ErrRemoteUnavailable) && obj != nil {
		stale = true
	} else if err != nil {
		hg.writeLogicError(w, r, err)
		return
	}
	if obj == nil {
		writeErrorResponse(w, notFoundStr, http.StatusNotFound)
		return
	}

	writeJsonResponse(hg.logger, w, false, &dto.ObjectResult{
		Url:          obj.Url,
		Type:         obj.Type,
		AttributedTo: obj.AttributedTo,
		Name:         obj.Name,
		Content:      obj.Content,
		Excerpt:      obj.Excerpt,
		Published:    obj.Published,
		Updated:      obj.Updated,
		FetchedAt:    obj.FetchedAt,
		Stale:        stale,
	})
}
