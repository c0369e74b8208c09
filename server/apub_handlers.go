package server

import (
	"encoding/json"
	"errors"
	"fed_courier/dal"
	"fed_courier/dto"
	"fed_courier/logic"
	"fed_courier/shared"
	"fmt"
	"github.com/gorilla/mux"
	"net/http"
	"regexp"
	"strings"
)

// Groups together the handlers needed to implement an ActivityPub server.
type apubHandlerGroup struct {
	cfg        *shared.Config
	logger     shared.ILogger
	metrics    logic.IMetrics
	sigChecker logic.IHttpSigChecker
	adir       logic.IActorDirectory
	inbox      logic.IInbox
	blocked    logic.IBlockedHosts
	limiter    *clientRateLimiter
	reResource *regexp.Regexp
}

func NewApubHandlerGroup(
	cfg *shared.Config,
	logger shared.ILogger,
	metrics logic.IMetrics,
	sigChecker logic.IHttpSigChecker,
	adir logic.IActorDirectory,
	ibox logic.IInbox,
	blocked logic.IBlockedHosts,
) IHandlerGroup {
	res := apubHandlerGroup{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		sigChecker: sigChecker,
		adir:       adir,
		inbox:      ibox,
		blocked:    blocked,
		limiter:    newClientRateLimiter(cfg),
	}
	res.reResource = regexp.MustCompile("^acct:@?([^@]+)@([^@]+)$")
	return &res
}

func (hg *apubHandlerGroup) Prefix() string {
	return ""
}

func (hg *apubHandlerGroup) GroupDefs() []handlerDef {
	return []handlerDef{
		{"GET", "/.well-known/webfinger", func(w http.ResponseWriter, r *http.Request) { hg.getWebfinger(w, r) }},
		{"GET", "/u/{user}", func(w http.ResponseWriter, r *http.Request) { hg.getUser(w, r) }},
		{"GET", "/u/{user}/followers", func(w http.ResponseWriter, r *http.Request) { hg.getUserFollowers(w, r) }},
		{"POST", "/u/{user}/inbox", func(w http.ResponseWriter, r *http.Request) { hg.postInbox(w, r) }},
		{"POST", "/inbox", func(w http.ResponseWriter, r *http.Request) { hg.postInbox(w, r) }},
	}
}

func (hg *apubHandlerGroup) AuthMW() func(next http.Handler) http.Handler {
	return emptyMW
}

func (hg *apubHandlerGroup) writeLookupError(w http.ResponseWriter, userName string, err error) {
	if errors.Is(err, logic.ErrUnknownActor) {
		hg.logger.Infof("Request for unknown user: '%s'", userName)
		writeErrorResponse(w, "No such user", http.StatusNotFound)
		return
	}
	hg.logger.Errorf("Failed to look up user '%s': %v", userName, err)
	writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
}

func (hg *apubHandlerGroup) getWebfinger(w http.ResponseWriter, r *http.Request) {

	hg.logger.Infof("Handling webfinger GET: %s", r.URL.RawQuery)
	obs := hg.metrics.StartApubRequestIn("webfinger")
	defer obs.Finish()

	resourceParam := r.URL.Query().Get("resource")
	groups := hg.reResource.FindStringSubmatch(resourceParam)
	if groups == nil {
		hg.logger.Infof("Webfinger: Invalid request; 'resource' param is '%s'", resourceParam)
		writeErrorResponse(w, "Missing or invalid 'resource' param", http.StatusBadRequest)
		return
	}
	user, host := groups[1], groups[2]
	if !strings.EqualFold(host, hg.cfg.Host) {
		hg.logger.Infof("Webfinger: Resource on another host: '%s'", resourceParam)
		writeErrorResponse(w, "No such resource", http.StatusNotFound)
		return
	}

	resp, err := hg.adir.GetWebfinger(user)
	if err != nil {
		hg.writeLookupError(w, user, err)
		return
	}
	w.Header().Set("Content-Type", "application/jrd+json")
	writeJsonBody(hg.logger, w, http.StatusOK, resp)
}

func (hg *apubHandlerGroup) getUser(w http.ResponseWriter, r *http.Request) {

	hg.logger.Infof("Handling user GET: %s", r.URL.Path)
	obs := hg.metrics.StartApubRequestIn("user")
	defer obs.Finish()
	userName := mux.Vars(r)["user"]

	if !acceptsJson(r) {
		writeErrorResponse(w, "Only JSON representations are served", http.StatusNotAcceptable)
		return
	}

	userInfo, err := hg.adir.GetActorDoc(userName)
	if err != nil {
		hg.writeLookupError(w, userName, err)
		return
	}
	writeJsonResponse(hg.logger, w, true, userInfo)
}

func (hg *apubHandlerGroup) getUserFollowers(w http.ResponseWriter, r *http.Request) {

	hg.logger.Infof("Handling user followers GET: %s", r.URL.Path)
	obs := hg.metrics.StartApubRequestIn("user/followers")
	defer obs.Finish()

	userName := mux.Vars(r)["user"]
	summary, err := hg.adir.GetFollowersSummary(userName)
	if err != nil {
		hg.writeLookupError(w, userName, err)
		return
	}
	writeJsonResponse(hg.logger, w, true, summary)
}

func (hg *apubHandlerGroup) postInbox(w http.ResponseWriter, r *http.Request) {

	var err error
	hg.logger.Infof("Handling inbox POST: %s", r.URL.Path)
	userName := mux.Vars(r)["user"]

	label := "inbox"
	if userName != "" {
		label = "user/inbox"
	}
	obs := hg.metrics.StartApubRequestIn(label)
	defer obs.Finish()

	if !hg.limiter.allow(r) {
		hg.logger.Warnf("Rate limiting inbox POST from %s", clientIp(r))
		writeErrorResponse(w, tooManyRequests, http.StatusTooManyRequests)
		return
	}

	bodyBytes := readBody(hg.logger, w, r)
	if bodyBytes == nil {
		return
	}
	hg.logger.Debug(string(bodyBytes))

	// First, parse a rudimentary version of the activity to check signature, find out activity type
	var act dto.ActivityInBase
	if err = json.Unmarshal(bodyBytes, &act); err != nil {
		hg.logger.Infof("Invalid JSON in request body: %v", err)
		writeErrorResponse(w, "Request body is not valid JSON", http.StatusBadRequest)
		return
	}
	if act.Type == "" || act.Actor == "" {
		writeErrorResponse(w, "Activity must have a type and an actor", http.StatusBadRequest)
		return
	}
	if hg.isBlocked(w, act.Actor) {
		return
	}

	// Verify signature
	var signer *dal.Actor
	var sigProblem string
	signer, sigProblem, err = hg.sigChecker.Check(r.Context(), r)
	if err != nil {
		hg.logger.Errorf("Unexpected error trying to verify signature: %v", err)
		writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
		return
	}
	if sigProblem != "" {
		// Deleted accounts cannot be fetched anymore, so their Delete can never be verified
		if act.Type == "Delete" {
			hg.logger.Infof("Ignoring Delete request with unverified actor signature")
			writeJsonResponse(hg.logger, w, false, "OK")
		} else {
			hg.logger.Warnf("Incorrectly signed inbox POST request: %s", sigProblem)
			msg := fmt.Sprintf("Invalid HTTP signature: %s", sigProblem)
			writeErrorResponse(w, msg, http.StatusUnauthorized)
		}
		return
	}

	// Signer is not the actor: accept only if relayed with a valid embedded signature
	sender := signer
	if signer.ActorUrl != act.Actor {
		if hg.isBlocked(w, signer.ActorUrl) {
			return
		}
		var fwdProblem string
		sender, fwdProblem, err = hg.inbox.VerifyForwarded(r.Context(), &act, bodyBytes)
		if err != nil {
			hg.logger.Errorf("Unexpected error verifying forwarded activity: %v", err)
			writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
			return
		}
		if fwdProblem != "" {
			hg.logger.Warnf("Activity signed by %s, but actor is %s: %s", signer.ActorUrl, act.Actor, fwdProblem)
			writeErrorResponse(w, "Signer does not match actor", http.StatusUnauthorized)
			return
		}
	}

	hg.metrics.ActivityReceived(act.Type)
	hg.processActivity(userName, bodyBytes, sender, &act, w)
}

// isBlocked writes a 403 response if actorUrl lives on a blocked instance.
func (hg *apubHandlerGroup) isBlocked(w http.ResponseWriter, actorUrl string) bool {
	host, err := shared.GetHostName(actorUrl)
	if err != nil {
		writeErrorResponse(w, "Invalid actor URL", http.StatusBadRequest)
		return true
	}
	blocked, err := hg.blocked.IsBlocked(host)
	if err != nil {
		hg.logger.Errorf("Failed to check blocklist for %s: %v", host, err)
		writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
		return true
	}
	if blocked {
		hg.logger.Infof("Refusing activity from blocked instance %s", host)
		writeErrorResponse(w, "Instance is blocked", http.StatusForbidden)
	}
	return blocked
}

func (hg *apubHandlerGroup) processActivity(
	userName string,
	bodyBytes []byte,
	sender *dal.Actor,
	act *dto.ActivityInBase,
	w http.ResponseWriter,
) {

	var err error
	var reqProblem string

	switch act.Type {
	case "Follow":
		reqProblem, err = hg.inbox.HandleFollow(userName, sender, bodyBytes)
	case "Undo":
		reqProblem, err = hg.inbox.HandleUndo(userName, sender, bodyBytes)
	case "Accept":
		reqProblem, err = hg.inbox.HandleAccept(sender, bodyBytes)
	case "Reject":
		reqProblem, err = hg.inbox.HandleReject(sender, bodyBytes)
	case "Create", "Update":
		reqProblem, err = hg.inbox.HandleCreateOrUpdate(act, sender, bodyBytes)
	case "Delete":
		reqProblem, err = hg.inbox.HandleDelete(act, sender)
	default:
		hg.logger.Debugf("Ignoring %s activity from %s", act.Type, sender.ActorUrl)
	}

	if err != nil {
		hg.logger.Errorf("Error handling inbox activity: %v", err)
		writeErrorResponse(w, internalErrorStr, http.StatusInternalServerError)
		return
	}

	if reqProblem != "" {
		hg.logger.Infof("Invalid '%s' request: %s", act.Type, reqProblem)
		msg := fmt.Sprintf("Bad request: %s", reqProblem)
		writeErrorResponse(w, msg, http.StatusBadRequest)
		return
	}

	writeJsonResponse(hg.logger, w, false, "OK")
}
