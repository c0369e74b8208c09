package server_test

import (
	"encoding/json"
	"fed_courier/dal"
	"fed_courier/dto"
	"fed_courier/logic"
	"fed_courier/shared"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"net/http"
	"testing"
)

func TestApub_GetUser(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	actorUrl := "https://tube.local/u/peertube"
	h.mockADir.EXPECT().GetActorDoc(serverActor).Return(&dto.UserInfo{Id: actorUrl, Type: "Application"}, nil)
	h.mockADir.EXPECT().GetActorDoc("ghost").Return(nil, fmt.Errorf("%w: ghost", logic.ErrUnknownActor))

	rec := h.serve("GET", "/u/peertube", nil, map[string]string{"Accept": "application/activity+json"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/activity+json", rec.Header().Get("Content-Type"))
	var doc dto.UserInfo
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, actorUrl, doc.Id)

	rec = h.serve("GET", "/u/ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.serve("GET", "/u/peertube", nil, map[string]string{"Accept": "text/html"})
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
}

func TestApub_GetFollowers(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	h.mockADir.EXPECT().GetFollowersSummary(serverActor).Return(&dto.OrderedListSummary{
		Id:         "https://tube.local/u/peertube/followers",
		Type:       "OrderedCollection",
		TotalItems: 12,
	}, nil)

	rec := h.serve("GET", "/u/peertube/followers", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary dto.OrderedListSummary
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, uint(12), summary.TotalItems)
}

func TestApub_InboxSignatureProblems(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	bob := makeRemoteActor(2, "bob")
	h.mockSigChecker.EXPECT().Check(gomock.Any(), gomock.Any()).Return(nil, "signature does not verify", nil).Times(2)

	follow := fmt.Sprintf(`{"id":"x1","type":"Follow","actor":"%s","object":"https://tube.local/u/peertube"}`, bob.ActorUrl)
	rec := h.serve("POST", "/u/peertube/inbox", []byte(follow), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Deleted accounts cannot be fetched anymore
	del := fmt.Sprintf(`{"id":"x2","type":"Delete","actor":"%s","object":"%s"}`, bob.ActorUrl, bob.ActorUrl)
	rec = h.serve("POST", "/inbox", []byte(del), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.serve("POST", "/inbox", []byte(`{"id":"x3"}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.serve("POST", "/inbox", []byte(`not json`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApub_InboxDispatch(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	bob := makeRemoteActor(2, "bob")
	h.mockSigChecker.EXPECT().Check(gomock.Any(), gomock.Any()).Return(bob, "", nil).AnyTimes()

	follow := []byte(fmt.Sprintf(`{"id":"x1","type":"Follow","actor":"%s","object":"https://tube.local/u/peertube"}`,
		bob.ActorUrl))
	h.mockInbox.EXPECT().HandleFollow(serverActor, bob, follow).Return("", nil)
	rec := h.serve("POST", "/u/peertube/inbox", follow, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	del := []byte(fmt.Sprintf(`{"id":"x2","type":"Delete","actor":"%s","object":"https://tube.local/videos/watch/1"}`,
		bob.ActorUrl))
	h.mockInbox.EXPECT().HandleDelete(gomock.Any(), bob).
		DoAndReturn(func(act *dto.ActivityInBase, sender *dal.Actor) (string, error) {
			assert.Equal(t, "x2", act.Id)
			return "Object does not belong to sender", nil
		})
	rec = h.serve("POST", "/inbox", del, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	update := []byte(fmt.Sprintf(`{"id":"x3","type":"Update","actor":"%s","object":{"id":"https://peer.example/videos/watch/1"}}`,
		bob.ActorUrl))
	h.mockInbox.EXPECT().HandleCreateOrUpdate(gomock.Any(), bob, update).Return("", fmt.Errorf("disk full"))
	rec = h.serve("POST", "/inbox", update, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// Nothing to do, but acknowledged
	like := []byte(fmt.Sprintf(`{"id":"x4","type":"Like","actor":"%s","object":"https://tube.local/videos/watch/1"}`,
		bob.ActorUrl))
	rec = h.serve("POST", "/inbox", like, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApub_InboxForwardedActivity(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	relay := makeRemoteActor(3, "relay")
	carol := makeRemoteActor(4, "carol")
	h.mockSigChecker.EXPECT().Check(gomock.Any(), gomock.Any()).Return(relay, "", nil).Times(2)

	update := []byte(fmt.Sprintf(`{"id":"x1","type":"Update","actor":"%s","object":{"id":"https://peer.example/videos/watch/1"}}`,
		carol.ActorUrl))
	h.mockInbox.EXPECT().VerifyForwarded(gomock.Any(), gomock.Any(), update).Return(nil, "no embedded signature", nil)
	rec := h.serve("POST", "/inbox", update, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	h.mockInbox.EXPECT().VerifyForwarded(gomock.Any(), gomock.Any(), update).Return(carol, "", nil)
	h.mockInbox.EXPECT().HandleCreateOrUpdate(gomock.Any(), carol, update).Return("", nil)
	rec = h.serve("POST", "/inbox", update, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApub_InboxRateLimit(t *testing.T) {
	ctrl, h := setupServerTest(t, func(cfg *shared.Config) {
		cfg.Inbox.RatePerSec = 0.001
		cfg.Inbox.Burst = 2
	})
	defer ctrl.Finish()

	bob := makeRemoteActor(2, "bob")
	h.mockSigChecker.EXPECT().Check(gomock.Any(), gomock.Any()).Return(bob, "", nil).Times(3)

	like := []byte(fmt.Sprintf(`{"id":"x1","type":"Like","actor":"%s","object":"https://tube.local/videos/watch/1"}`,
		bob.ActorUrl))
	fromA := map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"}
	fromB := map[string]string{"X-Forwarded-For": "203.0.113.9"}

	assert.Equal(t, http.StatusOK, h.serve("POST", "/inbox", like, fromA).Code)
	assert.Equal(t, http.StatusOK, h.serve("POST", "/inbox", like, fromA).Code)
	assert.Equal(t, http.StatusTooManyRequests, h.serve("POST", "/inbox", like, fromA).Code)

	// Other clients have their own bucket
	assert.Equal(t, http.StatusOK, h.serve("POST", "/inbox", like, fromB).Code)
}

func TestApub_Webfinger(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	h.mockADir.EXPECT().GetWebfinger(serverActor).Return(&dto.WebfingerResp{
		Subject: "acct:peertube@tube.local",
		Links:   []dto.WebfingerLink{{Rel: "self", Type: "application/activity+json", Href: "https://tube.local/u/peertube"}},
	}, nil)
	h.mockADir.EXPECT().GetWebfinger("ghost").Return(nil, fmt.Errorf("%w: ghost", logic.ErrUnknownActor))

	rec := h.serve("GET", "/.well-known/webfinger?resource=acct:peertube@tube.local", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/jrd+json", rec.Header().Get("Content-Type"))
	var resp dto.WebfingerResp
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://tube.local/u/peertube", resp.Links[0].Href)

	rec = h.serve("GET", "/.well-known/webfinger?resource=acct:ghost@tube.local", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = h.serve("GET", "/.well-known/webfinger?resource=acct:bob@peer.example", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = h.serve("GET", "/.well-known/webfinger?resource=peertube", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApub_InboxRefusesBlockedInstances(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	spammer := fmt.Sprintf(`{"id":"x1","type":"Create","actor":"https://%s/accounts/bot","object":{"id":"https://%s/v/1"}}`,
		blockedHost, blockedHost)
	rec := h.serve("POST", "/inbox", []byte(spammer), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Relayed through a blocked instance
	relay := &dal.Actor{Id: 9, ActorUrl: "https://" + blockedHost + "/actor", Host: blockedHost}
	h.mockSigChecker.EXPECT().Check(gomock.Any(), gomock.Any()).Return(relay, "", nil)
	update := `{"id":"x2","type":"Update","actor":"https://peer.example/accounts/bob","object":{"id":"https://peer.example/v/1"}}`
	rec = h.serve("POST", "/inbox", []byte(update), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
