package server_test

import (
	"context"
	"encoding/json"
	"fed_courier/dal"
	"fed_courier/dto"
	"fed_courier/logic"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"net/http"
	"net/url"
	"testing"
	"time"
)

func TestApi_RequiresApiKey(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	rec := h.serve("GET", "/api/jobs/stats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.serve("GET", "/api/jobs/stats", nil, map[string]string{"X-API-KEY": "guess"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.serve("GET", "/api/nothing-here", nil, map[string]string{"X-API-KEY": testApiKey})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApi_ListJobs(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	for _, query := range []string{"state=lost", "count=abc", "start=-1", "sort=attempts"} {
		rec := h.api("GET", "/api/jobs?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	h.mockQueue.EXPECT().ListJobs(dal.JobFailed, 40, 100, "-createdAt").
		Return([]*dal.DeliveryJob{{
			Id:           7,
			ActivityId:   "https://tube.local/activity/7",
			ActivityType: "Create",
			State:        dal.JobFailed,
			Attempts:     6,
			LastError:    "HTTP 410",
			CreatedAt:    created,
			FinishedAt:   created.Add(time.Hour),
		}}, 41, nil)

	rec := h.api("GET", "/api/jobs?state=failed-permanently&start=40&count=500&sort=-createdAt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var page dto.JobsPage
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 41, page.Total)
	require.Equal(t, 1, len(page.Data))
	assert.Equal(t, "failed-permanently", page.Data[0].State)
	assert.Equal(t, 6, page.Data[0].Attempts)
	require.NotNil(t, page.Data[0].FinishedAt)
}

func TestApi_GetJob(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	h.mockQueue.EXPECT().GetJob(int64(12)).Return(&dal.DeliveryJob{Id: 12, State: dal.JobDelayed}, nil)
	h.mockQueue.EXPECT().GetJob(int64(13)).Return(nil, fmt.Errorf("%w: 13", logic.ErrJobNotFound))

	rec := h.api("GET", "/api/jobs/12", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var job dto.Job
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "delayed", job.State)
	assert.Nil(t, job.FinishedAt)

	rec = h.api("GET", "/api/jobs/13", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApi_JobStats(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	h.mockQueue.EXPECT().CountByState().Return(map[dal.JobState]int{
		dal.JobWaiting:   2,
		dal.JobActive:    1,
		dal.JobDelayed:   3,
		dal.JobCompleted: 10,
		dal.JobFailed:    1,
		dal.JobCancelled: 4,
	}, nil)

	rec := h.api("GET", "/api/jobs/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats dto.JobStats
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 6, stats.Outstanding)
	assert.Equal(t, 10, stats.Counts["completed"])
	assert.Equal(t, 4, stats.Counts["cancelled"])
}

func TestApi_JobsWait(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	h.mockQueue.EXPECT().WaitDrained(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.LessOrEqual(t, time.Until(deadline), 200*time.Millisecond)
		<-ctx.Done()
		return ctx.Err()
	})
	rec := h.api("GET", "/api/jobs/wait?timeout_msec=50", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res dto.WaitResult
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Drained)

	h.mockQueue.EXPECT().WaitDrained(gomock.Any()).Return(nil)
	rec = h.api("GET", "/api/jobs/wait", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Drained)

	rec = h.api("GET", "/api/jobs/wait?timeout_msec=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApi_PostFollows(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	local := makeLocalActor(1, serverActor)
	remote := makeRemoteActor(2, "bob")

	h.mockADir.EXPECT().GetLocal(serverActor).Return(local, nil)
	h.mockFollows.EXPECT().RequestFollow(gomock.Any(), serverActor, remote.ActorUrl).
		Return(&dal.Follow{FollowerId: 1, FollowedId: 2, State: dal.FollowPending}, nil)
	h.mockADir.EXPECT().GetById(2).Return(remote, nil)

	body := fmt.Sprintf(`{"follower":"%s","followed":"%s"}`, serverActor, remote.ActorUrl)
	rec := h.api("POST", "/api/follows", []byte(body))
	require.Equal(t, http.StatusAccepted, rec.Code)
	var follow dto.Follow
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &follow))
	assert.Equal(t, "pending", follow.State)
	assert.Equal(t, "bob@peer.example", follow.Followed.Handle)
	assert.True(t, follow.Follower.IsLocal)

	// Follower must be one of ours
	h.mockADir.EXPECT().GetLocal("ghost").Return(nil, fmt.Errorf("%w: ghost", logic.ErrUnknownActor))
	rec = h.api("POST", "/api/follows", []byte(`{"follower":"ghost","followed":"x"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.api("POST", "/api/follows", []byte(`{"follower":"peertube"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.api("POST", "/api/follows", []byte(`{"follower":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApi_DeleteFollowsAndRedundancy(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	local := makeLocalActor(1, serverActor)
	remote := makeRemoteActor(2, "bob")
	h.mockADir.EXPECT().Resolve(gomock.Any(), remote.ActorUrl).Return(remote, nil).Times(2)
	h.mockADir.EXPECT().GetLocal(serverActor).Return(local, nil).Times(2)
	h.mockFollows.EXPECT().SetRedundancyAllowed(2, 1, true).Return(nil)
	h.mockFollows.EXPECT().Unfollow(2, 1).Return(nil)

	body := fmt.Sprintf(`{"follower":"%s","followed":"%s","allowed":true}`, remote.ActorUrl, serverActor)
	rec := h.api("POST", "/api/follows/redundancy", []byte(body))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	body = fmt.Sprintf(`{"follower":"%s","followed":"%s"}`, remote.ActorUrl, serverActor)
	rec = h.api("DELETE", "/api/follows", []byte(body))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestApi_PostActors(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	h.mockADir.EXPECT().CreateLocal("channel1").Return(makeLocalActor(5, "channel1"), true, nil)
	h.mockADir.EXPECT().CreateLocal("channel1").Return(makeLocalActor(5, "channel1"), false, nil)
	h.mockADir.EXPECT().CreateLocal("Bad Name").
		Return(nil, false, fmt.Errorf("%w: Bad Name", logic.ErrInvalidActorName))

	rec := h.api("POST", "/api/actors", []byte(`{"name":"channel1"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	var actor dto.Actor
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &actor))
	assert.Equal(t, "https://tube.local/u/channel1", actor.Url)

	rec = h.api("POST", "/api/actors", []byte(`{"name":"channel1"}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.api("POST", "/api/actors", []byte(`{"name":"Bad Name"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApi_Broadcast(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	h.mockFollows.EXPECT().Broadcast(gomock.Any(), serverActor, "Update", gomock.Any()).
		DoAndReturn(func(ctx context.Context, user, activityType string, object any) (int, error) {
			obj, ok := object.(map[string]any)
			assert.True(t, ok)
			assert.Equal(t, "Video", obj["type"])
			return 3, nil
		})

	body := `{"type":"Update","object":{"id":"https://tube.local/videos/watch/1","type":"Video"}}`
	rec := h.api("POST", "/api/actors/peertube/broadcast", []byte(body))
	require.Equal(t, http.StatusAccepted, rec.Code)
	var res dto.BroadcastResult
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 3, res.Enqueued)

	rec = h.api("POST", "/api/actors/peertube/broadcast", []byte(`{"type":"Like","object":"x"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApi_GetObject(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	videoUrl := "https://peer.example/videos/watch/42"
	target := "/api/objects?url=" + url.QueryEscape(videoUrl)
	stored := &dal.RemoteObject{Url: videoUrl, Type: "Video", Name: "Kept", FetchedAt: time.Now().UTC()}

	h.mockReconciler.EXPECT().GetObject(gomock.Any(), videoUrl).Return(stored, nil)
	rec := h.api("GET", target, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res dto.ObjectResult
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Kept", res.Name)
	assert.False(t, res.Stale)

	// Origin down, but a copy exists
	h.mockReconciler.EXPECT().GetObject(gomock.Any(), videoUrl).
		Return(stored, fmt.Errorf("%w: HTTP 503", logic.ErrRemoteUnavailable))
	rec = h.api("GET", target, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Stale)

	h.mockReconciler.EXPECT().GetObject(gomock.Any(), videoUrl).
		Return(nil, fmt.Errorf("%w: HTTP 503", logic.ErrRemoteUnavailable))
	rec = h.api("GET", target, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	h.mockReconciler.EXPECT().GetObject(gomock.Any(), videoUrl).
		Return(nil, fmt.Errorf("%w: %s", logic.ErrRemoteGone, videoUrl))
	rec = h.api("GET", target, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.api("GET", "/api/objects", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetrics_RequiresBearer(t *testing.T) {
	ctrl, h := setupServerTest(t, nil)
	defer ctrl.Finish()

	rec := h.serve("GET", "/metrics", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.serve("GET", "/metrics", nil, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.serve("GET", "/metrics", nil, map[string]string{"Authorization": "Bearer " + testScrapeKey})
	assert.Equal(t, http.StatusOK, rec.Code)
}
