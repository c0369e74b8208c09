package dal_test

import (
	"fed_courier/dal"
	"fed_courier/shared"
	"fmt"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"path/filepath"
	"testing"
	"time"
)

const testHost = "tube.local"

func newTestRepo(t *testing.T) dal.IRepo {
	cfg := &shared.Config{
		Host:   testHost,
		DbFile: filepath.Join(t.TempDir(), "courier.db"),
		ServerActor: &shared.ActorInfo{
			Name:    "peertube",
			PubKey:  "server-pub",
			PrivKey: "server-priv",
		},
	}
	repo := dal.NewRepo(cfg, log.New(io.Discard))
	repo.InitUpdateDb()
	return repo
}

func addRemote(t *testing.T, repo dal.IRepo, name string) *dal.Actor {
	actorUrl := fmt.Sprintf("https://peer.example/accounts/%s", name)
	actor, err := repo.UpsertRemoteActor(&dal.Actor{
		ActorUrl: actorUrl,
		Name:     name,
		Host:     "peer.example",
		Inbox:    actorUrl + "/inbox",
		PubKey:   "pub-" + name,
	})
	require.Nil(t, err)
	require.NotNil(t, actor)
	return actor
}

func addLocal(t *testing.T, repo dal.IRepo, name string) *dal.Actor {
	actor := &dal.Actor{
		ActorUrl:  fmt.Sprintf("https://%s/u/%s", testHost, name),
		Name:      name,
		Host:      testHost,
		Inbox:     fmt.Sprintf("https://%s/u/%s/inbox", testHost, name),
		PubKey:    "pub-" + name,
		CreatedAt: time.Now().UTC(),
	}
	isNew, err := repo.AddLocalActor(actor, "priv-"+name)
	require.Nil(t, err)
	require.True(t, isNew)
	return actor
}

func addAcceptedFollow(t *testing.T, repo dal.IRepo, followerId, followedId int) {
	_, isNew, err := repo.AddFollowIfNew(&dal.Follow{
		FollowerId: followerId,
		FollowedId: followedId,
		State:      dal.FollowAccepted,
		RequestId:  fmt.Sprintf("https://peer.example/follows/%d-%d", followerId, followedId),
	})
	require.Nil(t, err)
	require.True(t, isNew)
}

func addJob(t *testing.T, repo dal.IRepo, sender *dal.Actor, target *dal.Actor, createdAt time.Time) *dal.DeliveryJob {
	job := &dal.DeliveryJob{
		ActivityId:   fmt.Sprintf("https://%s/activity/%d", testHost, createdAt.UnixNano()),
		ActivityType: "Create",
		SenderId:     sender.Id,
		SendingActor: sender.Name,
		TargetId:     target.Id,
		ToInbox:      target.Inbox,
		Payload:      []byte(`{"type":"Create"}`),
		CreatedAt:    createdAt,
	}
	require.Nil(t, repo.AddJob(job))
	require.NotZero(t, job.Id)
	return job
}

func Test_Repo_Actors(t *testing.T) {
	repo := newTestRepo(t)

	server, err := repo.GetLocalActor("peertube")
	assert.Nil(t, err)
	assert.NotNil(t, server)
	assert.True(t, server.IsLocal)
	assert.Equal(t, "https://tube.local/u/peertube", server.ActorUrl)

	privKey, err := repo.GetPrivKey("peertube")
	assert.Nil(t, err)
	assert.Equal(t, "server-priv", privKey)

	alice := addLocal(t, repo, "alice")
	again := &dal.Actor{ActorUrl: alice.ActorUrl, Name: "alice", Host: testHost, Inbox: alice.Inbox}
	isNew, err := repo.AddLocalActor(again, "other")
	assert.Nil(t, err)
	assert.False(t, isNew)
	assert.Equal(t, alice.Id, again.Id)

	bob := addRemote(t, repo, "bob")
	assert.False(t, bob.IsLocal)
	assert.Equal(t, "pub-bob", bob.PubKey)

	// Re-fetch updates the key
	bob2, err := repo.UpsertRemoteActor(&dal.Actor{
		ActorUrl: bob.ActorUrl, Name: "bob", Host: "peer.example", Inbox: bob.Inbox, PubKey: "rotated",
	})
	assert.Nil(t, err)
	assert.Equal(t, bob.Id, bob2.Id)
	assert.Equal(t, "rotated", bob2.PubKey)

	// A remote document cannot overwrite a local actor
	_, err = repo.UpsertRemoteActor(&dal.Actor{
		ActorUrl: alice.ActorUrl, Name: "mallory", Host: testHost, Inbox: "https://evil.example/inbox", PubKey: "evil",
	})
	assert.Nil(t, err)
	alice2, err := repo.GetActorById(alice.Id)
	assert.Nil(t, err)
	assert.Equal(t, "pub-alice", alice2.PubKey)
	assert.Equal(t, alice.Inbox, alice2.Inbox)
	assert.Equal(t, "alice", alice2.Name)

	missing, err := repo.GetActorByUrl("https://nowhere.example/u/x")
	assert.Nil(t, err)
	assert.Nil(t, missing)
}

func Test_Repo_FollowLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	alice := addLocal(t, repo, "alice")
	bob := addRemote(t, repo, "bob")
	carol := addRemote(t, repo, "carol")

	follow, isNew, err := repo.AddFollowIfNew(&dal.Follow{
		FollowerId: bob.Id, FollowedId: alice.Id, State: dal.FollowPending, RequestId: "req-1",
	})
	assert.Nil(t, err)
	assert.True(t, isNew)
	assert.Equal(t, dal.FollowPending, follow.State)

	// At most one edge per pair
	follow, isNew, err = repo.AddFollowIfNew(&dal.Follow{
		FollowerId: bob.Id, FollowedId: alice.Id, State: dal.FollowAccepted, RequestId: "req-2",
	})
	assert.Nil(t, err)
	assert.False(t, isNew)
	assert.Equal(t, dal.FollowPending, follow.State)
	assert.Equal(t, "req-1", follow.RequestId)

	// Transition only from the listed states
	changed, err := repo.SetFollowState(bob.Id, alice.Id, dal.FollowAccepted, "", dal.FollowRejected)
	assert.Nil(t, err)
	assert.False(t, changed)
	changed, err = repo.SetFollowState(bob.Id, alice.Id, dal.FollowAccepted, "", dal.FollowPending)
	assert.Nil(t, err)
	assert.True(t, changed)
	follow, err = repo.GetFollow(bob.Id, alice.Id)
	assert.Nil(t, err)
	assert.Equal(t, dal.FollowAccepted, follow.State)
	assert.Equal(t, "req-1", follow.RequestId)

	addAcceptedFollow(t, repo, carol.Id, alice.Id)
	followers, err := repo.GetAcceptedFollowers(alice.Id)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(followers))
	count, err := repo.GetAcceptedFollowerCount()
	assert.Nil(t, err)
	assert.Equal(t, 2, count)

	changed, err = repo.SetRedundancyAllowed(carol.Id, alice.Id, true)
	assert.Nil(t, err)
	assert.True(t, changed)
	changed, err = repo.SetRedundancyAllowed(alice.Id, carol.Id, true)
	assert.Nil(t, err)
	assert.False(t, changed)

	page, total, err := repo.ListFollows(&dal.FollowQuery{
		ActorId: alice.Id, Followers: true, State: dal.FollowAccepted, Limit: 1, Sort: "createdAt",
	})
	assert.Nil(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, len(page))
	assert.Equal(t, bob.ActorUrl, page[0].Follower.ActorUrl)
	assert.Equal(t, alice.ActorUrl, page[0].Followed.ActorUrl)

	page, total, err = repo.ListFollows(&dal.FollowQuery{ActorId: alice.Id, Followers: false, Limit: 10})
	assert.Nil(t, err)
	assert.Equal(t, 0, total)
	assert.Equal(t, 0, len(page))

	// Health record goes with the last edge
	_, tracked, err := repo.RecordDeliveryFailure(bob.Id, time.Now())
	assert.Nil(t, err)
	assert.True(t, tracked)
	deleted, err := repo.DeleteFollow(bob.Id, alice.Id)
	assert.Nil(t, err)
	assert.True(t, deleted)
	fh, err := repo.GetFollowerHealth(bob.Id)
	assert.Nil(t, err)
	assert.Nil(t, fh)
	deleted, err = repo.DeleteFollow(bob.Id, alice.Id)
	assert.Nil(t, err)
	assert.False(t, deleted)
}

func Test_Repo_LeaseIsExclusive(t *testing.T) {
	repo := newTestRepo(t)
	alice := addLocal(t, repo, "alice")
	bob := addRemote(t, repo, "bob")

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		addJob(t, repo, alice, bob, now.Add(time.Duration(i)*time.Millisecond))
	}

	leaseUntil := now.Add(time.Minute)
	first, err := repo.LeaseJobs("w1", 2, now, leaseUntil)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(first))
	second, err := repo.LeaseJobs("w2", 2, now, leaseUntil)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(second))
	third, err := repo.LeaseJobs("w3", 2, now, leaseUntil)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(third))

	seen := map[int64]bool{}
	for _, job := range append(first, second...) {
		assert.Equal(t, dal.JobActive, job.State)
		assert.False(t, seen[job.Id])
		seen[job.Id] = true
	}
	assert.Equal(t, "w2", second[0].LeaseOwner)

	// Completed jobs leave the leasable set
	done, err := repo.CompleteJob(first[0].Id, "w1", now)
	assert.Nil(t, err)
	assert.Equal(t, dal.JobCompleted, done.State)
	assert.False(t, done.FinishedAt.IsZero())
	later, err := repo.LeaseJobs("w4", 10, now.Add(time.Hour), now.Add(2*time.Hour))
	assert.Nil(t, err)
	for _, job := range later {
		assert.NotEqual(t, first[0].Id, job.Id)
	}
}

func Test_Repo_LeaseKeepsDueOrder(t *testing.T) {
	repo := newTestRepo(t)
	alice := addLocal(t, repo, "alice")
	bob := addRemote(t, repo, "bob")

	// Inserted newest first, so id order and due order disagree
	now := time.Now().UTC()
	var ids []int64
	for i := 0; i < 6; i++ {
		job := addJob(t, repo, alice, bob, now.Add(-time.Duration(i+1)*10*time.Millisecond))
		ids = append(ids, job.Id)
	}

	leased, err := repo.LeaseJobs("w1", 10, now, now.Add(time.Minute))
	require.Nil(t, err)
	require.Equal(t, 6, len(leased))
	for i, job := range leased {
		assert.Equal(t, ids[len(ids)-1-i], job.Id)
		if i > 0 {
			assert.False(t, job.NextAttemptAt.Before(leased[i-1].NextAttemptAt))
		}
	}
}

func Test_Repo_ExpiredLeaseIsReclaimed(t *testing.T) {
	repo := newTestRepo(t)
	alice := addLocal(t, repo, "alice")
	bob := addRemote(t, repo, "bob")

	now := time.Now().UTC()
	job := addJob(t, repo, alice, bob, now)

	leased, err := repo.LeaseJobs("w1", 1, now, now.Add(time.Second))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(leased))

	// Still leased
	leased, err = repo.LeaseJobs("w2", 1, now.Add(500*time.Millisecond), now.Add(time.Minute))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(leased))

	// Lease ran out: another worker takes over
	leased, err = repo.LeaseJobs("w2", 1, now.Add(2*time.Second), now.Add(time.Minute))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(leased))
	assert.Equal(t, job.Id, leased[0].Id)

	// Outcome from the old owner is discarded
	stale, err := repo.CompleteJob(job.Id, "w1", now)
	assert.Nil(t, err)
	assert.Nil(t, stale)
	staleFail, err := repo.FailJob(job.Id, "w1", "boom", 3,
		func(int) time.Time { return now }, now)
	assert.Nil(t, err)
	assert.Nil(t, staleFail)

	done, err := repo.CompleteJob(job.Id, "w2", now.Add(3*time.Second))
	assert.Nil(t, err)
	assert.NotNil(t, done)
	assert.Equal(t, dal.JobCompleted, done.State)
	assert.Equal(t, 0, done.Attempts)
}

func Test_Repo_FailRetriesThenFailsPermanently(t *testing.T) {
	repo := newTestRepo(t)
	alice := addLocal(t, repo, "alice")
	bob := addRemote(t, repo, "bob")

	now := time.Now().UTC().Truncate(time.Millisecond)
	job := addJob(t, repo, alice, bob, now)
	retryLimit := 2
	nextAttempt := func(attempts int) time.Time {
		return now.Add(time.Duration(attempts) * 10 * time.Second)
	}

	prevAttempts := 0
	for i := 1; i <= retryLimit; i++ {
		leaseAt := now.Add(time.Duration(i-1) * 10 * time.Second)
		leased, err := repo.LeaseJobs("w1", 1, leaseAt, leaseAt.Add(time.Minute))
		require.Nil(t, err)
		require.Equal(t, 1, len(leased))

		failed, err := repo.FailJob(job.Id, "w1", "got status 503", retryLimit, nextAttempt, leaseAt)
		require.Nil(t, err)
		require.NotNil(t, failed)
		assert.Equal(t, dal.JobDelayed, failed.State)
		assert.Greater(t, failed.Attempts, prevAttempts)
		prevAttempts = failed.Attempts
		assert.Equal(t, nextAttempt(i), failed.NextAttemptAt)
		assert.Equal(t, "got status 503", failed.LastError)

		// Not leasable before its next attempt
		early, err := repo.LeaseJobs("w2", 1, nextAttempt(i).Add(-time.Millisecond), now.Add(time.Hour))
		require.Nil(t, err)
		assert.Equal(t, 0, len(early))
	}

	leaseAt := nextAttempt(retryLimit)
	leased, err := repo.LeaseJobs("w1", 1, leaseAt, leaseAt.Add(time.Minute))
	require.Nil(t, err)
	require.Equal(t, 1, len(leased))
	failed, err := repo.FailJob(job.Id, "w1", "got status 503", retryLimit, nextAttempt, leaseAt)
	require.Nil(t, err)
	assert.Equal(t, dal.JobFailed, failed.State)
	assert.Equal(t, retryLimit+1, failed.Attempts)
	assert.False(t, failed.FinishedAt.IsZero())

	// Terminal jobs are never leased again
	leased, err = repo.LeaseJobs("w3", 10, now.Add(24*time.Hour), now.Add(25*time.Hour))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(leased))
}

func Test_Repo_CancelJobs(t *testing.T) {
	repo := newTestRepo(t)
	alice := addLocal(t, repo, "alice")
	dave := addLocal(t, repo, "dave")
	bob := addRemote(t, repo, "bob")

	now := time.Now().UTC()
	fromAlice := addJob(t, repo, alice, bob, now)
	fromDave := addJob(t, repo, dave, bob, now.Add(time.Millisecond))
	activeJob := addJob(t, repo, alice, bob, now.Add(2*time.Millisecond))

	// Two jobs back off, one stays in flight
	leased, err := repo.LeaseJobs("w1", 3, now, now.Add(time.Minute))
	require.Nil(t, err)
	require.Equal(t, 3, len(leased))
	for _, job := range leased {
		if job.Id != activeJob.Id {
			_, err = repo.FailJob(job.Id, "w1", "timeout", 5, func(int) time.Time { return now.Add(time.Hour) }, now)
			require.Nil(t, err)
		}
	}

	cancelled, err := repo.CancelJobs(bob.Id, alice.Id, now)
	assert.Nil(t, err)
	assert.Equal(t, 1, cancelled)

	job, err := repo.GetJob(fromAlice.Id)
	assert.Nil(t, err)
	assert.Equal(t, dal.JobCancelled, job.State)
	job, err = repo.GetJob(fromDave.Id)
	assert.Nil(t, err)
	assert.Equal(t, dal.JobDelayed, job.State)
	job, err = repo.GetJob(activeJob.Id)
	assert.Nil(t, err)
	assert.Equal(t, dal.JobActive, job.State)

	cancelled, err = repo.CancelJobs(bob.Id, 0, now)
	assert.Nil(t, err)
	assert.Equal(t, 1, cancelled)

	missing, err := repo.GetJob(123456)
	assert.Nil(t, err)
	assert.Nil(t, missing)
}

func Test_Repo_AddJobIfFollowing(t *testing.T) {
	repo := newTestRepo(t)
	alice := addLocal(t, repo, "alice")
	bob := addRemote(t, repo, "bob")
	carol := addRemote(t, repo, "carol")

	newJob := func(target *dal.Actor) *dal.DeliveryJob {
		return &dal.DeliveryJob{
			ActivityId: "https://tube.local/activity/x", ActivityType: "Create",
			SenderId: alice.Id, SendingActor: alice.Name, TargetId: target.Id, ToInbox: target.Inbox,
			Payload: []byte("{}"),
		}
	}

	added, err := repo.AddJobIfFollowing(alice.Id, newJob(bob))
	assert.Nil(t, err)
	assert.False(t, added)

	_, _, err = repo.AddFollowIfNew(&dal.Follow{FollowerId: carol.Id, FollowedId: alice.Id, State: dal.FollowPending})
	require.Nil(t, err)
	added, err = repo.AddJobIfFollowing(alice.Id, newJob(carol))
	assert.Nil(t, err)
	assert.False(t, added)

	addAcceptedFollow(t, repo, bob.Id, alice.Id)
	job := newJob(bob)
	added, err = repo.AddJobIfFollowing(alice.Id, job)
	assert.Nil(t, err)
	assert.True(t, added)
	stored, err := repo.GetJob(job.Id)
	assert.Nil(t, err)
	assert.Equal(t, dal.JobWaiting, stored.State)
	assert.Equal(t, bob.Inbox, stored.ToInbox)
}

func Test_Repo_HealthAndPrune(t *testing.T) {
	repo := newTestRepo(t)
	alice := addLocal(t, repo, "alice")
	dave := addLocal(t, repo, "dave")
	bob := addRemote(t, repo, "bob")
	carol := addRemote(t, repo, "carol")
	now := time.Now().UTC()

	// Not following anyone: not tracked
	_, tracked, err := repo.RecordDeliveryFailure(bob.Id, now)
	assert.Nil(t, err)
	assert.False(t, tracked)
	tracked, err = repo.RecordDeliverySuccess(bob.Id, now)
	assert.Nil(t, err)
	assert.False(t, tracked)

	addAcceptedFollow(t, repo, bob.Id, alice.Id)
	addAcceptedFollow(t, repo, bob.Id, dave.Id)
	addAcceptedFollow(t, repo, carol.Id, alice.Id)

	streak, tracked, err := repo.RecordDeliveryFailure(bob.Id, now)
	assert.Nil(t, err)
	assert.True(t, tracked)
	assert.Equal(t, 1, streak)
	streak, _, err = repo.RecordDeliveryFailure(bob.Id, now)
	assert.Nil(t, err)
	assert.Equal(t, 2, streak)

	// One success resets the streak
	tracked, err = repo.RecordDeliverySuccess(bob.Id, now)
	assert.Nil(t, err)
	assert.True(t, tracked)
	fh, err := repo.GetFollowerHealth(bob.Id)
	assert.Nil(t, err)
	assert.Equal(t, 0, fh.FailureStreak)
	assert.Equal(t, bob.ActorUrl, fh.ActorUrl)
	assert.False(t, fh.LastContactedAt.IsZero())

	streak, _, err = repo.RecordDeliveryFailure(bob.Id, now)
	assert.Nil(t, err)
	assert.Equal(t, 1, streak)

	addJob(t, repo, alice, bob, now)
	addJob(t, repo, dave, bob, now.Add(time.Millisecond))
	carolJob := addJob(t, repo, alice, carol, now.Add(2*time.Millisecond))
	assert.Nil(t, repo.AddRedundancy(&dal.Redundancy{
		VideoUrl: "https://tube.local/videos/watch/1", ActorId: bob.Id, SizeBytes: 1024, ExpiresAt: now.Add(time.Hour),
	}))

	items, total, err := repo.ListFollowerHealth(0, 10)
	assert.Nil(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, bob.Id, items[0].ActorId)

	res, err := repo.PruneFollower(bob.Id, now)
	assert.Nil(t, err)
	assert.Equal(t, 2, res.FollowsRemoved)
	assert.Equal(t, 2, res.JobsCancelled)
	assert.Equal(t, 1, res.RedundanciesRevoked)
	assert.True(t, res.HealthRemoved)
	assert.False(t, res.IsNoop())

	// Idempotent
	res, err = repo.PruneFollower(bob.Id, now)
	assert.Nil(t, err)
	assert.True(t, res.IsNoop())

	followers, err := repo.GetAcceptedFollowers(alice.Id)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(followers))
	assert.Equal(t, carol.Id, followers[0].Id)
	redundancies, err := repo.GetRedundanciesByActor(bob.Id)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(redundancies))
	job, err := repo.GetJob(carolJob.Id)
	assert.Nil(t, err)
	assert.Equal(t, dal.JobWaiting, job.State)
}

func Test_Repo_JobListingAndPurge(t *testing.T) {
	repo := newTestRepo(t)
	alice := addLocal(t, repo, "alice")
	bob := addRemote(t, repo, "bob")

	now := time.Now().UTC()
	first := addJob(t, repo, alice, bob, now)
	addJob(t, repo, alice, bob, now.Add(time.Millisecond))
	addJob(t, repo, alice, bob, now.Add(2*time.Millisecond))

	jobs, total, err := repo.ListJobs("", 0, 2, "")
	assert.Nil(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, len(jobs))
	assert.True(t, jobs[0].CreatedAt.After(jobs[1].CreatedAt))

	jobs, _, err = repo.ListJobs(dal.JobWaiting, 0, 10, "createdAt")
	assert.Nil(t, err)
	assert.Equal(t, first.Id, jobs[0].Id)

	leased, err := repo.LeaseJobs("w1", 1, now, now.Add(time.Minute))
	require.Nil(t, err)
	_, err = repo.CompleteJob(leased[0].Id, "w1", now)
	require.Nil(t, err)

	counts, err := repo.CountJobsByState()
	assert.Nil(t, err)
	assert.Equal(t, 2, counts[dal.JobWaiting])
	assert.Equal(t, 1, counts[dal.JobCompleted])
	assert.Equal(t, 0, counts[dal.JobFailed])
	assert.Equal(t, len(dal.AllJobStates), len(counts))
	outstanding, err := repo.CountOutstandingJobs()
	assert.Nil(t, err)
	assert.Equal(t, 2, outstanding)

	purged, err := repo.PurgeArchivedJobs(now.Add(-time.Hour))
	assert.Nil(t, err)
	assert.Equal(t, 0, purged)
	purged, err = repo.PurgeArchivedJobs(now.Add(time.Hour))
	assert.Nil(t, err)
	assert.Equal(t, 1, purged)
	_, total, err = repo.ListJobs("", 0, 10, "")
	assert.Nil(t, err)
	assert.Equal(t, 2, total)
}

func Test_Repo_MergeRemoteObject(t *testing.T) {
	repo := newTestRepo(t)
	url := "https://peer.example/videos/watch/42"
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	obj := func(content string, updated, fetched time.Time) *dal.RemoteObject {
		return &dal.RemoteObject{
			Url: url, UrlHash: 42, Type: "Video", Name: "Clip", Content: content,
			Published: t1, Updated: updated, FetchedAt: fetched,
		}
	}

	applied, err := repo.MergeRemoteObject(obj("v2", t2, t2))
	assert.Nil(t, err)
	assert.True(t, applied)

	// Older copy loses, but the fetch time moves on
	fetchedLater := t2.Add(time.Minute)
	applied, err = repo.MergeRemoteObject(obj("v1", t1, fetchedLater))
	assert.Nil(t, err)
	assert.False(t, applied)
	stored, err := repo.GetRemoteObject(url)
	assert.Nil(t, err)
	assert.Equal(t, "v2", stored.Content)
	assert.Equal(t, t2, stored.Updated)
	assert.Equal(t, fetchedLater, stored.FetchedAt)

	// Same copy again: same result
	applied, err = repo.MergeRemoteObject(obj("v2", t2, t2))
	assert.Nil(t, err)
	assert.True(t, applied)
	again, err := repo.GetRemoteObject(url)
	assert.Nil(t, err)
	assert.Equal(t, "v2", again.Content)

	deleted, err := repo.DeleteRemoteObject(url)
	assert.Nil(t, err)
	assert.True(t, deleted)
	gone, err := repo.GetRemoteObject(url)
	assert.Nil(t, err)
	assert.Nil(t, gone)
	deleted, err = repo.DeleteRemoteObject(url)
	assert.Nil(t, err)
	assert.False(t, deleted)
}

func Test_Repo_MarkActivityHandled(t *testing.T) {
	repo := newTestRepo(t)
	id := "https://peer.example/activities/1"
	handled, err := repo.MarkActivityHandled(id, time.Now())
	assert.Nil(t, err)
	assert.False(t, handled)
	handled, err = repo.MarkActivityHandled(id, time.Now())
	assert.Nil(t, err)
	assert.True(t, handled)

	// Forgotten after a failed attempt; the next delivery is new again
	assert.Nil(t, repo.UnmarkActivityHandled(id))
	handled, err = repo.MarkActivityHandled(id, time.Now())
	assert.Nil(t, err)
	assert.False(t, handled)
	assert.Nil(t, repo.UnmarkActivityHandled("https://peer.example/activities/unknown"))
}
