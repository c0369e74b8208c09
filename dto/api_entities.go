package dto

import "time"

type Actor struct {
	Id        int       `json:"id"`
	Handle    string    `json:"handle"`
	Url       string    `json:"url"`
	Inbox     string    `json:"inbox"`
	IsLocal   bool      `json:"is_local"`
	CreatedAt time.Time `json:"created_at"`
}

type Follow struct {
	Follower          Actor     `json:"follower"`
	Followed          Actor     `json:"followed"`
	State             string    `json:"state"`
	RedundancyAllowed bool      `json:"redundancy_allowed"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type FollowsPage struct {
	Total int       `json:"total"`
	Data  []*Follow `json:"data"`
}

type FollowRequest struct {
	Follower string `json:"follower" validate:"required"` // Local actor name, or actor URL
	Followed string `json:"followed" validate:"required"` // Actor URL, or local actor name
}

type RedundancyRequest struct {
	FollowRequest
	Allowed bool `json:"allowed"`
}

type Job struct {
	Id            int64      `json:"id"`
	ActivityId    string     `json:"activity_id"`
	ActivityType  string     `json:"activity_type"`
	SendingActor  string     `json:"sending_actor"`
	TargetId      int        `json:"target_id"`
	ToInbox       string     `json:"to_inbox"`
	State         string     `json:"state"`
	Attempts      int        `json:"attempts"`
	NextAttemptAt time.Time  `json:"next_attempt_at"`
	LastError     string     `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

type JobsPage struct {
	Total int    `json:"total"`
	Data  []*Job `json:"data"`
}

type JobStats struct {
	Counts      map[string]int `json:"counts"`
	Outstanding int            `json:"outstanding"`
}

type WaitResult struct {
	Drained bool `json:"drained"`
}

type FollowerHealth struct {
	ActorId         int        `json:"actor_id"`
	ActorUrl        string     `json:"actor_url"`
	FailureStreak   int        `json:"failure_streak"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
	LastFailureAt   *time.Time `json:"last_failure_at,omitempty"`
}

type HealthPage struct {
	Total int               `json:"total"`
	Data  []*FollowerHealth `json:"data"`
}

type CreateActorRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

type BroadcastRequest struct {
	Type   string `json:"type" validate:"required,oneof=Create Update Delete Announce"`
	Object any    `json:"object" validate:"required"`
}

type BroadcastResult struct {
	Enqueued int `json:"enqueued"`
}

type ObjectResult struct {
	Url          string    `json:"url"`
	Type         string    `json:"type"`
	AttributedTo string    `json:"attributed_to"`
	Name         string    `json:"name"`
	Content      string    `json:"content"`
	Excerpt      string    `json:"excerpt"`
	Published    time.Time `json:"published"`
	Updated      time.Time `json:"updated"`
	FetchedAt    time.Time `json:"fetched_at"`
	Stale        bool      `json:"stale"`
}
