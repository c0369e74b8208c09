package dal

import (
	"fed_courier/shared"
	"time"
)

type FollowState string

const (
	FollowPending  FollowState = "pending"
	FollowAccepted FollowState = "accepted"
	FollowRejected FollowState = "rejected"
)

type JobState string

const (
	JobWaiting   JobState = "waiting"
	JobActive    JobState = "active"
	JobDelayed   JobState = "delayed"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed-permanently"
	JobCancelled JobState = "cancelled"
)

var AllJobStates = []JobState{JobWaiting, JobActive, JobDelayed, JobCompleted, JobFailed, JobCancelled}

func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

func ParseJobState(str string) (JobState, bool) {
	for _, s := range AllJobStates {
		if string(s) == str {
			return s, true
		}
	}
	return "", false
}

type Actor struct {
	Id          int
	ActorUrl    string // https://peer.example/accounts/bob
	Name        string // bob
	Host        string // peer.example
	Inbox       string // https://peer.example/accounts/bob/inbox
	SharedInbox string // https://peer.example/inbox
	PubKey      string
	IsLocal     bool
	CreatedAt   time.Time
	FetchedAt   time.Time
}

func (a *Actor) Handle() string {
	return shared.MakeHandle(a.Name, a.Host)
}

type Follow struct {
	FollowerId        int
	FollowedId        int
	State             FollowState
	RequestId         string // ID of the Follow activity; echoed in Accept/Reject
	RedundancyAllowed bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Follower          *Actor // Only filled by listings
	Followed          *Actor // Only filled by listings
}

type FollowQuery struct {
	ActorId   int
	Followers bool // true: edges where ActorId is followed; false: where ActorId follows
	State     FollowState
	Offset    int
	Limit     int
	Sort      string // createdAt or -createdAt
}

type DeliveryJob struct {
	Id             int64
	ActivityId     string
	ActivityType   string
	SenderId       int
	SendingActor   string // Name of the local actor whose key signs the request
	TargetId       int    // Remote recipient actor; 0 if not known
	ToInbox        string
	Payload        []byte
	State          JobState
	Attempts       int
	NextAttemptAt  time.Time
	LeaseOwner     string
	LeaseExpiresAt time.Time
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	FinishedAt     time.Time
}

type FollowerHealth struct {
	ActorId         int
	ActorUrl        string
	FailureStreak   int
	LastContactedAt time.Time
	LastFailureAt   time.Time
}

type PruneResult struct {
	FollowsRemoved      int
	JobsCancelled       int
	RedundanciesRevoked int
	HealthRemoved       bool
}

func (pr *PruneResult) IsNoop() bool {
	return pr.FollowsRemoved == 0 && pr.JobsCancelled == 0 && pr.RedundanciesRevoked == 0 && !pr.HealthRemoved
}

type Redundancy struct {
	Id        int64
	VideoUrl  string
	ActorId   int // Remote instance actor caching the video
	SizeBytes int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

type RemoteObject struct {
	Url          string
	UrlHash      int64
	Type         string
	AttributedTo string
	Name         string
	Content      string // Sanitized HTML
	Excerpt      string // Plain text
	Published    time.Time
	Updated      time.Time
	FetchedAt    time.Time
	Raw          string
}
