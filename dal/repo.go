package dal

import (
	"database/sql"
	"embed"
	"errors"
	"fed_courier/shared"
	"fmt"
	"github.com/mattn/go-sqlite3"
	"sort"
	"strings"
	"sync"
	"time"
)

const schemaVer = 1

//go:embed scripts/*
var scripts embed.FS

type IRepo interface {
	InitUpdateDb()

	AddLocalActor(actor *Actor, privKey string) (isNew bool, err error)
	UpsertRemoteActor(actor *Actor) (*Actor, error)
	GetActorById(id int) (*Actor, error)
	GetActorByUrl(actorUrl string) (*Actor, error)
	GetLocalActor(name string) (*Actor, error)
	GetPrivKey(name string) (string, error)

	AddFollowIfNew(follow *Follow) (res *Follow, isNew bool, err error)
	GetFollow(followerId, followedId int) (*Follow, error)
	SetFollowState(followerId, followedId int, to FollowState, requestId string, from ...FollowState) (bool, error)
	SetRedundancyAllowed(followerId, followedId int, allowed bool) (bool, error)
	DeleteFollow(followerId, followedId int) (bool, error)
	GetAcceptedFollowers(followedId int) ([]*Actor, error)
	GetAcceptedFollowerCount() (int, error)
	ListFollows(query *FollowQuery) ([]*Follow, int, error)

	AddJob(job *DeliveryJob) error
	AddJobIfFollowing(followedId int, job *DeliveryJob) (added bool, err error)
	LeaseJobs(owner string, max int, now, leaseUntil time.Time) ([]*DeliveryJob, error)
	CompleteJob(id int64, owner string, now time.Time) (*DeliveryJob, error)
	FailJob(id int64, owner string, errMsg string, retryLimit int,
		nextAttempt func(attempts int) time.Time, now time.Time) (*DeliveryJob, error)
	CancelJobs(targetId, senderId int, now time.Time) (int, error)
	GetJob(id int64) (*DeliveryJob, error)
	ListJobs(state JobState, offset, limit int, sort string) ([]*DeliveryJob, int, error)
	CountJobsByState() (map[JobState]int, error)
	CountOutstandingJobs() (int, error)
	PurgeArchivedJobs(olderThan time.Time) (int, error)

	RecordDeliverySuccess(actorId int, now time.Time) (tracked bool, err error)
	RecordDeliveryFailure(actorId int, now time.Time) (streak int, tracked bool, err error)
	GetFollowerHealth(actorId int) (*FollowerHealth, error)
	ListFollowerHealth(offset, limit int) ([]*FollowerHealth, int, error)
	PruneFollower(actorId int, now time.Time) (*PruneResult, error)

	AddRedundancy(r *Redundancy) error
	GetRedundanciesByActor(actorId int) ([]*Redundancy, error)

	GetRemoteObject(url string) (*RemoteObject, error)
	MergeRemoteObject(obj *RemoteObject) (applied bool, err error)
	DeleteRemoteObject(url string) (bool, error)

	MarkActivityHandled(id string, when time.Time) (alreadyHandled bool, err error)
	// UnmarkActivityHandled forgets an activity whose handling failed, so a redelivery is processed.
	UnmarkActivityHandled(id string) error
}

type Repo struct {
	cfg    *shared.Config
	logger shared.ILogger
	db     *sql.DB
	muDb   sync.RWMutex
}

type rowScanner interface {
	Scan(dest ...any) error
}

func NewRepo(cfg *shared.Config, logger shared.ILogger) IRepo {

	var err error
	var db *sql.DB

	// https://phiresky.github.io/blog/2020/sqlite-performance-tuning/
	// https://github.com/mattn/go-sqlite3/issues/1022#issuecomment-1067353980
	// _synchronous=1 is "normal"
	cstr := "file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_synchronous=1&_busy_timeout=5000&_foreign_keys=1"
	db, err = sql.Open("sqlite3", fmt.Sprintf(cstr, cfg.DbFile))
	if err != nil {
		logger.Errorf("Failed to open/create DB file: %s: %v", cfg.DbFile, err)
		panic(err)
	}

	repo := Repo{
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	return &repo
}

func isDuplicateKey(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
				sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	}
	return false
}

func toMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (repo *Repo) InitUpdateDb() {

	dbVer := 0
	sysParamsExists := false
	var err error
	var rows *sql.Rows

	rows, err = repo.db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name='sys_params'")
	if err != nil {
		repo.logger.Errorf("Failed to check if 'sys_params' table exists: %v", err)
		panic(err)
	}
	for rows.Next() {
		sysParamsExists = true
	}
	_ = rows.Close()
	if !sysParamsExists {
		repo.logger.Printf("Database appears to be empty; current schema version is %d", schemaVer)
	} else {
		row := repo.db.QueryRow("SELECT val FROM sys_params WHERE name='schema_ver'")
		if err = row.Scan(&dbVer); err != nil {
			repo.logger.Errorf("Failed to query schema version: %v", err)
			panic(err)
		}
		repo.logger.Printf("Database is at version %d; current schema version is %d", dbVer, schemaVer)
	}
	for i := dbVer; i < schemaVer; i += 1 {
		nextVer := i + 1
		fn := fmt.Sprintf("scripts/create-%02d.sql", nextVer)
		repo.logger.Printf("Running %s", fn)
		var sqlBytes []byte
		if sqlBytes, err = scripts.ReadFile(fn); err != nil {
			repo.logger.Errorf("Failed to read init script %s: %v", fn, err)
			panic(err)
		}
		sqlStr := string(sqlBytes)
		if _, err = repo.db.Exec(sqlStr); err != nil {
			repo.logger.Errorf("Failed to execute init script %s: %v", fn, err)
			panic(err)
		}
		_, err = repo.db.Exec("UPDATE sys_params SET val=? WHERE name='schema_ver'", nextVer)
		if err != nil {
			repo.logger.Errorf("Failed to update schema_ver to %d: %v", nextVer, err)
			panic(err)
		}
	}

	if dbVer == 0 {
		repo.mustAddServerActor()
	}
}

func (repo *Repo) mustAddServerActor() {

	idb := shared.IdBuilder{Host: repo.cfg.Host}
	sa := repo.cfg.ServerActor
	published := sa.Published
	if published.IsZero() {
		published = time.Now().UTC()
	}

	_, err := repo.AddLocalActor(&Actor{
		ActorUrl:  idb.ActorUrl(sa.Name),
		Name:      sa.Name,
		Host:      repo.cfg.Host,
		Inbox:     idb.ActorInbox(sa.Name),
		PubKey:    sa.PubKey,
		IsLocal:   true,
		CreatedAt: published,
	}, sa.PrivKey)

	if err != nil {
		repo.logger.Errorf("Failed to add server actor '%s': %v", sa.Name, err)
		panic(err)
	}
}

// ---------------------------------------------------------------------------------------------
// Actors

const actorCols = `id, actor_url, name, host, inbox, shared_inbox, pubkey, is_local, created_at, fetched_at`

func scanActor(rs rowScanner) (*Actor, error) {
	var a Actor
	err := rs.Scan(&a.Id, &a.ActorUrl, &a.Name, &a.Host, &a.Inbox, &a.SharedInbox, &a.PubKey,
		&a.IsLocal, &a.CreatedAt, &a.FetchedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (repo *Repo) AddLocalActor(actor *Actor, privKey string) (isNew bool, err error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	isNew = true
	var res sql.Result
	res, err = repo.db.Exec(`INSERT INTO actors
		(actor_url, name, host, inbox, shared_inbox, pubkey, privkey, is_local, created_at, fetched_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		actor.ActorUrl, actor.Name, actor.Host, actor.Inbox, actor.SharedInbox, actor.PubKey, privKey,
		actor.CreatedAt.UTC(), actor.CreatedAt.UTC())
	if err == nil {
		var id int64
		if id, err = res.LastInsertId(); err != nil {
			return
		}
		actor.Id = int(id)
		actor.IsLocal = true
		return
	}
	// Duplicate key: actor with this URL or name already exists
	if isDuplicateKey(err) {
		isNew = false
		var existing *Actor
		existing, err = repo.getActor("actor_url=?", actor.ActorUrl)
		if err == nil && existing != nil {
			*actor = *existing
		}
	}
	return
}

func (repo *Repo) UpsertRemoteActor(actor *Actor) (*Actor, error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	now := time.Now().UTC()
	_, err := repo.db.Exec(`INSERT INTO actors
		(actor_url, name, host, inbox, shared_inbox, pubkey, is_local, created_at, fetched_at)
		VALUES(?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(actor_url) DO UPDATE SET name=excluded.name, inbox=excluded.inbox,
			shared_inbox=excluded.shared_inbox, pubkey=excluded.pubkey, fetched_at=excluded.fetched_at
		WHERE actors.is_local=0`,
		actor.ActorUrl, actor.Name, actor.Host, actor.Inbox, actor.SharedInbox, actor.PubKey, now, now)
	if err != nil {
		return nil, err
	}
	return repo.getActor("actor_url=?", actor.ActorUrl)
}

func (repo *Repo) getActor(where string, args ...any) (*Actor, error) {
	row := repo.db.QueryRow(`SELECT `+actorCols+` FROM actors WHERE `+where, args...)
	res, err := scanActor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return res, nil
}

func (repo *Repo) GetActorById(id int) (*Actor, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	return repo.getActor("id=?", id)
}

func (repo *Repo) GetActorByUrl(actorUrl string) (*Actor, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	return repo.getActor("actor_url=?", actorUrl)
}

func (repo *Repo) GetLocalActor(name string) (*Actor, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	return repo.getActor("name=? AND is_local=1", name)
}

func (repo *Repo) GetPrivKey(name string) (string, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	row := repo.db.QueryRow(`SELECT privkey FROM actors WHERE name=? AND is_local=1`, name)
	var err error
	var res string
	err = row.Scan(&res)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		} else {
			return "", err
		}
	}
	return res, nil
}

// ---------------------------------------------------------------------------------------------
// Follows

const followCols = `follower_id, followed_id, state, request_id, redundancy_allowed, created_at, updated_at`

func scanFollow(rs rowScanner, extra ...any) (*Follow, error) {
	var f Follow
	dest := []any{&f.FollowerId, &f.FollowedId, &f.State, &f.RequestId, &f.RedundancyAllowed,
		&f.CreatedAt, &f.UpdatedAt}
	dest = append(dest, extra...)
	if err := rs.Scan(dest...); err != nil {
		return nil, err
	}
	return &f, nil
}

func (repo *Repo) getFollow(followerId, followedId int) (*Follow, error) {
	row := repo.db.QueryRow(`SELECT `+followCols+` FROM follows WHERE follower_id=? AND followed_id=?`,
		followerId, followedId)
	res, err := scanFollow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return res, nil
}

func (repo *Repo) AddFollowIfNew(follow *Follow) (res *Follow, isNew bool, err error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	now := time.Now().UTC()
	var sqlRes sql.Result
	sqlRes, err = repo.db.Exec(`INSERT INTO follows (`+followCols+`) VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(follower_id, followed_id) DO NOTHING`,
		follow.FollowerId, follow.FollowedId, follow.State, follow.RequestId, follow.RedundancyAllowed, now, now)
	if err != nil {
		return
	}
	var affected int64
	if affected, err = sqlRes.RowsAffected(); err != nil {
		return
	}
	isNew = affected != 0
	res, err = repo.getFollow(follow.FollowerId, follow.FollowedId)
	return
}

func (repo *Repo) GetFollow(followerId, followedId int) (*Follow, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	return repo.getFollow(followerId, followedId)
}

// SetFollowState moves an edge to state 'to' if its current state is one of 'from'.
// An empty requestId leaves the stored request ID unchanged.
func (repo *Repo) SetFollowState(followerId, followedId int, to FollowState, requestId string,
	from ...FollowState) (bool, error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	if len(from) == 0 {
		return false, errors.New("no source states given")
	}
	args := []any{to, requestId, requestId, time.Now().UTC(), followerId, followedId}
	for _, s := range from {
		args = append(args, s)
	}
	res, err := repo.db.Exec(`UPDATE follows
		SET state=?, request_id=CASE WHEN ?='' THEN request_id ELSE ? END, updated_at=?
		WHERE follower_id=? AND followed_id=? AND state IN (`+placeholders(len(from))+`)`, args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected != 0, nil
}

func (repo *Repo) SetRedundancyAllowed(followerId, followedId int, allowed bool) (bool, error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	res, err := repo.db.Exec(`UPDATE follows SET redundancy_allowed=?, updated_at=?
		WHERE follower_id=? AND followed_id=?`, allowed, time.Now().UTC(), followerId, followedId)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected != 0, nil
}

// DeleteFollow removes the edge; the follower's health record goes with its last edge.
func (repo *Repo) DeleteFollow(followerId, followedId int) (bool, error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	tx, err := repo.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM follows WHERE follower_id=? AND followed_id=?`, followerId, followedId)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	_, err = tx.Exec(`DELETE FROM follower_health WHERE actor_id=?
		AND NOT EXISTS (SELECT 1 FROM follows WHERE follower_id=?)`, followerId, followerId)
	if err != nil {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return affected != 0, nil
}

func (repo *Repo) GetAcceptedFollowers(followedId int) ([]*Actor, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	rows, err := repo.db.Query(`SELECT `+prefixCols("a", actorCols)+`
		FROM follows f JOIN actors a ON a.id=f.follower_id
		WHERE f.followed_id=? AND f.state=? ORDER BY f.created_at ASC`, followedId, FollowAccepted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := make([]*Actor, 0)
	for rows.Next() {
		var a *Actor
		if a, err = scanActor(rows); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (repo *Repo) GetAcceptedFollowerCount() (int, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	row := repo.db.QueryRow(`SELECT COUNT(*) FROM follows f JOIN actors a ON a.id=f.followed_id
		WHERE a.is_local=1 AND f.state=?`, FollowAccepted)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func prefixCols(prefix, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = prefix + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func followSortClause(sort string) string {
	switch sort {
	case "createdAt":
		return "f.created_at ASC, f.follower_id ASC"
	default:
		return "f.created_at DESC, f.follower_id DESC"
	}
}

func (repo *Repo) ListFollows(query *FollowQuery) ([]*Follow, int, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	where := "f.follower_id=?"
	if query.Followers {
		where = "f.followed_id=?"
	}
	args := []any{query.ActorId}
	if query.State != "" {
		where += " AND f.state=?"
		args = append(args, query.State)
	}

	var total int
	row := repo.db.QueryRow(`SELECT COUNT(*) FROM follows f WHERE `+where, args...)
	if err := row.Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, query.Limit, query.Offset)
	rows, err := repo.db.Query(`SELECT `+prefixCols("f", followCols)+`, `+
		prefixCols("a", actorCols)+`, `+prefixCols("b", actorCols)+`
		FROM follows f JOIN actors a ON a.id=f.follower_id JOIN actors b ON b.id=f.followed_id
		WHERE `+where+` ORDER BY `+followSortClause(query.Sort)+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	res := make([]*Follow, 0, query.Limit)
	for rows.Next() {
		var a, b Actor
		f, err := scanFollow(rows,
			&a.Id, &a.ActorUrl, &a.Name, &a.Host, &a.Inbox, &a.SharedInbox, &a.PubKey, &a.IsLocal,
			&a.CreatedAt, &a.FetchedAt,
			&b.Id, &b.ActorUrl, &b.Name, &b.Host, &b.Inbox, &b.SharedInbox, &b.PubKey, &b.IsLocal,
			&b.CreatedAt, &b.FetchedAt)
		if err != nil {
			return nil, 0, err
		}
		f.Follower = &a
		f.Followed = &b
		res = append(res, f)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}
	return res, total, nil
}

// ---------------------------------------------------------------------------------------------
// Delivery jobs

const jobCols = `id, activity_id, activity_type, sender_id, sending_actor, target_id, to_inbox, payload, state,
	attempts, next_attempt_ms, lease_owner, lease_expires_ms, last_error, created_ms, updated_ms, finished_ms`

func scanJob(rs rowScanner) (*DeliveryJob, error) {
	var job DeliveryJob
	var nextAttempt, leaseExpires, created, updated, finished int64
	err := rs.Scan(&job.Id, &job.ActivityId, &job.ActivityType, &job.SenderId, &job.SendingActor, &job.TargetId,
		&job.ToInbox, &job.Payload, &job.State, &job.Attempts, &nextAttempt, &job.LeaseOwner, &leaseExpires,
		&job.LastError, &created, &updated, &finished)
	if err != nil {
		return nil, err
	}
	job.NextAttemptAt = fromMs(nextAttempt)
	job.LeaseExpiresAt = fromMs(leaseExpires)
	job.CreatedAt = fromMs(created)
	job.UpdatedAt = fromMs(updated)
	job.FinishedAt = fromMs(finished)
	return &job, nil
}

func readJobs(rows *sql.Rows) ([]*DeliveryJob, error) {
	res := make([]*DeliveryJob, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func prepareNewJob(job *DeliveryJob) []any {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	job.UpdatedAt = job.CreatedAt
	job.NextAttemptAt = job.CreatedAt
	job.State = JobWaiting
	job.Attempts = 0
	createdMs := toMs(job.CreatedAt)
	return []any{job.ActivityId, job.ActivityType, job.SenderId, job.SendingActor, job.TargetId, job.ToInbox,
		job.Payload, job.State, createdMs, createdMs, createdMs}
}

const insertJobCols = `activity_id, activity_type, sender_id, sending_actor, target_id, to_inbox, payload, state,
	next_attempt_ms, created_ms, updated_ms`

func (repo *Repo) AddJob(job *DeliveryJob) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	args := prepareNewJob(job)
	res, err := repo.db.Exec(`INSERT INTO delivery_jobs (`+insertJobCols+`)
		VALUES (`+placeholders(len(args))+`)`, args...)
	if err != nil {
		return err
	}
	job.Id, err = res.LastInsertId()
	return err
}

// AddJobIfFollowing inserts the job only while job.TargetId has an accepted follow on followedId.
// The check and the insert are a single statement.
func (repo *Repo) AddJobIfFollowing(followedId int, job *DeliveryJob) (added bool, err error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	args := prepareNewJob(job)
	args = append(args, job.TargetId, followedId, FollowAccepted)
	res, err := repo.db.Exec(`INSERT INTO delivery_jobs (`+insertJobCols+`)
		SELECT `+placeholders(len(args)-3)+`
		WHERE EXISTS (SELECT 1 FROM follows WHERE follower_id=? AND followed_id=? AND state=?)`, args...)
	if err != nil {
		return false, err
	}
	var affected int64
	if affected, err = res.RowsAffected(); err != nil || affected == 0 {
		return false, err
	}
	job.Id, err = res.LastInsertId()
	return err == nil, err
}

func (repo *Repo) LeaseJobs(owner string, max int, now, leaseUntil time.Time) ([]*DeliveryJob, error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	nowMs := toMs(now)
	rows, err := repo.db.Query(`UPDATE delivery_jobs
		SET state=?, lease_owner=?, lease_expires_ms=?, updated_ms=?
		WHERE id IN (
			SELECT id FROM delivery_jobs
			WHERE state=?
				OR (state=? AND next_attempt_ms<=?)
				OR (state=? AND lease_expires_ms<=?)
			ORDER BY next_attempt_ms ASC, id ASC
			LIMIT ?)
		RETURNING `+jobCols,
		JobActive, owner, toMs(leaseUntil), nowMs,
		JobWaiting, JobDelayed, nowMs, JobActive, nowMs,
		max)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	jobs, err := readJobs(rows)
	if err != nil {
		return nil, err
	}
	// RETURNING does not follow the subquery's ORDER BY
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].NextAttemptAt.Equal(jobs[j].NextAttemptAt) {
			return jobs[i].NextAttemptAt.Before(jobs[j].NextAttemptAt)
		}
		return jobs[i].Id < jobs[j].Id
	})
	return jobs, nil
}

// CompleteJob returns nil if the job is no longer leased by owner.
func (repo *Repo) CompleteJob(id int64, owner string, now time.Time) (*DeliveryJob, error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	nowMs := toMs(now)
	row := repo.db.QueryRow(`UPDATE delivery_jobs
		SET state=?, lease_owner='', lease_expires_ms=0, updated_ms=?, finished_ms=?
		WHERE id=? AND state=? AND lease_owner=?
		RETURNING `+jobCols,
		JobCompleted, nowMs, nowMs, id, JobActive, owner)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// FailJob records a failed attempt. The job is delayed until nextAttempt(attempts) while
// attempts <= retryLimit, and fails permanently after that. Returns nil if the job is no
// longer leased by owner.
func (repo *Repo) FailJob(id int64, owner string, errMsg string, retryLimit int,
	nextAttempt func(attempts int) time.Time, now time.Time) (*DeliveryJob, error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	tx, err := repo.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var attempts int
	row := tx.QueryRow(`SELECT attempts FROM delivery_jobs WHERE id=? AND state=? AND lease_owner=?`,
		id, JobActive, owner)
	if err = row.Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	attempts += 1
	nowMs := toMs(now)
	state := JobDelayed
	nextMs := int64(0)
	finishedMs := int64(0)
	if attempts <= retryLimit {
		nextMs = toMs(nextAttempt(attempts))
	} else {
		state = JobFailed
		finishedMs = nowMs
	}

	row = tx.QueryRow(`UPDATE delivery_jobs
		SET state=?, attempts=?, next_attempt_ms=CASE WHEN ?=0 THEN next_attempt_ms ELSE ? END,
			lease_owner='', lease_expires_ms=0, last_error=?, updated_ms=?, finished_ms=?
		WHERE id=?
		RETURNING `+jobCols,
		state, attempts, nextMs, nextMs, errMsg, nowMs, finishedMs, id)
	job, err := scanJob(row)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return job, nil
}

// CancelJobs withdraws waiting and delayed jobs addressed to targetId. A senderId of 0 matches any sender.
func (repo *Repo) CancelJobs(targetId, senderId int, now time.Time) (int, error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	return cancelJobs(repo.db, targetId, senderId, now)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func cancelJobs(db execer, targetId, senderId int, now time.Time) (int, error) {
	nowMs := toMs(now)
	res, err := db.Exec(`UPDATE delivery_jobs
		SET state=?, lease_owner='', updated_ms=?, finished_ms=?
		WHERE target_id=? AND (?=0 OR sender_id=?) AND state IN (?, ?)`,
		JobCancelled, nowMs, nowMs, targetId, senderId, senderId, JobWaiting, JobDelayed)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

func (repo *Repo) GetJob(id int64) (*DeliveryJob, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	row := repo.db.QueryRow(`SELECT `+jobCols+` FROM delivery_jobs WHERE id=?`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

func jobSortClause(sort string) string {
	switch sort {
	case "createdAt":
		return "created_ms ASC, id ASC"
	case "nextAttemptAt":
		return "next_attempt_ms ASC, id ASC"
	case "-nextAttemptAt":
		return "next_attempt_ms DESC, id DESC"
	default:
		return "created_ms DESC, id DESC"
	}
}

// ListJobs returns a page of jobs in the given state (all states if state is empty) and the total count.
func (repo *Repo) ListJobs(state JobState, offset, limit int, sort string) ([]*DeliveryJob, int, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	where := "1=1"
	var args []any
	if state != "" {
		where = "state=?"
		args = append(args, state)
	}

	var total int
	row := repo.db.QueryRow(`SELECT COUNT(*) FROM delivery_jobs WHERE `+where, args...)
	if err := row.Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := repo.db.Query(`SELECT `+jobCols+` FROM delivery_jobs WHERE `+where+
		` ORDER BY `+jobSortClause(sort)+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	jobs, err := readJobs(rows)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (repo *Repo) CountJobsByState() (map[JobState]int, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	rows, err := repo.db.Query(`SELECT state, COUNT(*) FROM delivery_jobs GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := make(map[JobState]int)
	for _, s := range AllJobStates {
		res[s] = 0
	}
	for rows.Next() {
		var state JobState
		var count int
		if err = rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		res[state] = count
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (repo *Repo) CountOutstandingJobs() (int, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	row := repo.db.QueryRow(`SELECT COUNT(*) FROM delivery_jobs WHERE state IN (?, ?, ?)`,
		JobWaiting, JobActive, JobDelayed)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *Repo) PurgeArchivedJobs(olderThan time.Time) (int, error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	res, err := repo.db.Exec(`DELETE FROM delivery_jobs WHERE state IN (?, ?, ?) AND finished_ms<?`,
		JobCompleted, JobFailed, JobCancelled, toMs(olderThan))
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

// ---------------------------------------------------------------------------------------------
// Follower health

// RecordDeliverySuccess resets the streak. Actors that follow nobody here are not tracked.
func (repo *Repo) RecordDeliverySuccess(actorId int, now time.Time) (tracked bool, err error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	res, err := repo.db.Exec(`INSERT INTO follower_health (actor_id, failure_streak, last_contacted_at)
		SELECT ?, 0, ? WHERE EXISTS (SELECT 1 FROM follows WHERE follower_id=?)
		ON CONFLICT(actor_id) DO UPDATE SET failure_streak=0, last_contacted_at=excluded.last_contacted_at`,
		actorId, now.UTC(), actorId)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected != 0, nil
}

func (repo *Repo) RecordDeliveryFailure(actorId int, now time.Time) (streak int, tracked bool, err error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	row := repo.db.QueryRow(`INSERT INTO follower_health (actor_id, failure_streak, last_failure_at)
		SELECT ?, 1, ? WHERE EXISTS (SELECT 1 FROM follows WHERE follower_id=?)
		ON CONFLICT(actor_id) DO UPDATE SET failure_streak=failure_streak+1,
			last_failure_at=excluded.last_failure_at
		RETURNING failure_streak`,
		actorId, now.UTC(), actorId)
	if err = row.Scan(&streak); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return streak, true, nil
}

const healthCols = `h.actor_id, COALESCE(a.actor_url, ''), h.failure_streak, h.last_contacted_at, h.last_failure_at`

func scanHealth(rs rowScanner) (*FollowerHealth, error) {
	var fh FollowerHealth
	var lastContacted, lastFailure sql.NullTime
	if err := rs.Scan(&fh.ActorId, &fh.ActorUrl, &fh.FailureStreak, &lastContacted, &lastFailure); err != nil {
		return nil, err
	}
	if lastContacted.Valid {
		fh.LastContactedAt = lastContacted.Time
	}
	if lastFailure.Valid {
		fh.LastFailureAt = lastFailure.Time
	}
	return &fh, nil
}

func (repo *Repo) GetFollowerHealth(actorId int) (*FollowerHealth, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	row := repo.db.QueryRow(`SELECT `+healthCols+`
		FROM follower_health h LEFT JOIN actors a ON a.id=h.actor_id WHERE h.actor_id=?`, actorId)
	fh, err := scanHealth(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return fh, nil
}

func (repo *Repo) ListFollowerHealth(offset, limit int) ([]*FollowerHealth, int, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	var total int
	if err := repo.db.QueryRow(`SELECT COUNT(*) FROM follower_health`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := repo.db.Query(`SELECT `+healthCols+`
		FROM follower_health h LEFT JOIN actors a ON a.id=h.actor_id
		ORDER BY h.failure_streak DESC, h.actor_id ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	res := make([]*FollowerHealth, 0, limit)
	for rows.Next() {
		fh, err := scanHealth(rows)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, fh)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}
	return res, total, nil
}

// PruneFollower removes every edge where actorId is the follower, together with its health record,
// its pending jobs and its redundancy assignments, in one transaction.
func (repo *Repo) PruneFollower(actorId int, now time.Time) (*PruneResult, error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	tx, err := repo.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var res PruneResult
	affected := func(r sql.Result, err error) (int, error) {
		if err != nil {
			return 0, err
		}
		n, err := r.RowsAffected()
		return int(n), err
	}

	if res.FollowsRemoved, err = affected(tx.Exec(`DELETE FROM follows WHERE follower_id=?`, actorId)); err != nil {
		return nil, err
	}
	var healthRows int
	if healthRows, err = affected(tx.Exec(`DELETE FROM follower_health WHERE actor_id=?`, actorId)); err != nil {
		return nil, err
	}
	res.HealthRemoved = healthRows != 0
	if res.JobsCancelled, err = cancelJobs(tx, actorId, 0, now); err != nil {
		return nil, err
	}
	if res.RedundanciesRevoked, err = affected(tx.Exec(`DELETE FROM redundancies WHERE actor_id=?`, actorId)); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &res, nil
}

// ---------------------------------------------------------------------------------------------
// Redundancies

func (repo *Repo) AddRedundancy(r *Redundancy) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	row := repo.db.QueryRow(`INSERT INTO redundancies (video_url, actor_id, size_bytes, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(video_url, actor_id) DO UPDATE SET size_bytes=excluded.size_bytes, expires_at=excluded.expires_at
		RETURNING id`,
		r.VideoUrl, r.ActorId, r.SizeBytes, r.ExpiresAt.UTC(), r.CreatedAt.UTC())
	return row.Scan(&r.Id)
}

func (repo *Repo) GetRedundanciesByActor(actorId int) ([]*Redundancy, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	rows, err := repo.db.Query(`SELECT id, video_url, actor_id, size_bytes, expires_at, created_at
		FROM redundancies WHERE actor_id=? ORDER BY id ASC`, actorId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := make([]*Redundancy, 0)
	for rows.Next() {
		var r Redundancy
		if err = rows.Scan(&r.Id, &r.VideoUrl, &r.ActorId, &r.SizeBytes, &r.ExpiresAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &r)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// ---------------------------------------------------------------------------------------------
// Remote objects

const remoteObjectCols = `url, url_hash, type, attributed_to, name, content, excerpt,
	published_ms, updated_ms, fetched_ms, raw`

func (repo *Repo) GetRemoteObject(url string) (*RemoteObject, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	row := repo.db.QueryRow(`SELECT `+remoteObjectCols+` FROM remote_objects WHERE url=?`, url)
	var obj RemoteObject
	var published, updated, fetched int64
	err := row.Scan(&obj.Url, &obj.UrlHash, &obj.Type, &obj.AttributedTo, &obj.Name, &obj.Content, &obj.Excerpt,
		&published, &updated, &fetched, &obj.Raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	obj.Published = fromMs(published)
	obj.Updated = fromMs(updated)
	obj.FetchedAt = fromMs(fetched)
	return &obj, nil
}

// MergeRemoteObject inserts the object, or overwrites the stored copy unless the stored copy is newer.
// The fetch time is refreshed either way.
func (repo *Repo) MergeRemoteObject(obj *RemoteObject) (applied bool, err error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	tx, err := repo.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	fetchedMs := toMs(obj.FetchedAt)
	res, err := tx.Exec(`INSERT INTO remote_objects (`+remoteObjectCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET type=excluded.type, attributed_to=excluded.attributed_to,
			name=excluded.name, content=excluded.content, excerpt=excluded.excerpt,
			published_ms=excluded.published_ms, updated_ms=excluded.updated_ms,
			fetched_ms=excluded.fetched_ms, raw=excluded.raw
		WHERE excluded.updated_ms>=remote_objects.updated_ms`,
		obj.Url, obj.UrlHash, obj.Type, obj.AttributedTo, obj.Name, obj.Content, obj.Excerpt,
		toMs(obj.Published), toMs(obj.Updated), fetchedMs, obj.Raw)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		if _, err = tx.Exec(`UPDATE remote_objects SET fetched_ms=? WHERE url=?`, fetchedMs, obj.Url); err != nil {
			return false, err
		}
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return affected != 0, nil
}

func (repo *Repo) DeleteRemoteObject(url string) (bool, error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	res, err := repo.db.Exec(`DELETE FROM remote_objects WHERE url=?`, url)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected != 0, err
}

// ---------------------------------------------------------------------------------------------
// Inbound activities

func (repo *Repo) MarkActivityHandled(id string, when time.Time) (alreadyHandled bool, err error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	alreadyHandled = false
	err = nil

	_, err = repo.db.Exec(`INSERT INTO handled_activities VALUES (?, ?)`, id, when.UTC())

	if err == nil {
		return
	}

	// Duplicate key: activity was handled before
	if isDuplicateKey(err) {
		alreadyHandled = true
		err = nil
		return
	}

	return
}

func (repo *Repo) UnmarkActivityHandled(id string) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	_, err := repo.db.Exec(`DELETE FROM handled_activities WHERE id=?`, id)
	return err
}
