package logic

import (
	"context"
	"encoding/json"
	"errors"
	"fed_courier/dal"
	"fed_courier/dto"
	"fed_courier/shared"
	"fmt"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/spaolacci/murmur3"
	"net/http"
	"strings"
	"time"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../mocks/mock_reconciler.go -package mocks fed_courier/logic IReconciler

// IReconciler keeps local copies of remote objects in step with their origin.
type IReconciler interface {
	// FetchAndMergeRemoteObject pulls the object from its origin and merges it into the local copy.
	// On ErrRemoteUnavailable the stale local copy, if any, is returned alongside the error.
	FetchAndMergeRemoteObject(ctx context.Context, objectUrl string) (*dal.RemoteObject, error)
	// GetObject serves the local copy, refreshing it first when missing or stale.
	GetObject(ctx context.Context, objectUrl string) (*dal.RemoteObject, error)
	MergeObject(obj *dto.RemoteObject, raw []byte) (*dal.RemoteObject, error)
	DeleteObject(objectUrl string) error
}

type reconciler struct {
	cfg       *shared.Config
	logger    shared.ILogger
	repo      dal.IRepo
	sender    IActivitySender
	metrics   IMetrics
	sanitizer *bluemonday.Policy
}

func NewReconciler(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	sender IActivitySender,
	metrics IMetrics,
) IReconciler {
	return &reconciler{
		cfg:       cfg,
		logger:    logger,
		repo:      repo,
		sender:    sender,
		metrics:   metrics,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

func hashUrl(objectUrl string) int64 {
	return int64(murmur3.Sum64([]byte(objectUrl)))
}

func parseTime(str string) time.Time {
	if str == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func makeExcerpt(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	text := strings.Join(strings.Fields(doc.Text()), " ")
	return shared.TruncateWithEllipsis(text, shared.MaxExcerptLen)
}

func (rc *reconciler) toLocal(obj *dto.RemoteObject, raw []byte) *dal.RemoteObject {
	content := rc.sanitizer.Sanitize(obj.Content)
	published := parseTime(obj.Published)
	updated := parseTime(obj.Updated)
	// LWW timestamp falls back to the publication time
	if updated.IsZero() {
		updated = published
	}
	return &dal.RemoteObject{
		Url:          obj.Id,
		UrlHash:      hashUrl(obj.Id),
		Type:         obj.Type,
		AttributedTo: obj.AttributedToId(),
		Name:         obj.Name,
		Content:      content,
		Excerpt:      makeExcerpt(content),
		Published:    published,
		Updated:      updated,
		FetchedAt:    time.Now().UTC(),
		Raw:          string(raw),
	}
}

func (rc *reconciler) MergeObject(obj *dto.RemoteObject, raw []byte) (*dal.RemoteObject, error) {

	if obj.Id == "" {
		return nil, errors.New("object has no id")
	}
	local := rc.toLocal(obj, raw)
	applied, err := rc.repo.MergeRemoteObject(local)
	if err != nil {
		return nil, err
	}
	if applied {
		rc.metrics.ReconcileOutcome(outcomeMerged)
		rc.logger.Debugf("Merged remote object %s", obj.Id)
	} else {
		rc.metrics.ReconcileOutcome(outcomeUnchanged)
		rc.logger.Debugf("Kept newer local copy of %s", obj.Id)
	}
	return rc.repo.GetRemoteObject(obj.Id)
}

func (rc *reconciler) DeleteObject(objectUrl string) error {
	deleted, err := rc.repo.DeleteRemoteObject(objectUrl)
	if err != nil {
		return err
	}
	if deleted {
		rc.logger.Infof("Deleted local copy of %s", objectUrl)
	}
	return nil
}

func (rc *reconciler) gone(objectUrl string) (*dal.RemoteObject, error) {
	rc.metrics.ReconcileOutcome(outcomeGone)
	if err := rc.DeleteObject(objectUrl); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrRemoteGone, objectUrl)
}

func (rc *reconciler) unavailable(objectUrl string, cause error) (*dal.RemoteObject, error) {
	rc.metrics.ReconcileOutcome(outcomeStale)
	rc.logger.Warnf("Remote object %s unavailable: %v", objectUrl, cause)
	stale, err := rc.repo.GetRemoteObject(objectUrl)
	if err != nil {
		return nil, err
	}
	return stale, fmt.Errorf("%w: %s: %v", ErrRemoteUnavailable, objectUrl, cause)
}

func (rc *reconciler) FetchAndMergeRemoteObject(ctx context.Context, objectUrl string) (*dal.RemoteObject, error) {

	if _, err := shared.GetHostName(objectUrl); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(rc.cfg.Reconcile.RequestTimeoutMsec)*time.Millisecond)
	defer cancel()

	body, status, err := rc.sender.Get(ctx, rc.cfg.ServerActor.Name, objectUrl)
	if err != nil {
		if errors.Is(err, ErrSigning) {
			return nil, err
		}
		return rc.unavailable(objectUrl, err)
	}
	if status == http.StatusNotFound || status == http.StatusGone {
		return rc.gone(objectUrl)
	}
	if status != http.StatusOK {
		return rc.unavailable(objectUrl, fmt.Errorf("got status %d", status))
	}

	var obj dto.RemoteObject
	if err = json.Unmarshal(body, &obj); err != nil {
		return rc.unavailable(objectUrl, fmt.Errorf("invalid JSON: %v", err))
	}
	if obj.Type == "Tombstone" {
		return rc.gone(objectUrl)
	}
	if obj.Id == "" {
		return rc.unavailable(objectUrl, errors.New("object has no id"))
	}
	if obj.Id != objectUrl {
		return rc.unavailable(objectUrl, fmt.Errorf("object id %s does not match", obj.Id))
	}

	return rc.MergeObject(&obj, body)
}

func (rc *reconciler) GetObject(ctx context.Context, objectUrl string) (*dal.RemoteObject, error) {
	local, err := rc.repo.GetRemoteObject(objectUrl)
	if err != nil {
		return nil, err
	}
	staleAfter := time.Duration(rc.cfg.Reconcile.StaleAfterMin) * time.Minute
	if local != nil && time.Since(local.FetchedAt) < staleAfter {
		return local, nil
	}
	return rc.FetchAndMergeRemoteObject(ctx, objectUrl)
}
