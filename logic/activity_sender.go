package logic

import (
	"bytes"
	"context"
	"fed_courier/shared"
	"fmt"
	"github.com/go-fed/httpsig"
	"io"
	"net/http"
	"net/url"
	"time"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../mocks/mock_activity_sender.go -package mocks fed_courier/logic IActivitySender

type IActivitySender interface {
	// Post delivers a serialized activity to an inbox, signed with the sending actor's key.
	Post(ctx context.Context, sendingActor, inboxUrl string, body []byte) error
	// Get performs a signed GET for an ActivityPub document.
	Get(ctx context.Context, signingActor, docUrl string) (body []byte, status int, err error)
}

const maxResponseBytes = 4 * 1024 * 1024

type activitySender struct {
	cfg       *shared.Config
	logger    shared.ILogger
	userAgent shared.IUserAgent
	keyStore  IKeyStore
	metrics   IMetrics
	idb       shared.IdBuilder
	client    *http.Client
}

func NewActivitySender(
	cfg *shared.Config,
	logger shared.ILogger,
	userAgent shared.IUserAgent,
	keyStore IKeyStore,
	metrics IMetrics,
) IActivitySender {
	return &activitySender{
		cfg:       cfg,
		logger:    logger,
		userAgent: userAgent,
		keyStore:  keyStore,
		metrics:   metrics,
		idb:       shared.IdBuilder{Host: cfg.Host},
		client:    &http.Client{},
	}
}

func (sender *activitySender) sign(req *http.Request, actorName string, headers []string, body []byte) error {

	privKey, err := sender.keyStore.GetPrivKey(actorName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSigning, err)
	}

	signer, _, err := httpsig.NewSigner(
		[]httpsig.Algorithm{httpsig.RSA_SHA256},
		httpsig.DigestSha256,
		headers,
		httpsig.Signature,
		0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSigning, err)
	}

	keyId := sender.idb.ActorKeyId(actorName)
	if err = signer.SignRequest(privKey, keyId, req, body); err != nil {
		return fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return nil
}

func (sender *activitySender) newRequest(ctx context.Context, method, docUrl string, body []byte) (*http.Request, error) {

	parsed, err := url.Parse(docUrl)
	if err != nil {
		return nil, err
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid url: %v", docUrl)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, docUrl, reader)
	if err != nil {
		return nil, err
	}
	sender.userAgent.AddUserAgent(req)
	req.Header.Set("host", parsed.Host)
	req.Header.Set("date", time.Now().UTC().Format(http.TimeFormat))
	return req, nil
}

func (sender *activitySender) Post(ctx context.Context, sendingActor, inboxUrl string, body []byte) error {

	obs := sender.metrics.StartApubRequestOut("post")
	defer obs.Finish()

	req, err := sender.newRequest(ctx, "POST", inboxUrl, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/activity+json")

	headers := []string{httpsig.RequestTarget, "Host", "date", "digest"}
	if err = sender.sign(req, sendingActor, headers, body); err != nil {
		return err
	}

	resp, err := sender.client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		sender.logger.Debugf("Activity POST to %s failed with status %d", inboxUrl, resp.StatusCode)
		return &DeliveryError{Status: resp.StatusCode, Body: shared.TruncateWithEllipsis(string(respBody), 256)}
	}

	return nil
}

func (sender *activitySender) Get(ctx context.Context, signingActor, docUrl string) ([]byte, int, error) {

	obs := sender.metrics.StartApubRequestOut("get")
	defer obs.Finish()

	req, err := sender.newRequest(ctx, "GET", docUrl, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/activity+json, application/ld+json")

	headers := []string{httpsig.RequestTarget, "Host", "date"}
	if err = sender.sign(req, signingActor, headers, nil); err != nil {
		return nil, 0, err
	}

	resp, err := sender.client.Do(req)
	if err != nil {
		return nil, 0, err
	}

	defer resp.Body.Close()
	var respBody []byte
	if respBody, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return nil, resp.StatusCode, err
	}
	return respBody, resp.StatusCode, nil
}
