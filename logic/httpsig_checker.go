package logic

import (
	"context"
	"fed_courier/dal"
	"fed_courier/shared"
	"fmt"
	"github.com/go-fed/httpsig"
	"net/http"
	"regexp"
	"strings"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../mocks/mock_httpsig_checker.go -package mocks fed_courier/logic IHttpSigChecker

type IHttpSigChecker interface {
	// Check verifies the request's HTTP signature and returns the signing actor.
	// Problems with the request are returned as a message, not as an error.
	Check(ctx context.Context, r *http.Request) (signer *dal.Actor, problem string, err error)
}

type httpSigChecker struct {
	logger  shared.ILogger
	adir    IActorDirectory
	reKeyId *regexp.Regexp
}

func NewHttpSigChecker(logger shared.ILogger, adir IActorDirectory) IHttpSigChecker {
	reKeyId := regexp.MustCompile("keyId=['\"]([^'\"]+)['\"]")
	return &httpSigChecker{logger, adir, reKeyId}
}

func verifyWithKey(verifier httpsig.Verifier, pubKeyPem string) error {
	pubKey, err := parsePublicKey(pubKeyPem)
	if err != nil {
		return fmt.Errorf("failed to parse sender's public key: %v", err)
	}
	return verifier.Verify(pubKey, httpsig.RSA_SHA256)
}

func (chk *httpSigChecker) Check(ctx context.Context, r *http.Request) (*dal.Actor, string, error) {

	var err error

	var sigHeader = r.Header.Get("Signature")
	groups := chk.reKeyId.FindStringSubmatch(sigHeader)
	if groups == nil {
		return nil, "Missing or invalid 'Signature' header", nil
	}
	keyId := groups[1]
	actorUrl := keyId
	if hashIx := strings.IndexByte(keyId, '#'); hashIx != -1 {
		actorUrl = keyId[:hashIx]
	}

	var signer *dal.Actor
	if signer, err = chk.adir.Resolve(ctx, actorUrl); err != nil {
		return nil, fmt.Sprintf("Failed to retrieve actor for key %s: %v", keyId, err), nil
	}

	verifier, err := httpsig.NewVerifier(r)
	if err != nil {
		return nil, fmt.Sprintf("Cannot verify signature: %v", err), nil
	}

	if err = verifyWithKey(verifier, signer.PubKey); err == nil {
		return signer, "", nil
	}

	// Key may have been rotated since we cached the actor
	chk.logger.Debugf("Signature check failed with cached key of %s; refetching", actorUrl)
	if signer, err = chk.adir.Refresh(ctx, actorUrl); err != nil {
		return nil, fmt.Sprintf("Failed to refetch actor %s: %v", actorUrl, err), nil
	}
	if verifier, err = httpsig.NewVerifier(r); err != nil {
		return nil, fmt.Sprintf("Cannot verify signature: %v", err), nil
	}
	if err = verifyWithKey(verifier, signer.PubKey); err != nil {
		return nil, fmt.Sprintf("Incorrect signature: %v", err), nil
	}

	return signer, "", nil
}
