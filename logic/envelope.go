package logic

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fed_courier/dal"
	"fed_courier/dto"
	"fed_courier/shared"
	"fmt"
	"github.com/google/uuid"
	"time"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../mocks/mock_envelope.go -package mocks fed_courier/logic IEnvelope

const signatureType = "RsaSignature2017"

// Activities about content are public; follow lifecycle activities only go to their target.
var publicTypes = map[string]bool{"Create": true, "Update": true, "Delete": true, "Announce": true}

// SignedActivity is an outgoing activity, serialized and signed, ready to be queued.
type SignedActivity struct {
	Id        string
	Type      string
	ActorUrl  string
	KeyId     string
	Body      []byte
	CreatedAt time.Time
}

type IEnvelope interface {
	BuildActivity(actionType string, actor *dal.Actor, object any, targets []*dal.Actor) (*SignedActivity, error)
	VerifyActivity(body []byte, pubKeyPem string) error
}

type envelope struct {
	keyStore IKeyStore
	idb      shared.IdBuilder
	now      func() time.Time
}

func NewEnvelope(cfg *shared.Config, keyStore IKeyStore) IEnvelope {
	return &envelope{
		keyStore: keyStore,
		idb:      shared.IdBuilder{Host: cfg.Host},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// canonicalJson serializes the activity with object keys sorted and the signature left out.
// Numbers are kept as written; float64 would alter integers above 2^53.
func canonicalJson(val any) ([]byte, error) {
	var err error
	var raw []byte
	if raw, err = json.Marshal(val); err != nil {
		return nil, err
	}
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err = dec.Decode(&fields); err != nil {
		return nil, err
	}
	delete(fields, "signature")
	return json.Marshal(fields)
}

func (env *envelope) BuildActivity(
	actionType string,
	actor *dal.Actor,
	object any,
	targets []*dal.Actor,
) (*SignedActivity, error) {

	if actor == nil || !actor.IsLocal {
		return nil, fmt.Errorf("%w: sender is not a local actor", ErrSigning)
	}
	privKey, err := env.keyStore.GetPrivKey(actor.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	created := env.now().Truncate(time.Second)
	to := make([]string, 0, len(targets))
	for _, t := range targets {
		to = append(to, t.ActorUrl)
	}

	act := dto.ActivityOut{
		Context:   []string{shared.ActivityStreamsContext, shared.SecurityContext},
		Id:        env.idb.ActivityUrl(uuid.NewString()),
		Type:      actionType,
		Actor:     actor.ActorUrl,
		To:        &to,
		Object:    object,
		Published: created.Format(time.RFC3339),
	}
	if publicTypes[actionType] {
		act.Cc = &[]string{shared.ActivityPublic}
	}

	var canonical []byte
	if canonical, err = canonicalJson(&act); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	digest := sha256.Sum256(canonical)
	var sig []byte
	if sig, err = rsa.SignPKCS1v15(rand.Reader, privKey, crypto.SHA256, digest[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	keyId := env.idb.ActorKeyId(actor.Name)
	act.Signature = &dto.LdSignature{
		Type:           signatureType,
		Creator:        keyId,
		Created:        act.Published,
		SignatureValue: base64.StdEncoding.EncodeToString(sig),
	}

	var body []byte
	if body, err = json.Marshal(&act); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	return &SignedActivity{
		Id:        act.Id,
		Type:      actionType,
		ActorUrl:  actor.ActorUrl,
		KeyId:     keyId,
		Body:      body,
		CreatedAt: created,
	}, nil
}

func (env *envelope) VerifyActivity(body []byte, pubKeyPem string) error {

	var act dto.ActivityInBase
	if err := json.Unmarshal(body, &act); err != nil {
		return err
	}
	if act.Signature == nil || act.Signature.SignatureValue == "" {
		return errors.New("activity carries no signature")
	}
	if act.Signature.Type != signatureType {
		return fmt.Errorf("unsupported signature type '%s'", act.Signature.Type)
	}
	sig, err := base64.StdEncoding.DecodeString(act.Signature.SignatureValue)
	if err != nil {
		return fmt.Errorf("malformed signature value: %v", err)
	}

	canonical, err := canonicalJson(json.RawMessage(body))
	if err != nil {
		return err
	}

	pubKey, err := parsePublicKey(pubKeyPem)
	if err != nil {
		return err
	}
	digest := sha256.Sum256(canonical)
	return rsa.VerifyPKCS1v15(pubKey, crypto.SHA256, digest[:], sig)
}
