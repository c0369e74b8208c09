package dto

import (
	"encoding/json"
	"fmt"
)

type UserInfo struct {
	Context           any           `json:"@context"`
	Id                string        `json:"id"`
	Type              string        `json:"type"`
	PreferredUserName string        `json:"preferredUsername"`
	Name              string        `json:"name"`
	Summary           string        `json:"summary"`
	ManuallyApproves  bool          `json:"manuallyApprovesFollowers"`
	Published         string        `json:"published"`
	Inbox             string        `json:"inbox"`
	Outbox            string        `json:"outbox"`
	Followers         string        `json:"followers"`
	Following         string        `json:"following"`
	Endpoints         UserEndpoints `json:"endpoints"`
	PublicKey         PublicKey     `json:"publicKey"`
}

type WebfingerResp struct {
	Subject string          `json:"subject"`
	Aliases []string        `json:"aliases"`
	Links   []WebfingerLink `json:"links"`
}

type WebfingerLink struct {
	Rel  string `json:"rel"`
	Type string `json:"type"`
	Href string `json:"href"`
}

type UserEndpoints struct {
	SharedInbox string `json:"sharedInbox"`
}

type PublicKey struct {
	Id           string `json:"id"`
	Owner        string `json:"owner"`
	PublicKeyPem string `json:"publicKeyPem"`
}

type OrderedListSummary struct {
	Context    any     `json:"@context"`
	Id         string  `json:"id"`
	Type       string  `json:"type"`
	TotalItems uint    `json:"totalItems"`
	First      *string `json:"first,omitempty"`
	Last       *string `json:"last,omitempty"`
}

func getRecipient(raw any) ([]string, error) {
	var res []string
	if raw == nil {
		return res, nil
	}
	if slice, ok := raw.([]interface{}); ok {
		for _, s := range slice {
			if str, ok := s.(string); ok {
				res = append(res, str)
			} else {
				return res, fmt.Errorf("list of recipients must only contain strings")
			}
		}
	} else if str, ok := raw.(string); ok {
		res = []string{str}
	} else {
		return res, fmt.Errorf("to and cc must be single string or array of strings")
	}
	return res, nil
}

// GetIdOrString returns the "id" of an embedded object, or the value itself if it is a plain IRI.
func GetIdOrString(raw any) string {
	if str, ok := raw.(string); ok {
		return str
	}
	if obj, ok := raw.(map[string]interface{}); ok {
		if id, ok := obj["id"].(string); ok {
			return id
		}
	}
	return ""
}

// LdSignature is the embedded signature block of an activity, RsaSignature2017 style.
type LdSignature struct {
	Type           string `json:"type"`
	Creator        string `json:"creator"`
	Created        string `json:"created"`
	SignatureValue string `json:"signatureValue"`
}

type ActivityInBase struct {
	Id        string       `json:"id"`
	Type      string       `json:"type"`
	Actor     string       `json:"actor"`
	To        []string     `json:"-"`
	RawTo     any          `json:"to"`
	Cc        []string     `json:"-"`
	RawCc     any          `json:"cc"`
	Object    any          `json:"object"`
	Signature *LdSignature `json:"signature,omitempty"`
}

func (x *ActivityInBase) UnmarshalJSON(data []byte) error {
	var err error
	type Y ActivityInBase
	var y = (*Y)(x)
	if err = json.Unmarshal(data, y); err != nil {
		return err
	}
	if y.To, err = getRecipient(y.RawTo); err != nil {
		return err
	}
	if y.Cc, err = getRecipient(y.RawCc); err != nil {
		return err
	}
	return nil
}

type ActivityIn[T any] struct {
	Id     string   `json:"id"`
	Type   string   `json:"type"`
	Actor  string   `json:"actor"`
	To     []string `json:"-"`
	RawTo  any      `json:"to"`
	Cc     []string `json:"-"`
	RawCc  any      `json:"cc"`
	Object T        `json:"object"`
}

func (x *ActivityIn[T]) UnmarshalJSON(data []byte) error {
	var err error
	type Y ActivityIn[T]
	var y = (*Y)(x)
	if err = json.Unmarshal(data, y); err != nil {
		return err
	}
	if y.To, err = getRecipient(y.RawTo); err != nil {
		return err
	}
	if y.Cc, err = getRecipient(y.RawCc); err != nil {
		return err
	}
	return nil
}

type ActivityOut struct {
	Context   any          `json:"@context"`
	Id        string       `json:"id"`
	Type      string       `json:"type"`
	Actor     string       `json:"actor"`
	To        *[]string    `json:"to,omitempty"`
	Cc        *[]string    `json:"cc,omitempty"`
	Object    any          `json:"object,omitempty"`
	Published string       `json:"published"`
	Signature *LdSignature `json:"signature,omitempty"`
}

// RemoteObject is the subset of a fetched or pushed object (Video, Note, Tombstone...) that is stored locally.
type RemoteObject struct {
	Id           string `json:"id"`
	Type         string `json:"type"`
	AttributedTo any    `json:"attributedTo"`
	Name         string `json:"name"`
	Content      string `json:"content"`
	Published    string `json:"published"`
	Updated      string `json:"updated"`
}

// AttributedToId returns the first actor the object is attributed to.
func (obj *RemoteObject) AttributedToId() string {
	if slice, ok := obj.AttributedTo.([]interface{}); ok {
		for _, item := range slice {
			if id := GetIdOrString(item); id != "" {
				return id
			}
		}
		return ""
	}
	return GetIdOrString(obj.AttributedTo)
}

// CacheFile announces that a remote instance keeps a copy of one of our videos.
type CacheFile struct {
	Id        string `json:"id"`
	Type      string `json:"type"`
	Object    string `json:"object"`
	Expires   string `json:"expires"`
	Url       any    `json:"url"`
	SizeBytes int64  `json:"size"`
}
