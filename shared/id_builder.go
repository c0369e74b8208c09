package shared

import (
	"fmt"
)

const ActivityPublic = "https://www.w3.org/ns/activitystreams#Public"
const ActivityStreamsContext = "https://www.w3.org/ns/activitystreams"
const SecurityContext = "https://w3id.org/security/v1"

type IdBuilder struct {
	Host string
}

func (idb *IdBuilder) ActivityUrl(id string) string {
	return fmt.Sprintf("https://%s/activity/%s", idb.Host, id)
}

func (idb *IdBuilder) SharedInbox() string {
	return fmt.Sprintf("https://%s/inbox", idb.Host)
}

func (idb *IdBuilder) ActorUrl(user string) string {
	return fmt.Sprintf("https://%s/u/%s", idb.Host, user)
}

func (idb *IdBuilder) ActorKeyId(user string) string {
	return fmt.Sprintf("https://%s/u/%s#main-key", idb.Host, user)
}

func (idb *IdBuilder) ActorInbox(user string) string {
	return fmt.Sprintf("https://%s/u/%s/inbox", idb.Host, user)
}

func (idb *IdBuilder) ActorOutbox(user string) string {
	return fmt.Sprintf("https://%s/u/%s/outbox", idb.Host, user)
}

func (idb *IdBuilder) ActorFollowing(user string) string {
	return fmt.Sprintf("https://%s/u/%s/following", idb.Host, user)
}

func (idb *IdBuilder) ActorFollowers(user string) string {
	return fmt.Sprintf("https://%s/u/%s/followers", idb.Host, user)
}
