package shared

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestEllipticalTruncate(t *testing.T) {
	assert.Equal(t, "…", TruncateWithEllipsis("1 2 3", 0))
	assert.Equal(t, "1…", TruncateWithEllipsis("1 2 3", 1))
	assert.Equal(t, "1…", TruncateWithEllipsis("1 2 3", 2))
	assert.Equal(t, "1 2…", TruncateWithEllipsis("1 2 3", 3))
	assert.Equal(t, "1 2 3", TruncateWithEllipsis("1 2 3", 5))
}

func TestIdBuilder(t *testing.T) {
	idb := IdBuilder{"tube.example"}
	assert.Equal(t, "https://tube.example/u/alice", idb.ActorUrl("alice"))
	assert.Equal(t, "https://tube.example/u/alice#main-key", idb.ActorKeyId("alice"))
	assert.Equal(t, "https://tube.example/u/alice/inbox", idb.ActorInbox("alice"))
	assert.Equal(t, "https://tube.example/inbox", idb.SharedInbox())
	assert.Equal(t, "https://tube.example/activity/abc", idb.ActivityUrl("abc"))
}

func TestHostAndHandle(t *testing.T) {
	host, err := GetHostName("https://peer.example:8443/accounts/bob")
	assert.Nil(t, err)
	assert.Equal(t, "peer.example:8443", host)
	_, err = GetHostName("not a url")
	assert.NotNil(t, err)
	assert.Equal(t, "bob@peer.example", MakeHandle("bob", "peer.example"))
}

func TestValidateActorName(t *testing.T) {
	assert.Nil(t, ValidateActorName("my_channel-2"))
	assert.NotNil(t, ValidateActorName(""))
	assert.NotNil(t, ValidateActorName("Upper"))
	assert.NotNil(t, ValidateActorName("with space"))
	assert.NotNil(t, ValidateActorName(".dotted"))
}
