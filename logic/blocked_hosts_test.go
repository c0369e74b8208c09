package logic_test

import (
	"fed_courier/logic"
	"fed_courier/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func TestBlockedHosts(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "blocked.txt")
	require.Nil(t, os.WriteFile(fn, []byte("# spam farms\nspam.example\n\n  Bad.Example  \n"), 0644))
	bh := logic.NewBlockedHosts(&shared.Config{BlockedHostsFile: fn})

	for host, want := range map[string]bool{
		"spam.example":       true,
		"SPAM.example":       true,
		"videos.bad.example": true,
		"bad.example":        true,
		"bad.example:8443":   true,
		"notbad.example":     false,
		"peer.example":       false,
	} {
		blocked, err := bh.IsBlocked(host)
		assert.Nil(t, err)
		assert.Equal(t, want, blocked, host)
	}

	// No list configured, or not created yet
	blocked, err := logic.NewBlockedHosts(&shared.Config{}).IsBlocked("spam.example")
	assert.Nil(t, err)
	assert.False(t, blocked)
	blocked, err = logic.NewBlockedHosts(&shared.Config{BlockedHostsFile: fn + ".missing"}).IsBlocked("spam.example")
	assert.Nil(t, err)
	assert.False(t, blocked)
}
