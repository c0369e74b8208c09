package logic

import (
	"bufio"
	"errors"
	"fed_courier/shared"
	"io/fs"
	"net"
	"os"
	"strings"
)

// IBlockedHosts answers whether a remote instance is on the operator's blocklist.
type IBlockedHosts interface {
	IsBlocked(host string) (bool, error)
}

type blockedHosts struct {
	cfg *shared.Config
}

func NewBlockedHosts(cfg *shared.Config) IBlockedHosts {
	return &blockedHosts{cfg}
}

// IsBlocked reads the blocklist file on every call so edits take effect without a restart.
// One host per line; blank lines and lines starting with # are ignored.
func (bh *blockedHosts) IsBlocked(host string) (bool, error) {

	if bh.cfg.BlockedHostsFile == "" {
		return false, nil
	}
	host = strings.ToLower(strings.TrimSpace(host))
	if hostOnly, _, err := net.SplitHostPort(host); err == nil {
		host = hostOnly
	}
	readFile, err := os.Open(bh.cfg.BlockedHostsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer readFile.Close()
	fileScanner := bufio.NewScanner(readFile)
	fileScanner.Split(bufio.ScanLines)

	for fileScanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(fileScanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if host == line || strings.HasSuffix(host, "."+line) {
			return true, nil
		}
	}
	return false, fileScanner.Err()
}
