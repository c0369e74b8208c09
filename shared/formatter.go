package shared

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

const MaxExcerptLen = 256

func GetHostName(actorUrl string) (string, error) {
	var parsedUrl *url.URL
	var urlError error
	parsedUrl, urlError = url.Parse(actorUrl)
	if urlError != nil {
		return "", fmt.Errorf("failed to parse URL '%s': %v", actorUrl, urlError)
	}
	if parsedUrl.Host == "" {
		return "", fmt.Errorf("URL has no host: '%s'", actorUrl)
	}
	return parsedUrl.Host, nil
}

// MakeHandle returns the name@host form used to identify actors.
func MakeHandle(name, host string) string {
	return name + "@" + host
}

func TruncateWithEllipsis(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	// https://stackoverflow.com/a/73939904/7479498
	lastSpaceIx := maxLen
	len := 0
	for i, r := range text {
		if unicode.IsSpace(r) {
			lastSpaceIx = i
		}
		len++
		if len > maxLen {
			return text[:lastSpaceIx] + "…"
		}
	}
	// If here, string is shorter or equal to maxLen
	return text
}

func ValidateActorName(name string) error {
	if len(name) == 0 {
		return errors.New("actor name cannot be empty")
	}
	if len(name) > 64 {
		return errors.New("actor name must not be longer than 64 characters")
	}
	for _, c := range name {
		if unicode.IsUpper(c) {
			return errors.New("actor name must not have upper-case letters")
		}
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '.') {
			return fmt.Errorf("actor name contains invalid character '%c'", c)
		}
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return errors.New("actor name must not start or end with a dot")
	}
	return nil
}
