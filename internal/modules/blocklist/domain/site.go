package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/idna"
)

var (
	ErrEmptyDomain   = errors.New("domain is empty")
	ErrInvalidDomain = errors.New("domain is invalid")
)

// Site is one entry of the ordered block list. Position is 1-based and
// reflects insertion order.
type Site struct {
	Domain   string
	Position int
	AddedAt  time.Time
}

// Normalize turns free-form input ("https://www.Example.com/path") into a
// bare lowercase ASCII hostname ("example.com").
func Normalize(input string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		return "", ErrEmptyDomain
	}
	withScheme := trimmed
	if !strings.Contains(trimmed, "://") {
		withScheme = "http://" + trimmed
	}
	parsed, err := url.Parse(withScheme)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, input)
	}
	host := strings.TrimSuffix(parsed.Hostname(), ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, input)
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil || ascii == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, input)
	}
	return ascii, nil
}
