package proxy

import (
	"net/url"
	"strings"
)

// DefaultAllowedDomains are the Blizzard API domain suffixes trusted by the authenticated proxy.
var DefaultAllowedDomains = []string{".battle.net", ".blizzard.com"}

// AllowList decides whether a target host may receive the bearer token. It is immutable once built.
type AllowList struct {
	suffixes []string
}

// NewAllowList builds an [AllowList] from domain suffixes.
//
// A suffix with a leading dot matches subdomains only (".battle.net" matches "us.api.battle.net" but not
// "battle.net"). A suffix without one also matches the bare domain.
func NewAllowList(suffixes ...string) *AllowList {
	normalized := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || s == "." {
			continue
		}
		normalized = append(normalized, s)
	}
	return &AllowList{suffixes: normalized}
}

// DefaultAllowList returns an [AllowList] over [DefaultAllowedDomains].
func DefaultAllowList() *AllowList {
	return NewAllowList(DefaultAllowedDomains...)
}

// Allowed reports whether hostname is non-empty and ends with a trusted suffix.
func (a *AllowList) Allowed(hostname string) bool {
	host := strings.ToLower(strings.TrimSuffix(hostname, "."))
	if host == "" {
		return false
	}

	for _, s := range a.suffixes {
		if strings.HasPrefix(s, ".") {
			if strings.HasSuffix(host, s) {
				return true
			}
			continue
		}
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}

// AllowedURL parses raw and checks its hostname. Unparseable URLs are rejected.
func (a *AllowList) AllowedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return a.Allowed(u.Hostname())
}

// Suffixes returns a copy of the configured suffixes.
func (a *AllowList) Suffixes() []string {
	return append([]string(nil), a.suffixes...)
}
