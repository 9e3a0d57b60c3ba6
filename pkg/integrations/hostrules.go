package integrations

import (
	"net/url"
	"slices"
	"strings"
	"time"
)

// HostRule configures requests to the hosts it matches.
//
// MatchHost is either a hostname ("registry.npmjs.org"), which also matches
// subdomains, or a URL prefix ("https://nexus.example.com/repository/").
// An empty MatchHost matches every request.
type HostRule struct {
	MatchHost    string            `mapstructure:"match_host"`
	Enabled      *bool             `mapstructure:"enabled"`
	AbortOnError bool              `mapstructure:"abort_on_error"`
	Token        string            `mapstructure:"token"`
	AuthType     string            `mapstructure:"auth_type"`
	Headers      map[string]string `mapstructure:"headers"`
	Timeout      time.Duration     `mapstructure:"timeout"`
}

// IsEnabled reports whether requests are allowed. Rules default to enabled.
func (r HostRule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// HostRules resolves the effective rule for a request URL.
// The zero value has no rules and allows every host.
type HostRules struct {
	rules []HostRule
}

// NewHostRules returns a rule set. Order matters only between rules of the
// same specificity; later rules win.
func NewHostRules(rules ...HostRule) *HostRules {
	return &HostRules{rules: slices.Clone(rules)}
}

// Find merges every rule matching rawURL, from least to most specific:
// match-all rules, then hostname rules, then URL-prefix rules.
func (h *HostRules) Find(rawURL string) HostRule {
	var merged HostRule
	if h == nil {
		return merged
	}
	host := hostOf(rawURL)
	for level := range 3 {
		for _, r := range h.rules {
			if specificity(r.MatchHost) != level || !matches(r.MatchHost, host, rawURL) {
				continue
			}
			merged = mergeRule(merged, r)
		}
	}
	return merged
}

func specificity(match string) int {
	switch {
	case match == "":
		return 0
	case strings.Contains(match, "://"):
		return 2
	default:
		return 1
	}
}

func matches(match, host, rawURL string) bool {
	switch specificity(match) {
	case 0:
		return true
	case 2:
		return strings.HasPrefix(rawURL, match)
	}
	match = strings.ToLower(strings.TrimPrefix(match, "."))
	return host == match || strings.HasSuffix(host, "."+match)
}

func mergeRule(base, r HostRule) HostRule {
	base.MatchHost = r.MatchHost
	if r.Enabled != nil {
		base.Enabled = r.Enabled
	}
	if r.AbortOnError {
		base.AbortOnError = true
	}
	if r.Token != "" {
		base.Token = r.Token
	}
	if r.AuthType != "" {
		base.AuthType = r.AuthType
	}
	if r.Timeout > 0 {
		base.Timeout = r.Timeout
	}
	if len(r.Headers) > 0 {
		headers := make(map[string]string, len(base.Headers)+len(r.Headers))
		for k, v := range base.Headers {
			headers[k] = v
		}
		for k, v := range r.Headers {
			headers[k] = v
		}
		base.Headers = headers
	}
	return base
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
