// Package identity resolves raw target strings (company domains, LinkedIn
// profile URLs) to unique rows. Two raw strings that normalize identically
// always resolve to the same row; the normalized column carries a unique
// index so concurrent resolution cannot fork a target.
package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
	"gorm.io/gorm"
)

// NormalizeDomain lowercases and strips protocol, www., path/query and
// trailing slashes from a raw company input.
func NormalizeDomain(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = stripPrefixes(s)
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return s
}

// NormalizeProfileURL keeps the path (the profile slug) but drops protocol,
// www., query string, fragment and trailing slash.
func NormalizeProfileURL(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = stripPrefixes(s)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, "/")
}

func stripPrefixes(s string) string {
	for _, p := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, p)
	}
	return strings.TrimPrefix(s, "www.")
}

// ResolveCompany finds or creates the company row for a raw domain input.
func ResolveCompany(tx *gorm.DB, raw string) (types.Company, error) {
	norm := NormalizeDomain(raw)
	if norm == "" {
		return types.Company{}, types.Validation("empty company domain %q", raw)
	}
	var c types.Company
	err := tx.Where(types.Company{Domain: norm}).
		Attrs(types.Company{ID: uuid.NewString(), RawInput: raw, CreatedAt: time.Now()}).
		FirstOrCreate(&c).Error
	return c, err
}

// ResolveProfile finds or creates the LinkedIn profile row for a raw URL.
func ResolveProfile(tx *gorm.DB, raw string) (types.LinkedInProfile, error) {
	norm := NormalizeProfileURL(raw)
	if norm == "" {
		return types.LinkedInProfile{}, types.Validation("empty profile url %q", raw)
	}
	var p types.LinkedInProfile
	err := tx.Where(types.LinkedInProfile{URL: norm}).
		Attrs(types.LinkedInProfile{ID: uuid.NewString(), RawInput: raw, CreatedAt: time.Now()}).
		FirstOrCreate(&p).Error
	return p, err
}

// Resolve dispatches on the target kind and returns (targetID, targetKey).
// The key is the normalized identity used by the per-target contact throttle.
func Resolve(tx *gorm.DB, kind, raw string) (string, string, error) {
	switch kind {
	case types.TargetCompany:
		c, err := ResolveCompany(tx, raw)
		if err != nil {
			return "", "", err
		}
		return c.ID, c.Domain, nil
	case types.TargetLinkedInProfile:
		p, err := ResolveProfile(tx, raw)
		if err != nil {
			return "", "", err
		}
		return p.ID, p.URL, nil
	default:
		return "", "", types.Validation("unknown target kind %q", kind)
	}
}
