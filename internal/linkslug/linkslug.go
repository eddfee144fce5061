// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package linkslug validates link targets and resolves short-link slugs.
package linkslug

import (
	"net/url"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"codeberg.org/oliverandrich/shortlink/internal/apperror"
)

// Alphabet is the set of characters allowed in a slug.
const Alphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GeneratedLength is the length of generated slugs.
const GeneratedLength = 8

// DefaultBlacklist lists known URL shorteners. Links pointing at them are
// rejected.
var DefaultBlacklist = []string{
	"polr.me",
	"bit.ly",
	"is.gd",
	"tiny.cc",
	"adf.ly",
	"ur1.ca",
	"goo.gl",
	"ow.ly",
	"j.mp",
	"t.co",
}

// ReservedSlugs are first path segments used by the application's own
// routes. A link with one of these slugs would shadow or be shadowed by
// them.
var ReservedSlugs = []string{
	"api",
	"health",
	"login",
	"verify",
}

var targetPattern = regexp.MustCompile(`^(http://www\.|https://www\.|http://|https://)?[a-z0-9]+([\-\.]{1}[a-z0-9]+)*\.[a-z]{2,5}(:[0-9]{1,5})?(/.*)?$`)

// Policy holds the link validation rules. It is immutable after NewPolicy
// and safe for concurrent use.
type Policy struct {
	blacklist map[string]struct{}
	reserved  map[string]struct{}
	allowed   [256]bool
}

// NewPolicy returns a Policy that rejects links to ownDomain and to the
// default blacklist.
func NewPolicy(ownDomain string) *Policy {
	p := &Policy{
		blacklist: make(map[string]struct{}, len(DefaultBlacklist)+1),
		reserved:  make(map[string]struct{}, len(ReservedSlugs)),
	}
	if d := normalizeHost(ownDomain); d != "" {
		p.blacklist[d] = struct{}{}
	}
	for _, d := range DefaultBlacklist {
		p.blacklist[d] = struct{}{}
	}
	for _, r := range ReservedSlugs {
		p.reserved[r] = struct{}{}
	}
	for i := 0; i < len(Alphabet); i++ {
		p.allowed[Alphabet[i]] = true
	}
	return p
}

// ValidateTarget checks that target is a plausible URL and not already a
// short link.
func (p *Policy) ValidateTarget(target string) error {
	if p.isShortened(target) {
		return apperror.ErrLinkAlreadyShortened
	}
	if !targetPattern.MatchString(target) {
		return apperror.ErrInvalidLink
	}
	return nil
}

// ResolveSlug validates a requested slug, or generates one if requested is
// empty. generated reports whether the slug was generated. Reserved slugs
// are reported as already in use.
func (p *Policy) ResolveSlug(requested string) (slug string, generated bool, err error) {
	if requested == "" {
		slug, err = p.Generate()
		return slug, true, err
	}
	for i := 0; i < len(requested); i++ {
		if !p.allowed[requested[i]] {
			return "", false, apperror.ErrInvalidCharactersInURL
		}
	}
	if p.IsReserved(requested) {
		return "", false, apperror.DuplicateValue("Short URL")
	}
	return requested, false, nil
}

// Generate returns a random slug of GeneratedLength characters.
func (p *Policy) Generate() (string, error) {
	return gonanoid.Generate(Alphabet, GeneratedLength)
}

// IsReserved reports whether slug collides with an application route.
// The check ignores case.
func (p *Policy) IsReserved(slug string) bool {
	_, ok := p.reserved[strings.ToLower(slug)]
	return ok
}

func (p *Policy) isShortened(target string) bool {
	host := targetHost(target)
	for host != "" {
		if _, ok := p.blacklist[host]; ok {
			return true
		}
		_, parent, found := strings.Cut(host, ".")
		if !found {
			break
		}
		host = parent
	}
	return false
}

// targetHost extracts the host of target. Targets without a scheme are
// parsed as if they had one.
func targetHost(target string) string {
	raw := strings.TrimSpace(target)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return normalizeHost(u.Hostname())
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}
