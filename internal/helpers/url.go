package helpers

import (
	"errors"
	"net/url"
	"path"
	"sort"
	"strings"
)

var trackingQueryParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"utm_id":       {},
	"gclid":        {},
	"fbclid":       {},
	"msclkid":      {},
	"ocid":         {},
}

// CanonicalURL normalises a URL for comparison. It lowercases scheme and
// host, drops default ports, fragments and tracking parameters, cleans the
// path and sorts the remaining query. Schemeless input defaults to https.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" && u.Host == "" {
		if u, err = url.Parse("https://" + strings.TrimPrefix(raw, "//")); err != nil {
			return "", err
		}
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", errors.New("url missing host")
	}
	if port := u.Port(); port != "" && !(u.Scheme == "http" && port == "80") && !(u.Scheme == "https" && port == "443") {
		host += ":" + port
	}
	u.Host = host

	p := path.Clean("/" + u.Path)
	if p != "/" && strings.HasSuffix(u.Path, "/") {
		p += "/"
	}
	u.Path, u.RawPath = p, ""
	u.Fragment, u.RawFragment = "", ""

	q := u.Query()
	for key := range q {
		if _, drop := trackingQueryParams[strings.ToLower(key)]; drop {
			q.Del(key)
			continue
		}
		sort.Strings(q[key])
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// URLSet resolves URLs to a member of a fixed set by canonical form.
type URLSet struct {
	byCanonical map[string]string
}

// NewURLSet indexes urls. Entries that fail to canonicalise are matched verbatim.
func NewURLSet(urls []string) URLSet {
	set := URLSet{byCanonical: make(map[string]string, len(urls))}
	for _, raw := range urls {
		key, err := CanonicalURL(raw)
		if err != nil {
			key = raw
		}
		if _, exists := set.byCanonical[key]; !exists {
			set.byCanonical[key] = raw
		}
	}
	return set
}

// Lookup returns the member equivalent to raw as it was originally supplied.
func (s URLSet) Lookup(raw string) (string, bool) {
	key, err := CanonicalURL(raw)
	if err != nil {
		key = strings.TrimSpace(raw)
	}
	member, ok := s.byCanonical[key]
	return member, ok
}

func (s URLSet) Len() int { return len(s.byCanonical) }
