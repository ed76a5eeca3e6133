package util

import (
	"net/url"
	"sort"
	"strings"
)

// CanonicalURL lowercases scheme and host, drops the fragment and
// tracking parameters, and sorts the query so the same posting always
// renders to the same string.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" || lk == "mkt_tok" ||
			lk == "ref" || lk == "source" || lk == "referrer" {
			q.Del(k)
		}
	}
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Resolve turns href into an absolute canonical URL relative to base.
func Resolve(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return CanonicalURL(ref.String())
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return CanonicalURL(b.ResolveReference(ref).String())
}

// HTTPURL reports whether raw is an absolute http(s) URL.
func HTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Slug lowercases s and joins its words with dashes.
func Slug(s string) string {
	var b strings.Builder
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if b.Len() > 0 {
			b.WriteByte('-')
		}
		b.WriteString(f)
	}
	return b.String()
}
