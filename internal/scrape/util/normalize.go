package util

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var reTags = regexp.MustCompile(`(?s)<[^>]*>`)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// StripTags renders an HTML fragment as plain text with entities decoded.
func StripTags(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return CleanText(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CleanText(html.UnescapeString(reTags.ReplaceAllString(fragment, " ")))
	}
	doc.Find("script, style").Remove()
	doc.Find("br, p, li, div").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return CleanText(doc.Text())
}

func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	if loc == "" {
		return ""
	}

	loc = strings.TrimPrefix(loc, "Location:")
	loc = strings.TrimSpace(loc)

	parts := strings.Split(loc, ",")
	seen := map[string]bool{}
	var out []string
	for _, p := range parts {
		p = CleanText(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// HashString is the last-resort identity for records with no id or URL.
func HashString(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// UniqueID picks a job identity: the native id when present, else the
// canonical posting URL, else a digest of title and company.
func UniqueID(nativeID, postingURL, title, company string) string {
	if id := strings.TrimSpace(nativeID); id != "" {
		return id
	}
	if u := CanonicalURL(postingURL); u != "" {
		return u
	}
	return HashString(title + company)
}

// Field returns the first non-empty value among keys of a decoded JSON
// object, rendered as a string.
func Field(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := Stringify(m[k]); s != "" {
			return s
		}
	}
	return ""
}

// Stringify renders scalar JSON values; objects and arrays yield "".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int, int64:
		return fmt.Sprint(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// OrDefault returns s unless it is blank.
func OrDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
