package util

import (
	"html"
	"regexp"
	"strings"
)

// Listing is a job card lifted out of an HTML search page before it is
// normalized into a domain.Job.
type Listing struct {
	Href     string
	NativeID string
	Title    string
	Company  string
	Location string
	Salary   string
	Snippet  string
}

// Pattern is one extraction strategy over a page's raw markup. Sources
// restyle their listings often, so adapters keep several and use the
// first one that matches anything.
type Pattern struct {
	Name    string
	Extract func(page string) []Listing
}

// TryPatterns runs patterns in order and returns the first non-empty
// result along with the pattern name.
func TryPatterns(page string, patterns []Pattern) (string, []Listing) {
	for _, p := range patterns {
		if got := p.Extract(page); len(got) > 0 {
			return p.Name, got
		}
	}
	return "", nil
}

// Segments splits page into chunks, each starting at a match of open and
// running to the next match or the end of the page.
func Segments(page string, open *regexp.Regexp) []string {
	idx := open.FindAllStringIndex(page, -1)
	if len(idx) == 0 {
		return nil
	}
	out := make([]string, 0, len(idx))
	for i, loc := range idx {
		end := len(page)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		out = append(out, page[loc[0]:end])
	}
	return out
}

// Submatch returns the first capture group of re in s as plain text.
func Submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return StripTags(m[1])
}

// RawSubmatch is Submatch without tag stripping, for attribute values.
func RawSubmatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}
