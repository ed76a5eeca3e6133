package scrape

import "strings"

// Source names.
const (
	SourceRemotive       = "remotive"
	SourceRemoteOK       = "remoteok"
	SourceRSS            = "rss"
	SourceOnlineJobs     = "onlinejobs"
	SourceWeWorkRemotely = "weworkremotely"
	SourceFlexJobs       = "flexjobs"
	SourceJobStreet      = "jobstreet"
	SourceUpwork         = "upwork"

	// SourceAuto runs the policy's default chain.
	SourceAuto = "auto"

	rssPrefix = "rss:"
)

var knownSources = map[string]bool{
	SourceRemotive:       true,
	SourceRemoteOK:       true,
	SourceRSS:            true,
	SourceOnlineJobs:     true,
	SourceWeWorkRemotely: true,
	SourceFlexJobs:       true,
	SourceJobStreet:      true,
	SourceUpwork:         true,
}

// Selector names the adapter chain to run.
type Selector struct {
	Source  string
	FeedURL string
}

// ParseSelector reads "rss:<url>", an adapter name, or anything else as
// auto. Names are case-insensitive.
func ParseSelector(raw string) Selector {
	raw = strings.TrimSpace(raw)
	if len(raw) >= len(rssPrefix) && strings.EqualFold(raw[:len(rssPrefix)], rssPrefix) {
		return Selector{Source: SourceRSS, FeedURL: strings.TrimSpace(raw[len(rssPrefix):])}
	}
	name := strings.ToLower(raw)
	if knownSources[name] && name != SourceRSS {
		return Selector{Source: name}
	}
	return Selector{Source: SourceAuto}
}

// String renders the selector the way users write it.
func (s Selector) String() string {
	if s.Source == SourceRSS {
		return rssPrefix + s.FeedURL
	}
	if s.Source == "" {
		return SourceAuto
	}
	return s.Source
}

// Known reports whether name is an adapter this package provides.
func Known(name string) bool {
	return knownSources[strings.ToLower(strings.TrimSpace(name))]
}
