package types

import (
	"context"
	"strings"

	"jobfinder-engine/internal/domain"
)

// DefaultLimit caps adapter results when a query leaves Limit unset.
const DefaultLimit = 10

// Tier is an experience filter understood by tiered sources.
type Tier int

const (
	TierEntry        Tier = 1
	TierIntermediate Tier = 2
	TierExpert       Tier = 3
)

// ParseTier maps a free-form experience label onto a Tier.
// Anything unrecognized is entry level.
func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intermediate", "inter", "2":
		return TierIntermediate
	case "expert", "advanced", "3":
		return TierExpert
	default:
		return TierEntry
	}
}

func (t Tier) Label() string {
	switch t {
	case TierIntermediate:
		return "Intermediate"
	case TierExpert:
		return "Expert"
	default:
		return "Entry Level"
	}
}

// Query is what the aggregator hands to every adapter in a chain.
type Query struct {
	Text       string
	Limit      int
	Location   string
	RemoteOnly bool
	Tier       Tier
	FeedURL    string // rss only
}

// WithDefaults fills unset fields.
func (q Query) WithDefaults() Query {
	q.Text = strings.TrimSpace(q.Text)
	q.Location = strings.TrimSpace(q.Location)
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Tier < TierEntry || q.Tier > TierExpert {
		q.Tier = TierEntry
	}
	return q
}

// Adapter fetches jobs from one upstream source.
//
// Expected upstream faults (timeouts, non-2xx, undecodable payloads)
// yield an empty slice and a nil error; a non-nil error means something
// unexpected and is contained by the caller.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]domain.Job, error)
}
