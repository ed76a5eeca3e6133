// Package notify delivers new-job notifications to users. Delivery is
// fire-and-forget: callers log failures and move on.
package notify

import (
	"context"
	"strings"

	"go.uber.org/multierr"

	"jobfinder-engine/internal/domain"
)

// UnspecifiedLocation is shown when a job carries no location.
const UnspecifiedLocation = "Remote/Unspecified"

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n domain.Notification) error

func (f Func) Notify(ctx context.Context, n domain.Notification) error { return f(ctx, n) }

// Multi fans a notification out to every notifier. All are attempted; the
// returned error combines the failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n domain.Notification) error {
	var err error
	for _, nt := range m {
		if nt == nil {
			continue
		}
		err = multierr.Append(err, nt.Notify(ctx, n))
	}
	return err
}

// Message is the wire payload consumed by the chat bot and SSE clients.
type Message struct {
	UserID      int64  `json:"user_id"`
	SearchID    int64  `json:"search_id"`
	JobID       string `json:"job_id"`
	Title       string `json:"title"`
	Company     string `json:"company,omitempty"`
	URL         string `json:"url"`
	Location    string `json:"location"`
	Salary      string `json:"salary,omitempty"`
	Experience  string `json:"experience,omitempty"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source"`
	JobSource   string `json:"job_source"`
	Query       string `json:"query"`
}

func NewMessage(n domain.Notification) Message {
	loc := strings.TrimSpace(n.Job.Location)
	if loc == "" {
		loc = UnspecifiedLocation
	}
	src := n.Source
	if src == "" {
		src = n.Job.Source
	}
	return Message{
		UserID:      n.UserID,
		SearchID:    n.SearchID,
		JobID:       n.Job.UniqueID,
		Title:       n.Job.Title,
		Company:     n.Job.Company,
		URL:         n.Job.URL,
		Location:    loc,
		Salary:      n.Job.Salary,
		Experience:  n.Job.Experience,
		Description: n.Job.Description,
		Source:      src,
		JobSource:   n.Job.Source,
		Query:       n.Query,
	}
}
