package domain

import "time"

// DefaultSource is stored when a saved search is created without a source.
const DefaultSource = "remotive"

// SavedSearch is a user's persistent query, polled on a schedule.
type SavedSearch struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Query      string    `json:"query"`
	Location   string    `json:"location,omitempty"`
	RemoteOnly bool      `json:"remote_only"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notification is emitted once per newly seen job of a saved search.
type Notification struct {
	UserID   int64  `json:"user_id"`
	SearchID int64  `json:"search_id"`
	Job      Job    `json:"job"`
	Source   string `json:"source"` // selector label of the saved search
	Query    string `json:"query"`
}
