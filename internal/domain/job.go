package domain

import "unicode/utf8"

const (
	// UntitledJob is used when a source gives no usable title.
	UntitledJob = "Untitled"

	// DescriptionLimit is the display length of Job.Description in runes.
	DescriptionLimit = 200
)

// Job is the normalized record every source adapter emits.
type Job struct {
	UniqueID    string         `json:"unique_id"`
	Title       string         `json:"title"`
	Company     string         `json:"company"`
	URL         string         `json:"url"`
	Location    string         `json:"location,omitempty"`
	Salary      string         `json:"salary,omitempty"`
	Experience  string         `json:"experience,omitempty"` // tiered sources only
	Description string         `json:"description,omitempty"`
	Source      string         `json:"source"`
	Raw         map[string]any `json:"-"` // upstream payload, never interpreted
}

// Valid reports whether the job carries the fields dedup and display rely on.
func (j Job) Valid() bool {
	return j.UniqueID != "" && j.Title != "" && j.URL != ""
}

// ShortDescription cuts s to DescriptionLimit runes and marks the cut.
func ShortDescription(s string) string {
	if utf8.RuneCountInString(s) <= DescriptionLimit {
		return s
	}
	r := []rune(s)
	return string(r[:DescriptionLimit]) + "..."
}
