package httpapi

import (
	"net/http"
	"strings"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/errors"
	"jobfinder-engine/internal/scrape"
	"jobfinder-engine/internal/scrape/types"
)

type SearchHandler struct {
	Deps Deps
}

type searchReq struct {
	Query      string `json:"query"`
	Location   string `json:"location"`
	Remote     bool   `json:"remote"`
	Source     string `json:"source"`
	Experience string `json:"experience"`
}

type searchResp struct {
	Found  bool         `json:"found"`
	Count  int          `json:"count"`
	Source string       `json:"source"`
	Tried  []string     `json:"tried"`
	Jobs   []domain.Job `json:"jobs"`
}

// Search runs an interactive query through the aggregator. Nothing is
// recorded as seen.
func (h SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchReq
	if err := decodeJSON(r, &req); err != nil {
		h.Deps.WriteDomainError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.Deps.WriteDomainError(w, r, errors.InvalidInput("query is required", nil))
		return
	}

	limit := h.Deps.MaxResults
	if limit <= 0 {
		limit = types.DefaultLimit
	}
	res := h.Deps.Searcher.Search(r.Context(), scrape.ParseSelector(req.Source), types.Query{
		Text:       req.Query,
		Limit:      limit,
		Location:   req.Location,
		RemoteOnly: req.Remote,
		Tier:       types.ParseTier(req.Experience),
	})

	jobs := res.Jobs
	if jobs == nil {
		jobs = []domain.Job{}
	}
	writeJSON(w, searchResp{
		Found:  res.Found(),
		Count:  len(jobs),
		Source: res.Source,
		Tried:  res.Tried,
		Jobs:   jobs,
	})
}
