package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/errors"
	"jobfinder-engine/internal/scrape"
)

type SavedSearchHandler struct {
	Deps Deps
}

type createSearchReq struct {
	UserID     int64  `json:"user_id"`
	Query      string `json:"query"`
	Location   string `json:"location"`
	RemoteOnly *bool  `json:"remote_only"`
	Source     string `json:"source"`
}

func (h SavedSearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSearchReq
	if err := decodeJSON(r, &req); err != nil {
		h.Deps.WriteDomainError(w, r, err)
		return
	}

	remote := true
	if req.RemoteOnly != nil {
		remote = *req.RemoteOnly
	}
	source, err := normalizeSource(req.Source)
	if err != nil {
		h.Deps.WriteDomainError(w, r, err)
		return
	}

	s, err := h.Deps.Store.CreateSavedSearch(r.Context(), domain.SavedSearch{
		UserID:     req.UserID,
		Query:      req.Query,
		Location:   req.Location,
		RemoteOnly: remote,
		Source:     source,
	})
	if err != nil {
		h.Deps.WriteDomainError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, s)
}

func (h SavedSearchHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := int64Param(r, "user_id")
	if err != nil {
		h.Deps.WriteDomainError(w, r, err)
		return
	}
	list, err := h.Deps.Store.ListSavedSearches(r.Context(), userID)
	if err != nil {
		h.Deps.WriteDomainError(w, r, err)
		return
	}
	writeJSON(w, list)
}

// DeleteByPath expects /searches/{id}?user_id=. A search owned by someone
// else is reported as not found.
func (h SavedSearchHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/searches/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.Deps.WriteDomainError(w, r, errors.InvalidInput("invalid id", err))
		return
	}
	userID, err := int64Param(r, "user_id")
	if err != nil {
		h.Deps.WriteDomainError(w, r, err)
		return
	}

	ok, err := h.Deps.Store.DeleteSavedSearch(r.Context(), id, userID)
	if err != nil {
		h.Deps.WriteDomainError(w, r, err)
		return
	}
	if !ok {
		h.Deps.WriteDomainError(w, r, errors.NotFound("saved search not found", nil))
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

// normalizeSource accepts "", "auto", an adapter name or "rss:<url>".
func normalizeSource(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	sel := scrape.ParseSelector(raw)
	isAuto := strings.EqualFold(raw, scrape.SourceAuto)
	switch {
	case sel.Source == scrape.SourceAuto && !isAuto && !scrape.Known(raw):
		return "", errors.InvalidInput("unknown source "+strconv.Quote(raw), nil)
	case sel.Source == scrape.SourceRSS && sel.FeedURL == "",
		sel.Source == scrape.SourceAuto && !isAuto:
		return "", errors.InvalidInput("rss source needs a feed url", nil)
	}
	return sel.String(), nil
}
