package browser

import (
	"maps"
	"net/url"
	"strconv"
	"strings"

	"github.com/simp-lee/storeadmin/internal/domain"
)

// DefaultPageSize is used when a QueryState is built with a non-positive page size.
const DefaultPageSize = 10

// Query parameter names understood by the catalog API.
const (
	ParamPage    = "page"
	ParamPerPage = "per_page"
	ParamSearch  = "search"
)

// QueryState drives a fetch: which kind, which page, how many rows, the search
// text and any extra filters. It is a value type; the With* methods return
// modified copies and never alias the filter map of the receiver.
type QueryState struct {
	Kind         domain.EntityKind `json:"kind"`
	CurrentPage  int               `json:"current_page"`
	PageSize     int               `json:"page_size"`
	SearchQuery  string            `json:"search_query"`
	ExtraFilters map[string]string `json:"extra_filters,omitempty"`
}

// NewQueryState returns the mount-time state: page 1, empty search, no filters.
func NewQueryState(kind domain.EntityKind, pageSize int) QueryState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return QueryState{
		Kind:        kind,
		CurrentPage: 1,
		PageSize:    pageSize,
	}
}

// WithPage moves to page. Pages past the last known page are allowed; the
// remote API answers them with an empty page.
func (q QueryState) WithPage(page int) (QueryState, error) {
	if page < 1 {
		return q, domain.NewAppError(domain.CodeValidation, "page must be a positive integer", nil)
	}
	q.ExtraFilters = maps.Clone(q.ExtraFilters)
	q.CurrentPage = page
	return q, nil
}

// WithSearch replaces the search text and resets to page 1 so a shrinking
// result set never leaves the state on a page that no longer exists.
func (q QueryState) WithSearch(text string) QueryState {
	q.ExtraFilters = maps.Clone(q.ExtraFilters)
	q.SearchQuery = text
	q.CurrentPage = 1
	return q
}

// WithFilter sets an extra filter, or removes it when value is empty.
// Like a search change, it resets to page 1.
func (q QueryState) WithFilter(key, value string) QueryState {
	filters := maps.Clone(q.ExtraFilters)
	if value == "" {
		delete(filters, key)
	} else {
		if filters == nil {
			filters = make(map[string]string, 1)
		}
		filters[key] = value
	}
	if len(filters) == 0 {
		filters = nil
	}
	q.ExtraFilters = filters
	q.CurrentPage = 1
	return q
}

// Values encodes the state as request query parameters. Extra filters are
// passed through verbatim, but can never override page, per_page or search.
func (q QueryState) Values() url.Values {
	v := url.Values{}
	for key, value := range q.ExtraFilters {
		v.Set(key, value)
	}
	v.Set(ParamPage, strconv.Itoa(q.CurrentPage))
	v.Set(ParamPerPage, strconv.Itoa(q.PageSize))
	if s := strings.TrimSpace(q.SearchQuery); s != "" {
		v.Set(ParamSearch, s)
	} else {
		v.Del(ParamSearch)
	}
	return v
}

// PageDescriptor is the pagination position after a fetch.
type PageDescriptor struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	PageSize    int `json:"page_size"`
}

// Valid reports whether any page exists at all.
func (d PageDescriptor) Valid() bool {
	return d.TotalPages > 0
}

// Clamp pulls CurrentPage into [1, TotalPages]. It is a no-op when there are no pages.
func (d PageDescriptor) Clamp() PageDescriptor {
	if d.TotalPages <= 0 {
		return d
	}
	d.CurrentPage = min(max(d.CurrentPage, 1), d.TotalPages)
	return d
}

// totalPages is ceil(records / pageSize).
func totalPages(records, pageSize int) int {
	if pageSize <= 0 || records <= 0 {
		return 0
	}
	return (records + pageSize - 1) / pageSize
}
