package dashboard

import (
	"net/url"
	"strconv"

	"github.com/simp-lee/storeadmin/internal/browser"
	"github.com/simp-lee/storeadmin/internal/domain"
)

// Page is the view model of one browser screen.
type Page struct {
	Kind            domain.EntityKind  `json:"kind"`
	Title           string             `json:"title"`
	Query           browser.QueryState `json:"query"`
	View            browser.ListView   `json:"view"`
	Pager           browser.Pager      `json:"pager"`
	RecordsTotal    int                `json:"recordsTotal"`
	RecordsFiltered int                `json:"recordsFiltered"`
	Detail          *Detail            `json:"detail,omitempty"`

	// BasePath is where the HTML screen for Kind is served.
	BasePath string `json:"-"`
}

// Detail is the side panel for the selected entity. Message is set instead
// of Item when the entity could not be loaded.
type Detail struct {
	ID      uint   `json:"id"`
	Label   string `json:"label,omitempty"`
	Item    any    `json:"item,omitempty"`
	Message string `json:"message,omitempty"`
}

// PageURL links to page n with the current search, filters and selection.
func (p Page) PageURL(n int) string {
	v := p.values()
	v.Set(browser.ParamPage, strconv.Itoa(n))
	return p.BasePath + "?" + v.Encode()
}

// SelectURL links to the current page with id selected.
func (p Page) SelectURL(id uint) string {
	v := p.values()
	v.Set(browser.ParamPage, strconv.Itoa(p.Query.CurrentPage))
	v.Set(paramSelected, strconv.FormatUint(uint64(id), 10))
	return p.BasePath + "?" + v.Encode()
}

func (p Page) values() url.Values {
	v := url.Values{}
	for key, value := range p.Query.ExtraFilters {
		v.Set(key, value)
	}
	if p.Query.SearchQuery != "" {
		v.Set(browser.ParamSearch, p.Query.SearchQuery)
	}
	if p.Detail != nil {
		v.Set(paramSelected, strconv.FormatUint(uint64(p.Detail.ID), 10))
	}
	return v
}
