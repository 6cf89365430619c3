package browser

// DefaultMaxVisible is the page-strip width used when none is configured.
const DefaultMaxVisible = 5

// minMaxVisible keeps room for the first page, one middle page and the last page.
const minMaxVisible = 3

// PageLink is one entry of a page strip: either a page number or an ellipsis.
type PageLink struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

func pageLink(n int) PageLink { return PageLink{Page: n} }

var ellipsis = PageLink{Ellipsis: true}

// ComputePageWindow returns a bounded page strip for current out of total.
//
// With the default width of 5:
//
//	total <= 7          1 2 3 4 5 6 7
//	current <= 3        1 2 3 4 5 … 20
//	current >= total-2  1 … 16 17 18 19 20
//	otherwise           1 … 9 10 11 … 20
//
// total == 0 yields an empty strip; callers hide pagination entirely then.
// current is clamped into [1, total] before the strip is laid out.
func ComputePageWindow(current, total, maxVisible int) []PageLink {
	if total <= 0 {
		return []PageLink{}
	}
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisible
	}
	maxVisible = max(maxVisible, minMaxVisible)
	current = PageDescriptor{CurrentPage: current, TotalPages: total}.Clamp().CurrentPage

	if total <= maxVisible+2 {
		return pageRange(nil, 1, total)
	}

	head := (maxVisible + 1) / 2
	tail := (maxVisible - 1) / 2
	side := (maxVisible - 3) / 2

	switch {
	case current <= head:
		links := pageRange(nil, 1, maxVisible)
		return append(links, ellipsis, pageLink(total))
	case current >= total-tail:
		links := []PageLink{pageLink(1), ellipsis}
		return pageRange(links, total-maxVisible+1, total)
	default:
		links := []PageLink{pageLink(1), ellipsis}
		links = pageRange(links, current-side, current+side)
		return append(links, ellipsis, pageLink(total))
	}
}

func pageRange(links []PageLink, from, to int) []PageLink {
	if links == nil {
		links = make([]PageLink, 0, to-from+1)
	}
	for n := from; n <= to; n++ {
		links = append(links, pageLink(n))
	}
	return links
}

// Pager is the pagination control state: the strip plus previous/next affordances.
type Pager struct {
	Current int        `json:"current"`
	Total   int        `json:"total"`
	Links   []PageLink `json:"links"`
	HasPrev bool       `json:"has_prev"`
	HasNext bool       `json:"has_next"`
	Prev    int        `json:"prev,omitempty"`
	Next    int        `json:"next,omitempty"`
	// Visible is false when there are no pages; render nothing in that case.
	Visible bool `json:"visible"`
}

// NewPager builds the control for current out of total pages.
func NewPager(current, total, maxVisible int) Pager {
	return PageDescriptor{CurrentPage: current, TotalPages: total}.Pager(maxVisible)
}

// Pager builds the control for d.
// Previous is disabled on page 1; next is disabled on the last page and when
// there are no pages at all.
func (d PageDescriptor) Pager(maxVisible int) Pager {
	current, total := d.CurrentPage, d.TotalPages
	p := Pager{
		Current: current,
		Total:   max(total, 0),
		Links:   ComputePageWindow(current, total, maxVisible),
		Visible: d.Valid(),
	}
	if !p.Visible {
		return p
	}
	p.HasPrev = current > 1
	p.HasNext = current < total
	if p.HasPrev {
		p.Prev = min(current-1, total)
	}
	if p.HasNext {
		p.Next = current + 1
	}
	return p
}
