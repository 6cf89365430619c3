package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/simp-lee/storeadmin/internal/browser"
	"github.com/simp-lee/storeadmin/internal/domain"
)

// Session is a kind-erased Entity Browser. Each Session owns its browser;
// sessions share nothing but the HTTP client. A Session is driven by one
// goroutine at a time; fetches it starts run in the background.
type Session interface {
	Kind() domain.EntityKind
	Reload(ctx context.Context) <-chan struct{}
	SetPage(ctx context.Context, page int) (<-chan struct{}, error)
	Search(ctx context.Context, text string) <-chan struct{}
	SetFilter(ctx context.Context, key, value string) <-chan struct{}
	// Select marks a loaded row as selected. It returns false when no row
	// with id is on the current page.
	Select(id uint) bool
	// LoadDetail fetches id directly for the detail panel, for a selection
	// that is not on the current page. It replaces any earlier selection.
	LoadDetail(ctx context.Context, id uint)
	Page() Page
}

// Options configures the sessions built by a Factory.
type Options struct {
	PageSize   int
	MaxVisible int
	Logger     *slog.Logger
}

// Factory builds sessions for every entity kind over one catalog client.
type Factory struct {
	client *browser.Client
	opts   Options
}

// NewFactory creates a Factory. Panics if client is nil.
func NewFactory(client *browser.Client, opts Options) *Factory {
	if client == nil {
		panic("dashboard.NewFactory: client must not be nil")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = browser.DefaultPageSize
	}
	if opts.MaxVisible <= 0 {
		opts.MaxVisible = browser.DefaultMaxVisible
	}
	if opts.Logger == nil {
		opts.Logger = client.Logger()
	}
	return &Factory{client: client, opts: opts}
}

// PageSize returns the default rows per page.
func (f *Factory) PageSize() int {
	return f.opts.PageSize
}

// New creates a session for kind. A non-nil q replaces the initial query.
// Unknown kinds yield a not-found error.
func (f *Factory) New(kind domain.EntityKind, q *browser.QueryState) (Session, error) {
	switch kind {
	case domain.KindUsers:
		return newSession(f, kind, q, renderUser), nil
	case domain.KindStores:
		return newSession(f, kind, q, renderStore), nil
	case domain.KindProducts:
		return newSession(f, kind, q, renderProduct), nil
	case domain.KindRoles:
		return newSession(f, kind, q, renderRole), nil
	case domain.KindPermissions:
		return newSession(f, kind, q, renderPermission), nil
	}
	return nil, domain.NewAppError(domain.CodeNotFound, fmt.Sprintf("unknown entity kind %q", kind), nil)
}

type session[T domain.Entity] struct {
	kind    domain.EntityKind
	client  *browser.Client
	browser *browser.Browser[T]
	render  func(T) string
	detail  *Detail
}

func newSession[T domain.Entity](f *Factory, kind domain.EntityKind, q *browser.QueryState, render func(T) string) *session[T] {
	opts := []browser.Option{
		browser.WithPageSize(f.opts.PageSize),
		browser.WithMaxVisible(f.opts.MaxVisible),
		browser.WithBrowserLogger(f.opts.Logger),
	}
	if q != nil {
		opts = append(opts, browser.WithQuery(*q))
	}
	return &session[T]{
		kind:    kind,
		client:  f.client,
		browser: browser.New(kind, browser.NewFetcher[T](f.client), opts...),
		render:  render,
	}
}

func (s *session[T]) Kind() domain.EntityKind { return s.kind }

func (s *session[T]) Reload(ctx context.Context) <-chan struct{} {
	return s.browser.Reload(ctx)
}

func (s *session[T]) SetPage(ctx context.Context, page int) (<-chan struct{}, error) {
	return s.browser.SetCurrentPage(ctx, page)
}

func (s *session[T]) Search(ctx context.Context, text string) <-chan struct{} {
	return s.browser.SetSearchQuery(ctx, text)
}

func (s *session[T]) SetFilter(ctx context.Context, key, value string) <-chan struct{} {
	return s.browser.SetFilter(ctx, key, value)
}

func (s *session[T]) Select(id uint) bool {
	if !s.browser.Select(id) {
		return false
	}
	s.detail = nil
	return true
}

func (s *session[T]) LoadDetail(ctx context.Context, id uint) {
	s.browser.ClearSelection()
	item, err := browser.FetchOne[T](ctx, s.client, s.kind, id)
	if err != nil {
		s.detail = &Detail{ID: id, Message: browser.Failure[T](err).Message}
		return
	}
	s.detail = s.detailOf(item)
}

func (s *session[T]) detailOf(item T) *Detail {
	return &Detail{ID: item.EntityID(), Label: s.render(item), Item: item}
}

func (s *session[T]) Page() Page {
	snap := s.browser.Snapshot()
	p := Page{
		Kind:            s.kind,
		Title:           s.kind.Title(),
		Query:           snap.Query,
		View:            browser.RenderList(snap.Result, snap.Selected, s.render),
		Pager:           snap.Pager,
		RecordsTotal:    snap.Result.RecordsTotal,
		RecordsFiltered: snap.Result.RecordsFiltered,
		Detail:          s.detail,
	}
	if snap.Selected != nil {
		p.Detail = s.detailOf(*snap.Selected)
	}
	return p
}

// Wait blocks until done is closed or ctx ends.
func Wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
