package browser

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/simp-lee/storeadmin/internal/domain"
)

// Browser is one paginated, searchable, selectable view over an entity kind.
//
// Every state change (page, search, filter, reload) moves the result to
// Loading and starts a fetch in its own goroutine, so callers stay responsive
// while a request is outstanding. Each fetch is tagged with a generation
// number and its response is applied only if no newer fetch has been issued
// since; superseded responses are dropped.
//
// Browsers share nothing with each other.
type Browser[T domain.Entity] struct {
	fetcher    Fetcher[T]
	logger     *slog.Logger
	maxVisible int

	mu         sync.Mutex
	query      QueryState
	result     FetchResult[T]
	selected   *T
	generation uint64
}

type options struct {
	pageSize   int
	maxVisible int
	logger     *slog.Logger
	query      *QueryState
}

// Option configures a Browser.
type Option func(*options)

// WithPageSize sets the rows requested per page.
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithMaxVisible sets the width of the pagination strip.
func WithMaxVisible(n int) Option {
	return func(o *options) { o.maxVisible = n }
}

// WithBrowserLogger sets the logger used for discarded responses.
func WithBrowserLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithQuery starts the browser from q instead of the mount defaults.
// q.Kind is overridden by the browser's kind.
func WithQuery(q QueryState) Option {
	return func(o *options) { o.query = &q }
}

// New creates a Browser for kind. The result starts as Loading; call Reload
// to issue the first fetch.
func New[T domain.Entity](kind domain.EntityKind, fetcher Fetcher[T], opts ...Option) *Browser[T] {
	o := options{maxVisible: DefaultMaxVisible}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	q := NewQueryState(kind, o.pageSize)
	if o.query != nil {
		q = *o.query
		q.Kind = kind
		q.ExtraFilters = maps.Clone(q.ExtraFilters)
		if q.CurrentPage < 1 {
			q.CurrentPage = 1
		}
		if q.PageSize <= 0 {
			q.PageSize = NewQueryState(kind, o.pageSize).PageSize
		}
	}

	return &Browser[T]{
		fetcher:    fetcher,
		logger:     o.logger,
		maxVisible: o.maxVisible,
		query:      q,
		result:     Loading[T](),
	}
}

// Query returns the current query state.
func (b *Browser[T]) Query() QueryState {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := b.query
	q.ExtraFilters = maps.Clone(q.ExtraFilters)
	return q
}

// Result returns the latest applied fetch result.
func (b *Browser[T]) Result() FetchResult[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result
}

// Reload refetches the current query. The returned channel is closed once
// the response has been applied or discarded.
func (b *Browser[T]) Reload(ctx context.Context) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startLocked(ctx)
}

// SetCurrentPage moves to page and refetches. The search text is kept.
// page must be positive; it is not clamped to the known page count.
func (b *Browser[T]) SetCurrentPage(ctx context.Context, page int) (<-chan struct{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, err := b.query.WithPage(page)
	if err != nil {
		return nil, err
	}
	b.query = q
	return b.startLocked(ctx), nil
}

// SetSearchQuery replaces the search text, resets to page 1 and refetches.
func (b *Browser[T]) SetSearchQuery(ctx context.Context, text string) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query = b.query.WithSearch(text)
	return b.startLocked(ctx)
}

// SetFilter sets (or with an empty value, clears) an extra filter, resets to
// page 1 and refetches.
func (b *Browser[T]) SetFilter(ctx context.Context, key, value string) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query = b.query.WithFilter(key, value)
	return b.startLocked(ctx)
}

func (b *Browser[T]) startLocked(ctx context.Context) <-chan struct{} {
	b.generation++
	gen := b.generation
	q := b.query
	q.ExtraFilters = maps.Clone(q.ExtraFilters)
	b.result = Loading[T]()

	done := make(chan struct{})
	go func() {
		defer close(done)
		res := b.fetcher.Fetch(ctx, q)
		b.apply(ctx, gen, q, res)
	}()
	return done
}

func (b *Browser[T]) apply(ctx context.Context, gen uint64, q QueryState, res FetchResult[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.generation {
		b.logger.LogAttrs(ctx, slog.LevelDebug, "discarding superseded response",
			slog.String("kind", q.Kind.String()),
			slog.Int("page", q.CurrentPage),
			slog.Uint64("generation", gen),
			slog.Uint64("latest", b.generation),
		)
		return
	}
	b.result = res
}

// Select marks the loaded item with id as selected. It is a no-op returning
// false when no item with that id is loaded, including while loading or after
// a failure. Selection survives later page changes even if the item is no
// longer on the visible page.
func (b *Browser[T]) Select(id uint) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.result.IsSuccess() {
		return false
	}
	list := List[T]{
		Items: b.result.Items,
		OnSelect: func(item T) {
			b.selected = &item
		},
	}
	return list.Select(id)
}

// ClearSelection drops the current selection.
func (b *Browser[T]) ClearSelection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selected = nil
}

// Selected returns the selected item, if any.
func (b *Browser[T]) Selected() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.selected == nil {
		var zero T
		return zero, false
	}
	return *b.selected, true
}

// Snapshot is a consistent copy of a browser's state.
type Snapshot[T domain.Entity] struct {
	Query    QueryState
	Result   FetchResult[T]
	Selected *T
	Page     PageDescriptor
	Pager    Pager
}

// Snapshot returns the query, result, selection and pagination control as of now.
// Pager is derived from Page.
// The pager is hidden unless the latest result is a success with at least one page.
func (b *Browser[T]) Snapshot() Snapshot[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := b.query
	q.ExtraFilters = maps.Clone(q.ExtraFilters)
	s := Snapshot[T]{
		Query:  q,
		Result: b.result,
		Page: PageDescriptor{
			CurrentPage: q.CurrentPage,
			TotalPages:  b.result.TotalPages,
			PageSize:    q.PageSize,
		},
	}
	s.Pager = s.Page.Pager(b.maxVisible)
	if b.selected != nil {
		sel := *b.selected
		s.Selected = &sel
	}
	return s
}

// View renders the current list with renderItem.
func (b *Browser[T]) View(renderItem func(T) string) ListView {
	s := b.Snapshot()
	return RenderList(s.Result, s.Selected, renderItem)
}
