package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/storeadmin/internal/browser"
	"github.com/simp-lee/storeadmin/internal/domain"
	"github.com/simp-lee/storeadmin/internal/pkg"
)

// Handler serves the browse screens. Every request drives a fresh session
// to settlement and renders its page.
type Handler struct {
	sessions *Factory
	basePath string
}

// NewHandler creates a Handler whose HTML screens live under basePath.
func NewHandler(sessions *Factory, basePath string) *Handler {
	return &Handler{sessions: sessions, basePath: strings.TrimRight(basePath, "/")}
}

// Browse handles GET /api/v1/browse/:kind.
func (h *Handler) Browse(c *gin.Context) {
	kind, err := parseKind(c)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	var q BrowseQuery
	if !pkg.BindAndValidate(c, &q) {
		return
	}

	page, err := h.load(c, kind, q)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, page)
}

// ListPage handles GET /admin/:kind.
func (h *Handler) ListPage(c *gin.Context) {
	kind, err := parseKind(c)
	if err != nil {
		renderErrorPage(c, http.StatusNotFound, err)
		return
	}

	var q BrowseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		slog.DebugContext(c.Request.Context(), "browse: bind error", slog.Any("error", err))
		renderErrorPage(c, http.StatusBadRequest, domain.NewAppError(domain.CodeValidation, "invalid query", err))
		return
	}

	page, err := h.load(c, kind, q)
	if err != nil {
		renderErrorPage(c, domain.HTTPStatusCode(err), err)
		return
	}

	c.HTML(http.StatusOK, "dashboard/list.html", gin.H{
		"Title": page.Title,
		"Page":  page,
		"Kinds": domain.EntityKinds(),
	})
}

func (h *Handler) load(c *gin.Context, kind domain.EntityKind, bq BrowseQuery) (Page, error) {
	q, err := h.queryState(c, kind, bq)
	if err != nil {
		return Page{}, err
	}

	s, err := h.sessions.New(kind, &q)
	if err != nil {
		return Page{}, err
	}

	ctx := c.Request.Context()
	if err := Wait(ctx, s.Reload(ctx)); err != nil {
		return Page{}, canceled(err)
	}
	if bq.Selected != 0 && !s.Select(bq.Selected) {
		s.LoadDetail(ctx, bq.Selected)
	}

	page := s.Page()
	page.BasePath = h.basePath + "/" + kind.String()
	return page, nil
}

// queryState builds the initial query from the request. Unreserved
// parameters become extra filters, applied in key order.
func (h *Handler) queryState(c *gin.Context, kind domain.EntityKind, bq BrowseQuery) (browser.QueryState, error) {
	pageSize := bq.PerPage
	if pageSize == 0 {
		pageSize = h.sessions.PageSize()
	}
	q := browser.NewQueryState(kind, pageSize).WithSearch(strings.TrimSpace(bq.Search))

	params := c.Request.URL.Query()
	keys := make([]string, 0, len(params))
	for key := range params {
		if !reservedParams[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		q = q.WithFilter(key, params.Get(key))
	}

	if bq.Page != nil {
		return q.WithPage(*bq.Page)
	}
	return q, nil
}

var errorPages = map[int]string{
	http.StatusBadRequest: "errors/400.html",
	http.StatusNotFound:   "errors/404.html",
}

// renderErrorPage shows err's message for client errors and a generic page otherwise.
func renderErrorPage(c *gin.Context, code int, err error) {
	page, ok := errorPages[code]
	if !ok {
		_ = c.Error(err)
		c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{
			"Title": http.StatusText(http.StatusInternalServerError),
			"Kinds": domain.EntityKinds(),
		})
		return
	}

	msg := http.StatusText(code)
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	c.HTML(code, page, gin.H{
		"Title":   http.StatusText(code),
		"Message": msg,
		"Kinds":   domain.EntityKinds(),
	})
}

func parseKind(c *gin.Context) (domain.EntityKind, error) {
	kind, err := domain.ParseEntityKind(c.Param("kind"))
	if err != nil {
		return "", domain.NewAppError(domain.CodeNotFound, err.Error(), nil)
	}
	return kind, nil
}

func canceled(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewAppError(domain.CodeInternal, "upstream timed out", err)
	}
	return domain.NewAppError(domain.CodeInternal, "request canceled", err)
}
