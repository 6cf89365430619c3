package catalog

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/storeadmin/internal/domain"
	"github.com/simp-lee/storeadmin/internal/pkg"
)

// Resource serves one entity kind over HTTP.
type Resource interface {
	Kind() domain.EntityKind
	List(c *gin.Context)
	Get(c *gin.Context)
}

// Handler serves the list and detail endpoints of one kind.
type Handler[T domain.Entity] struct {
	kind   domain.EntityKind
	reader Reader[T]
}

// NewHandler creates a Handler for kind backed by reader.
func NewHandler[T domain.Entity](kind domain.EntityKind, reader Reader[T]) *Handler[T] {
	return &Handler[T]{kind: kind, reader: reader}
}

// Kind returns the kind this handler serves.
func (h *Handler[T]) Kind() domain.EntityKind {
	return h.kind
}

// List handles GET /api/v1/<kind>.
func (h *Handler[T]) List(c *gin.Context) {
	req := pkg.ParsePageRequest(c)

	result, err := h.reader.List(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		pkg.Error(c, err)
		return
	}

	pkg.List(c, result)
}

// Get handles GET /api/v1/<kind>/:id.
func (h *Handler[T]) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	item, err := h.reader.Get(c.Request.Context(), id)
	if err != nil {
		if domain.IsNotFound(err) {
			err = domain.NewAppError(domain.CodeNotFound, fmt.Sprintf("no %s with id %d", h.kind, id), err)
		} else {
			_ = c.Error(err)
		}
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, item)
}

// parseID extracts and validates the :id path parameter.
func parseID(c *gin.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, strconv.IntSize)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}
