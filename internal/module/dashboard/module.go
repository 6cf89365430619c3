package dashboard

import "github.com/gin-gonic/gin"

// Module serves the admin browse screens and their JSON twin.
type Module struct {
	handler *Handler
}

// NewModule creates a Module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("dashboard.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

// RegisterRoutes registers GET /browse/:kind on api and GET /:kind on pages.
func (m *Module) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	if api != nil {
		api.GET("/browse/:kind", m.handler.Browse)
	}
	if pages != nil {
		pages.GET("/:kind", m.handler.ListPage)
	}
}
