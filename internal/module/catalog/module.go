package catalog

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/storeadmin/internal/domain"
)

var (
	userFields = Fields{
		Search: []string{"name", "email"},
		Filter: []string{"name", "email", "status"},
		Sort:   []string{"id", "name", "email", "created_at", "updated_at"},
	}
	storeFields = Fields{
		Search: []string{"name", "slug"},
		Filter: []string{"name", "slug", "owner_id", "status"},
		Sort:   []string{"id", "name", "slug", "created_at", "updated_at"},
	}
	productFields = Fields{
		Search: []string{"name", "sku"},
		Filter: []string{"name", "sku", "store_id", "status"},
		Sort:   []string{"id", "name", "sku", "price", "stock", "created_at", "updated_at"},
	}
	roleFields = Fields{
		Search: []string{"name", "description"},
		Filter: []string{"name"},
		Sort:   []string{"id", "name", "created_at"},
	}
	permissionFields = Fields{
		Search: []string{"name", "description"},
		Filter: []string{"name"},
		Sort:   []string{"id", "name", "created_at"},
	}
)

// Models returns every catalog model, for migrations.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Store{},
		&domain.Product{},
		&domain.Role{},
		&domain.Permission{},
	}
}

// Module serves the read-only catalog API for every entity kind.
type Module struct {
	resources []Resource
}

// NewModule creates a Module with one GORM-backed resource per entity kind.
// Panics if db is nil.
func NewModule(db *gorm.DB) *Module {
	if db == nil {
		panic("catalog.NewModule: db must not be nil")
	}
	return NewModuleWithResources(
		NewHandler(domain.KindUsers, NewRepository[domain.User](db, userFields)),
		NewHandler(domain.KindStores, NewRepository[domain.Store](db, storeFields)),
		NewHandler(domain.KindProducts, NewRepository[domain.Product](db, productFields)),
		NewHandler(domain.KindRoles, NewRepository[domain.Role](db, roleFields)),
		NewHandler(domain.KindPermissions, NewRepository[domain.Permission](db, permissionFields)),
	)
}

// NewModuleWithResources creates a Module from explicit resources.
func NewModuleWithResources(resources ...Resource) *Module {
	return &Module{resources: resources}
}

// Kinds returns the kinds this module serves, in registration order.
func (m *Module) Kinds() []domain.EntityKind {
	kinds := make([]domain.EntityKind, 0, len(m.resources))
	for _, r := range m.resources {
		kinds = append(kinds, r.Kind())
	}
	return kinds
}

// RegisterRoutes registers GET /<kind> and GET /<kind>/:id on api for every
// resource. The catalog has no pages.
func (m *Module) RegisterRoutes(api *gin.RouterGroup, _ *gin.RouterGroup) {
	for _, r := range m.resources {
		path := "/" + r.Kind().String()
		api.GET(path, r.List)
		api.GET(path+"/:id", r.Get)
	}
}
