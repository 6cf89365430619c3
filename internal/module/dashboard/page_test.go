package dashboard

import (
	"net/url"
	"testing"

	"github.com/simp-lee/storeadmin/internal/browser"
	"github.com/simp-lee/storeadmin/internal/domain"
)

func TestPage_URLs(t *testing.T) {
	q := browser.NewQueryState(domain.KindProducts, 10).WithSearch("mug").WithFilter("store_id", "2")
	q, _ = q.WithPage(3)
	p := Page{Kind: domain.KindProducts, Query: q, BasePath: "/admin/products"}

	u, err := url.Parse(p.PageURL(4))
	if err != nil {
		t.Fatalf("parse PageURL: %v", err)
	}
	if u.Path != "/admin/products" {
		t.Errorf("path = %q", u.Path)
	}
	got := u.Query()
	if got.Get("page") != "4" || got.Get("search") != "mug" || got.Get("store_id") != "2" || got.Has("selected") {
		t.Errorf("PageURL query = %v", got)
	}

	u, _ = url.Parse(p.SelectURL(7))
	if got := u.Query(); got.Get("selected") != "7" || got.Get("page") != "3" {
		t.Errorf("SelectURL query = %v", got)
	}

	p.Detail = &Detail{ID: 7}
	u, _ = url.Parse(p.PageURL(1))
	if u.Query().Get("selected") != "7" {
		t.Errorf("PageURL dropped the selection: %v", u.Query())
	}
}

func TestRenderers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"user", renderUser(domain.User{Name: "Chen Wei", Email: "chen@example.com"}), "Chen Wei <chen@example.com>"},
		{"store", renderStore(domain.Store{Name: "Cedar Kitchenware", Slug: "cedar-kitchen"}), "Cedar Kitchenware (cedar-kitchen)"},
		{"product", renderProduct(domain.Product{Name: "Ceramic Mug", SKU: "CED-010", Price: 1205}), "Ceramic Mug · CED-010 · 12.05"},
		{"role", renderRole(domain.Role{Name: "editor"}), "editor"},
		{"permission", renderPermission(domain.Permission{Name: "products.edit"}), "products.edit"},
		{"negative price", formatPrice(-7), "-0.07"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}
