package dashboard

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/storeadmin/internal/browser"
)

type browseEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Kind            string             `json:"kind"`
		Query           browser.QueryState `json:"query"`
		View            browser.ListView   `json:"view"`
		Pager           browser.Pager      `json:"pager"`
		RecordsFiltered int                `json:"recordsFiltered"`
		Detail          *Detail            `json:"detail"`
	} `json:"data"`
}

const testTemplates = `
{{ define "dashboard/list.html" }}<h1>{{ .Title }}</h1>{{ range .Page.View.Rows }}<li>{{ .Label }}</li>{{ end }}{{ if .Page.Detail }}<aside>{{ .Page.Detail.Label }}</aside>{{ end }}{{ end }}
{{ define "errors/400.html" }}bad request{{ end }}
{{ define "errors/404.html" }}not found{{ end }}
{{ define "errors/500.html" }}server error{{ end }}
`

func newDashboardRouter(t *testing.T, upstreamURL string) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("").Parse(testTemplates)))
	m := NewModule(NewHandler(newTestFactory(t, upstreamURL), "/admin"))
	m.RegisterRoutes(r.Group("/api/v1"), r.Group("/admin"))
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decodeBrowse(t *testing.T, w *httptest.ResponseRecorder) browseEnvelope {
	t.Helper()
	var env browseEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body: %v; body=%s", err, w.Body.String())
	}
	return env
}

func TestBrowse_JSON(t *testing.T) {
	r := newDashboardRouter(t, newCatalogServer(t).URL+"/api/v1")

	w := get(r, "/api/v1/browse/users?page=2&per_page=5")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body=%s", w.Code, w.Body.String())
	}
	env := decodeBrowse(t, w)
	if !env.Status || env.Data.Kind != "users" {
		t.Errorf("envelope = %+v", env)
	}
	if env.Data.Query.CurrentPage != 2 || env.Data.Query.PageSize != 5 {
		t.Errorf("query = %+v", env.Data.Query)
	}
	if len(env.Data.View.Rows) != 5 {
		t.Errorf("rows = %d, want 5", len(env.Data.View.Rows))
	}
	if env.Data.Pager.Total != 3 || env.Data.Pager.Prev != 1 || env.Data.Pager.Next != 3 {
		t.Errorf("pager = %+v", env.Data.Pager)
	}
}

func TestBrowse_FilterAndSearchPassthrough(t *testing.T) {
	r := newDashboardRouter(t, newCatalogServer(t).URL+"/api/v1")

	env := decodeBrowse(t, get(r, "/api/v1/browse/products?store_id=2&search=mug"))
	if env.Data.RecordsFiltered != 1 {
		t.Errorf("recordsFiltered = %d, want 1", env.Data.RecordsFiltered)
	}
	if env.Data.Query.ExtraFilters["store_id"] != "2" || env.Data.Query.SearchQuery != "mug" {
		t.Errorf("query = %+v", env.Data.Query)
	}
}

func TestBrowse_PagePastEndIsEmpty(t *testing.T) {
	r := newDashboardRouter(t, newCatalogServer(t).URL+"/api/v1")

	env := decodeBrowse(t, get(r, "/api/v1/browse/roles?page=9"))
	if env.Data.View.State != browser.ViewEmpty || env.Data.View.Message != browser.EmptyMessage {
		t.Errorf("view = %+v, want empty", env.Data.View)
	}
	if env.Data.Query.CurrentPage != 9 {
		t.Errorf("page clamped to %d, want 9", env.Data.Query.CurrentPage)
	}
}

func TestBrowse_SelectedOffPage(t *testing.T) {
	r := newDashboardRouter(t, newCatalogServer(t).URL+"/api/v1")

	env := decodeBrowse(t, get(r, "/api/v1/browse/products?selected=1"))
	if env.Data.Detail == nil || env.Data.Detail.ID != 1 {
		t.Fatalf("detail = %+v", env.Data.Detail)
	}
	for _, row := range env.Data.View.Rows {
		if row.Selected {
			t.Errorf("row %d selected", row.ID)
		}
	}
}

func TestBrowse_SelectedOnPage(t *testing.T) {
	r := newDashboardRouter(t, newCatalogServer(t).URL+"/api/v1")

	env := decodeBrowse(t, get(r, "/api/v1/browse/roles?selected=2"))
	if env.Data.Detail == nil || env.Data.Detail.Label != "manager" {
		t.Fatalf("detail = %+v", env.Data.Detail)
	}
	selected := 0
	for _, row := range env.Data.View.Rows {
		if row.Selected {
			selected++
			if row.ID != 2 {
				t.Errorf("row %d selected, want 2", row.ID)
			}
		}
	}
	if selected != 1 {
		t.Errorf("%d rows selected, want 1", selected)
	}
}

func TestBrowse_Errors(t *testing.T) {
	r := newDashboardRouter(t, "http://127.0.0.1:1/api/v1")

	tests := []struct {
		name     string
		target   string
		wantCode int
	}{
		{"unknown kind", "/api/v1/browse/orders", http.StatusNotFound},
		{"zero page", "/api/v1/browse/users?page=0", http.StatusBadRequest},
		{"negative page", "/api/v1/browse/users?page=-3", http.StatusBadRequest},
		{"non-numeric page", "/api/v1/browse/users?page=two", http.StatusBadRequest},
		{"page size over limit", "/api/v1/browse/users?per_page=1000", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.target)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d; body=%s", w.Code, tt.wantCode, w.Body.String())
			}
			if env := decodeBrowse(t, w); env.Status {
				t.Error("status = true, want false")
			}
		})
	}
}

func TestBrowse_UpstreamDownIsFailureView(t *testing.T) {
	r := newDashboardRouter(t, "http://127.0.0.1:1/api/v1")

	w := get(r, "/api/v1/browse/users")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	env := decodeBrowse(t, w)
	if env.Data.View.State != browser.ViewFailure || env.Data.View.Message != browser.FallbackMessage {
		t.Errorf("view = %+v", env.Data.View)
	}
}

func TestListPage_HTML(t *testing.T) {
	r := newDashboardRouter(t, newCatalogServer(t).URL+"/api/v1")

	w := get(r, "/admin/stores?selected=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body=%s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{
		"<h1>Stores</h1>",
		"<li>Northwind Outfitters (northwind)</li>",
		"<aside>Lantern &amp; Loom (lantern-loom)</aside>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestListPage_Errors(t *testing.T) {
	r := newDashboardRouter(t, "http://127.0.0.1:1/api/v1")

	if w := get(r, "/admin/orders"); w.Code != http.StatusNotFound || w.Body.String() != "not found" {
		t.Errorf("unknown kind: %d %q", w.Code, w.Body.String())
	}
	if w := get(r, "/admin/users?page=0"); w.Code != http.StatusBadRequest || w.Body.String() != "bad request" {
		t.Errorf("zero page: %d %q", w.Code, w.Body.String())
	}
}
