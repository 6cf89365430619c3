package app

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/simp-lee/storeadmin/internal/pkg"
)

// --- test helpers ---

// routeTestFS returns a minimal template filesystem for route handler tests.
func routeTestFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/layouts/base.html": &fstest.MapFile{
			Data: []byte(`{{ define "base" }}{{ block "content" . }}{{ end }}{{ end }}`),
		},
		"templates/partials/nav.html": &fstest.MapFile{
			Data: []byte(`{{ define "nav" }}{{ range .Kinds }}[{{ . }}]{{ end }}{{ end }}`),
		},
		"templates/home.html": &fstest.MapFile{
			Data: []byte(`{{ template "base" . }}{{ define "content" }}home:{{ template "nav" . }}{{ end }}`),
		},
		"templates/errors/404.html": &fstest.MapFile{
			Data: []byte(`{{ template "base" . }}{{ define "content" }}404:{{ .Title }}:{{ .Message }}{{ end }}`),
		},
		"templates/errors/500.html": &fstest.MapFile{
			Data: []byte(`{{ template "base" . }}{{ define "content" }}500:{{ .Title }}{{ end }}`),
		},
	}
}

// setupTestRouter creates a gin.Engine with the route-test template renderer.
func setupTestRouter() *gin.Engine {
	r := gin.New()
	renderer, err := NewTemplateRenderer(routeTestFS(), true)
	if err != nil {
		panic("setup renderer: " + err.Error())
	}
	r.HTMLRender = renderer
	return r
}

func openTestSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return db
}

// --- Health check tests ---

func TestHealthHandler_OK(t *testing.T) {
	r := gin.New()
	r.GET("/health", healthHandler(openTestSQLiteDB(t)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	comps, ok := body["components"].(map[string]any)
	if !ok {
		t.Fatal("missing components")
	}
	if comps["database"] != "ok" {
		t.Errorf("expected database ok, got %v", comps["database"])
	}
}

func TestHealthHandler_Degraded(t *testing.T) {
	closed := openTestSQLiteDB(t)
	sqlDB, _ := closed.DB()
	sqlDB.Close()

	tests := []struct {
		name string
		db   *gorm.DB
	}{
		{"closed database", closed},
		{"no database", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", healthHandler(tt.db))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != http.StatusServiceUnavailable {
				t.Fatalf("expected 503, got %d", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body["status"] != "degraded" {
				t.Errorf("expected status degraded, got %v", body["status"])
			}
			if comps := body["components"].(map[string]any); comps["database"] != "error" {
				t.Errorf("expected database error, got %v", comps["database"])
			}
		})
	}
}

func TestHealthHandler_UsesRequestContextTimeout(t *testing.T) {
	registerBlockingPingDriver()

	sqlDB, err := sql.Open(blockingPingDriverName, "")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	r := gin.New()
	r.GET("/health", healthHandler(db))

	reqCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	t.Cleanup(cancel)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(reqCtx)

	start := time.Now()
	r.ServeHTTP(w, req)
	elapsed := time.Since(start)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if elapsed > 300*time.Millisecond {
		t.Fatalf("expected health response to honor request context timeout, elapsed=%v", elapsed)
	}
}

// --- NoRoute handler tests ---

func TestNoRouteHandler(t *testing.T) {
	r := setupTestRouter()
	r.NoRoute(noRouteHandler())

	tests := []struct {
		name     string
		path     string
		accept   string
		wantJSON bool
	}{
		{"json client", "/nonexistent", "application/json", true},
		{"browser", "/nonexistent", "text/html", false},
		{"wildcard accept", "/nonexistent", "*/*", false},
		{"api path with wildcard", "/api/nonexistent", "*/*", true},
		{"api v1 path with html", "/api/v1/orders", "text/html", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept", tt.accept)
			r.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Fatalf("expected 404, got %d", w.Code)
			}

			if !tt.wantJSON {
				if got := w.Body.String(); got != "404:Not Found:not found" {
					t.Errorf("body = %q", got)
				}
				return
			}

			var resp pkg.Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v; body=%s", err, w.Body.String())
			}
			if resp.Status || resp.Message != "not found" {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

// --- Static routes tests ---

func TestRegisterStaticRoutes(t *testing.T) {
	for _, mode := range []string{gin.DebugMode, gin.ReleaseMode} {
		t.Run(mode, func(t *testing.T) {
			r := gin.New()
			if err := registerStaticRoutesWithError(r, mode); err != nil {
				t.Fatalf("registerStaticRoutesWithError: %v", err)
			}

			found := false
			for _, route := range r.Routes() {
				if route.Method == http.MethodGet && route.Path == "/static/*filepath" {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected /static/*filepath route in %s mode", mode)
			}
		})
	}
}

func TestRegisterStaticRoutes_ServesStylesheet(t *testing.T) {
	r := gin.New()
	if err := registerStaticRoutesWithError(r, gin.ReleaseMode); err != nil {
		t.Fatalf("registerStaticRoutesWithError: %v", err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("Cache-Control = %q", cc)
	}
}

func TestCacheStaticHandler_SetsCacheControl(t *testing.T) {
	memFS := fstest.MapFS{
		"test.css": &fstest.MapFile{Data: []byte("body{}")},
	}

	r := gin.New()
	r.GET("/static/*filepath", cacheStaticHandler(http.FS(memFS)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/test.css", nil))

	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("expected Cache-Control 'public, max-age=86400', got %q", cc)
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// --- RegisterRoutes tests ---

// mockModule records the groups it was registered on and mounts a marker route on each.
type mockModule struct {
	called   bool
	gotPages bool
}

func (m *mockModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	m.called = true
	m.gotPages = pages != nil
	api.GET("/marker", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	if pages != nil {
		pages.GET("/marker", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}
}

func TestRegisterRoutes_Validation(t *testing.T) {
	tests := []struct {
		name    string
		router  *gin.Engine
		deps    *RouteDeps
		wantErr string
	}{
		{"nil router", nil, &RouteDeps{}, "router is nil"},
		{"nil deps", gin.New(), nil, "route dependencies are nil"},
		{"no catalog", gin.New(), &RouteDeps{Mode: gin.ReleaseMode}, "catalog module is required"},
		{
			"nil module entry",
			gin.New(),
			&RouteDeps{Catalog: &mockModule{}, Modules: []Module{nil}, Mode: gin.ReleaseMode},
			"module at index 0 is nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RegisterRoutes(tt.router, tt.deps)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("RegisterRoutes() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterRoutes_AuthScope(t *testing.T) {
	cat := &mockModule{}
	dash := &dashboardShapeModule{}
	r := setupTestRouter()

	denied := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, pkg.Response{Message: "missing bearer token"})
	}
	err := RegisterRoutes(r, &RouteDeps{
		Catalog: cat,
		Auth:    denied,
		Modules: []Module{dash},
		DB:      openTestSQLiteDB(t),
		Mode:    gin.ReleaseMode,
	})
	if err != nil {
		t.Fatalf("RegisterRoutes() error = %v", err)
	}
	if !cat.called || cat.gotPages {
		t.Errorf("catalog registered = %v with pages = %v, want API only", cat.called, cat.gotPages)
	}

	tests := []struct {
		path     string
		wantCode int
	}{
		{"/api/v1/marker", http.StatusUnauthorized},
		{"/api/v1/browse/users", http.StatusUnauthorized},
		{"/admin/users", http.StatusUnauthorized},
		{"/health", http.StatusOK},
		{"/", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

// dashboardShapeModule mimics the dashboard's route shape.
type dashboardShapeModule struct{}

func (dashboardShapeModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/browse/:kind", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	pages.GET("/:kind", func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

func TestRegisterRoutes_HomePage(t *testing.T) {
	r := setupTestRouter()
	if err := RegisterRoutes(r, &RouteDeps{Catalog: &mockModule{}, Mode: gin.ReleaseMode}); err != nil {
		t.Fatalf("RegisterRoutes() error = %v", err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	want := "home:[users][stores][products][roles][permissions]"
	if body := w.Body.String(); body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

// --- blocking ping driver ---

const blockingPingDriverName = "storeadmin_blocking_ping"

var registerBlockingPingDriverOnce sync.Once

func registerBlockingPingDriver() {
	registerBlockingPingDriverOnce.Do(func() {
		sql.Register(blockingPingDriverName, blockingPingDriver{})
	})
}

type blockingPingDriver struct{}

func (blockingPingDriver) Open(string) (driver.Conn, error) {
	return blockingPingConn{}, nil
}

type blockingPingConn struct{}

func (blockingPingConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (blockingPingConn) Close() error                        { return nil }
func (blockingPingConn) Begin() (driver.Tx, error)           { return blockingPingTx{}, nil }

func (blockingPingConn) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type blockingPingTx struct{}

func (blockingPingTx) Commit() error   { return nil }
func (blockingPingTx) Rollback() error { return nil }
