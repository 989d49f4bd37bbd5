package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/storecase-identity/internal/config"
	"github.com/storecase-identity/internal/http/response"
	"github.com/storecase-identity/internal/models"
	"github.com/storecase-identity/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	r, _ := setupTestRouterWithContainer(t)
	return r
}

func setupTestRouterWithContainer(t *testing.T) (*gin.Engine, *provider.Container) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.EmailVerification{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "debug"},
		UserJWT: config.JWTConfig{SecretKey: "router-test-secret-0123456789abcdef"},
	}
	c := provider.NewContainerWithDB(cfg, db)
	t.Cleanup(c.Close)
	return SetupRouter(cfg, c), c
}

func TestSetupRouterHealthz(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz want 200 got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal healthz failed: %v", err)
	}
	if body["status"] != "ok" || body["database"] != "ok" || body["redis"] != "disabled" {
		t.Fatalf("unexpected healthz body: %v", body)
	}
}

func TestSetupRouterMetricsAndAuth(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal me failed: %v", err)
	}
	if resp.StatusCode != response.CodeUnauthorized {
		t.Fatalf("me without token want 401 got %+v", resp)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "identity_http_requests_total") {
		t.Fatalf("metrics should expose http counter, code=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal no route failed: %v", err)
	}
	if resp.StatusCode != response.CodeNotFound {
		t.Fatalf("unknown route want 404 got %+v", resp)
	}
}
