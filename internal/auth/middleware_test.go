package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func testRouter(disabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequireIdentityMiddleware(disabled))
	engine.GET("/api/echo", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c)})
	})
	ok := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	engine.GET("/healthz", ok)
	engine.GET("/api/predictions", ok)
	engine.GET("/api/predictions/bitcoin/24", ok)
	engine.GET("/api/market/ticker24h/BTCUSDT", ok)
	engine.POST("/api/predictions", ok)
	return engine
}

func get(engine *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequireIdentity_MissingBearer(t *testing.T) {
	w := get(testRouter(false), "/api/echo", map[string]string{"X-User-ID": "u1"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code=%d", w.Code)
	}
}

func TestRequireIdentity_MissingUserID(t *testing.T) {
	w := get(testRouter(false), "/api/echo", map[string]string{"Authorization": "Bearer tok"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code=%d", w.Code)
	}
}

func TestRequireIdentity_OK(t *testing.T) {
	w := get(testRouter(false), "/api/echo", map[string]string{
		"Authorization": "Bearer tok",
		"X-User-ID":     "u1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
	if w.Body.String() != `{"user":"u1"}` {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestRequireIdentity_HealthOpen(t *testing.T) {
	w := get(testRouter(false), "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d", w.Code)
	}
}

func TestRequireIdentity_Disabled(t *testing.T) {
	w := get(testRouter(true), "/api/echo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d", w.Code)
	}
}

func TestRequireIdentity_PublicReadsOpen(t *testing.T) {
	engine := testRouter(false)
	for _, path := range []string{
		"/api/predictions",
		"/api/predictions/bitcoin/24",
		"/api/market/ticker24h/BTCUSDT",
	} {
		w := get(engine, path, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("path=%s code=%d", path, w.Code)
		}
	}
}

func TestRequireIdentity_WritesStayGated(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/predictions", nil)
	w := httptest.NewRecorder()
	testRouter(false).ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code=%d", w.Code)
	}
}
