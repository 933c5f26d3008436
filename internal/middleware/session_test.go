package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz_console/internal/config"
	"quiz_console/internal/repository"
	"quiz_console/internal/service"

	"github.com/gin-gonic/gin"
)

func newRouter(gate *service.SessionGate) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", SessionRequired(gate), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestSessionRequired(t *testing.T) {
	ctx := context.Background()
	gate := service.NewSessionGate(repository.NewMemoryStore(), config.AuthConfig{LoginCode: "secret"})
	r := newRouter(gate)

	get := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
		return w.Code
	}

	if code := get(); code != http.StatusServiceUnavailable {
		t.Fatalf("unknown state: status %d", code)
	}

	gate.Refresh(ctx)
	if code := get(); code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated: status %d", code)
	}

	gate.Login(ctx, "secret")
	if code := get(); code != http.StatusOK {
		t.Fatalf("authenticated: status %d", code)
	}

	gate.Logout(ctx)
	if code := get(); code != http.StatusUnauthorized {
		t.Fatalf("after logout: status %d", code)
	}
}
