package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/freightdesk/backend/docs"
	"github.com/freightdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	rg.GET("/panic", func(c *gin.Context) { panic("boom") })
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	engine := NewEngine(EngineConfig{ServiceName: "freight-test"}, zap.New(core))
	NewRouter(engine, WithHealth(func(c *gin.Context) { c.Status(http.StatusNoContent) })).
		Register(pingRoutes{}).
		Setup()

	serve := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	t.Run("versioned route", func(t *testing.T) {
		w := serve("/api/v1/ping")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pong", w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("health is unversioned", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, serve("/health").Code)
	})

	t.Run("unknown route uses the envelope", func(t *testing.T) {
		w := serve("/api/v1/nope")
		assert.Equal(t, http.StatusNotFound, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("panics are recovered and logged", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, serve("/api/v1/panic").Code)
		assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
	})
}

func TestRouterSwagger(t *testing.T) {
	engine := NewEngine(EngineConfig{ServiceName: "freight-test"}, zap.NewNop())
	NewRouter(engine, WithSwagger(ginSwagger.WrapHandler(swaggerFiles.Handler))).
		Register(pingRoutes{}).
		Setup()

	serve := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	t.Run("serves the UI", func(t *testing.T) {
		w := serve("/swagger/index.html")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "swagger-ui")
	})

	t.Run("serves the registered document", func(t *testing.T) {
		w := serve("/swagger/doc.json")
		require.Equal(t, http.StatusOK, w.Code)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "/api/v1", doc["basePath"])
		assert.Contains(t, doc["paths"], "/finance/applications")
	})

	t.Run("absent without the option", func(t *testing.T) {
		bare := NewEngine(EngineConfig{ServiceName: "freight-test"}, zap.NewNop())
		NewRouter(bare).Setup()
		w := httptest.NewRecorder()
		bare.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
