package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newCapabilityRouter(capability Capability) *gin.Engine {
	router := gin.New()
	router.Use(ResolveRole())
	router.POST("/guarded", RequireCapability(capability), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestRequireCapability(t *testing.T) {
	t.Run("admin passes every capability", func(t *testing.T) {
		for _, capability := range []Capability{
			CapCheckout, CapOrderRead, CapOrderCancel,
			CapCodeManage, CapLedgerRead, CapRosterSync, CapProspectWrite,
		} {
			router := newCapabilityRouter(capability)
			req := httptest.NewRequest("POST", "/guarded", nil)
			req.Header.Set("X-Role", RoleAdmin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code, capability)
		}
	})

	t.Run("sales rep may manage codes", func(t *testing.T) {
		router := newCapabilityRouter(CapCodeManage)
		req := httptest.NewRequest("POST", "/guarded", nil)
		req.Header.Set("X-Role", RoleSalesRep)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("doctor may not manage codes", func(t *testing.T) {
		router := newCapabilityRouter(CapCodeManage)
		req := httptest.NewRequest("POST", "/guarded", nil)
		req.Header.Set("X-Role", RoleDoctor)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_FORBIDDEN")
	})

	t.Run("missing role is unauthorized", func(t *testing.T) {
		router := newCapabilityRouter(CapCheckout)
		req := httptest.NewRequest("POST", "/guarded", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown role is forbidden", func(t *testing.T) {
		router := newCapabilityRouter(CapCheckout)
		req := httptest.NewRequest("POST", "/guarded", nil)
		req.Header.Set("X-Role", "intern")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestResolveRole(t *testing.T) {
	router := gin.New()
	router.Use(ResolveRole())
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": GetRole(c), "actor": GetActorID(c)})
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("X-Role", RoleSalesRep)
	req.Header.Set("X-Actor-ID", "rep-77")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sales_rep")
	assert.Contains(t, w.Body.String(), "rep-77")
}
