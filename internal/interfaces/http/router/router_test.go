package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouter_MountsUnderVersionPrefix(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Register(NewDomainGroup("reception", "/reception").GET("/queue", ok))
	r.Setup()

	assert.Equal(t, http.StatusOK, serve(engine, "GET", "/api/v1/reception/queue").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, "GET", "/reception/queue").Code)
}

func TestRouter_WithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	r.Register(NewDomainGroup("billing", "/billing").GET("/invoices", ok))
	r.Setup()

	assert.Equal(t, http.StatusOK, serve(engine, "GET", "/api/v2/billing/invoices").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, "GET", "/api/v1/billing/invoices").Code)
}

func TestRouter_GroupMiddleware(t *testing.T) {
	engine := gin.New()
	calls := 0

	r := NewRouter(engine)
	r.Use(func(c *gin.Context) { calls++ })
	r.Register(NewDomainGroup("pharmacy", "/pharmacy").GET("/stock", ok))
	r.Setup()

	serve(engine, "GET", "/api/v1/pharmacy/stock")
	assert.Equal(t, 1, calls)

	// Requests outside the versioned group skip the middleware.
	serve(engine, "GET", "/health")
	assert.Equal(t, 1, calls)
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("orders", "/orders").
		GET("", ok).
		POST("", ok).
		PUT("/:id", ok).
		PATCH("/:id/status", ok).
		DELETE("/:id", ok)

	r := NewRouter(engine)
	r.Register(group)
	r.Setup()

	assert.Equal(t, http.StatusOK, serve(engine, "GET", "/api/v1/orders").Code)
	assert.Equal(t, http.StatusOK, serve(engine, "POST", "/api/v1/orders").Code)
	assert.Equal(t, http.StatusOK, serve(engine, "PUT", "/api/v1/orders/o-1").Code)
	assert.Equal(t, http.StatusOK, serve(engine, "PATCH", "/api/v1/orders/o-1/status").Code)
	assert.Equal(t, http.StatusOK, serve(engine, "DELETE", "/api/v1/orders/o-1").Code)
}

func TestDomainGroup_MiddlewareScoping(t *testing.T) {
	engine := gin.New()

	guarded := 0
	billing := NewDomainGroup("billing", "/billing").
		Use(func(c *gin.Context) { guarded++ }).
		GET("/invoices", ok)
	reception := NewDomainGroup("reception", "/reception").GET("/queue", ok)

	r := NewRouter(engine)
	r.Register(billing)
	r.Register(reception)
	r.Setup()

	serve(engine, "GET", "/api/v1/billing/invoices")
	serve(engine, "GET", "/api/v1/reception/queue")

	// The billing middleware never sees reception traffic.
	assert.Equal(t, 1, guarded)
}

func TestDomainGroup_Subgroups(t *testing.T) {
	engine := gin.New()

	pharmacy := NewDomainGroup("pharmacy", "/pharmacy")
	pharmacy.GET("/orders", ok)
	inventory := pharmacy.Group("inventory", "/inventory")
	inventory.GET("", ok).POST("/:id/restock", ok)

	r := NewRouter(engine)
	r.Register(pharmacy)
	r.Setup()

	assert.Equal(t, http.StatusOK, serve(engine, "GET", "/api/v1/pharmacy/orders").Code)
	assert.Equal(t, http.StatusOK, serve(engine, "GET", "/api/v1/pharmacy/inventory").Code)
	assert.Equal(t, http.StatusOK, serve(engine, "POST", "/api/v1/pharmacy/inventory/i-1/restock").Code)
}

func TestDomainGroup_ParentMiddlewareCoversSubgroups(t *testing.T) {
	engine := gin.New()

	seen := 0
	parent := NewDomainGroup("consultation", "/consultation").
		Use(func(c *gin.Context) { seen++ })
	parent.Group("records", "/records").GET("", ok)

	r := NewRouter(engine)
	r.Register(parent)
	r.Setup()

	serve(engine, "GET", "/api/v1/consultation/records")
	assert.Equal(t, 1, seen)
}

func TestDomainGroup_Accessors(t *testing.T) {
	dg := NewDomainGroup("lab", "/lab")
	assert.Equal(t, "lab", dg.Name())
	assert.Equal(t, "/lab", dg.Prefix())
}
