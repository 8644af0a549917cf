package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type tokenValidatorStub struct{}

func (tokenValidatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{UserID: "hod-1", Role: models.RoleHOD, Department: "computer science"}, nil
}

func newProtectedRouter(roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", JWT(tokenValidatorStub{}), RequireRoles(roles...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestJWTAndRoles(t *testing.T) {
	cases := []struct {
		name   string
		header string
		roles  []models.UserRole
		status int
	}{
		{name: "missing header", header: "", roles: []models.UserRole{models.RoleHOD}, status: http.StatusUnauthorized},
		{name: "malformed header", header: "Token good", roles: []models.UserRole{models.RoleHOD}, status: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer bad", roles: []models.UserRole{models.RoleHOD}, status: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer good", roles: []models.UserRole{models.RoleCourseRep}, status: http.StatusForbidden},
		{name: "allowed", header: "bearer good", roles: []models.UserRole{models.RoleAdmin, models.RoleHOD}, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newProtectedRouter(tc.roles...)
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

type observerStub struct {
	path   string
	status int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.path = path
	o.status = status
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/timetables/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/timetables/abc", nil))
	assert.Equal(t, "/timetables/:id", observer.path)
	assert.Equal(t, http.StatusAccepted, observer.status)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, "unmatched", observer.path)
}

func TestSetCacheHitWritesHeaderAndMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	var meta map[string]interface{}
	router.GET("/cached", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cached", nil))
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
	assert.Equal(t, true, meta[cacheHitKey])
}
