package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAssignsID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) { seen = Value(c) })

	cases := map[string]struct {
		header string
		keep   bool
	}{
		"generated when absent":  {header: "", keep: false},
		"reused when valid":      {header: "req-123", keep: true},
		"replaced when too long": {header: strings.Repeat("a", maxLength+1), keep: false},
		"replaced when unsafe":   {header: "bad id", keep: false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(HeaderKey, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, seen, w.Header().Get(HeaderKey))
			if tc.keep {
				assert.Equal(t, tc.header, seen)
				return
			}
			_, err := uuid.Parse(seen)
			require.NoError(t, err)
		})
	}
}
