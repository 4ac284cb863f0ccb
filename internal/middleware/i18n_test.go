// internal/middleware/i18n_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func langRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(I18nMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("lang"))
	})
	return r
}

func TestI18nMiddleware(t *testing.T) {
	r := langRouter()

	cases := []struct {
		header string
		want   string
	}{
		{"", "en"},
		{"en", "en"},
		{"en-US,en;q=0.9", "en"},
		{"en-NG", "en"},
		{"pcm", "pcm"},
		{"pcm-NG,pcm;q=0.9,en;q=0.8", "pcm"},
		{"pcm_NG", "pcm"},
		{"fr-FR,fr;q=0.9", "en"},
	}

	for _, tc := range cases {
		req, _ := http.NewRequest("GET", "/", nil)
		if tc.header != "" {
			req.Header.Set("Accept-Language", tc.header)
		}

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tc.want, w.Body.String(), "header %q", tc.header)
	}
}
