// internal/middleware/middleware_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sapphirus/sapphirus-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestI18nMiddlewareParsesAcceptLanguage(t *testing.T) {
	cases := map[string]string{
		"":                        "en",
		"en":                      "en",
		"en-US,en;q=0.9":          "en",
		"zh-TW,zh;q=0.9,en;q=0.8": "zh_TW",
		"zh-Hant":                 "zh_TW",
		"fr-FR,fr;q=0.9":          "en",
	}

	for header, want := range cases {
		r := gin.New()
		r.Use(I18nMiddleware())

		var got string
		r.GET("/", func(c *gin.Context) {
			got = c.GetString("lang")
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("Accept-Language", header)
		}
		r.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, want, got, "header %q", header)
	}
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	r := gin.New()
	r.Use(AuthRequired())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")

	userID := uuid.New()
	token, err := utils.GenerateJWT(userID, "shopper@example.com", "user", 1)
	require.NoError(t, err)

	r := gin.New()
	r.Use(AuthRequired())

	var gotUserID, gotRole string
	r.GET("/", func(c *gin.Context) {
		gotUserID = c.GetString("user_id")
		gotRole = c.GetString("role")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), gotUserID)
	assert.Equal(t, "user", gotRole)
}

func TestAdminRequiredRejectsCustomers(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")

	token, err := utils.GenerateJWT(uuid.New(), "shopper@example.com", "user", 1)
	require.NoError(t, err)

	r := gin.New()
	r.Use(AuthRequired(), AdminRequired())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2)

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
