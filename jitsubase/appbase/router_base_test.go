package appbase

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	require := require.New(t)

	secret := "dea42a58-acf4-45af-85bb-e77e94bd5025"
	hashed := "salt1." + HashToken("hashed-token", "salt1", secret)
	router := NewRouterBase(Config{AuthTokens: "plain-token, " + hashed, TokenSecrets: secret}, []string{"/health"})
	router.Engine().GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.Engine().GET("/scenarios", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, tc := range []struct {
		path   string
		token  string
		status int
	}{
		{"/health", "", http.StatusOK},
		{"/scenarios", "", http.StatusUnauthorized},
		{"/scenarios", "wrong", http.StatusUnauthorized},
		{"/scenarios", "plain-token", http.StatusOK},
		{"/scenarios", "hashed-token", http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		router.Engine().ServeHTTP(w, req)
		require.Equal(tc.status, w.Code, "%s with token %q", tc.path, tc.token)
	}
}

func TestNoAuthTokens(t *testing.T) {
	router := NewRouterBase(Config{}, nil)
	router.Engine().GET("/scenarios", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	router.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scenarios", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
