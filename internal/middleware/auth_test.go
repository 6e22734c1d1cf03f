package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-inout-api/internal/response"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func setupAuthRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(secret))
	r.GET("/protected", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(OperatorIDKey))
	})
	return r
}

func TestAuth(t *testing.T) {
	valid := jwt.MapClaims{"sub": "operator-1", "exp": time.Now().Add(time.Hour).Unix()}

	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid sub claim",
			secret:     testSecret,
			header:     "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, valid),
			wantStatus: http.StatusOK,
			wantBody:   "operator-1",
		},
		{
			name:       "user_id claim preferred",
			secret:     testSecret,
			header:     "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "admin", "sub": "other"}),
			wantStatus: http.StatusOK,
			wantBody:   "admin",
		},
		{
			name:       "missing header",
			secret:     testSecret,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not bearer",
			secret:     testSecret,
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			secret:     testSecret,
			header:     "Bearer " + signToken(t, "other-secret", jwt.SigningMethodHS256, valid),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired",
			secret:     testSecret,
			header:     "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x", "exp": time.Now().Add(-time.Hour).Unix()}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no operator claim",
			secret:     testSecret,
			header:     "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "auth not configured",
			secret:     "",
			header:     "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, valid),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupAuthRouter(tt.secret)
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
				return
			}
			var body response.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, response.ErrCodeUnauthorized, body.Error.Code)
		})
	}
}
