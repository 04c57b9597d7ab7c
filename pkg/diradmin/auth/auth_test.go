package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter(signer *Signer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", AuthMiddleware(signer), func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	r.GET("/admin", AuthMiddleware(signer), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestJWTToken(t *testing.T) {
	signer := NewSigner("secret", time.Hour, "diradmin")

	token, err := signer.GenerateToken("ALICE", true)
	require.NoError(t, err)

	claims, err := signer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ALICE", claims.UserID)
	assert.True(t, claims.Admin)
	assert.Equal(t, "diradmin", claims.Issuer)
}

func TestInvalidToken(t *testing.T) {
	signer := NewSigner("secret", time.Hour, "diradmin")

	_, err := signer.ValidateToken("invalid-token")
	assert.Equal(t, ErrInvalidToken, err)

	other := NewSigner("other-secret", time.Hour, "diradmin")
	token, err := other.GenerateToken("ALICE", false)
	require.NoError(t, err)
	_, err = signer.ValidateToken(token)
	assert.Equal(t, ErrInvalidToken, err)

	foreign := NewSigner("secret", time.Hour, "someone-else")
	token, err = foreign.GenerateToken("ALICE", false)
	require.NoError(t, err)
	_, err = signer.ValidateToken(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestExpiredToken(t *testing.T) {
	signer := NewSigner("secret", time.Hour, "diradmin")

	claims := &Claims{
		UserID: "ALICE",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			Issuer:    "diradmin",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = signer.ValidateToken(token)
	assert.Equal(t, ErrExpiredToken, err)
}

func TestAuthMiddleware(t *testing.T) {
	signer := NewSigner("secret", time.Hour, "diradmin")
	router := setupTestRouter(signer)

	user, err := signer.GenerateToken("alice", false)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + user, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+user)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.JSONEq(t, `{"user_id":"ALICE"}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	signer := NewSigner("secret", time.Hour, "diradmin")
	router := setupTestRouter(signer)

	user, err := signer.GenerateToken("alice", false)
	require.NoError(t, err)
	admin, err := signer.GenerateToken("root", true)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+user)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
