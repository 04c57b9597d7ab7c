package exclusive

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikepea/diradmin/pkg/diradmin/auth"
	"github.com/mikepea/diradmin/pkg/diradmin/database"
	"github.com/mikepea/diradmin/pkg/diradmin/directory"
	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

func setupTestService(t *testing.T) *directory.Service {
	db, err := database.Open(database.Config{DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() { database.Close(db) })
	return directory.NewService(db, nil, nil)
}

// setupTestRouter authenticates every request as the user in the X-User header
func setupTestRouter(svc *directory.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, models.NormalizeUserID(c.GetHeader("X-User")))
		c.Set(auth.ContextKeyAdmin, true)
	})
	NewHandler(svc, nil).RegisterRoutes(api.Group("/exclusive"))

	guarded := api.Group("", RequireWriteAccess(svc, nil))
	guarded.GET("/things", func(c *gin.Context) { c.Status(http.StatusOK) })
	guarded.POST("/things", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func perform(r *gin.Engine, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLockLifecycle(t *testing.T) {
	svc := setupTestService(t)
	r := setupTestRouter(svc)

	w := perform(r, http.MethodGet, "/api/exclusive", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"locked":false}`, w.Body.String())

	w = perform(r, http.MethodPost, "/api/exclusive", "alice", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = perform(r, http.MethodPost, "/api/exclusive", "bob", LockRequest{UserID: "bob"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = perform(r, http.MethodGet, "/api/exclusive", "bob", nil)
	var body struct {
		Locked bool                    `json:"locked"`
		Holder directory.ExclusiveUser `json:"holder"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Locked)
	assert.Equal(t, "ALICE", body.Holder.UserID)

	w = perform(r, http.MethodDelete, "/api/exclusive", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code)

	locked, err := svc.IsExclusive(context.Background())
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestLockForNamedUser(t *testing.T) {
	svc := setupTestService(t)
	r := setupTestRouter(svc)

	w := perform(r, http.MethodPost, "/api/exclusive", "root", LockRequest{UserID: "carol"})
	require.Equal(t, http.StatusCreated, w.Code)

	holder, err := svc.FindExclusiveUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, holder)
	assert.Equal(t, "CAROL", holder.UserID)
}

func TestRequireWriteAccess(t *testing.T) {
	svc := setupTestService(t)
	r := setupTestRouter(svc)

	// unlocked: everyone may write
	assert.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/api/things", "bob", nil).Code)

	require.NoError(t, svc.SetExclusiveUser(context.Background(), "alice"))

	assert.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/api/things", "alice", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/api/things", "bob", nil).Code)

	w := perform(r, http.MethodPost, "/api/things", "bob", nil)
	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Contains(t, w.Body.String(), "ALICE")
}
