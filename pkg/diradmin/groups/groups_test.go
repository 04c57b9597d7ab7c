package groups

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/diradmin/pkg/diradmin/auth"
	"github.com/mikepea/diradmin/pkg/diradmin/database"
	"github.com/mikepea/diradmin/pkg/diradmin/directory"
	"github.com/mikepea/diradmin/pkg/diradmin/lookup"
	"github.com/mikepea/diradmin/pkg/diradmin/models"
)

var testSigner = auth.NewSigner("test-secret", time.Hour, "diradmin")

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Open(database.Config{DSN: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	return db
}

func setupTestRouter(svc *directory.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(svc, nil)

	groups := r.Group("/groups")
	groups.Use(auth.AuthMiddleware(testSigner), auth.RequireAdmin())
	handler.RegisterRoutes(groups)
	handler.RegisterMemberRoutes(groups)
	handler.RegisterPermissionRoutes(groups)

	return r
}

func setup(t *testing.T) (*directory.Service, *gin.Engine) {
	known := lookup.NewStatic(
		models.User{ID: "ALICE", FirstName: "Alice", LastName: "Liddell", Email: "alice@example.com"},
	)
	svc := directory.NewService(setupTestDB(t), known, nil)
	return svc, setupTestRouter(svc)
}

func getAuthHeader(admin bool) string {
	token, _ := testSigner.GenerateToken("tester", admin)
	return "Bearer " + token
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(true))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCreateGroup(t *testing.T) {
	svc, router := setup(t)

	body := GroupRequest{
		Name:        "Platform",
		Description: "Platform team",
		NodePath:    "/org/platform",
		Props:       []PropRequest{{Key: "tier", Value: "1"}},
	}
	resp := doRequest(router, "POST", "/groups", body)

	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var response struct {
		ID uint `json:"id"`
	}
	json.Unmarshal(resp.Body.Bytes(), &response)

	group, err := svc.FindGroupByID(context.Background(), response.ID)
	if err != nil || group == nil {
		t.Fatalf("Expected group %d to exist: %v", response.ID, err)
	}
	if group.Name != "Platform" {
		t.Errorf("Expected name 'Platform', got %s", group.Name)
	}
	if len(group.Props) != 1 || group.Props[0].Value != "1" {
		t.Errorf("Expected one prop tier=1, got %+v", group.Props)
	}
}

func TestCreateGroupValidation(t *testing.T) {
	_, router := setup(t)

	resp := doRequest(router, "POST", "/groups", GroupRequest{Name: "No path"})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateGroupRequiresAdmin(t *testing.T) {
	_, router := setup(t)

	req, _ := http.NewRequest("GET", "/groups", nil)
	req.Header.Set("Authorization", getAuthHeader(false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", resp.Code)
	}
}

func TestListAndSearchGroups(t *testing.T) {
	svc, router := setup(t)
	ctx := context.Background()
	svc.AddGroup(ctx, &models.Group{Name: "Platform", NodePath: "/org/platform"})
	svc.AddGroup(ctx, &models.Group{Name: "Finance", NodePath: "/org/finance"})

	resp := doRequest(router, "GET", "/groups", nil)
	var groups []models.Group
	json.Unmarshal(resp.Body.Bytes(), &groups)
	if len(groups) != 2 {
		t.Errorf("Expected 2 groups, got %d", len(groups))
	}

	resp = doRequest(router, "GET", "/groups?q=FIN", nil)
	groups = nil
	json.Unmarshal(resp.Body.Bytes(), &groups)
	if len(groups) != 1 || groups[0].Name != "Finance" {
		t.Errorf("Expected only Finance, got %+v", groups)
	}

	resp = doRequest(router, "GET", "/groups?q=50%25", nil)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for wildcard search, got %d", resp.Code)
	}
}

func TestGetGroup(t *testing.T) {
	svc, router := setup(t)
	id, _ := svc.AddGroup(context.Background(), &models.Group{Name: "Platform", NodePath: "/org/platform"})

	resp := doRequest(router, "GET", "/groups/"+itoa(id), nil)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.Code)
	}

	resp = doRequest(router, "GET", "/groups/9999", nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}

	resp = doRequest(router, "GET", "/groups/abc", nil)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}

func TestUpdateGroup(t *testing.T) {
	svc, router := setup(t)
	id, _ := svc.AddGroup(context.Background(), &models.Group{Name: "Old", NodePath: "/old", Domain: "dom"})

	resp := doRequest(router, "PUT", "/groups/"+itoa(id), GroupRequest{Name: "New", NodePath: "/new", Domain: "ignored"})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	group, _ := svc.FindGroupByID(context.Background(), id)
	if group.Name != "New" || group.NodePath != "/new" {
		t.Errorf("Expected updated group, got %+v", group)
	}
	if group.Domain != "dom" {
		t.Errorf("Expected domain to stay 'dom', got %s", group.Domain)
	}

	resp = doRequest(router, "PUT", "/groups/9999", GroupRequest{Name: "Ghost", NodePath: "/ghost"})
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
}

func TestDeleteGroup(t *testing.T) {
	svc, router := setup(t)
	ctx := context.Background()
	id, _ := svc.AddGroup(ctx, &models.Group{Name: "Team", NodePath: "/team"})
	if err := svc.AddGroupUser(ctx, id, "alice", models.MembershipMember); err != nil {
		t.Fatalf("AddGroupUser failed: %v", err)
	}

	resp := doRequest(router, "DELETE", "/groups/"+itoa(id), nil)
	if resp.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", resp.Code)
	}

	svc.DeleteGroupUser(ctx, id, "alice")
	resp = doRequest(router, "DELETE", "/groups/"+itoa(id), nil)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestMembers(t *testing.T) {
	svc, router := setup(t)
	id, _ := svc.AddGroup(context.Background(), &models.Group{Name: "Team", NodePath: "/team"})
	path := "/groups/" + itoa(id) + "/members"

	resp := doRequest(router, "POST", path, AddMemberRequest{UserID: "alice", Type: "ADMIN"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doRequest(router, "GET", path, nil)
	var members []directory.Member
	json.Unmarshal(resp.Body.Bytes(), &members)
	if len(members) != 1 {
		t.Fatalf("Expected 1 member, got %d", len(members))
	}
	if members[0].UserID != "ALICE" || members[0].Email != "alice@example.com" {
		t.Errorf("Unexpected member %+v", members[0])
	}

	resp = doRequest(router, "DELETE", path+"/alice", nil)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.Code)
	}

	members = nil
	resp = doRequest(router, "GET", path, nil)
	json.Unmarshal(resp.Body.Bytes(), &members)
	if len(members) != 0 {
		t.Errorf("Expected no members, got %d", len(members))
	}
}

func TestAddMemberErrors(t *testing.T) {
	svc, router := setup(t)
	id, _ := svc.AddGroup(context.Background(), &models.Group{Name: "Team", NodePath: "/team"})
	path := "/groups/" + itoa(id) + "/members"

	resp := doRequest(router, "POST", path, AddMemberRequest{UserID: "alice", Type: "OWNER"})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid type, got %d", resp.Code)
	}

	resp = doRequest(router, "POST", path, AddMemberRequest{UserID: "ghost", Type: "MEMBER"})
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown user, got %d", resp.Code)
	}

	resp = doRequest(router, "POST", "/groups/9999/members", AddMemberRequest{UserID: "alice", Type: "MEMBER"})
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown group, got %d", resp.Code)
	}
}

func TestPermissionRoutesNotImplemented(t *testing.T) {
	svc, router := setup(t)
	id, _ := svc.AddGroup(context.Background(), &models.Group{Name: "Team", NodePath: "/team"})
	base := "/groups/" + itoa(id)

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{"GET", base + "/permissions", nil},
		{"POST", base + "/permissions", PermissionRequest{Name: "read"}},
		{"DELETE", base + "/permissions/read", nil},
		{"GET", base + "/admins", nil},
		{"GET", "/groups?exclude_admin=true", nil},
	}
	for _, tt := range tests {
		resp := doRequest(router, tt.method, tt.path, tt.body)
		if resp.Code != http.StatusNotImplemented {
			t.Errorf("%s %s: expected status 501, got %d", tt.method, tt.path, resp.Code)
		}
	}
}

func TestPermissionRoutesUnknownGroup(t *testing.T) {
	_, router := setup(t)

	resp := doRequest(router, "GET", "/groups/9999/permissions", nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown group, got %d", resp.Code)
	}

	resp = doRequest(router, "DELETE", "/groups/9999/permissions/read", nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown group, got %d", resp.Code)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
