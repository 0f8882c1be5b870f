package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	catalogsvc "github.com/harlowe/wholesail/internal/services/catalog"
	catalogsqlite "github.com/harlowe/wholesail/internal/services/catalog/storage/sqlite"
	memberssvc "github.com/harlowe/wholesail/internal/services/members"
	"github.com/harlowe/wholesail/internal/services/members/authz"
	membersdomain "github.com/harlowe/wholesail/internal/services/members/domain"
	memberssqlite "github.com/harlowe/wholesail/internal/services/members/storage/sqlite"
	"github.com/harlowe/wholesail/internal/services/session"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
}

type testEnv struct {
	handler  http.Handler
	sessions *session.Manager
	members  *memberssqlite.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	memberStore, err := memberssqlite.Open(filepath.Join(dir, "members.db"))
	if err != nil {
		t.Fatalf("open members store: %v", err)
	}
	t.Cleanup(func() { _ = memberStore.Close() })

	catalogStore, err := catalogsqlite.Open(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("open catalog store: %v", err)
	}
	t.Cleanup(func() { _ = catalogStore.Close() })

	sessionConfig, err := session.NewConfigForTest()
	if err != nil {
		t.Fatalf("session config: %v", err)
	}
	sessions := session.NewManagerForTest(sessionConfig, fixedClock)

	gate := authz.NewGate(memberStore)
	members := memberssvc.NewService(memberStore, gate, nil, fixedClock)
	catalog := catalogsvc.NewService(catalogStore, memberStore, fixedClock)

	return &testEnv{
		handler:  NewHandler(members, catalog, gate).Routes(sessions),
		sessions: sessions,
		members:  memberStore,
	}
}

func (e *testEnv) seedMember(t *testing.T, id string, role membersdomain.Role, status membersdomain.Status) {
	t.Helper()
	member := membersdomain.Member{
		ID:        id,
		Username:  "user-" + id,
		Email:     id + "@example.com",
		Role:      role,
		Tier:      membersdomain.TierWholesale,
		Status:    status,
		CreatedAt: fixedClock().Add(-time.Hour),
		UpdatedAt: fixedClock().Add(-time.Hour),
	}
	if status == membersdomain.StatusApproved {
		approvedAt := fixedClock().Add(-time.Hour)
		member.ApprovedAt = &approvedAt
	}
	if err := e.members.PutMember(context.Background(), member); err != nil {
		t.Fatalf("seed member %s: %v", id, err)
	}
}

func (e *testEnv) request(t *testing.T, method, target, body, actorID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if actorID != "" {
		token, err := e.sessions.Issue(actorID, actorID+"@example.com", string(membersdomain.RoleAdmin))
		if err != nil {
			t.Fatalf("issue session: %v", err)
		}
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Count *int            `json:"count"`
	Error *struct {
		Code string `json:"code"`
		Kind string `json:"kind"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestRoutesRequireSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet, "/api/members/pending", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestDecisionsRequireAdminRole(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedMember(t, "member-1", membersdomain.RoleStandard, membersdomain.StatusApproved)
	env.seedMember(t, "member-2", membersdomain.RoleStandard, membersdomain.StatusPending)

	rec := env.request(t, http.MethodPost, "/api/members/member-2/approve", "", "member-1")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	// The target must be untouched.
	member, err := env.members.GetMember(context.Background(), "member-2")
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if member.Status != membersdomain.StatusPending {
		t.Fatalf("status = %q, non-admin call must not mutate", member.Status)
	}
}

func TestApproveFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedMember(t, "admin-1", membersdomain.RoleAdmin, membersdomain.StatusApproved)
	env.seedMember(t, "member-1", membersdomain.RoleStandard, membersdomain.StatusPending)

	rec := env.request(t, http.MethodPost, "/api/members/member-1/approve", "", "admin-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	response := decodeEnvelope(t, rec)
	var view memberView
	if err := json.Unmarshal(response.Data, &view); err != nil {
		t.Fatalf("decode member: %v", err)
	}
	if view.Status != string(membersdomain.StatusApproved) {
		t.Fatalf("status = %q, want APPROVED", view.Status)
	}
	if view.ApprovedAt == nil {
		t.Fatalf("approved member must carry a timestamp")
	}
}

func TestRejectFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedMember(t, "admin-1", membersdomain.RoleAdmin, membersdomain.StatusApproved)
	env.seedMember(t, "member-1", membersdomain.RoleStandard, membersdomain.StatusPending)

	rec := env.request(t, http.MethodPost, "/api/members/member-1/reject", `{"reason":"incomplete registration"}`, "admin-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	response := decodeEnvelope(t, rec)
	var view memberView
	if err := json.Unmarshal(response.Data, &view); err != nil {
		t.Fatalf("decode member: %v", err)
	}
	if view.Status != string(membersdomain.StatusRejected) || view.RejectedReason != "incomplete registration" {
		t.Fatalf("view = %+v, want rejected with reason", view)
	}
}

func TestRejectWithoutReason(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedMember(t, "admin-1", membersdomain.RoleAdmin, membersdomain.StatusApproved)
	env.seedMember(t, "member-1", membersdomain.RoleStandard, membersdomain.StatusPending)

	rec := env.request(t, http.MethodPost, "/api/members/member-1/reject", `{"reason":"  "}`, "admin-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	response := decodeEnvelope(t, rec)
	if response.Error == nil || response.Error.Kind != "VALIDATION" {
		t.Fatalf("error = %+v, want validation error", response.Error)
	}
}

func TestPendingList(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedMember(t, "admin-1", membersdomain.RoleAdmin, membersdomain.StatusApproved)
	env.seedMember(t, "member-1", membersdomain.RoleStandard, membersdomain.StatusPending)
	env.seedMember(t, "member-2", membersdomain.RoleStandard, membersdomain.StatusPending)

	rec := env.request(t, http.MethodGet, "/api/members/pending", "", "admin-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	response := decodeEnvelope(t, rec)
	if response.Count == nil || *response.Count != 2 {
		t.Fatalf("count = %v, want 2", response.Count)
	}
}

func TestResetFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedMember(t, "admin-1", membersdomain.RoleAdmin, membersdomain.StatusApproved)
	env.seedMember(t, "member-1", membersdomain.RoleStandard, membersdomain.StatusPending)

	if rec := env.request(t, http.MethodPost, "/api/members/member-1/approve", "", "admin-1"); rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d", rec.Code)
	}
	rec := env.request(t, http.MethodPost, "/api/members/member-1/reset", "", "admin-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d: %s", rec.Code, rec.Body.String())
	}
	response := decodeEnvelope(t, rec)
	var view memberView
	if err := json.Unmarshal(response.Data, &view); err != nil {
		t.Fatalf("decode member: %v", err)
	}
	if view.Status != string(membersdomain.StatusPending) || view.ApprovedAt != nil {
		t.Fatalf("view = %+v, want clean pending", view)
	}
}

func TestCreateAndListProducts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedMember(t, "admin-1", membersdomain.RoleAdmin, membersdomain.StatusApproved)

	body := `{"name":"Bulk Olive Oil 5L","description":"Cold pressed.","wholesale_price":4250,"retail_price":6900}`
	rec := env.request(t, http.MethodPost, "/api/products", body, "admin-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	response := decodeEnvelope(t, rec)
	var created productView
	if err := json.Unmarshal(response.Data, &created); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if created.ID == "" || created.WholesalePrice != 4250 || created.RetailPrice != 6900 {
		t.Fatalf("created = %+v, want both stored prices", created)
	}

	listRec := env.request(t, http.MethodGet, "/api/products", "", "admin-1")
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d: %s", listRec.Code, listRec.Body.String())
	}
	listResponse := decodeEnvelope(t, listRec)
	if listResponse.Count == nil || *listResponse.Count != 1 {
		t.Fatalf("count = %v, want 1", listResponse.Count)
	}
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedMember(t, "member-1", membersdomain.RoleStandard, membersdomain.StatusApproved)

	body := `{"name":"Bulk Olive Oil 5L","wholesale_price":1,"retail_price":2}`
	rec := env.request(t, http.MethodPost, "/api/products", body, "member-1")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestGetMemberNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedMember(t, "admin-1", membersdomain.RoleAdmin, membersdomain.StatusApproved)

	rec := env.request(t, http.MethodGet, "/api/members/ghost", "", "admin-1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
