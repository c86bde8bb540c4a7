package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-purchase-approvals/internal/agent"
	"github.com/pesio-ai/be-purchase-approvals/internal/repository"
	"github.com/pesio-ai/be-purchase-approvals/internal/service"
)

// newTestServer wires the full stack against an in-memory database.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := repository.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	approvalRepo := repository.NewApprovalRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	require.NoError(t, userRepo.Seed(t.Context()))

	approvals := service.NewApprovalService(approvalRepo, auditRepo, userRepo, zerolog.Nop())
	composer := agent.NewComposer("", "gpt-4o-mini", zerolog.Nop())
	agentSvc := service.NewAgentService(approvalRepo, auditRepo, composer, nil, zerolog.Nop())

	srv := httptest.NewServer(NewHTTPHandler(approvals, agentSvc, zerolog.Nop()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createApproval(t *testing.T, srv *httptest.Server, requester string) repository.Approval {
	t.Helper()
	resp := postJSON(t, srv.URL+"/approvals?requester="+requester, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[repository.Approval](t, resp)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestLoginEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/login", map[string]string{"username": "chair", "password": "pass123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	identity := decode[service.Identity](t, resp)
	assert.Equal(t, "chair", identity.Username)
	assert.Equal(t, repository.RoleChair, identity.Role)

	resp = postJSON(t, srv.URL+"/login", map[string]string{"username": "chair", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	errBody := decode[map[string]string](t, resp)
	assert.Equal(t, "UNAUTHORIZED", errBody["code"])
}

func TestCreateAndListApprovals(t *testing.T) {
	srv := newTestServer(t)

	a := createApproval(t, srv, "requester1")
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, repository.StatusPending, a.Status)
	createApproval(t, srv, "requester2")

	resp, err := http.Get(srv.URL + "/approvals")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[[]repository.Approval](t, resp)
	assert.Len(t, all, 2)

	resp, err = http.Get(srv.URL + "/approvals?requester=requester1")
	require.NoError(t, err)
	mine := decode[[]repository.Approval](t, resp)
	require.Len(t, mine, 1)
	assert.Equal(t, "requester1", mine[0].Requester)
}

func TestApproveEndpoint(t *testing.T) {
	srv := newTestServer(t)
	a := createApproval(t, srv, "requester1")

	resp := postJSON(t, srv.URL+"/approvals/"+a.ID+"/approve", map[string]string{"actor": "reviewer"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	approved := decode[repository.Approval](t, resp)
	assert.Equal(t, repository.StatusApproved, approved.Status)

	// Approving twice is a conflict.
	resp = postJSON(t, srv.URL+"/approvals/"+a.ID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/approvals/missing/approve", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAgentRunEndpointAndAuditTrail(t *testing.T) {
	srv := newTestServer(t)
	createApproval(t, srv, "requester1")

	// Fresh approvals are inside the comfort window; no actions expected.
	resp := postJSON(t, srv.URL+"/agent/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[map[string][]service.AgentAction](t, resp)
	assert.Empty(t, result["actions"])

	resp, err := http.Get(srv.URL + "/audit")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decode[[]repository.AuditEntry](t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, "created", entries[0].Action)
	assert.Equal(t, "requester1", entries[0].Actor)
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/login", "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
