// Package client implements the REST client for the approvals service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pesio-ai/be-purchase-approvals/internal/errors"
)

// ApprovalsClient talks to the approvals service over HTTP.
type ApprovalsClient struct {
	baseURL string
	http    *http.Client
}

var _ API = (*ApprovalsClient)(nil)

// NewApprovalsClient creates a client for the service at baseURL.
func NewApprovalsClient(baseURL string) *ApprovalsClient {
	return &ApprovalsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Login authenticates and returns the session identity.
func (c *ApprovalsClient) Login(ctx context.Context, username, password string) (*Identity, error) {
	body := map[string]string{"username": username, "password": password}
	identity := &Identity{}
	if err := c.do(ctx, http.MethodPost, "/login", nil, body, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// ListApprovals fetches the approval list, optionally scoped to a requester.
func (c *ApprovalsClient) ListApprovals(ctx context.Context, requester string) ([]Approval, error) {
	var query url.Values
	if requester != "" {
		query = url.Values{"requester": {requester}}
	}
	var approvals []Approval
	if err := c.do(ctx, http.MethodGet, "/approvals", query, nil, &approvals); err != nil {
		return nil, err
	}
	return approvals, nil
}

// CreateApproval creates a new PENDING approval for the requester.
func (c *ApprovalsClient) CreateApproval(ctx context.Context, requester string) (*Approval, error) {
	var query url.Values
	if requester != "" {
		query = url.Values{"requester": {requester}}
	}
	approval := &Approval{}
	if err := c.do(ctx, http.MethodPost, "/approvals", query, nil, approval); err != nil {
		return nil, err
	}
	return approval, nil
}

// Approve marks an approval APPROVED on behalf of actor.
func (c *ApprovalsClient) Approve(ctx context.Context, id, actor string) (*Approval, error) {
	var body any
	if actor != "" {
		body = map[string]string{"actor": actor}
	}
	approval := &Approval{}
	path := fmt.Sprintf("/approvals/%s/approve", url.PathEscape(id))
	if err := c.do(ctx, http.MethodPost, path, nil, body, approval); err != nil {
		return nil, err
	}
	return approval, nil
}

// RunAgent requests one agent evaluation pass and returns the actions taken.
func (c *ApprovalsClient) RunAgent(ctx context.Context) ([]AgentAction, error) {
	var resp struct {
		Actions []AgentAction `json:"actions"`
	}
	if err := c.do(ctx, http.MethodPost, "/agent/run", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Actions, nil
}

// ListAudit fetches the audit trail in arrival order, newest first.
func (c *ApprovalsClient) ListAudit(ctx context.Context) ([]AuditEntry, error) {
	var entries []AuditEntry
	if err := c.do(ctx, http.MethodGet, "/audit", nil, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// do issues one request and decodes the JSON response into out (when non-nil).
// Non-2xx responses are mapped back onto the coded error taxonomy.
func (c *ApprovalsClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeUnavailable, "approvals service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to decode response")
		}
	}
	return nil
}

func (c *ApprovalsClient) errorFromResponse(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(data, &payload)

	message := payload.Error
	if message == "" {
		message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}

	return errors.New(codeForStatus(resp.StatusCode), message)
}

func codeForStatus(status int) errors.ErrorCode {
	switch status {
	case http.StatusUnauthorized:
		return errors.ErrCodeUnauthorized
	case http.StatusForbidden:
		return errors.ErrCodeForbidden
	case http.StatusNotFound:
		return errors.ErrCodeNotFound
	case http.StatusConflict:
		return errors.ErrCodeConflict
	case http.StatusBadRequest:
		return errors.ErrCodeInvalidInput
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return errors.ErrCodeUnavailable
	default:
		return errors.ErrCodeInternal
	}
}
