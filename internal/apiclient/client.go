// Package apiclient implements the HTTP client for the upstream
// document-management REST API: authentication, document listing, per-document
// detail retrieval, export deletion and file uploads.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docrisk/internal/config"
	"docrisk/internal/domain"
	"docrisk/internal/port"
)

// maxErrorBody caps how much of an error response body is kept for
// diagnostics.
const maxErrorBody = 500

// Client talks to the document-management API. Safe for concurrent use.
type Client struct {
	cfg    config.APIConfig
	http   *http.Client
	tokens *TokenSource
}

var _ port.DocumentAPI = (*Client)(nil)

// New creates a Client from the API section of the configuration.
func New(cfg config.APIConfig) *Client {
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	c.tokens = NewTokenSource(c.Authenticate)
	return c
}

// Authenticate exchanges the configured credentials for an access token.
// Most callers should go through the cached TokenSource instead.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    c.cfg.Email,
		"password": c.cfg.Password,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling credentials: %w", err)
	}

	authURL := c.cfg.AuthURL
	if c.cfg.OrganizationID != "" {
		u, err := url.Parse(authURL)
		if err != nil {
			return "", fmt.Errorf("parsing auth url: %w", err)
		}
		q := u.Query()
		q.Set("organization_id", c.cfg.OrganizationID)
		u.RawQuery = q.Encode()
		authURL = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("authenticating: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: auth returned %d: %s",
			domain.ErrInvalidCredentials, resp.StatusCode, readErrorBody(resp.Body))
	}

	var tokenData struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenData); err != nil {
		return "", fmt.Errorf("decoding auth response: %w", err)
	}
	if tokenData.AccessToken == "" {
		return "", fmt.Errorf("%w: auth response carried no access_token", domain.ErrInvalidCredentials)
	}
	return tokenData.AccessToken, nil
}

// ListDocuments fetches the document IDs visible in the given scope,
// optionally filtered by a document class regex.
func (c *Client) ListDocuments(ctx context.Context, scope domain.Scope, classRegex string) ([]string, error) {
	params := url.Values{}
	params.Set("organization_id", c.cfg.OrganizationID)
	params.Set("scope", string(domain.NormalizeScope(string(scope))))
	if classRegex != "" {
		params.Set("document_class_regex", classRegex)
	}

	req, err := c.newAuthorizedRequest(ctx, http.MethodGet, c.cfg.ListURL, params)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list documents", resp)
	}

	var documentIDs []string
	if err := json.NewDecoder(resp.Body).Decode(&documentIDs); err != nil {
		return nil, fmt.Errorf("decoding document list: %w", err)
	}
	return documentIDs, nil
}

// GetDocument fetches the detail payload for one document. The configured
// details URL carries a ":document_id" placeholder.
func (c *Client) GetDocument(ctx context.Context, documentID string, scope domain.Scope) (*domain.DocumentPayload, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: empty document id", domain.ErrDocumentFetch)
	}

	params := url.Values{}
	params.Set("organization_id", c.cfg.OrganizationID)
	params.Set("scope", string(domain.NormalizeScope(string(scope))))

	detailsURL := strings.Replace(c.cfg.DetailsURL, ":document_id", documentID, 1)
	req, err := c.newAuthorizedRequest(ctx, http.MethodGet, detailsURL, params)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching document %s: %w", documentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("get document "+documentID, resp)
	}

	var payload domain.DocumentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", documentID, err)
	}
	return &payload, nil
}

// DeleteExport removes the export information for one document. A 401/403
// answer triggers a single token refresh and retry before giving up.
func (c *Client) DeleteExport(ctx context.Context, documentID string, scope domain.Scope) (*domain.DeleteResult, error) {
	result, err := c.deleteOnce(ctx, documentID, scope)
	if err != nil {
		return result, err
	}
	if result.Status == http.StatusUnauthorized || result.Status == http.StatusForbidden {
		log.Printf("apiclient.DeleteExport: auth retry for %s after status %d", documentID, result.Status)
		if _, err := c.tokens.Refresh(ctx); err != nil {
			return result, fmt.Errorf("refreshing token: %w", err)
		}
		return c.deleteOnce(ctx, documentID, scope)
	}
	return result, nil
}

func (c *Client) deleteOnce(ctx context.Context, documentID string, scope domain.Scope) (*domain.DeleteResult, error) {
	params := url.Values{}
	params.Set("scope", string(domain.NormalizeScope(string(scope))))

	deleteURL := strings.Replace(c.cfg.DetailsURL, ":document_id", documentID, 1)
	req, err := c.newAuthorizedRequest(ctx, http.MethodDelete, deleteURL, params)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.DeleteResult{
			DocumentID: documentID,
			Error:      err.Error(),
			DurationMS: time.Since(start).Milliseconds(),
		}, fmt.Errorf("%w: %s: %v", domain.ErrDeleteFailed, documentID, err)
	}
	defer resp.Body.Close()

	result := &domain.DeleteResult{
		DocumentID: documentID,
		Status:     resp.StatusCode,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if resp.StatusCode < 300 {
		result.Success = true
		return result, nil
	}
	result.Error = fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	return result, nil
}

// newAuthorizedRequest builds a request carrying the cached bearer token.
func (c *Client) newAuthorizedRequest(ctx context.Context, method, rawURL string, params url.Values) (*http.Request, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Set(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func statusError(op string, resp *http.Response) error {
	body := readErrorBody(resp.Body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s returned %d: %s", domain.ErrUnauthorized, op, resp.StatusCode, body)
	default:
		return fmt.Errorf("%w: %s returned %d: %s", domain.ErrDocumentFetch, op, resp.StatusCode, body)
	}
}

func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(body) == 0 {
		return "<no body>"
	}
	return string(body)
}
