package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrisk/internal/config"
	"docrisk/internal/domain"
	"docrisk/internal/port"
)

func signedToken(t *testing.T, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "batch",
		"exp": time.Now().Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.APIConfig{
		AuthURL:        srv.URL + "/auth",
		ListURL:        srv.URL + "/documents",
		DetailsURL:     srv.URL + "/documents/:document_id",
		UploadURL:      srv.URL + "/upload",
		Email:          "batch@example.com",
		Password:       "secret",
		OrganizationID: "org-1",
		Timeout:        5 * time.Second,
	}
	return New(cfg), srv
}

func authHandler(t *testing.T, token string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "org-1", r.URL.Query().Get("organization_id"))

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "batch@example.com", creds["email"])
		assert.Equal(t, "secret", creds["password"])

		json.NewEncoder(w).Encode(map[string]string{"access_token": token})
	}
}

func TestAuthenticate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(t, "tok-123"))
	client, _ := testClient(t, mux)

	token, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	})
	client, _ := testClient(t, mux)

	_, err := client.Authenticate(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestTokenSource_CachesUntilExpiry(t *testing.T) {
	var calls atomic.Int32
	ts := NewTokenSource(func(ctx context.Context) (string, error) {
		calls.Add(1)
		return signedToken(t, time.Hour), nil
	})

	first, err := ts.Token(context.Background())
	require.NoError(t, err)
	second, err := ts.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenSource_RefreshesExpiredToken(t *testing.T) {
	var calls atomic.Int32
	ts := NewTokenSource(func(ctx context.Context) (string, error) {
		calls.Add(1)
		// Already inside the refresh window, so every Token call refetches.
		return signedToken(t, 10*time.Second), nil
	})

	_, err := ts.Token(context.Background())
	require.NoError(t, err)
	_, err = ts.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenSource_ForcedRefresh(t *testing.T) {
	var calls atomic.Int32
	ts := NewTokenSource(func(ctx context.Context) (string, error) {
		calls.Add(1)
		return signedToken(t, time.Hour), nil
	})

	_, err := ts.Token(context.Background())
	require.NoError(t, err)
	_, err = ts.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenSource_OpaqueTokenUsesFallbackTTL(t *testing.T) {
	var calls atomic.Int32
	ts := NewTokenSource(func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "not-a-jwt", nil
	})

	token, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "not-a-jwt", token)

	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenSource_FetchError(t *testing.T) {
	wantErr := errors.New("boom")
	ts := NewTokenSource(func(ctx context.Context) (string, error) {
		return "", wantErr
	})

	_, err := ts.Token(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestListDocuments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(t, signedToken(t, time.Hour)))
	mux.HandleFunc("GET /documents", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Production", r.URL.Query().Get("scope"))
		assert.Equal(t, "org-1", r.URL.Query().Get("organization_id"))
		assert.Equal(t, "contract.*", r.URL.Query().Get("document_class_regex"))
		assert.Contains(t, r.Header.Get("Authorization"), "Bearer ")
		json.NewEncoder(w).Encode([]string{"doc-1", "doc-2"})
	})
	client, _ := testClient(t, mux)

	// Lowercase scope is normalized before it hits the wire.
	ids, err := client.ListDocuments(context.Background(), "production", "contract.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1", "doc-2"}, ids)
}

func TestListDocuments_Unauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(t, signedToken(t, time.Hour)))
	mux.HandleFunc("GET /documents", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	client, _ := testClient(t, mux)

	_, err := client.ListDocuments(context.Background(), domain.ScopeProduction, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGetDocument(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(t, signedToken(t, time.Hour)))
	mux.HandleFunc("GET /documents/doc-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Production", r.URL.Query().Get("scope"))
		json.NewEncoder(w).Encode(map[string]any{
			"upload":   map[string]any{"document_id_by_organization": "file-1.pdf"},
			"document": map[string]any{"document_id": "doc-1", "document_class": "/check"},
		})
	})
	client, _ := testClient(t, mux)

	payload, err := client.GetDocument(context.Background(), "doc-1", domain.ScopeProduction)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", payload.Document.DocumentID)
	assert.Equal(t, "file-1.pdf", payload.Upload.DocumentIDByOrganization)
}

func TestGetDocument_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(t, signedToken(t, time.Hour)))
	mux.HandleFunc("GET /documents/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	client, _ := testClient(t, mux)

	_, err := client.GetDocument(context.Background(), "missing", domain.ScopeProduction)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteExport(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(t, signedToken(t, time.Hour)))
	mux.HandleFunc("DELETE /documents/doc-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Production", r.URL.Query().Get("scope"))
		w.WriteHeader(http.StatusNoContent)
	})
	client, _ := testClient(t, mux)

	result, err := client.DeleteExport(context.Background(), "doc-1", domain.ScopeProduction)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, http.StatusNoContent, result.Status)
}

func TestDeleteExport_RetriesAfterTokenExpiry(t *testing.T) {
	var authCalls, deleteCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		authCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"access_token": signedToken(t, time.Hour)})
	})
	mux.HandleFunc("DELETE /documents/doc-1", func(w http.ResponseWriter, r *http.Request) {
		if deleteCalls.Add(1) == 1 {
			http.Error(w, "Not authenticated", http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	client, _ := testClient(t, mux)

	result, err := client.DeleteExport(context.Background(), "doc-1", domain.ScopeProduction)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(2), deleteCalls.Load())
	assert.Equal(t, int32(2), authCalls.Load())
}

func TestDeleteExport_Failure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(t, signedToken(t, time.Hour)))
	mux.HandleFunc("DELETE /documents/doc-1", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	})
	client, _ := testClient(t, mux)

	result, err := client.DeleteExport(context.Background(), "doc-1", domain.ScopeProduction)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, http.StatusInternalServerError, result.Status)
	assert.Contains(t, result.Error, "unexpected status 500")
}

func TestUploadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contract-9.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(t, signedToken(t, time.Hour)))
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "org-1", r.URL.Query().Get("organization_id"))
		assert.Equal(t, "Production", r.URL.Query().Get("scope"))
		assert.Equal(t, "/imd_check", r.URL.Query().Get("workflow"))
		assert.Equal(t, "contract-9", r.URL.Query().Get("document_id"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "contract-9.pdf", header.Filename)

		json.NewEncoder(w).Encode(map[string]string{"document_id": "srv-doc-9"})
	})
	client, _ := testClient(t, mux)

	result, err := client.UploadFile(context.Background(), path, port.UploadOptions{
		Scope: domain.ScopeProduction,
		// Missing leading slash is added before the request goes out.
		Workflow: "imd_check",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "srv-doc-9", result.DocumentID)
	assert.Equal(t, http.StatusOK, result.Status)
}

func TestUploadFile_Missing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(t, signedToken(t, time.Hour)))
	client, _ := testClient(t, mux)

	result, err := client.UploadFile(context.Background(), "/nonexistent/file.pdf", port.UploadOptions{})
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	require.NotNil(t, result)
	assert.False(t, result.Success)
}

func TestUploadFile_ServerRejection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(t, signedToken(t, time.Hour)))
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported file type", http.StatusUnprocessableEntity)
	})
	client, _ := testClient(t, mux)

	result, err := client.UploadFile(context.Background(), path, port.UploadOptions{Scope: domain.ScopeTesting})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, http.StatusUnprocessableEntity, result.Status)
	assert.Contains(t, result.Error, "unsupported file type")
}

func TestUploadFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(t, signedToken(t, time.Hour)))
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Len(t, r.MultipartForm.File["files"], 2)

		mapping, _, err := r.FormFile("document_ids")
		require.NoError(t, err)
		defer mapping.Close()
		var decoded struct {
			DocumentIDs map[string]string `json:"document_ids"`
		}
		require.NoError(t, json.NewDecoder(mapping).Decode(&decoded))
		assert.Equal(t, map[string]string{"a.pdf": "a", "b.pdf": "b"}, decoded.DocumentIDs)

		w.WriteHeader(http.StatusCreated)
	})
	client, _ := testClient(t, mux)

	results, err := client.UploadFolder(context.Background(), dir, port.FolderUploadOptions{
		Scope:      domain.ScopeProduction,
		Extensions: []string{"pdf"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, result := range results {
		assert.True(t, result.Success)
		assert.Equal(t, http.StatusCreated, result.Status)
	}
}

func TestUploadFolder_EmptyAfterFilter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", authHandler(t, signedToken(t, time.Hour)))
	client, _ := testClient(t, mux)

	_, err := client.UploadFolder(context.Background(), dir, port.FolderUploadOptions{
		Extensions: []string{".pdf"},
	})
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
}
