package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docrisk/internal/domain"
	"docrisk/internal/port"
)

// UploadFile posts a single file to the upload endpoint. The document ID
// defaults to the file's base name without extension; scope, workflow and
// document_id travel as query parameters, only the file and optional
// metadata live in the multipart body.
func (c *Client) UploadFile(ctx context.Context, path string, opts port.UploadOptions) (*domain.UploadResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return &domain.UploadResult{
			FilePath: path,
			Error:    fmt.Sprintf("file not found: %s", path),
		}, fmt.Errorf("%w: reading %s: %v", domain.ErrUploadFailed, path, err)
	}

	documentID := opts.DocumentID
	if documentID == "" {
		documentID = documentIDFromPath(path)
	}

	params := url.Values{}
	params.Set("organization_id", c.cfg.OrganizationID)
	params.Set("scope", string(domain.NormalizeScope(string(opts.Scope))))
	params.Set("document_id", documentID)
	if workflow := normalizeWorkflow(opts.Workflow); workflow != "" {
		params.Set("workflow", workflow)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := writeFilePart(form, "file", filepath.Base(path), content); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if len(opts.Metadata) > 0 {
		metadataJSON, err := json.Marshal(opts.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshaling metadata: %w", err)
		}
		if err := writeJSONPart(form, "metadata", "metadata.json", metadataJSON); err != nil {
			return nil, fmt.Errorf("building multipart body: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	start := time.Now()
	resp, err := c.postMultipart(ctx, c.cfg.UploadURL, params, form.FormDataContentType(), &body)
	if err != nil {
		return &domain.UploadResult{
			FilePath:   path,
			Error:      err.Error(),
			DurationMS: time.Since(start).Milliseconds(),
		}, fmt.Errorf("%w: %s: %v", domain.ErrUploadFailed, path, err)
	}
	defer resp.Body.Close()

	result := &domain.UploadResult{
		FilePath:   path,
		Status:     resp.StatusCode,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, readErrorBody(resp.Body))
		return result, nil
	}

	result.Success = true
	var uploaded struct {
		DocumentID string `json:"document_id"`
	}
	// A success answer without a parseable body still counts as uploaded.
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err == nil && uploaded.DocumentID != "" {
		result.DocumentID = uploaded.DocumentID
	}
	return result, nil
}

// UploadFolder posts every matching file of a directory in one multipart
// request, attaching a document_ids mapping part that assigns each file its
// derived document ID.
func (c *Client) UploadFolder(ctx context.Context, dir string, opts port.FolderUploadOptions) ([]domain.UploadResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: folder not found: %s", domain.ErrUploadFailed, dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", domain.ErrUploadFailed, dir)
	}

	paths, err := listFiles(dir, opts.Extensions)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files found in %s", domain.ErrUploadFailed, dir)
	}

	params := url.Values{}
	params.Set("organization_id", c.cfg.OrganizationID)
	if opts.Scope != "" {
		params.Set("scope", string(domain.NormalizeScope(string(opts.Scope))))
	}
	if workflow := normalizeWorkflow(opts.Workflow); workflow != "" {
		params.Set("workflow", workflow)
	}

	documentIDs := opts.DocumentIDs
	if documentIDs == nil {
		documentIDs = make(map[string]string, len(paths))
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		name := filepath.Base(path)
		if err := writeFilePart(form, "files", name, content); err != nil {
			return nil, fmt.Errorf("building multipart body: %w", err)
		}
		if _, ok := documentIDs[name]; !ok {
			documentIDs[name] = documentIDFromPath(path)
		}
	}

	mappingJSON, err := json.Marshal(map[string]any{"document_ids": documentIDs})
	if err != nil {
		return nil, fmt.Errorf("marshaling document id mapping: %w", err)
	}
	if err := writeJSONPart(form, "document_ids", "document_ids.json", mappingJSON); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	start := time.Now()
	resp, err := c.postMultipart(ctx, c.cfg.UploadURL, params, form.FormDataContentType(), &body)
	if err != nil {
		return nil, fmt.Errorf("%w: folder %s: %v", domain.ErrUploadFailed, dir, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Milliseconds()
	results := make([]domain.UploadResult, 0, len(paths))
	if resp.StatusCode >= 300 {
		errMsg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, readErrorBody(resp.Body))
		for _, path := range paths {
			results = append(results, domain.UploadResult{
				FilePath:   path,
				Status:     resp.StatusCode,
				Error:      errMsg,
				DurationMS: duration,
			})
		}
		return results, nil
	}

	for _, path := range paths {
		results = append(results, domain.UploadResult{
			FilePath:   path,
			Success:    true,
			DocumentID: documentIDs[filepath.Base(path)],
			Status:     resp.StatusCode,
			DurationMS: duration,
		})
	}
	return results, nil
}

func (c *Client) postMultipart(ctx context.Context, rawURL string, params url.Values, contentType string, body *bytes.Buffer) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Set(key, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	return c.http.Do(req)
}

// documentIDFromPath derives a document ID from a file path: base name
// without extension.
func documentIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// normalizeWorkflow ensures a non-empty workflow carries a leading slash.
func normalizeWorkflow(workflow string) string {
	if workflow == "" {
		return ""
	}
	if !strings.HasPrefix(workflow, "/") {
		return "/" + workflow
	}
	return workflow
}

// listFiles returns the regular files directly inside dir, optionally
// filtered by extension (leading dot optional, case-insensitive).
func listFiles(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if len(allowed) > 0 && !allowed[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

func writeFilePart(form *multipart.Writer, field, filename string, content []byte) error {
	part, err := form.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	_, err = part.Write(content)
	return err
}

// writeJSONPart attaches a JSON document as a file part; the upload endpoint
// expects metadata and mapping parts to arrive as files.
func writeJSONPart(form *multipart.Writer, field, filename string, content []byte) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", "application/json")
	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write(content)
	return err
}
