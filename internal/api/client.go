// Package api implements the HTTP client for an Outline-compatible
// document-wiki service. Every call is a POST to a named endpoint with a
// JSON (or multipart) body and bearer-token auth; list endpoints paginate
// with limit/offset and signal end-of-data with a short page.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// MaxPageSize is the largest limit the API accepts for list endpoints.
	MaxPageSize = 100

	readTimeout   = 60 * time.Second
	uploadTimeout = 120 * time.Second
)

// HTTPError is a non-2xx response from the API. A 403 specifically means
// the token lacks the required role for the operation.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("[HTTP %d] %s", e.StatusCode, e.Body)
}

// Client issues authenticated requests against one API base URL.
//
// The zero timeout policy is per call: 60s for JSON requests, 120s for
// multipart uploads. There is no retry anywhere; transport and HTTP
// errors propagate to the caller, which decides fatal-vs-skip.
type Client struct {
	base   string
	token  string
	httpc  *http.Client
	logger *log.Logger
}

// New creates a client for the given API base URL (already ending in /api)
// and bearer token. A nil logger discards debug output.
func New(base, token string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		httpc:  &http.Client{},
		logger: logger,
	}
}

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string {
	return c.base
}

// endpoint resolves a request path against the base URL. Absolute URLs
// pass through, "/api/..." paths are resolved against the host root, and
// anything else is joined onto the base.
func (c *Client) endpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "/api/"):
		root := strings.TrimRight(strings.SplitN(c.base, "/api", 2)[0], "/")
		return root + path
	case strings.HasPrefix(path, "/"):
		return c.base + path
	default:
		return c.base + "/" + path
	}
}

// PostJSON issues one POST round trip with a JSON body and returns the
// decoded response: a map or slice for JSON responses, or the raw bytes
// when the server answers with a non-JSON content type.
func (c *Client) PostJSON(ctx context.Context, path string, payload map[string]any) (any, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.logger.Printf("POST %s", path)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

// FilePart is the file field of a multipart upload.
type FilePart struct {
	FieldName   string
	FileName    string
	ContentType string
	Content     []byte
}

// PostMultipart uploads a file plus plain form fields, used by
// /documents.import. The longer upload timeout applies.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, file FilePart) (any, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to encode form field %s: %w", name, err)
		}
	}
	fw, err := mw.CreateFormFile(file.FieldName, file.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := fw.Write(file.Content); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.logger.Printf("POST %s (multipart, %d bytes)", path, buf.Len())
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

func decodeResponse(resp *http.Response) (any, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	ctype := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(ctype, "application/json") {
		var decoded any
		if err := json.Unmarshal(data, &decoded); err == nil {
			return decoded, nil
		}
	}
	return data, nil
}

// AsObject narrows a decoded response to a JSON object.
func AsObject(v any) (map[string]any, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok
}

// PrintJSON pretty-prints a decoded response, matching the tool's --json
// output convention.
func PrintJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode JSON output: %v\n", err)
	}
}
