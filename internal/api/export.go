package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	redirectPollAttempts = 6
	redirectPollInterval = time.Second
)

// ExportDocument returns a document's exported body as UTF-8 text.
//
// /documents.export answers in several shapes depending on server version
// and document size: the content directly under "data" (possibly encoded
// as a Node.js Buffer object), raw bytes, or a fileOperation handle that
// must be polled via /fileOperations.redirect until the server hands back
// a presigned Location to download from.
func (c *Client) ExportDocument(ctx context.Context, id string) (string, error) {
	resp, err := c.PostJSON(ctx, "/documents.export", map[string]any{"id": id})
	if err != nil {
		return "", err
	}

	if raw, ok := resp.([]byte); ok {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return DecodeText(raw), nil
		}
		resp = decoded
	}

	obj, ok := AsObject(resp)
	if !ok {
		return DecodeText(resp), nil
	}

	content, hasContent := obj["data"]
	if hasContent && content != nil {
		if _, isObj := content.(map[string]any); !isObj {
			return DecodeText(content), nil
		}
	}

	fo, _ := AsObject(obj["fileOperation"])
	if fo == nil {
		if inner, ok := AsObject(content); ok {
			fo, _ = AsObject(inner["fileOperation"])
		}
	}
	if opID, _ := fo["id"].(string); opID != "" {
		return c.downloadFileOperation(ctx, opID)
	}

	return DecodeText(resp), nil
}

// downloadFileOperation polls /fileOperations.redirect until a Location
// header appears, then fetches the presigned URL with a plain GET. The
// poll client must not follow redirects itself: the Location points at
// object storage and needs a request without the Authorization header.
func (c *Client) downloadFileOperation(ctx context.Context, opID string) (string, error) {
	payload, err := json.Marshal(map[string]any{"id": opID})
	if err != nil {
		return "", fmt.Errorf("failed to encode request body: %w", err)
	}

	noRedirect := &http.Client{
		Timeout: readTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	for attempt := 0; attempt < redirectPollAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/fileOperations.redirect"), bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := noRedirect.Do(req)
		if err != nil {
			return "", fmt.Errorf("network error: %w", err)
		}
		location := resp.Header.Get("Location")
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if location != "" {
			return c.downloadLocation(ctx, location)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(redirectPollInterval):
		}
	}
	return "", errors.New("export timed out waiting for file operation")
}

func (c *Client) downloadLocation(ctx context.Context, location string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	client := &http.Client{Timeout: readTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read export body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return DecodeText(data), nil
}

// DecodeText normalizes the API's content representations into a UTF-8
// string: plain strings pass through, byte slices are decoded, and
// JSON-serialized Node.js Buffer objects ({"type":"Buffer","data":[...]})
// are reassembled. Anything else falls back to its JSON rendering.
func DecodeText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case map[string]any:
		if t["type"] == "Buffer" {
			if list, ok := t["data"].([]any); ok {
				buf := make([]byte, 0, len(list))
				valid := true
				for _, item := range list {
					n, ok := item.(float64)
					if !ok {
						valid = false
						break
					}
					buf = append(buf, byte(int(n)))
				}
				if valid {
					return string(buf)
				}
			}
		}
		if inner, ok := t["data"]; ok && len(t) == 1 {
			return DecodeText(inner)
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
