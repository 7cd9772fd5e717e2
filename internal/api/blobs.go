package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Blob describes one object in the blob store.
type Blob struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified string `json:"lastModified,omitempty"`
}

func blobPath(key string) string {
	return "/v1/blob/" + url.PathEscape(key)
}

// ListBlobs lists blobs whose key starts with prefix (all blobs when empty).
func (c *Client) ListBlobs(ctx context.Context, prefix string) ([]Blob, error) {
	params := url.Values{}
	if prefix != "" {
		params.Set("prefix", prefix)
	}
	data, err := c.call(ctx, http.MethodGet, withQuery("/v1/blob", params), nil)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("blobs: %w: %w", ErrDecode, err)
	}
	blobs := make([]Blob, 0, len(items))
	for _, item := range items {
		var b Blob
		if err := decodeRecord(item, &b, "key"); err != nil {
			return nil, fmt.Errorf("blob: %w", err)
		}
		blobs = append(blobs, b)
	}
	return blobs, nil
}

// GetBlob opens the content of a blob. The caller closes the reader.
func (c *Client) GetBlob(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := c.Do(ctx, http.MethodGet, blobPath(key), nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// PutBlob uploads r under key, replacing any existing blob.
func (c *Client) PutBlob(ctx context.Context, key string, r io.Reader) error {
	header := http.Header{}
	header.Set("Content-Type", "application/octet-stream")
	resp, err := c.Do(ctx, http.MethodPost, blobPath(key), header, r)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// DeleteBlob removes a blob.
func (c *Client) DeleteBlob(ctx context.Context, key string) error {
	resp, err := c.Do(ctx, http.MethodDelete, blobPath(key), nil, nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
