// Package storage resolves stored object references against the hosted
// storage API and exposes the small client surface that resolution needs.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is the storage API surface the resolver consumes.
// *APIClient implements it; tests substitute a fake.
type Client interface {
	CreateSignedURL(ctx context.Context, bucket, object string, expiry time.Duration) (string, error)
	PublicURL(bucket, object string) string
	TransformedPublicURL(bucket, object string, width, quality int) string
	ObjectExists(ctx context.Context, bucket, object string) bool
}

// APIClient talks to the platform storage API over HTTPS using the
// service-role key.
type APIClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewAPIClient creates a client for the given project base URL,
// e.g. https://xyzcompany.supabase.co.
func NewAPIClient(baseURL, serviceKey string) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateSignedURL requests a time-limited signed URL for a private
// object. Fails when the object does not exist in the bucket, which the
// resolver relies on to try its next candidate.
func (c *APIClient) CreateSignedURL(ctx context.Context, bucket, object string, expiry time.Duration) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", c.baseURL, bucket, object)

	body, err := json.Marshal(map[string]int{"expiresIn": int(expiry.Seconds())})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign %s/%s: %w", bucket, object, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sign %s/%s: status %d", bucket, object, resp.StatusCode)
	}

	var out struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("sign %s/%s: decode: %w", bucket, object, err)
	}
	if out.SignedURL == "" {
		return "", errors.New("empty signed URL in response")
	}
	return c.baseURL + "/storage/v1" + out.SignedURL, nil
}

// PublicURL returns the public object URL. It is pure string
// construction; pair it with ObjectExists when the object may be absent.
func (c *APIClient) PublicURL(bucket, object string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, bucket, object)
}

// TransformedPublicURL returns a public URL with server-side image
// transformation, used for list thumbnails where latency beats
// confidentiality.
func (c *APIClient) TransformedPublicURL(bucket, object string, width, quality int) string {
	return fmt.Sprintf("%s/storage/v1/render/image/public/%s/%s?width=%d&quality=%d&resize=contain",
		c.baseURL, bucket, object, width, quality)
}

// ObjectExists probes the object with an authenticated HEAD request.
func (c *APIClient) ObjectExists(ctx context.Context, bucket, object string) bool {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, bucket, object)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Upload stores an object, overwriting any existing content at the path.
func (c *APIClient) Upload(ctx context.Context, bucket, object, contentType string, data io.Reader) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, bucket, object)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, data)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, object, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload %s/%s: status %d", bucket, object, resp.StatusCode)
	}
	return nil
}
