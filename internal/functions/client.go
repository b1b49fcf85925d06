// Package functions invokes the platform's serverless admin functions.
//
// The functions (user creation, deletion, credential sync, login
// rate-limit precheck) run on the hosted platform; this package only
// implements their request/response contract: an HTTPS POST with a JSON
// body and a bearer credential, answering JSON.
package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client calls named serverless functions under the project base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a functions client for the given project base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateUserRequest is the payload for the create-user function.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
	Role     string `json:"role,omitempty"`
}

// CreateUserResponse is the create-user function's answer.
type CreateUserResponse struct {
	UserID string `json:"userId"`
}

// SyncCredentialsRequest updates a user's email and/or password.
type SyncCredentialsRequest struct {
	UserID   string `json:"userId"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// PrecheckRequest asks whether a login attempt should proceed.
type PrecheckRequest struct {
	Email string `json:"email"`
	IP    string `json:"ip,omitempty"`
}

// PrecheckResponse reports the rate-limit decision for a login attempt.
type PrecheckResponse struct {
	Allowed           bool `json:"allowed"`
	RetryAfterSeconds int  `json:"retryAfterSeconds,omitempty"`
}

// CreateUser provisions a new application user.
func (c *Client) CreateUser(ctx context.Context, bearer string, req CreateUserRequest) (CreateUserResponse, error) {
	var out CreateUserResponse
	err := c.invoke(ctx, "create-user", bearer, req, &out)
	return out, err
}

// DeleteUser removes an application user by id.
func (c *Client) DeleteUser(ctx context.Context, bearer, userID string) error {
	req := map[string]string{"userId": userID}
	return c.invoke(ctx, "delete-user", bearer, req, nil)
}

// SyncCredentials propagates an email/password change to the auth system.
func (c *Client) SyncCredentials(ctx context.Context, bearer string, req SyncCredentialsRequest) error {
	return c.invoke(ctx, "sync-user-credentials", bearer, req, nil)
}

// LoginPrecheck asks the rate limiter whether a login may proceed.
func (c *Client) LoginPrecheck(ctx context.Context, bearer string, req PrecheckRequest) (PrecheckResponse, error) {
	var out PrecheckResponse
	err := c.invoke(ctx, "login-precheck", bearer, req, &out)
	return out, err
}

// invoke POSTs a JSON payload to /functions/v1/<name> and decodes the
// answer into out when non-nil. Non-2xx responses become errors carrying
// the function's error message when one is present.
func (c *Client) invoke(ctx context.Context, name, bearer string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", name, err)
	}

	endpoint := c.baseURL + "/functions/v1/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := apiErr.Error
		if msg == "" {
			msg = apiErr.Message
		}
		if msg == "" {
			return fmt.Errorf("%s: status %d", name, resp.StatusCode)
		}
		return fmt.Errorf("%s: status %d: %s", name, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", name, err)
	}
	return nil
}
