package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ============================================================================
// REST SERVER CLIENT
// ============================================================================

const (
	unauthorizedUserErrorCode = "UnauthorizedUserError"
	maxResponseBytes          = 1 << 20
)

// APIError is a non-2xx answer from the REST server
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// UnauthorizedError means the token was rejected. The caller is expected to
// log the user out instead of reporting a generic failure.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return "unauthorized: " + e.Message
}

// IsUnauthorized reports whether err carries an *UnauthorizedError
func IsUnauthorized(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}

// User is one entry of GET /api/v2/users
type User struct {
	Username       string   `json:"username"`
	Email          string   `json:"email,omitempty"`
	Admin          flexBool `json:"admin"`
	VirtualCluster []string `json:"virtualCluster,omitempty"`
}

// flexBool accepts both true and "true"; older servers send strings
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return errors.Wrapf(err, "parse admin flag %s", data)
	}
	*b = flexBool(v)
	return nil
}

// Client talks to the REST server with a bearer token
type Client struct {
	baseURI    string
	token      string
	httpClient *http.Client
	log        log.FieldLogger
}

func NewClient(baseURI, token string, timeout time.Duration, logger log.FieldLogger) *Client {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Client{
		baseURI:    strings.TrimRight(baseURI, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.WithField("component", "rest-client"),
	}
}

// SubmitJob posts a job protocol YAML document. Nothing is retried.
func (c *Client) SubmitJob(ctx context.Context, protocol []byte) error {
	return c.do(ctx, http.MethodPost, "/api/v2/jobs", "text/yaml", bytes.NewReader(protocol), nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/api/v2/users", "", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser changes the password of one user, keeping the admin flag
func (c *Client) UpdateUser(ctx context.Context, username, password string, admin bool) error {
	body, err := json.Marshal(map[string]interface{}{
		"username": username,
		"password": password,
		"admin":    admin,
	})
	if err != nil {
		return errors.Wrap(err, "encode user update")
	}
	return c.do(ctx, http.MethodPut, "/api/v2/users", "application/json", bytes.NewReader(body), nil)
}

// Login exchanges a username and password for a token
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", errors.Wrap(err, "encode login")
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v2/authn/basic/login", "application/json", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("login response has no token")
	}
	return resp.Token, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURI+path, body)
	if err != nil {
		return errors.Wrapf(err, "build %s %s", method, path)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errors.Wrapf(err, "read %s %s response", method, path)
	}

	logger := c.log.WithFields(log.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp.StatusCode, data)
		logger.WithError(apiErr).Warn("request failed")
		return apiErr
	}
	logger.Debug("request done")

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode %s %s response", method, path)
	}
	return nil
}

// decodeError turns an error body into *UnauthorizedError or *APIError.
// Bodies that are not JSON (proxy error pages) fall back to the page text.
func decodeError(status int, data []byte) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		msg := extractHTMLMessage(data)
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &APIError{StatusCode: status, Message: msg}
	}
	if body.Code == unauthorizedUserErrorCode {
		return &UnauthorizedError{Message: body.Message}
	}
	if body.Message == "" {
		body.Message = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Code: body.Code, Message: body.Message}
}
