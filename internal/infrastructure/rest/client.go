package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"gigmarket/internal/infrastructure/session"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/logger"
)

// Client is the shared HTTP client behind every REST repository. It injects
// the bearer credential from the session, speaks the backend's
// {success, data, error} envelope and maps failures to typed errors.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
}

func NewClient(baseURL string, timeout time.Duration, sess *session.Session) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		session: sess,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *errorInfo      `json:"error,omitempty"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Internal("Failed to encode request body", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, bytes.NewReader(payload), "application/json", out)
}

func (c *Client) Put(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Internal("Failed to encode request body", err)
	}
	return c.do(ctx, http.MethodPut, path, nil, bytes.NewReader(payload), "application/json", out)
}

// PostMultipart uploads form fields plus an optional single file under the
// "image" field, the encoding the message endpoint expects for attachments.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, filename string, file io.Reader, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return errors.Internal("Failed to encode form field", err)
		}
	}

	if file != nil {
		part, err := writer.CreateFormFile("image", filename)
		if err != nil {
			return errors.Internal("Failed to encode form file", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return errors.Internal("Failed to read attachment", err)
		}
	}

	if err := writer.Close(); err != nil {
		return errors.Internal("Failed to finalize multipart body", err)
	}

	return c.do(ctx, http.MethodPost, path, nil, &buf, writer.FormDataContentType(), out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return errors.Internal("Failed to build request", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Internal(fmt.Sprintf("Request to %s failed", path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Credential is no longer accepted; drop it so the caller can
		// prompt for a fresh sign-in.
		c.session.Clear()
		return errors.Unauthorized("Session expired", nil)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Internal("Failed to decode response", err)
	}

	if !env.Success {
		code := "INTERNAL_ERROR"
		message := "Request failed"
		if env.Error != nil {
			code = env.Error.Code
			message = env.Error.Message
		}
		logger.Debug("REST %s %s rejected: %s (%s)", method, path, message, code)
		return errors.New(code, message, resp.StatusCode, nil)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Internal("Failed to decode response data", err)
		}
	}

	return nil
}
