// Package backend talks to the sealreel HTTP API. It only ever sends public
// keys, WrappedKeys and ciphertext; the client has no access to private keys
// or content keys.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/grants"
	"github.com/PolarWolf314/sealreel/internal/recovery"
	"github.com/PolarWolf314/sealreel/internal/secrets"
)

// SignatureHeader carries the backend's content signature on downloads.
const SignatureHeader = "X-Content-Signature"

const defaultTimeout = 30 * time.Second

// Config locates and authenticates against the backend.
type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.URL == "" {
		c.URL = "http://localhost:8000"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// Client is an HTTP client for the backend API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

var (
	_ grants.Courier     = (*Client)(nil)
	_ recovery.Publisher = (*Client)(nil)
)

// NewClient creates a client for cfg.
func NewClient(cfg Config) *Client {
	cfg = cfg.WithDefaults()
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		token:      cfg.Token,
	}
}

// Me returns the signed-in account.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	resp, err := c.get(ctx, "/auth/users/me")
	if err != nil {
		return nil, err
	}
	var acct Account
	if err := json.Unmarshal(resp, &acct); err != nil {
		return nil, fmt.Errorf("failed to decode account: %w", err)
	}
	return &acct, nil
}

// PublishPublicKey records publicPEM as the account's public key.
func (c *Client) PublishPublicKey(ctx context.Context, publicPEM string) error {
	_, err := c.post(ctx, "/auth/users/me/public_key", map[string]string{"public_key_pem": publicPEM})
	return err
}

// ConfirmKeySetup clears the account's first-login flag.
func (c *Client) ConfirmKeySetup(ctx context.Context) error {
	_, err := c.post(ctx, "/auth/users/me/confirm_first_login", nil)
	return err
}

// Upload stores sealed content with the owner's WrappedKey and returns the
// new content id.
func (c *Client) Upload(ctx context.Context, up Upload) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", up.FileName)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(up.Content); err != nil {
		return "", err
	}
	for field, value := range map[string]string{
		"title":       up.Title,
		"description": up.Description,
		"key_cifrada": string(up.WrappedKey),
	} {
		if err := mw.WriteField(field, value); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	resp, _, err := c.doRequest(ctx, http.MethodPost, "/videos/upload_video", &buf, mw.FormDataContentType())
	if err != nil {
		return "", err
	}
	var result struct {
		VideoID ID `json:"video_id"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	return string(result.VideoID), nil
}

// Download fetches stored ciphertext for contentID.
func (c *Client) Download(ctx context.Context, contentID string) (*Download, error) {
	resp, header, err := c.doRequest(ctx, http.MethodGet, "/videos/download/"+url.PathEscape(contentID), nil, "")
	if err != nil {
		return nil, err
	}
	return &Download{Content: resp, Signature: header.Get(SignatureHeader)}, nil
}

// RequestAccess asks the owner of contentID for access.
func (c *Client) RequestAccess(ctx context.Context, contentID string) error {
	_, err := c.post(ctx, "/videos/request_access/"+url.PathEscape(contentID), nil)
	return err
}

// Requests lists access requests addressed to the caller's content.
func (c *Client) Requests(ctx context.Context) ([]*grants.AccessRequest, error) {
	resp, err := c.get(ctx, "/videos/requests")
	if err != nil {
		return nil, err
	}
	var result struct {
		Items []AccessRequestItem `json:"items"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}
	out := make([]*grants.AccessRequest, 0, len(result.Items))
	for _, item := range result.Items {
		out = append(out, item.AccessRequest())
	}
	return out, nil
}

// DeliverGrant stores the WrappedKey produced for an approved request.
func (c *Client) DeliverGrant(ctx context.Context, requestID string, granted secrets.WrappedKey) error {
	_, err := c.post(ctx, "/videos/approve_request/"+url.PathEscape(requestID), map[string]string{"encrypted_key": string(granted)})
	return err
}

// RecordRejection marks a request rejected.
func (c *Client) RecordRejection(ctx context.Context, requestID string) error {
	_, err := c.post(ctx, "/videos/reject_request/"+url.PathEscape(requestID), nil)
	return err
}

// AccessibleContent lists content the caller owns or was granted.
func (c *Client) AccessibleContent(ctx context.Context) ([]ContentItem, error) {
	resp, err := c.get(ctx, "/videos/my_accessible_videos")
	if err != nil {
		return nil, err
	}
	var result struct {
		Items []ContentItem `json:"items"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to decode content list: %w", err)
	}
	return result.Items, nil
}

// HTTP helpers
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	resp, _, err := c.doRequest(ctx, http.MethodGet, path, nil, "")
	return resp, err
}

func (c *Client) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	if body == nil {
		resp, _, err := c.doRequest(ctx, http.MethodPost, path, nil, "")
		return resp, err
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	resp, _, err := c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(jsonBody), "application/json")
	return resp, err
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", kerrors.ErrBackendUnavailable, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", kerrors.ErrBackendUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", kerrors.ErrBackendUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Detail json.RawMessage `json:"detail"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		return nil, nil, &APIError{StatusCode: resp.StatusCode, Detail: detailText(errResp.Detail)}
	}
	return respBody, resp.Header, nil
}

// detailText flattens a "detail" field that may be a string or a list of
// validation errors.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			msgs = append(msgs, it.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return string(raw)
}
