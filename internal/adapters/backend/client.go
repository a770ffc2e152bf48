// Package backend talks to the trusted backend: credential issuing and
// transcription worker activation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dkeye/Scribe/internal/core"
	"github.com/dkeye/Scribe/internal/domain"
	"github.com/rs/zerolog/log"
)

const maxResponseBytes = 64 << 10

type Config struct {
	// BaseURL of the backend, e.g. http://localhost:8000.
	BaseURL    string
	TokenPath  string
	AttachPath string
	HTTPClient *http.Client
}

// Client implements core.CredentialService and core.TranscriptionActivator.
type Client struct {
	baseURL    string
	tokenPath  string
	attachPath string
	httpClient *http.Client
}

var (
	_ core.CredentialService      = (*Client)(nil)
	_ core.TranscriptionActivator = (*Client)(nil)
)

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("backend: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokenPath:  cfg.TokenPath,
		attachPath: cfg.AttachPath,
		httpClient: cfg.HTTPClient,
	}
	if c.tokenPath == "" {
		c.tokenPath = "/api/token"
	}
	if c.attachPath == "" {
		c.attachPath = "/api/attach-transcriber"
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	return c, nil
}

type tokenRequest struct {
	RoomID      domain.RoomID `json:"roomId"`
	DisplayName string        `json:"displayName"`
}

type tokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url,omitempty"`
}

// RequestCredential performs one POST exchange. Every failure wraps
// core.ErrCredentialUnavailable.
func (c *Client) RequestCredential(ctx context.Context, room domain.RoomID, displayName string) (domain.Credential, error) {
	body, err := c.post(ctx, c.tokenPath, tokenRequest{RoomID: room, DisplayName: displayName})
	if err != nil {
		return domain.Credential{}, fmt.Errorf("%w: %w", core.ErrCredentialUnavailable, err)
	}
	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Credential{}, fmt.Errorf("%w: malformed response: %w", core.ErrCredentialUnavailable, err)
	}
	cred := domain.Credential{Token: resp.Token, MediaURL: resp.URL}
	if cred.Empty() {
		return domain.Credential{}, fmt.Errorf("%w: response has no token", core.ErrCredentialUnavailable)
	}
	log.Info().Str("module", "adapters.backend").Str("room", string(room)).Msg("credential obtained")
	return cred, nil
}

type attachRequest struct {
	RoomID domain.RoomID `json:"roomId"`
}

type attachResponse struct {
	Status string `json:"status"`
}

// Activate asks the backend to attach a transcription worker to room.
func (c *Client) Activate(ctx context.Context, room domain.RoomID) error {
	body, err := c.post(ctx, c.attachPath, attachRequest{RoomID: room})
	if err != nil {
		return fmt.Errorf("backend: attach transcriber: %w", err)
	}
	var resp attachResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Status != "" {
		log.Info().Str("module", "adapters.backend").Str("room", string(room)).Str("status", resp.Status).Msg("transcriber attached")
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// StatusError is returned for non-2xx backend responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend status %d", e.Code)
	}
	return fmt.Sprintf("backend status %d: %s", e.Code, e.Body)
}
