package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lunchtogether/lunchbox-backend/pkg/config"
)

const lineRequestTimeout = 10 * time.Second

// ErrLineTokenRevoked signals that the stored access token was revoked and
// the link should be dropped.
var ErrLineTokenRevoked = errors.New("line notify token revoked")

// LineNotifySender delivers messages through the LINE Notify API using the
// per-user access token obtained in the OAuth link flow.
type LineNotifySender struct {
	cfg    config.LineNotifyConfig
	client *http.Client
}

// NewLineNotifySender builds a sender against the configured API base.
func NewLineNotifySender(cfg config.LineNotifyConfig) *LineNotifySender {
	return &LineNotifySender{
		cfg:    cfg,
		client: &http.Client{Timeout: lineRequestTimeout},
	}
}

// Send posts the message on behalf of the user owning the token.
func (s *LineNotifySender) Send(ctx context.Context, token string, msg Message) error {
	if token == "" {
		return errors.New("access token required")
	}

	text := msg.Title
	if msg.Body != "" {
		text += "\n" + msg.Body
	}
	if msg.Link != "" {
		text += "\n" + msg.Link
	}

	form := url.Values{}
	form.Set("message", text)

	endpoint := s.cfg.APIBaseURL + "/api/notify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build line notify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send line notify message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrLineTokenRevoked
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("line notify returned %d", resp.StatusCode)
	}
	return nil
}

// ExchangeCode swaps the OAuth authorization code for a long-lived access
// token during the link flow.
func (s *LineNotifySender) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", errors.New("authorization code required")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", s.cfg.RedirectURL)
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)

	endpoint := s.cfg.OAuthBaseURL + "/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange line notify code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("line notify token endpoint returned %d", resp.StatusCode)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", errors.New("empty access token in response")
	}
	return parsed.AccessToken, nil
}

// AuthorizeURL builds the OAuth consent URL for the link flow. State binds
// the callback to the initiating user.
func (s *LineNotifySender) AuthorizeURL(state string) string {
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", s.cfg.ClientID)
	query.Set("redirect_uri", s.cfg.RedirectURL)
	query.Set("scope", "notify")
	query.Set("state", state)
	return s.cfg.OAuthBaseURL + "/oauth/authorize?" + query.Encode()
}
