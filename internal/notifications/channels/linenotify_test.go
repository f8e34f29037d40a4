package channels

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/lunchtogether/lunchbox-backend/pkg/config"
)

func TestLineNotifySendPostsForm(t *testing.T) {
	var gotAuth string
	var gotMessage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotMessage = r.PostFormValue("message")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewLineNotifySender(config.LineNotifyConfig{APIBaseURL: server.URL})
	err := sender.Send(context.Background(), "user-token", Message{
		Title: "Order summary ready",
		Body:  "Friday Bento closed with 2 participants.",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotAuth != "Bearer user-token" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if !strings.Contains(gotMessage, "Order summary ready") {
		t.Fatalf("unexpected message %q", gotMessage)
	}
}

func TestLineNotifySendRevokedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	sender := NewLineNotifySender(config.LineNotifyConfig{APIBaseURL: server.URL})
	err := sender.Send(context.Background(), "revoked", Message{Title: "hello"})
	if !errors.Is(err, ErrLineTokenRevoked) {
		t.Fatalf("expected ErrLineTokenRevoked, got %v", err)
	}
}

func TestLineNotifyExchangeCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "authorization_code" {
			t.Errorf("unexpected grant type %q", got)
		}
		w.Write([]byte(`{"access_token":"long-lived-token"}`))
	}))
	defer server.Close()

	sender := NewLineNotifySender(config.LineNotifyConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "https://lunchbox.example.com/callback",
		OAuthBaseURL: server.URL,
	})

	token, err := sender.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if token != "long-lived-token" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestLineNotifyAuthorizeURL(t *testing.T) {
	sender := NewLineNotifySender(config.LineNotifyConfig{
		ClientID:     "client",
		RedirectURL:  "https://lunchbox.example.com/callback",
		OAuthBaseURL: "https://notify-bot.line.me",
	})

	raw := sender.AuthorizeURL("state-abc")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	query := parsed.Query()
	if query.Get("scope") != "notify" || query.Get("state") != "state-abc" {
		t.Fatalf("unexpected query %q", parsed.RawQuery)
	}
}
