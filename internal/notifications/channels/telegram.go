package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lunchtogether/lunchbox-backend/pkg/config"
)

const telegramRequestTimeout = 10 * time.Second

// TelegramSender delivers messages through the Telegram Bot API.
type TelegramSender struct {
	cfg    config.TelegramConfig
	client *http.Client
}

// NewTelegramSender builds a sender for the configured bot.
func NewTelegramSender(cfg config.TelegramConfig) (*TelegramSender, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("telegram bot token required")
	}
	return &TelegramSender{
		cfg:    cfg,
		client: &http.Client{Timeout: telegramRequestTimeout},
	}, nil
}

type telegramSendRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts the message to the given chat.
func (s *TelegramSender) Send(ctx context.Context, chatID string, msg Message) error {
	if chatID == "" {
		return errors.New("chat id required")
	}

	text := msg.Title
	if msg.Body != "" {
		text += "\n" + msg.Body
	}
	if msg.Link != "" {
		text += "\n" + msg.Link
	}

	body, err := json.Marshal(telegramSendRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal telegram request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.cfg.APIBaseURL, s.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	var parsed telegramResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&parsed); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if !parsed.OK {
		return fmt.Errorf("telegram api error: %s", parsed.Description)
	}
	return nil
}
