// Package notify delivers success messages to Telegram without blocking the caller.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTelegramURL = "https://api.telegram.org"
	defaultSendTimeout = 15 * time.Second

	// TestMessage is sent by the configuration check
	TestMessage = "Test message from Code Forge! Configuration is working."
)

// ErrNotConfigured is returned by Send when the bot token or chat ID is missing
var ErrNotConfigured = errors.New("telegram not configured")

// Telegram sends messages through the Bot API sendMessage method
type Telegram struct {
	apiKey  string
	chatID  string
	baseURL string
	client  *http.Client
}

// TelegramOption customises a Telegram sender
type TelegramOption func(*Telegram)

// WithBaseURL points the sender at another Bot API host
func WithBaseURL(baseURL string) TelegramOption {
	return func(t *Telegram) { t.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) TelegramOption {
	return func(t *Telegram) { t.client = c }
}

// NewTelegram creates a sender for one bot token and chat
func NewTelegram(apiKey, chatID string, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		apiKey:  strings.TrimSpace(apiKey),
		chatID:  strings.TrimSpace(chatID),
		baseURL: defaultTelegramURL,
		client:  &http.Client{Timeout: defaultSendTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Configured reports whether both credentials are set
func (t *Telegram) Configured() bool {
	return t.apiKey != "" && t.chatID != ""
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts text to the configured chat
func (t *Telegram) Send(ctx context.Context, text string) error {
	if !t.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of the message
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	var result apiResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode != http.StatusOK || !result.OK {
		if result.Description != "" {
			return fmt.Errorf("telegram API error (%d): %s", resp.StatusCode, result.Description)
		}
		return fmt.Errorf("telegram API error: %s", resp.Status)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}
