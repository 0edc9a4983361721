package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"pushrelay/internal/constants"
	"pushrelay/internal/logger"
	"pushrelay/pkg/telemetry"
)

// HTTPClient allows swapping the transport in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL    string
	botToken   string
	chatID     string
	httpClient HTTPClient
	sink       telemetry.Sink
	logger     logger.Logger
}

func NewClient(baseURL, botToken, chatID string, httpClient HTTPClient, sink telemetry.Sink, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.DefaultHTTPTimeout}
	}
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger()
	}

	return &Client{
		baseURL:    baseURL,
		botToken:   botToken,
		chatID:     chatID,
		httpClient: httpClient,
		sink:       sink,
		logger:     log,
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Bad-request bodies name the first offending byte, e.g.
// "can't parse entities: Character '.' is reserved ... at byte offset 42".
var offsetPattern = regexp.MustCompile(`offset (\d+)`)

// SendMessage posts one MarkdownV2 message to the configured chat.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	reqURL := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    c.chatID,
		Text:      text,
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.sink.ObserveRequest(req.URL.Host, http.MethodPost, 0, time.Since(start))
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.sink.ObserveRequest(req.URL.Host, http.MethodPost, resp.StatusCode, time.Since(start))

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logEscapeDiagnostic(ctx, string(body), text)
		return fmt.Errorf("telegram sendMessage returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// SendCommit formats one commit notification and posts it.
func (c *Client) SendCommit(ctx context.Context, msg CommitMessage) error {
	return c.SendMessage(ctx, FormatCommitMessage(msg, time.Now()))
}

// logEscapeDiagnostic pulls the byte offset out of a parse-entities error and
// logs the offending character in context. Diagnostic only.
func (c *Client) logEscapeDiagnostic(ctx context.Context, body, text string) {
	match := offsetPattern.FindStringSubmatch(body)
	if match == nil {
		return
	}

	offset, err := strconv.Atoi(match[1])
	if err != nil || offset < 0 || offset >= len(text) {
		return
	}

	lo := offset - 10
	if lo < 0 {
		lo = 0
	}
	hi := offset + 10
	if hi > len(text) {
		hi = len(text)
	}

	c.logger.ErrorwCtx(ctx, "Telegram rejected message text",
		"offset", offset,
		"char", string(text[offset]),
		"context", text[lo:hi],
	)
}
