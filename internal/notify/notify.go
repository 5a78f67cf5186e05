// Package notify fires the notification hook the scheduler calls when a job
// fails or a backup completes: a Telegram bot message and/or a Mattermost
// incoming webhook, both plain POST-JSON-read-status calls built on the same
// resty client the HRIS integration uses.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// Config holds the optional notification destinations. Either, both, or
// neither may be configured; a zero Config makes Notifier a no-op.
type Config struct {
	TelegramBotToken string
	TelegramChatID   string
	MattermostURL    string
}

// Notifier sends a best-effort notification to every configured
// destination. Send errors are logged, never propagated — a notification
// failure must never fail the job that triggered it.
type Notifier struct {
	cfg    Config
	http   *resty.Client
	logger *slog.Logger
}

// New builds a Notifier. A nil logger discards log output.
func New(cfg Config, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Notifier{
		cfg:    cfg,
		http:   resty.New().SetTimeout(10 * time.Second),
		logger: logger,
	}
}

// Notify sends subject/detail to every configured destination.
func (n *Notifier) Notify(ctx context.Context, subject, detail string) {
	text := fmt.Sprintf("%s\n%s", subject, detail)
	if n.cfg.TelegramBotToken != "" && n.cfg.TelegramChatID != "" {
		if err := n.sendTelegram(ctx, text); err != nil {
			n.logger.Warn("telegram notification failed", "error", err)
		}
	}
	if n.cfg.MattermostURL != "" {
		if err := n.sendMattermost(ctx, text); err != nil {
			n.logger.Warn("mattermost notification failed", "error", err)
		}
	}
}

func (n *Notifier) sendTelegram(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.cfg.TelegramBotToken)
	resp, err := n.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id": n.cfg.TelegramChatID,
			"text":    text,
		}).
		Post(endpoint)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("telegram: unexpected status %s", resp.Status())
	}
	return nil
}

type mattermostPayload struct {
	Text string `json:"text"`
}

func (n *Notifier) sendMattermost(ctx context.Context, text string) error {
	resp, err := n.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(mattermostPayload{Text: text}).
		Post(n.cfg.MattermostURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("mattermost: unexpected status %s", resp.Status())
	}
	return nil
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
