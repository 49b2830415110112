package notifiers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adradar-hq/ad-radar/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

const (
	telegramAPIBase       = "https://api.telegram.org"
	telegramMaxDescLength = 400
	telegramMaxPhotos     = 10
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// telegramNotifier delivers listing notifications through the Telegram Bot API.
type telegramNotifier struct {
	id         string
	typ        string
	apiBase    string
	botToken   string
	chatID     string
	sendPhotos bool
	client     *resty.Client
	log        Logger
}

func newTelegramNotifier(_ context.Context, cfg NotifierConfig, log Logger) (Notifier, error) {
	if cfg.Telegram == nil {
		return nil, fmt.Errorf("notifier %q missing telegram configuration", cfg.ID)
	}

	return &telegramNotifier{
		id:         cfg.ID,
		typ:        TypeTelegram,
		apiBase:    telegramAPIBase,
		botToken:   cfg.Telegram.BotToken,
		chatID:     cfg.Telegram.ChatID,
		sendPhotos: cfg.Telegram.SendPhotos == nil || *cfg.Telegram.SendPhotos,
		client:     httpclient.NewRestyHTTPClient(10 * time.Second),
		log:        ensureLogger(log),
	}, nil
}

func (t *telegramNotifier) ID() string   { return t.id }
func (t *telegramNotifier) Type() string { return t.typ }

// Notify sends the formatted ad text, followed by a media group when the
// listing carries photos.
func (t *telegramNotifier) Notify(ctx context.Context, evt Event) error {
	if err := t.call(ctx, "sendMessage", map[string]any{
		"chat_id": t.chatID,
		"text":    formatAdMessage(evt),
	}); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	if !t.sendPhotos || len(evt.Listing.Images) == 0 {
		return nil
	}

	images := evt.Listing.Images
	if len(images) > telegramMaxPhotos {
		images = images[:telegramMaxPhotos]
	}
	media := make([]map[string]string, 0, len(images))
	for _, img := range images {
		media = append(media, map[string]string{"type": "photo", "media": img})
	}

	if err := t.call(ctx, "sendMediaGroup", map[string]any{
		"chat_id": t.chatID,
		"media":   media,
	}); err != nil {
		// The text already went out; photos are best effort.
		t.log.WarnObj("telegram photo delivery failed", "notifier_telegram_error", map[string]any{
			"notifier_id": t.id,
			"listing":     evt.Listing.Key(),
			"error":       err.Error(),
		})
	}
	return nil
}

func (t *telegramNotifier) call(ctx context.Context, method string, payload map[string]any) error {
	url := fmt.Sprintf("%s/bot%s/%s", t.apiBase, t.botToken, method)
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram response status %d: %s", resp.StatusCode(), readBodySnippet(resp.Body()))
	}
	return nil
}

// formatAdMessage renders one listing the way the bot presents new ads.
func formatAdMessage(evt Event) string {
	l := evt.Listing

	description := strings.TrimSpace(whitespaceRun.ReplaceAllString(l.Description, " "))
	if len(description) > telegramMaxDescLength {
		cut := telegramMaxDescLength
		// Back up so the cut never splits a multi-byte rune.
		for cut > 0 && !utf8.RuneStart(description[cut]) {
			cut--
		}
		description = description[:cut] + "..."
	}

	lines := []string{
		fmt.Sprintf("📌 %s", strings.TrimSpace(l.Title)),
		fmt.Sprintf("💰 %s", strings.TrimSpace(l.Price)),
		"",
	}
	if seller := strings.TrimSpace(l.Seller); seller != "" {
		lines = append(lines, fmt.Sprintf("👤 Seller: %s", seller), "")
	}
	if description != "" {
		lines = append(lines, "📝 Description:", description, "")
	}
	lines = append(lines, fmt.Sprintf("🔗 %s", l.URL), "", fmt.Sprintf("[%s]", strings.ToUpper(l.Platform)))

	return strings.Join(lines, "\n")
}
