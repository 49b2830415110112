package notifiers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeTempConfig(t, "notifiers.yaml", `
notifiers:
  - id: tg-main
    type: Telegram
    telegram:
      bot_token: "  123:abc  "
      chat_id: "-100200300"
  - id: audit-log
    type: log
    enabled: false
  - id: hook
    type: http
    http:
      url: https://hooks.example/ads
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.All()) != 3 {
		t.Fatalf("All() = %d entries, want 3", len(reg.All()))
	}

	tg, ok := reg.ByID("tg-main")
	if !ok {
		t.Fatal("tg-main not found")
	}
	if tg.Type != TypeTelegram {
		t.Fatalf("type = %q, want normalized %q", tg.Type, TypeTelegram)
	}
	if tg.Telegram.BotToken != "123:abc" {
		t.Fatalf("bot token not trimmed: %q", tg.Telegram.BotToken)
	}

	hook, _ := reg.ByID("hook")
	if hook.HTTP.Method != "POST" {
		t.Fatalf("http method default = %q, want POST", hook.HTTP.Method)
	}
	if hook.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http timeout default = %d", hook.HTTP.TimeoutSeconds)
	}

	enabled := reg.Enabled()
	if len(enabled) != 2 {
		t.Fatalf("Enabled() = %d entries, want 2", len(enabled))
	}
	for _, cfg := range enabled {
		if cfg.ID == "audit-log" {
			t.Fatal("disabled notifier leaked into Enabled()")
		}
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeTempConfig(t, "notifiers.json", `{
		"notifiers": [
			{"id": "queue", "type": "sqs", "sqs": {"uri": "https://sqs.eu-west-1.amazonaws.com/1/ads", "region": "eu-west-1"}}
		]
	}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	cfg, ok := reg.ByID("queue")
	if !ok || cfg.SQS.QueueURL == "" {
		t.Fatalf("sqs entry not loaded: %+v", cfg)
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing id",
			content: "notifiers:\n  - type: log\n",
			wantErr: "id is required",
		},
		{
			name:    "missing type",
			content: "notifiers:\n  - id: x\n",
			wantErr: "type is required",
		},
		{
			name:    "telegram without token",
			content: "notifiers:\n  - id: tg\n    type: telegram\n    telegram:\n      chat_id: \"1\"\n",
			wantErr: "bot_token",
		},
		{
			name:    "sqs without region",
			content: "notifiers:\n  - id: q\n    type: sqs\n    sqs:\n      uri: https://sqs.example/q\n",
			wantErr: "region",
		},
		{
			name:    "duplicate ids",
			content: "notifiers:\n  - id: a\n    type: log\n  - id: a\n    type: log\n",
			wantErr: "duplicate notifier id",
		},
		{
			name:    "empty list",
			content: "notifiers: []\n",
			wantErr: "no notifiers",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTempConfig(t, "notifiers.yaml", tc.content)
			_, err := LoadRegistry(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := LoadRegistry("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestLoadRegistryUnrecognizedFormat(t *testing.T) {
	path := writeTempConfig(t, "notifiers.yaml", "{notifiers: [")
	if _, err := LoadRegistry(path); err == nil {
		t.Fatal("expected error for malformed content")
	}
}
