package scrapers

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strings"
)

// RandomUserAgent rolls a plausible desktop browser UA once per process so
// outbound traffic does not advertise a static fingerprint.
func RandomUserAgent() string {
	platforms := []string{
		"(Windows NT 10.0; Win64; x64)",
		"(Macintosh; Intel Mac OS X 10_15_7)",
		"(X11; Linux x86_64)",
	}
	return fmt.Sprintf(
		"Mozilla/5.0 %s AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.%d.%d Safari/537.36",
		platforms[rand.IntN(len(platforms))],
		90+rand.IntN(29),
		1000+rand.IntN(5000),
		10+rand.IntN(90),
	)
}

func hashURL(u string) string {
	sum := sha1.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
