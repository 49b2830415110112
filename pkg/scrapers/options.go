package scrapers

import (
	"strconv"
	"strings"

	"github.com/adradar-hq/ad-radar/internal/logger"
)

// OptionSpec declares one recognized numeric target option for a platform:
// its key, valid range, and the default applied when the value is absent,
// non-numeric, or out of range.
type OptionSpec struct {
	Key     string
	Default int
	Min     int
	Max     int
}

// Common option keys shared across platforms.
const (
	OptionPageSize = "page_size"
	OptionMaxPages = "max_pages"
)

// ValidateOptions resolves raw target options against a platform's schema.
// Invalid values fall back to the declared default with a warning; unknown keys
// are ignored with a warning. Validation never fails the target.
func ValidateOptions(platform string, specs []OptionSpec, raw map[string]string, log logger.Logger) map[string]int {
	log = logger.Ensure(log)

	out := make(map[string]int, len(specs))
	known := make(map[string]OptionSpec, len(specs))
	for _, spec := range specs {
		known[spec.Key] = spec
		out[spec.Key] = spec.Default
	}

	for key, value := range raw {
		spec, ok := known[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			log.WarnObj("ignoring unrecognized target option", "target_option", map[string]any{
				"platform": platform,
				"key":      key,
			})
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < spec.Min || n > spec.Max {
			log.WarnObj("target option out of range; using default", "target_option", map[string]any{
				"platform": platform,
				"key":      spec.Key,
				"value":    value,
				"min":      spec.Min,
				"max":      spec.Max,
				"default":  spec.Default,
			})
			continue
		}
		out[spec.Key] = n
	}

	return out
}
