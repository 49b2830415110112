package targets

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/adradar-hq/ad-radar/internal/domain"
	"github.com/adradar-hq/ad-radar/internal/logger"
)

// Package targets parses the target list file: one search URL per line,
// optionally followed by ` || key=value,key=value` platform options.

const (
	optionsDelimiter = "||"
	commentMarker    = "#"
)

// Load reads the target file and parses each line. A missing file is created
// empty so operators can start filling it in; that is not an error.
func Load(path string, log logger.Logger) ([]domain.Target, error) {
	log = logger.Ensure(log)

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if createErr := touch(path); createErr != nil {
				return nil, fmt.Errorf("create targets file: %w", createErr)
			}
			log.InfoObj("targets file created; add one search URL per line", "targets_file", path)
			return nil, nil
		}
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer file.Close()

	var out []domain.Target
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		tgt, ok := ParseLine(scanner.Text(), log)
		if !ok {
			continue
		}
		out = append(out, tgt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	if len(out) == 0 {
		log.InfoObj("no targets configured", "targets_file", path)
	}
	return out, nil
}

// ParseLine parses a single target line. Blank lines and comments yield no
// target. Malformed option pairs are dropped with a warning; they never fail
// the line.
func ParseLine(line string, log logger.Logger) (domain.Target, bool) {
	log = logger.Ensure(log)

	stripped := strings.TrimSpace(line)
	if stripped == "" || strings.HasPrefix(stripped, commentMarker) {
		return domain.Target{}, false
	}

	urlPart, optionsPart, hasOptions := strings.Cut(stripped, optionsDelimiter)
	rawURL := strings.TrimSpace(urlPart)
	if rawURL == "" {
		log.WarnObj("skipping malformed target line (missing URL)", "line", stripped)
		return domain.Target{}, false
	}

	options := map[string]string{}
	if hasOptions {
		for _, pair := range strings.Split(optionsPart, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			key, value, ok := strings.Cut(pair, "=")
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			if !ok || key == "" || value == "" {
				log.WarnObj("dropping malformed target option", "target_option", map[string]any{
					"url":  rawURL,
					"pair": pair,
				})
				continue
			}
			options[key] = value
		}
	}

	return domain.Target{URL: rawURL, Options: options}, true
}

func touch(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	return file.Close()
}
