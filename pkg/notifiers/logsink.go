package notifiers

import "context"

// logNotifier writes events to the application log. Useful as the default
// sink before any external transport is configured.
type logNotifier struct {
	id  string
	typ string
	log Logger
}

func newLogNotifier(_ context.Context, cfg NotifierConfig, log Logger) (Notifier, error) {
	return &logNotifier{
		id:  cfg.ID,
		typ: TypeLog,
		log: ensureLogger(log),
	}, nil
}

func (l *logNotifier) ID() string   { return l.id }
func (l *logNotifier) Type() string { return l.typ }

func (l *logNotifier) Notify(_ context.Context, evt Event) error {
	l.log.InfoObj("new listing", "listing", map[string]any{
		"platform": evt.Platform,
		"id":       evt.Listing.ID,
		"title":    evt.Listing.Title,
		"price":    evt.Listing.Price,
		"url":      evt.Listing.URL,
	})
	return nil
}
