package notifiers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPNotify(t *testing.T) {
	var gotMethod, gotAuth string
	var decoded Event

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg := sanitizeNotifierConfig(NotifierConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPNotifierConfig{
			URL:     srv.URL,
			Method:  "put",
			Headers: map[string]string{"Authorization": "Bearer token"},
		},
	})
	notifier, err := newHTTPNotifier(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("newHTTPNotifier: %v", err)
	}

	evt := NewEvent(testListing("olx", "1abc"))
	if err := notifier.Notify(context.Background(), evt); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Fatalf("method = %q, want PUT", gotMethod)
	}
	if gotAuth != "Bearer token" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if decoded.Listing.Key() != "olx/1abc" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestHTTPNotifyErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad payload", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	cfg := sanitizeNotifierConfig(NotifierConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPNotifierConfig{URL: srv.URL},
	})
	notifier, err := newHTTPNotifier(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("newHTTPNotifier: %v", err)
	}
	if err := notifier.Notify(context.Background(), NewEvent(testListing("olx", "1"))); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
