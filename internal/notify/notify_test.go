package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestNotify_SendsOnlyToConfiguredDestination(t *testing.T) {
	var mu sync.Mutex
	var telegramHit, mattermostHit bool

	telegram := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		telegramHit = true
		mu.Unlock()
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "chat_id") {
			t.Errorf("telegram body missing chat_id: %s", body)
		}
	}))
	defer telegram.Close()

	mattermost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		mattermostHit = true
		mu.Unlock()
		var payload mattermostPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode mattermost payload: %v", err)
		}
		if payload.Text == "" {
			t.Error("expected non-empty mattermost text")
		}
	}))
	defer mattermost.Close()

	n := New(Config{MattermostURL: mattermost.URL}, nil)
	n.Notify(context.Background(), "backup failed", "device=tmi: offline")

	mu.Lock()
	defer mu.Unlock()
	if telegramHit {
		t.Error("telegram should not be hit when not configured")
	}
	if !mattermostHit {
		t.Error("expected mattermost webhook to be hit")
	}
}

func TestNotify_NoDestinationsConfigured(t *testing.T) {
	n := New(Config{}, nil)
	// must not panic or block
	n.Notify(context.Background(), "subject", "detail")
}
