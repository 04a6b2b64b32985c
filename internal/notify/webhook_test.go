package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mufasadb/poe-level-tracker/internal/core"
)

func testEvent() core.LevelUpEvent {
	return core.LevelUpEvent{
		EventID:   "evt-1",
		Account:   "Tester#1234",
		Character: "Foo",
		Class:     "Witch",
		League:    "Standard",
		OldLevel:  50,
		NewLevel:  55,
	}
}

func TestWebhookNotifierPostsPayload(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, "")
	require.NoError(t, notifier.NotifyLevelUp(context.Background(), testEvent()))

	require.Equal(t, defaultWebhookUsername, got.Username)
	require.Contains(t, got.Content, "Foo")
	require.Contains(t, got.Content, "55")
	require.Contains(t, got.Content, "Standard")
}

func TestWebhookNotifierRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, "tracker")
	require.Error(t, notifier.NotifyLevelUp(context.Background(), testEvent()))
}

func TestWebhookNotifierRequiresURL(t *testing.T) {
	notifier := NewWebhookNotifier("", "")
	require.Error(t, notifier.NotifyLevelUp(context.Background(), testEvent()))
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) NotifyLevelUp(ctx context.Context, event core.LevelUpEvent) error {
	f.calls++
	return errors.New("sink down")
}

type countingNotifier struct{ calls int }

func (c *countingNotifier) NotifyLevelUp(ctx context.Context, event core.LevelUpEvent) error {
	c.calls++
	return nil
}

func TestMultiAttemptsAllSinks(t *testing.T) {
	failing := &failingNotifier{}
	counting := &countingNotifier{}

	multi := Multi{failing, counting}
	err := multi.NotifyLevelUp(context.Background(), testEvent())

	require.Error(t, err)
	require.Equal(t, 1, failing.calls)
	require.Equal(t, 1, counting.calls)
}
