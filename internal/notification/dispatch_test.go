package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/workweave/workweave/internal/tracker"
)

func testEvent(eventType string) tracker.SyncEvent {
	return tracker.SyncEvent{
		Type:        eventType,
		WorkspaceID: "ws-1",
		SpaceID:     "space-1",
		Summary:     "imported 3 tasks",
		At:          time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDispatchDefaultsToLog(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(nil)
	d.out = &buf

	ev := testEvent(tracker.EventImportCompleted)
	results := d.Dispatch(context.Background(), &ev)

	if len(results) != 1 || !results[0].Success || results[0].Channel != "log" {
		t.Fatalf("results = %+v, want one successful log delivery", results)
	}
	got := buf.String()
	if !strings.Contains(got, "import_completed") || !strings.Contains(got, "imported 3 tasks") {
		t.Errorf("logged %q, want event type and summary", got)
	}
}

func TestDispatchWebhook(t *testing.T) {
	var received tracker.SyncEvent
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Workweave-Event")
		_ = json.NewDecoder(r.Body).Decode(&received)
	}))
	defer srv.Close()

	d := NewDispatcher(&Config{
		Routes:     map[string][]string{"default": {"webhook"}},
		WebhookURL: srv.URL,
	})

	ev := testEvent(tracker.EventExportCompleted)
	results := d.Dispatch(context.Background(), &ev)

	if len(results) != 1 || !results[0].Success {
		t.Fatalf("results = %+v, want one successful webhook delivery", results)
	}
	if header != tracker.EventExportCompleted {
		t.Errorf("event header = %q, want %q", header, tracker.EventExportCompleted)
	}
	if received.Summary != "imported 3 tasks" {
		t.Errorf("received summary = %q", received.Summary)
	}
}

func TestDispatchFailuresAreIsolated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	d := NewDispatcher(&Config{
		Routes:     map[string][]string{"default": {"webhook", "log"}},
		WebhookURL: srv.URL,
	})
	d.out = &buf

	ev := testEvent(tracker.EventSyncCompleted)
	results := d.Dispatch(context.Background(), &ev)

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Success {
		t.Error("webhook delivery reported success against a 502")
	}
	if !strings.Contains(results[0].Error, "502") {
		t.Errorf("webhook error = %q, want status in message", results[0].Error)
	}
	// The log channel still delivers.
	if !results[1].Success {
		t.Errorf("log delivery failed: %+v", results[1])
	}
	if buf.Len() == 0 {
		t.Error("nothing logged after webhook failure")
	}
}

func TestDispatchRoutesPerEventType(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(&Config{
		Routes: map[string][]string{
			tracker.EventSyncCompleted: {"log"},
			"default":                  {"webhook"},
		},
	})
	d.out = &buf

	events := []tracker.SyncEvent{
		testEvent(tracker.EventSyncCompleted),
		testEvent(tracker.EventImportCompleted),
	}
	results := d.DispatchAll(context.Background(), events)

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Channel != "log" || !results[0].Success {
		t.Errorf("sync event result = %+v, want log success", results[0])
	}
	// The default route asks for a webhook that is not configured.
	if results[1].Channel != "webhook" || results[1].Success {
		t.Errorf("import event result = %+v, want failed webhook", results[1])
	}
}

func TestDispatchUnknownChannel(t *testing.T) {
	d := NewDispatcher(&Config{Routes: map[string][]string{"default": {"pager"}}})
	ev := testEvent(tracker.EventImportCompleted)
	results := d.Dispatch(context.Background(), &ev)
	if len(results) != 1 || results[0].Success {
		t.Fatalf("results = %+v, want one failure", results)
	}
	if !strings.Contains(results[0].Error, "pager") {
		t.Errorf("error = %q, want channel name", results[0].Error)
	}
}
