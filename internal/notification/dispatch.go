// Package notification delivers sync completion events to configured
// channels. The engine returns events; dispatch happens afterwards and is
// strictly best effort: a failing channel is recorded in its
// DispatchResult and never fails the operation that produced the event.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/workweave/workweave/internal/tracker"
)

// Config selects the channels per event type. Routes keys are event types
// ("import_completed", ...); the "default" key covers the rest. Known
// channels are "log" and "webhook".
type Config struct {
	Routes     map[string][]string `json:"routes"`
	WebhookURL string              `json:"webhook_url"`
}

// DispatchResult records the outcome of one channel delivery.
type DispatchResult struct {
	Channel string `json:"channel"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Dispatcher sends sync events to notification channels.
type Dispatcher struct {
	config     *Config
	out        io.Writer
	httpClient *http.Client
}

// NewDispatcher creates a dispatcher. A nil config logs everything to
// stdout.
func NewDispatcher(config *Config) *Dispatcher {
	return &Dispatcher{
		config:     config,
		out:        os.Stdout,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// DispatchAll delivers every event to its routed channels. Never returns
// an error; failures live in the results.
func (d *Dispatcher) DispatchAll(ctx context.Context, events []tracker.SyncEvent) []DispatchResult {
	var results []DispatchResult
	for i := range events {
		results = append(results, d.Dispatch(ctx, &events[i])...)
	}
	return results
}

// Dispatch delivers one event to its routed channels.
func (d *Dispatcher) Dispatch(ctx context.Context, event *tracker.SyncEvent) []DispatchResult {
	routes := d.routes(event.Type)
	results := make([]DispatchResult, 0, len(routes))
	for _, channel := range routes {
		results = append(results, d.dispatchToChannel(ctx, event, channel))
	}
	return results
}

func (d *Dispatcher) routes(eventType string) []string {
	if d.config == nil || d.config.Routes == nil {
		return []string{"log"}
	}
	if routes, ok := d.config.Routes[eventType]; ok {
		return routes
	}
	if routes, ok := d.config.Routes["default"]; ok {
		return routes
	}
	return []string{"log"}
}

func (d *Dispatcher) dispatchToChannel(ctx context.Context, event *tracker.SyncEvent, channel string) DispatchResult {
	result := DispatchResult{Channel: channel}

	switch channel {
	case "log":
		d.logEvent(event)
		result.Success = true

	case "webhook":
		url := ""
		if d.config != nil {
			url = d.config.WebhookURL
		}
		if url == "" {
			result.Error = "no webhook URL configured"
		} else if err := d.sendWebhook(ctx, event, url); err != nil {
			result.Error = err.Error()
		} else {
			result.Success = true
		}

	default:
		result.Error = fmt.Sprintf("unknown channel type: %s", channel)
	}

	return result
}

func (d *Dispatcher) logEvent(event *tracker.SyncEvent) {
	fmt.Fprintf(d.out, "[%s] %s: %s\n", event.At.Format(time.RFC3339), event.Type, event.Summary)
}

func (d *Dispatcher) sendWebhook(ctx context.Context, event *tracker.SyncEvent, url string) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Workweave-Event", event.Type)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
