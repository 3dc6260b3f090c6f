package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/ledring/internal/events"
	"github.com/smazurov/ledring/internal/logging"
)

// openStream connects to an SSE endpoint and returns a channel of
// "event|data" pairs.
func openStream(t *testing.T, url string) <-chan string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to connect to SSE: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("Expected SSE content type, got %s", resp.Header.Get("Content-Type"))
	}

	messages := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		event := ""
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				messages <- event + "|" + strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				event = ""
			}
		}
	}()
	return messages
}

// expect reads messages until one contains all of want.
func expect(t *testing.T, messages <-chan string, want ...string) string {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-messages:
			matched := true
			for _, w := range want {
				if !strings.Contains(msg, w) {
					matched = false
					break
				}
			}
			if matched {
				return msg
			}
		case <-timeout:
			t.Fatalf("timeout waiting for message containing %q", want)
			return ""
		}
	}
}

func TestSSEStatusThenEvents(t *testing.T) {
	bus := events.New()
	ts := newTestServer(t, &Options{EventBus: bus})

	messages := openStream(t, ts.URL+"/api/events")
	expect(t, messages, "status|", `"connection"`)

	bus.Publish(events.DeviceLineEvent{Port: "COM5", Line: "hello ring"})
	expect(t, messages, "device-line|", "hello ring")

	bus.Publish(events.PulseStateChangedEvent{Active: true, Command: "pulse:1,2,3,1", Generation: 7})
	expect(t, messages, "pulse-state|", `"generation":7`)

	bus.Publish(events.ConnectionStateChangedEvent{Port: "COM5", State: "connecting", Previous: "connected"})
	expect(t, messages, "connection-state|", `"state":"connecting"`)
}

func TestSSERequiresAuth(t *testing.T) {
	ts := httptest.NewServer(NewServer(&Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
		Controller:   &mockController{},
		EventBus:     events.New(),
	}).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestLogStreamHistoryThenLive(t *testing.T) {
	logging.Initialize(logging.Config{Level: "info", Format: "text"})
	bus := events.New()
	logging.SetLogCallback(func(entry logging.LogEntry) {
		bus.Publish(LogEvent(entry))
	})
	t.Cleanup(func() { logging.SetLogCallback(nil) })

	logger := logging.GetLogger("apitest")
	logger.Info("history entry")

	ts := newTestServer(t, &Options{EventBus: bus})
	messages := openStream(t, ts.URL+"/api/logs/stream")
	expect(t, messages, "history entry")

	logger.Info("live entry")
	expect(t, messages, "live entry")
}

func TestLogStreamSince(t *testing.T) {
	logging.Initialize(logging.Config{Level: "info", Format: "text"})
	logger := logging.GetLogger("apitest")
	logger.Info("old entry")
	entries := logging.GetBuffer().ReadAll()
	last := entries[len(entries)-1].Seq
	logger.Info("new entry")

	ts := newTestServer(t, &Options{})
	messages := openStream(t, ts.URL+"/api/logs/stream?since="+strconv.FormatUint(last, 10))

	msg := expect(t, messages, "apitest")
	if !strings.Contains(msg, "new entry") {
		t.Errorf("first replayed entry = %s, want the one after since", msg)
	}
}
