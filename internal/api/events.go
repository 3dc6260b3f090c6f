package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/ledring/internal/api/models"
	"github.com/smazurov/ledring/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	if s.eventBus == nil {
		s.logger.Debug("Event bus not available, skipping SSE routes")
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Current status on connect, then connection, command, pulse and device line events",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"status":           models.StatusData{},
		"connection-state": events.ConnectionStateChangedEvent{},
		"command-sent":     events.CommandSentEvent{},
		"pulse-state":      events.PulseStateChangedEvent{},
		"device-line":      events.DeviceLineEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.ConnectionStateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.CommandSentEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.PulseStateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.DeviceLineEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Clients render the snapshot before applying deltas.
		if err := send.Data(s.status()); err != nil {
			return
		}

		keepAlive := time.NewTicker(30 * time.Second)
		defer keepAlive.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				if err := send.Data(s.status()); err != nil {
					return
				}
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
