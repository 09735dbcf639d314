package http

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/kehillah/internal/adapters/nats"
	"github.com/samirrijal/kehillah/internal/pkg/logging"
	"github.com/samirrijal/kehillah/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "next" | "changes" (default: next)
}

// wsChannels maps client channel names onto broker subjects.
var wsChannels = map[string]string{
	"next":    natsadapter.SubjectScheduleNext,
	"changes": natsadapter.SubjectMinyanChanged,
}

// WebSocketHandler returns a handler that relays schedule ticks and minyan
// changes from NATS to connected clients. Every client starts on the "next"
// channel; clients send {"action":"subscribe","channel":"changes"} for more.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	logger := logging.For("ws")

	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		if nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "live updates unavailable"})
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		logger.Debug().Str("remote", remoteAddr).Msg("ws client connected")

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // channel -> subscription

		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		subscribe := func(channel string) error {
			s, err := nc.Subscribe(wsChannels[channel], func(msg *nats.Msg) {
				_ = writeJSON(map[string]any{"channel": channel, "data": json.RawMessage(msg.Data)})
			})
			if err != nil {
				return err
			}
			subs[channel] = s
			return nil
		}

		if err := subscribe("next"); err != nil {
			logger.Error().Err(err).Msg("ws default subscribe failed")
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			channel := m.Channel
			if channel == "" {
				channel = "next"
			}
			if _, ok := wsChannels[channel]; !ok {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[channel]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "channel": channel})
					continue
				}
				if err := subscribe(channel); err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "channel": channel})

			case "unsubscribe":
				if s, exists := subs[channel]; exists {
					_ = s.Unsubscribe()
					delete(subs, channel)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "channel": channel})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + channel})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		logger.Debug().Str("remote", remoteAddr).Msg("ws client disconnected")
	}
}
