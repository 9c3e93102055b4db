package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bbernstein/stagelights-go/internal/services/pubsub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware in front of
	// the router, not per-connection here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEvent is one frame on the event stream.
type wsEvent struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

// streamTopics is every topic mirrored onto the websocket.
var streamTopics = []pubsub.Topic{
	pubsub.TopicFixtureRegistered,
	pubsub.TopicFixtureRemoved,
	pubsub.TopicFixtureChanged,
	pubsub.TopicNodeDiscovered,
	pubsub.TopicRDMDeviceFound,
	pubsub.TopicRDMDeviceOnline,
	pubsub.TopicRDMDeviceOffline,
	pubsub.TopicRDMDeviceRemoved,
}

// serveWS upgrades the connection and mirrors engine events onto it until
// the client goes away. Slow clients lose events rather than stall the
// engine; the pubsub buffers are the only cushion.
func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("🔌 Websocket upgrade failed: %v", err)
		return
	}

	subs := make([]*pubsub.Subscriber, 0, len(streamTopics))
	merged := make(chan wsEvent, 256)
	done := make(chan struct{})

	for _, topic := range streamTopics {
		sub := h.events.Subscribe(topic, 64)
		subs = append(subs, sub)
		go func(topic pubsub.Topic, sub *pubsub.Subscriber) {
			for {
				select {
				case <-done:
					return
				case msg, ok := <-sub.Channel:
					if !ok {
						return
					}
					select {
					case merged <- wsEvent{Topic: string(topic), Payload: msg}:
					default:
						// Client is too far behind; drop.
					}
				}
			}
		}(topic, sub)
	}

	cleanup := func() {
		close(done)
		for _, sub := range subs {
			h.events.Unsubscribe(sub)
		}
		_ = conn.Close()
	}

	// Reader goroutine: its only job is to notice the peer closing.
	go func() {
		defer cleanup()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Printf("🔌 Websocket client connected: %s", r.RemoteAddr)
	for {
		select {
		case <-done:
			return
		case ev := <-merged:
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("🔌 Websocket client gone: %s", r.RemoteAddr)
				return
			}
		}
	}
}
