// Package mqtt forwards discovery events to an MQTT broker so external
// dashboards can watch node and RDM activity without talking to the
// control API.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/lucsky/cuid"

	"github.com/bbernstein/stagelights-go/internal/services/pubsub"
)

// Publisher bridges pubsub discovery topics onto MQTT topics under a
// configurable prefix. It is entirely optional: the engine runs the same
// with or without it.
type Publisher struct {
	client pahomqtt.Client
	prefix string

	subs []*pubsub.Subscriber
	done chan struct{}
}

// topicMap pairs internal topics with their MQTT suffixes.
var topicMap = map[pubsub.Topic]string{
	pubsub.TopicNodeDiscovered:   "nodes/discovered",
	pubsub.TopicRDMDeviceFound:   "rdm/found",
	pubsub.TopicRDMDeviceOnline:  "rdm/online",
	pubsub.TopicRDMDeviceOffline: "rdm/offline",
	pubsub.TopicRDMDeviceRemoved: "rdm/removed",
}

// NewPublisher connects to the broker. A connection failure is returned
// rather than retried: discovery publishing is best-effort.
func NewPublisher(brokerURL, prefix string) (*Publisher, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID("stagelights-" + cuid.Slug()).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", brokerURL, token.Error())
	}

	log.Printf("📨 MQTT discovery publishing to %s under %q", brokerURL, prefix)
	return &Publisher{
		client: client,
		prefix: prefix,
		done:   make(chan struct{}),
	}, nil
}

// Start subscribes to the discovery topics and forwards events until Stop.
func (p *Publisher) Start(events *pubsub.PubSub) {
	for topic, suffix := range topicMap {
		sub := events.Subscribe(topic, 64)
		p.subs = append(p.subs, sub)
		go p.forward(sub, p.prefix+"/"+suffix)
	}
}

// forward serializes each event as JSON and publishes it.
func (p *Publisher) forward(sub *pubsub.Subscriber, mqttTopic string) {
	for {
		select {
		case <-p.done:
			return
		case msg, ok := <-sub.Channel:
			if !ok {
				return
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				log.Printf("📨 MQTT marshal error on %s: %v", mqttTopic, err)
				continue
			}
			// Fire and forget; QoS 0 keeps the bridge from backing up.
			p.client.Publish(mqttTopic, 0, false, payload)
		}
	}
}

// Stop disconnects from the broker and releases the subscriptions.
func (p *Publisher) Stop(events *pubsub.PubSub) {
	close(p.done)
	for _, sub := range p.subs {
		events.Unsubscribe(sub)
	}
	p.client.Disconnect(250)
	log.Printf("📨 MQTT discovery publishing stopped")
}
