package pubsub

import (
	"testing"
	"time"
)

func TestSubscribePublish(t *testing.T) {
	ps := New()

	sub := ps.Subscribe(TopicFixtureChanged, 10)
	if sub.ID == "" {
		t.Fatal("Subscribe() returned a subscriber without an ID")
	}

	ps.Publish(TopicFixtureChanged, "hello")

	select {
	case msg := <-sub.Channel:
		if msg != "hello" {
			t.Errorf("received %v, want %q", msg, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestPublish_WrongTopicNotDelivered(t *testing.T) {
	ps := New()

	sub := ps.Subscribe(TopicNodeDiscovered, 1)
	ps.Publish(TopicFixtureChanged, "nope")

	select {
	case msg := <-sub.Channel:
		t.Errorf("received unexpected message %v", msg)
	default:
	}
}

func TestPublish_FullChannelDoesNotBlock(t *testing.T) {
	ps := New()

	sub := ps.Subscribe(TopicFixtureChanged, 1)
	ps.Publish(TopicFixtureChanged, 1)

	done := make(chan struct{})
	go func() {
		ps.Publish(TopicFixtureChanged, 2) // channel full, must not block
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}

	if got := <-sub.Channel; got != 1 {
		t.Errorf("first buffered message = %v, want 1", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	ps := New()

	sub := ps.Subscribe(TopicRDMDeviceOnline, 1)
	if got := ps.SubscriberCount(TopicRDMDeviceOnline); got != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", got)
	}

	ps.Unsubscribe(sub)
	if got := ps.SubscriberCount(TopicRDMDeviceOnline); got != 0 {
		t.Errorf("SubscriberCount after Unsubscribe = %d, want 0", got)
	}

	// Channel should be closed.
	if _, ok := <-sub.Channel; ok {
		t.Error("subscriber channel still open after Unsubscribe")
	}
}
