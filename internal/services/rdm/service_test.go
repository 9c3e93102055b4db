package rdm

import (
	"testing"
	"time"

	"github.com/bbernstein/stagelights-go/internal/services/pubsub"
)

// fakeClock lets tests move RDM time forward deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService() (*Service, *fakeClock, *pubsub.PubSub) {
	events := pubsub.New()
	s := NewService(events)
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	s.now = clock.now
	return s, clock, events
}

func drainEvents(sub *pubsub.Subscriber) []DeviceEvent {
	var out []DeviceEvent
	for {
		select {
		case msg := <-sub.Channel:
			out = append(out, msg.(DeviceEvent))
		default:
			return out
		}
	}
}

func TestAddOrUpdate_FirstSightFiresDiscovery(t *testing.T) {
	s, _, events := newTestService()
	found := events.Subscribe(pubsub.TopicRDMDeviceFound, 4)

	s.AddOrUpdate(DiscoveredFixture{UID: "UID-1", Manufacturer: "Acme", Model: "Spot 300"})

	d, ok := s.Get("UID-1")
	if !ok || !d.Online {
		t.Fatalf("Get() = %+v,%v, want online device", d, ok)
	}

	if got := drainEvents(found); len(got) != 1 || got[0].UID != "UID-1" {
		t.Errorf("discovery events = %v, want one for UID-1", got)
	}

	// A refresh must not fire discovery again.
	s.AddOrUpdate(DiscoveredFixture{UID: "UID-1"})
	if got := drainEvents(found); len(got) != 0 {
		t.Errorf("second AddOrUpdate fired %d discovery events, want 0", len(got))
	}
}

func TestLiveness_OfflineThenOnlineEachFireOnce(t *testing.T) {
	s, clock, events := newTestService()
	offline := events.Subscribe(pubsub.TopicRDMDeviceOffline, 4)
	online := events.Subscribe(pubsub.TopicRDMDeviceOnline, 4)

	s.AddOrUpdate(DiscoveredFixture{UID: "UID-1"})

	// Past the offline threshold but not the removal threshold.
	clock.advance(2 * time.Second)
	offlineIDs, removed := s.Prune(1500*time.Millisecond, 5*time.Second, map[string]int{"UID-1": 7})

	if len(offlineIDs) != 1 || offlineIDs[0] != 7 {
		t.Errorf("offline virtual IDs = %v, want [7]", offlineIDs)
	}
	if len(removed) != 0 {
		t.Errorf("removed = %v, want none", removed)
	}
	if got := drainEvents(offline); len(got) != 1 {
		t.Fatalf("offline events = %d, want exactly 1", len(got))
	}

	// Pruning again while already offline fires nothing.
	clock.advance(time.Second)
	offlineIDs, _ = s.Prune(1500*time.Millisecond, 10*time.Second, nil)
	if len(offlineIDs) != 0 {
		t.Errorf("second prune offline IDs = %v, want none", offlineIDs)
	}
	if got := drainEvents(offline); len(got) != 0 {
		t.Errorf("second prune fired %d offline events, want 0", len(got))
	}

	// A poll reply brings it back with exactly one online event.
	s.AddOrUpdate(DiscoveredFixture{UID: "UID-1"})
	if got := drainEvents(online); len(got) != 1 {
		t.Errorf("online events = %d, want exactly 1", len(got))
	}

	d, _ := s.Get("UID-1")
	if !d.Online {
		t.Error("device should be online after refresh")
	}
}

func TestPrune_RemovesAfterRemovalThreshold(t *testing.T) {
	s, clock, events := newTestService()
	removedSub := events.Subscribe(pubsub.TopicRDMDeviceRemoved, 4)

	s.AddOrUpdate(DiscoveredFixture{UID: "UID-1"})
	s.AddOrUpdate(DiscoveredFixture{UID: "UID-2"})

	clock.advance(11 * time.Second)
	s.AddOrUpdate(DiscoveredFixture{UID: "UID-2"}) // UID-2 stays fresh

	offlineIDs, removed := s.Prune(3*time.Second, 10*time.Second, map[string]int{"UID-1": 1})

	if len(removed) != 1 || removed[0] != "UID-1" {
		t.Fatalf("removed = %v, want [UID-1]", removed)
	}
	// A device that sails straight past the removal threshold still counts
	// as having gone offline on this pass.
	if len(offlineIDs) != 1 || offlineIDs[0] != 1 {
		t.Errorf("offline IDs = %v, want [1]", offlineIDs)
	}

	if _, ok := s.Get("UID-1"); ok {
		t.Error("UID-1 should be gone from the cache")
	}
	all := s.GetAll()
	if len(all) != 1 || all[0].UID != "UID-2" {
		t.Errorf("GetAll() = %v, want only UID-2", all)
	}
	if got := drainEvents(removedSub); len(got) != 1 {
		t.Errorf("removal events = %d, want 1", len(got))
	}
}

func TestMarkOnlineOffline(t *testing.T) {
	s, _, events := newTestService()
	offline := events.Subscribe(pubsub.TopicRDMDeviceOffline, 4)
	online := events.Subscribe(pubsub.TopicRDMDeviceOnline, 4)

	s.AddOrUpdate(DiscoveredFixture{UID: "UID-1"})

	s.MarkOffline("UID-1")
	s.MarkOffline("UID-1") // second call is a no-op
	if got := drainEvents(offline); len(got) != 1 {
		t.Errorf("offline events = %d, want 1", len(got))
	}

	s.MarkOnline("UID-1")
	s.MarkOnline("UID-1")
	if got := drainEvents(online); len(got) != 1 {
		t.Errorf("online events = %d, want 1", len(got))
	}

	// Unknown UIDs are ignored without panicking.
	s.MarkOnline("nope")
	s.MarkOffline("nope")
}

func TestLinkVirtual(t *testing.T) {
	s, _, _ := newTestService()
	s.AddOrUpdate(DiscoveredFixture{UID: "UID-1"})

	s.LinkVirtual("UID-1", 42)
	d, _ := s.Get("UID-1")
	if d.VirtualID != 42 {
		t.Errorf("VirtualID = %d, want 42", d.VirtualID)
	}

	// The link survives a poll refresh.
	s.AddOrUpdate(DiscoveredFixture{UID: "UID-1", Model: "Updated"})
	d, _ = s.Get("UID-1")
	if d.VirtualID != 42 {
		t.Errorf("VirtualID after refresh = %d, want 42", d.VirtualID)
	}
	if d.Model != "Updated" {
		t.Errorf("Model = %q, want %q", d.Model, "Updated")
	}
}

func TestClear(t *testing.T) {
	s, _, _ := newTestService()
	s.AddOrUpdate(DiscoveredFixture{UID: "UID-1"})

	s.Clear()
	if got := s.Count(); got != 0 {
		t.Errorf("Count after Clear = %d, want 0", got)
	}
}
