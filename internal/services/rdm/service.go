// Package rdm maintains the cache of fixtures discovered over RDM and
// their online/offline liveness state.
//
// The wire-level RDM discovery/GET exchange is gateway-specific and lives
// outside this package; whatever drives the bus feeds results in through
// AddOrUpdate, MarkOnline, and MarkOffline.
package rdm

import (
	"log"
	"sort"
	"time"

	"github.com/bbernstein/stagelights-go/internal/services/pubsub"
)

// DiscoveredFixture is one RDM-discovered device. The UID is the stable
// hardware identity; everything else is refreshed on every poll reply.
type DiscoveredFixture struct {
	UID          string    `json:"uid"`
	Manufacturer string    `json:"manufacturer"`
	Model        string    `json:"model"`
	Universe     int       `json:"universe"`
	StartChannel int       `json:"startChannel"`
	ChannelCount int       `json:"channelCount"`
	Online       bool      `json:"online"`
	LastSeen     time.Time `json:"lastSeen"`
	// VirtualID links the device to a registered fixture, 0 when unlinked.
	VirtualID int `json:"virtualId,omitempty"`
}

// DeviceEvent is the payload for RDM liveness notifications.
type DeviceEvent struct {
	UID       string `json:"uid"`
	VirtualID int    `json:"virtualId,omitempty"`
	Online    bool   `json:"online"`
}

// Service is the RDM discovery/liveness cache. Tick-thread-only, no locks.
type Service struct {
	devices map[string]*DiscoveredFixture
	events  *pubsub.PubSub

	// now is injectable for deterministic liveness tests.
	now func() time.Time
}

// NewService creates an empty RDM cache publishing on the given bus.
func NewService(events *pubsub.PubSub) *Service {
	return &Service{
		devices: make(map[string]*DiscoveredFixture),
		events:  events,
		now:     time.Now,
	}
}

// AddOrUpdate records a discovery or poll reply for a device. A first
// sighting fires a discovery event; a reply from a device previously
// marked offline fires a single online event. LastSeen is always
// refreshed.
func (s *Service) AddOrUpdate(fx DiscoveredFixture) {
	fx.LastSeen = s.now()
	fx.Online = true

	existing, ok := s.devices[fx.UID]
	if !ok {
		copied := fx
		s.devices[fx.UID] = &copied
		log.Printf("🔍 RDM device discovered: %s (%s %s)", fx.UID, fx.Manufacturer, fx.Model)
		s.events.Publish(pubsub.TopicRDMDeviceFound, DeviceEvent{UID: fx.UID, VirtualID: fx.VirtualID, Online: true})
		return
	}

	wasOffline := !existing.Online
	if fx.VirtualID == 0 {
		fx.VirtualID = existing.VirtualID
	}
	*existing = fx

	if wasOffline {
		log.Printf("🔍 RDM device back online: %s", fx.UID)
		s.events.Publish(pubsub.TopicRDMDeviceOnline, DeviceEvent{UID: fx.UID, VirtualID: existing.VirtualID, Online: true})
	}
}

// MarkOnline refreshes a known device's liveness, firing a single online
// event if it was offline. Unknown UIDs are ignored.
func (s *Service) MarkOnline(uid string) {
	d, ok := s.devices[uid]
	if !ok {
		return
	}

	d.LastSeen = s.now()
	if !d.Online {
		d.Online = true
		s.events.Publish(pubsub.TopicRDMDeviceOnline, DeviceEvent{UID: uid, VirtualID: d.VirtualID, Online: true})
	}
}

// MarkOffline demotes a known device, firing a single offline event if it
// was online. Unknown UIDs are ignored.
func (s *Service) MarkOffline(uid string) {
	d, ok := s.devices[uid]
	if !ok {
		return
	}

	if d.Online {
		d.Online = false
		s.events.Publish(pubsub.TopicRDMDeviceOffline, DeviceEvent{UID: uid, VirtualID: d.VirtualID, Online: false})
	}
}

// LinkVirtual attaches a virtual fixture ID to a discovered device.
func (s *Service) LinkVirtual(uid string, virtualID int) {
	if d, ok := s.devices[uid]; ok {
		d.VirtualID = virtualID
	}
}

// Get returns a copy of one device record.
func (s *Service) Get(uid string) (DiscoveredFixture, bool) {
	d, ok := s.devices[uid]
	if !ok {
		return DiscoveredFixture{}, false
	}
	return *d, true
}

// GetAll returns copies of every device record, ordered by UID.
func (s *Service) GetAll() []DiscoveredFixture {
	out := make([]DiscoveredFixture, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

// Count returns the number of cached devices.
func (s *Service) Count() int {
	return len(s.devices)
}

// Prune performs both liveness demotions in one pass: devices silent for
// longer than offlineThreshold go offline (one offline event each), and
// devices silent for longer than removeThreshold are dropped from the
// cache entirely (one removal event each). rdmToVirtual maps UIDs to
// virtual fixture IDs so callers can react per registered fixture. It
// returns the virtual IDs that just went offline and the UIDs removed.
func (s *Service) Prune(offlineThreshold, removeThreshold time.Duration, rdmToVirtual map[string]int) (offlineIDs []int, removedUIDs []string) {
	now := s.now()

	for uid, d := range s.devices {
		silence := now.Sub(d.LastSeen)

		if d.Online && silence > offlineThreshold {
			d.Online = false
			virtualID := d.VirtualID
			if id, ok := rdmToVirtual[uid]; ok {
				virtualID = id
			}
			if virtualID != 0 {
				offlineIDs = append(offlineIDs, virtualID)
			}
			log.Printf("🔍 RDM device offline: %s (silent %v)", uid, silence.Round(time.Millisecond))
			s.events.Publish(pubsub.TopicRDMDeviceOffline, DeviceEvent{UID: uid, VirtualID: virtualID, Online: false})
		}

		if silence > removeThreshold {
			delete(s.devices, uid)
			removedUIDs = append(removedUIDs, uid)
			log.Printf("🔍 RDM device removed: %s (silent %v)", uid, silence.Round(time.Millisecond))
			s.events.Publish(pubsub.TopicRDMDeviceRemoved, DeviceEvent{UID: uid, VirtualID: d.VirtualID, Online: false})
		}
	}

	sort.Ints(offlineIDs)
	sort.Strings(removedUIDs)
	return offlineIDs, removedUIDs
}

// Clear drops the whole cache, used on shutdown.
func (s *Service) Clear() {
	s.devices = make(map[string]*DiscoveredFixture)
}
