package fixture

import (
	"log"

	"github.com/bbernstein/stagelights-go/internal/services/fade"
	"github.com/bbernstein/stagelights-go/internal/services/pubsub"
	"github.com/bbernstein/stagelights-go/internal/services/universe"
)

// UniverseNotFound is the sentinel returned by control operations when the
// fixture is unknown or the operation does not apply. Control paths report
// failure via the sentinel rather than an error so a bad command can never
// interrupt the host's frame loop.
const UniverseNotFound = -1

// Service composes the registry, drivers, and fade engine into the
// fixture-facing control API. All methods must run on the tick goroutine.
type Service struct {
	buffer   *universe.Buffer
	registry *Registry
	fades    *fade.Engine
	events   *pubsub.PubSub
}

// NewService creates a fixture service writing into the given buffer and
// publishing change notifications on the given bus.
func NewService(buf *universe.Buffer, events *pubsub.PubSub) *Service {
	return &Service{
		buffer:   buf,
		registry: NewRegistry(),
		fades:    fade.NewEngine(),
		events:   events,
	}
}

// Registry exposes the underlying registry for read-side callers such as
// the RDM prune pass.
func (s *Service) Registry() *Registry {
	return s.registry
}

// ValidateAndRegister registers a fixture after channel-range validation
// and lazily allocates its universe in the buffer. On any violation the
// registry and buffer are left unchanged.
func (s *Service) ValidateAndRegister(f *Fixture) error {
	if err := s.registry.Register(f); err != nil {
		return err
	}

	s.buffer.EnsureUniverse(f.Universe)
	log.Printf("💡 Registered fixture %d (%s) universe %d channels %d-%d",
		f.ID, f.Type, f.Universe, f.StartChannel, f.EndChannel())
	s.events.Publish(pubsub.TopicFixtureRegistered, ChangedEvent{FixtureID: f.ID, Universe: f.Universe, Kind: "register"})
	return nil
}

// Unregister removes a fixture, cancels any in-flight fade for it, and
// drops its RDM mapping.
func (s *Service) Unregister(id int) bool {
	f, ok := s.registry.Unregister(id)
	if !ok {
		return false
	}

	s.fades.Cancel(id)
	log.Printf("💡 Unregistered fixture %d", id)
	s.events.Publish(pubsub.TopicFixtureRemoved, ChangedEvent{FixtureID: id, Universe: f.Universe, Kind: "unregister"})
	return true
}

// SetIntensityByID sets a fixture's dim level (0.0-1.0) and returns the
// affected universe, or UniverseNotFound for an unknown fixture.
func (s *Service) SetIntensityByID(id int, intensity float64) int {
	f, ok := s.registry.Find(id)
	if !ok {
		return UniverseNotFound
	}

	DriverFor(f.Type).ApplyIntensity(f, s.buffer, intensity)
	s.events.Publish(pubsub.TopicFixtureChanged, ChangedEvent{FixtureID: id, Universe: f.Universe, Kind: "intensity", Intensity: intensity})
	return f.Universe
}

// SetColorRGBWByID sets a fixture's color (components 0.0-1.0; w ignored
// by fixtures without a white channel). Fixture types with no color
// channels reject the call with UniverseNotFound.
func (s *Service) SetColorRGBWByID(id int, r, g, b, w float64) int {
	f, ok := s.registry.Find(id)
	if !ok {
		return UniverseNotFound
	}

	if !DriverFor(f.Type).ApplyColor(f, s.buffer, r, g, b, w) {
		log.Printf("💡 Fixture %d (%s) has no color channels, ignoring color command", id, f.Type)
		return UniverseNotFound
	}

	s.events.Publish(pubsub.TopicFixtureChanged, ChangedEvent{FixtureID: id, Universe: f.Universe, Kind: "color"})
	return f.Universe
}

// SetChannelByID writes a raw value at a 0-based offset within the
// fixture's channel range. Offsets outside the declared channel count are
// rejected with UniverseNotFound.
func (s *Service) SetChannelByID(id, offset int, value byte) int {
	f, ok := s.registry.Find(id)
	if !ok {
		return UniverseNotFound
	}
	if offset < 0 || offset >= f.ChannelCount {
		log.Printf("💡 Fixture %d channel offset %d outside 0-%d, ignoring", id, offset, f.ChannelCount-1)
		return UniverseNotFound
	}

	s.buffer.SetChannel(f.Universe, f.StartChannel+offset, value)
	s.events.Publish(pubsub.TopicFixtureChanged, ChangedEvent{FixtureID: id, Universe: f.Universe, Kind: "channel"})
	return f.Universe
}

// CurrentIntensity reads a fixture's dim level back out of the buffer as
// a normalized 0.0-1.0 value.
func (s *Service) CurrentIntensity(id int) (float64, bool) {
	f, ok := s.registry.Find(id)
	if !ok {
		return 0, false
	}

	raw := s.buffer.GetChannel(f.Universe, DriverFor(f.Type).IntensityChannel(f))
	return float64(raw) / 255.0, true
}

// StartFadeByID starts a linear intensity fade toward target over duration
// seconds. The starting point is the fixture's current buffer state. A
// zero or negative duration applies the target immediately.
func (s *Service) StartFadeByID(id int, target, duration float64) bool {
	current, ok := s.CurrentIntensity(id)
	if !ok {
		return false
	}

	if !s.fades.StartFade(id, current, target, duration) {
		// Instantaneous: apply the target directly.
		s.SetIntensityByID(id, target)
	}
	return true
}

// TickFades advances all in-flight fades by dt seconds, re-applying each
// new intensity through the drivers so the buffer reflects the fade before
// this tick's flush, and republishing change notifications.
func (s *Service) TickFades(dt float64) {
	s.fades.Tick(dt, func(id int, intensity float64) {
		f, ok := s.registry.Find(id)
		if !ok {
			// Unregistered mid-fade; the engine entry dies with the tick.
			s.fades.Cancel(id)
			return
		}
		DriverFor(f.Type).ApplyIntensity(f, s.buffer, intensity)
		s.events.Publish(pubsub.TopicFixtureChanged, ChangedEvent{FixtureID: id, Universe: f.Universe, Kind: "fade", Intensity: intensity})
	})
}

// ActiveFadeCount returns the number of in-flight fades.
func (s *Service) ActiveFadeCount() int {
	return s.fades.ActiveCount()
}

// AllOff zeroes every registered fixture's intensity, cancels all fades,
// and notifies.
func (s *Service) AllOff() {
	s.fades.CancelAll()
	for _, f := range s.registry.List() {
		DriverFor(f.Type).ApplyIntensity(f, s.buffer, 0)
		s.events.Publish(pubsub.TopicFixtureChanged, ChangedEvent{FixtureID: f.ID, Universe: f.Universe, Kind: "allOff"})
	}
	log.Printf("💡 All fixtures off")
}

// IsFixtureRDMCapable reports whether a fixture answers RDM.
func (s *Service) IsFixtureRDMCapable(id int) bool {
	f, ok := s.registry.Find(id)
	return ok && f.RDMCapable
}

// FindFixture returns a registered fixture by virtual ID.
func (s *Service) FindFixture(id int) (*Fixture, bool) {
	return s.registry.Find(id)
}

// ListFixtures returns all registered fixtures ordered by virtual ID.
func (s *Service) ListFixtures() []*Fixture {
	return s.registry.List()
}
