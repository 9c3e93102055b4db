package fixture

import (
	"math"
	"testing"

	"github.com/bbernstein/stagelights-go/internal/services/pubsub"
	"github.com/bbernstein/stagelights-go/internal/services/universe"
)

func newTestService() (*Service, *universe.Buffer, *pubsub.PubSub) {
	buf := universe.NewBuffer()
	events := pubsub.New()
	return NewService(buf, events), buf, events
}

func TestValidateAndRegister_AllocatesUniverse(t *testing.T) {
	s, buf, _ := newTestService()

	err := s.ValidateAndRegister(&Fixture{ID: 1, Type: TypeDimmable, Universe: 3, StartChannel: 1})
	if err != nil {
		t.Fatalf("ValidateAndRegister() error = %v", err)
	}

	found := false
	for _, u := range buf.ListUniverses() {
		if u == 3 {
			found = true
		}
	}
	if !found {
		t.Error("registering a fixture should allocate its universe")
	}
}

func TestValidateAndRegister_RejectionLeavesNoState(t *testing.T) {
	s, _, _ := newTestService()

	if err := s.ValidateAndRegister(&Fixture{ID: 0, Type: TypeDimmable, Universe: 0, StartChannel: 1}); err == nil {
		t.Fatal("ValidateAndRegister() should reject a non-positive ID")
	}
	if got := len(s.ListFixtures()); got != 0 {
		t.Errorf("fixtures after rejected registration = %d, want 0", got)
	}
}

func TestSetIntensityByID(t *testing.T) {
	s, buf, _ := newTestService()
	mustRegister(t, s, &Fixture{ID: 1, Type: TypeDimmable, Universe: 0, StartChannel: 1})

	if got := s.SetIntensityByID(1, 0.5); got != 0 {
		t.Errorf("SetIntensityByID returned universe %d, want 0", got)
	}
	if got := buf.GetChannel(0, 1); got != 128 {
		t.Errorf("channel 1 = %d, want 128", got)
	}

	if got := s.SetIntensityByID(99, 1.0); got != UniverseNotFound {
		t.Errorf("SetIntensityByID(unknown) = %d, want %d", got, UniverseNotFound)
	}
}

func TestSetColorRGBWByID(t *testing.T) {
	s, buf, _ := newTestService()
	mustRegister(t, s, &Fixture{ID: 1, Type: TypeRGBW, Universe: 0, StartChannel: 10})
	mustRegister(t, s, &Fixture{ID: 2, Type: TypeDimmable, Universe: 0, StartChannel: 30})

	if got := s.SetColorRGBWByID(1, 1, 1, 1, 1); got != 0 {
		t.Fatalf("SetColorRGBWByID returned universe %d, want 0", got)
	}
	for ch := 10; ch <= 13; ch++ {
		if got := buf.GetChannel(0, ch); got != 255 {
			t.Errorf("channel %d = %d, want 255", ch, got)
		}
	}

	// Dimmable fixtures have no color channels.
	if got := s.SetColorRGBWByID(2, 1, 1, 1, 1); got != UniverseNotFound {
		t.Errorf("SetColorRGBWByID(dimmable) = %d, want %d", got, UniverseNotFound)
	}
	if got := buf.GetChannel(0, 30); got != 0 {
		t.Errorf("dimmable channel = %d, want 0 after rejected color", got)
	}
}

func TestSetChannelByID(t *testing.T) {
	s, buf, _ := newTestService()
	mustRegister(t, s, &Fixture{ID: 1, Type: TypeMovingHead, Universe: 0, StartChannel: 100})

	if got := s.SetChannelByID(1, 7, 200); got != 0 {
		t.Errorf("SetChannelByID returned universe %d, want 0", got)
	}
	if got := buf.GetChannel(0, 107); got != 200 {
		t.Errorf("channel 107 = %d, want 200", got)
	}

	// Offset 8 is outside an 8-channel fixture.
	if got := s.SetChannelByID(1, 8, 200); got != UniverseNotFound {
		t.Errorf("SetChannelByID(offset=8) = %d, want %d", got, UniverseNotFound)
	}
	if got := s.SetChannelByID(1, -1, 200); got != UniverseNotFound {
		t.Errorf("SetChannelByID(offset=-1) = %d, want %d", got, UniverseNotFound)
	}
}

func TestStartFadeByID_AdvancesThroughTicks(t *testing.T) {
	s, buf, _ := newTestService()
	mustRegister(t, s, &Fixture{ID: 1, Type: TypeDimmable, Universe: 0, StartChannel: 1})

	if !s.StartFadeByID(1, 1.0, 2.0) {
		t.Fatal("StartFadeByID() = false, want true")
	}
	if got := s.ActiveFadeCount(); got != 1 {
		t.Fatalf("ActiveFadeCount = %d, want 1", got)
	}

	// 1.0s of 50ms ticks: intensity should be near 0.5.
	for i := 0; i < 20; i++ {
		s.TickFades(0.05)
	}
	mid := float64(buf.GetChannel(0, 1)) / 255.0
	if math.Abs(mid-0.5) > 0.03 {
		t.Errorf("intensity after 1.0s = %f, want ~0.5", mid)
	}

	// Run past the end: exactly full.
	for i := 0; i < 30; i++ {
		s.TickFades(0.05)
	}
	if got := buf.GetChannel(0, 1); got != 255 {
		t.Errorf("channel after fade completes = %d, want 255", got)
	}
	if got := s.ActiveFadeCount(); got != 0 {
		t.Errorf("ActiveFadeCount after completion = %d, want 0", got)
	}
}

func TestStartFadeByID_InstantAppliesTarget(t *testing.T) {
	s, buf, _ := newTestService()
	mustRegister(t, s, &Fixture{ID: 1, Type: TypeDimmable, Universe: 0, StartChannel: 1})

	if !s.StartFadeByID(1, 0.75, 0) {
		t.Fatal("StartFadeByID() = false, want true")
	}
	if got := s.ActiveFadeCount(); got != 0 {
		t.Errorf("instant fade should not be recorded, ActiveFadeCount = %d", got)
	}
	if got := buf.GetChannel(0, 1); got != Quantize(0.75) {
		t.Errorf("channel = %d, want %d", got, Quantize(0.75))
	}
}

func TestStartFadeByID_UnknownFixture(t *testing.T) {
	s, _, _ := newTestService()
	if s.StartFadeByID(42, 1.0, 1.0) {
		t.Error("StartFadeByID(unknown) = true, want false")
	}
}

func TestUnregister_CancelsFade(t *testing.T) {
	s, _, _ := newTestService()
	mustRegister(t, s, &Fixture{ID: 1, Type: TypeDimmable, Universe: 0, StartChannel: 1})

	s.StartFadeByID(1, 1.0, 10.0)
	if !s.Unregister(1) {
		t.Fatal("Unregister() = false, want true")
	}
	if got := s.ActiveFadeCount(); got != 0 {
		t.Errorf("ActiveFadeCount after unregister = %d, want 0", got)
	}

	if s.Unregister(1) {
		t.Error("Unregister of unknown fixture = true, want false")
	}
}

func TestAllOff(t *testing.T) {
	s, buf, _ := newTestService()
	mustRegister(t, s, &Fixture{ID: 1, Type: TypeDimmable, Universe: 0, StartChannel: 1})
	mustRegister(t, s, &Fixture{ID: 2, Type: TypeMovingHead, Universe: 1, StartChannel: 1})

	s.SetIntensityByID(1, 1.0)
	s.SetIntensityByID(2, 1.0)
	s.StartFadeByID(1, 0.2, 10)

	s.AllOff()

	if got := buf.GetChannel(0, 1); got != 0 {
		t.Errorf("dimmable intensity after AllOff = %d, want 0", got)
	}
	if got := buf.GetChannel(1, 3); got != 0 {
		t.Errorf("moving head dim channel after AllOff = %d, want 0", got)
	}
	if got := s.ActiveFadeCount(); got != 0 {
		t.Errorf("ActiveFadeCount after AllOff = %d, want 0", got)
	}
}

func TestChangeNotifications(t *testing.T) {
	s, _, events := newTestService()
	sub := events.Subscribe(pubsub.TopicFixtureChanged, 16)

	mustRegister(t, s, &Fixture{ID: 1, Type: TypeDimmable, Universe: 0, StartChannel: 1})
	s.SetIntensityByID(1, 0.5)

	select {
	case msg := <-sub.Channel:
		ev, ok := msg.(ChangedEvent)
		if !ok {
			t.Fatalf("event payload type %T, want ChangedEvent", msg)
		}
		if ev.FixtureID != 1 || ev.Universe != 0 || ev.Kind != "intensity" {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Fatal("no change notification published")
	}
}

func TestIsFixtureRDMCapable(t *testing.T) {
	s, _, _ := newTestService()
	mustRegister(t, s, &Fixture{ID: 1, Type: TypeRGB, Universe: 0, StartChannel: 1, RDMCapable: true, RDMUID: "UID-1"})
	mustRegister(t, s, &Fixture{ID: 2, Type: TypeRGB, Universe: 0, StartChannel: 10})

	if !s.IsFixtureRDMCapable(1) {
		t.Error("fixture 1 should be RDM capable")
	}
	if s.IsFixtureRDMCapable(2) {
		t.Error("fixture 2 should not be RDM capable")
	}
	if s.IsFixtureRDMCapable(3) {
		t.Error("unknown fixture should not be RDM capable")
	}
}

func mustRegister(t *testing.T, s *Service, f *Fixture) {
	t.Helper()
	if err := s.ValidateAndRegister(f); err != nil {
		t.Fatalf("ValidateAndRegister(%d) error = %v", f.ID, err)
	}
}
