// Package controller orchestrates the lighting engine: it owns the
// universe buffer, the fixture service, the active DMX transport, and the
// optional RDM cache, and drives all of them from a single tick.
package controller

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/bbernstein/stagelights-go/internal/config"
	"github.com/bbernstein/stagelights-go/internal/services/dmx"
	"github.com/bbernstein/stagelights-go/internal/services/fixture"
	"github.com/bbernstein/stagelights-go/internal/services/pubsub"
	"github.com/bbernstein/stagelights-go/internal/services/rdm"
	"github.com/bbernstein/stagelights-go/internal/services/universe"
)

// Controller is the top-level orchestrator. All engine state is owned by
// the tick goroutine; other goroutines reach it through Do/Enqueue.
type Controller struct {
	cfg *config.Config

	buffer   *universe.Buffer
	fixtures *fixture.Service
	events   *pubsub.PubSub

	transport dmx.Transport
	artnet    *dmx.Manager
	rdmCache  *rdm.Service

	initialized bool
	rdmAccum    float64

	commands    chan func()
	loopRunning atomic.Bool
	loopDone    chan struct{}
}

// New wires the engine components together. Initialize must still be
// called before ticking produces output.
func New(cfg *config.Config, events *pubsub.PubSub) *Controller {
	buf := universe.NewBuffer()

	c := &Controller{
		cfg:      cfg,
		buffer:   buf,
		fixtures: fixture.NewService(buf, events),
		events:   events,
		commands: make(chan func(), 256),
		loopDone: make(chan struct{}),
	}
	if cfg.RDMEnabled {
		c.rdmCache = rdm.NewService(events)
	}
	return c
}

// Initialize selects and opens the transport for the configured mode. It
// fails closed: on any failure the controller reports false, no transport
// is kept, and Tick remains a no-op, so a flush can never hit a nil
// transport.
func (c *Controller) Initialize() bool {
	switch c.cfg.Mode() {
	case dmx.ModeArtNet:
		transport := dmx.NewArtNetTransport(dmx.ArtNetConfig{
			BroadcastAddr: c.cfg.ArtNetBroadcast,
			Port:          c.cfg.ArtNetPort,
			Net:           c.cfg.ArtNetNet,
			Subnet:        c.cfg.ArtNetSubnet,
		})
		manager := dmx.NewManager(transport, c.events, c.cfg.ArtNetPollInterval)
		if err := manager.Initialize(); err != nil {
			log.Printf("🎭 Art-Net transport initialization failed: %v", err)
			return false
		}
		c.artnet = manager
		c.transport = transport

	case dmx.ModeUSBSerial:
		transport := dmx.NewSerialTransport(c.cfg.SerialPort, c.cfg.SerialBaud)
		if err := transport.Initialize(); err != nil {
			log.Printf("🎭 Serial transport initialization failed: %v", err)
			return false
		}
		c.transport = transport

	case dmx.ModeSACN:
		log.Printf("🎭 sACN output is not implemented")
		return false

	default:
		log.Printf("🎭 Unknown DMX mode %q", c.cfg.DMXMode)
		return false
	}

	c.initialized = true
	log.Printf("🎭 Lighting controller initialized (%s mode, %d Hz)", c.cfg.DMXMode, c.cfg.TickRate)
	return true
}

// IsInitialized reports whether a transport is active.
func (c *Controller) IsInitialized() bool {
	return c.initialized
}

// Fixtures returns the fixture service. Callers off the tick goroutine
// must wrap access in Do.
func (c *Controller) Fixtures() *fixture.Service {
	return c.fixtures
}

// RDM returns the RDM cache, or nil when RDM is disabled.
func (c *Controller) RDM() *rdm.Service {
	return c.rdmCache
}

// Nodes returns the discovered Art-Net nodes, or nil in serial mode.
func (c *Controller) Nodes() []dmx.Node {
	if c.artnet == nil {
		return nil
	}
	return c.artnet.Nodes()
}

// Enqueue schedules a command to run at the start of the next tick.
func (c *Controller) Enqueue(fn func()) {
	c.commands <- fn
}

// Do runs a command on the tick goroutine and waits for it. When no tick
// loop is running (tests, shutdown) the command executes inline. If the
// loop exits before draining the command, Do runs it itself rather than
// block forever; the CAS guarantees exactly one execution either way.
func (c *Controller) Do(fn func()) {
	if !c.loopRunning.Load() {
		fn()
		return
	}

	var ran atomic.Bool
	done := make(chan struct{})
	c.commands <- func() {
		if ran.CompareAndSwap(false, true) {
			fn()
		}
		close(done)
	}

	select {
	case <-done:
	case <-c.loopDone:
		if ran.CompareAndSwap(false, true) {
			fn()
		}
	}
}

// Tick advances the engine by dt seconds. Order matters: queued commands,
// then fades (so the buffer reflects fade state before output), then the
// flush, then discovery work. A no-op until Initialize succeeds.
func (c *Controller) Tick(dt float64) {
	if !c.initialized {
		return
	}

	c.drainCommands()

	c.fixtures.TickFades(dt)

	if !c.cfg.RDMOnly {
		c.flush()
	}

	if c.artnet != nil {
		c.artnet.Tick(dt)
	}

	if c.rdmCache != nil {
		c.rdmAccum += dt
		if c.rdmAccum >= c.cfg.RDMPollInterval {
			c.rdmAccum = 0
			// The wire-level RDM poll exchange is gateway-specific and runs
			// outside the engine; by the time we prune, its results have
			// arrived through AddOrUpdate/MarkOnline on the tick goroutine.
			offlineIDs, removedUIDs := c.rdmCache.Prune(
				c.cfg.RDMOfflineThreshold(),
				c.cfg.RDMRemoveThreshold(),
				c.fixtures.Registry().RDMToVirtual(),
			)
			if len(offlineIDs) > 0 {
				log.Printf("🎭 Fixtures offline via RDM: %v", offlineIDs)
			}
			if len(removedUIDs) > 0 {
				log.Printf("🎭 RDM devices pruned: %v", removedUIDs)
			}
		}
	}
}

// drainCommands runs every queued command without blocking.
func (c *Controller) drainCommands() {
	for {
		select {
		case fn := <-c.commands:
			fn()
		default:
			return
		}
	}
}

// flush sends every allocated universe to the transport. One universe's
// send failure must not prevent flushing the rest.
func (c *Controller) flush() {
	for _, u := range c.buffer.ListUniverses() {
		if c.cfg.Mode() == dmx.ModeArtNet && u > c.cfg.ArtNetMaxUniverse {
			continue
		}
		if err := c.transport.SendDMX(u, c.buffer.Channels(u)); err != nil {
			log.Printf("🎭 DMX send error for universe %d: %v", u, err)
		}
	}
}

// Run drives Tick at the configured rate until the context is cancelled.
func (c *Controller) Run(ctx context.Context) {
	interval := c.cfg.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.loopRunning.Store(true)
	defer func() {
		c.loopRunning.Store(false)
		close(c.loopDone)
	}()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			c.Tick(dt)
		}
	}
}

// Shutdown closes the transport and clears caches. The controller is not
// reusable afterwards.
func (c *Controller) Shutdown() {
	if !c.initialized {
		return
	}
	c.initialized = false

	if c.artnet != nil {
		c.artnet.Shutdown()
	} else if c.transport != nil {
		c.transport.Shutdown()
	}
	if c.rdmCache != nil {
		c.rdmCache.Clear()
	}
	log.Printf("🎭 Lighting controller stopped")
}
