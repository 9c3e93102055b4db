package dmx

import (
	"fmt"
	"log"
	"net"
	"strconv"

	"github.com/bbernstein/stagelights-go/internal/services/network"
	"github.com/bbernstein/stagelights-go/pkg/artnet"
)

// ArtNetConfig holds Art-Net output settings.
type ArtNetConfig struct {
	// BroadcastAddr is the target for ArtDmx and ArtPoll packets. Empty
	// means "pick the first usable interface's broadcast address".
	BroadcastAddr string
	Port          int
	Net           int
	Subnet        int
}

// ArtNetTransport sends DMX universes as ArtDmx broadcast packets.
type ArtNetTransport struct {
	cfg       ArtNetConfig
	conn      *net.UDPConn
	sequence  byte
	connected bool
}

// NewArtNetTransport creates an Art-Net transport. Zero-value port falls
// back to the standard Art-Net port.
func NewArtNetTransport(cfg ArtNetConfig) *ArtNetTransport {
	if cfg.Port <= 0 {
		cfg.Port = artnet.DefaultPort
	}
	if cfg.BroadcastAddr == "" {
		cfg.BroadcastAddr = network.DefaultBroadcast()
	}
	return &ArtNetTransport{cfg: cfg}
}

// Initialize opens the UDP socket toward the broadcast address.
func (t *ArtNetTransport) Initialize() error {
	addr, err := net.ResolveUDPAddr("udp4", t.cfg.BroadcastAddr+":"+strconv.Itoa(t.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to resolve art-net address: %w", err)
	}

	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return fmt.Errorf("failed to open art-net socket: %w", err)
	}

	t.conn = conn
	t.connected = true
	log.Printf("📡 Art-Net output enabled, broadcasting to %s:%d (net %d, subnet %d)",
		t.cfg.BroadcastAddr, t.cfg.Port, t.cfg.Net, t.cfg.Subnet)
	return nil
}

// Shutdown closes the socket.
func (t *ArtNetTransport) Shutdown() {
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	t.connected = false
}

// IsConnected reports whether the socket is open.
func (t *ArtNetTransport) IsConnected() bool {
	return t.connected && t.conn != nil
}

// SendDMX broadcasts one universe as an ArtDmx packet. The sequence number
// increments per packet and wraps at 255.
func (t *ArtNetTransport) SendDMX(universe int, channels []byte) error {
	if !t.IsConnected() {
		return fmt.Errorf("art-net transport not connected")
	}

	t.sequence++
	portAddress := artnet.EncodeUniverse(t.cfg.Net, t.cfg.Subnet, universe)
	packet := artnet.BuildDMXPacket(portAddress, channels, t.sequence)

	if _, err := t.conn.Write(packet); err != nil {
		return fmt.Errorf("art-net send failed for universe %d: %w", universe, err)
	}
	return nil
}

// Config returns the transport's effective configuration.
func (t *ArtNetTransport) Config() ArtNetConfig {
	return t.cfg
}
