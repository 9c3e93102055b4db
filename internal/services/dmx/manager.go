package dmx

import (
	"log"
	"net"
	"sort"
	"time"

	"github.com/bbernstein/stagelights-go/internal/services/pubsub"
	"github.com/bbernstein/stagelights-go/pkg/artnet"
)

// DefaultPollInterval is how often an ArtPoll broadcast goes out.
const DefaultPollInterval = 2.0 // seconds

// Node is a discovered Art-Net device, keyed by source IP. Nodes are
// updated on every reply and never removed automatically; liveness pruning
// is the RDM layer's job, not the node cache's.
type Node struct {
	IP                 string    `json:"ip"`
	Name               string    `json:"name"`
	LongName           string    `json:"longName"`
	NumOutputs         int       `json:"numOutputs"`
	UniversesPerOutput int       `json:"universesPerOutput"`
	LastSeen           time.Time `json:"lastSeen"`
}

// Manager owns the Art-Net transport plus node discovery: a periodic
// ArtPoll broadcast and a per-tick non-blocking drain of ArtPollReply
// datagrams.
type Manager struct {
	Transport *ArtNetTransport

	events       *pubsub.PubSub
	pollInterval float64
	sincePoll    float64

	recvConn *net.UDPConn
	readBuf  []byte

	nodes map[string]*Node
	now   func() time.Time
}

// NewManager creates a manager around the given transport.
func NewManager(transport *ArtNetTransport, events *pubsub.PubSub, pollInterval float64) *Manager {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Manager{
		Transport:    transport,
		events:       events,
		pollInterval: pollInterval,
		// First tick sends a poll immediately.
		sincePoll: pollInterval,
		readBuf:   make([]byte, 1024),
		nodes:     make(map[string]*Node),
		now:       time.Now,
	}
}

// Initialize opens the transport and the discovery receive socket. A
// failure to bind the receive socket disables discovery but leaves DMX
// output working.
func (m *Manager) Initialize() error {
	if err := m.Transport.Initialize(); err != nil {
		return err
	}

	listenAddr := &net.UDPAddr{IP: net.IPv4zero, Port: m.Transport.Config().Port}
	conn, err := net.ListenUDP("udp4", listenAddr)
	if err != nil {
		log.Printf("📡 Art-Net discovery disabled, cannot bind %v: %v", listenAddr, err)
		return nil
	}
	m.recvConn = conn
	log.Printf("📡 Art-Net discovery listening on %v, polling every %.1fs", listenAddr, m.pollInterval)
	return nil
}

// Shutdown closes the discovery socket and the transport.
func (m *Manager) Shutdown() {
	if m.recvConn != nil {
		_ = m.recvConn.Close()
		m.recvConn = nil
	}
	m.Transport.Shutdown()
}

// Tick drains any pending discovery replies and, every poll interval,
// broadcasts a fresh ArtPoll. It never blocks.
func (m *Manager) Tick(dt float64) {
	m.drainReplies()

	m.sincePoll += dt
	if m.sincePoll >= m.pollInterval {
		m.sincePoll = 0
		m.sendPoll()
	}
}

// Nodes returns copies of the discovered nodes ordered by IP.
func (m *Manager) Nodes() []Node {
	out := make([]Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IP < out[j].IP })
	return out
}

// sendPoll broadcasts an ArtPoll from the discovery socket so replies come
// back to it.
func (m *Manager) sendPoll() {
	if m.recvConn == nil {
		return
	}

	cfg := m.Transport.Config()
	dest := &net.UDPAddr{IP: net.ParseIP(cfg.BroadcastAddr), Port: cfg.Port}
	if dest.IP == nil {
		return
	}

	if _, err := m.recvConn.WriteToUDP(artnet.BuildPollPacket(), dest); err != nil {
		log.Printf("📡 ArtPoll send error: %v", err)
	}
}

// drainReplies reads every pending datagram without blocking the tick.
func (m *Manager) drainReplies() {
	if m.recvConn == nil {
		return
	}

	for {
		_ = m.recvConn.SetReadDeadline(time.Now().Add(time.Millisecond))
		n, src, err := m.recvConn.ReadFromUDP(m.readBuf)
		if err != nil {
			// Timeout means nothing pending; anything else also ends the
			// drain for this tick.
			return
		}
		m.handleDatagram(m.readBuf[:n], src.IP.String())
	}
}

// handleDatagram updates the node cache from one datagram. Malformed or
// unrelated packets are silently discarded: the wire is shared with
// arbitrary broadcast traffic, including our own ArtPoll.
func (m *Manager) handleDatagram(data []byte, srcIP string) {
	reply, ok := artnet.ParsePollReply(data)
	if !ok {
		return
	}

	if existing, ok := m.nodes[srcIP]; ok {
		existing.Name = reply.ShortName
		existing.LongName = reply.LongName
		existing.NumOutputs = reply.NumPorts
		existing.LastSeen = m.now()
		return
	}

	node := &Node{
		IP:                 srcIP,
		Name:               reply.ShortName,
		LongName:           reply.LongName,
		NumOutputs:         reply.NumPorts,
		UniversesPerOutput: 1,
		LastSeen:           m.now(),
	}
	m.nodes[srcIP] = node
	log.Printf("📡 Art-Net node discovered: %s (%q, %d outputs)", srcIP, reply.ShortName, reply.NumPorts)
	m.events.Publish(pubsub.TopicNodeDiscovered, *node)
}
