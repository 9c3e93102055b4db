// Package dmx provides the DMX transport abstraction and its Art-Net and
// serial implementations.
package dmx

// Mode selects which transport the controller drives.
type Mode string

const (
	ModeUSBSerial Mode = "usbserial"
	ModeArtNet    Mode = "artnet"
	ModeSACN      Mode = "sacn" // recognized but not implemented
)

// Transport abstracts "send these 512 bytes for this universe to the
// wire". Implementations must never block the tick: any slow hardware I/O
// belongs on the transport's own goroutine.
type Transport interface {
	// Initialize opens the underlying device or socket.
	Initialize() error
	// Shutdown closes it. Safe to call repeatedly.
	Shutdown()
	// IsConnected reports whether output can currently reach hardware.
	IsConnected() bool
	// SendDMX transmits one universe's 512 channel bytes. A failure only
	// degrades this frame for this universe; callers keep flushing others.
	SendDMX(universe int, channels []byte) error
}
