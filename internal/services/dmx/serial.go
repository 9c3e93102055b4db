package dmx

import (
	"errors"
	"log"
)

// ErrSerialNotImplemented is returned by every serial output attempt.
var ErrSerialNotImplemented = errors.New("usb-serial dmx transport not implemented")

// SerialTransport is a placeholder for a USB-serial DMX interface. No
// framing is implemented; it always reports disconnected so the controller
// fails closed rather than pretending to drive hardware.
type SerialTransport struct {
	Port string
	Baud int
}

// NewSerialTransport creates the stub for the given port settings.
func NewSerialTransport(port string, baud int) *SerialTransport {
	return &SerialTransport{Port: port, Baud: baud}
}

// Initialize logs the stub status and fails.
func (t *SerialTransport) Initialize() error {
	log.Printf("🔌 USB-serial DMX requested on %s @ %d baud, but no driver is implemented", t.Port, t.Baud)
	return ErrSerialNotImplemented
}

// Shutdown is a no-op.
func (t *SerialTransport) Shutdown() {}

// IsConnected always reports false.
func (t *SerialTransport) IsConnected() bool { return false }

// SendDMX always fails.
func (t *SerialTransport) SendDMX(int, []byte) error {
	return ErrSerialNotImplemented
}
