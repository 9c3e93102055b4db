// Package artnet provides Art-Net protocol packet building and parsing.
package artnet

import (
	"encoding/binary"
	"strings"
)

const (
	// OpCodeDMX is the Art-Net operation code for DMX data.
	OpCodeDMX uint16 = 0x5000
	// OpCodePoll is the Art-Net operation code for node discovery polls.
	OpCodePoll uint16 = 0x2000
	// OpCodePollReply is the Art-Net operation code for discovery replies.
	OpCodePollReply uint16 = 0x2100
	// ProtocolVersion is the Art-Net protocol version.
	ProtocolVersion uint16 = 14
	// DMXDataLength is the number of DMX channels per universe.
	DMXDataLength uint16 = 512
	// DMXPacketSize is the total size of an Art-Net DMX packet.
	DMXPacketSize = 18 + DMXDataLength // Header (18) + Data (512)
	// PollPacketSize is the total size of an ArtPoll packet.
	PollPacketSize = 16
	// PollReplyMinSize is the minimum parseable ArtPollReply size.
	PollReplyMinSize = 240
	// DefaultPort is the standard Art-Net UDP port.
	DefaultPort = 6454
)

// ArtNetID is the Art-Net packet identifier.
var ArtNetID = []byte{'A', 'r', 't', '-', 'N', 'e', 't', 0x00}

// ArtPollReply field offsets per the Art-Net 4 specification.
const (
	pollReplyShortNameOffset = 26
	pollReplyShortNameLen    = 18
	pollReplyLongNameOffset  = 44
	pollReplyLongNameLen     = 64
	pollReplyPortCountOffset = 173
)

// EncodeUniverse packs a net/subnet/universe triple into the 15-bit
// port address carried in an ArtDmx packet. The low byte holds
// subnet*16+universe, the high byte holds the net.
func EncodeUniverse(net, subnet, universe int) uint16 {
	return uint16(net&0x7f)<<8 | uint16(subnet&0x0f)<<4 | uint16(universe&0x0f)
}

// BuildDMXPacket creates an Art-Net DMX packet for the given port address.
// Channels should be exactly 512 bytes; shorter input is zero-padded.
// Sequence should increment for each packet (0-255, wraps around) so
// receivers can detect out-of-order UDP packets.
func BuildDMXPacket(portAddress uint16, channels []byte, sequence byte) []byte {
	packet := make([]byte, DMXPacketSize)

	copy(packet[0:8], ArtNetID)                                // ID (8 bytes): "Art-Net\0"
	binary.LittleEndian.PutUint16(packet[8:10], OpCodeDMX)     // OpCode (2 bytes): 0x5000
	binary.BigEndian.PutUint16(packet[10:12], ProtocolVersion) // Protocol version (2 bytes): 14
	packet[12] = sequence                                      // Sequence (1 byte)
	packet[13] = 0                                             // Physical input port (1 byte)
	binary.LittleEndian.PutUint16(packet[14:16], portAddress)  // Port address (2 bytes)
	binary.BigEndian.PutUint16(packet[16:18], DMXDataLength)   // Data length (2 bytes): 512

	if len(channels) >= int(DMXDataLength) {
		copy(packet[18:], channels[:DMXDataLength])
	} else {
		copy(packet[18:18+len(channels)], channels)
	}

	return packet
}

// BuildPollPacket creates an ArtPoll broadcast packet asking all nodes on
// the subnet to reply with an ArtPollReply.
func BuildPollPacket() []byte {
	packet := make([]byte, PollPacketSize)

	copy(packet[0:8], ArtNetID)
	binary.LittleEndian.PutUint16(packet[8:10], OpCodePoll)
	binary.BigEndian.PutUint16(packet[10:12], ProtocolVersion)
	packet[12] = 0x00 // Flags
	packet[13] = 0x02 // TalkToMe: send reply on any change
	// Bytes 14-15 are reserved and stay zero.

	return packet
}

// DMXPacket is a parsed ArtDmx packet.
type DMXPacket struct {
	Sequence    byte
	Physical    byte
	PortAddress uint16
	Length      int
	Channels    [512]byte
}

// ParseDMXPacket parses an ArtDmx packet. It returns false for any datagram
// that is too short, carries the wrong signature, or carries a different
// opcode; such traffic is expected on a shared wire and is not an error.
func ParseDMXPacket(data []byte) (DMXPacket, bool) {
	if len(data) < 18 {
		return DMXPacket{}, false
	}
	if !hasArtNetID(data) {
		return DMXPacket{}, false
	}
	if binary.LittleEndian.Uint16(data[8:10]) != OpCodeDMX {
		return DMXPacket{}, false
	}

	length := int(binary.BigEndian.Uint16(data[16:18]))
	if len(data) < 18+length {
		return DMXPacket{}, false
	}

	pkt := DMXPacket{
		Sequence:    data[12],
		Physical:    data[13],
		PortAddress: binary.LittleEndian.Uint16(data[14:16]),
		Length:      length,
	}
	copy(pkt.Channels[:], data[18:18+length])

	return pkt, true
}

// PollReply is the subset of an ArtPollReply this engine cares about.
type PollReply struct {
	ShortName string
	LongName  string
	NumPorts  int
}

// ParsePollReply parses an ArtPollReply packet. Replies shorter than the
// minimum size or with a bad signature/opcode are discarded (false).
func ParsePollReply(data []byte) (PollReply, bool) {
	if len(data) < PollReplyMinSize {
		return PollReply{}, false
	}
	if !hasArtNetID(data) {
		return PollReply{}, false
	}
	if binary.LittleEndian.Uint16(data[8:10]) != OpCodePollReply {
		return PollReply{}, false
	}

	// NumPorts is carried as a nibble pair; real nodes report at least one
	// output port, so clamp to 1.
	numPorts := int(data[pollReplyPortCountOffset])*16 + int(data[pollReplyPortCountOffset+1])
	if numPorts < 1 {
		numPorts = 1
	}

	return PollReply{
		ShortName: cString(data[pollReplyShortNameOffset : pollReplyShortNameOffset+pollReplyShortNameLen]),
		LongName:  cString(data[pollReplyLongNameOffset : pollReplyLongNameOffset+pollReplyLongNameLen]),
		NumPorts:  numPorts,
	}, true
}

// hasArtNetID reports whether the datagram starts with "Art-Net\0".
func hasArtNetID(data []byte) bool {
	for i, b := range ArtNetID {
		if data[i] != b {
			return false
		}
	}
	return true
}

// cString extracts a null-terminated ASCII string from a fixed-size field.
func cString(field []byte) string {
	if i := strings.IndexByte(string(field), 0); i >= 0 {
		return string(field[:i])
	}
	return string(field)
}
