// Package network provides utilities for network interface enumeration
// and broadcast-address selection for Art-Net output.
package network

import (
	"fmt"
	"net"
)

// InterfaceOption represents a candidate interface for Art-Net broadcast.
type InterfaceOption struct {
	Name      string
	Address   string
	Broadcast string
}

// ListOptions enumerates up, non-loopback IPv4 interfaces with their
// computed broadcast addresses.
func ListOptions() ([]InterfaceOption, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate interfaces: %w", err)
	}

	var options []InterfaceOption
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			bcast := CalculateBroadcast(ipnet.IP, ipnet.Mask)
			if bcast == nil {
				continue
			}
			options = append(options, InterfaceOption{
				Name:      iface.Name,
				Address:   ipnet.IP.String(),
				Broadcast: bcast.String(),
			})
		}
	}

	return options, nil
}

// DefaultBroadcast picks a broadcast address for Art-Net output: the first
// usable interface's broadcast, falling back to the limited broadcast
// address when nothing better exists.
func DefaultBroadcast() string {
	options, err := ListOptions()
	if err != nil || len(options) == 0 {
		return "255.255.255.255"
	}
	return options[0].Broadcast
}

// CalculateBroadcast computes the directed broadcast address from an IPv4
// address and netmask. Returns nil for non-IPv4 input.
func CalculateBroadcast(ip net.IP, mask net.IPMask) net.IP {
	if ip == nil || mask == nil {
		return nil
	}

	ip4 := ip.To4()
	if ip4 == nil {
		return nil
	}
	if len(mask) == 16 {
		mask = mask[12:16]
	}
	if len(mask) != 4 {
		return nil
	}

	bcast := make(net.IP, 4)
	for i := 0; i < 4; i++ {
		bcast[i] = ip4[i] | ^mask[i]
	}
	return bcast
}
