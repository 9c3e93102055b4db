package network

import (
	"net"
	"testing"
)

func TestCalculateBroadcast(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		mask net.IPMask
		want string
	}{
		{name: "/24", ip: "192.168.1.50", mask: net.CIDRMask(24, 32), want: "192.168.1.255"},
		{name: "/16", ip: "10.1.2.3", mask: net.CIDRMask(16, 32), want: "10.1.255.255"},
		{name: "/30", ip: "172.16.0.5", mask: net.CIDRMask(30, 32), want: "172.16.0.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateBroadcast(net.ParseIP(tt.ip), tt.mask)
			if got == nil || got.String() != tt.want {
				t.Errorf("CalculateBroadcast(%s) = %v, want %s", tt.ip, got, tt.want)
			}
		})
	}
}

func TestCalculateBroadcast_RejectsBadInput(t *testing.T) {
	if got := CalculateBroadcast(nil, net.CIDRMask(24, 32)); got != nil {
		t.Errorf("CalculateBroadcast(nil ip) = %v, want nil", got)
	}
	if got := CalculateBroadcast(net.ParseIP("::1"), net.CIDRMask(64, 128)); got != nil {
		t.Errorf("CalculateBroadcast(IPv6) = %v, want nil", got)
	}
}

func TestDefaultBroadcast_AlwaysReturnsSomething(t *testing.T) {
	if got := DefaultBroadcast(); got == "" {
		t.Error("DefaultBroadcast() returned an empty address")
	}
}
