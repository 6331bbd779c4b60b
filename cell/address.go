package cell

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net/netip"

	"golang.org/x/crypto/cryptobyte"
)

// AddrType is the ATYPE tag of an address (tor-spec §6.4).
type AddrType uint8

const (
	AddrHostname       AddrType = 0x00
	AddrIPv4           AddrType = 0x04
	AddrIPv6           AddrType = 0x06
	AddrErrorTransient AddrType = 0xF0
	AddrErrorPermanent AddrType = 0xF1
)

var addrTypeNames = map[AddrType]string{
	AddrHostname:       "HOSTNAME",
	AddrIPv4:           "IPv4",
	AddrIPv6:           "IPv6",
	AddrErrorTransient: "ERROR_TRANSIENT",
	AddrErrorPermanent: "ERROR_PERMANENT",
}

// Known reports whether t is one of the defined address types. Unknown tags
// are carried through decoding unchanged.
func (t AddrType) Known() bool {
	_, ok := addrTypeNames[t]
	return ok
}

func (t AddrType) String() string {
	if s, ok := addrTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
}

// Address is a typed network address as carried by NETINFO.
type Address struct {
	Type  AddrType
	Value []byte
}

// AddressFromIP returns the IPv4 or IPv6 address for ip.
func AddressFromIP(ip netip.Addr) Address {
	ip = ip.Unmap()
	if ip.Is4() {
		b := ip.As4()
		return Address{Type: AddrIPv4, Value: b[:]}
	}
	b := ip.As16()
	return Address{Type: AddrIPv6, Value: b[:]}
}

// IP returns the address as a netip.Addr for IPv4 and IPv6 types.
func (a Address) IP() (netip.Addr, bool) {
	switch {
	case a.Type == AddrIPv4 && len(a.Value) == 4:
		return netip.AddrFrom4([4]byte(a.Value)), true
	case a.Type == AddrIPv6 && len(a.Value) == 16:
		return netip.AddrFrom16([16]byte(a.Value)), true
	}
	return netip.Addr{}, false
}

// Equal reports whether a and o have the same type and value.
func (a Address) Equal(o Address) bool {
	return a.Type == o.Type && bytes.Equal(a.Value, o.Value)
}

func (a Address) String() string {
	if ip, ok := a.IP(); ok {
		return ip.String()
	}
	if a.Type == AddrHostname {
		return string(a.Value)
	}
	return fmt.Sprintf("%s:%s", a.Type, hex.EncodeToString(a.Value))
}

func (a Address) marshal(b *cryptobyte.Builder) {
	switch {
	case a.Type == AddrIPv4 && len(a.Value) != 4:
		b.SetError(fmt.Errorf("IPv4 address must be 4 bytes, got %d", len(a.Value)))
		return
	case a.Type == AddrIPv6 && len(a.Value) != 16:
		b.SetError(fmt.Errorf("IPv6 address must be 16 bytes, got %d", len(a.Value)))
		return
	}
	b.AddUint8(uint8(a.Type))
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(a.Value)
	})
}

// readAddress pops one type/length/value address off s.
func readAddress(s *cryptobyte.String, cell string) (Address, error) {
	var typ, n uint8
	if avail := len(*s); !s.ReadUint8(&typ) || !s.ReadUint8(&n) {
		return Address{}, malformed(cell, "address header", 2, avail)
	}
	var v []byte
	if !s.ReadBytes(&v, int(n)) {
		return Address{}, malformed(cell, "address value", int(n), len(*s))
	}
	a := Address{Type: AddrType(typ), Value: cloneBytes(v)}
	switch {
	case a.Type == AddrIPv4 && n != 4:
		return Address{}, malformed(cell, "IPv4 address length", 4, int(n))
	case a.Type == AddrIPv6 && n != 16:
		return Address{}, malformed(cell, "IPv6 address length", 16, int(n))
	}
	return a, nil
}
