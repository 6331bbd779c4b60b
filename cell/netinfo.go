package cell

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/crypto/cryptobyte"
)

// Netinfo is a NETINFO cell: the sender's clock, the address it sees for the
// receiver, and its own addresses.
//
// A zero Timestamp is sent as 0, which clients use to avoid fingerprinting,
// and a 0 on the wire decodes back to the zero time, so the Unix epoch itself
// cannot be carried. Decoded timestamps are whole seconds in UTC. Cells built
// with NewNetinfo are already in that form and survive a round trip
// unchanged; for other cells compare timestamps with time.Time.Equal.
type Netinfo struct {
	Timestamp time.Time
	Receiver  Address
	Senders   []Address
}

// NewNetinfo returns a NETINFO cell with the timestamp truncated to seconds
// in UTC. The epoch maps to the zero time, as it does on the wire.
func NewNetinfo(ts time.Time, receiver Address, senders ...Address) Netinfo {
	switch {
	case ts.IsZero() || ts.Unix() == 0:
		ts = time.Time{}
	default:
		ts = time.Unix(ts.Unix(), 0).UTC()
	}
	return Netinfo{Timestamp: ts, Receiver: receiver, Senders: senders}
}

func (Netinfo) Command() Command { return CmdNetInfo }

func (c Netinfo) MarshalPayload() ([]byte, error) { return marshalPayload(c) }

func (c Netinfo) marshal(b *cryptobyte.Builder) {
	var ts uint32
	if !c.Timestamp.IsZero() {
		sec := c.Timestamp.Unix()
		if sec < 0 || sec > math.MaxUint32 {
			b.SetError(fmt.Errorf("NETINFO timestamp %v out of range", c.Timestamp))
			return
		}
		ts = uint32(sec)
	}
	if len(c.Senders) > math.MaxUint8 {
		b.SetError(fmt.Errorf("NETINFO has %d sender addresses, max %d", len(c.Senders), math.MaxUint8))
		return
	}
	b.AddUint32(ts)
	c.Receiver.marshal(b)
	b.AddUint8(uint8(len(c.Senders)))
	for _, a := range c.Senders {
		a.marshal(b)
	}
}

// decodeNetinfo stops after the declared sender addresses; the zero padding
// that follows is not interpreted.
func decodeNetinfo(s cryptobyte.String) (Cell, error) {
	var ts uint32
	if !s.ReadUint32(&ts) {
		return nil, malformed("NETINFO", "timestamp", 4, len(s))
	}
	var c Netinfo
	if ts != 0 {
		c.Timestamp = time.Unix(int64(ts), 0).UTC()
	}

	var err error
	if c.Receiver, err = readAddress(&s, "NETINFO"); err != nil {
		return nil, err
	}

	var n uint8
	if !s.ReadUint8(&n) {
		return nil, malformed("NETINFO", "sender address count", 1, 0)
	}
	for i := 0; i < int(n); i++ {
		if s.Empty() {
			return nil, malformed("NETINFO", "sender address count", int(n), i)
		}
		a, err := readAddress(&s, "NETINFO")
		if err != nil {
			return nil, err
		}
		c.Senders = append(c.Senders, a)
	}
	return c, nil
}
