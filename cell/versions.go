package cell

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// Versions is a VERSIONS cell listing supported link protocol versions in
// the sender's order of preference.
type Versions struct {
	Versions []uint16
}

func (Versions) Command() Command { return CmdVersions }

func (c Versions) MarshalPayload() ([]byte, error) { return marshalPayload(c) }

func (c Versions) marshal(b *cryptobyte.Builder) {
	for _, v := range c.Versions {
		b.AddUint16(v)
	}
}

func decodeVersions(s cryptobyte.String) (Cell, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: VERSIONS payload of %d bytes has a trailing partial entry", ErrMalformed, len(s))
	}
	var c Versions
	for !s.Empty() {
		var v uint16
		s.ReadUint16(&v)
		c.Versions = append(c.Versions, v)
	}
	return c, nil
}

// Highest returns the highest version present in both c and ours, or 0 if
// there is none.
func (c Versions) Highest(ours []uint16) uint16 {
	var best uint16
	for _, v := range c.Versions {
		for _, o := range ours {
			if v == o && v > best {
				best = v
			}
		}
	}
	return best
}
