package cell

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// Padding is a fixed-size PADDING cell. Its payload is ignored by the peer.
type Padding struct {
	Payload [FixedPayloadLen]byte
}

// NewPadding returns a PADDING cell with a random payload.
func NewPadding() (Padding, error) {
	var p Padding
	if _, err := rand.Read(p.Payload[:]); err != nil {
		return Padding{}, fmt.Errorf("generate padding: %w", err)
	}
	return p, nil
}

func (Padding) Command() Command { return CmdPadding }

func (c Padding) MarshalPayload() ([]byte, error) { return marshalPayload(c) }

func (c Padding) marshal(b *cryptobyte.Builder) {
	b.AddBytes(c.Payload[:])
}

func decodePadding(s cryptobyte.String) (Cell, error) {
	if len(s) != FixedPayloadLen {
		return nil, malformed("PADDING", "payload", FixedPayloadLen, len(s))
	}
	var c Padding
	copy(c.Payload[:], s)
	return c, nil
}

// VPadding is a variable-size VPADDING cell.
type VPadding struct {
	Payload []byte
}

type vpaddingOptions struct {
	size    int
	payload []byte
	hasSize bool
	hasData bool
}

// VPaddingOption configures NewVPadding.
type VPaddingOption func(*vpaddingOptions)

// WithSize asks for n random payload bytes.
func WithSize(n int) VPaddingOption {
	return func(o *vpaddingOptions) {
		o.size = n
		o.hasSize = true
	}
}

// WithPayload uses p as the payload.
func WithPayload(p []byte) VPaddingOption {
	return func(o *vpaddingOptions) {
		o.payload = p
		o.hasData = true
	}
}

// NewVPadding builds a VPADDING cell from exactly one of WithSize or
// WithPayload. Passing both fails with ErrConflictingArguments.
func NewVPadding(opts ...VPaddingOption) (VPadding, error) {
	var o vpaddingOptions
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case o.hasSize && o.hasData:
		return VPadding{}, fmt.Errorf("%w: VPADDING caller specified both a size of %d bytes and payload of %d bytes",
			ErrConflictingArguments, o.size, len(o.payload))
	case o.hasData:
		if len(o.payload) > MaxVarPayloadLen {
			return VPadding{}, fmt.Errorf("VPADDING payload is %d bytes, max %d", len(o.payload), MaxVarPayloadLen)
		}
		return VPadding{Payload: cloneBytes(o.payload)}, nil
	case o.hasSize:
		if o.size < 0 || o.size > MaxVarPayloadLen {
			return VPadding{}, fmt.Errorf("VPADDING size %d out of range [0, %d]", o.size, MaxVarPayloadLen)
		}
		if o.size == 0 {
			return VPadding{}, nil
		}
		p := make([]byte, o.size)
		if _, err := rand.Read(p); err != nil {
			return VPadding{}, fmt.Errorf("generate padding: %w", err)
		}
		return VPadding{Payload: p}, nil
	}
	return VPadding{}, errors.New("VPADDING caller must specify either a size or payload")
}

func (VPadding) Command() Command { return CmdVPadding }

func (c VPadding) MarshalPayload() ([]byte, error) { return marshalPayload(c) }

func (c VPadding) marshal(b *cryptobyte.Builder) {
	b.AddBytes(c.Payload)
}

func decodeVPadding(s cryptobyte.String) (Cell, error) {
	return VPadding{Payload: cloneBytes(s)}, nil
}
