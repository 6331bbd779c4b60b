package cell

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// Pack frames c with circuit ID 0 for link protocol v.
func Pack(c Cell, v LinkVersion) ([]byte, error) {
	return PackCirc(c, 0, v)
}

// PackCirc frames c on circuit circID for link protocol v. Fixed-size
// payloads are zero padded to FixedPayloadLen; variable-size payloads get a
// 2-byte length prefix.
func PackCirc(c Cell, circID uint32, v LinkVersion) ([]byte, error) {
	t, err := ByValue(c.Command())
	if err != nil {
		return nil, err
	}

	var b cryptobyte.Builder
	if CircIDLen(v) == 2 {
		if circID > 0xFFFF {
			return nil, fmt.Errorf("circuit ID %d does not fit link protocol %d", circID, v)
		}
		b.AddUint16(uint16(circID))
	} else {
		b.AddUint32(circID)
	}
	b.AddUint8(uint8(t.Value))

	if t.FixedSize {
		payload, err := c.MarshalPayload()
		if err != nil {
			return nil, err
		}
		if len(payload) > FixedPayloadLen {
			return nil, fmt.Errorf("%s payload is %d bytes, max %d", t.Name, len(payload), FixedPayloadLen)
		}
		b.AddBytes(payload)
		b.AddBytes(make([]byte, FixedPayloadLen-len(payload)))
	} else {
		b.AddUint16LengthPrefixed(c.marshal)
	}

	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("pack %s cell: %w", t.Name, err)
	}
	return out, nil
}

// Unpack decodes the first cell in b and returns it with the unconsumed
// remainder of b.
func Unpack(b []byte, v LinkVersion) (Cell, []byte, error) {
	_, c, rest, err := UnpackCirc(b, v)
	return c, rest, err
}

// UnpackCirc is Unpack, also returning the cell's circuit ID.
func UnpackCirc(b []byte, v LinkVersion) (uint32, Cell, []byte, error) {
	s := cryptobyte.String(b)
	hdrLen := CircIDLen(v) + 1

	var circID uint32
	if CircIDLen(v) == 2 {
		var id uint16
		if !s.ReadUint16(&id) {
			return 0, nil, nil, &SizeError{Kind: ErrTruncatedHeader, Cell: "cell", Field: "header", Expected: hdrLen, Actual: len(b)}
		}
		circID = uint32(id)
	} else if !s.ReadUint32(&circID) {
		return 0, nil, nil, &SizeError{Kind: ErrTruncatedHeader, Cell: "cell", Field: "header", Expected: hdrLen, Actual: len(b)}
	}
	var cmd uint8
	if !s.ReadUint8(&cmd) {
		return 0, nil, nil, &SizeError{Kind: ErrTruncatedHeader, Cell: "cell", Field: "header", Expected: hdrLen, Actual: len(b)}
	}

	t, err := ByValue(Command(cmd))
	if err != nil {
		return 0, nil, nil, err
	}

	var payload []byte
	if t.FixedSize {
		if !s.ReadBytes(&payload, FixedPayloadLen) {
			return 0, nil, nil, &SizeError{Kind: ErrTruncatedPayload, Cell: t.Name, Field: "payload", Expected: FixedPayloadLen, Actual: len(s)}
		}
	} else {
		var n uint16
		if !s.ReadUint16(&n) {
			return 0, nil, nil, &SizeError{Kind: ErrTruncatedHeader, Cell: t.Name, Field: "header", Expected: hdrLen + 2, Actual: len(b)}
		}
		if !s.ReadBytes(&payload, int(n)) {
			return 0, nil, nil, &SizeError{Kind: ErrTruncatedPayload, Cell: t.Name, Field: "payload", Expected: int(n), Actual: len(s)}
		}
	}

	c, err := t.unmarshal(payload)
	if err != nil {
		return 0, nil, nil, err
	}
	return circID, c, []byte(s), nil
}

// UnmarshalPayload decodes a payload of the given command without framing.
func UnmarshalPayload(cmd Command, payload []byte) (Cell, error) {
	t, err := ByValue(cmd)
	if err != nil {
		return nil, err
	}
	return t.unmarshal(payload)
}

func (t Type) unmarshal(payload []byte) (Cell, error) {
	if t.decode == nil {
		return nil, fmt.Errorf("%w: unpacking not yet implemented for %s cells", ErrUnsupported, t.Name)
	}
	return t.decode(cryptobyte.String(payload))
}
