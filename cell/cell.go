package cell

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// Command is the one-byte cell command that selects the cell type.
type Command uint8

// Command constants (tor-spec §3).
const (
	CmdPadding          Command = 0
	CmdCreate           Command = 1
	CmdCreated          Command = 2
	CmdRelay            Command = 3
	CmdDestroy          Command = 4
	CmdCreateFast       Command = 5
	CmdCreatedFast      Command = 6
	CmdVersions         Command = 7
	CmdNetInfo          Command = 8
	CmdRelayEarly       Command = 9
	CmdCreate2          Command = 10
	CmdCreated2         Command = 11
	CmdPaddingNegotiate Command = 12
	CmdVPadding         Command = 128
	CmdCerts            Command = 129
	CmdAuthChallenge    Command = 130
	CmdAuthenticate     Command = 131
	CmdAuthorize        Command = 132
)

const (
	// FixedPayloadLen is the payload size of every fixed-length cell.
	FixedPayloadLen = 509
	// MaxVarPayloadLen is the largest payload a 2-byte length prefix can carry.
	MaxVarPayloadLen = 0xFFFF
)

func (c Command) String() string {
	if t, err := ByValue(c); err == nil {
		return t.Name
	}
	return fmt.Sprintf("Command(%d)", uint8(c))
}

// IsVariableLength returns true for VERSIONS (7) and commands >= 128.
func IsVariableLength(cmd Command) bool {
	return cmd == CmdVersions || cmd >= 128
}

// LinkVersion is the negotiated link protocol version of a connection.
type LinkVersion uint16

// CircIDLen returns the circuit ID width: 2 bytes before v4, 4 bytes after.
func CircIDLen(v LinkVersion) int {
	if v < 4 {
		return 2
	}
	return 4
}

// Cell is a decoded cell. The set of implementations is closed: Padding,
// Versions, Netinfo, VPadding, Certs and AuthChallenge.
type Cell interface {
	Command() Command
	// MarshalPayload returns the payload without framing or zero padding.
	MarshalPayload() ([]byte, error)

	marshal(b *cryptobyte.Builder)
}

func marshalPayload(c Cell) ([]byte, error) {
	var b cryptobyte.Builder
	c.marshal(&b)
	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", c.Command(), err)
	}
	return out, nil
}

// cloneBytes copies b so decoded cells never alias the caller's buffer.
// Empty input yields nil.
func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return bytes.Clone(b)
}
