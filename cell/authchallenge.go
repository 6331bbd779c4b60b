package cell

import (
	"crypto/rand"
	"fmt"
	"math"

	"golang.org/x/crypto/cryptobyte"
)

// AuthChallengeLen is the size of the random challenge in AUTH_CHALLENGE.
const AuthChallengeLen = 32

// Authentication methods (tor-spec §4.4).
const (
	AuthRSASHA256TLSSecret   uint16 = 1
	AuthEd25519SHA256RFC5705 uint16 = 3
)

// AuthChallenge is an AUTH_CHALLENGE cell sent by responders.
type AuthChallenge struct {
	Challenge [AuthChallengeLen]byte
	Methods   []uint16
}

// NewAuthChallenge returns an AUTH_CHALLENGE with a random challenge.
func NewAuthChallenge(methods ...uint16) (AuthChallenge, error) {
	c := AuthChallenge{Methods: methods}
	if _, err := rand.Read(c.Challenge[:]); err != nil {
		return AuthChallenge{}, fmt.Errorf("generate challenge: %w", err)
	}
	return c, nil
}

func (AuthChallenge) Command() Command { return CmdAuthChallenge }

func (c AuthChallenge) MarshalPayload() ([]byte, error) { return marshalPayload(c) }

func (c AuthChallenge) marshal(b *cryptobyte.Builder) {
	if len(c.Methods) > math.MaxUint16 {
		b.SetError(fmt.Errorf("AUTH_CHALLENGE has %d methods, max %d", len(c.Methods), math.MaxUint16))
		return
	}
	b.AddBytes(c.Challenge[:])
	b.AddUint16(uint16(len(c.Methods)))
	for _, m := range c.Methods {
		b.AddUint16(m)
	}
}

func decodeAuthChallenge(s cryptobyte.String) (Cell, error) {
	const minLen = AuthChallengeLen + 2
	if len(s) < minLen {
		return nil, malformed("AUTH_CHALLENGE", "payload", minLen, len(s))
	}
	var c AuthChallenge
	var n uint16
	s.CopyBytes(c.Challenge[:])
	s.ReadUint16(&n)
	if len(s) < 2*int(n) {
		return nil, malformed("AUTH_CHALLENGE", "method count (bytes remaining)", int(n), len(s))
	}
	for i := 0; i < int(n); i++ {
		var m uint16
		s.ReadUint16(&m)
		c.Methods = append(c.Methods, m)
	}
	return c, nil
}
