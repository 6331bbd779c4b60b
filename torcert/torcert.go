package torcert

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/cryptobyte"
)

// Certificate and key type values (cert-spec §2.1).
const (
	Version1 = 0x01

	KeyTypeEd25519    = 0x01
	KeyTypeSHA256RSA  = 0x02
	KeyTypeSHA256X509 = 0x03

	ExtSignedWithEd25519 = 0x04

	// ExtFlagAffectsValidation marks an extension that must be understood.
	ExtFlagAffectsValidation = 0x01

	headerLen    = 1 + 1 + 4 + 1 + 32
	signatureLen = 64
)

// Extension is one cert-spec extension.
type Extension struct {
	Type  uint8
	Flags uint8
	Data  []byte
}

// Cert is a parsed Ed25519 Tor certificate. Parsing checks structure only;
// signatures and expiration are left to the caller.
type Cert struct {
	Version       uint8
	CertType      uint8
	ExpirationHrs uint32
	KeyType       uint8
	CertifiedKey  [32]byte
	Extensions    []Extension
	Signature     [signatureLen]byte
}

// Parse decodes a certificate. Unrecognized extensions flagged
// AFFECTS_VALIDATION are rejected.
func Parse(data []byte) (*Cert, error) {
	if len(data) < headerLen+1+signatureLen {
		return nil, fmt.Errorf("tor cert too short: %d bytes", len(data))
	}
	s := cryptobyte.String(data)
	tc := &Cert{}
	s.ReadUint8(&tc.Version)
	s.ReadUint8(&tc.CertType)
	s.ReadUint32(&tc.ExpirationHrs)
	s.ReadUint8(&tc.KeyType)
	s.CopyBytes(tc.CertifiedKey[:])
	if tc.Version != Version1 {
		return nil, fmt.Errorf("unsupported tor cert version %d", tc.Version)
	}

	var nExt uint8
	s.ReadUint8(&nExt)
	for i := 0; i < int(nExt); i++ {
		var (
			extLen uint16
			ext    Extension
			body   []byte
		)
		if !s.ReadUint16(&extLen) || !s.ReadUint8(&ext.Type) || !s.ReadUint8(&ext.Flags) {
			return nil, fmt.Errorf("extension %d header overflows cert", i)
		}
		if len(s) < int(extLen)+signatureLen || !s.ReadBytes(&body, int(extLen)) {
			return nil, fmt.Errorf("extension %d data overflows cert", i)
		}
		ext.Data = bytes.Clone(body)
		if ext.Type == ExtSignedWithEd25519 {
			if len(ext.Data) != 32 {
				return nil, fmt.Errorf("signed-with-ed25519-key extension is %d bytes, want 32", len(ext.Data))
			}
		} else if ext.Flags&ExtFlagAffectsValidation != 0 {
			return nil, fmt.Errorf("unrecognized critical extension type 0x%02x", ext.Type)
		}
		tc.Extensions = append(tc.Extensions, ext)
	}

	if len(s) != signatureLen {
		return nil, fmt.Errorf("tor cert signature: expected %d bytes, got %d", signatureLen, len(s))
	}
	s.CopyBytes(tc.Signature[:])
	return tc, nil
}

// Marshal encodes tc, signature included.
func (tc *Cert) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	tc.marshalBody(&b)
	b.AddBytes(tc.Signature[:])
	return b.Bytes()
}

// SignedBytes returns the encoding the signature covers.
func (tc *Cert) SignedBytes() ([]byte, error) {
	var b cryptobyte.Builder
	tc.marshalBody(&b)
	return b.Bytes()
}

func (tc *Cert) marshalBody(b *cryptobyte.Builder) {
	if len(tc.Extensions) > 0xFF {
		b.SetError(errors.New("tor cert has more than 255 extensions"))
		return
	}
	b.AddUint8(tc.Version)
	b.AddUint8(tc.CertType)
	b.AddUint32(tc.ExpirationHrs)
	b.AddUint8(tc.KeyType)
	b.AddBytes(tc.CertifiedKey[:])
	b.AddUint8(uint8(len(tc.Extensions)))
	for _, ext := range tc.Extensions {
		if len(ext.Data) > 0xFFFF {
			b.SetError(fmt.Errorf("extension 0x%02x data too long: %d bytes", ext.Type, len(ext.Data)))
			return
		}
		b.AddUint16(uint16(len(ext.Data)))
		b.AddUint8(ext.Type)
		b.AddUint8(ext.Flags)
		b.AddBytes(ext.Data)
	}
}

// Expiration returns the time after which the certificate is invalid.
func (tc *Cert) Expiration() time.Time {
	return time.Unix(int64(tc.ExpirationHrs)*3600, 0).UTC()
}

// SigningKey returns the key from the signed-with-ed25519-key extension.
func (tc *Cert) SigningKey() ([32]byte, bool) {
	for _, ext := range tc.Extensions {
		if ext.Type == ExtSignedWithEd25519 && len(ext.Data) == 32 {
			return [32]byte(ext.Data), true
		}
	}
	return [32]byte{}, false
}

// CertifiedPoint decodes the certified key as an Edwards25519 point. It
// fails for key types other than Ed25519 and for bytes that do not encode a
// point on the curve.
func (tc *Cert) CertifiedPoint() (*edwards25519.Point, error) {
	if tc.KeyType != KeyTypeEd25519 {
		return nil, fmt.Errorf("certified key type 0x%02x is not Ed25519", tc.KeyType)
	}
	p, err := new(edwards25519.Point).SetBytes(tc.CertifiedKey[:])
	if err != nil {
		return nil, fmt.Errorf("certified key: %w", err)
	}
	return p, nil
}

// SigningPoint decodes the signed-with-ed25519-key extension as a point.
func (tc *Cert) SigningPoint() (*edwards25519.Point, error) {
	k, ok := tc.SigningKey()
	if !ok {
		return nil, errors.New("no signing key extension (type 0x04)")
	}
	p, err := new(edwards25519.Point).SetBytes(k[:])
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}
	return p, nil
}
