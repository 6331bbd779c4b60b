package cell

import (
	"bytes"
	"fmt"

	"github.com/cvsouth/torcell/torcert"
	"golang.org/x/crypto/cryptobyte"
)

// CertType is the type tag of a certificate in a CERTS cell (tor-spec §4.2).
type CertType uint8

const (
	CertLink                CertType = 1 // RSA1024 link key, X.509
	CertIdentity            CertType = 2 // RSA1024 identity, self-signed X.509
	CertAuthenticate        CertType = 3 // RSA1024 AUTHENTICATE key, X.509
	CertEd25519Signing      CertType = 4 // Ed25519 identity signing a signing key
	CertEd25519Link         CertType = 5 // Ed25519 signing key over a TLS link cert
	CertEd25519Authenticate CertType = 6 // Ed25519 signing key over an AUTHENTICATE key
	CertRSAEd25519Cross     CertType = 7 // RSA identity cross-certifying Ed25519 identity
)

var certTypeNames = map[CertType]string{
	CertLink:                "LINK",
	CertIdentity:            "IDENTITY",
	CertAuthenticate:        "AUTHENTICATE",
	CertEd25519Signing:      "ED25519_SIGNING",
	CertEd25519Link:         "ED25519_LINK",
	CertEd25519Authenticate: "ED25519_AUTHENTICATE",
	CertRSAEd25519Cross:     "RSA_ED25519_CROSS",
}

// Known reports whether t is a defined certificate type. Anything else is
// UNKNOWN, though the numeric tag seen on the wire is preserved.
func (t CertType) Known() bool {
	_, ok := certTypeNames[t]
	return ok
}

func (t CertType) String() string {
	if s, ok := certTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
}

// Certificate is one entry of a CERTS cell. Value is opaque to this package.
type Certificate struct {
	Type  CertType
	Value []byte
}

// Equal reports whether c and o have the same type and value.
func (c Certificate) Equal(o Certificate) bool {
	return c.Type == o.Type && bytes.Equal(c.Value, o.Value)
}

// Ed25519 parses the value as an Ed25519 certificate. Only the Ed25519
// types (4, 5 and 6) carry one.
func (c Certificate) Ed25519() (*torcert.Cert, error) {
	switch c.Type {
	case CertEd25519Signing, CertEd25519Link, CertEd25519Authenticate:
	default:
		return nil, fmt.Errorf("certificate type %s is not an Ed25519 certificate", c.Type)
	}
	tc, err := torcert.Parse(c.Value)
	if err != nil {
		return nil, fmt.Errorf("parse %s certificate: %w", c.Type, err)
	}
	return tc, nil
}

func (c Certificate) marshal(b *cryptobyte.Builder) {
	b.AddUint8(uint8(c.Type))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(c.Value)
	})
}

// readCertificate pops one type/length/value certificate off s.
func readCertificate(s *cryptobyte.String) (Certificate, error) {
	var (
		typ uint8
		n   uint16
	)
	if avail := len(*s); !s.ReadUint8(&typ) || !s.ReadUint16(&n) {
		return Certificate{}, malformed("CERTS", "certificate header", 3, avail)
	}
	var v []byte
	if !s.ReadBytes(&v, int(n)) {
		return Certificate{}, malformed("CERTS", "certificate length", int(n), len(*s))
	}
	return Certificate{Type: CertType(typ), Value: cloneBytes(v)}, nil
}
