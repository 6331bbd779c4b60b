package torcert

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"testing"
	"time"
)

// buildTestTorCert creates a valid Ed25519 Tor certificate for testing.
func buildTestTorCert(certType uint8, keyType uint8, certifiedKey [32]byte, signingPrivKey ed25519.PrivateKey) []byte {
	// Header: version(1) + cert_type(1) + expiration(4) + key_type(1) + certified_key(32) = 39
	// Extensions: n_ext(1) + ext(2+1+1+32 = 36) = 37
	// Signature: 64
	// Total: 39 + 37 + 64 = 140
	buf := make([]byte, 0, 140)
	buf = append(buf, 0x01)     // version
	buf = append(buf, certType) // cert type
	// Expiration: 1 year from now in hours
	expHours := uint32(time.Now().Add(365*24*time.Hour).Unix() / 3600)
	var expBuf [4]byte
	binary.BigEndian.PutUint32(expBuf[:], expHours)
	buf = append(buf, expBuf[:]...)
	buf = append(buf, keyType) // key type
	buf = append(buf, certifiedKey[:]...)

	// Extensions: 1 extension (signed-with-ed25519-key, type 0x04)
	buf = append(buf, 0x01) // n_extensions = 1
	var extLenBuf [2]byte
	binary.BigEndian.PutUint16(extLenBuf[:], 32)
	buf = append(buf, extLenBuf[:]...)
	buf = append(buf, 0x04) // ExtType
	buf = append(buf, 0x00) // ExtFlags
	signingPubKey := signingPrivKey.Public().(ed25519.PublicKey)
	buf = append(buf, signingPubKey...)

	sig := ed25519.Sign(signingPrivKey, buf)
	buf = append(buf, sig...)
	return buf
}

func TestParseValid(t *testing.T) {
	signingPub, _, _ := ed25519.GenerateKey(rand.Reader)
	_, identityPriv, _ := ed25519.GenerateKey(rand.Reader)
	var certifiedKey [32]byte
	copy(certifiedKey[:], signingPub)
	certData := buildTestTorCert(0x04, KeyTypeEd25519, certifiedKey, identityPriv)

	tc, err := Parse(certData)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if tc.CertType != 0x04 {
		t.Fatalf("cert type: got %d, want 4", tc.CertType)
	}
	if tc.CertifiedKey != certifiedKey {
		t.Fatal("certified key mismatch")
	}
	if tc.Expiration().Before(time.Now()) {
		t.Fatalf("expiration in the past: %v", tc.Expiration())
	}

	signingKey, ok := tc.SigningKey()
	if !ok || !bytes.Equal(signingKey[:], identityPriv.Public().(ed25519.PublicKey)) {
		t.Fatal("signing key extension mismatch")
	}
	if _, err := tc.CertifiedPoint(); err != nil {
		t.Fatalf("certified point: %v", err)
	}
	p, err := tc.SigningPoint()
	if err != nil {
		t.Fatalf("signing point: %v", err)
	}
	if !bytes.Equal(p.Bytes(), signingKey[:]) {
		t.Fatal("signing point does not re-encode to the extension key")
	}

	// The signature still verifies over the re-encoded body.
	signed, err := tc.SignedBytes()
	if err != nil {
		t.Fatal(err)
	}
	if !ed25519.Verify(ed25519.PublicKey(signingKey[:]), signed, tc.Signature[:]) {
		t.Fatal("signature does not cover SignedBytes")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	_, privKey, _ := ed25519.GenerateKey(rand.Reader)
	var certifiedKey [32]byte
	copy(certifiedKey[:], "test-certified-key-32-bytes!!!!!")
	certData := buildTestTorCert(0x05, KeyTypeSHA256X509, certifiedKey, privKey)

	tc, err := Parse(certData)
	if err != nil {
		t.Fatal(err)
	}
	out, err := tc.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, certData) {
		t.Fatal("round-trip mismatch")
	}
	if _, err := tc.CertifiedPoint(); err == nil {
		t.Fatal("expected error for non-Ed25519 certified key type")
	}
}

func TestCertifiedPointInvalid(t *testing.T) {
	// y = 2 has no corresponding x on the curve.
	tc := &Cert{Version: Version1, KeyType: KeyTypeEd25519}
	tc.CertifiedKey[0] = 0x02
	if _, err := tc.CertifiedPoint(); err == nil {
		t.Fatal("expected error for key that is not a curve point")
	}
	if _, err := tc.SigningPoint(); err == nil {
		t.Fatal("expected error for missing signing key extension")
	}
}

func TestParseTooShort(t *testing.T) {
	for _, n := range []int{0, 3, 103} {
		if _, err := Parse(make([]byte, n)); err == nil {
			t.Fatalf("expected error for %d-byte cert", n)
		}
	}
}

func TestParseTrailingBytes(t *testing.T) {
	_, privKey, _ := ed25519.GenerateKey(rand.Reader)
	certData := buildTestTorCert(0x04, KeyTypeEd25519, [32]byte{}, privKey)
	if _, err := Parse(append(certData, 0x00)); err == nil {
		t.Fatal("expected error for bytes beyond the signature")
	}
}

func TestParseExtensionOverflow(t *testing.T) {
	_, privKey, _ := ed25519.GenerateKey(rand.Reader)
	certData := buildTestTorCert(0x04, KeyTypeEd25519, [32]byte{}, privKey)
	// ExtLen reaching into the signature.
	binary.BigEndian.PutUint16(certData[40:42], 100)
	if _, err := Parse(certData); err == nil {
		t.Fatal("expected error for extension overflowing into signature")
	}
}

func TestParseRejectsUnrecognizedCriticalExtension(t *testing.T) {
	tc := &Cert{
		Version:    Version1,
		CertType:   0x04,
		KeyType:    KeyTypeEd25519,
		Extensions: []Extension{{Type: 0xFF, Flags: ExtFlagAffectsValidation, Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}}},
	}
	buf, err := tc.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(buf); err == nil {
		t.Fatal("expected rejection of unrecognized critical extension, got nil")
	}
}

func TestParseAllowsUnrecognizedNonCriticalExtension(t *testing.T) {
	tc := &Cert{
		Version:  Version1,
		CertType: 0x04,
		KeyType:  KeyTypeEd25519,
		Extensions: []Extension{
			{Type: ExtSignedWithEd25519, Data: make([]byte, 32)},
			{Type: 0xFE, Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}},
		},
	}
	buf, err := tc.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Parse(buf)
	if err != nil {
		t.Fatalf("expected non-critical extension to be allowed, got: %v", err)
	}
	if len(got.Extensions) != 2 || got.Extensions[1].Type != 0xFE {
		t.Fatalf("extensions: %+v", got.Extensions)
	}
}

func TestParseBadSigningKeyExtension(t *testing.T) {
	tc := &Cert{
		Version:    Version1,
		Extensions: []Extension{{Type: ExtSignedWithEd25519, Data: make([]byte, 31)}},
	}
	buf, err := tc.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(buf); err == nil {
		t.Fatal("expected error for 31-byte signing key extension")
	}
}
