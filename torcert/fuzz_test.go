package torcert

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
)

func FuzzParse(f *testing.F) {
	// Seed: valid cert built the same way as unit tests
	_, privKey, _ := ed25519.GenerateKey(rand.Reader)
	var certifiedKey [32]byte
	copy(certifiedKey[:], "test-certified-key-32-bytes!!!!!")
	f.Add(buildTestTorCert(0x04, KeyTypeEd25519, certifiedKey, privKey))

	// Seed: minimal cert (no extensions)
	minimal, _ := (&Cert{Version: Version1, CertType: 0x05, KeyType: KeyTypeSHA256X509}).Marshal()
	f.Add(minimal)

	// Seed: too short
	f.Add([]byte{0x01, 0x02, 0x03})

	// Seed: empty
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		// Must not panic on any input.
		tc, err := Parse(data)
		if err != nil {
			return
		}
		out, err := tc.Marshal()
		if err != nil {
			t.Fatalf("re-marshal: %v", err)
		}
		if !bytes.Equal(out, data) {
			t.Fatal("parse/marshal is not the identity")
		}
	})
}
