package cell

import (
	"fmt"
	"math"

	"golang.org/x/crypto/cryptobyte"
)

// Certs is a CERTS cell. Certificates keep their wire order and may repeat.
type Certs struct {
	Certificates []Certificate
}

func (Certs) Command() Command { return CmdCerts }

func (c Certs) MarshalPayload() ([]byte, error) { return marshalPayload(c) }

func (c Certs) marshal(b *cryptobyte.Builder) {
	if len(c.Certificates) > math.MaxUint8 {
		b.SetError(fmt.Errorf("CERTS has %d certificates, max %d", len(c.Certificates), math.MaxUint8))
		return
	}
	b.AddUint8(uint8(len(c.Certificates)))
	for _, cert := range c.Certificates {
		cert.marshal(b)
	}
}

// ByType returns the first certificate of type t.
func (c Certs) ByType(t CertType) (Certificate, bool) {
	for _, cert := range c.Certificates {
		if cert.Type == t {
			return cert, true
		}
	}
	return Certificate{}, false
}

// decodeCerts reads exactly the declared number of certificates. Bytes left
// over after them are ignored: the cell's length prefix, not the count,
// frames the payload.
func decodeCerts(s cryptobyte.String) (Cell, error) {
	var n uint8
	if !s.ReadUint8(&n) {
		return nil, malformed("CERTS", "certificate count", 1, 0)
	}
	var c Certs
	for i := 0; i < int(n); i++ {
		if s.Empty() {
			return nil, malformed("CERTS", "certificate count", int(n), i)
		}
		cert, err := readCertificate(&s)
		if err != nil {
			return nil, err
		}
		c.Certificates = append(c.Certificates, cert)
	}
	return c, nil
}
