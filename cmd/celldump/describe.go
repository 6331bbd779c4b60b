package main

import (
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cvsouth/torcell/cell"
	"github.com/cvsouth/torcell/torcert"
)

// record is one decoded cell as printed by celldump.
type record struct {
	CircID  uint32         `json:"circ_id"`
	Command string         `json:"command"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func (r record) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "circ=%d %s", r.CircID, r.Command)
	for _, k := range slices.Sorted(maps.Keys(r.Fields)) {
		fmt.Fprintf(&sb, " %s=%v", k, r.Fields[k])
	}
	return sb.String()
}

func describe(circID uint32, c cell.Cell) record {
	r := record{CircID: circID, Command: c.Command().String()}

	switch c := c.(type) {
	case cell.Padding:
		r.Fields = map[string]any{"payload_len": len(c.Payload)}
	case cell.VPadding:
		r.Fields = map[string]any{"payload_len": len(c.Payload)}
	case cell.Versions:
		vs := make([]int, len(c.Versions))
		for i, v := range c.Versions {
			vs[i] = int(v)
		}
		r.Fields = map[string]any{"versions": vs}
	case cell.Netinfo:
		senders := make([]string, len(c.Senders))
		for i, a := range c.Senders {
			senders[i] = a.String()
		}
		var ts int64
		if !c.Timestamp.IsZero() {
			ts = c.Timestamp.Unix()
		}
		r.Fields = map[string]any{
			"timestamp": ts,
			"receiver":  c.Receiver.String(),
			"senders":   senders,
		}
	case cell.Certs:
		certs := make([]map[string]any, len(c.Certificates))
		for i, cert := range c.Certificates {
			certs[i] = describeCertificate(cert)
		}
		r.Fields = map[string]any{"certificates": certs}
	case cell.AuthChallenge:
		methods := make([]int, len(c.Methods))
		for i, m := range c.Methods {
			methods[i] = int(m)
		}
		r.Fields = map[string]any{
			"challenge": hex.EncodeToString(c.Challenge[:]),
			"methods":   methods,
		}
	}
	return r
}

func describeCertificate(c cell.Certificate) map[string]any {
	m := map[string]any{
		"type": c.Type.String(),
		"len":  len(c.Value),
	}
	tc, err := c.Ed25519()
	if err != nil {
		// Not an Ed25519 certificate, or one that does not parse.
		if c.Type >= cell.CertEd25519Signing && c.Type <= cell.CertEd25519Authenticate {
			m["error"] = err.Error()
		}
		return m
	}
	m["expires"] = tc.Expiration().UTC().Format("2006-01-02T15:04:05Z")
	m["certified_key"] = hex.EncodeToString(tc.CertifiedKey[:])
	var invalid []string
	if tc.KeyType == torcert.KeyTypeEd25519 {
		if _, err := tc.CertifiedPoint(); err != nil {
			invalid = append(invalid, "certified_key")
		}
	}
	if k, ok := tc.SigningKey(); ok {
		m["signing_key"] = hex.EncodeToString(k[:])
		if _, err := tc.SigningPoint(); err != nil {
			invalid = append(invalid, "signing_key")
		}
	}
	if len(invalid) > 0 {
		m["invalid_point"] = invalid
	}
	return m
}
