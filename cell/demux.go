package cell

import (
	"io"
	"iter"
)

// Decoder peels cells off an in-memory buffer, one per Next call, in the
// order their bytes appear.
type Decoder struct {
	buf     []byte
	version LinkVersion
	circID  uint32
}

// NewDecoder returns a Decoder over b for link protocol v.
func NewDecoder(b []byte, v LinkVersion) *Decoder {
	return &Decoder{buf: b, version: v}
}

// SetVersion changes the link protocol used for the cells that follow, as
// happens once a VERSIONS exchange completes.
func (d *Decoder) SetVersion(v LinkVersion) {
	d.version = v
}

// Next decodes the next cell. It returns io.EOF once the buffer is empty.
// On any other error the buffer is left at the failing cell.
func (d *Decoder) Next() (Cell, error) {
	if len(d.buf) == 0 {
		return nil, io.EOF
	}
	circID, c, rest, err := UnpackCirc(d.buf, d.version)
	if err != nil {
		return nil, err
	}
	d.buf = rest
	d.circID = circID
	return c, nil
}

// CircID returns the circuit ID of the cell last returned by Next.
func (d *Decoder) CircID() uint32 {
	return d.circID
}

// Remaining returns the bytes not yet consumed.
func (d *Decoder) Remaining() []byte {
	return d.buf
}

// UnpackAll decodes every cell in b. It fails on the first bad cell.
func UnpackAll(b []byte, v LinkVersion) ([]Cell, error) {
	var cells []Cell
	for c, err := range All(b, v) {
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, nil
}

// All iterates over the cells in b. Iteration stops after yielding the first
// error.
func All(b []byte, v LinkVersion) iter.Seq2[Cell, error] {
	return func(yield func(Cell, error) bool) {
		d := NewDecoder(b, v)
		for {
			c, err := d.Next()
			if err == io.EOF {
				return
			}
			if !yield(c, err) || err != nil {
				return
			}
		}
	}
}
