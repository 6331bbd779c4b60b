package cell

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// maxPaddingSkip bounds how many PADDING/VPADDING cells ReadExpected skips.
const maxPaddingSkip = 100

// Reader reads Tor cells from a buffered reader.
type Reader struct {
	r       *bufio.Reader
	version LinkVersion
	logger  *slog.Logger
}

// NewReader returns a Reader for link protocol v. Before VERSIONS has been
// exchanged, pass a version below 4 so circuit IDs are read as 2 bytes.
func NewReader(r *bufio.Reader, v LinkVersion, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{r: r, version: v, logger: logger}
}

// SetVersion switches the link protocol for subsequent reads.
func (cr *Reader) SetVersion(v LinkVersion) {
	cr.version = v
}

// ReadCell reads exactly one cell frame, even when the frame carries an
// unknown command. A stream that ends inside a cell yields
// ErrTruncatedHeader or ErrTruncatedPayload wrapping the io error; a stream
// that ends cleanly between cells yields io.EOF.
func (cr *Reader) ReadCell() (Cell, error) {
	_, c, err := cr.ReadCellCirc()
	return c, err
}

// ReadCellCirc is ReadCell, also returning the circuit ID.
func (cr *Reader) ReadCellCirc() (uint32, Cell, error) {
	idLen := CircIDLen(cr.version)
	hdr, err := cr.r.Peek(idLen + 1)
	if err != nil {
		if err == io.EOF && len(hdr) == 0 {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("read cell header: %w", errors.Join(ErrTruncatedHeader, err))
	}
	// Unregistered commands are framed by the same rule as registered ones,
	// so their frame is consumed before ErrUnknownType is returned and the
	// next read starts on a cell boundary.
	cmd := Command(hdr[idLen])
	n := idLen + 1 + FixedPayloadLen
	if IsVariableLength(cmd) {
		lenHdr, err := cr.r.Peek(idLen + 3)
		if err != nil {
			return 0, nil, fmt.Errorf("read varlen length: %w", errors.Join(ErrTruncatedHeader, err))
		}
		n = idLen + 3 + int(binary.BigEndian.Uint16(lenHdr[idLen+1:]))
	}

	frame := make([]byte, n)
	if _, err := io.ReadFull(cr.r, frame); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, fmt.Errorf("read %s payload: %w", cmd, errors.Join(ErrTruncatedPayload, err))
	}
	circID, c, _, err := UnpackCirc(frame, cr.version)
	if err != nil {
		return 0, nil, err
	}
	return circID, c, nil
}

// ReadExpected reads cells, skipping PADDING/VPADDING, until it gets the
// expected command.
func (cr *Reader) ReadExpected(expected Command) (Cell, error) {
	for i := 0; i < maxPaddingSkip; i++ {
		c, err := cr.ReadCell()
		if err != nil {
			return nil, err
		}
		cmd := c.Command()
		if cmd == CmdPadding || cmd == CmdVPadding {
			cr.logger.Debug("skipping padding cell", "cmd", cmd)
			continue
		}
		if cmd != expected {
			return nil, fmt.Errorf("expected command %s, got %s", expected, cmd)
		}
		return c, nil
	}
	return nil, fmt.Errorf("too many padding cells before command %s", expected)
}

// Writer writes Tor cells.
type Writer struct {
	w       io.Writer
	version LinkVersion
}

// NewWriter returns a Writer framing cells for link protocol v.
func NewWriter(w io.Writer, v LinkVersion) *Writer {
	return &Writer{w: w, version: v}
}

// SetVersion switches the link protocol for subsequent writes.
func (cw *Writer) SetVersion(v LinkVersion) {
	cw.version = v
}

// WriteCell writes c on circuit 0.
func (cw *Writer) WriteCell(c Cell) error {
	return cw.WriteCellCirc(c, 0)
}

// WriteCellCirc writes c on the given circuit.
func (cw *Writer) WriteCellCirc(c Cell, circID uint32) error {
	b, err := PackCirc(c, circID, cw.version)
	if err != nil {
		return err
	}
	if _, err := cw.w.Write(b); err != nil {
		return fmt.Errorf("write %s cell: %w", c.Command(), err)
	}
	return nil
}
