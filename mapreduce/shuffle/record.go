package shuffle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	keyField   protowire.Number = 1
	valueField protowire.Number = 2

	// frames larger than this are treated as corruption
	maxFrameSize = 16 * 1024 * 1024
)

var errFrameTooLarge = errors.New("frame too large")

// record is one buffered mapper line, split at its first tab.
type record struct {
	key      string
	value    string
	hasValue bool
}

func parseRecord(line string) record {
	i := strings.IndexByte(line, '\t')
	if i < 0 {
		return record{key: line}
	}
	return record{key: line[:i], value: line[i+1:], hasValue: true}
}

// line rebuilds the original mapper line.
func (r record) line() string {
	if !r.hasValue {
		return r.key
	}
	return r.key + "\t" + r.value
}

func (r record) size() int {
	return len(r.key) + len(r.value) + 32
}

func (r record) marshal() []byte {
	b := make([]byte, 0, len(r.key)+len(r.value)+8)
	b = protowire.AppendTag(b, keyField, protowire.BytesType)
	b = protowire.AppendString(b, r.key)
	if r.hasValue {
		b = protowire.AppendTag(b, valueField, protowire.BytesType)
		b = protowire.AppendString(b, r.value)
	}
	return b
}

func unmarshalRecord(b []byte) (record, error) {
	var r record
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return r, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == keyField && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return r, protowire.ParseError(n)
			}
			r.key = v
			b = b[n:]
		case num == valueField && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return r, protowire.ParseError(n)
			}
			r.value, r.hasValue = v, true
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return r, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return r, nil
}

// writeFrame writes a record to a spill run.
// format is:
//
//	| length (8 bytes) | payload (length bytes) |
func writeFrame(w io.Writer, r record) error {
	payload := r.marshal()
	if err := binary.Write(w, binary.BigEndian, uint64(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readFrame reads the next record of a spill run. It returns io.EOF at a
// clean end of run.
func readFrame(rd io.Reader) (record, error) {
	var length uint64
	if err := binary.Read(rd, binary.BigEndian, &length); err != nil {
		return record{}, err
	}
	if length > maxFrameSize {
		return record{}, fmt.Errorf("%w: %d bytes", errFrameTooLarge, length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(rd, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return record{}, err
	}
	return unmarshalRecord(payload)
}
