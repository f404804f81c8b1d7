package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/types"
)

const (
	// FieldSep separates fields of a raw `.dat` record.
	FieldSep = "::"
	// PairSep separates key and value of an intermediate pair.
	PairSep = "\t"

	maxLineSize = 1024 * 1024
)

var (
	// ErrTooFewFields is returned by map functions for records that split into
	// fewer fields than they need.
	ErrTooFewFields = errors.New("too few fields")
	// ErrBadPair marks a reducer input line that is not exactly `key\tvalue`.
	ErrBadPair = errors.New("not a key/value pair")
	// ErrBadValue marks a pair whose value is not numeric.
	ErrBadValue = errors.New("bad value")
)

// Stats counts what happened during one pass.
type Stats struct {
	Read    int // non-blank input lines
	Emitted int // output lines written
	Skipped int // input lines rejected with a diagnostic
}

func (s Stats) String() string {
	return fmt.Sprintf("%d read, %d emitted, %d skipped", s.Read, s.Emitted, s.Skipped)
}

// SplitRecord splits a raw record on the `::` delimiter and checks that at
// least want fields are present.
func SplitRecord(record string, want int) ([]string, error) {
	fields := strings.Split(record, FieldSep)
	if len(fields) < want {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrTooFewFields, want, len(fields))
	}
	return fields, nil
}

// ParsePair splits a reducer input line into its key and value.
func ParsePair(line string) (types.KeyValue, error) {
	parts := strings.Split(line, PairSep)
	if len(parts) != 2 {
		return types.KeyValue{}, fmt.Errorf("%w: %d fields", ErrBadPair, len(parts))
	}
	return types.KeyValue{Key: parts[0], Value: parts[1]}, nil
}

// ParseDecimal parses a decimal number. Hexadecimal floats such as 0x1p2,
// which strconv accepts, are rejected.
func ParseDecimal(value string) (float64, error) {
	digits := strings.TrimLeft(value, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, fmt.Errorf("%q: not a decimal number", value)
	}
	return strconv.ParseFloat(value, 64)
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}

// writeLine writes s followed by a newline.
func writeLine(w *bufio.Writer, s string) error {
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	return w.WriteByte('\n')
}
