package stream

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/types"
)

// Mapper runs a map function over a stream of raw records.
// Each accepted record produces its pairs in input order; rejected records
// are reported on the diagnostic stream and the pass goes on.
type Mapper struct {
	mapFunc types.MapFunc
	logger  *log.Logger
	summary *log.Logger
}

// NewMapper creates a Mapper that logs to stderr.
func NewMapper(mapFunc types.MapFunc) *Mapper {
	return &Mapper{
		mapFunc: mapFunc,
		logger:  log.New(os.Stderr, "[mapper] ", log.LstdFlags),
		summary: log.New(io.Discard, "[mapper] ", log.LstdFlags),
	}
}

// SetLogPrefix sets the prefix of the diagnostic messages.
func (m *Mapper) SetLogPrefix(prefix string) {
	m.logger.SetPrefix(prefix + " ")
	m.summary.SetPrefix(prefix + " ")
}

// SetDiagnostics redirects the diagnostic messages.
func (m *Mapper) SetDiagnostics(w io.Writer) {
	m.logger.SetOutput(w)
}

// SetSummary sends the end of pass summary to w. It is discarded by default
// so that the diagnostic stream only carries rejected lines.
func (m *Mapper) SetSummary(w io.Writer) {
	m.summary.SetOutput(w)
}

// Run reads records from r and writes `key\tvalue` lines to w.
func (m *Mapper) Run(r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats
	bw := bufio.NewWriter(w)
	sc := newLineScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		stats.Read++
		pairs, err := m.mapFunc(line)
		if err != nil {
			stats.Skipped++
			m.logger.Printf("skipping record %q: %v", line, err)
			continue
		}
		for _, kv := range pairs {
			if err := writeLine(bw, kv.String()); err != nil {
				return stats, fmt.Errorf("write pair: %w", err)
			}
			stats.Emitted++
		}
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("read input: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}
	m.summary.Printf("done: %s", stats)
	return stats, nil
}
