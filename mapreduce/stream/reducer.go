package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/Jeathu/MovieLens-Big-Data-project/utils"
)

// ErrKeyReopened is returned in strict mode when a key shows up again after
// its run was closed.
var ErrKeyReopened = errors.New("key reappeared after its group was closed")

// OrderError reports a grouping violation found in strict mode.
type OrderError struct {
	Key  string
	Line int
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("line %d: key %q: %v", e.Line, e.Key, ErrKeyReopened)
}

func (e *OrderError) Unwrap() error {
	return ErrKeyReopened
}

// Aggregate is the running state of one group.
// Sum is never rounded; rounding happens when the group is formatted.
type Aggregate struct {
	Sum   float64
	Count int
}

// Add folds one value into the aggregate.
func (a Aggregate) Add(v float64) Aggregate {
	return Aggregate{Sum: a.Sum + v, Count: a.Count + 1}
}

// Mean returns Sum/Count, or 0 for an empty aggregate.
func (a Aggregate) Mean() float64 {
	if a.Count == 0 {
		return 0
	}
	return a.Sum / float64(a.Count)
}

// Group is a closed run of pairs sharing a key.
type Group struct {
	Key string
	Agg Aggregate
}

// State is the reducer accumulator. The zero value has no current key.
type State struct {
	open    bool
	current Group
}

// Key returns the current key, if any.
func (s State) Key() (string, bool) {
	return s.current.Key, s.open
}

// Push folds the pair (key, v) into the state. When key differs from the
// current key the current group is returned as done and a fresh group is
// started from v.
func (s State) Push(key string, v float64) (next State, done Group, flushed bool) {
	if s.open && key == s.current.Key {
		s.current.Agg = s.current.Agg.Add(v)
		return s, Group{}, false
	}
	next = State{open: true, current: Group{Key: key, Agg: Aggregate{}.Add(v)}}
	if !s.open {
		return next, Group{}, false
	}
	return next, s.current, true
}

// Finish returns the last group, if any key was ever seen.
func (s State) Finish() (Group, bool) {
	return s.current, s.open
}

// Folder describes one reducer instance: how values parse and how a closed
// group is rendered.
type Folder interface {
	ParseValue(value string) (float64, error)
	Format(g Group) string
}

// Reducer aggregates key-grouped `key\tvalue` lines into one line per run.
// Input must arrive grouped by key; that is guaranteed by the sort step in
// front of the reducer, not checked here unless strict mode is on.
type Reducer struct {
	folder  Folder
	logger  *log.Logger
	summary *log.Logger
	strict  bool
}

// NewReducer creates a Reducer that logs to stderr.
func NewReducer(folder Folder) *Reducer {
	return &Reducer{
		folder:  folder,
		logger:  log.New(os.Stderr, "[reducer] ", log.LstdFlags),
		summary: log.New(io.Discard, "[reducer] ", log.LstdFlags),
	}
}

// SetLogPrefix sets the prefix of the diagnostic messages.
func (r *Reducer) SetLogPrefix(prefix string) {
	r.logger.SetPrefix(prefix + " ")
	r.summary.SetPrefix(prefix + " ")
}

// SetDiagnostics redirects the diagnostic messages.
func (r *Reducer) SetDiagnostics(w io.Writer) {
	r.logger.SetOutput(w)
}

// SetSummary sends the end of pass summary to w. It is discarded by default
// so that the diagnostic stream only carries rejected lines.
func (r *Reducer) SetSummary(w io.Writer) {
	r.summary.SetOutput(w)
}

// SetStrict makes Run fail with an *OrderError when a closed key reappears.
func (r *Reducer) SetStrict(strict bool) {
	r.strict = strict
}

// Run reads grouped pairs from in and writes one summary line per group to out.
func (r *Reducer) Run(in io.Reader, out io.Writer) (Stats, error) {
	var (
		stats  Stats
		state  State
		lineNo int
	)
	closed := utils.NewOrderedList[string]()
	bw := bufio.NewWriter(out)
	emit := func(g Group) error {
		if r.strict {
			closed.Insert(g.Key)
		}
		if err := writeLine(bw, r.folder.Format(g)); err != nil {
			return fmt.Errorf("write group %q: %w", g.Key, err)
		}
		stats.Emitted++
		return nil
	}

	sc := newLineScanner(in)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		stats.Read++
		kv, err := ParsePair(line)
		if err != nil {
			stats.Skipped++
			r.logger.Printf("skipping line %d %q: %v", lineNo, line, err)
			continue
		}
		v, err := r.folder.ParseValue(kv.Value)
		if err != nil {
			stats.Skipped++
			r.logger.Printf("skipping line %d %q: %v: %v", lineNo, line, ErrBadValue, err)
			continue
		}
		if r.strict {
			if cur, ok := state.Key(); (!ok || cur != kv.Key) && closed.Contains(kv.Key) {
				return stats, &OrderError{Key: kv.Key, Line: lineNo}
			}
		}
		next, done, flushed := state.Push(kv.Key, v)
		if flushed {
			if err := emit(done); err != nil {
				return stats, err
			}
		}
		state = next
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("read input: %w", err)
	}
	if last, ok := state.Finish(); ok {
		if err := emit(last); err != nil {
			return stats, err
		}
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}
	r.summary.Printf("done: %s", stats)
	return stats, nil
}
