package shuffle

import (
	"bufio"
	"container/heap"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
)

// DefaultBufferSize is the amount of mapper output held in memory before a
// sorted run is spilled to disk.
const DefaultBufferSize = 64 * 1024 * 1024

// Options configures a Sorter.
type Options struct {
	Dir        string // spill directory, os.TempDir() when empty
	BufferSize int    // DefaultBufferSize when <= 0
}

// Sorter groups mapper output lines by key, the way the streaming framework
// does between the map and reduce stages. The sort is stable: lines sharing
// a key keep their arrival order.
type Sorter struct {
	opts   Options
	buf    []record
	size   int
	runs   []string
	logger *log.Logger
}

// NewSorter creates a Sorter that logs to stderr.
func NewSorter(opts Options) *Sorter {
	if opts.Dir == "" {
		opts.Dir = os.TempDir()
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	return &Sorter{
		opts:   opts,
		logger: log.New(os.Stderr, "[shuffle] ", log.LstdFlags),
	}
}

// SetLogPrefix sets the prefix of the log messages.
func (s *Sorter) SetLogPrefix(prefix string) {
	s.logger.SetPrefix(prefix + " ")
}

// SetDiagnostics redirects the log messages.
func (s *Sorter) SetDiagnostics(w io.Writer) {
	s.logger.SetOutput(w)
}

// Runs returns the number of runs spilled so far.
func (s *Sorter) Runs() int {
	return len(s.runs)
}

// Add buffers one mapper output line.
func (s *Sorter) Add(line string) error {
	r := parseRecord(line)
	s.buf = append(s.buf, r)
	s.size += r.size()
	if s.size >= s.opts.BufferSize {
		return s.spill()
	}
	return nil
}

// ReadFrom adds every line of rd.
func (s *Sorter) ReadFrom(rd io.Reader) (int64, error) {
	var n int64
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		n += int64(len(line)) + 1
		if line == "" {
			continue
		}
		if err := s.Add(line); err != nil {
			return n, err
		}
	}
	return n, sc.Err()
}

func sortRecords(recs []record) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].key < recs[j].key })
}

// spill sorts the buffer and writes it to a new run file.
func (s *Sorter) spill() error {
	sortRecords(s.buf)
	if err := ensureSpace(s.opts.Dir, uint64(s.size)); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.opts.Dir, "shuffle-run-*.bin")
	if err != nil {
		return err
	}
	s.runs = append(s.runs, f.Name())
	bw := bufio.NewWriter(f)
	for _, r := range s.buf {
		if err := writeFrame(bw, r); err != nil {
			f.Close()
			return fmt.Errorf("write run %s: %w", f.Name(), err)
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write run %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	s.logger.Printf("spilled %d records (%d bytes) to %s", len(s.buf), s.size, f.Name())
	clear(s.buf)
	s.buf = s.buf[:0]
	s.size = 0
	return nil
}

// Cleanup removes the spilled runs.
func (s *Sorter) Cleanup() error {
	errs := make([]error, 0)
	for _, name := range s.runs {
		if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	s.runs = nil
	return errors.Join(errs...)
}

// WriteTo writes every buffered line to w, sorted by key, then drops the
// spilled runs.
func (s *Sorter) WriteTo(w io.Writer) (n int64, err error) {
	defer func() {
		err = errors.Join(err, s.Cleanup())
	}()
	sortRecords(s.buf)
	sources := make([]source, 0, len(s.runs)+1)
	for _, name := range s.runs {
		f, err := os.Open(name)
		if err != nil {
			return n, err
		}
		defer f.Close()
		sources = append(sources, &runSource{rd: bufio.NewReader(f), name: name})
	}
	sources = append(sources, &memSource{recs: s.buf})

	h := &mergeHeap{}
	for i, src := range sources {
		if err := h.pushNext(src, i); err != nil {
			return n, err
		}
	}
	bw := bufio.NewWriter(w)
	for h.Len() > 0 {
		item := heap.Pop(h).(mergeItem)
		m, err := bw.WriteString(item.rec.line() + "\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
		if err := h.pushNext(sources[item.src], item.src); err != nil {
			return n, err
		}
	}
	s.buf = s.buf[:0]
	s.size = 0
	return n, bw.Flush()
}

// Sort reads mapper output lines from rd and writes them to w grouped by key.
func Sort(rd io.Reader, w io.Writer, opts Options) error {
	s := NewSorter(opts)
	if _, err := s.ReadFrom(rd); err != nil {
		s.Cleanup()
		return err
	}
	_, err := s.WriteTo(w)
	return err
}

type source interface {
	next() (record, error)
}

type memSource struct {
	recs []record
	i    int
}

func (m *memSource) next() (record, error) {
	if m.i >= len(m.recs) {
		return record{}, io.EOF
	}
	r := m.recs[m.i]
	m.i++
	return r, nil
}

type runSource struct {
	rd   *bufio.Reader
	name string
}

func (r *runSource) next() (record, error) {
	rec, err := readFrame(r.rd)
	if err != nil && err != io.EOF {
		return rec, fmt.Errorf("read run %s: %w", r.name, err)
	}
	return rec, err
}

type mergeItem struct {
	rec record
	src int
}

// mergeHeap orders by key, then by source so that earlier runs win ties.
type mergeHeap []mergeItem

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	if h[i].rec.key != h[j].rec.key {
		return h[i].rec.key < h[j].rec.key
	}
	return h[i].src < h[j].src
}
func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)   { *h = append(*h, x.(mergeItem)) }
func (h *mergeHeap) Pop() any {
	old := *h
	item := old[len(old)-1]
	*h = old[:len(old)-1]
	return item
}

// pushNext pulls the next record of src into the heap, if any.
func (h *mergeHeap) pushNext(src source, idx int) error {
	rec, err := src.next()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	heap.Push(h, mergeItem{rec: rec, src: idx})
	return nil
}
