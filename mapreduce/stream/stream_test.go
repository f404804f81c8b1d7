package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/types"
)

// sumFolder renders `key\tsum\tcount\tmean`.
type sumFolder struct{}

func (sumFolder) ParseValue(v string) (float64, error) {
	return strconv.ParseFloat(v, 64)
}

func (sumFolder) Format(g Group) string {
	return fmt.Sprintf("%s\t%g\t%d\t%.2f", g.Key, g.Agg.Sum, g.Agg.Count, g.Agg.Mean())
}

func secondField(record string) ([]types.KeyValue, error) {
	fields, err := SplitRecord(record, 3)
	if err != nil {
		return nil, err
	}
	return []types.KeyValue{{Key: fields[1], Value: fields[2]}}, nil
}

func runMapper(t *testing.T, fn types.MapFunc, input string) (string, string, Stats) {
	t.Helper()
	var out, diag bytes.Buffer
	m := NewMapper(fn)
	m.SetDiagnostics(&diag)
	stats, err := m.Run(strings.NewReader(input), &out)
	if err != nil {
		t.Fatalf("mapper failed: %v", err)
	}
	return out.String(), diag.String(), stats
}

func runReducer(t *testing.T, strict bool, input string) (string, string, Stats, error) {
	t.Helper()
	var out, diag bytes.Buffer
	r := NewReducer(sumFolder{})
	r.SetDiagnostics(&diag)
	r.SetStrict(strict)
	stats, err := r.Run(strings.NewReader(input), &out)
	return out.String(), diag.String(), stats, err
}

func TestMapperProjectsAndKeepsOrder(t *testing.T) {
	out, diag, stats := runMapper(t, secondField, "1::10::5::978300760\n2::7::3::978302109\n\n1::10::3::978301968\n")
	want := "10\t5\n7\t3\n10\t3\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
	if diag != "" {
		t.Errorf("unexpected diagnostics: %s", diag)
	}
	if stats.Read != 3 || stats.Emitted != 3 || stats.Skipped != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestMapperSkipsShortRecord(t *testing.T) {
	out, diag, stats := runMapper(t, secondField, "1::2\n3::4::5\n")
	if out != "4\t5\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if n := strings.Count(diag, "skipping record"); n != 1 {
		t.Fatalf("expected one diagnostic, got %d:\n%s", n, diag)
	}
	if !strings.Contains(diag, `"1::2"`) {
		t.Errorf("diagnostic does not quote the record: %s", diag)
	}
	if stats.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", stats.Skipped)
	}
}

func TestMapperNoTrailingNewline(t *testing.T) {
	out, _, _ := runMapper(t, secondField, "1::10::5::0")
	if out != "10\t5\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestStateFold(t *testing.T) {
	var s State
	if _, ok := s.Finish(); ok {
		t.Fatalf("zero state should have no group")
	}
	s, _, flushed := s.Push("a", 1)
	if flushed {
		t.Fatalf("first push must not flush")
	}
	s, _, flushed = s.Push("a", 2)
	if flushed {
		t.Fatalf("same key must not flush")
	}
	s, done, flushed := s.Push("b", 4)
	if !flushed || done.Key != "a" || done.Agg.Sum != 3 || done.Agg.Count != 2 {
		t.Fatalf("unexpected flush %v %+v", flushed, done)
	}
	last, ok := s.Finish()
	if !ok || last.Key != "b" || last.Agg.Count != 1 {
		t.Fatalf("unexpected last group %+v", last)
	}
}

func TestReducerAverage(t *testing.T) {
	out, _, stats, err := runReducer(t, false, "10\t5\n10\t3\n")
	if err != nil {
		t.Fatal(err)
	}
	if out != "10\t8\t2\t4.00\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if stats.Emitted != 1 {
		t.Errorf("expected 1 group, got %d", stats.Emitted)
	}
}

func TestReducerFlushesFinalGroup(t *testing.T) {
	out, _, _, err := runReducer(t, false, "1\t1\n2\t2\n3\t4")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[2], "3\t4\t1") {
		t.Fatalf("final group missing: %q", out)
	}
}

func TestReducerRoundsOnlyOnOutput(t *testing.T) {
	out, _, _, err := runReducer(t, false, "k\t1\nk\t1\nk\t2\n")
	if err != nil {
		t.Fatal(err)
	}
	if out != "k\t4\t3\t1.33\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestReducerSkipsMalformed(t *testing.T) {
	input := "a\t1\nno-tab\na\tx\na\t1\t2\na\t3\n"
	out, diag, stats, err := runReducer(t, false, input)
	if err != nil {
		t.Fatal(err)
	}
	if out != "a\t4\t2\t2.00\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if stats.Skipped != 3 {
		t.Errorf("expected 3 skipped, got %d", stats.Skipped)
	}
	if strings.Count(diag, "skipping line") != 3 {
		t.Errorf("expected 3 diagnostics:\n%s", diag)
	}
	if !strings.Contains(diag, ErrBadValue.Error()) {
		t.Errorf("missing bad value diagnostic:\n%s", diag)
	}
}

func TestReducerGroupsByContiguity(t *testing.T) {
	run := "a\t1\na\t3\nb\t2\n"
	out, _, _, err := runReducer(t, false, run+run)
	if err != nil {
		t.Fatal(err)
	}
	want := "a\t4\t2\t2.00\nb\t2\t1\t2.00\na\t4\t2\t2.00\nb\t2\t1\t2.00\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestReducerStrictRejectsReopenedKey(t *testing.T) {
	out, _, _, err := runReducer(t, true, "a\t1\nb\t2\na\t3\n")
	var oe *OrderError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OrderError, got %v", err)
	}
	if oe.Key != "a" || oe.Line != 3 {
		t.Errorf("unexpected error %+v", oe)
	}
	if !errors.Is(err, ErrKeyReopened) {
		t.Errorf("error does not wrap ErrKeyReopened")
	}
	if out != "" {
		t.Errorf("output should not be flushed on failure, got %q", out)
	}
}

func TestReducerStrictAcceptsGroupedInput(t *testing.T) {
	out, _, _, err := runReducer(t, true, "a\t1\na\t2\nb\t2\n")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestReducerEmptyInput(t *testing.T) {
	out, _, stats, err := runReducer(t, false, "\n\n")
	if err != nil {
		t.Fatal(err)
	}
	if out != "" || stats.Read != 0 {
		t.Fatalf("unexpected output %q %+v", out, stats)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestMapperWriteError(t *testing.T) {
	m := NewMapper(secondField)
	m.SetDiagnostics(io.Discard)
	_, err := m.Run(strings.NewReader("1::2::3\n"), failingWriter{})
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestMapperOneDiagnosticPerMalformedRecord(t *testing.T) {
	_, diag, stats := runMapper(t, secondField, "1::10::5\nbad\n2::7::3\nworse::line\n")
	if stats.Skipped != 2 {
		t.Fatalf("skipped %d, want 2", stats.Skipped)
	}
	if n := strings.Count(diag, "\n"); n != 2 {
		t.Fatalf("got %d diagnostic lines, want 2:\n%s", n, diag)
	}
	if strings.Contains(diag, "done:") {
		t.Fatalf("summary leaked into diagnostics:\n%s", diag)
	}
}

func TestReducerOneDiagnosticPerMalformedLine(t *testing.T) {
	_, diag, stats, err := runReducer(t, false, "a\t1\na\tx\nnotab\nb\t2\n")
	if err != nil {
		t.Fatalf("reducer failed: %v", err)
	}
	if stats.Skipped != 2 {
		t.Fatalf("skipped %d, want 2", stats.Skipped)
	}
	if n := strings.Count(diag, "\n"); n != 2 {
		t.Fatalf("got %d diagnostic lines, want 2:\n%s", n, diag)
	}
}

func TestSummaryWrittenToSummaryStream(t *testing.T) {
	var out, diag, summary bytes.Buffer
	m := NewMapper(secondField)
	m.SetDiagnostics(&diag)
	m.SetSummary(&summary)
	if _, err := m.Run(strings.NewReader("1::10::5\nbad\n"), &out); err != nil {
		t.Fatalf("mapper failed: %v", err)
	}
	if !strings.Contains(summary.String(), "done: 2 read, 1 emitted, 1 skipped") {
		t.Fatalf("unexpected mapper summary %q", summary.String())
	}
	if strings.Count(diag.String(), "\n") != 1 {
		t.Fatalf("unexpected diagnostics %q", diag.String())
	}

	summary.Reset()
	r := NewReducer(sumFolder{})
	r.SetDiagnostics(io.Discard)
	r.SetSummary(&summary)
	if _, err := r.Run(strings.NewReader(out.String()), io.Discard); err != nil {
		t.Fatalf("reducer failed: %v", err)
	}
	if !strings.Contains(summary.String(), "done: 1 read, 1 emitted, 0 skipped") {
		t.Fatalf("unexpected reducer summary %q", summary.String())
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"4", 4, true},
		{"3.5", 3.5, true},
		{"-0.25", -0.25, true},
		{"0", 0, true},
		{"1e2", 100, true},
		{"0x1p2", 0, false},
		{"-0X10", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseDecimal(tt.in)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Errorf("ParseDecimal(%q) = %v, %v", tt.in, got, err)
		}
	}
}
