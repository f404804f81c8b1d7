package functions

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/stream"
)

// mapThenReduce runs the job's mapper, sorts the pairs by key and runs the reducer.
func mapThenReduce(t *testing.T, job Job, input string) (mapped, reduced string) {
	t.Helper()
	var mapOut, redOut bytes.Buffer
	m := job.NewMapper()
	m.SetDiagnostics(io.Discard)
	if _, err := m.Run(strings.NewReader(input), &mapOut); err != nil {
		t.Fatalf("map failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(mapOut.String()), "\n")
	sort.SliceStable(lines, func(i, j int) bool {
		return strings.SplitN(lines[i], "\t", 2)[0] < strings.SplitN(lines[j], "\t", 2)[0]
	})
	r := job.NewReducer()
	r.SetDiagnostics(io.Discard)
	if _, err := r.Run(strings.NewReader(strings.Join(lines, "\n")), &redOut); err != nil {
		t.Fatalf("reduce failed: %v", err)
	}
	return mapOut.String(), redOut.String()
}

func TestAvgRating(t *testing.T) {
	mapped, reduced := mapThenReduce(t, AvgRating, "1::10::5::978300760\n1::10::3::978302109\n")
	if mapped != "10\t5\n10\t3\n" {
		t.Fatalf("unexpected map output %q", mapped)
	}
	if reduced != "10\t4.00\t2\n" {
		t.Fatalf("unexpected reduce output %q", reduced)
	}
}

func TestAvgRatingSeveralMovies(t *testing.T) {
	input := strings.Join([]string{
		"1::1193::5::978300760",
		"1::661::3::978302109",
		"2::1193::4::978298413",
		"3::661::4::978297867",
		"3::1193::4::978297867",
	}, "\n")
	_, reduced := mapThenReduce(t, AvgRating, input)
	want := "1193\t4.33\t3\n661\t3.50\t2\n"
	if reduced != want {
		t.Fatalf("got %q, want %q", reduced, want)
	}
}

func TestGenreCount(t *testing.T) {
	input := "1::Toy Story (1995)::Animation|Children's|Comedy\n" +
		"2::Jumanji (1995)::Adventure|Children's|Fantasy\n" +
		"3::Grumpier Old Men (1995)::Comedy|Romance\n"
	mapped, reduced := mapThenReduce(t, GenreCount, input)
	if n := strings.Count(mapped, "\n"); n != 8 {
		t.Fatalf("expected 8 pairs, got %d: %q", n, mapped)
	}
	if !strings.HasPrefix(mapped, "Animation\t1\nChildren's\t1\nComedy\t1\n") {
		t.Fatalf("unexpected map output %q", mapped)
	}
	want := "Adventure\t1\nAnimation\t1\nChildren's\t2\nComedy\t2\nFantasy\t1\nRomance\t1\n"
	if reduced != want {
		t.Fatalf("got %q, want %q", reduced, want)
	}
}

func TestGenreCountSkipsEmptyGenres(t *testing.T) {
	kva, err := GenreCountMap("5::Untitled:: Drama || ")
	if err != nil {
		t.Fatal(err)
	}
	if len(kva) != 1 || kva[0].Key != "Drama" || kva[0].Value != "1" {
		t.Fatalf("unexpected pairs %v", kva)
	}
}

func TestUserActivity(t *testing.T) {
	input := "1::1193::5::0\n1::661::3::0\n1::914::3::0\n2::1357::5::0\n"
	_, reduced := mapThenReduce(t, UserActivity, input)
	want := "1\t3\t3.67\n2\t1\t5.00\n"
	if reduced != want {
		t.Fatalf("got %q, want %q", reduced, want)
	}
}

func TestMapRejectsShortRecords(t *testing.T) {
	for _, job := range Jobs() {
		if _, err := job.Map("1::2"); !errors.Is(err, stream.ErrTooFewFields) {
			t.Errorf("%s: expected ErrTooFewFields, got %v", job.Name, err)
		}
	}
}

func TestGenreCountRejectsFractionalCounts(t *testing.T) {
	if _, err := GenreCount.Folder.ParseValue("1.5"); err == nil {
		t.Fatalf("expected an error for a fractional count")
	}
}

func TestRatingFoldersRejectHexFloats(t *testing.T) {
	for _, job := range []Job{AvgRating, UserActivity} {
		for _, v := range []string{"0x1p2", "0X1P2", "-0x1p2", "+0x4"} {
			if _, err := job.Folder.ParseValue(v); err == nil {
				t.Errorf("%s: expected an error for %q", job.Name, v)
			}
		}
		if f, err := job.Folder.ParseValue("4.5"); err != nil || f != 4.5 {
			t.Errorf("%s: ParseValue(4.5) = %v, %v", job.Name, f, err)
		}
	}
	var out, diag bytes.Buffer
	r := AvgRating.NewReducer()
	r.SetDiagnostics(&diag)
	if _, err := r.Run(strings.NewReader("10\t0x1p2\n10\t4\n"), &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "10\t4.00\t1\n" {
		t.Fatalf("got %q, want the hex value skipped", out.String())
	}
	if strings.Count(diag.String(), "\n") != 1 {
		t.Fatalf("expected one diagnostic, got %q", diag.String())
	}
}

func TestLookup(t *testing.T) {
	job, err := Lookup("genre_count")
	if err != nil {
		t.Fatal(err)
	}
	if job.Input != "movies.dat" {
		t.Errorf("unexpected input %s", job.Input)
	}
	if _, err := Lookup("word_count"); err == nil {
		t.Errorf("expected error for unknown job")
	}
	names := make([]string, 0)
	for _, j := range Jobs() {
		names = append(names, j.Name)
	}
	if strings.Join(names, ",") != "avg_rating,genre_count,user_activity" {
		t.Errorf("unexpected job list %v", names)
	}
}

func ExampleUserActivity() {
	r := UserActivity.NewReducer()
	r.SetDiagnostics(io.Discard)
	r.Run(strings.NewReader("1\t5\n1\t4\n2\t3\n"), os.Stdout)
	// Output:
	// 1	2	4.50
	// 2	1	3.00
}
