package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/pipeline"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRequiredFiles(t *testing.T) {
	text := requiredFiles("data", "results", "text")
	html := requiredFiles("data", "results", "html")
	users := filepath.Join("data", "users.dat")
	if len(text) != 4 || text[3] != users {
		t.Fatalf("text report should require users.dat last, got %v", text)
	}
	if len(html) != 3 {
		t.Fatalf("html report should require 3 files, got %v", html)
	}
	for _, p := range html {
		if p == users {
			t.Fatalf("html report should not require users.dat: %v", html)
		}
	}
	if html[2] != filepath.Join("results", "avg_ratings.tsv") {
		t.Errorf("unexpected avg path %s", html[2])
	}
}

func TestCheckFilesNamesFirstMissing(t *testing.T) {
	data := t.TempDir()
	results := t.TempDir()
	touch(t, filepath.Join(data, "movies.dat"), "1::Toy Story (1995)::Comedy\n")

	tests := []struct {
		format  string
		missing string
	}{
		{"text", filepath.Join(data, "ratings.dat")},
		{"html", filepath.Join(data, "ratings.dat")},
	}
	for _, tt := range tests {
		err := checkFiles(requiredFiles(data, results, tt.format)...)
		if err == nil || err.Error() != "missing file: "+tt.missing {
			t.Errorf("%s: got %v, want missing file: %s", tt.format, err, tt.missing)
		}
	}

	touch(t, filepath.Join(data, "ratings.dat"), "1::1::5::978300760\n")
	touch(t, filepath.Join(results, "avg_ratings.tsv"), "1\t5.00\t1\n")
	if err := checkFiles(requiredFiles(data, results, "html")...); err != nil {
		t.Errorf("html: unexpected error %v", err)
	}
	err := checkFiles(requiredFiles(data, results, "text")...)
	if err == nil || !strings.HasSuffix(err.Error(), "users.dat") {
		t.Errorf("text: want users.dat reported missing, got %v", err)
	}

	touch(t, filepath.Join(data, "users.dat"), "1::F::1::10::48067\n")
	if err := checkFiles(requiredFiles(data, results, "text")...); err != nil {
		t.Errorf("text: unexpected error %v", err)
	}
}

func TestVerifyResults(t *testing.T) {
	results := t.TempDir()
	avg := filepath.Join(results, "avg_ratings.tsv")
	touch(t, avg, "1\t5.00\t1\n")
	if err := verifyResults(results); err != nil {
		t.Fatalf("results without a manifest should pass, got %v", err)
	}
	if _, err := pipeline.WriteManifest(results, []string{"avg_ratings.tsv"}); err != nil {
		t.Fatal(err)
	}
	if err := verifyResults(results); err != nil {
		t.Fatalf("untouched results should pass, got %v", err)
	}
	touch(t, avg, "1\t4.00\t1\n")
	if err := verifyResults(results); err == nil {
		t.Fatal("edited results should fail verification")
	}
}
