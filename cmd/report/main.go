package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/functions"
	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/pipeline"
	"github.com/Jeathu/MovieLens-Big-Data-project/report"
)

func printUsage() {
	fmt.Printf(`Usage of %s: %s [OPTIONS]
Options:
  -data <dir>                Directory holding movies.dat, ratings.dat and users.dat (default ~/ml-1m).
  -results <dir>             Directory holding the job outputs (default ~/results).
  -format <text|html>        Report format (default text).
  -out <file>                Output file; text goes to stdout and html to the temp dir by default.
  -top <number>              Rows of the movie tables (default 15).
  -min-votes <number>        Ratings a movie needs to be ranked by mean rating (default 200).
  -h                         Print this help message.
`, os.Args[0], os.Args[0])
}

// expandHome replaces a leading ~ with the home directory
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// requiredFiles lists the inputs the report cannot be built without;
// users.dat is only needed by the text report.
func requiredFiles(data, results, format string) []string {
	required := []string{
		filepath.Join(data, "movies.dat"),
		filepath.Join(data, "ratings.dat"),
		filepath.Join(results, functions.AvgRating.Output),
	}
	if format == "text" {
		required = append(required, filepath.Join(data, "users.dat"))
	}
	return required
}

// verifyResults checks the job outputs against the _SUCCESS manifest of
// run-all when one is present.
func verifyResults(results string) error {
	if !exists(filepath.Join(results, pipeline.ManifestName)) {
		return nil
	}
	_, err := pipeline.VerifyManifest(results)
	return err
}

// checkFiles returns an error naming the first missing file
func checkFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("missing file: %s", p)
		}
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func main() {
	flagSet := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	dataDir := flagSet.String("data", "~/ml-1m", "Directory holding the .dat files")
	resultsDir := flagSet.String("results", "~/results", "Directory holding the job outputs")
	format := flagSet.String("format", "text", "Report format: text or html")
	outPath := flagSet.String("out", "", "Output file")
	topK := flagSet.Int("top", report.DefaultOptions.TopK, "Rows of the movie tables")
	minVotes := flagSet.Int("min-votes", report.DefaultOptions.MinVotes, "Ratings a movie needs to be ranked by mean rating")
	flagSet.Usage = printUsage
	flagSet.Parse(os.Args[1:])
	if *format != "text" && *format != "html" {
		fmt.Printf("unknown format %q\n", *format)
		printUsage()
		os.Exit(1)
	}

	data := expandHome(*dataDir)
	results := expandHome(*resultsDir)
	moviesPath := filepath.Join(data, "movies.dat")
	ratingsPath := filepath.Join(data, "ratings.dat")
	usersPath := filepath.Join(data, "users.dat")
	avgPath := filepath.Join(results, functions.AvgRating.Output)

	if err := checkFiles(requiredFiles(data, results, *format)...); err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		fmt.Printf("=> check that %s/*.dat and %s exist.\n", data, avgPath)
		os.Exit(1)
	}
	if err := verifyResults(results); err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		fmt.Printf("=> rerun run-all to regenerate %s.\n", results)
		os.Exit(1)
	}

	opts := report.DefaultOptions
	opts.TopK = *topK
	opts.MinVotes = *minVotes
	rep, err := build(moviesPath, ratingsPath, usersPath, avgPath, results, opts)
	if err != nil {
		log.Fatalf("[report] build failed: %v", err)
	}

	if *format == "text" {
		err = write(*outPath, func(w io.Writer) error { return report.RenderText(w, rep) })
	} else {
		if *outPath == "" {
			*outPath = filepath.Join(os.TempDir(), "movielens_report.html")
		}
		err = write(*outPath, func(w io.Writer) error { return report.RenderHTML(w, rep) })
		if err == nil {
			fmt.Println(*outPath)
		}
	}
	if err != nil {
		log.Fatalf("[report] render failed: %v", err)
	}
}

// build loads the inputs; users.dat and the genre and user outputs are
// optional for the html report.
func build(moviesPath, ratingsPath, usersPath, avgPath, results string, opts report.Options) (*report.Report, error) {
	movies, err := report.LoadMovies(moviesPath)
	if err != nil {
		return nil, err
	}
	avg, err := report.LoadAvgRatings(avgPath)
	if err != nil {
		return nil, err
	}
	in := report.Inputs{
		Movies:      movies,
		RatingsPath: ratingsPath,
		AvgRatings:  avg,
	}
	if exists(usersPath) {
		if in.Users, err = report.LoadUsers(usersPath); err != nil {
			return nil, err
		}
	}
	genrePath := filepath.Join(results, functions.GenreCount.Output)
	if exists(genrePath) {
		if in.GenreCounts, err = report.LoadGenreCounts(genrePath); err != nil {
			return nil, err
		}
	}
	userPath := filepath.Join(results, functions.UserActivity.Output)
	if exists(userPath) {
		if in.UserActivity, err = report.LoadUserActivity(userPath); err != nil {
			return nil, err
		}
	}
	return report.Build(in, opts)
}

// write renders to path, or to stdout when path is empty
func write(path string, render func(io.Writer) error) error {
	if path == "" {
		return render(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		return errors.Join(err, f.Close())
	}
	return f.Close()
}
