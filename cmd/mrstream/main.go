package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Jeathu/MovieLens-Big-Data-project/cmd/mrstream/taskmgr"
	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/functions"
	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/pipeline"
	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/shuffle"
	"github.com/Jeathu/MovieLens-Big-Data-project/report"
)

const topMoviesFile = "top_movies.tsv"

type Context struct {
	opts     pipeline.Options
	topK     int
	minVotes int
	verbose  bool
}

func printUsage() {
	fmt.Printf(`Usage of %s: %s [OPTIONS] <COMMAND> [ARGS]
Options:
  -strict                    Fail the reduce pass when a key reappears after its group was closed.
  -spill-dir <dir>           Directory for shuffle runs (default: system temp dir).
  -buffer <bytes>            Mapper output kept in memory before a shuffle run is spilled (default 64MiB).
  -k <number>                (For top command) Number of movies to keep (default 15).
  -min-votes <number>        (For top command) Ratings a movie needs to be ranked (default 200).
  -v                         (For map and reduce commands) Log a summary of each pass.
  -h                         Print this help message.
Commands:
  jobs                       List the available jobs.
  map <job>                  Streaming mapper: raw records on stdin, key/value lines on stdout.
  reduce <job>               Streaming reducer: key-grouped key/value lines on stdin, summaries on stdout.
  sort                       Local shuffle: key/value lines on stdin, grouped by key on stdout.
  run <job> <input> <output> Run map, sort and reduce locally on a file.
  run-all <data_dir> <out_dir>  Run every job on the dataset and write a _SUCCESS manifest.
  top <avg_ratings> <output> Rank the best rated movies of an avg_rating output.
`, os.Args[0], os.Args[0])
}

func checkCommand(commands []string) error {
	if len(commands) == 0 {
		return errors.New("no command specified")
	}
	switch commands[0] {
	case "jobs", "sort":
		if len(commands) != 1 {
			return fmt.Errorf("%s command takes no argument", commands[0])
		}
	case "map", "reduce":
		if len(commands) != 2 {
			return fmt.Errorf("%s command requires 1 argument: <job>", commands[0])
		}
	case "run":
		if len(commands) != 4 {
			return errors.New("run command requires 3 arguments: <job> <input> <output>")
		}
	case "run-all":
		if len(commands) != 3 {
			return errors.New("run-all command requires 2 arguments: <data_dir> <out_dir>")
		}
	case "top":
		if len(commands) != 3 {
			return errors.New("top command requires 2 arguments: <avg_ratings> <output>")
		}
	default:
		return errors.New("unknown command")
	}
	return nil
}

func main() {
	flagSet := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	strict := flagSet.Bool("strict", false, "Fail when a key reappears after its group was closed")
	spillDir := flagSet.String("spill-dir", "", "Directory for shuffle runs")
	bufferSize := flagSet.Int("buffer", shuffle.DefaultBufferSize, "Mapper output kept in memory before a shuffle run is spilled")
	topK := flagSet.Int("k", report.DefaultOptions.TopK, "Number of movies to keep")
	minVotes := flagSet.Int("min-votes", report.DefaultOptions.MinVotes, "Ratings a movie needs to be ranked")
	verbose := flagSet.Bool("v", false, "Log a summary of each pass")
	flagSet.Usage = printUsage
	flagSet.Parse(os.Args[1:])
	err := checkCommand(flagSet.Args())
	if err != nil {
		fmt.Println(err)
		printUsage()
		os.Exit(1)
	}

	ctx := Context{
		opts: pipeline.Options{
			Shuffle: shuffle.Options{Dir: *spillDir, BufferSize: *bufferSize},
			Strict:  *strict,
		},
		topK:     *topK,
		minVotes: *minVotes,
		verbose:  *verbose,
	}
	var operation string
	args := flagSet.Args()
	switch args[0] {
	case "jobs":
		ctx.ListJobs()
	case "map":
		err = ctx.Map(args[1])
		operation = "map"
	case "reduce":
		err = ctx.Reduce(args[1])
		operation = "reduce"
	case "sort":
		err = ctx.Sort()
		operation = "sort"
	case "run":
		err = ctx.Run(args[1], args[2], args[3])
		operation = "run job"
	case "run-all":
		err = ctx.RunAll(args[1], args[2])
		operation = "run all jobs"
	case "top":
		err = ctx.Top(args[1], args[2])
		operation = "rank movies"
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", operation, err)
		os.Exit(1)
	}
}

// ListJobs prints the registered jobs
func (ctx *Context) ListJobs() {
	fmt.Printf("%-15s%-15s%s\n", "job", "input", "output")
	for _, job := range functions.Jobs() {
		fmt.Printf("%-15s%-15s%s\n", job.Name, job.Input, job.Output)
	}
}

// Map runs the streaming mapper of the job on stdin
func (ctx *Context) Map(name string) error {
	job, err := functions.Lookup(name)
	if err != nil {
		return err
	}
	m := job.NewMapper()
	if ctx.verbose {
		m.SetSummary(os.Stderr)
	}
	_, err = m.Run(os.Stdin, os.Stdout)
	return err
}

// Reduce runs the streaming reducer of the job on stdin
func (ctx *Context) Reduce(name string) error {
	job, err := functions.Lookup(name)
	if err != nil {
		return err
	}
	r := job.NewReducer()
	r.SetStrict(ctx.opts.Strict)
	if ctx.verbose {
		r.SetSummary(os.Stderr)
	}
	_, err = r.Run(os.Stdin, os.Stdout)
	return err
}

// Sort groups the mapper output on stdin by key
func (ctx *Context) Sort() error {
	return shuffle.Sort(os.Stdin, os.Stdout, ctx.opts.Shuffle)
}

// Run runs a job locally on a file
func (ctx *Context) Run(name, input, output string) error {
	job, err := functions.Lookup(name)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(job, input, output, ctx.opts)
	if err != nil {
		return err
	}
	fmt.Printf("job %s finished: %d groups written to %s\n", job.Name, res.Reduce.Emitted, output)
	return nil
}

type runContext struct {
	dataDir string
	outDir  string
}

// RunAll runs every job on the dataset. Jobs reading the same input file run
// one after the other; jobs on different inputs run concurrently.
func (ctx *Context) RunAll(dataDir, outDir string) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	mgr := taskmgr.NewTaskManager(func(rc *runContext, job functions.Job) error {
		_, err := pipeline.Run(job, filepath.Join(rc.dataDir, job.Input), filepath.Join(rc.outDir, job.Output), ctx.opts)
		if err != nil {
			return fmt.Errorf("job %s: %w", job.Name, err)
		}
		return nil
	})
	outputs := make([]string, 0)
	for _, job := range functions.Jobs() {
		mgr.AddContext(job.Input, &runContext{dataDir: dataDir, outDir: outDir})
		mgr.AddTask(job.Input, job)
		outputs = append(outputs, job.Output)
	}
	if err := mgr.Run(); err != nil {
		return err
	}

	err := ctx.Top(filepath.Join(outDir, functions.AvgRating.Output), filepath.Join(outDir, topMoviesFile))
	if err != nil {
		return err
	}
	outputs = append(outputs, topMoviesFile)
	entries, err := pipeline.WriteManifest(outDir, outputs)
	if err != nil {
		return err
	}
	for _, e := range entries {
		log.Printf("[run-all] %s\t%d bytes\t%s", e.MD5, e.Size, e.Name)
	}
	return nil
}

// Top writes the best rated movies of an avg_rating output
func (ctx *Context) Top(avgPath, output string) error {
	stats, err := report.LoadAvgRatings(avgPath)
	if err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := report.WriteTopMovies(f, report.TopRated(stats, ctx.topK, ctx.minVotes)); err != nil {
		return err
	}
	return f.Close()
}
