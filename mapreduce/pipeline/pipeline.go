package pipeline

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/functions"
	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/shuffle"
	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/stream"
)

// Options configures a local run.
type Options struct {
	Shuffle     shuffle.Options
	Strict      bool
	Diagnostics io.Writer // stderr when nil
}

// Result summarizes a local run.
type Result struct {
	Job    string
	Map    stream.Stats
	Reduce stream.Stats
	Runs   int // spilled shuffle runs
}

func (r Result) String() string {
	return fmt.Sprintf("%s: map %s; reduce %s; %d spilled runs", r.Job, r.Map, r.Reduce, r.Runs)
}

// Run executes job locally: the mapper reads inPath, its output is sorted
// by key and the reducer writes the aggregate to outPath. The three stages
// are connected with pipes and run concurrently.
func Run(job functions.Job, inPath, outPath string, opts Options) (res Result, err error) {
	res.Job = job.Name
	diag := opts.Diagnostics
	if diag == nil {
		diag = os.Stderr
	}
	logger := log.New(diag, fmt.Sprintf("[%s pipeline] ", job.Name), log.LstdFlags)

	in, err := os.Open(inPath)
	if err != nil {
		return res, err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return res, err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	mapper := job.NewMapper()
	mapper.SetDiagnostics(diag)
	sorter := shuffle.NewSorter(opts.Shuffle)
	sorter.SetLogPrefix(fmt.Sprintf("[%s shuffle]", job.Name))
	sorter.SetDiagnostics(diag)
	reducer := job.NewReducer()
	reducer.SetDiagnostics(diag)
	reducer.SetStrict(opts.Strict)

	sortIn, mapOut := io.Pipe()
	reduceIn, sortOut := io.Pipe()
	var (
		wg              sync.WaitGroup
		mapErr, sortErr error
		mapStats        stream.Stats
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		mapStats, mapErr = mapper.Run(in, mapOut)
		mapOut.CloseWithError(mapErr)
	}()
	go func() {
		defer wg.Done()
		if _, sortErr = sorter.ReadFrom(sortIn); sortErr != nil {
			sorter.Cleanup()
			sortIn.CloseWithError(sortErr)
			sortOut.CloseWithError(sortErr)
			return
		}
		res.Runs = sorter.Runs()
		_, sortErr = sorter.WriteTo(sortOut)
		sortOut.CloseWithError(sortErr)
	}()

	reduceStats, reduceErr := reducer.Run(reduceIn, out)
	// unblock the sort stage if the reducer stopped early
	reduceIn.Close()
	wg.Wait()

	res.Map = mapStats
	res.Reduce = reduceStats
	if mapErr != nil {
		return res, fmt.Errorf("map %s: %w", inPath, mapErr)
	}
	if reduceErr != nil {
		return res, fmt.Errorf("reduce to %s: %w", outPath, reduceErr)
	}
	if sortErr != nil {
		return res, fmt.Errorf("shuffle: %w", sortErr)
	}
	logger.Printf("finished: %s", res)
	return res, nil
}
