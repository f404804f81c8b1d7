package functions

import (
	"fmt"
	"sort"

	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/stream"
	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/types"
)

// Job pairs a map function with the reducer that consumes its output.
type Job struct {
	Name   string
	Input  string // source file consumed by the mapper
	Output string // aggregate file produced by the reducer
	Map    types.MapFunc
	Folder stream.Folder
}

var registry = map[string]Job{
	AvgRating.Name:    AvgRating,
	GenreCount.Name:   GenreCount,
	UserActivity.Name: UserActivity,
}

// Lookup returns the job registered under name.
func Lookup(name string) (Job, error) {
	job, ok := registry[name]
	if !ok {
		return Job{}, fmt.Errorf("unknown job %q", name)
	}
	return job, nil
}

// Jobs returns all registered jobs sorted by name.
func Jobs() []Job {
	jobs := make([]Job, 0, len(registry))
	for _, job := range registry {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

// NewMapper returns a stream mapper for the job with a job-specific log prefix.
func (j Job) NewMapper() *stream.Mapper {
	m := stream.NewMapper(j.Map)
	m.SetLogPrefix(fmt.Sprintf("[%s mapper]", j.Name))
	return m
}

// NewReducer returns a stream reducer for the job with a job-specific log prefix.
func (j Job) NewReducer() *stream.Reducer {
	r := stream.NewReducer(j.Folder)
	r.SetLogPrefix(fmt.Sprintf("[%s reducer]", j.Name))
	return r
}
