package functions

import (
	"strconv"
	"strings"

	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/stream"
	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/types"
)

// GenreSep separates the genres of a movie.
const GenreSep = "|"

// GenreCount counts movies per genre.
var GenreCount = Job{
	Name:   "genre_count",
	Input:  "movies.dat",
	Output: "genre_counts.tsv",
	Map:    GenreCountMap,
	Folder: genreCountFolder{},
}

// GenreCountMap maps `MovieID::Title::Genre|Genre|...` to one (Genre, 1)
// pair per non-empty genre.
func GenreCountMap(record string) ([]types.KeyValue, error) {
	fields, err := stream.SplitRecord(record, 3)
	if err != nil {
		return nil, err
	}
	genres := strings.Split(fields[2], GenreSep)
	kva := make([]types.KeyValue, 0, len(genres))
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g != "" {
			kva = append(kva, types.KeyValue{Key: g, Value: "1"})
		}
	}
	return kva, nil
}

type genreCountFolder struct{}

// ParseValue accepts integer counts only; the sum of the values is the count.
func (genreCountFolder) ParseValue(value string) (float64, error) {
	n, err := strconv.Atoi(value)
	return float64(n), err
}

// Format renders `genre\tcount`.
func (genreCountFolder) Format(g stream.Group) string {
	return g.Key + "\t" + strconv.FormatInt(int64(g.Agg.Sum), 10)
}
