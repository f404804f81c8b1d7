package functions

import (
	"strconv"

	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/stream"
	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/types"
)

// AvgRating computes the mean rating and number of ratings per movie.
var AvgRating = Job{
	Name:   "avg_rating",
	Input:  "ratings.dat",
	Output: "avg_ratings.tsv",
	Map:    AvgRatingMap,
	Folder: avgRatingFolder{},
}

// AvgRatingMap maps `UserID::MovieID::Rating::Timestamp` to (MovieID, Rating).
func AvgRatingMap(record string) ([]types.KeyValue, error) {
	fields, err := stream.SplitRecord(record, 3)
	if err != nil {
		return nil, err
	}
	return []types.KeyValue{{Key: fields[1], Value: fields[2]}}, nil
}

type avgRatingFolder struct{}

func (avgRatingFolder) ParseValue(value string) (float64, error) {
	return stream.ParseDecimal(value)
}

// Format renders `movieId\tavg\tcount`.
func (avgRatingFolder) Format(g stream.Group) string {
	return g.Key + "\t" + strconv.FormatFloat(g.Agg.Mean(), 'f', 2, 64) + "\t" + strconv.Itoa(g.Agg.Count)
}
