package functions

import (
	"strconv"

	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/stream"
	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/types"
)

// UserActivity computes the number of ratings and mean rating per user.
var UserActivity = Job{
	Name:   "user_activity",
	Input:  "ratings.dat",
	Output: "user_activity.tsv",
	Map:    UserActivityMap,
	Folder: userActivityFolder{},
}

// UserActivityMap maps `UserID::MovieID::Rating::Timestamp` to (UserID, Rating).
func UserActivityMap(record string) ([]types.KeyValue, error) {
	fields, err := stream.SplitRecord(record, 3)
	if err != nil {
		return nil, err
	}
	return []types.KeyValue{{Key: fields[0], Value: fields[2]}}, nil
}

type userActivityFolder struct{}

func (userActivityFolder) ParseValue(value string) (float64, error) {
	return stream.ParseDecimal(value)
}

// Format renders `userId\tcount\tavg`.
func (userActivityFolder) Format(g stream.Group) string {
	return g.Key + "\t" + strconv.Itoa(g.Agg.Count) + "\t" + strconv.FormatFloat(g.Agg.Mean(), 'f', 2, 64)
}
