package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// MovieStat is one line of avg_ratings.tsv.
type MovieStat struct {
	MovieID int
	Avg     float64
	Count   int
}

// GenreCount is one line of genre_counts.tsv.
type GenreCount struct {
	Genre string
	Count int
}

// UserStat is one line of user_activity.tsv.
type UserStat struct {
	UserID int
	Count  int
	Avg    float64
}

func eachTSVLine(path string, fn func(fields []string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return eachLine(f, "\t", fn)
}

// LoadAvgRatings reads `movieId\tavg\tcount` lines in file order.
func LoadAvgRatings(path string) ([]MovieStat, error) {
	stats := make([]MovieStat, 0)
	err := eachTSVLine(path, func(p []string) {
		if len(p) < 3 {
			return
		}
		mid, err1 := strconv.Atoi(p[0])
		avg, err2 := strconv.ParseFloat(p[1], 64)
		cnt, err3 := strconv.Atoi(p[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return
		}
		stats = append(stats, MovieStat{MovieID: mid, Avg: avg, Count: cnt})
	})
	return stats, err
}

// LoadGenreCounts reads `genre\tcount` lines in file order.
func LoadGenreCounts(path string) ([]GenreCount, error) {
	counts := make([]GenreCount, 0)
	err := eachTSVLine(path, func(p []string) {
		if len(p) < 2 {
			return
		}
		n, err := strconv.Atoi(p[1])
		if err != nil {
			return
		}
		counts = append(counts, GenreCount{Genre: p[0], Count: n})
	})
	return counts, err
}

// LoadUserActivity reads `userId\tcount\tavg` lines in file order.
func LoadUserActivity(path string) ([]UserStat, error) {
	stats := make([]UserStat, 0)
	err := eachTSVLine(path, func(p []string) {
		if len(p) < 3 {
			return
		}
		uid, err1 := strconv.Atoi(p[0])
		cnt, err2 := strconv.Atoi(p[1])
		avg, err3 := strconv.ParseFloat(p[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return
		}
		stats = append(stats, UserStat{UserID: uid, Count: cnt, Avg: avg})
	})
	return stats, err
}

// TopPopular returns the k movies with the most ratings.
func TopPopular(stats []MovieStat, k int) []MovieStat {
	sorted := append([]MovieStat(nil), stats...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })
	return head(sorted, k)
}

// TopRated returns the k best rated movies among those with at least
// minVotes ratings.
func TopRated(stats []MovieStat, k, minVotes int) []MovieStat {
	filtered := make([]MovieStat, 0, len(stats))
	for _, s := range stats {
		if s.Count >= minVotes {
			filtered = append(filtered, s)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Avg > filtered[j].Avg })
	return head(filtered, k)
}

// MostActive returns the k users with the most ratings.
func MostActive(stats []UserStat, k int) []UserStat {
	sorted := append([]UserStat(nil), stats...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })
	return head(sorted, k)
}

func head[T any](s []T, k int) []T {
	if k >= 0 && len(s) > k {
		return s[:k]
	}
	return s
}

// WriteTopMovies writes `rank\tmovieId\tavg\tcount` lines, rank starting at 1.
func WriteTopMovies(w io.Writer, top []MovieStat) error {
	bw := bufio.NewWriter(w)
	for i, s := range top {
		fmt.Fprintf(bw, "%d\t%d\t%.2f\t%d\n", i+1, s.MovieID, s.Avg, s.Count)
	}
	return bw.Flush()
}
