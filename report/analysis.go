package report

import (
	"sort"
	"strconv"
	"time"
)

// Options tunes the report tables.
type Options struct {
	TopK     int // rows in the popular and top rated tables
	MinVotes int // ratings a movie needs to enter the top rated table
	Ranked   int // rows in the genre, age and user tables
}

// DefaultOptions matches the published dashboards.
var DefaultOptions = Options{TopK: 15, MinVotes: 200, Ranked: 10}

// Inputs holds what the report is computed from. Users, GenreCounts and
// UserActivity may be nil; their sections are left empty.
type Inputs struct {
	Movies       map[int]Movie
	Users        map[int]User
	RatingsPath  string
	AvgRatings   []MovieStat
	GenreCounts  []GenreCount
	UserActivity []UserStat
}

// MovieRow is a movie stat with its title resolved.
type MovieRow struct {
	Title string
	Avg   float64
	Count int
}

// Bucket is one star value of the rating distribution.
type Bucket struct {
	Stars   int
	Count   int
	Percent float64
}

// Ranked is a labelled count.
type Ranked struct {
	Label string
	Count int
}

// GenderStat summarizes the users of one gender.
type GenderStat struct {
	Gender string
	Users  int
	Votes  int
	Avg    float64
}

// Report is everything the renderers print.
type Report struct {
	Generated    time.Time
	MinVotes     int
	Movies       int
	Ratings      int
	Users        int
	Popular      []MovieRow
	TopRated     []MovieRow
	Distribution []Bucket
	GenreVotes   []Ranked
	AgeVotes     []Ranked
	Genders      []GenderStat
	GenreMovies  []Ranked
	ActiveUsers  []UserStat
}

// VotesPerMovie is the integer mean number of ratings per movie.
func (r *Report) VotesPerMovie() int {
	if r.Movies == 0 {
		return 0
	}
	return r.Ratings / r.Movies
}

// VotesPerUser is the integer mean number of ratings per user.
func (r *Report) VotesPerUser() int {
	if r.Users == 0 {
		return 0
	}
	return r.Ratings / r.Users
}

// Build computes the report in one pass over the ratings file.
func Build(in Inputs, opts Options) (*Report, error) {
	starCounts := make(map[int]int)
	genreVotes := make(map[string]int)
	ageVotes := make(map[int]int)
	genderVotes := make(map[string]int)
	genderSum := make(map[string]float64)
	total := 0

	err := ScanRatings(in.RatingsPath, func(r Rating) {
		starCounts[int(r.Score)]++
		total++
		if m, ok := in.Movies[r.MovieID]; ok {
			for _, g := range m.Genres {
				genreVotes[g]++
			}
		}
		if u, ok := in.Users[r.UserID]; ok {
			ageVotes[u.Age]++
			if u.Gender != "" {
				genderVotes[u.Gender]++
				genderSum[u.Gender] += r.Score
			}
		}
	})
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Generated: time.Now(),
		MinVotes:  opts.MinVotes,
		Movies:    len(in.Movies),
		Ratings:   total,
	}
	rep.Popular = movieRows(in.Movies, TopPopular(in.AvgRatings, opts.TopK))
	rep.TopRated = movieRows(in.Movies, TopRated(in.AvgRatings, opts.TopK, opts.MinVotes))

	for stars := 1; stars <= 5; stars++ {
		b := Bucket{Stars: stars, Count: starCounts[stars]}
		if total > 0 {
			b.Percent = float64(b.Count) / float64(total) * 100
		}
		rep.Distribution = append(rep.Distribution, b)
	}

	for g, n := range genreVotes {
		rep.GenreVotes = append(rep.GenreVotes, Ranked{Label: g, Count: n})
	}
	rep.GenreVotes = rank(rep.GenreVotes, opts.Ranked)
	for age, n := range ageVotes {
		rep.AgeVotes = append(rep.AgeVotes, Ranked{Label: strconv.Itoa(age), Count: n})
	}
	rep.AgeVotes = rank(rep.AgeVotes, opts.Ranked)

	usersByGender := make(map[string]int)
	for _, u := range in.Users {
		usersByGender[u.Gender]++
	}
	if len(in.Users) > 0 {
		for _, g := range []string{"M", "F"} {
			gs := GenderStat{Gender: g, Users: usersByGender[g], Votes: genderVotes[g]}
			if gs.Votes > 0 {
				gs.Avg = genderSum[g] / float64(gs.Votes)
			}
			rep.Genders = append(rep.Genders, gs)
		}
	}
	rep.Users = usersByGender["M"] + usersByGender["F"]

	for _, gc := range in.GenreCounts {
		rep.GenreMovies = append(rep.GenreMovies, Ranked{Label: gc.Genre, Count: gc.Count})
	}
	rep.GenreMovies = rank(rep.GenreMovies, -1)
	rep.ActiveUsers = MostActive(in.UserActivity, opts.Ranked)
	return rep, nil
}

func movieRows(movies map[int]Movie, stats []MovieStat) []MovieRow {
	rows := make([]MovieRow, 0, len(stats))
	for _, s := range stats {
		title := strconv.Itoa(s.MovieID)
		if m, ok := movies[s.MovieID]; ok {
			title = m.Title
		}
		rows = append(rows, MovieRow{Title: title, Avg: s.Avg, Count: s.Count})
	}
	return rows
}

// rank sorts by count descending, label ascending, and keeps the first k
// (all when k < 0).
func rank(items []Ranked, k int) []Ranked {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Label < items[j].Label
	})
	return head(items, k)
}
