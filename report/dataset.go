package report

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/Jeathu/MovieLens-Big-Data-project/mapreduce/stream"
)

// Movie is one record of movies.dat.
type Movie struct {
	ID     int
	Title  string
	Genres []string
}

// User is one record of users.dat.
type User struct {
	ID         int
	Gender     string
	Age        int
	Occupation string
	Zipcode    string
}

// Rating is one record of ratings.dat.
type Rating struct {
	UserID  int
	MovieID int
	Score   float64
}

// eachLatin1Line calls fn with the `::`-split fields of every line of the
// Latin-1 encoded file at path.
func eachLatin1Line(path string, fn func(fields []string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return eachLine(charmap.ISO8859_1.NewDecoder().Reader(f), stream.FieldSep, fn)
}

func eachLine(r io.Reader, sep string, fn func(fields []string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fn(strings.Split(line, sep))
	}
	return sc.Err()
}

// LoadMovies reads movies.dat. Malformed records are ignored.
func LoadMovies(path string) (map[int]Movie, error) {
	movies := make(map[int]Movie)
	err := eachLatin1Line(path, func(p []string) {
		if len(p) < 3 {
			return
		}
		id, err := strconv.Atoi(p[0])
		if err != nil {
			return
		}
		var genres []string
		if p[2] != "" {
			genres = strings.Split(p[2], "|")
		}
		movies[id] = Movie{ID: id, Title: p[1], Genres: genres}
	})
	return movies, err
}

// LoadUsers reads users.dat. Malformed records are ignored.
func LoadUsers(path string) (map[int]User, error) {
	users := make(map[int]User)
	err := eachLatin1Line(path, func(p []string) {
		if len(p) < 3 {
			return
		}
		id, err := strconv.Atoi(p[0])
		if err != nil {
			return
		}
		age, err := strconv.Atoi(p[2])
		if err != nil {
			return
		}
		u := User{ID: id, Gender: p[1], Age: age}
		if len(p) >= 5 {
			u.Occupation, u.Zipcode = p[3], p[4]
		}
		users[id] = u
	})
	return users, err
}

// ScanRatings calls fn for every well-formed record of ratings.dat.
func ScanRatings(path string, fn func(Rating)) error {
	return eachLatin1Line(path, func(p []string) {
		if len(p) < 3 {
			return
		}
		uid, err := strconv.Atoi(p[0])
		if err != nil {
			return
		}
		mid, err := strconv.Atoi(p[1])
		if err != nil {
			return
		}
		score, err := strconv.ParseFloat(p[2], 64)
		if err != nil {
			return
		}
		fn(Rating{UserID: uid, MovieID: mid, Score: score})
	})
}
