package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	textWidth  = 70
	barWidth   = 24
	labelWidth = 28
)

// Bar draws value as a run of blocks scaled so that vmax fills width cells.
func Bar(value, vmax float64, width int) string {
	if vmax <= 0 {
		return ""
	}
	n := int(math.RoundToEven(value / vmax * float64(width)))
	if n < 0 {
		n = 0
	}
	return strings.Repeat("█", n)
}

// Thousands formats n with a space between groups of three digits.
func Thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func center(s string, width int) string {
	pad := width - utf8.RuneCountInString(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

type textWriter struct {
	w *bufio.Writer
}

func (t textWriter) header(title string) {
	rule := strings.Repeat("=", textWidth)
	fmt.Fprintf(t.w, "%s\n%s\n%s\n\n", rule, center(title, textWidth), rule)
}

func (t textWriter) row(label string, labelWidth int, value, vmax float64, tail string) {
	fmt.Fprintf(t.w, "%-*s  %-*s %s\n", labelWidth, truncate(label, labelWidth), barWidth, Bar(value, vmax, barWidth), tail)
}

func (t textWriter) ranked(items []Ranked, suffix string) {
	vmax := 1
	for _, it := range items {
		vmax = max(vmax, it.Count)
	}
	for _, it := range items {
		t.row(it.Label+suffix, labelWidth, float64(it.Count), float64(vmax), Thousands(it.Count))
	}
}

// RenderText writes the terminal report.
func RenderText(w io.Writer, r *Report) error {
	t := textWriter{w: bufio.NewWriter(w)}

	t.header(fmt.Sprintf("TOP %d MOST POPULAR MOVIES", len(r.Popular)))
	vmax := 1
	for _, m := range r.Popular {
		vmax = max(vmax, m.Count)
	}
	for _, m := range r.Popular {
		t.row(m.Title, labelWidth, float64(m.Count), float64(vmax), Thousands(m.Count))
	}
	fmt.Fprint(t.w, "\n\n")

	t.header(fmt.Sprintf("TOP %d BEST RATED MOVIES (min %d votes)", len(r.TopRated), r.MinVotes))
	amax := 5.0
	if len(r.TopRated) > 0 {
		amax = 0
		for _, m := range r.TopRated {
			amax = max(amax, m.Avg)
		}
	}
	for _, m := range r.TopRated {
		t.row(m.Title, labelWidth, m.Avg, amax, fmt.Sprintf("%.2f  (%d)", m.Avg, m.Count))
	}
	fmt.Fprint(t.w, "\n\n")

	t.header("RATING DISTRIBUTION")
	dmax := 1
	for _, b := range r.Distribution {
		dmax = max(dmax, b.Count)
	}
	for _, b := range r.Distribution {
		label := fmt.Sprintf("%d stars", b.Stars)
		t.row(label, 12, float64(b.Count), float64(dmax), fmt.Sprintf("%s (%.2f%%)", Thousands(b.Count), b.Percent))
	}
	fmt.Fprint(t.w, "\n\n")

	t.header(fmt.Sprintf("TOP %d GENRES BY NUMBER OF VOTES", len(r.GenreVotes)))
	t.ranked(r.GenreVotes, "")
	fmt.Fprint(t.w, "\n\n")

	if len(r.GenreMovies) > 0 {
		t.header("MOVIES PER GENRE")
		t.ranked(r.GenreMovies, "")
		fmt.Fprint(t.w, "\n\n")
	}

	if len(r.AgeVotes) > 0 {
		t.header("ACTIVITY BY AGE GROUP (number of votes)")
		amax := 1
		for _, a := range r.AgeVotes {
			amax = max(amax, a.Count)
		}
		for _, a := range r.AgeVotes {
			t.row(a.Label+" yrs", 12, float64(a.Count), float64(amax), Thousands(a.Count))
		}
		fmt.Fprint(t.w, "\n\n")
	}

	if len(r.ActiveUsers) > 0 {
		t.header(fmt.Sprintf("TOP %d MOST ACTIVE USERS", len(r.ActiveUsers)))
		umax := 1
		for _, u := range r.ActiveUsers {
			umax = max(umax, u.Count)
		}
		for _, u := range r.ActiveUsers {
			t.row("user "+strconv.Itoa(u.UserID), 12, float64(u.Count), float64(umax), fmt.Sprintf("%s  (avg %.2f)", Thousands(u.Count), u.Avg))
		}
		fmt.Fprint(t.w, "\n\n")
	}

	if len(r.Genders) > 0 {
		t.header("STATISTICS BY GENDER (MEN/WOMEN)")
		names := map[string]string{"M": "Men  ", "F": "Women"}
		for _, g := range r.Genders {
			fmt.Fprintf(t.w, "%s (%s) : %s users | %s votes | mean rating: %.2f\n",
				names[g.Gender], g.Gender, Thousands(g.Users), Thousands(g.Votes), g.Avg)
		}
		fmt.Fprint(t.w, "\n\n")
	}

	t.header("SUMMARY")
	fmt.Fprintf(t.w, "Movies analysed             : %10d\n", r.Movies)
	fmt.Fprintf(t.w, "Ratings                     : %10s\n", Thousands(r.Ratings))
	fmt.Fprintf(t.w, "Users                       : %10d\n", r.Users)
	fmt.Fprintf(t.w, "Mean votes per movie        : %10d\n", r.VotesPerMovie())
	fmt.Fprintf(t.w, "Mean votes per user         : %10d\n", r.VotesPerUser())
	return t.w.Flush()
}
