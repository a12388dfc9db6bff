package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/varoOP/anistream/internal/domain"
)

const titleWidth = 48

func renderTable(w io.Writer, v any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	switch t := v.(type) {
	case []domain.SearchResult:
		searchTable(tw, t)
	case []domain.Anime:
		animeTable(tw, t)
	case *domain.AnimePage:
		animeTable(tw, t.Animes)
		if err := tw.Flush(); err != nil {
			return err
		}
		if len(t.Animes) == 0 {
			fmt.Fprintln(w, "No results.")
		}
		fmt.Fprintf(w, "\nPage %d of %d (%d total)\n", t.Page, t.TotalPages, t.TotalCount)
		return nil
	case *domain.AnimeDetails:
		detailsTable(tw, t)
	case []domain.Episode:
		episodeTable(tw, t)
	case []domain.StreamSource:
		fmt.Fprintln(tw, "RESOLUTION\tURL")
		for _, s := range t {
			fmt.Fprintf(tw, "%dp\t%s\n", s.Resolution, s.URL)
		}
	case *domain.LatestPage:
		latestTable(tw, t.Episodes)
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nPage %d of %d (%d total)\n", t.Page, t.TotalPages, t.TotalCount)
		return nil
	case *domain.SkipTimes:
		fmt.Fprintln(tw, "SEGMENT\tSTART\tEND")
		if t.Empty() {
			fmt.Fprintln(tw, "-\t-\t-")
		} else {
			skipRow(tw, "opening", t.Opening)
			skipRow(tw, "ending", t.Ending)
		}
	case fmt.Stringer:
		fmt.Fprintln(tw, t.String())
	default:
		return Render(w, YAML, v)
	}

	return tw.Flush()
}

func searchTable(w io.Writer, results []domain.SearchResult) {
	fmt.Fprintln(w, "SLUG\tTITLE\tENGLISH")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Slug, truncate(r.Title), truncate(r.English))
	}
}

func animeTable(w io.Writer, animes []domain.Anime) {
	fmt.Fprintln(w, "SLUG\tTITLE\tSCORE\tGENRES")
	for _, a := range animes {
		score := "-"
		if a.Score > 0 {
			score = strconv.FormatFloat(a.Score, 'f', 1, 64)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Slug, truncate(a.Title), score, strings.Join(a.Genres, ", "))
	}
}

func detailsTable(w io.Writer, d *domain.AnimeDetails) {
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(w, "%s\t%s\n", k, v)
		}
	}

	row("Title", d.Title)
	row("English", d.English)
	row("Romaji", d.Romaji)
	row("Original", d.OriginalName)
	row("Type", d.Type)
	row("Status", d.Status)
	row("Aired", strings.Trim(d.FirstAirDate+" - "+d.LastAirDate, " -"))
	row("Seasons", strconv.Itoa(d.SeasonCount()))
	row("Episodes", strconv.Itoa(d.NumberOfEpisodes))
	if d.Score > 0 {
		row("Score", strconv.FormatFloat(d.Score, 'f', 1, 64))
	}
	row("Genres", strings.Join(d.Genres, ", "))
	if d.MalID > 0 {
		row("MAL", strconv.Itoa(d.MalID))
	}
	if n := d.NextEpisodeToAir; n != nil {
		row("Next", fmt.Sprintf("S%02dE%02d on %s", n.SeasonNumber, n.EpisodeNumber, n.AirDate))
	}
	row("Summary", truncate(d.Summary))
}

func episodeTable(w io.Writer, episodes []domain.Episode) {
	fmt.Fprintln(w, "SEASON\tEPISODE\tTITLE\tAIRED\tFILES")
	for _, e := range episodes {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\n", e.Season, e.Number, truncate(e.Title), e.AirDate, len(e.Files))
	}
}

func latestTable(w io.Writer, episodes []domain.LatestEpisode) {
	fmt.Fprintln(w, "SLUG\tTITLE\tEPISODE\tADDED")
	for _, e := range episodes {
		added := "-"
		if e.CreatedAt > 0 {
			added = humanize.Time(epoch(e.CreatedAt))
		}
		fmt.Fprintf(w, "%s\t%s\tS%02dE%02d\t%s\n", e.Slug, truncate(e.Title), e.Season, e.Number, added)
	}
}

func skipRow(w io.Writer, name string, i *domain.Interval) {
	if i == nil {
		fmt.Fprintf(w, "%s\t-\t-\n", name)
		return
	}
	fmt.Fprintf(w, "%s\t%s\t%s\n", name, clock(i.Start), clock(i.End))
}

func clock(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// epoch accepts both second and millisecond timestamps.
func epoch(v int64) time.Time {
	if v > 1e12 {
		return time.UnixMilli(v)
	}
	return time.Unix(v, 0)
}

func truncate(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, titleWidth, "…")
}
