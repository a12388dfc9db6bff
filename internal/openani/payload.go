package openani

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/varoOP/anistream/internal/domain"
)

// flexInt accepts numbers, numeric strings and null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexInt(n)
		return nil
	}

	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexString accepts strings, numbers and null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// nestedTitle is the "title" field, which is either a plain string or an
// object of language variants.
type nestedTitle struct {
	Plain   string `json:"-"`
	Turkish string `json:"turkish"`
	English string `json:"english"`
	Romaji  string `json:"romaji"`
}

func (t *nestedTitle) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '"':
		return json.Unmarshal(b, &t.Plain)
	case b[0] == '{':
		type variants nestedTitle
		var v variants
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = nestedTitle(v)
		return nil
	}
	return nil
}

type titleFields struct {
	Turkish      string      `json:"turkish"`
	English      string      `json:"english"`
	Romaji       string      `json:"romaji"`
	OriginalName string      `json:"originalName"`
	Title        nestedTitle `json:"title"`
}

func (t titleFields) set() domain.TitleSet {
	return domain.TitleSet{
		Turkish:       t.Turkish,
		English:       t.English,
		Romaji:        t.Romaji,
		OriginalName:  t.OriginalName,
		NestedTurkish: t.Title.Turkish,
		NestedEnglish: t.Title.English,
		NestedRomaji:  t.Title.Romaji,
	}
}

// display resolves the shown title; a plain string "title" ranks just above the slug.
func (t titleFields) display(slug string) string {
	return t.set().Display(domain.PickFirst(t.Title.Plain, slug))
}

type picturesRecord struct {
	Avatar string `json:"avatar"`
	Banner string `json:"banner"`
	Poster string `json:"poster"`
}

func (p picturesRecord) normalize() domain.Pictures {
	return domain.Pictures{Avatar: p.Avatar, Banner: p.Banner, Poster: p.Poster}
}

type summaryFields struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Synopsis    string `json:"synopsis"`
}

func (s summaryFields) text() string {
	return plainText(domain.PickFirst(s.Summary, s.Description, s.Synopsis))
}

type animeRecord struct {
	titleFields
	summaryFields

	Slug         string         `json:"slug"`
	Pictures     picturesRecord `json:"pictures"`
	Score        float64        `json:"score"`
	TmdbScore    float64        `json:"tmdbScore"`
	Genres       []string       `json:"genres"`
	Status       string         `json:"status"`
	FirstAirDate string         `json:"firstAirDate"`
	MalID        flexInt        `json:"malId"`
}

func (r animeRecord) normalize() domain.Anime {
	score := r.Score
	if score == 0 {
		score = r.TmdbScore
	}

	return domain.Anime{
		Slug:         r.Slug,
		Title:        r.display(r.Slug),
		Turkish:      domain.PickFirst(r.Turkish, r.Title.Turkish),
		English:      r.set().EnglishTitle(),
		Romaji:       r.set().RomajiTitle(),
		Summary:      r.text(),
		Pictures:     r.Pictures.normalize(),
		Score:        score,
		Genres:       lo.Compact(r.Genres),
		Status:       r.Status,
		FirstAirDate: r.FirstAirDate,
		MalID:        int(r.MalID),
	}
}

func (r animeRecord) searchResult() domain.SearchResult {
	return domain.SearchResult{
		Slug:     r.Slug,
		Title:    r.display(r.Slug),
		English:  r.set().EnglishTitle(),
		Romaji:   r.set().RomajiTitle(),
		Summary:  r.text(),
		ImageURL: r.Pictures.normalize().Image(),
	}
}

type animePageRecord struct {
	Animes     []animeRecord `json:"animes"`
	TotalCount int           `json:"totalCount"`
	TotalPages int           `json:"totalPages"`
	Page       int           `json:"page"`
}

func (r animePageRecord) normalize() *domain.AnimePage {
	page := &domain.AnimePage{
		Animes:     lo.Map(r.Animes, func(a animeRecord, _ int) domain.Anime { return a.normalize() }),
		TotalCount: r.TotalCount,
		TotalPages: r.TotalPages,
		Page:       r.Page,
	}
	if page.Page < 1 {
		page.Page = 1
	}
	return page
}

type seasonRecord struct {
	SeasonNumber int    `json:"season_number"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episode_count"`
}

type nextEpisodeRecord struct {
	AirDate       string `json:"air_date"`
	EpisodeNumber int    `json:"episode_number"`
	Name          string `json:"name"`
	SeasonNumber  int    `json:"season_number"`
}

type companyRecord struct {
	ID   flexString `json:"id"`
	Name string     `json:"name"`
	Logo string     `json:"logo"`
}

type detailsRecord struct {
	animeRecord

	Japanese            string             `json:"japanese"`
	Type                string             `json:"type"`
	EpisodeRuntime      int                `json:"episodeRuntime"`
	Adult               bool               `json:"adult"`
	InProduction        bool               `json:"inProduction"`
	TmdbID              flexString         `json:"tmdbId"`
	Keywords            []string           `json:"keywords"`
	GenresEnglish       []string           `json:"genresEnglish"`
	LastAirDate         string             `json:"lastAirDate"`
	Seasons             []seasonRecord     `json:"seasons"`
	NextEpisodeToAir    *nextEpisodeRecord `json:"nextEpisodeToAir"`
	ProductionCompanies []companyRecord    `json:"productionCompanies"`
	NumberOfEpisodes    int                `json:"numberOfEpisodes"`
	NumberOfSeasons     int                `json:"numberOfSeasons"`
	Trailer             string             `json:"trailer"`
	AgeRating           string             `json:"ageRating"`
	Source              string             `json:"source"`
	Broadcast           string             `json:"broadcast"`
	Website             string             `json:"website"`
	MyAnimeListURL      string             `json:"myAnimeListUrl"`
}

func (r detailsRecord) normalize() *domain.AnimeDetails {
	d := &domain.AnimeDetails{
		Anime:            r.animeRecord.normalize(),
		OriginalName:     r.OriginalName,
		Japanese:         r.Japanese,
		Type:             r.Type,
		EpisodeRuntime:   r.EpisodeRuntime,
		Adult:            r.Adult,
		InProduction:     r.InProduction,
		TmdbID:           string(r.TmdbID),
		Keywords:         r.Keywords,
		GenresEnglish:    r.GenresEnglish,
		LastAirDate:      r.LastAirDate,
		NumberOfEpisodes: r.NumberOfEpisodes,
		NumberOfSeasons:  r.NumberOfSeasons,
		Trailer:          r.Trailer,
		AgeRating:        r.AgeRating,
		Source:           r.Source,
		Broadcast:        r.Broadcast,
		Website:          r.Website,
		MyAnimeListURL:   r.MyAnimeListURL,
	}

	d.Seasons = lo.Map(r.Seasons, func(s seasonRecord, _ int) domain.Season {
		return domain.Season{Number: s.SeasonNumber, Name: s.Name, EpisodeCount: s.EpisodeCount}
	})
	d.ProductionCompanies = lo.Map(r.ProductionCompanies, func(c companyRecord, _ int) domain.ProductionCompany {
		return domain.ProductionCompany{ID: string(c.ID), Name: c.Name, Logo: c.Logo}
	})
	if n := r.NextEpisodeToAir; n != nil {
		d.NextEpisodeToAir = &domain.NextEpisode{
			AirDate:       n.AirDate,
			EpisodeNumber: n.EpisodeNumber,
			Name:          n.Name,
			SeasonNumber:  n.SeasonNumber,
		}
	}

	return d
}

type fileRecord struct {
	File       string  `json:"file"`
	Resolution flexInt `json:"resolution"`
}

type fansubRecord struct {
	ID         flexString `json:"id"`
	Name       string     `json:"name"`
	SecureName string     `json:"secureName"`
	Avatar     string     `json:"avatar"`
	Website    string     `json:"website"`
	Discord    string     `json:"discord"`
}

type episodeRecord struct {
	EpisodeNumber flexInt       `json:"episodeNumber"`
	Episode       flexInt       `json:"episode"`
	Number        flexInt       `json:"number"`
	Name          string        `json:"name"`
	Summary       string        `json:"summary"`
	AirDate       string        `json:"airDate"`
	Avatar        string        `json:"avatar"`
	Thumbnail     string        `json:"thumbnail"`
	Files         []fileRecord  `json:"files"`
	Fansub        *fansubRecord `json:"fansub"`
	MalID         flexInt       `json:"malId"`
}

func (r episodeRecord) normalize(slug string, season int) domain.Episode {
	ep := domain.Episode{
		Slug:      slug,
		Season:    season,
		Number:    domain.PickEpisodeNumber(int(r.EpisodeNumber), int(r.Episode), int(r.Number)),
		Title:     r.Name,
		Summary:   plainText(r.Summary),
		AirDate:   r.AirDate,
		Thumbnail: domain.PickFirst(r.Avatar, r.Thumbnail),
		Files:     normalizeFiles(r.Files),
		MalID:     int(r.MalID),
	}
	if ep.Title == "" {
		ep.Title = "Bölüm " + strconv.Itoa(ep.Number)
	}
	if f := r.Fansub; f != nil {
		ep.Fansub = &domain.Fansub{
			ID:         string(f.ID),
			Name:       f.Name,
			SecureName: f.SecureName,
			Avatar:     f.Avatar,
			Website:    f.Website,
			Discord:    f.Discord,
		}
	}
	return ep
}

// normalizeFiles drops entries without a path and fills in the default resolution.
func normalizeFiles(files []fileRecord) []domain.EpisodeFile {
	out := lo.FilterMap(files, func(f fileRecord, _ int) (domain.EpisodeFile, bool) {
		path := strings.TrimSpace(f.File)
		if path == "" {
			return domain.EpisodeFile{}, false
		}
		res := int(f.Resolution)
		if res <= 0 {
			res = domain.DefaultResolution
		}
		return domain.EpisodeFile{File: path, Resolution: res}, true
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

type seasonResponse struct {
	Season struct {
		Episodes []episodeRecord `json:"episodes"`
	} `json:"season"`
}

type streamResponse struct {
	EpisodeData *struct {
		Files []fileRecord `json:"files"`
	} `json:"episodeData"`
}

type latestRecord struct {
	titleFields

	ID        flexString     `json:"id"`
	Slug      string         `json:"slug"`
	Type      string         `json:"type"`
	Pictures  picturesRecord `json:"pictures"`
	Episode   flexInt        `json:"episode"`
	Number    flexInt        `json:"number"`
	EpisodeNo flexInt        `json:"episodeNumber"`
	Season    flexInt        `json:"season"`
	CreatedAt int64          `json:"createdAt"`
}

func (r latestRecord) normalize() domain.LatestEpisode {
	return domain.LatestEpisode{
		ID:        string(r.ID),
		Slug:      r.Slug,
		Title:     r.display(r.Slug),
		Type:      r.Type,
		Season:    int(r.Season),
		Number:    domain.PickEpisodeNumber(int(r.EpisodeNo), int(r.Episode), int(r.Number)),
		Pictures:  r.Pictures.normalize(),
		CreatedAt: r.CreatedAt,
	}
}

type latestPageRecord struct {
	Episodes   []latestRecord `json:"episodes"`
	TotalCount int            `json:"totalCount"`
	TotalPages int            `json:"totalPages"`
	Page       int            `json:"page"`
}

func (r latestPageRecord) normalize() *domain.LatestPage {
	page := &domain.LatestPage{
		Episodes:   lo.Map(r.Episodes, func(e latestRecord, _ int) domain.LatestEpisode { return e.normalize() }),
		TotalCount: r.TotalCount,
		TotalPages: r.TotalPages,
		Page:       r.Page,
	}
	if page.Page < 1 {
		page.Page = 1
	}
	return page
}
