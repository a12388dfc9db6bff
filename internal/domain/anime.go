package domain

// Anime is the normalized listing record shown in grids and search results.
type Anime struct {
	Slug         string   `json:"slug" yaml:"slug"`
	Title        string   `json:"title" yaml:"title"`
	Turkish      string   `json:"turkish,omitempty" yaml:"turkish,omitempty"`
	English      string   `json:"english,omitempty" yaml:"english,omitempty"`
	Romaji       string   `json:"romaji,omitempty" yaml:"romaji,omitempty"`
	Summary      string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Pictures     Pictures `json:"pictures" yaml:"pictures"`
	Score        float64  `json:"score,omitempty" yaml:"score,omitempty"`
	Genres       []string `json:"genres,omitempty" yaml:"genres,omitempty"`
	Status       string   `json:"status,omitempty" yaml:"status,omitempty"`
	FirstAirDate string   `json:"firstAirDate,omitempty" yaml:"firstAirDate,omitempty"`
	MalID        int      `json:"malId,omitempty" yaml:"malId,omitempty"`
}

// Pictures holds the image URLs of an anime or episode.
type Pictures struct {
	Avatar string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Banner string `json:"banner,omitempty" yaml:"banner,omitempty"`
	Poster string `json:"poster,omitempty" yaml:"poster,omitempty"`
}

// Image returns the best card image: avatar, then poster, then banner.
func (p Pictures) Image() string {
	return PickFirst(p.Avatar, p.Poster, p.Banner)
}

// AnimePage is one page of a filtered listing.
type AnimePage struct {
	Animes     []Anime `json:"animes" yaml:"animes"`
	TotalCount int     `json:"totalCount" yaml:"totalCount"`
	TotalPages int     `json:"totalPages" yaml:"totalPages"`
	Page       int     `json:"page" yaml:"page"`
}

// EmptyAnimePage is the fallback returned when a listing cannot be fetched.
func EmptyAnimePage() *AnimePage {
	return &AnimePage{Animes: []Anime{}, Page: 1}
}

// SearchResult is a compact search or "similar titles" hit.
type SearchResult struct {
	Slug     string `json:"slug" yaml:"slug"`
	Title    string `json:"title" yaml:"title"`
	English  string `json:"english,omitempty" yaml:"english,omitempty"`
	Romaji   string `json:"romaji,omitempty" yaml:"romaji,omitempty"`
	Summary  string `json:"summary,omitempty" yaml:"summary,omitempty"`
	ImageURL string `json:"image,omitempty" yaml:"image,omitempty"`
}

// AnimeDetails is the full record of a single anime.
type AnimeDetails struct {
	Anime

	OriginalName        string              `json:"originalName,omitempty" yaml:"originalName,omitempty"`
	Japanese            string              `json:"japanese,omitempty" yaml:"japanese,omitempty"`
	Type                string              `json:"type,omitempty" yaml:"type,omitempty"`
	EpisodeRuntime      int                 `json:"episodeRuntime,omitempty" yaml:"episodeRuntime,omitempty"`
	Adult               bool                `json:"adult" yaml:"adult"`
	InProduction        bool                `json:"inProduction" yaml:"inProduction"`
	TmdbID              string              `json:"tmdbId,omitempty" yaml:"tmdbId,omitempty"`
	Keywords            []string            `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	GenresEnglish       []string            `json:"genresEnglish,omitempty" yaml:"genresEnglish,omitempty"`
	LastAirDate         string              `json:"lastAirDate,omitempty" yaml:"lastAirDate,omitempty"`
	Seasons             []Season            `json:"seasons,omitempty" yaml:"seasons,omitempty"`
	NextEpisodeToAir    *NextEpisode        `json:"nextEpisodeToAir,omitempty" yaml:"nextEpisodeToAir,omitempty"`
	ProductionCompanies []ProductionCompany `json:"productionCompanies,omitempty" yaml:"productionCompanies,omitempty"`
	NumberOfEpisodes    int                 `json:"numberOfEpisodes" yaml:"numberOfEpisodes"`
	NumberOfSeasons     int                 `json:"numberOfSeasons" yaml:"numberOfSeasons"`
	Trailer             string              `json:"trailer,omitempty" yaml:"trailer,omitempty"`
	AgeRating           string              `json:"ageRating,omitempty" yaml:"ageRating,omitempty"`
	Source              string              `json:"source,omitempty" yaml:"source,omitempty"`
	Broadcast           string              `json:"broadcast,omitempty" yaml:"broadcast,omitempty"`
	Website             string              `json:"website,omitempty" yaml:"website,omitempty"`
	MyAnimeListURL      string              `json:"myAnimeListUrl,omitempty" yaml:"myAnimeListUrl,omitempty"`
}

// SeasonCount returns the number of seasons to walk when listing episodes.
// Upstream sometimes omits the field; one season is assumed in that case.
func (d *AnimeDetails) SeasonCount() int {
	if d == nil || d.NumberOfSeasons < 1 {
		return 1
	}
	return d.NumberOfSeasons
}

type Season struct {
	Number       int    `json:"seasonNumber" yaml:"seasonNumber"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	EpisodeCount int    `json:"episodeCount" yaml:"episodeCount"`
}

type NextEpisode struct {
	AirDate       string `json:"airDate" yaml:"airDate"`
	EpisodeNumber int    `json:"episodeNumber" yaml:"episodeNumber"`
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
	SeasonNumber  int    `json:"seasonNumber" yaml:"seasonNumber"`
}

type ProductionCompany struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Logo string `json:"logo,omitempty" yaml:"logo,omitempty"`
}
