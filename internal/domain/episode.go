package domain

import "fmt"

// DefaultResolution is assumed for episode files that do not report one.
const DefaultResolution = 720

// Episode is a single playable unit of a series.
type Episode struct {
	Slug      string        `json:"slug" yaml:"slug"`
	Season    int           `json:"season" yaml:"season"`
	Number    int           `json:"episode" yaml:"episode"`
	Title     string        `json:"title" yaml:"title"`
	Summary   string        `json:"summary,omitempty" yaml:"summary,omitempty"`
	AirDate   string        `json:"airDate,omitempty" yaml:"airDate,omitempty"`
	Thumbnail string        `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Files     []EpisodeFile `json:"files,omitempty" yaml:"files,omitempty"`
	Fansub    *Fansub       `json:"fansub,omitempty" yaml:"fansub,omitempty"`
	MalID     int           `json:"malId,omitempty" yaml:"malId,omitempty"`
}

// Key identifies the episode within its series.
func (e Episode) Key() EpisodeKey {
	return EpisodeKey{Slug: e.Slug, Season: e.Season, Episode: e.Number}
}

// EpisodeFile is one encoded rendition of an episode.
type EpisodeFile struct {
	File       string `json:"file" yaml:"file"`
	Resolution int    `json:"resolution" yaml:"resolution"`
}

type Fansub struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	SecureName string `json:"secureName,omitempty" yaml:"secureName,omitempty"`
	Avatar     string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Website    string `json:"website,omitempty" yaml:"website,omitempty"`
	Discord    string `json:"discord,omitempty" yaml:"discord,omitempty"`
}

// EpisodeKey is the canonical (slug, season, episode) identity.
type EpisodeKey struct {
	Slug    string `json:"slug" yaml:"slug"`
	Season  int    `json:"season" yaml:"season"`
	Episode int    `json:"episode" yaml:"episode"`
}

func (k EpisodeKey) String() string {
	return fmt.Sprintf("%s/s%02de%02d", k.Slug, k.Season, k.Episode)
}

// LatestEpisode is an entry of the "recently released" feed.
type LatestEpisode struct {
	ID        string   `json:"id,omitempty" yaml:"id,omitempty"`
	Slug      string   `json:"slug" yaml:"slug"`
	Title     string   `json:"title" yaml:"title"`
	Type      string   `json:"type,omitempty" yaml:"type,omitempty"`
	Season    int      `json:"season" yaml:"season"`
	Number    int      `json:"episode" yaml:"episode"`
	Pictures  Pictures `json:"pictures" yaml:"pictures"`
	CreatedAt int64    `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

func (e LatestEpisode) Key() EpisodeKey {
	return EpisodeKey{Slug: e.Slug, Season: e.Season, Episode: e.Number}
}

// LatestPage is one page of the latest-episodes feed.
type LatestPage struct {
	Episodes   []LatestEpisode `json:"episodes" yaml:"episodes"`
	TotalCount int             `json:"totalCount" yaml:"totalCount"`
	TotalPages int             `json:"totalPages" yaml:"totalPages"`
	Page       int             `json:"page" yaml:"page"`
}

func EmptyLatestPage() *LatestPage {
	return &LatestPage{Episodes: []LatestEpisode{}, Page: 1}
}

// StreamSource is a playable URL at a given resolution.
type StreamSource struct {
	Resolution int    `json:"resolution" yaml:"resolution"`
	URL        string `json:"url" yaml:"url"`
}
