package domain

import (
	"context"
	"time"
)

// SkipCacheEntry is a stored skip-interval lookup. Found is false when the
// service had no data for the episode.
type SkipCacheEntry struct {
	MalID    int
	Episode  int
	Found    bool
	Times    *SkipTimes
	CachedAt time.Time
}

// SkipCacheRepo persists skip-interval lookups.
type SkipCacheRepo interface {
	Get(ctx context.Context, malID, episode int) (*SkipCacheEntry, error)
	Upsert(ctx context.Context, entry *SkipCacheEntry) error
}

// SeenEpisodeRepo tracks which released episodes were already announced.
type SeenEpisodeRepo interface {
	Count(ctx context.Context) (int, error)
	FilterUnseen(ctx context.Context, keys []EpisodeKey) ([]EpisodeKey, error)
	MarkSeen(ctx context.Context, keys []EpisodeKey, notified bool) error
}
