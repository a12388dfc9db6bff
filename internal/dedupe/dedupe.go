package dedupe

import (
	"sort"

	"github.com/samber/lo"
	"github.com/varoOP/anistream/internal/domain"
)

// Episodes removes entries that share a (slug, season, episode) key and sorts
// the remainder by season, then episode. When two entries collide the one
// carrying playable files wins, otherwise the first seen is kept. Entries
// without an episode number have no key and are always kept.
// It returns the number of dropped entries alongside the result.
func Episodes(episodes []domain.Episode) (int, []domain.Episode) {
	index := make(map[domain.EpisodeKey]int, len(episodes))
	out := make([]domain.Episode, 0, len(episodes))
	dupes := 0

	for _, ep := range episodes {
		if ep.Number <= 0 {
			out = append(out, ep)
			continue
		}

		key := ep.Key()
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, ep)
			continue
		}

		dupes++
		if len(out[i].Files) == 0 && len(ep.Files) > 0 {
			out[i] = ep
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Number < out[j].Number
	})

	return dupes, out
}

// Anime drops repeated slugs, keeping the first occurrence and the order.
func Anime(anime []domain.Anime) (int, []domain.Anime) {
	out := lo.UniqBy(anime, func(a domain.Anime) string { return a.Slug })
	return len(anime) - len(out), out
}

// SearchResults drops repeated slugs, keeping the first occurrence and the order.
func SearchResults(results []domain.SearchResult) (int, []domain.SearchResult) {
	out := lo.UniqBy(results, func(r domain.SearchResult) string { return r.Slug })
	return len(results) - len(out), out
}

// Latest drops repeated episode keys from a latest-episodes feed. Entries
// without an episode number are kept.
func Latest(episodes []domain.LatestEpisode) (int, []domain.LatestEpisode) {
	seen := make(map[domain.EpisodeKey]struct{}, len(episodes))
	out := lo.Filter(episodes, func(e domain.LatestEpisode, _ int) bool {
		if e.Number <= 0 {
			return true
		}
		if _, ok := seen[e.Key()]; ok {
			return false
		}
		seen[e.Key()] = struct{}{}
		return true
	})
	return len(episodes) - len(out), out
}
