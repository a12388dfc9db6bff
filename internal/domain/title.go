package domain

import "strings"

// PickFirst returns the first value that is not blank, or "" when all are.
func PickFirst(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// TitleSet carries every title variant the upstream may send for one anime.
// Some payloads put the variants at the top level, others nest them under
// a "title" object; both end up here.
type TitleSet struct {
	Turkish       string
	English       string
	Romaji        string
	OriginalName  string
	NestedTurkish string
	NestedEnglish string
	NestedRomaji  string
}

// Display resolves the title shown to users. Resolution order:
// turkish, title.turkish, title.english, english, title.romaji, romaji,
// originalName, then fallback.
func (t TitleSet) Display(fallback string) string {
	return PickFirst(
		t.Turkish,
		t.NestedTurkish,
		t.NestedEnglish,
		t.English,
		t.NestedRomaji,
		t.Romaji,
		t.OriginalName,
		fallback,
	)
}

// EnglishTitle prefers the nested variant, like the search endpoint does.
func (t TitleSet) EnglishTitle() string {
	return PickFirst(t.NestedEnglish, t.English)
}

func (t TitleSet) RomajiTitle() string {
	return PickFirst(t.NestedRomaji, t.Romaji)
}

// PickEpisodeNumber collapses the aliases upstream uses for the episode
// number (episodeNumber, episode, number) into one value. Zero means absent.
func PickEpisodeNumber(episodeNumber, episode, number int) int {
	for _, n := range []int{episodeNumber, episode, number} {
		if n > 0 {
			return n
		}
	}
	return 0
}
