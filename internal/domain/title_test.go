package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleSet_Display(t *testing.T) {
	tests := []struct {
		name     string
		titles   TitleSet
		fallback string
		want     string
	}{
		{name: "turkish wins", titles: TitleSet{Turkish: "Tr", English: "En", Romaji: "Ro"}, want: "Tr"},
		{name: "nested turkish before english", titles: TitleSet{NestedTurkish: "NTr", English: "En"}, want: "NTr"},
		{name: "nested english before flat english", titles: TitleSet{NestedEnglish: "NEn", English: "En"}, want: "NEn"},
		{name: "blank values skipped", titles: TitleSet{Turkish: "  ", Romaji: "Ro"}, want: "Ro"},
		{name: "original name", titles: TitleSet{OriginalName: "Orig"}, want: "Orig"},
		{name: "fallback", titles: TitleSet{}, fallback: "some-slug", want: "some-slug"},
		{name: "nothing", titles: TitleSet{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.titles.Display(tt.fallback))
		})
	}
}

func TestPickEpisodeNumber(t *testing.T) {
	assert.Equal(t, 3, PickEpisodeNumber(3, 5, 7))
	assert.Equal(t, 5, PickEpisodeNumber(0, 5, 7))
	assert.Equal(t, 7, PickEpisodeNumber(0, 0, 7))
	assert.Equal(t, 0, PickEpisodeNumber(0, 0, 0))
}

func TestPictures_Image(t *testing.T) {
	assert.Equal(t, "a", Pictures{Avatar: "a", Poster: "p", Banner: "b"}.Image())
	assert.Equal(t, "p", Pictures{Poster: "p", Banner: "b"}.Image())
	assert.Equal(t, "b", Pictures{Banner: "b"}.Image())
	assert.Equal(t, "", Pictures{}.Image())
}

func TestAnimeDetails_SeasonCount(t *testing.T) {
	var nilDetails *AnimeDetails
	assert.Equal(t, 1, nilDetails.SeasonCount())
	assert.Equal(t, 1, (&AnimeDetails{}).SeasonCount())
	assert.Equal(t, 3, (&AnimeDetails{NumberOfSeasons: 3}).SeasonCount())
}
