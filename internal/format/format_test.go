package format

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/anistream/internal/domain"
)

func TestParse(t *testing.T) {
	f, err := Parse(" YAML ")
	require.NoError(t, err)
	assert.Equal(t, YAML, f)

	_, err = Parse("xml")
	assert.Error(t, err)
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, JSON, []domain.StreamSource{{Resolution: 1080, URL: "https://p/stream/a&b.mp4"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"resolution":1080,"url":"https://p/stream/a&b.mp4"}]`, buf.String())
	assert.Contains(t, buf.String(), "a&b", "html escaping is off")
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, YAML, &domain.SkipTimes{Opening: &domain.Interval{Start: 1, End: 2}})
	require.NoError(t, err)
	assert.Equal(t, "opening:\n  start: 1\n  end: 2\n", buf.String())
}

func TestRender_Table(t *testing.T) {
	t.Run("empty page says so", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, Table, domain.EmptyAnimePage()))
		assert.Contains(t, buf.String(), "No results.")
		assert.Contains(t, buf.String(), "Page 1 of 0")
	})

	t.Run("episodes", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, Table, []domain.Episode{{Slug: "x", Season: 1, Number: 3, Title: "Three"}}))
		assert.Contains(t, buf.String(), "SEASON")
		assert.Contains(t, buf.String(), "Three")
	})

	t.Run("skip times", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, Table, &domain.SkipTimes{Ending: &domain.Interval{Start: 1290, End: 1380}}))
		assert.Contains(t, buf.String(), "21:30")
		assert.Contains(t, buf.String(), "23:00")
	})

	t.Run("long titles are truncated", func(t *testing.T) {
		var buf bytes.Buffer
		long := "A very long title that keeps going and going past any reasonable width"
		require.NoError(t, Render(&buf, Table, []domain.SearchResult{{Slug: "x", Title: long}}))
		assert.NotContains(t, buf.String(), long)
		assert.Contains(t, buf.String(), "…")
	})
}
