package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Bounds of the filter sliders.
const (
	MinScore = 0
	MaxScore = 10
	MinYear  = 1950
)

// Categories is the category vocabulary offered by the filter panel.
var Categories = []string{
	"dram", "aksiyon", "aksiyon - macera", "komedi", "bilim kurgu", "bilim kurgu - fantazi",
	"korku", "gizem", "romantizm", "tarihi", "büyü", "spor", "isekai", "askeri",
	"savaş - politik", "polisiye", "ölüm", "gizli organizasyon", "ecchi", "harem",
	"ters harem", "vampir", "kan, vahşet", "shounen", "shounen ai", "seinen", "canavar",
	"doğaüstü", "şeytan", "intikam", "zaman yolculuğu", "okul", "uzay", "shoujo",
	"oyun", "samuray", "ninja", "yaşamdan kesitler", "iş hayatı", "dövüş sanatları",
	"yuri", "yaoi",
}

// IsKnownCategory reports whether c belongs to Categories.
func IsKnownCategory(c string) bool {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// Range is an inclusive numeric interval.
type Range struct {
	Low  int `json:"low" yaml:"low"`
	High int `json:"high" yaml:"high"`
}

// Normalized swaps the bounds when Low > High.
func (r Range) Normalized() Range {
	if r.Low > r.High {
		return Range{Low: r.High, High: r.Low}
	}
	return r
}

// Filter is the browse selection: categories, score and year ranges, page.
type Filter struct {
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
	Score      *Range   `json:"score,omitempty" yaml:"score,omitempty"`
	Years      *Range   `json:"years,omitempty" yaml:"years,omitempty"`
	Page       int      `json:"page" yaml:"page"`
}

// DefaultFilter is the initial selection of the filter panel.
func DefaultFilter(now time.Time) Filter {
	return Filter{
		Categories: []string{},
		Score:      &Range{Low: MinScore, High: MaxScore},
		Years:      &Range{Low: MinYear, High: now.Year()},
		Page:       1,
	}
}

// Normalize returns a copy with trimmed categories, ordered ranges and a
// page of at least 1. The receiver is not modified.
func (f Filter) Normalize() Filter {
	out := Filter{Page: f.Page}
	if out.Page < 1 {
		out.Page = 1
	}

	out.Categories = make([]string, 0, len(f.Categories))
	for _, c := range f.Categories {
		if c = strings.TrimSpace(c); c != "" {
			out.Categories = append(out.Categories, c)
		}
	}

	if f.Score != nil {
		r := f.Score.Normalized()
		out.Score = &r
	}
	if f.Years != nil {
		r := f.Years.Normalized()
		out.Years = &r
	}

	return out
}

// WithPage returns a copy of f targeting page.
func (f Filter) WithPage(page int) Filter {
	out := f.Normalize()
	out.Page = page
	if out.Page < 1 {
		out.Page = 1
	}
	return out
}

// Key serializes the normalized filter. Two filters with the same key are
// deep-equal for request purposes.
func (f Filter) Key() string {
	b, err := json.Marshal(f.Normalize())
	if err != nil {
		return ""
	}
	return string(b)
}

// CriteriaKey is Key without the page, used to detect criteria changes.
func (f Filter) CriteriaKey() string {
	n := f.Normalize()
	n.Page = 0
	b, err := json.Marshal(n)
	if err != nil {
		return ""
	}
	return string(b)
}

// ParseRange reads "lo,hi" into an ordered range. An empty string yields nil.
func ParseRange(s string) (*Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("range %q must look like lo,hi", s)
	}

	low, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("range %q: low bound is not a number", s)
	}
	high, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("range %q: high bound is not a number", s)
	}

	r := Range{Low: low, High: high}.Normalized()
	return &r, nil
}
