package domain

// Skip segment types understood by the skip-interval service.
const (
	SkipTypeOpening = "op"
	SkipTypeEnding  = "ed"
)

// Interval is a time range in seconds.
type Interval struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Valid reports whether the interval has a positive length.
func (i Interval) Valid() bool {
	return i.End > i.Start
}

// SkipTimes are the recommended fast-forward ranges of an episode.
// A nil Opening or Ending means the service knows none.
type SkipTimes struct {
	Opening *Interval `json:"opening,omitempty" yaml:"opening,omitempty"`
	Ending  *Interval `json:"ending,omitempty" yaml:"ending,omitempty"`
}

func (s *SkipTimes) Empty() bool {
	return s == nil || (s.Opening == nil && s.Ending == nil)
}
