package sim

import "fmt"

// RailPattern describes a repeating train-approach ETA countdown.
type RailPattern struct {
	Name    string
	StepMs  int
	ResetMs int
}

var railPatterns = map[string]RailPattern{
	"approach-30s": {Name: "approach-30s", StepMs: 2000, ResetMs: 40000},
	"approach-20s": {Name: "approach-20s", StepMs: 1500, ResetMs: 25000},
}

// RailPatternByName returns one of the built-in approach patterns.
func RailPatternByName(name string) (RailPattern, error) {
	pattern, ok := railPatterns[name]
	if !ok {
		return RailPattern{}, fmt.Errorf("unknown rail pattern %q", name)
	}
	return pattern, nil
}

// RailFeed produces the ETA stream of a repeating approach pattern.
type RailFeed struct {
	pattern RailPattern
	etaMs   int
}

// NewRailFeed starts a feed at the pattern's reset point.
func NewRailFeed(pattern RailPattern) *RailFeed {
	return &RailFeed{pattern: pattern, etaMs: pattern.ResetMs}
}

// Next advances the countdown and returns the next ETA sample in
// milliseconds. After the train arrives the countdown restarts.
func (f *RailFeed) Next() int {
	f.etaMs -= f.pattern.StepMs
	if f.etaMs < 0 {
		f.etaMs = 0
	}
	sample := f.etaMs
	if f.etaMs == 0 {
		f.etaMs = f.pattern.ResetMs
	}
	return sample
}

// StepMs reports the sampling interval of the feed.
func (f *RailFeed) StepMs() int { return f.pattern.StepMs }
