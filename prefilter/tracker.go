package prefilter

// Tracker wraps a Prefilter for one matcher and switches it off once too
// few of the candidates it reports turn into matches. A retired tracker
// returns -1 from Find and the matcher steps through the text itself.
//
// The matcher resets the tracker at the start of every search.
type Tracker struct {
	inner  Prefilter
	config TrackerConfig

	candidates uint64
	confirms   uint64
	checked    uint64
	retired    bool
}

// TrackerConfig sets when a tracker gives up on its prefilter.
type TrackerConfig struct {
	// Warmup is the number of candidates before the first check.
	Warmup uint64
	// Interval is the number of candidates between checks.
	Interval uint64
	// MinRatio is the lowest confirms/candidates ratio that keeps the
	// prefilter in use.
	MinRatio float64
}

// TrackerStats is a snapshot of a tracker's counters.
type TrackerStats struct {
	Candidates uint64
	Confirms   uint64
	Active     bool
}

// Ratio returns confirms per candidate, or 0 before the first candidate.
func (s TrackerStats) Ratio() float64 {
	if s.Candidates == 0 {
		return 0
	}
	return float64(s.Confirms) / float64(s.Candidates)
}

// DefaultTrackerConfig returns the thresholds used by NewTracker.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{Warmup: 128, Interval: 64, MinRatio: 0.1}
}

// NewTracker wraps inner with the default thresholds. It returns nil for a
// nil prefilter.
func NewTracker(inner Prefilter) *Tracker {
	return NewTrackerWithConfig(inner, DefaultTrackerConfig())
}

// NewTrackerWithConfig wraps inner with config. It returns nil for a nil
// prefilter.
func NewTrackerWithConfig(inner Prefilter, config TrackerConfig) *Tracker {
	if inner == nil {
		return nil
	}
	return &Tracker{inner: inner, config: config}
}

// Find returns the next candidate at or after start, or -1.
func (t *Tracker) Find(haystack string, start int) int {
	if t.retired {
		return -1
	}
	pos := t.inner.Find(haystack, start)
	if pos < 0 {
		return -1
	}
	t.candidates++
	if t.candidates >= t.config.Warmup && t.candidates-t.checked >= t.config.Interval {
		t.checked = t.candidates
		t.retired = float64(t.confirms) < t.config.MinRatio*float64(t.candidates)
	}
	return pos
}

// ConfirmMatch records that the last candidate started a match.
func (t *Tracker) ConfirmMatch() { t.confirms++ }

// IsActive reports whether the prefilter is still consulted.
func (t *Tracker) IsActive() bool { return !t.retired }

// Stats returns the current counters.
func (t *Tracker) Stats() TrackerStats {
	return TrackerStats{Candidates: t.candidates, Confirms: t.confirms, Active: !t.retired}
}

// Reset zeroes the counters and brings the prefilter back.
func (t *Tracker) Reset() {
	t.candidates, t.confirms, t.checked = 0, 0, 0
	t.retired = false
}

// Inner returns the wrapped prefilter.
func (t *Tracker) Inner() Prefilter { return t.inner }

// HeapBytes returns the memory held by the wrapped prefilter.
func (t *Tracker) HeapBytes() int { return t.inner.HeapBytes() }
