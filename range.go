package fermata

// Range is a half-open span [Start, End) of sixteenth steps, excluding End.
type Range struct{ Start, End int }

func (r Range) Len() int { return r.End - r.Start }

// Intersect returns the overlap of two ranges, or the zero Range when they
// are disjoint.
func (r Range) Intersect(s Range) (ret Range) {
	ret.Start = max(r.Start, s.Start)
	ret.End = max(min(r.End, s.End), ret.Start)
	if ret.Len() == 0 {
		return Range{}
	}
	return
}

// Contains reports whether the step falls within [Start, End).
func (r Range) Contains(step int) bool { return step >= r.Start && step < r.End }

// RangeInclusive represents a range of integers [Min, Max], inclusive both
// ends. Used for pitch spans, where the selection edges are themselves valid
// pitches.
type RangeInclusive struct{ Min, Max int }

func (r RangeInclusive) Clamp(value int) int { return max(min(value, r.Max), r.Min) }

// Contains reports whether the value falls within [Min, Max].
func (r RangeInclusive) Contains(value int) bool { return value >= r.Min && value <= r.Max }
