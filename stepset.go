package fermata

import "sort"

type (
	// StepSet is an ordered, deduplicated set of sixteenth-step indices,
	// materialized as an ascending slice. All mutating operations go through
	// set semantics and re-sort, so duplicates are impossible by
	// construction. The slice form is the canonical in-memory representation
	// and doubles as the interface boundary form.
	StepSet []int

	// Mask is the per-voice collection of masked step indices. A step being
	// in a voice's set marks it for regeneration by the external model.
	Mask [NumVoices]StepSet
)

// MakeStepSet builds a StepSet from the given steps, deduplicating and
// sorting.
func MakeStepSet(steps ...int) StepSet {
	return StepSet(nil).Union(steps...)
}

// Union returns a new StepSet containing every step of s plus the given
// steps.
func (s StepSet) Union(steps ...int) StepSet {
	set := make(map[int]struct{}, len(s)+len(steps))
	for _, step := range s {
		set[step] = struct{}{}
	}
	for _, step := range steps {
		set[step] = struct{}{}
	}
	ret := make(StepSet, 0, len(set))
	for step := range set {
		ret = append(ret, step)
	}
	sort.Ints(ret)
	return ret
}

// Difference returns a new StepSet containing the steps of s that are not in
// the given steps.
func (s StepSet) Difference(steps ...int) StepSet {
	removed := make(map[int]struct{}, len(steps))
	for _, step := range steps {
		removed[step] = struct{}{}
	}
	ret := make(StepSet, 0, len(s))
	for _, step := range s {
		if _, ok := removed[step]; !ok {
			ret = append(ret, step)
		}
	}
	return ret
}

// Contains reports whether step is in the set.
func (s StepSet) Contains(step int) bool {
	i := sort.SearchInts(s, step)
	return i < len(s) && s[i] == step
}

// AnyIn reports whether any step of the set falls within the half-open span
// [start, end).
func (s StepSet) AnyIn(start, end int) bool {
	i := sort.SearchInts(s, start)
	return i < len(s) && s[i] < end
}

// Copy makes a copy of a StepSet.
func (s StepSet) Copy() StepSet {
	if s == nil {
		return nil
	}
	ret := make(StepSet, len(s))
	copy(ret, s)
	return ret
}

// Copy makes a deep copy of a Mask.
func (m Mask) Copy() Mask {
	var ret Mask
	for v := range m {
		ret[v] = m[v].Copy()
	}
	return ret
}

// Equal reports whether two masks contain exactly the same steps per voice.
func (m Mask) Equal(o Mask) bool {
	for v := range m {
		if len(m[v]) != len(o[v]) {
			return false
		}
		for i := range m[v] {
			if m[v][i] != o[v][i] {
				return false
			}
		}
	}
	return true
}
