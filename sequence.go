package fermata

// Sequence is an ordered collection of notes. Order is insertion order; the
// editor relies on it being stable so undo snapshots compare deterministically.
type Sequence []Note

// Copy makes a deep copy of a Sequence.
func (s Sequence) Copy() Sequence {
	ret := make(Sequence, len(s))
	copy(ret, s)
	return ret
}

// Equal reports whether two sequences contain pairwise equal notes, comparing
// identity and musical content but not transient flags.
func (s Sequence) Equal(o Sequence) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if !s[i].EqualData(&o[i]) {
			return false
		}
	}
	return true
}

// ForVoice returns the notes of a single voice, in sequence order.
func (s Sequence) ForVoice(v Voice) Sequence {
	var ret Sequence
	for _, n := range s {
		if n.Voice == v {
			ret = append(ret, n)
		}
	}
	return ret
}

// FromSource returns the notes placed by the given source, in sequence order.
func (s Sequence) FromSource(src Source) Sequence {
	var ret Sequence
	for _, n := range s {
		if n.Source == src {
			ret = append(ret, n)
		}
	}
	return ret
}
