package editor

import "github.com/soralit/fermata"

// MaskPolicy selects which masking algorithm the rectangular mask tool runs.
// The step-index algorithm is the default for new development; the legacy
// split-based algorithm is retained as an alternate policy behind this
// switch.
type MaskPolicy int

const (
	// StepMaskPolicy routes the mask tool through per-voice step sets and
	// never edits notes directly.
	StepMaskPolicy MaskPolicy = iota

	// LegacySplitPolicy toggles per-note mask flags and structurally splits
	// partially covered notes at the mask boundaries.
	LegacySplitPolicy
)

// UseLegacyMask returns the Bool switching the mask tool between the
// step-index algorithm (false) and the legacy split-based one (true). This is
// configuration, not an edit, so flipping it is not undoable.
func (m *Model) UseLegacyMask() Bool { return MakeBool((*useLegacyMask)(m)) }

type useLegacyMask Model

func (v *useLegacyMask) Value() bool { return v.maskPolicy == LegacySplitPolicy }
func (v *useLegacyMask) SetValue(value bool) {
	if value {
		v.maskPolicy = LegacySplitPolicy
	} else {
		v.maskPolicy = StepMaskPolicy
	}
}

// Mask returns the Mask view of the model, containing methods to manipulate
// the per-voice generation masks.
func (m *Model) Mask() *MaskModel { return (*MaskModel)(m) }

type MaskModel Model

// Steps returns the masked step indices of a voice, ascending and distinct.
func (m *MaskModel) Steps(voice fermata.Voice) fermata.StepSet {
	if !voice.Valid() {
		return nil
	}
	return m.d.Masks[voice].Copy()
}

// MaskNotes marks for regeneration the region of the score a rectangular
// (position × pitch) selection covers, per the active policy.
func (m *MaskModel) MaskNotes(positions fermata.Range, pitches fermata.RangeInclusive) {
	if positions.Len() <= 0 {
		return
	}
	switch m.maskPolicy {
	case LegacySplitPolicy:
		m.maskNotesLegacy(positions, pitches)
	default:
		m.maskNotesSteps(positions, pitches)
	}
}

// maskNotesSteps is the step-index algorithm: for every note the selection
// overlaps, the intersection of the note's sounding span with the position
// range is added to the note's voice's mask set. Notes themselves are never
// edited.
func (m *MaskModel) maskNotesSteps(positions fermata.Range, pitches fermata.RangeInclusive) {
	defer (*Model)(m).change("MaskNotes", MaskChange, MajorChange)()
	for i := range m.d.Notes {
		note := &m.d.Notes[i]
		if !pitches.Contains(note.Pitch) {
			continue
		}
		// the half-open span test covers both a note starting inside the
		// selection and a note that started earlier but still sounds at the
		// selection start
		if !note.OverlapsSpan(positions.Start, positions.End) {
			continue
		}
		isect := fermata.Range{Start: note.Start(), End: note.End()}.Intersect(positions)
		(*Model)(m).addMaskSteps(note.Voice, isect)
	}
}

// maskNotesLegacy is the retained split-based algorithm. Fully covered notes
// toggle their mask flag, so re-masking an already fully masked selection
// unmasks it. A partially covered note is replaced by up to three sub-notes
// sliced at the mask boundaries; the covered middle keeps the note's identity
// and carries the mask flag.
func (m *MaskModel) maskNotesLegacy(positions fermata.Range, pitches fermata.RangeInclusive) {
	defer (*Model)(m).change("MaskNotesLegacy", NoteChange|MaskChange, MajorChange)()
	var split fermata.Sequence
	for i := range m.d.Notes {
		note := &m.d.Notes[i]
		if !pitches.Contains(note.Pitch) || !note.OverlapsSpan(positions.Start, positions.End) {
			continue
		}
		if note.Start() >= positions.Start && note.End() <= positions.End {
			note.Masked = !note.Masked
			continue
		}
		maskStart := max(positions.Start, note.Start())
		maskEnd := min(positions.End, note.End())
		if note.Start() < maskStart {
			left := note.CopyWithNewID()
			left.MoveEnd(maskStart)
			left.Masked = false
			split = append(split, left)
		}
		if note.End() > maskEnd {
			right := note.CopyWithNewID()
			right.MoveStart(maskEnd)
			right.Masked = false
			split = append(split, right)
		}
		note.MoveStart(maskStart)
		note.MoveEnd(maskEnd)
		note.Masked = true
	}
	m.d.Notes = append(m.d.Notes, split...)
}

// AddSteps adds the given step indices to a voice's mask. Indices outside the
// timeline are dropped; duplicates are absorbed by set semantics.
func (m *MaskModel) AddSteps(voice fermata.Voice, steps ...int) {
	if !voice.Valid() {
		return
	}
	defer (*Model)(m).change("AddMask", MaskChange, MajorChange)()
	m.d.Masks[voice] = m.d.Masks[voice].Union(m.clipSteps(steps)...)
}

// RemoveSteps removes the given step indices from a voice's mask.
func (m *MaskModel) RemoveSteps(voice fermata.Voice, steps ...int) {
	if !voice.Valid() {
		return
	}
	defer (*Model)(m).change("RemoveMask", MaskChange, MajorChange)()
	m.d.Masks[voice] = m.d.Masks[voice].Difference(steps...)
}

// MaskLane masks a voice's entire timeline.
func (m *MaskModel) MaskLane(voice fermata.Voice) {
	if !voice.Valid() {
		return
	}
	defer (*Model)(m).change("MaskLane", MaskChange, MajorChange)()
	(*Model)(m).addMaskSteps(voice, fermata.Range{Start: 0, End: m.grid.TotalSixteenths})
}

// ClearMasks returns an Action emptying every voice's mask and clearing the
// legacy per-note flags.
func (m *MaskModel) ClearMasks() Action { return MakeAction((*clearMasks)(m)) }

type clearMasks MaskModel

func (m *clearMasks) Enabled() bool {
	for v := range m.d.Masks {
		if len(m.d.Masks[v]) > 0 {
			return true
		}
	}
	for i := range m.d.Notes {
		if m.d.Notes[i].Masked {
			return true
		}
	}
	return false
}

func (m *clearMasks) Do() {
	defer (*Model)(m).change("ClearMasks", MaskChange, MajorChange)()
	m.d.Masks = fermata.Mask{}
	for i := range m.d.Notes {
		m.d.Notes[i].Masked = false
	}
}

// IsNoteMasked reports whether the note is marked for regeneration: any step
// of its voice's mask falls within its sounding span, or (under the legacy
// policy) its own mask flag is set.
func (m *MaskModel) IsNoteMasked(note *fermata.Note) bool {
	if note.Masked {
		return true
	}
	if !note.Voice.Valid() {
		return false
	}
	return m.d.Masks[note.Voice].AnyIn(note.Start(), note.End())
}

// MaskedSequence returns copies of every note, persistent or temp, that is
// marked for regeneration. This is the payload handed to the generation
// collaborator.
func (m *MaskModel) MaskedSequence() fermata.Sequence {
	var ret fermata.Sequence
	for note := range (*Model)(m).AllNotes() {
		if m.IsNoteMasked(note) {
			ret = append(ret, *note)
		}
	}
	return ret
}

// addMaskSteps adds every step of the half-open range, clipped to the
// timeline, to a voice's mask. Runs inside the caller's transaction.
func (m *Model) addMaskSteps(voice fermata.Voice, r fermata.Range) {
	start := max(r.Start, 0)
	end := min(r.End, m.grid.TotalSixteenths)
	if end <= start {
		return
	}
	steps := make([]int, 0, end-start)
	for s := start; s < end; s++ {
		steps = append(steps, s)
	}
	m.d.Masks[voice] = m.d.Masks[voice].Union(steps...)
}

func (m *MaskModel) clipSteps(steps []int) []int {
	ret := steps[:0:0]
	for _, s := range steps {
		if s >= 0 && s < m.grid.TotalSixteenths {
			ret = append(ret, s)
		}
	}
	return ret
}
