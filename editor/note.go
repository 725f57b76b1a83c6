package editor

import (
	"gopkg.in/yaml.v3"

	"github.com/soralit/fermata"
)

// Note returns the Note view of the model, containing methods to manipulate
// the note collections.
func (m *Model) Note() *NoteModel { return (*NoteModel)(m) }

type NoteModel Model

// AddNote inserts a note into the persistent collection, keyed by its id. No
// conflict check happens at insert time; overlap resolution is a separate
// operation. Inputs are expected to arrive already quantized and clamped by
// the geometry layer, but the store clamps again to keep its invariants
// airtight against future callers. Returns the note as stored.
func (m *NoteModel) AddNote(note fermata.Note, shouldSelect bool) fermata.Note {
	defer (*Model)(m).change("AddNote", NoteChange, MajorChange)()
	note = m.clampNote(note)
	m.d.Notes = append(m.d.Notes, note)
	if shouldSelect {
		clear(m.selection)
		m.selection[note.ID] = struct{}{}
	}
	return note
}

// Draw places a new user note and consumes whatever portion of the same voice
// it now covers, as one undo step. This is the draw-tool gesture.
func (m *NoteModel) Draw(pitch, position, duration int, voice fermata.Voice) fermata.Note {
	defer (*Model)(m).change("Draw", NoteChange, MajorChange)()
	note := m.AddNote(fermata.NewNote(pitch, position, duration, voice, fermata.User), true)
	(*Model)(m).trimOverlapping(note)
	return note
}

// RemoveNote deletes the note by id from the persistent collection. A note
// that is not present is a silent no-op.
func (m *NoteModel) RemoveNote(note fermata.Note) {
	defer (*Model)(m).change("RemoveNote", NoteChange, MajorChange)()
	(*Model)(m).deleteNotesWhere(func(n *fermata.Note) bool { return n.ID == note.ID })
}

// AddAgentNotes inserts a generated sequence into the persistent collection.
// With replace, every previous agent-sourced note is cleared first. Incoming
// notes are forced to the Agent source; notes without an identity get one.
func (m *NoteModel) AddAgentNotes(sequence fermata.Sequence, replace bool) {
	defer (*Model)(m).change("AddAgentNotes", NoteChange, MajorChange)()
	if replace {
		(*Model)(m).deleteNotesWhere(func(n *fermata.Note) bool { return n.Source == fermata.Agent })
	}
	for _, note := range sequence {
		note.Source = fermata.Agent
		if note.ID == (fermata.NoteID{}) {
			note = note.CopyWithNewID()
		}
		m.d.Notes = append(m.d.Notes, m.clampNote(note))
	}
	clear(m.selection)
}

// ClearAgentNotes returns an Action removing every agent-sourced note.
func (m *NoteModel) ClearAgentNotes() Action { return MakeAction((*clearAgentNotes)(m)) }

type clearAgentNotes NoteModel

func (m *clearAgentNotes) Enabled() bool {
	for i := range m.d.Notes {
		if m.d.Notes[i].Source == fermata.Agent {
			return true
		}
	}
	return false
}

func (m *clearAgentNotes) Do() {
	defer (*Model)(m).change("ClearAgentNotes", NoteChange, MajorChange)()
	(*Model)(m).deleteNotesWhere(func(n *fermata.Note) bool { return n.Source == fermata.Agent })
	clear(m.selection)
}

// ClearAllNotes returns an Action removing every persistent note.
func (m *NoteModel) ClearAllNotes() Action { return MakeAction((*clearAllNotes)(m)) }

type clearAllNotes NoteModel

func (m *clearAllNotes) Enabled() bool { return len(m.d.Notes) > 0 }

func (m *clearAllNotes) Do() {
	defer (*Model)(m).change("ClearAllNotes", NoteChange, MajorChange)()
	m.d.Notes = m.d.Notes[:0]
	clear(m.selection)
	clear(m.playing)
}

// TrimOverlappingVoices consumes whatever portion of the other notes in
// note's voice the note now covers: a voice is monophonic in time. Other
// notes extending past note's end are truncated in place to start at note's
// end; notes fully covered are deleted. The full pitch range of the voice is
// considered; this is a monophony constraint, not a pitch-identity one.
func (m *NoteModel) TrimOverlappingVoices(note fermata.Note) {
	defer (*Model)(m).change("TrimOverlappingVoices", NoteChange, MajorChange)()
	(*Model)(m).trimOverlapping(note)
}

func (m *Model) trimOverlapping(note fermata.Note) {
	kept := m.d.Notes[:0]
	for i := range m.d.Notes {
		o := m.d.Notes[i]
		switch {
		case o.ID == note.ID || o.Voice != note.Voice || !o.OverlapsSpan(note.Start(), note.End()):
			kept = append(kept, o)
		case o.End() > note.End():
			o.MoveStart(note.End())
			kept = append(kept, o)
		default:
			delete(m.selection, o.ID)
			delete(m.playing, o.ID)
		}
	}
	m.d.Notes = kept
}

// BeginDrag opens the undo transaction bracketing a drag gesture, so the
// whole gesture is one undo step. Opening a second drag while one is in
// progress is a programming error and panics; callers must guarantee EndDrag
// or CancelDrag on every exit path, including pointer-cancel.
func (m *NoteModel) BeginDrag() {
	if m.dragComplete != nil {
		panic("editor: note drag already in progress")
	}
	m.dragComplete = (*Model)(m).change("NoteDrag", NoteChange, MajorChange)
}

// DragNote moves the dragged note to the given cell, clamping to the grid.
// The note's duration is preserved. Panics if no drag is in progress.
func (m *NoteModel) DragNote(id fermata.NoteID, pitch, position int) {
	if m.dragComplete == nil {
		panic("editor: no note drag in progress")
	}
	note := (*Model)(m).persistentByID(id)
	if note == nil {
		return
	}
	note.Pitch = m.grid.ClampPitch(pitch)
	note.Position = m.grid.ClampPosition(position)
}

// EndDrag completes the drag transaction, resolving conflicts: any other
// persistent note occupying the exact same (pitch, position) cell as the
// dragged note is deleted, so no two persistent notes ever share a cell.
// Panics if no drag is in progress.
func (m *NoteModel) EndDrag(id fermata.NoteID) {
	if m.dragComplete == nil {
		panic("editor: no note drag in progress")
	}
	if note := (*Model)(m).persistentByID(id); note != nil {
		pitch, position := note.Pitch, note.Position
		(*Model)(m).deleteNotesWhere(func(n *fermata.Note) bool {
			return n.ID != id && n.Pitch == pitch && n.Position == position
		})
	}
	complete := m.dragComplete
	m.dragComplete = nil
	complete()
}

// CancelDrag abandons the drag gesture and rolls the collection back to its
// state at BeginDrag. Panics if no drag is in progress.
func (m *NoteModel) CancelDrag() {
	if m.dragComplete == nil {
		panic("editor: no note drag in progress")
	}
	model := (*Model)(m)
	model.d = model.changeBefore.Copy()
	model.changeCancel = true
	complete := m.dragComplete
	m.dragComplete = nil
	complete()
}

// SetNotePlaying advances the playhead bookkeeping in one combined operation:
// the note at the given (pitch, position) cell, and its temp-set counterpart
// matched by id, join the currently-playing set; then every playing note
// whose sounding window the playhead has passed (end <= position) leaves the
// set and has its playing flag cleared. Not undoable; playing state is
// transient render state.
func (m *NoteModel) SetNotePlaying(pitch, position int) {
	model := (*Model)(m)
	if note := model.noteAt(pitch, position); note != nil {
		note.Playing = true
		m.playing[note.ID] = struct{}{}
		if tmp := model.tempByID(note.ID); tmp != nil {
			tmp.Playing = true
		}
	}
	for id := range m.playing {
		note := model.noteByID(id)
		if note == nil {
			delete(m.playing, id)
			continue
		}
		if note.End() <= position {
			note.Playing = false
			if tmp := model.tempByID(id); tmp != nil {
				tmp.Playing = false
			}
			delete(m.playing, id)
		}
	}
}

// PlayingNotes returns the notes currently inside the playhead's sounding
// window, in collection order.
func (m *NoteModel) PlayingNotes() fermata.Sequence {
	var ret fermata.Sequence
	for i := range m.d.Notes {
		if _, ok := m.playing[m.d.Notes[i].ID]; ok {
			ret = append(ret, m.d.Notes[i])
		}
	}
	return ret
}

// SetTempNotes replaces the ephemeral generation-preview notes. Temp notes
// are unioned with the persistent set for rendering and playback but never
// take part in undo; passing nil clears the preview.
func (m *NoteModel) SetTempNotes(sequence fermata.Sequence) {
	model := (*Model)(m)
	m.temp = m.temp[:0]
	for _, note := range sequence {
		if note.ID == (fermata.NoteID{}) {
			note = note.CopyWithNewID()
		}
		m.temp = append(m.temp, m.clampNote(note))
	}
	model.updateDerivedData(NoteChange)
	model.notify(NoteChange, MinorChange)
}

// Select replaces the selection with the given note. Selecting a note that is
// not in the persistent collection clears the selection.
func (m *NoteModel) Select(note fermata.Note) {
	clear(m.selection)
	if (*Model)(m).persistentByID(note.ID) != nil {
		m.selection[note.ID] = struct{}{}
	}
}

// ClearSelection empties the selection.
func (m *NoteModel) ClearSelection() { clear(m.selection) }

// IsSelected reports whether the note with the given id is selected.
func (m *NoteModel) IsSelected(id fermata.NoteID) bool {
	_, ok := m.selection[id]
	return ok
}

// SelectedNotes returns copies of the selected notes, in collection order.
func (m *NoteModel) SelectedNotes() fermata.Sequence {
	var ret fermata.Sequence
	for i := range m.d.Notes {
		if _, ok := m.selection[m.d.Notes[i].ID]; ok {
			ret = append(ret, m.d.Notes[i])
		}
	}
	return ret
}

type noteClip struct {
	Notes fermata.Sequence `yaml:"notes"`
}

// CopySelection marshals the selected notes into a clipboard payload.
func (m *NoteModel) CopySelection() (data []byte, ok bool) {
	notes := m.SelectedNotes()
	if len(notes) == 0 {
		return nil, false
	}
	ret, err := yaml.Marshal(noteClip{Notes: notes})
	if err != nil {
		return nil, false
	}
	return ret, true
}

// Paste inserts a clipboard payload so that its earliest note starts at the
// given position, as one undo step. Pasted notes are value copies with fresh
// identities; each consumes overlapping material in its voice. The pasted
// notes become the selection. Returns false for payloads that do not parse.
func (m *NoteModel) Paste(data []byte, position int) bool {
	var clip noteClip
	if err := yaml.Unmarshal(data, &clip); err != nil || len(clip.Notes) == 0 {
		return false
	}
	earliest := clip.Notes[0].Position
	for _, n := range clip.Notes[1:] {
		earliest = min(earliest, n.Position)
	}
	delta := m.grid.ClampPosition(position) - earliest
	model := (*Model)(m)
	defer model.change("PasteNotes", NoteChange, MajorChange)()
	clear(m.selection)
	for _, n := range clip.Notes {
		if !n.Voice.Valid() || n.Duration < 1 {
			continue
		}
		note := fermata.NewNote(
			m.grid.ClampPitch(n.Pitch),
			m.grid.ClampPosition(n.Position+delta),
			n.Duration,
			n.Voice,
			n.Source,
		)
		note = m.clampNote(note)
		m.d.Notes = append(m.d.Notes, note)
		model.trimOverlapping(note)
		m.selection[note.ID] = struct{}{}
	}
	return true
}

// deleteNotesWhere removes every persistent note the predicate matches,
// dropping them from the selection and playing sets as well.
func (m *Model) deleteNotesWhere(pred func(*fermata.Note) bool) {
	kept := m.d.Notes[:0]
	for i := range m.d.Notes {
		if pred(&m.d.Notes[i]) {
			delete(m.selection, m.d.Notes[i].ID)
			delete(m.playing, m.d.Notes[i].ID)
			continue
		}
		kept = append(kept, m.d.Notes[i])
	}
	m.d.Notes = kept
}

// clampNote bounds a note's coordinates to the grid: pitch and position are
// clamped and the duration is shortened so the note does not run past the
// timeline.
func (m *NoteModel) clampNote(note fermata.Note) fermata.Note {
	note.Pitch = m.grid.ClampPitch(note.Pitch)
	note.Position = m.grid.ClampPosition(note.Position)
	note.Duration = max(min(note.Duration, m.grid.TotalSixteenths-note.Position), 1)
	return note
}
