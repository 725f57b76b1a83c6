package editor

import "github.com/soralit/fermata"

/*
	from modelData we can derive lookup indices that are rebuilt only when the
	model changes, instead of on every query: the note-id index into the
	persistent and temp collections. Transient id sets (selection, playing)
	are pruned here too, so they never refer to notes that no longer exist.
*/

type derivedModelData struct {
	// index into d.Notes by note id
	forNote map[fermata.NoteID]int
	// index into temp by note id
	forTemp map[fermata.NoteID]int
}

func (m *Model) initDerivedData() {
	m.derived = derivedModelData{
		forNote: make(map[fermata.NoteID]int),
		forTemp: make(map[fermata.NoteID]int),
	}
	m.updateDerivedData(NoteChange)
}

func (m *Model) updateDerivedData(kind ChangeKind) {
	if kind&NoteChange == 0 {
		return
	}
	clear(m.derived.forNote)
	for i := range m.d.Notes {
		m.derived.forNote[m.d.Notes[i].ID] = i
	}
	clear(m.derived.forTemp)
	for i := range m.temp {
		m.derived.forTemp[m.temp[i].ID] = i
	}
	for id := range m.selection {
		if _, ok := m.derived.forNote[id]; !ok {
			delete(m.selection, id)
		}
	}
	for id := range m.playing {
		if m.noteByID(id) == nil {
			delete(m.playing, id)
		}
	}
}

// NoteByID returns the persistent note with the given id, or the temp note if
// no persistent one exists, or nil.
func (m *Model) NoteByID(id fermata.NoteID) *fermata.Note { return m.noteByID(id) }

func (m *Model) noteByID(id fermata.NoteID) *fermata.Note {
	if i, ok := m.derived.forNote[id]; ok {
		return &m.d.Notes[i]
	}
	if i, ok := m.derived.forTemp[id]; ok {
		return &m.temp[i]
	}
	return nil
}

func (m *Model) persistentByID(id fermata.NoteID) *fermata.Note {
	if i, ok := m.derived.forNote[id]; ok {
		return &m.d.Notes[i]
	}
	return nil
}

func (m *Model) tempByID(id fermata.NoteID) *fermata.Note {
	if i, ok := m.derived.forTemp[id]; ok {
		return &m.temp[i]
	}
	return nil
}

// noteAt returns the persistent note at the exact (pitch, position) cell, or
// nil. Lookups that miss are silent; drag and playback operate
// opportunistically on best-effort matches.
func (m *Model) noteAt(pitch, position int) *fermata.Note {
	for i := range m.d.Notes {
		if m.d.Notes[i].Pitch == pitch && m.d.Notes[i].Position == position {
			return &m.d.Notes[i]
		}
	}
	return nil
}
