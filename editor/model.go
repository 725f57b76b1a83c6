package editor

import (
	"iter"

	"github.com/soralit/fermata"
)

// Model implements the mutable state of the piano-roll editor: the
// authoritative note collection, the per-voice generation masks and the loop
// markers, all versioned under one undo history.
//
// The model is owned by the interaction thread (goroutine); the generation
// pipeline runs elsewhere and communicates through the Broker channels. All
// mutations happen synchronously inside handlers invoked by the interaction
// layer, so the model itself does no locking. The one reentrancy hazard is a
// generation result arriving while a drag transaction is open; ProcessMsg
// drops such results and callers are expected to serialize the two (e.g.
// disable masking tools while a request is in flight).
type (
	// modelData is the part of the model that gets snapshotted for undo; it
	// must be deep-copyable and value-comparable.
	modelData struct {
		Notes fermata.Sequence
		Masks fermata.Mask
		Loop  Loop
	}

	Model struct {
		d modelData

		grid       fermata.Grid
		maskPolicy MaskPolicy

		// temp holds ephemeral preview notes from an in-flight generation
		// candidate. They are unioned with the persistent notes for
		// rendering/playback, never snapshotted for undo.
		temp fermata.Sequence

		selection map[fermata.NoteID]struct{}
		playing   map[fermata.NoteID]struct{}

		undoStack       []modelData
		redoStack       []modelData
		changeLevel     int
		changeCancel    bool
		changePushed    bool
		changeKind      ChangeKind
		changeSeverity  ChangeSeverity
		changeBefore    modelData
		prevUndoKind    string
		undoSkipCounter int

		dragComplete func()

		midi midiState

		derived derivedModelData

		broker    *Broker
		listeners []ChangeListener
	}

	// Loop is the looped playback region, in sixteenth steps. Unlike note
	// positions, both markers may sit on the very end of the timeline.
	Loop struct{ Start, End int }

	// ChangeKind is a bitmask telling which parts of the model data a change
	// touched, so listeners and derived-data updates can react selectively.
	ChangeKind int

	// ChangeSeverity controls undo coalescing: consecutive MinorChanges of
	// the same kind merge into a single undo step (e.g. dragging a loop
	// marker), while every MajorChange gets its own.
	ChangeSeverity int

	// ChangeListener is notified synchronously after each committed
	// outermost change, from the same goroutine that performed the mutation.
	ChangeListener interface {
		OnEditorChange(kind ChangeKind, severity ChangeSeverity)
	}
)

const (
	NoChange   ChangeKind = 0
	NoteChange ChangeKind = 1 << iota
	MaskChange
	LoopChange
)

const (
	MinorChange ChangeSeverity = iota
	MajorChange
)

const maxUndo = 256

// maxUndoSkip bounds how many consecutive minor changes of the same kind are
// merged into one undo step.
const maxUndoSkip = 10

// NewModel creates an editor model populated with the default four-part
// sequence. An invalid grid falls back to fermata.DefaultGrid.
func NewModel(broker *Broker, grid fermata.Grid) *Model {
	if err := grid.Validate(); err != nil {
		grid = fermata.DefaultGrid
	}
	m := &Model{
		grid:      grid,
		broker:    broker,
		selection: make(map[fermata.NoteID]struct{}),
		playing:   make(map[fermata.NoteID]struct{}),
	}
	m.d.Notes = defaultSequence(grid)
	m.d.Loop = Loop{Start: 0, End: grid.TotalSixteenths}
	m.initDerivedData()
	return m
}

// Copy makes a deep copy of the model data.
func (d *modelData) Copy() modelData {
	return modelData{
		Notes: d.Notes.Copy(),
		Masks: d.Masks.Copy(),
		Loop:  d.Loop,
	}
}

func (d *modelData) equal(o *modelData) bool {
	return d.Notes.Equal(o.Notes) && d.Masks.Equal(o.Masks) && d.Loop == o.Loop
}

// change brackets a mutation of the model data as one undo transaction. It is
// meant to be used as
//
//	defer m.change("AddNote", NoteChange, MajorChange)()
//
// so the transaction completes on every exit path, including panics. Nested
// changes coalesce into the outermost one; the outer "before" snapshot is
// never lost. Completing a change that was never opened is a programming
// error and panics.
//
// On outermost completion the transaction is discarded when the data did not
// actually change, so no-op operations neither grow the undo stack nor clear
// the redo stack.
func (m *Model) change(name string, kind ChangeKind, severity ChangeSeverity) func() {
	if m.changeLevel == 0 {
		m.changeCancel = false
		m.changeKind = NoChange
		m.changeSeverity = severity
		m.changeBefore = m.d.Copy()
		if severity == MinorChange && m.prevUndoKind == name && m.undoSkipCounter < maxUndoSkip {
			m.changePushed = false
			m.undoSkipCounter++
		} else {
			m.pushUndo(m.changeBefore.Copy())
			m.changePushed = true
			m.undoSkipCounter = 0
		}
		m.prevUndoKind = name
	} else if severity > m.changeSeverity {
		m.changeSeverity = severity
	}
	m.changeKind |= kind
	m.changeLevel++
	return func() {
		m.changeLevel--
		if m.changeLevel < 0 {
			panic("editor: change completed without a change in progress")
		}
		if m.changeLevel > 0 {
			return
		}
		if m.changeCancel {
			if m.changePushed {
				m.undoStack = m.undoStack[:len(m.undoStack)-1]
			}
			m.prevUndoKind = ""
			m.updateDerivedData(m.changeKind)
			return
		}
		if m.d.equal(&m.changeBefore) {
			if m.changePushed {
				m.undoStack = m.undoStack[:len(m.undoStack)-1]
			}
			m.prevUndoKind = ""
			return
		}
		m.redoStack = m.redoStack[:0]
		// a committed major change gets its own undo step and ends any
		// minor-change run of the same name
		if m.changeSeverity != MinorChange {
			m.prevUndoKind = ""
		}
		m.updateDerivedData(m.changeKind)
		m.notify(m.changeKind, m.changeSeverity)
	}
}

// Transaction groups multiple operations into a single undo step. The inner
// operations' own transactions coalesce into this one.
func (m *Model) Transaction(name string, fn func()) {
	defer m.change(name, NoChange, MajorChange)()
	fn()
}

func (m *Model) pushUndo(d modelData) {
	if len(m.undoStack) >= maxUndo {
		copy(m.undoStack, m.undoStack[len(m.undoStack)-maxUndo+1:])
		m.undoStack = m.undoStack[:maxUndo-1]
	}
	m.undoStack = append(m.undoStack, d)
}

// replaceData is the non-transactional primitive undo/redo use to restore a
// snapshot. It must never open a transaction itself. Playing flags and the
// selection do not survive a restore.
func (m *Model) replaceData(d modelData) {
	m.d = d
	for i := range m.d.Notes {
		m.d.Notes[i].Playing = false
	}
	clear(m.playing)
	clear(m.selection)
	m.updateDerivedData(NoteChange | MaskChange | LoopChange)
	m.notify(NoteChange|MaskChange|LoopChange, MajorChange)
}

// AddListener registers a synchronous change listener.
func (m *Model) AddListener(l ChangeListener) {
	m.listeners = append(m.listeners, l)
}

func (m *Model) notify(kind ChangeKind, severity ChangeSeverity) {
	for _, l := range m.listeners {
		l.OnEditorChange(kind, severity)
	}
	if m.broker != nil {
		TrySend(m.broker.ToGUI, any(MsgToGUI{Kind: GUIMessageEditorChanged, Param: int(kind)}))
	}
}

// Grid returns the numeric configuration of the roll.
func (m *Model) Grid() fermata.Grid { return m.grid }

// MaskPolicy returns the active masking algorithm.
func (m *Model) MaskPolicy() MaskPolicy { return m.maskPolicy }

// SetMaskPolicy selects the masking algorithm. This is configuration, not an
// edit, so it is not undoable.
func (m *Model) SetMaskPolicy(p MaskPolicy) { m.maskPolicy = p }

// Notes returns the persistent note collection. The caller must not hold the
// slice across mutations.
func (m *Model) Notes() fermata.Sequence { return m.d.Notes }

// TempNotes returns the ephemeral generation-preview notes.
func (m *Model) TempNotes() fermata.Sequence { return m.temp }

// AllNotes iterates the union of persistent and temp notes, for rendering and
// playback. Pointers are valid only until the next mutation.
func (m *Model) AllNotes() iter.Seq[*fermata.Note] {
	return func(yield func(*fermata.Note) bool) {
		for i := range m.d.Notes {
			if !yield(&m.d.Notes[i]) {
				return
			}
		}
		for i := range m.temp {
			if !yield(&m.temp[i]) {
				return
			}
		}
	}
}

// UserNotes returns copies of the notes placed by the user.
func (m *Model) UserNotes() fermata.Sequence { return m.d.Notes.FromSource(fermata.User) }

// AgentNotes returns copies of the notes placed by the generation agent.
func (m *Model) AgentNotes() fermata.Sequence { return m.d.Notes.FromSource(fermata.Agent) }

// ProcessMsg processes a message from the generation pipeline. Candidate
// sequences become temp preview notes; final sequences replace the previous
// agent notes in their own transaction. Results arriving while a change is in
// progress are dropped; callers serialize generation against drags.
func (m *Model) ProcessMsg(msg MsgToModel) {
	if m.changeLevel > 0 || m.dragComplete != nil {
		return
	}
	switch data := msg.Data.(type) {
	case *GeneratedSequence:
		if data.Final {
			m.Note().SetTempNotes(nil)
			m.Note().AddAgentNotes(data.Notes, true)
			if len(data.Notes) > 0 && m.broker != nil {
				TrySend(m.broker.ToGUI, any(MsgToGUI{Kind: GUIMessageEnsureNoteVisible, Param: data.Notes[0].Position}))
			}
		} else {
			m.Note().SetTempNotes(data.Notes)
		}
	case func():
		data()
	}
}

// RequestGeneration returns an Action that sends the currently masked
// sequence and the mask itself to the generation pipeline. Enabled only when
// something is masked.
func (m *Model) RequestGeneration() Action { return MakeAction((*requestGeneration)(m)) }

type requestGeneration Model

func (m *requestGeneration) Enabled() bool {
	model := (*Model)(m)
	return model.broker != nil && len(model.Mask().MaskedSequence()) > 0
}

func (m *requestGeneration) Do() {
	model := (*Model)(m)
	TrySend(model.broker.ToGenerator, MsgToGenerator{
		Sequence: model.Mask().MaskedSequence(),
		Masks:    model.d.Masks.Copy(),
	})
}
