package editor_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/soralit/fermata"
	"github.com/soralit/fermata/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyModel returns a model with no notes and no history, so tests start
// from a clean slate instead of the default phrase.
func emptyModel() *editor.Model {
	m := editor.NewModel(editor.NewBroker(), fermata.DefaultGrid)
	m.Note().ClearAllNotes().Do()
	m.ClearHistory()
	return m
}

func TestNewModelDefaults(t *testing.T) {
	m := editor.NewModel(editor.NewBroker(), fermata.DefaultGrid)
	require.NotEmpty(t, m.Notes())
	grid := m.Grid()
	for _, n := range m.Notes() {
		assert.True(t, n.Voice.Valid())
		assert.GreaterOrEqual(t, n.Position, 0)
		assert.LessOrEqual(t, n.End(), grid.TotalSixteenths)
		assert.GreaterOrEqual(t, n.Pitch, grid.MinPitch)
		assert.LessOrEqual(t, n.Pitch, grid.MaxPitch)
	}
	assert.Equal(t, editor.Loop{Start: 0, End: grid.TotalSixteenths}, m.Loop())
	assert.False(t, m.Undo().Enabled(), "loading the default phrase is not an edit")
}

func TestNewModelInvalidGridFallsBack(t *testing.T) {
	m := editor.NewModel(editor.NewBroker(), fermata.Grid{})
	assert.Equal(t, fermata.DefaultGrid, m.Grid())
}

func TestUndoRedo(t *testing.T) {
	m := emptyModel()
	m.Note().Draw(60, 0, 4, fermata.Soprano)
	require.Len(t, m.Notes(), 1)
	require.True(t, m.Undo().Enabled())

	m.Undo().Do()
	assert.Empty(t, m.Notes())
	require.True(t, m.Redo().Enabled())

	m.Redo().Do()
	require.Len(t, m.Notes(), 1)
	assert.Equal(t, 60, m.Notes()[0].Pitch)
}

func TestUndoDiscardsNoopChanges(t *testing.T) {
	m := emptyModel()
	m.Note().RemoveNote(fermata.NewNote(60, 0, 4, fermata.Soprano, fermata.User))
	assert.False(t, m.Undo().Enabled(), "removing a nonexistent note is a no-op")

	m.Note().Draw(60, 0, 4, fermata.Soprano)
	m.Redo().Do() // redo stack is empty, nothing happens
	require.Len(t, m.Notes(), 1)
	m.Mask().MaskNotes(fermata.Range{Start: 10, End: 10}, fermata.RangeInclusive{Min: 0, Max: 127})
	m.Undo().Do()
	assert.Empty(t, m.Notes(), "the empty mask selection must not have consumed an undo step")
}

func TestTransactionGroupsEdits(t *testing.T) {
	m := emptyModel()
	m.Transaction("DrawChord", func() {
		m.Note().Draw(72, 0, 4, fermata.Soprano)
		m.Note().Draw(64, 0, 4, fermata.Alto)
		m.Note().Draw(48, 0, 4, fermata.Bass)
	})
	require.Len(t, m.Notes(), 3)
	m.Undo().Do()
	assert.Empty(t, m.Notes(), "a transaction undoes as a single step")
}

func TestLoopMarkers(t *testing.T) {
	m := emptyModel()
	require.True(t, m.LoopStart().SetValue(8))
	assert.Equal(t, editor.Loop{Start: 8, End: 64}, m.Loop())

	m.LoopEnd().SetValue(4) // dragging the end below the start drags the start along
	assert.Equal(t, editor.Loop{Start: 4, End: 4}, m.Loop())

	m.LoopStart().SetValue(16)
	assert.Equal(t, editor.Loop{Start: 16, End: 16}, m.Loop())

	m.LoopEnd().SetValue(999)
	assert.Equal(t, 64, m.Loop().End)
	assert.False(t, m.LoopStart().SetValue(16), "unchanged value reports no change")
}

func TestLoopDragCoalesces(t *testing.T) {
	m := emptyModel()
	m.LoopStart().SetValue(2)
	m.LoopStart().SetValue(4)
	m.LoopStart().SetValue(8)
	m.Undo().Do()
	assert.Equal(t, 0, m.Loop().Start, "consecutive marker drags merge into one undo step")
	assert.False(t, m.Undo().Enabled())
}

func TestMajorChangeBreaksCoalescing(t *testing.T) {
	m := emptyModel()
	m.LoopStart().SetValue(4)
	// a major change sharing the marker's transaction name must not absorb
	// the minor drags around it
	m.Transaction("LoopStart", func() { m.LoopStart().SetValue(8) })
	m.LoopStart().SetValue(12)

	m.Undo().Do()
	assert.Equal(t, 8, m.Loop().Start)
	m.Undo().Do()
	assert.Equal(t, 4, m.Loop().Start)
	m.Undo().Do()
	assert.Equal(t, 0, m.Loop().Start)
	assert.False(t, m.Undo().Enabled())
}

func TestUndoAfterRestoreClearsSelection(t *testing.T) {
	m := emptyModel()
	n := m.Note().Draw(60, 0, 4, fermata.Soprano)
	require.True(t, m.Note().IsSelected(n.ID))
	m.Undo().Do()
	m.Redo().Do()
	assert.False(t, m.Note().IsSelected(n.ID), "selection does not survive a restore")
}

type countingListener struct {
	kinds []editor.ChangeKind
}

func (l *countingListener) OnEditorChange(kind editor.ChangeKind, severity editor.ChangeSeverity) {
	l.kinds = append(l.kinds, kind)
}

func TestListenersNotifiedSynchronously(t *testing.T) {
	m := emptyModel()
	l := &countingListener{}
	m.AddListener(l)

	m.Note().Draw(60, 0, 4, fermata.Soprano)
	require.Len(t, l.kinds, 1)
	assert.NotZero(t, l.kinds[0]&editor.NoteChange)

	m.Mask().AddSteps(fermata.Soprano, 0, 1)
	require.Len(t, l.kinds, 2)
	assert.NotZero(t, l.kinds[1]&editor.MaskChange)

	m.Note().RemoveNote(fermata.NewNote(60, 0, 4, fermata.Alto, fermata.User))
	assert.Len(t, l.kinds, 2, "no-op changes do not notify")
}

func TestChangeNotifiesGUI(t *testing.T) {
	broker := editor.NewBroker()
	m := editor.NewModel(broker, fermata.DefaultGrid)
	m.Note().Draw(60, 0, 4, fermata.Soprano)
	select {
	case msg := <-broker.ToGUI:
		gui, ok := msg.(editor.MsgToGUI)
		require.True(t, ok)
		assert.Equal(t, editor.GUIMessageEditorChanged, gui.Kind)
	default:
		t.Fatal("expected a GUI message after an edit")
	}
}

func TestProcessMsgGeneration(t *testing.T) {
	m := emptyModel()
	candidate := fermata.Sequence{fermata.NewNote(60, 0, 4, fermata.Alto, fermata.Agent)}
	m.ProcessMsg(editor.MsgToModel{Data: &editor.GeneratedSequence{Notes: candidate}})
	assert.Empty(t, m.Notes())
	assert.Len(t, m.TempNotes(), 1, "candidate sequences preview as temp notes")
	assert.False(t, m.Undo().Enabled(), "previews are not undoable")

	final := fermata.Sequence{
		fermata.NewNote(62, 0, 4, fermata.Alto, fermata.Agent),
		fermata.NewNote(64, 4, 4, fermata.Alto, fermata.Agent),
	}
	m.ProcessMsg(editor.MsgToModel{Data: &editor.GeneratedSequence{Notes: final, Final: true}})
	assert.Empty(t, m.TempNotes())
	assert.Len(t, m.AgentNotes(), 2)

	// a later final result replaces the previous agent notes
	m.ProcessMsg(editor.MsgToModel{Data: &editor.GeneratedSequence{
		Notes: fermata.Sequence{fermata.NewNote(65, 0, 8, fermata.Alto, fermata.Agent)},
		Final: true,
	}})
	assert.Len(t, m.AgentNotes(), 1)
}

func TestProcessMsgDroppedDuringDrag(t *testing.T) {
	m := emptyModel()
	n := m.Note().Draw(60, 0, 4, fermata.Soprano)
	m.Note().BeginDrag()
	m.ProcessMsg(editor.MsgToModel{Data: &editor.GeneratedSequence{
		Notes: fermata.Sequence{fermata.NewNote(62, 8, 4, fermata.Alto, fermata.Agent)},
	}})
	assert.Empty(t, m.TempNotes(), "results arriving mid-drag are dropped")
	m.Note().EndDrag(n.ID)
}

func TestProcessMsgFunc(t *testing.T) {
	m := emptyModel()
	called := false
	m.ProcessMsg(editor.MsgToModel{Data: func() { called = true }})
	assert.True(t, called)
}

func TestRequestGeneration(t *testing.T) {
	broker := editor.NewBroker()
	m := editor.NewModel(broker, fermata.DefaultGrid)
	m.Note().ClearAllNotes().Do()
	m.ClearHistory()
	assert.False(t, m.RequestGeneration().Enabled(), "nothing masked, nothing to generate")

	m.Note().Draw(60, 0, 4, fermata.Soprano)
	m.Mask().MaskNotes(fermata.Range{Start: 0, End: 4}, fermata.RangeInclusive{Min: 60, Max: 60})
	require.True(t, m.RequestGeneration().Enabled())
	m.RequestGeneration().Do()

	select {
	case msg := <-broker.ToGenerator:
		require.Len(t, msg.Sequence, 1)
		assert.Equal(t, 60, msg.Sequence[0].Pitch)
		assert.Equal(t, fermata.StepSet{0, 1, 2, 3}, msg.Masks[fermata.Soprano])
	default:
		t.Fatal("expected a generation request on the broker")
	}
}

func TestSetMaskPolicyNotUndoable(t *testing.T) {
	m := emptyModel()
	m.SetMaskPolicy(editor.LegacySplitPolicy)
	assert.Equal(t, editor.LegacySplitPolicy, m.MaskPolicy())
	assert.False(t, m.Undo().Enabled())
}

// FuzzModel drives random sequences of editor operations and checks that the
// model never panics and its invariants hold throughout.
func FuzzModel(f *testing.F) {
	f.Add([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	f.Fuzz(func(t *testing.T, slice []byte) {
		broker := editor.NewBroker()
		m := editor.NewModel(broker, fermata.DefaultGrid)
		grid := m.Grid()
		var clipboard []byte
		var dragID fermata.NoteID
		dragging := false
		reader := bytes.NewReader(slice)
		for v, err := binary.ReadVarint(reader); err == nil; v, err = binary.ReadVarint(reader) {
			seed := int(v)
			if seed < 0 {
				seed = -seed
			}
			if dragging {
				switch seed % 3 {
				case 0:
					m.Note().DragNote(dragID, seed%128, seed%100-10)
				case 1:
					m.Note().EndDrag(dragID)
					dragging = false
				default:
					m.Note().CancelDrag()
					dragging = false
				}
			} else {
				switch seed % 14 {
				case 0:
					m.Note().Draw(seed%128, seed%80-8, seed%12+1, fermata.Voice(seed%fermata.NumVoices))
				case 1:
					if notes := m.Notes(); len(notes) > 0 {
						m.Note().RemoveNote(notes[seed%len(notes)])
					}
				case 2:
					if notes := m.Notes(); len(notes) > 0 {
						m.Note().BeginDrag()
						dragID = notes[seed%len(notes)].ID
						dragging = true
					}
				case 3:
					m.Undo().Do()
				case 4:
					m.Redo().Do()
				case 5:
					lo, hi := seed%70, seed*7%70
					m.Mask().MaskNotes(
						fermata.Range{Start: min(lo, hi), End: max(lo, hi)},
						fermata.RangeInclusive{Min: 40 + seed%20, Max: 60 + seed%30},
					)
				case 6:
					m.Mask().AddSteps(fermata.Voice(seed%fermata.NumVoices), seed%70-3, seed*3%70)
				case 7:
					m.Mask().RemoveSteps(fermata.Voice(seed%fermata.NumVoices), seed%70)
				case 8:
					m.Mask().ClearMasks().Do()
				case 9:
					m.LoopStart().SetValue(seed%80 - 8)
				case 10:
					m.LoopEnd().SetValue(seed%80 - 8)
				case 11:
					if notes := m.Notes(); len(notes) > 0 {
						m.Note().Select(notes[seed%len(notes)])
						if c, ok := m.Note().CopySelection(); ok {
							clipboard = c
						}
					}
				case 12:
					m.Note().Paste(clipboard, seed%70-3)
				case 13:
					m.Note().SetNotePlaying(36+seed%46, seed%64)
				}
			}
			checkInvariants(t, m, grid)
		}
		if dragging {
			m.Note().CancelDrag()
		}
	})
}

func checkInvariants(t *testing.T, m *editor.Model, grid fermata.Grid) {
	t.Helper()
	for _, n := range m.Notes() {
		if n.Duration < 1 {
			t.Fatalf("note with non-positive duration: %+v", n)
		}
		if n.Position < 0 || n.End() > grid.TotalSixteenths {
			t.Fatalf("note outside the timeline: %+v", n)
		}
		if n.Pitch < grid.MinPitch || n.Pitch > grid.MaxPitch {
			t.Fatalf("note outside the pitch range: %+v", n)
		}
		if !n.Voice.Valid() {
			t.Fatalf("note with invalid voice: %+v", n)
		}
	}
	loop := m.Loop()
	if loop.Start > loop.End || loop.Start < 0 || loop.End > grid.TotalSixteenths {
		t.Fatalf("invalid loop markers: %+v", loop)
	}
	for v := fermata.Voice(0); v < fermata.NumVoices; v++ {
		steps := m.Mask().Steps(v)
		for i, s := range steps {
			if s < 0 || s >= grid.TotalSixteenths {
				t.Fatalf("mask step outside the timeline: voice %v step %d", v, s)
			}
			if i > 0 && steps[i-1] >= s {
				t.Fatalf("mask steps not strictly ascending: voice %v %v", v, steps)
			}
		}
	}
}
