package editor

// Undo returns an Action that restores the model data to the state before the
// most recent committed change. The current state is pushed onto the redo
// stack first.
func (m *Model) Undo() Action { return MakeAction((*undo)(m)) }

type undo Model

func (m *undo) Enabled() bool { return len(m.undoStack) > 0 }

func (m *undo) Do() {
	model := (*Model)(m)
	if len(model.redoStack) >= maxUndo {
		copy(model.redoStack, model.redoStack[len(model.redoStack)-maxUndo+1:])
		model.redoStack = model.redoStack[:maxUndo-1]
	}
	model.redoStack = append(model.redoStack, model.d.Copy())
	d := model.undoStack[len(model.undoStack)-1]
	model.undoStack = model.undoStack[:len(model.undoStack)-1]
	model.prevUndoKind = ""
	model.replaceData(d)
}

// Redo returns an Action that reapplies the most recently undone change.
func (m *Model) Redo() Action { return MakeAction((*redo)(m)) }

type redo Model

func (m *redo) Enabled() bool { return len(m.redoStack) > 0 }

func (m *redo) Do() {
	model := (*Model)(m)
	model.pushUndo(model.d.Copy())
	d := model.redoStack[len(model.redoStack)-1]
	model.redoStack = model.redoStack[:len(model.redoStack)-1]
	model.prevUndoKind = ""
	model.replaceData(d)
}

// ClearHistory drops both stacks, e.g. after loading a new score.
func (m *Model) ClearHistory() {
	m.undoStack = m.undoStack[:0]
	m.redoStack = m.redoStack[:0]
	m.prevUndoKind = ""
	m.undoSkipCounter = 0
}
