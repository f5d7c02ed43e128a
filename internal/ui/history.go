package ui

import "github.com/piwi3910/SquarePack/internal/model"

const defaultMaxDepth = 50

// Edit captures the run parameters at a point in time.
type Edit struct {
	Config model.Config
	Label  string // Human-readable description (e.g. "Population size")
}

// History manages undo/redo stacks of settings edits.
type History struct {
	undoStack []Edit
	redoStack []Edit
	maxDepth  int
}

// NewHistory creates a History with the default max depth of 50.
func NewHistory() *History {
	return &History{
		maxDepth: defaultMaxDepth,
	}
}

// Push saves an edit onto the undo stack and clears the redo stack.
// Call it with the state before the modification is applied.
func (h *History) Push(e Edit) {
	h.undoStack = append(h.undoStack, e)
	if len(h.undoStack) > h.maxDepth {
		h.undoStack = h.undoStack[len(h.undoStack)-h.maxDepth:]
	}
	h.redoStack = nil
}

// Undo pops the most recent edit and pushes the current state onto the redo
// stack. It returns false if there is nothing to undo.
func (h *History) Undo(current Edit) (Edit, bool) {
	if len(h.undoStack) == 0 {
		return Edit{}, false
	}
	last := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, current)
	return last, true
}

// Redo pops the most recent undone edit and pushes the current state onto
// the undo stack. It returns false if there is nothing to redo.
func (h *History) Redo(current Edit) (Edit, bool) {
	if len(h.redoStack) == 0 {
		return Edit{}, false
	}
	last := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, current)
	return last, true
}

// CanUndo reports whether there is an edit to undo.
func (h *History) CanUndo() bool {
	return len(h.undoStack) > 0
}

// CanRedo reports whether there is an edit to redo.
func (h *History) CanRedo() bool {
	return len(h.redoStack) > 0
}

// Clear removes all undo and redo history.
func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}
