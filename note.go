package fermata

import (
	"fmt"

	"github.com/google/uuid"
)

type (
	// Voice is one of the four independent monophonic lines of the score.
	// Within a voice, at most one note sounds at any given sixteenth step.
	Voice int

	// Source tells who placed a note: the user drawing on the roll, or the
	// generation agent filling a masked region.
	Source int

	// NoteID is the stable identity of a note. It is assigned once at
	// construction and never reused, so identities survive value copying
	// (undo snapshots, clipboard round-trips keep referring to the same
	// logical note).
	NoteID uuid.UUID

	// Note is a single timed pitch event in one voice. Position and Duration
	// are in sixteenth steps; Duration is always at least 1, so the half-open
	// sounding span [Start, End) is never empty.
	Note struct {
		ID       NoteID `yaml:"-"`
		Pitch    int    `yaml:"pitch"`
		Position int    `yaml:"position"`
		Duration int    `yaml:"duration"`
		Voice    Voice  `yaml:"voice"`
		Source   Source `yaml:"source,omitempty"`

		// Playing is a transient render flag, set while the playhead is
		// inside the note's sounding span. Never serialized.
		Playing bool `yaml:"-"`

		// Masked is the legacy per-note mask flag, used only by the
		// split-based masking policy. The step-mask policy supersedes it.
		Masked bool `yaml:"-"`
	}
)

const (
	Soprano Voice = iota
	Alto
	Tenor
	Bass

	// NumVoices is the number of voices in a score.
	NumVoices = 4
)

const (
	User Source = iota
	Agent
)

var voiceNames = [NumVoices]string{"soprano", "alto", "tenor", "bass"}

func (v Voice) String() string {
	if v < 0 || v >= NumVoices {
		return fmt.Sprintf("voice(%d)", int(v))
	}
	return voiceNames[v]
}

// Valid reports whether v is one of the four enumerated voices.
func (v Voice) Valid() bool { return v >= 0 && v < NumVoices }

func (s Source) String() string {
	if s == Agent {
		return "agent"
	}
	return "user"
}

func (id NoteID) String() string { return uuid.UUID(id).String() }

// NewNote constructs a note with a fresh identity. Callers are expected to
// pass already clamped/quantized values; still, a non-positive duration or an
// out-of-range voice is a programming error and panics.
func NewNote(pitch, position, duration int, voice Voice, source Source) Note {
	if duration < 1 {
		panic(fmt.Sprintf("fermata: note duration must be >= 1, got %d", duration))
	}
	if !voice.Valid() {
		panic(fmt.Sprintf("fermata: invalid voice %d", int(voice)))
	}
	return Note{
		ID:       NoteID(uuid.New()),
		Pitch:    pitch,
		Position: position,
		Duration: duration,
		Voice:    voice,
		Source:   source,
	}
}

// Start returns the first sixteenth step the note sounds on.
func (n *Note) Start() int { return n.Position }

// End returns the first sixteenth step past the note's sounding span.
func (n *Note) End() int { return n.Position + n.Duration }

// MoveStart repositions the left boundary of the note, keeping the right
// boundary fixed. The new start must leave at least one step of duration;
// callers clamp first.
func (n *Note) MoveStart(start int) {
	end := n.End()
	if end-start < 1 {
		panic(fmt.Sprintf("fermata: MoveStart(%d) would leave note ending at %d with non-positive duration", start, end))
	}
	n.Position = start
	n.Duration = end - start
}

// MoveEnd repositions the right boundary of the note, keeping the left
// boundary fixed. The new end must leave at least one step of duration;
// callers clamp first.
func (n *Note) MoveEnd(end int) {
	if end-n.Position < 1 {
		panic(fmt.Sprintf("fermata: MoveEnd(%d) would leave note starting at %d with non-positive duration", end, n.Position))
	}
	n.Duration = end - n.Position
}

// OverlapsSpan reports whether the note's sounding span [Start, End)
// intersects the half-open step span [start, end).
func (n *Note) OverlapsSpan(start, end int) bool {
	return n.Position < end && n.End() > start
}

// CopyWithNewID returns a value copy of the note carrying a fresh identity.
// Used when a note is structurally derived from another (mask splitting,
// clipboard paste) rather than moved.
func (n Note) CopyWithNewID() Note {
	n.ID = NoteID(uuid.New())
	return n
}

// EqualData reports whether two notes are the same logical note with the same
// musical content. The Playing render flag is ignored, so undo bookkeeping
// does not consider playhead churn a change; the Masked flag is mask state
// and does count.
func (n *Note) EqualData(o *Note) bool {
	return n.ID == o.ID &&
		n.Pitch == o.Pitch &&
		n.Position == o.Position &&
		n.Duration == o.Duration &&
		n.Voice == o.Voice &&
		n.Source == o.Source &&
		n.Masked == o.Masked
}
