package editor

import (
	"time"

	"github.com/soralit/fermata"
)

type (
	// Broker is the centralized message hub of the editor. It is used to
	// communicate between the model (owned by the interaction goroutine),
	// the generation pipeline, and the GUI. The broker is many-to-one
	// communication, implemented with one channel for each recipient.
	//
	// For closing the generator goroutine, the broker has two channels: the
	// CloseGenerator channel has a capacity of 1, so an empty struct can
	// always be sent to it without blocking; if the channel is already full,
	// someone else has requested closure and the goroutine is already
	// closing, so dropping the message is fine. FinishedGenerator is only
	// ever closed, never sent to; waiting on it can be combined with a
	// timeout via TimeoutReceive to avoid deadlocks.
	Broker struct {
		ToModel     chan MsgToModel
		ToGenerator chan MsgToGenerator
		ToGUI       chan any

		CloseGenerator    chan struct{}
		FinishedGenerator chan struct{}
	}

	// MsgToModel is a message sent to the model. Data carries either a
	// *GeneratedSequence or a func() to be executed on the model goroutine.
	MsgToModel struct {
		Data any
	}

	// MsgToGenerator asks the generation pipeline to fill the masked regions.
	// Sequence is the masked payload (the notes whose spans intersect their
	// voice's mask) and Masks the per-voice step sets to regenerate.
	MsgToGenerator struct {
		Sequence fermata.Sequence
		Masks    fermata.Mask
	}

	// GeneratedSequence is the generator's reply. Final=false sequences are
	// previews shown as temp notes; Final=true sequences replace the agent
	// notes in the persistent collection.
	GeneratedSequence struct {
		Notes fermata.Sequence
		Final bool
	}

	MsgToGUI struct {
		Kind  GUIMessageKind
		Param int
	}

	GUIMessageKind int
)

const (
	GUIMessageKindNone GUIMessageKind = iota
	GUIMessageEditorChanged
	GUIMessageEnsureNoteVisible
)

func NewBroker() *Broker {
	return &Broker{
		ToModel:           make(chan MsgToModel, 1024),
		ToGenerator:       make(chan MsgToGenerator, 1024),
		ToGUI:             make(chan any, 1024),
		CloseGenerator:    make(chan struct{}, 1),
		FinishedGenerator: make(chan struct{}),
	}
}

// TrySend is a helper function to send a value to a channel if it is not
// full. It is guaranteed to be non-blocking. Returns true if the value was
// sent, false otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive is a helper function to block until a value is received from
// a channel, or timing out after t. ok will be false if the timeout occurred
// or if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
