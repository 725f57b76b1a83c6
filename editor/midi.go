package editor

import "github.com/soralit/fermata"

// MIDI returns the MIDI view of the model, used for step-entering notes from
// a hardware keyboard.
func (m *Model) MIDI() *MIDIModel { return (*MIDIModel)(m) }

type MIDIModel Model

type (
	midiState struct {
		voice fermata.Voice
		step  int
	}

	// MIDIContext abstracts the MIDI driver so the editor can be built and
	// tested without one. Implementations live in subpackages (gomidi).
	MIDIContext interface {
		// InputDevices iterates the available input devices.
		InputDevices(yield func(MIDIDevice) bool)
		// NextEvent returns buffered note events one at a time; ok is false
		// when the buffer is drained.
		NextEvent() (event MIDINoteEvent, ok bool)
		HasDeviceOpen() bool
		Close()
	}

	MIDIDevice interface {
		Open() error
		String() string
	}

	// MIDINoteEvent is a note on/off from an input device, timestamped in
	// milliseconds since the device was opened.
	MIDINoteEvent struct {
		On          bool
		Channel     int
		Note        uint8
		Velocity    uint8
		TimestampMs int32
	}
)

// EntryVoice returns the Int selecting which voice MIDI step entry writes to.
func (m *MIDIModel) EntryVoice() Int { return MakeInt((*midiEntryVoice)(m)) }

type midiEntryVoice Model

func (v *midiEntryVoice) Value() int { return int(v.midi.voice) }
func (v *midiEntryVoice) SetValue(value int) bool {
	v.midi.voice = fermata.Voice(value)
	return true
}
func (v *midiEntryVoice) Range() fermata.RangeInclusive {
	return fermata.RangeInclusive{Min: 0, Max: fermata.NumVoices - 1}
}

// SetEntryStep moves the step-entry cursor.
func (m *MIDIModel) SetEntryStep(step int) {
	m.midi.step = (*Model)(m).grid.ClampPosition(step)
}

// EntryStep returns the current step-entry cursor position.
func (m *MIDIModel) EntryStep() int { return m.midi.step }

// ProcessEvents drains the context's buffered events. Each note-on draws a
// quantize-step long note at the entry cursor in the entry voice and advances
// the cursor; note-offs are ignored, as entry is step-based rather than timed.
func (m *MIDIModel) ProcessEvents(ctx MIDIContext) {
	if ctx == nil {
		return
	}
	model := (*Model)(m)
	for {
		ev, ok := ctx.NextEvent()
		if !ok {
			return
		}
		if !ev.On {
			continue
		}
		pitch := model.grid.ClampPitch(int(ev.Note))
		step := max(model.grid.QuantizeStep, 1)
		model.Note().Draw(pitch, m.midi.step, step, m.midi.voice)
		m.midi.step = model.grid.ClampPosition(m.midi.step + step)
	}
}

// NullMIDIContext is a mockup MIDIContext if you don't want to create a real
// one.
type NullMIDIContext struct{}

func (NullMIDIContext) InputDevices(yield func(MIDIDevice) bool) {}
func (NullMIDIContext) NextEvent() (MIDINoteEvent, bool)         { return MIDINoteEvent{}, false }
func (NullMIDIContext) HasDeviceOpen() bool                      { return false }
func (NullMIDIContext) Close()                                   {}
