package editor

import "github.com/soralit/fermata"

// Loop returns the looped playback region.
func (m *Model) Loop() Loop { return m.d.Loop }

// LoopStart returns the Int editing the left loop marker. Dragging the marker
// produces a stream of minor changes that coalesce into one undo step; moving
// it past the right marker drags that along.
func (m *Model) LoopStart() Int { return MakeInt((*loopStart)(m)) }

type loopStart Model

func (v *loopStart) Value() int { return v.d.Loop.Start }

func (v *loopStart) SetValue(value int) bool {
	m := (*Model)(v)
	defer m.change("LoopStart", LoopChange, MinorChange)()
	m.d.Loop.Start = m.grid.ClampLoopPosition(value)
	m.d.Loop.End = max(m.d.Loop.End, m.d.Loop.Start)
	return true
}

func (v *loopStart) Range() fermata.RangeInclusive {
	return fermata.RangeInclusive{Min: 0, Max: v.grid.TotalSixteenths}
}

// LoopEnd returns the Int editing the right loop marker. Unlike note
// positions, the marker may sit on the very end of the timeline.
func (m *Model) LoopEnd() Int { return MakeInt((*loopEnd)(m)) }

type loopEnd Model

func (v *loopEnd) Value() int { return v.d.Loop.End }

func (v *loopEnd) SetValue(value int) bool {
	m := (*Model)(v)
	defer m.change("LoopEnd", LoopChange, MinorChange)()
	m.d.Loop.End = m.grid.ClampLoopPosition(value)
	m.d.Loop.Start = min(m.d.Loop.Start, m.d.Loop.End)
	return true
}

func (v *loopEnd) Range() fermata.RangeInclusive {
	return fermata.RangeInclusive{Min: 0, Max: v.grid.TotalSixteenths}
}
