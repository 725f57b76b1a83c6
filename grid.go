package fermata

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"
)

type (
	// RoundingMode selects the policy Quantize uses to snap a value to the
	// grid. Drag deltas round to nearest; mask selections round outward, so
	// the selection start floors and the selection end ceils.
	RoundingMode int

	// Grid is the numeric configuration of the piano roll: the discrete
	// musical grid and the pixel-to-step conversion ratios. Only the geometry
	// helpers consume the pixel ratios; the editor core works purely in
	// steps and pitches.
	Grid struct {
		TotalSixteenths int     `yaml:"totalSixteenths"`
		QuantizeStep    int     `yaml:"quantizeStep"`
		MinPitch        int     `yaml:"minPitch"`
		MaxPitch        int     `yaml:"maxPitch"`
		SixteenthWidth  float64 `yaml:"sixteenthWidth"`
		NoteHeight      float64 `yaml:"noteHeight"`
	}
)

const (
	RoundNearest RoundingMode = iota
	RoundFloor
	RoundCeil
)

// DefaultGrid is the configuration the editor starts with: a four-bar
// timeline at sixteenth resolution, the pitch span of a four-part chorale.
var DefaultGrid = Grid{
	TotalSixteenths: 64,
	QuantizeStep:    2,
	MinPitch:        36,
	MaxPitch:        81,
	SixteenthWidth:  20,
	NoteHeight:      10,
}

// Quantize snaps value to the nearest multiple of step per the rounding
// mode. It is a total function: a non-positive step is treated as 1, and
// already-quantized values pass through unchanged, so quantization is
// idempotent.
func Quantize(value float64, step int, mode RoundingMode) int {
	if step < 1 {
		step = 1
	}
	q := value / float64(step)
	switch mode {
	case RoundFloor:
		return int(math.Floor(q)) * step
	case RoundCeil:
		return int(math.Ceil(q)) * step
	default:
		return int(math.Round(q)) * step
	}
}

// ClampPosition bounds a note position to [0, TotalSixteenths-1]. A note may
// not start on the very last boundary of the timeline, since it needs at
// least one step of duration.
func (g Grid) ClampPosition(p int) int {
	return max(min(p, g.TotalSixteenths-1), 0)
}

// ClampLoopPosition bounds a loop marker to [0, TotalSixteenths]. Unlike note
// positions, a loop marker may sit on the very end of the timeline.
func (g Grid) ClampLoopPosition(p int) int {
	return max(min(p, g.TotalSixteenths), 0)
}

// ClampPitch bounds a pitch to [MinPitch, MaxPitch].
func (g Grid) ClampPitch(v int) int {
	return max(min(v, g.MaxPitch), g.MinPitch)
}

// PitchRange returns the full valid pitch span of the grid.
func (g Grid) PitchRange() RangeInclusive {
	return RangeInclusive{Min: g.MinPitch, Max: g.MaxPitch}
}

// StepAt converts a canvas x coordinate to the sixteenth step under it,
// clamped to valid note positions.
func (g Grid) StepAt(x float64) int {
	return g.ClampPosition(int(math.Floor(x / g.SixteenthWidth)))
}

// PitchAt converts a canvas y coordinate to the pitch of the lane under it.
// Lane 0 at the top of the canvas is MaxPitch.
func (g Grid) PitchAt(y float64) int {
	return g.ClampPitch(g.MaxPitch - int(math.Floor(y/g.NoteHeight)))
}

// DragSteps converts a pointer x delta (pixels) to a quantized step delta.
func (g Grid) DragSteps(dx float64) int {
	return Quantize(dx/g.SixteenthWidth, g.QuantizeStep, RoundNearest)
}

// DragPitches converts a pointer y delta (pixels) to a pitch delta. Positive
// y points down the canvas, which is downward in pitch.
func (g Grid) DragPitches(dy float64) int {
	return -Quantize(dy/g.NoteHeight, 1, RoundNearest)
}

// SelectionRanges converts a pixel rectangle to the (position, pitch) ranges
// of the mask tool. The position span rounds outward to the quantize step
// (floor at the left edge, ceil at the right) so a selection always covers
// every step it touches; the end may sit on TotalSixteenths itself since the
// span is half-open.
func (g Grid) SelectionRanges(x1, y1, x2, y2 float64) (Range, RangeInclusive) {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	start := Quantize(x1/g.SixteenthWidth, g.QuantizeStep, RoundFloor)
	end := Quantize(x2/g.SixteenthWidth, g.QuantizeStep, RoundCeil)
	start = max(min(start, g.TotalSixteenths), 0)
	end = max(min(end, g.TotalSixteenths), start)
	positions := Range{Start: start, End: end}
	pitches := RangeInclusive{Min: g.PitchAt(y2), Max: g.PitchAt(y1)}
	return positions, pitches
}

// Validate checks that the grid describes a usable roll.
func (g Grid) Validate() error {
	if g.TotalSixteenths < 1 {
		return errors.New("totalSixteenths should be > 0")
	}
	if g.QuantizeStep < 1 {
		return errors.New("quantizeStep should be > 0")
	}
	if g.MinPitch > g.MaxPitch {
		return errors.New("minPitch should be <= maxPitch")
	}
	if g.SixteenthWidth <= 0 || g.NoteHeight <= 0 {
		return errors.New("pixel ratios should be > 0")
	}
	return nil
}

// ReadGrid reads a Grid from YAML. Fields missing from the document keep
// their DefaultGrid values.
func ReadGrid(r io.Reader) (Grid, error) {
	g := DefaultGrid
	if err := yaml.NewDecoder(r).Decode(&g); err != nil {
		return Grid{}, fmt.Errorf("could not decode grid config: %w", err)
	}
	if err := g.Validate(); err != nil {
		return Grid{}, fmt.Errorf("invalid grid config: %w", err)
	}
	return g, nil
}
