package editor

import (
	_ "embed"

	"github.com/soralit/fermata"
	"gopkg.in/yaml.v3"
)

//go:embed fermata-default.yml
var defaultSequenceYaml []byte

// defaultSequence returns the four-part phrase a fresh editor opens with,
// clipped to the given grid. Note identities are assigned at load.
func defaultSequence(grid fermata.Grid) fermata.Sequence {
	var clip struct {
		Notes fermata.Sequence `yaml:"notes"`
	}
	if err := yaml.Unmarshal(defaultSequenceYaml, &clip); err != nil {
		return nil
	}
	var ret fermata.Sequence
	for _, n := range clip.Notes {
		if !n.Voice.Valid() || n.Duration < 1 {
			continue
		}
		if n.Position < 0 || n.End() > grid.TotalSixteenths {
			continue
		}
		if n.Pitch < grid.MinPitch || n.Pitch > grid.MaxPitch {
			continue
		}
		ret = append(ret, fermata.NewNote(n.Pitch, n.Position, n.Duration, n.Voice, fermata.User))
	}
	return ret
}
