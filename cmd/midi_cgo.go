//go:build cgo

package cmd

import (
	"github.com/soralit/fermata/editor"
	"github.com/soralit/fermata/editor/gomidi"
)

func NewMIDIContext() editor.MIDIContext {
	return gomidi.NewContext()
}
