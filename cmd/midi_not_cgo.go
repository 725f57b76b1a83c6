//go:build !cgo

package cmd

import "github.com/soralit/fermata/editor"

func NewMIDIContext() editor.MIDIContext {
	return editor.NullMIDIContext{}
}
