// Command fermata-edit is a headless front end for the editor model: it step
// enters notes from a MIDI keyboard into the four-voice roll and writes the
// resulting score as YAML when interrupted.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/soralit/fermata"
	"github.com/soralit/fermata/cmd"
	"github.com/soralit/fermata/editor"
	"gopkg.in/yaml.v3"
)

var (
	gridPath   = flag.String("grid", "", "read the grid configuration from `file`")
	midiInput  = flag.String("midi-input", "", "connect MIDI input to matching device name prefix")
	outPath    = flag.String("o", "", "write the score to `file` instead of stdout")
	entryVoice = flag.Int("voice", 0, "voice to step-enter into (0=soprano .. 3=bass)")
)

func main() {
	flag.Parse()
	grid := fermata.DefaultGrid
	if *gridPath != "" {
		f, err := os.Open(*gridPath)
		if err != nil {
			log.Fatalf("could not open grid config: %v", err)
		}
		grid, err = fermata.ReadGrid(f)
		f.Close()
		if err != nil {
			log.Fatal(err)
		}
	}

	broker := editor.NewBroker()
	model := editor.NewModel(broker, grid)
	model.Note().ClearAllNotes().Do()
	model.ClearHistory()
	model.MIDI().EntryVoice().SetValue(*entryVoice)

	midiContext := cmd.NewMIDIContext()
	defer midiContext.Close()
	openMIDIByPrefix(midiContext, *midiInput)
	if !midiContext.HasDeviceOpen() {
		log.Println("no MIDI input open; only broker messages will reach the model")
	}

	go editor.RunGenerator(broker, editor.NullGenerator{})
	defer func() {
		editor.TrySend(broker.CloseGenerator, struct{}{})
		editor.TimeoutReceive(broker.FinishedGenerator, time.Second)
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-interrupt:
			break loop
		case msg := <-broker.ToModel:
			model.ProcessMsg(msg)
		case <-ticker.C:
			model.MIDI().ProcessEvents(midiContext)
		}
	}

	var w io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("could not create output file: %v", err)
		}
		defer f.Close()
		w = f
	}
	if err := writeScore(w, model.Notes()); err != nil {
		log.Fatal(err)
	}
}

func openMIDIByPrefix(ctx editor.MIDIContext, prefix string) {
	if prefix == "" {
		return
	}
	for device := range ctx.InputDevices {
		if strings.HasPrefix(device.String(), prefix) {
			if err := device.Open(); err != nil {
				log.Printf("failed to open MIDI input %q: %v", device, err)
				continue
			}
			return
		}
	}
	log.Printf("no MIDI input device found with prefix %q", prefix)
}

func writeScore(w io.Writer, notes fermata.Sequence) error {
	data, err := yaml.Marshal(struct {
		Notes fermata.Sequence `yaml:"notes"`
	}{Notes: notes})
	if err != nil {
		return fmt.Errorf("could not marshal score: %w", err)
	}
	_, err = w.Write(data)
	return err
}
