package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soralit/fermata/editor"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	RTMIDIContext struct {
		driver             *rtmididrv.Driver
		currentIn          drivers.In
		inputDevices       []RTMIDIDevice
		devicesInitialized bool
		events             chan timestampedMsg
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}

	timestampedMsg struct {
		ms  int32
		msg midi.Message
	}
)

// NewContext opens the RTMIDI driver.
func NewContext() *RTMIDIContext {
	m := RTMIDIContext{events: make(chan timestampedMsg, 1024)}
	// there's not much we can do if this fails, so just use m.driver = nil to
	// indicate no driver available
	m.driver, _ = rtmididrv.New()
	return &m
}

func (c *RTMIDIContext) InputDevices(yield func(editor.MIDIDevice) bool) {
	if c.devicesInitialized {
		c.yieldCachedInputDevices(yield)
	} else {
		c.initInputDevices(yield)
	}
}

func (c *RTMIDIContext) yieldCachedInputDevices(yield func(editor.MIDIDevice) bool) {
	for _, device := range c.inputDevices {
		if !yield(device) {
			break
		}
	}
}

func (c *RTMIDIContext) initInputDevices(yield func(editor.MIDIDevice) bool) {
	if c.driver == nil {
		return
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return
	}
	for i := 0; i < len(ins); i++ {
		device := RTMIDIDevice{context: c, in: ins[i]}
		c.inputDevices = append(c.inputDevices, device)
		if !yield(device) {
			break
		}
	}
	c.devicesInitialized = true
}

// Open an input device while closing the currently open if necessary.
func (d RTMIDIDevice) Open() error {
	if d.context.currentIn == d.in {
		return nil
	}
	if d.context.driver == nil {
		return errors.New("no driver available")
	}
	if d.context.HasDeviceOpen() {
		d.context.currentIn.Close()
	}
	d.context.currentIn = d.in
	err := d.in.Open()
	if err != nil {
		d.context.currentIn = nil
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	_, err = midi.ListenTo(d.in, d.context.handleMessage)
	if err != nil {
		d.in.Close()
		d.context.currentIn = nil
	}
	return err
}

func (d RTMIDIDevice) String() string { return d.in.String() }

// TryToOpenBy opens the first input device whose name has the given prefix,
// or simply the first device when takeFirst is set.
func (c *RTMIDIContext) TryToOpenBy(namePrefix string, takeFirst bool) {
	if namePrefix == "" && !takeFirst {
		return
	}
	for input := range c.InputDevices {
		if takeFirst || strings.HasPrefix(input.String(), namePrefix) {
			input.Open()
			return
		}
	}
}

func (c *RTMIDIContext) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.driver.Close()
}

func (c *RTMIDIContext) handleMessage(msg midi.Message, timestampms int32) {
	select {
	case c.events <- timestampedMsg{ms: timestampms, msg: msg}: // if the channel is full, just drop the message
	default:
	}
}

// NextEvent returns the next buffered note on/off event, skipping other
// message types. It never blocks.
func (c *RTMIDIContext) NextEvent() (event editor.MIDINoteEvent, ok bool) {
	for {
		select {
		case m := <-c.events:
			var channel, key, velocity uint8
			isNoteOn := m.msg.GetNoteOn(&channel, &key, &velocity)
			isNoteOff := !isNoteOn && m.msg.GetNoteOff(&channel, &key, &velocity)
			if !isNoteOn && !isNoteOff {
				continue
			}
			return editor.MIDINoteEvent{
				On:          isNoteOn,
				Channel:     int(channel),
				Note:        key,
				Velocity:    velocity,
				TimestampMs: m.ms,
			}, true
		default:
			return editor.MIDINoteEvent{}, false
		}
	}
}
