// Copyright 2026 The ShiftLib595 Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package barsim emulates a row of LEDs wired to a shift register's
// outputs by redrawing it in place on the terminal with ANSI color codes.
//
// Useful while you are waiting for the real LEDs and the 74HC595 to come
// by mail: it satisfies lightshow.Register, so every animation runs
// against it unchanged.
package barsim

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// Opts represents the options available for the emulated bar.
type Opts struct {
	// Bits is the number of emulated outputs. 8 if zero.
	Bits int
	// On is the color of a lit output. Green if zero.
	On color.NRGBA
	// Off is the color of a dark output. Dim gray if zero.
	Off color.NRGBA
	// Palette maps colors to terminal codes. ansi256.Default if nil.
	Palette *ansi256.Palette
	// Writer receives the ANSI output. The colorable stdout if nil.
	Writer io.Writer

	_ struct{}
}

// Dev is a shift register LED bar emulator that draws to the console.
type Dev struct {
	w       io.Writer
	bits    int
	palette ansi256.Palette
	on      color.NRGBA
	off     color.NRGBA

	value gpio.GPIOValue
	buf   bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &Opts{}
	}
	bits := opts.Bits
	if bits == 0 {
		bits = 8
	}
	on := opts.On
	if on == (color.NRGBA{}) {
		on = color.NRGBA{R: 0, G: 255, B: 0, A: 255}
	}
	off := opts.Off
	if off == (color.NRGBA{}) {
		off = color.NRGBA{R: 32, G: 32, B: 32, A: 255}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Writer
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{w: w, bits: bits, palette: *p, on: on, off: off}
}

func (d *Dev) String() string {
	return fmt.Sprintf("BarSim{%d}", d.bits)
}

// Bits returns the number of emulated outputs.
func (d *Dev) Bits() int {
	return d.bits
}

// Write draws the outputs, most significant bit leftmost.
func (d *Dev) Write(v gpio.GPIOValue) error {
	if max := gpio.GPIOValue(1)<<uint(d.bits) - 1; v > max {
		return fmt.Errorf("barsim: value %#x does not fit in %d bits", v, d.bits)
	}
	d.value = v
	return d.refresh()
}

// Clear turns every output off.
func (d *Dev) Clear() error {
	return d.Write(0)
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes so the display is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated per
	// frame.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := d.bits - 1; i >= 0; i-- {
		c := d.off
		if d.value&(gpio.GPIOValue(1)<<uint(i)) != 0 {
			c = d.on
		}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ conn.Resource = &Dev{}
var _ fmt.Stringer = &Dev{}
