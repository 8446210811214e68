// Copyright 2026 The ShiftLib595 Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hc595

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// Pin is a write-only view of a single register output. Setting it shifts
// the whole register again with just that bit changed.
type Pin struct {
	dev    *Dev
	name   string
	number int
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Name returns the name of the output.
func (p *Pin) Name() string {
	return p.name
}

// Number returns the output's position, 0 being the first bit shifted in.
func (p *Pin) Number() int {
	return p.number
}

// Deprecated: returns "Out"
func (p *Pin) Function() string {
	return "Out"
}

// Out writes the specified gpio.Level to the output.
func (p *Pin) Out(l gpio.Level) error {
	mask := gpio.GPIOValue(1) << uint(p.number)
	v := gpio.GPIOValue(0)
	if l {
		v = mask
	}
	return p.dev.outMasked(v, mask)
}

// Not implemented.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return ErrNotImplemented
}

func (p *Pin) String() string {
	return p.name
}

// Group is a subset of the register's outputs that can be written in a
// single shift, implementing gpio.Group.
type Group struct {
	dev  *Dev
	pins []Pin
}

// Group returns the given outputs as a gpio.Group so they can be changed
// in one transaction. Output numbers must be within the register's width.
func (d *Dev) Group(pins ...int) (gpio.Group, error) {
	gr := &Group{dev: d, pins: make([]Pin, len(pins))}
	for ix, pinNumber := range pins {
		if pinNumber < 0 || pinNumber >= len(d.Pins) {
			return nil, fmt.Errorf("hc595: no output %d on a %d bit register", pinNumber, d.bits)
		}
		if p, ok := d.Pins[pinNumber].(*Pin); ok {
			gr.pins[ix] = *p
		}
	}
	return gr, nil
}

// Pins returns the outputs that are part of this group.
func (gr *Group) Pins() []pin.Pin {
	result := make([]pin.Pin, len(gr.pins))
	for ix := range gr.pins {
		result[ix] = &gr.pins[ix]
	}
	return result
}

// ByOffset returns the pin at the given offset into the group.
func (gr *Group) ByOffset(offset int) pin.Pin {
	return &gr.pins[offset]
}

// ByName returns the pin with the given name, or nil.
func (gr *Group) ByName(name string) pin.Pin {
	for ix := range gr.pins {
		if gr.pins[ix].name == name {
			return &gr.pins[ix]
		}
	}
	return nil
}

// ByNumber returns the pin with the given output number, or nil.
func (gr *Group) ByNumber(number int) pin.Pin {
	for ix := range gr.pins {
		if gr.pins[ix].number == number {
			return &gr.pins[ix]
		}
	}
	return nil
}

// Out writes value to the group's outputs in a single shift. Only outputs
// identified by mask are modified; a zero mask means all of them.
func (gr *Group) Out(value, mask gpio.GPIOValue) error {
	if mask == 0 {
		mask = gpio.GPIOValue(1)<<uint(len(gr.pins)) - 1
	}
	wrMask := gpio.GPIOValue(0)
	wrValue := gpio.GPIOValue(0)
	for ix := range gr.pins {
		currentBit := gpio.GPIOValue(1) << uint(ix)
		if mask&currentBit == currentBit {
			wrMask |= gpio.GPIOValue(1) << uint(gr.pins[ix].number)
		}
		if value&currentBit == currentBit {
			wrValue |= gpio.GPIOValue(1) << uint(gr.pins[ix].number)
		}
	}
	return gr.dev.outMasked(wrValue, wrMask)
}

// Read is not available: the 74HC595's outputs cannot be read back.
func (gr *Group) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	return 0, ErrNotImplemented
}

// WaitForEdge is not available for this device.
func (gr *Group) WaitForEdge(timeout time.Duration) (int, gpio.Edge, error) {
	return 0, gpio.NoEdge, ErrNotImplemented
}

// Halt frees the group's resources and prevents it from being used again.
func (gr *Group) Halt() error {
	gr.pins = nil
	return nil
}

func (gr *Group) String() string {
	s := gr.dev.String() + "[ "
	for ix := range gr.pins {
		s += fmt.Sprintf("%d ", gr.pins[ix].number)
	}
	s += "]"
	return s
}

var _ gpio.PinOut = &Pin{}
var _ gpio.Group = &Group{}
