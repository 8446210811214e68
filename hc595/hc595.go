// Copyright 2026 The ShiftLib595 Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hc595 drives a 74HC595 serial-in/parallel-out shift register by
// bit-banging three GPIO lines: DS (serial data), SH_CP (shift clock) and
// ST_CP (storage clock, the latch). Writing a value shifts it in one bit per
// SH_CP rising edge, then pulses ST_CP once so all outputs change together.
//
// An optional fourth line can be wired to MR (master reset, active low) to
// clear the register without shifting zeros through it.
//
// # Datasheet
//
// https://www.nexperia.com/product/74HC595D
//
// There's a nice tutorial on the device here:
//
// https://docs.arduino.cc/tutorials/communication/guide-to-shift-out/
package hc595

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

const (
	devName = "74HC595"
	maxBits = 32
)

var (
	ErrNotImplemented = errors.New("hc595: not implemented")

	errHalted     = errors.New("hc595: device is halted")
	errMissingPin = errors.New("hc595: pin is required")
)

// BitOrder selects which end of the value leaves the data pin first.
type BitOrder int

const (
	// MSBFirst shifts the most significant bit out first, so it ends up on
	// Q7, the output farthest from the serial input.
	MSBFirst BitOrder = iota
	// LSBFirst shifts the least significant bit out first.
	LSBFirst
)

// PinConfigError reports a pin that could not be configured as a digital
// output while creating the driver. It is fatal: no Dev is returned.
type PinConfigError struct {
	Pin string // role and, when known, name of the offending pin
	Err error
}

func (e *PinConfigError) Error() string {
	return fmt.Sprintf("hc595: configuring %s: %v", e.Pin, e.Err)
}

func (e *PinConfigError) Unwrap() error {
	return e.Err
}

// WriteError reports a single pin toggle that failed during a shift. The
// shift is aborted where it stood and nothing is rolled back: the register
// holds an indeterminate value until the next successful Write or Clear.
type WriteError struct {
	Pin string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("hc595: writing %s: %v", e.Pin, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Opts holds the device configuration.
type Opts struct {
	// Bits is the register width. It must be a positive multiple of 8, at
	// most 32: 8 for a single 74HC595, 16/24/32 for daisy-chained ones
	// sharing the clock and latch lines.
	Bits int
	// Order selects which end of the value is shifted out first.
	Order BitOrder
	// Clear is an optional pin wired to MR (active low). When present,
	// Clear() resets the register through it instead of shifting zeros.
	Clear gpio.PinOut
	// Freq caps the SH_CP rate. Zero means as fast as the GPIO layer goes,
	// which is still far below the part's 25MHz+ limit on any hardware this
	// library is likely to run on.
	Freq physic.Frequency
}

// DefaultOpts is the configuration for a single register, MSB first.
var DefaultOpts = Opts{Bits: 8}

// Dev is a handle to a 74HC595 wired to three GPIO lines.
//
// Dev serializes its operations with a mutex, so a single instance may be
// shared between goroutines. The three lines must not be shared with
// anything else.
type Dev struct {
	// Pins exposes each register output as a write-only gpio.PinOut.
	// Writing one shifts the whole register again with that bit changed.
	Pins []gpio.PinOut

	data   gpio.PinOut
	clock  gpio.PinOut
	latch  gpio.PinOut
	mr     gpio.PinOut
	bits   int
	order  BitOrder
	period time.Duration

	mu     sync.Mutex
	value  gpio.GPIOValue
	halted bool
}

// New returns a driver for a 74HC595 with its DS, SH_CP and ST_CP pins
// wired to data, clock and latch. A nil opts selects DefaultOpts.
//
// All pins are driven Low (MR High, if wired) as part of construction;
// a pin that cannot be driven fails with a *PinConfigError. The register's
// outputs keep whatever state the hardware had until the first Write or
// Clear.
func New(data, clock, latch gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Bits <= 0 || opts.Bits%8 != 0 || opts.Bits > maxBits {
		return nil, fmt.Errorf("hc595: width must be a positive multiple of 8 up to %d, got %d", maxBits, opts.Bits)
	}
	type role struct {
		name string
		p    gpio.PinOut
		idle gpio.Level
	}
	roles := []role{
		{"DS", data, gpio.Low},
		{"SH_CP", clock, gpio.Low},
		{"ST_CP", latch, gpio.Low},
	}
	if opts.Clear != nil {
		// MR is active low; holding it high keeps the register running.
		roles = append(roles, role{"MR", opts.Clear, gpio.High})
	}
	for i := range roles {
		if roles[i].p == nil {
			return nil, &PinConfigError{Pin: roles[i].name, Err: errMissingPin}
		}
		for j := i + 1; j < len(roles); j++ {
			if roles[i].p == roles[j].p {
				return nil, fmt.Errorf("hc595: %s and %s are the same pin %q", roles[i].name, roles[j].name, roles[i].p.Name())
			}
		}
	}

	dev := &Dev{
		data:  data,
		clock: clock,
		latch: latch,
		mr:    opts.Clear,
		bits:  opts.Bits,
		order: opts.Order,
	}
	if opts.Freq > 0 {
		dev.period = opts.Freq.Period()
	}
	// Put every line in a known idle state. This doubles as the claim: a
	// pin that is taken or misconfigured fails its first write.
	for _, r := range roles {
		if err := r.p.Out(r.idle); err != nil {
			return nil, &PinConfigError{Pin: pinLabel(r.name, r.p), Err: err}
		}
	}
	dev.Pins = make([]gpio.PinOut, dev.bits)
	for i := range dev.Pins {
		dev.Pins[i] = &Pin{number: i, name: fmt.Sprintf("%s_Q%d", devName, i), dev: dev}
	}
	return dev, nil
}

func pinLabel(role string, p gpio.PinOut) string {
	if name := p.Name(); name != "" {
		return role + " (" + name + ")"
	}
	return role
}

// Write shifts v into the register, one bit per clock pulse in the
// configured order, then pulses the latch once so all outputs update
// together. v must fit in the configured width.
//
// The full shift is performed even if v matches the last written value;
// the wire state may have been disturbed and equal inputs are guaranteed
// to produce identical pin operation sequences.
//
// On a *WriteError the shift stops where it stood. Nothing is retried or
// rolled back and the hardware outputs are indeterminate until the next
// successful Write or Clear.
func (d *Dev) Write(v gpio.GPIOValue) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLocked(v)
}

// Clear drives every output low. With an MR pin wired, it pulses MR and
// latches the zeros; otherwise it is exactly Write(0).
func (d *Dev) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clearLocked()
}

// Bits returns the configured register width.
func (d *Dev) Bits() int {
	return d.bits
}

// Order returns the configured bit order.
func (d *Dev) Order() BitOrder {
	return d.order
}

// Halt clears the register and releases the device. Further operations on
// the Dev or its Pins fail.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return nil
	}
	err := d.clearLocked()
	d.halted = true
	d.Pins = nil
	return err
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s{%s, %s, %s}", devName, d.data.Name(), d.clock.Name(), d.latch.Name())
}

func (d *Dev) writeLocked(v gpio.GPIOValue) error {
	if d.halted {
		return errHalted
	}
	if max := gpio.GPIOValue(1)<<uint(d.bits) - 1; v > max {
		return fmt.Errorf("hc595: value %#x does not fit in %d bits", v, d.bits)
	}
	for i := 0; i < d.bits; i++ {
		bit := gpio.GPIOValue(1) << uint(d.bits-1-i)
		if d.order == LSBFirst {
			bit = gpio.GPIOValue(1) << uint(i)
		}
		if err := d.set(d.data, gpio.Level(v&bit != 0)); err != nil {
			return err
		}
		if err := d.pulse(d.clock); err != nil {
			return err
		}
	}
	if err := d.pulse(d.latch); err != nil {
		return err
	}
	d.value = v
	return nil
}

func (d *Dev) clearLocked() error {
	if d.halted {
		return errHalted
	}
	if d.mr == nil {
		return d.writeLocked(0)
	}
	if err := d.set(d.mr, gpio.Low); err != nil {
		return err
	}
	d.settle()
	if err := d.set(d.mr, gpio.High); err != nil {
		return err
	}
	// MR only clears the shift register; the zeros still need latching.
	if err := d.pulse(d.latch); err != nil {
		return err
	}
	d.value = 0
	return nil
}

// outMasked merges the masked bits into the last committed value and
// re-shifts the whole register. It backs the per-output Pins and Group.
func (d *Dev) outMasked(value, mask gpio.GPIOValue) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	width := gpio.GPIOValue(1)<<uint(d.bits) - 1
	next := (d.value &^ mask) | (value & mask)
	return d.writeLocked(next & width)
}

func (d *Dev) set(p gpio.PinOut, l gpio.Level) error {
	if err := p.Out(l); err != nil {
		return &WriteError{Pin: p.Name(), Err: err}
	}
	return nil
}

// pulse raises a clock-like pin and drops it again. The 74HC595 acts on
// the rising edge of both SH_CP and ST_CP.
func (d *Dev) pulse(p gpio.PinOut) error {
	if err := d.set(p, gpio.High); err != nil {
		return err
	}
	d.settle()
	if err := d.set(p, gpio.Low); err != nil {
		return err
	}
	d.settle()
	return nil
}

// settle holds the line for half a clock period when a rate cap is set.
func (d *Dev) settle() {
	if d.period > 0 {
		time.Sleep(d.period / 2)
	}
}

var _ conn.Resource = &Dev{}
