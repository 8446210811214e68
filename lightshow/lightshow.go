// Copyright 2026 The ShiftLib595 Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lightshow animates a row of LEDs wired to a shift register's
// parallel outputs: fills, waves and running bits, paced by a fixed frame
// delay and cancelable through a context.
//
// The animations draw on anything that can latch a register value, so they
// run unchanged against an hc595.Dev or against barsim's terminal emulator.
package lightshow

import (
	"context"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Register is the subset of a shift register driver the animations need.
// *hc595.Dev and *barsim.Dev both implement it.
type Register interface {
	// Write latches v onto the outputs.
	Write(v gpio.GPIOValue) error
	// Clear turns every output off.
	Clear() error
	// Bits returns the number of outputs.
	Bits() int
}

// Direction selects which end of the bar an animation starts from.
// LeftToRight starts at the most significant output.
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

// Show runs animations on a Register.
type Show struct {
	reg Register
}

// New returns a Show animating reg.
func New(reg Register) *Show {
	return &Show{reg: reg}
}

// FillBar lights the outputs one after the other until the whole bar is
// lit. With persist the bar is left lit, otherwise it is cleared.
func (s *Show) FillBar(ctx context.Context, dir Direction, wait time.Duration, persist bool) error {
	bits := s.reg.Bits()
	var v gpio.GPIOValue
	for i := 0; i < bits; i++ {
		v |= 1 << uint(bits-1-i)
		if err := s.frame(ctx, v, dir, wait); err != nil {
			return err
		}
	}
	if persist {
		return nil
	}
	return s.reg.Clear()
}

// Walkthrough fills the bar, then unfills it in the same order.
func (s *Show) Walkthrough(ctx context.Context, dir Direction, wait time.Duration) error {
	if err := s.FillBar(ctx, dir, wait, true); err != nil {
		return err
	}
	bits := s.reg.Bits()
	v := gpio.GPIOValue(1)<<uint(bits) - 1
	for i := 0; i < bits; i++ {
		v &^= 1 << uint(bits-1-i)
		if err := s.frame(ctx, v, dir, wait); err != nil {
			return err
		}
	}
	return s.reg.Clear()
}

// Wave fills the bar one way and drains it back the way it came.
func (s *Show) Wave(ctx context.Context, dir Direction, wait time.Duration) error {
	bits := s.reg.Bits()
	var v gpio.GPIOValue
	for i := 0; i < bits; i++ {
		v |= 1 << uint(bits-1-i)
		if err := s.frame(ctx, v, dir, wait); err != nil {
			return err
		}
	}
	for i := bits - 1; i >= 0; i-- {
		v &^= 1 << uint(bits-1-i)
		if err := s.frame(ctx, v, dir, wait); err != nil {
			return err
		}
	}
	return s.reg.Clear()
}

// BitRun sweeps a single lit output across the bar.
func (s *Show) BitRun(ctx context.Context, dir Direction, wait time.Duration) error {
	bits := s.reg.Bits()
	for i := 0; i < bits; i++ {
		v := gpio.GPIOValue(1) << uint(bits-1-i)
		if err := s.frame(ctx, v, dir, wait); err != nil {
			return err
		}
	}
	return s.reg.Clear()
}

// SkipAcross hops a lit output across every other position, holding each
// stop for two frames.
func (s *Show) SkipAcross(ctx context.Context, dir Direction, wait time.Duration) error {
	bits := s.reg.Bits()
	var v gpio.GPIOValue
	for i := 0; i < bits; i++ {
		if i%2 == 0 {
			v |= 1 << uint(bits-1-i)
			if i > 1 {
				v &^= 1 << uint(bits-1-(i-2))
			}
		}
		if err := s.frame(ctx, v, dir, wait); err != nil {
			return err
		}
	}
	return s.reg.Clear()
}

// Demo chains the animations into the sequence the original hardware demo
// shipped with.
func (s *Show) Demo(ctx context.Context, wait time.Duration) error {
	steps := []func(context.Context) error{
		func(ctx context.Context) error { return s.Walkthrough(ctx, LeftToRight, wait) },
		func(ctx context.Context) error { return s.Wave(ctx, RightToLeft, wait) },
		func(ctx context.Context) error { return s.Walkthrough(ctx, RightToLeft, wait) },
		func(ctx context.Context) error { return s.Wave(ctx, LeftToRight, wait) },
		func(ctx context.Context) error { return s.BitRun(ctx, LeftToRight, wait) },
		func(ctx context.Context) error { return s.BitRun(ctx, RightToLeft, wait) },
		func(ctx context.Context) error { return s.BitRun(ctx, LeftToRight, wait) },
		func(ctx context.Context) error { return s.Wave(ctx, RightToLeft, wait) },
		func(ctx context.Context) error { return s.BitRun(ctx, RightToLeft, wait) },
		func(ctx context.Context) error { return s.Wave(ctx, LeftToRight, wait) },
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// frame latches v, mirrored for right-to-left runs, then waits out the
// frame delay unless the context ends first.
func (s *Show) frame(ctx context.Context, v gpio.GPIOValue, dir Direction, wait time.Duration) error {
	if dir == RightToLeft {
		v = mirror(v, s.reg.Bits())
	}
	if err := s.reg.Write(v); err != nil {
		return err
	}
	return sleep(ctx, wait)
}

// mirror reverses the low n bits of v.
func mirror(v gpio.GPIOValue, n int) gpio.GPIOValue {
	var r gpio.GPIOValue
	for i := 0; i < n; i++ {
		r <<= 1
		r |= v & 1
		v >>= 1
	}
	return r
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
