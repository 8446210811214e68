// Copyright 2026 The ShiftLib595 Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package shiftlib595 is a container for the 74HC595 shift register driver
// and its helpers.
//
// The driver itself lives in hc595. lightshow animates an LED bar wired to
// the register's outputs, and barsim emulates such a bar on the terminal.
package shiftlib595
