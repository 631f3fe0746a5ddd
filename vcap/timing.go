// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vcap reconstructs raster frames from a clock, two sync signals
// and a packed colour bus, the way a monitor would.
//
package vcap

import "github.com/pkg/errors"

// Timing describes the raster geometry of a video interface: the active
// picture area and the blanking intervals (front porch, sync pulse, back
// porch) on both axes.
//
type Timing struct {
	HActive, HFront, HSync, HBack int
	VActive, VFront, VSync, VBack int

	// ActiveHigh is the level at which hsync and vsync are asserted.
	// It applies to both axes.
	ActiveHigh bool

	// CoincidentSync models devices whose vsync pulse asserts together
	// with an hsync pulse. When set, frame alignment waits for the
	// trailing hsync release after every vsync release.
	CoincidentSync bool
}

// VGA640x480 is the standard 640x480 timing with active-low sync pulses.
//
var VGA640x480 = Timing{
	HActive: 640, HFront: 16, HSync: 96, HBack: 48,
	VActive: 480, VFront: 10, VSync: 2, VBack: 33,
	CoincidentSync: true,
}

// HTotal returns the total line length in pixels.
//
func (t Timing) HTotal() int { return t.HActive + t.HFront + t.HSync + t.HBack }

// VTotal returns the total frame height in lines.
//
func (t Timing) VTotal() int { return t.VActive + t.VFront + t.VSync + t.VBack }

// Validate checks the timing invariants: a non-empty active area, a sync
// pulse on both axes and no negative interval.
//
func (t Timing) Validate() error {
	switch {
	case t.HActive < 1 || t.HSync < 1 || t.HFront < 0 || t.HBack < 0:
		return errors.Errorf("invalid horizontal timing %d/%d/%d/%d",
			t.HActive, t.HFront, t.HSync, t.HBack)
	case t.VActive < 1 || t.VSync < 1 || t.VFront < 0 || t.VBack < 0:
		return errors.Errorf("invalid vertical timing %d/%d/%d/%d",
			t.VActive, t.VFront, t.VSync, t.VBack)
	}
	return nil
}
