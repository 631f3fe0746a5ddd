// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vcap

import (
	"image"
	"image/color"

	"github.com/pkg/errors"

	"github.com/db47h/sigsim"
)

// Video is the device-side signal bundle observed during capture. All four
// wires are owned by the device; a Capturer only ever reads them.
//
type Video struct {
	Clk   *sigsim.Signal
	HSync *sigsim.Signal
	VSync *sigsim.Signal
	Color *sigsim.Bus // packed rrggbb, two bits per channel
}

// A Capturer reconstructs raster frames from a Video bundle. It tracks the
// beam position through the blanking intervals with a signed cursor preset
// to (-HBack, -VBack), so that cursor zero lands on the first active pixel.
//
type Capturer struct {
	v Video
	t Timing

	// Stride is the number of clock rising edges per pixel sample.
	Stride int
}

// NewCapturer returns a capturer for the given signal bundle and timing.
//
func NewCapturer(v Video, t Timing) (*Capturer, error) {
	if err := t.Validate(); err != nil {
		return nil, errors.Wrap(err, "capturer")
	}
	if v.Clk == nil || v.HSync == nil || v.VSync == nil || v.Color == nil {
		return nil, errors.New("capturer: incomplete video bundle")
	}
	return &Capturer{v: v, t: t, Stride: 2}, nil
}

func (c *Capturer) asserted(sig *sigsim.Signal) bool {
	return sig.Level() == c.t.ActiveHigh
}

// waitRelease suspends until sig leaves its asserted level.
func (c *Capturer) waitRelease(p *sigsim.Proc, sig *sigsim.Signal) {
	p.WaitEdge(sig, !c.t.ActiveHigh)
}

// WaitFrameStart suspends until the release edge of vsync and, on devices
// with coincident sync pulses, the trailing release edge of hsync. A capture
// started right after WaitFrameStart returns is aligned to the raster
// origin.
//
func (c *Capturer) WaitFrameStart(p *sigsim.Proc) {
	c.waitRelease(p, c.v.VSync)
	if c.t.CoincidentSync {
		c.waitRelease(p, c.v.HSync)
	}
}

// Capture samples the colour bus every Stride clock edges and assembles one
// complete frame, returned when the next vsync pulse completes. It blocks
// the calling task for a full frame; spawn it to run capture concurrently
// with the rest of a scenario, and read the frame only after joining.
//
// Capture never times out. If the device stops producing sync pulses the
// task suspends forever; bounding the wait is the scenario's business
// (see sigsim.Sim.SetDeadline).
//
func (c *Capturer) Capture(p *sigsim.Proc) *image.RGBA {
	t := c.t
	x, y := -t.HBack, -t.VBack
	img := image.NewRGBA(image.Rect(0, 0, t.HActive, t.VActive))
	for yy := 0; yy < t.VActive; yy++ {
		for xx := 0; xx < t.HActive; xx++ {
			img.SetRGBA(xx, yy, color.RGBA{A: 0xff})
		}
	}

	for {
		for i := 0; i < c.Stride; i++ {
			p.WaitRising(c.v.Clk)
		}
		raw := c.v.Color.Get()
		px := color.RGBA{
			R: Expand(uint8(raw >> 4)),
			G: Expand(uint8(raw >> 2)),
			B: Expand(uint8(raw)),
			A: 0xff,
		}
		if x >= 0 && x < t.HActive && y >= 0 && y < t.VActive {
			img.SetRGBA(x, y, px)
		}
		switch {
		case c.asserted(c.v.HSync):
			// one full hsync pulse: next line
			c.waitRelease(p, c.v.HSync)
			y++
			x = -t.HBack
		case c.asserted(c.v.VSync):
			// frame complete once the vsync pulse (and its trailing
			// hsync pulse) has passed
			c.waitRelease(p, c.v.VSync)
			if t.CoincidentSync {
				c.waitRelease(p, c.v.HSync)
			}
			return img
		default:
			x++
		}
	}
}
