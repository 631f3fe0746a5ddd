// Package vdev provides a behavioural model of the device under test: a
// raster timing generator with a registered colour output and an SPI slave
// writing a fixed-size instruction memory. Scenarios and package tests run
// against this model in place of the external design.
//
package vdev

import (
	"github.com/pkg/errors"

	"github.com/db47h/sigsim"
	"github.com/db47h/sigsim/spim"
	"github.com/db47h/sigsim/vcap"
)

// Config describes a model device.
//
type Config struct {
	Timing vcap.Timing
	SPI    spim.Config

	// NumInstr is the size of the instruction memory in words.
	NumInstr int

	// PixelClocks is the number of clock rising edges per pixel, matching
	// the capture stride. Defaults to 2.
	PixelClocks int
}

// A Device bundles the boundary signals of the modelled design. The harness
// drives Clk (through a Clock task), RstN, Ena, Pause and the SPI master
// lines; the device drives the video outputs and MISO.
//
type Device struct {
	cfg Config

	// control inputs
	Clk   *sigsim.Signal
	RstN  *sigsim.Signal // reset, active low
	Ena   *sigsim.Signal
	Pause *sigsim.Signal // freezes execution; timing keeps running

	// video outputs
	HSync *sigsim.Signal
	VSync *sigsim.Signal
	Color *sigsim.Bus // packed rrggbb

	// SPI slave interface
	SClk *sigsim.Signal
	MOSI *sigsim.Signal
	CS   *sigsim.Signal
	MISO *sigsim.Signal

	// Pattern computes the raw rrggbb value of an active pixel. When nil,
	// the instruction memory is rendered as vertical bands: instruction i
	// paints band i.
	Pattern func(x, y int) uint8

	mem []uint64
}

// New allocates the device signals on s. The instruction memory initially
// holds the default banded program i*4+3.
//
func New(s *sigsim.Sim, cfg Config) (*Device, error) {
	if err := cfg.Timing.Validate(); err != nil {
		return nil, errors.Wrap(err, "device")
	}
	if err := cfg.SPI.Validate(); err != nil {
		return nil, errors.Wrap(err, "device")
	}
	if cfg.NumInstr < 1 {
		return nil, errors.Errorf("device: invalid instruction count %d", cfg.NumInstr)
	}
	if cfg.PixelClocks == 0 {
		cfg.PixelClocks = 2
	}
	if cfg.PixelClocks < 1 {
		return nil, errors.Errorf("device: invalid pixel clock divider %d", cfg.PixelClocks)
	}
	d := &Device{
		cfg:   cfg,
		Clk:   s.Signal("clk", false),
		RstN:  s.Signal("rst_n", false),
		Ena:   s.Signal("ena", false),
		Pause: s.Signal("pause_execute", false),
		HSync: s.Signal("hsync", !cfg.Timing.ActiveHigh),
		VSync: s.Signal("vsync", !cfg.Timing.ActiveHigh),
		Color: s.Bus("rrggbb", 6),
		SClk:  s.Signal("spi_sclk", cfg.SPI.CPOL),
		MOSI:  s.Signal("spi_mosi", false),
		CS:    s.Signal("spi_cs", !cfg.SPI.CSActiveHigh),
		MISO:  s.Signal("spi_miso", false),
		mem:   make([]uint64, cfg.NumInstr),
	}
	for i := range d.mem {
		d.mem[i] = uint64(i)*4 + 3
	}
	return d, nil
}

// Start spawns the raster and SPI slave tasks.
//
func (d *Device) Start(s *sigsim.Sim) {
	s.Spawn("raster", d.raster)
	s.Spawn("spi_slave", d.spiSlave)
}

// Memory returns a copy of the instruction memory.
//
func (d *Device) Memory() []uint64 {
	m := make([]uint64, len(d.mem))
	copy(m, d.mem)
	return m
}

func (d *Device) pixel(x, y int) uint8 {
	if d.Pattern != nil {
		return d.Pattern(x, y) & 0x3f
	}
	band := d.cfg.Timing.HActive / d.cfg.NumInstr
	if band < 1 {
		band = 1
	}
	i := x / band
	if i >= d.cfg.NumInstr {
		i = d.cfg.NumInstr - 1
	}
	return uint8(d.mem[i]) & 0x3f
}

// raster drives the video outputs. Each line runs sync, back porch, active,
// front porch, so a sync release edge is followed by exactly back-porch
// blanking pixels before the active region. The colour output is registered:
// it lags the counters by one pixel, like the RTL it stands in for.
func (d *Device) raster(p *sigsim.Proc) error {
	t := d.cfg.Timing
	hSyncEnd, vSyncEnd := t.HSync, t.VSync
	hActStart, vActStart := t.HSync+t.HBack, t.VSync+t.VBack
	hActEnd, vActEnd := hActStart+t.HActive, vActStart+t.VActive
	hTotal, vTotal := t.HTotal(), t.VTotal()

	h, v := 0, 0
	var reg uint8
	for {
		p.ClockCycles(d.Clk, d.cfg.PixelClocks)
		if !d.RstN.Level() {
			h, v, reg = 0, 0, 0
			d.HSync.Set(!t.ActiveHigh)
			d.VSync.Set(!t.ActiveHigh)
			d.Color.Set(0)
			continue
		}
		d.HSync.Set((h < hSyncEnd) == t.ActiveHigh)
		d.VSync.Set((v < vSyncEnd) == t.ActiveHigh)
		d.Color.Set(uint64(reg))
		if d.Ena.Level() && !d.Pause.Level() &&
			h >= hActStart && h < hActEnd && v >= vActStart && v < vActEnd {
			reg = d.pixel(h-hActStart, v-vActStart)
		} else {
			reg = 0
		}
		if h++; h == hTotal {
			h = 0
			if v++; v == vTotal {
				v = 0
			}
		}
	}
}

// spiSlave samples MOSI on the sampling edge of the configured mode and
// shifts completed words into the instruction memory through a wrapping
// write pointer. Deasserting the select line discards a partial word; only
// reset rewinds the pointer.
func (d *Device) spiSlave(p *sigsim.Proc) error {
	cfg := d.cfg.SPI
	// leading edge for CPHA=0, trailing edge for CPHA=1
	sample := !cfg.CPOL
	if cfg.CPHA {
		sample = cfg.CPOL
	}
	var shift uint64
	n, ptr := 0, 0
	for {
		p.WaitEdge(d.SClk, sample)
		if !d.RstN.Level() {
			shift, n, ptr = 0, 0, 0
			continue
		}
		if d.CS.Level() != cfg.CSActiveHigh {
			shift, n = 0, 0
			continue
		}
		if cfg.LSBFirst {
			if d.MOSI.Level() {
				shift |= 1 << uint(n)
			}
		} else {
			shift <<= 1
			if d.MOSI.Level() {
				shift |= 1
			}
		}
		if n++; n == cfg.WordWidth {
			d.mem[ptr] = shift
			ptr = (ptr + 1) % d.cfg.NumInstr
			shift, n = 0, 0
		}
	}
}
