// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package spim implements a configurable SPI master driven over sigsim
// signals.
//
package spim

import (
	"time"

	"github.com/pkg/errors"

	"github.com/db47h/sigsim"
)

// Config holds the serial parameters of a master. The zero values of CPOL,
// CPHA, LSBFirst and CSActiveHigh select mode 0, most-significant bit first
// and an active-low select line.
//
type Config struct {
	WordWidth    int
	Freq         float64 // serial clock frequency in Hz
	CPOL         bool    // clock idles high
	CPHA         bool    // data changes on the leading edge, sampled on the trailing edge
	LSBFirst     bool
	CSActiveHigh bool
	FrameSpacing time.Duration // idle time between consecutive words
}

// Validate checks the configuration invariants.
//
func (c Config) Validate() error {
	switch {
	case c.WordWidth < 1 || c.WordWidth > 64:
		return errors.Errorf("invalid word width %d", c.WordWidth)
	case c.Freq <= 0:
		return errors.Errorf("invalid clock frequency %g", c.Freq)
	case c.FrameSpacing < 0:
		return errors.Errorf("negative frame spacing %s", c.FrameSpacing)
	}
	return nil
}

func (c Config) bitPeriod() time.Duration {
	return time.Duration(float64(time.Second) / c.Freq)
}

// Bus is the master-side signal bundle. SClk, MOSI and CS are driven by the
// master; MISO is the device's return line, unused by Write.
//
type Bus struct {
	SClk *sigsim.Signal
	MOSI *sigsim.Signal
	CS   *sigsim.Signal
	MISO *sigsim.Signal
}

// A Master shifts words out on a Bus.
//
type Master struct {
	bus Bus
	cfg Config
}

// NewMaster returns a master for the given bus and drives the bus to its
// idle levels.
//
func NewMaster(bus Bus, cfg Config) (*Master, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "spi master")
	}
	if bus.SClk == nil || bus.MOSI == nil || bus.CS == nil {
		return nil, errors.New("spi master: incomplete bus")
	}
	m := &Master{bus: bus, cfg: cfg}
	bus.SClk.Set(cfg.CPOL)
	bus.MOSI.Set(false)
	bus.CS.Set(!m.csAsserted())
	return m, nil
}

func (m *Master) csAsserted() bool { return m.cfg.CSActiveHigh }

func (m *Master) bit(w uint64, i int) bool {
	if m.cfg.LSBFirst {
		return w>>uint(i)&1 != 0
	}
	return w>>uint(m.cfg.WordWidth-1-i)&1 != 0
}

// Write shifts the words out bit by bit and blocks the calling task until
// the whole sequence is on the wire. In burst mode the select line stays
// asserted across words, with only FrameSpacing of idle time between them;
// otherwise it is released and reasserted around every word.
//
// Word values wider than the configured word width are a caller error; the
// excess bits are simply never shifted out.
//
func (m *Master) Write(p *sigsim.Proc, words []uint64, burst bool) error {
	if len(words) == 0 {
		return errors.New("spi master: empty word sequence")
	}
	half := m.cfg.bitPeriod() / 2
	m.bus.CS.Set(m.csAsserted())
	for i, w := range words {
		if i > 0 {
			if !burst {
				m.bus.CS.Set(!m.csAsserted())
			}
			p.Delay(m.cfg.FrameSpacing)
			if !burst {
				m.bus.CS.Set(m.csAsserted())
			}
		}
		for b := 0; b < m.cfg.WordWidth; b++ {
			v := m.bit(w, b)
			if m.cfg.CPHA {
				m.bus.SClk.Set(!m.cfg.CPOL)
				m.bus.MOSI.Set(v)
				p.Delay(half)
				m.bus.SClk.Set(m.cfg.CPOL)
				p.Delay(half)
			} else {
				m.bus.MOSI.Set(v)
				p.Delay(half)
				m.bus.SClk.Set(!m.cfg.CPOL)
				p.Delay(half)
				m.bus.SClk.Set(m.cfg.CPOL)
			}
		}
	}
	m.bus.CS.Set(!m.csAsserted())
	return nil
}
