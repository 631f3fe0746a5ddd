// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sigsim

// A Signal is a named binary wire. Each signal has exactly one writer by
// convention; any number of tasks may read it or wait on its edges. No
// locking is involved: cooperative scheduling serialises all access.
//
type Signal struct {
	sim  *Sim
	name string
	v    bool

	rising, falling []*Proc
}

// Signal allocates a new binary wire with the given initial level.
//
func (s *Sim) Signal(name string, init bool) *Signal {
	return &Signal{sim: s, name: name, v: init}
}

// Name returns the signal name.
//
func (sig *Signal) Name() string { return sig.name }

// Level returns the current level of the signal.
//
func (sig *Signal) Level() bool { return sig.v }

// Set drives the signal to level v. Writing the current level is not an
// edge and wakes no waiter. Edge waiters resume at the current virtual
// time, in the order they started waiting.
//
func (sig *Signal) Set(v bool) {
	if v == sig.v {
		return
	}
	sig.v = v
	var ws []*Proc
	if v {
		ws, sig.rising = sig.rising, nil
	} else {
		ws, sig.falling = sig.falling, nil
	}
	for _, p := range ws {
		sig.sim.schedule(sig.sim.now, p)
	}
}

// Toggle inverts the signal level.
//
func (sig *Signal) Toggle() { sig.Set(!sig.v) }

// A Bus is a named wire of up to 64 bits. Buses are sampled, never awaited:
// readers align themselves on a clock signal instead.
//
type Bus struct {
	name  string
	width int
	mask  uint64
	v     uint64
}

// Bus allocates a new multi-bit wire, initially zero.
//
func (s *Sim) Bus(name string, width int) *Bus {
	if width < 1 || width > 64 {
		panic("invalid width for bus " + name)
	}
	return &Bus{name: name, width: width, mask: ^uint64(0) >> (64 - uint(width))}
}

// Name returns the bus name.
//
func (b *Bus) Name() string { return b.name }

// Width returns the bus width in bits.
//
func (b *Bus) Width() int { return b.width }

// Get returns the current bus value.
//
func (b *Bus) Get() uint64 { return b.v }

// Set drives the bus, masking v to the bus width.
//
func (b *Bus) Set(v uint64) { b.v = v & b.mask }
