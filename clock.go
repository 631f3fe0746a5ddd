package sigsim

import "time"

// A Clock toggles a binary signal forever, alternating between levels every
// half period. It owns its signal: no other task may drive it.
//
type Clock struct {
	sig  *Signal
	half time.Duration
}

// NewClock returns a clock driving sig with the given period. The first
// edge occurs half a period after the clock task starts, from whatever
// level sig holds at that point.
//
func NewClock(sig *Signal, period time.Duration) *Clock {
	if period <= 0 {
		panic("clock period must be positive: " + sig.Name())
	}
	return &Clock{sig: sig, half: period / 2}
}

// Run drives the clock. Spawn it as an independent task:
//
//	s.Spawn("clock", sigsim.NewClock(clk, 20*time.Nanosecond).Run)
//
// Run never returns; the task unwinds when the simulation is disposed.
//
func (c *Clock) Run(p *Proc) error {
	for {
		p.Delay(c.half)
		c.sig.Toggle()
	}
}

// HoldReset drives sig to the active level, holds it for d of virtual time,
// then releases it. It blocks the calling task for the whole duration and
// is not reentrant on the same signal.
//
func HoldReset(p *Proc, sig *Signal, active bool, d time.Duration) {
	sig.Set(active)
	p.Delay(d)
	sig.Set(!active)
}
