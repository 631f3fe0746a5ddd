// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sigsim

import (
	"container/heap"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrDeadline is returned by Run when the virtual-time deadline set with
// SetDeadline passes before the main task has completed.
//
var ErrDeadline = errors.New("virtual deadline exceeded")

// A TaskFn is the body of a simulation task. It receives the Proc handle
// through which the task suspends itself; returning ends the task and wakes
// any tasks joined on it.
//
type TaskFn func(p *Proc) error

type event struct {
	at  time.Duration
	seq uint64
	p   *Proc
}

// eventQueue orders wakeups by virtual time, then by scheduling order.
// The strict (at, seq) order is what makes simulations deterministic:
// same-instant wakeups resume in the order they were scheduled.
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x interface{}) { *q = append(*q, x.(*event)) }
func (q *eventQueue) Pop() interface{} {
	old := *q
	n := len(old) - 1
	ev := old[n]
	old[n] = nil
	*q = old[:n]
	return ev
}

// Sim is a runnable simulation: a virtual clock, an event queue and a set of
// tasks multiplexed onto one logical thread of control. Tasks are Go
// routines, but exactly one is runnable at any instant; control is handed
// over explicitly at suspension points, never preemptively.
//
// Callers must make sure to call Dispose() once the simulation is no longer
// needed in order to release parked tasks.
//
type Sim struct {
	now      time.Duration
	deadline time.Duration
	queue    eventQueue
	seq      uint64

	park     chan struct{}
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// New returns an empty simulation at virtual time zero.
//
func New() *Sim {
	return &Sim{
		park:     make(chan struct{}),
		shutdown: make(chan struct{}),
	}
}

// Now returns the current virtual time.
//
func (s *Sim) Now() time.Duration { return s.now }

// SetDeadline sets the virtual time past which Run gives up and returns
// ErrDeadline. Components themselves suspend without limit (see vcap.Capturer);
// the deadline is the scenario-level policy that turns a stalled wait into
// a reported failure. A zero deadline means no limit.
//
func (s *Sim) SetDeadline(d time.Duration) { s.deadline = d }

func (s *Sim) schedule(at time.Duration, p *Proc) {
	s.seq++
	heap.Push(&s.queue, &event{at: at, seq: s.seq, p: p})
}

// Spawn starts fn as a new task, runnable at the current virtual time. The
// name only appears in diagnostics. Spawn may be called before Run or from
// within a running task.
//
func (s *Sim) Spawn(name string, fn TaskFn) *Task {
	p := &Proc{sim: s, name: name, resume: make(chan struct{})}
	t := &Task{p: p}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-p.resume:
		case <-s.shutdown:
			return
		}
		t.err = fn(p)
		t.done = true
		for _, w := range t.joiners {
			s.schedule(s.now, w)
		}
		t.joiners = nil
		s.park <- struct{}{}
	}()
	s.schedule(s.now, p)
	return t
}

// dispatch hands control to p and blocks until p suspends or ends.
func (s *Sim) dispatch(p *Proc) {
	p.resume <- struct{}{}
	<-s.park
}

// Run spawns fn as the main task and processes events until it completes,
// returning its error. An empty event queue with the main task still pending
// means every task is suspended on a condition that can no longer occur;
// Run reports this rather than hanging.
//
func (s *Sim) Run(fn TaskFn) error {
	main := s.Spawn("main", fn)
	for !main.done {
		if len(s.queue) == 0 {
			return errors.New("sigsim: no runnable task")
		}
		ev := heap.Pop(&s.queue).(*event)
		if s.deadline > 0 && ev.at > s.deadline {
			return ErrDeadline
		}
		s.now = ev.at
		s.dispatch(ev.p)
	}
	return main.err
}

// Dispose releases all parked tasks and waits for their goroutines to
// unwind. The simulation must not be run again afterwards.
//
func (s *Sim) Dispose() {
	close(s.shutdown)
	s.wg.Wait()
}

// A Task is a handle on a spawned task, used to join on its completion.
//
type Task struct {
	p       *Proc
	err     error
	done    bool
	joiners []*Proc
}

// Done reports whether the task has completed.
//
func (t *Task) Done() bool { return t.done }

// Join suspends the calling task until t completes and returns t's error.
// The result of a capture or transfer owned by t must only be read after
// Join returns.
//
func (t *Task) Join(p *Proc) error {
	if !t.done {
		t.joiners = append(t.joiners, p)
		p.yield()
	}
	return t.err
}

// A Proc is the suspension handle of a running task. All methods must be
// called from that task only.
//
type Proc struct {
	sim    *Sim
	name   string
	resume chan struct{}
}

// Sim returns the simulation the task runs in.
//
func (p *Proc) Sim() *Sim { return p.sim }

// Now returns the current virtual time.
//
func (p *Proc) Now() time.Duration { return p.sim.now }

// yield hands control back to the scheduler and blocks until rescheduled.
// On shutdown the goroutine unwinds through its deferred calls.
func (p *Proc) yield() {
	s := p.sim
	s.park <- struct{}{}
	select {
	case <-p.resume:
	case <-s.shutdown:
		runtime.Goexit()
	}
}

// Delay suspends the task for d of virtual time.
//
func (p *Proc) Delay(d time.Duration) {
	p.sim.schedule(p.sim.now+d, p)
	p.yield()
}

// WaitRising suspends the task until the next low to high transition of sig.
//
func (p *Proc) WaitRising(sig *Signal) {
	sig.rising = append(sig.rising, p)
	p.yield()
}

// WaitFalling suspends the task until the next high to low transition of sig.
//
func (p *Proc) WaitFalling(sig *Signal) {
	sig.falling = append(sig.falling, p)
	p.yield()
}

// WaitEdge suspends the task until sig transitions to the given level,
// even if sig is already at that level.
//
func (p *Proc) WaitEdge(sig *Signal, level bool) {
	if level {
		p.WaitRising(sig)
	} else {
		p.WaitFalling(sig)
	}
}

// ClockCycles suspends the task for n rising edges of sig.
//
func (p *Proc) ClockCycles(sig *Signal, n int) {
	for i := 0; i < n; i++ {
		p.WaitRising(sig)
	}
}
