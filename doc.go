// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package sigsim provides a virtual-time, signal-level simulation kernel for
verifying digital designs at their pin boundary.

The kernel schedules cooperating tasks over shared signals: tasks run one at
a time and suspend only at explicit points (a signal edge, an elapsed virtual
duration, a number of clock cycles, or the completion of a child task). A
priority queue of (time, sequence) pairs resumes them in deterministic order,
so a scenario replays identically from run to run.

Protocol-level building blocks live in the subpackages: vcap reconstructs
raster frames from sync and colour signals, spim drives an SPI bus, golden
scales and compares reference images, shader loads instruction programs and
vdev provides a behavioural device model to run scenarios against.
*/
package sigsim
