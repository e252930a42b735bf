// Copyright (c) 2023, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package stats collects run-wide counters for conditions the coordinator
// and node workers count rather than treat as fatal errors (kind 3-4 in the
// error handling design), and a tracer that gates verbose per-event logging
// behind a set of tracefilter.TraceSelectors.
package stats

import (
	"go.uber.org/atomic"

	"github.com/meshcore-sim/mcsim/logger"
	"github.com/meshcore-sim/mcsim/tracefilter"
	"github.com/meshcore-sim/mcsim/types"
)

// Counters tallies non-fatal drop conditions observed across a run. All
// fields are safe for concurrent use from every node worker's goroutine.
type Counters struct {
	DroppedRxOverflow  atomic.Int64
	Collisions         atomic.Int64
	BelowSensitivity   atomic.Int64
	PolledWhileTx      atomic.Int64
}

// NewCounters returns a zeroed Counters.
func NewCounters() *Counters {
	return &Counters{}
}

// Snapshot is a point-in-time copy of Counters, safe to print or serialize.
type Snapshot struct {
	DroppedRxOverflow int64
	Collisions        int64
	BelowSensitivity  int64
	PolledWhileTx     int64
}

// Snapshot copies the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		DroppedRxOverflow: c.DroppedRxOverflow.Load(),
		Collisions:        c.Collisions.Load(),
		BelowSensitivity:  c.BelowSensitivity.Load(),
		PolledWhileTx:     c.PolledWhileTx.Load(),
	}
}

// Tracer logs one line per matched (time, node, category) event, filtered by
// a set of selectors compiled from the --trace flag. A nil or empty selector
// set disables tracing entirely; a Tracer with no selectors set never touches
// the logger, keeping a normal run's log output unchanged.
type Tracer struct {
	selectors []tracefilter.TraceSelector
}

// NewTracer builds a Tracer from parsed --trace selectors.
func NewTracer(selectors []tracefilter.TraceSelector) *Tracer {
	return &Tracer{selectors: selectors}
}

// Trace logs (time, node, category, detail) if any selector matches.
func (tr *Tracer) Trace(now types.SimTime, node types.NodeId, category, detail string) {
	if !tracefilter.MatchesAny(tr.selectors, category, node) {
		return
	}
	logger.Tracef("t=%d node=%d %s: %s", now, node, category, detail)
}
