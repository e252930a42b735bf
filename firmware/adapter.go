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

package firmware

import (
	"github.com/meshcore-sim/mcsim/logger"
	"github.com/meshcore-sim/mcsim/types"
)

// pollingHazardThreshold is the number of consecutive firmware calls at an
// unchanged SimTime, each yielding Idle with WakeAt <= now, at which the
// adapter concludes firmware is stuck in a busy-loop that never yields
// control back to the simulation clock.
const pollingHazardThreshold = 3

// rxFifoCapacity bounds the number of undelivered inbound radio packets an
// Adapter will queue for a node whose firmware is behind; beyond this, the
// oldest pending packet is dropped to bound memory, which is recorded via
// Adapter.Stats().DroppedRxOverflow.
const rxFifoCapacity = 4

// AdapterStats tracks adapter-level conditions a caller may want to report
// in run statistics; none of these affect simulation correctness.
type AdapterStats struct {
	DroppedRxOverflow int
}

// Adapter wraps an Entity with the bookkeeping needed to use it safely from
// a node worker: detecting a firmware image that never yields (a polling
// hazard), and bounding the backlog of radio packets queued for delivery.
type Adapter struct {
	entity Entity

	consecutivePolls int
	lastPollTime     types.SimTime
	havePolled       bool

	rxQueue []types.LoraPacket
	stats   AdapterStats
}

// NewAdapter wraps entity for use by a single node's worker.
func NewAdapter(entity Entity) *Adapter {
	return &Adapter{entity: entity}
}

// Stats returns a snapshot of adapter-level counters.
func (a *Adapter) Stats() AdapterStats {
	return a.stats
}

// Step runs firmware forward, panicking if firmware repeatedly yields
// YieldIdle with WakeAt <= now, which would otherwise spin the worker
// forever without simulation time advancing.
func (a *Adapter) Step(now types.SimTime) StepResult {
	res := a.entity.Step(now)
	a.trackPollingHazard(now, res)
	return res
}

func (a *Adapter) trackPollingHazard(now types.SimTime, res StepResult) {
	if res.Reason != YieldIdle || res.WakeAt > now {
		a.consecutivePolls = 0
		a.havePolled = true
		a.lastPollTime = now
		return
	}
	if a.havePolled && now == a.lastPollTime {
		a.consecutivePolls++
	} else {
		a.consecutivePolls = 1
	}
	a.havePolled = true
	a.lastPollTime = now

	if a.consecutivePolls >= pollingHazardThreshold {
		logger.Panicf("firmware polling hazard: yielded Idle with WakeAt<=now %d consecutive times at t=%d",
			a.consecutivePolls, now)
	}
}

// EnqueueRadio queues pkt for delivery to firmware on the next Poll call,
// dropping the oldest queued packet if the queue is already at
// rxFifoCapacity. Packets are not delivered synchronously: a node worker may
// receive several ReceiveAirEvents at the same simulation time before it
// next gives firmware a chance to run.
func (a *Adapter) EnqueueRadio(pkt types.LoraPacket) {
	if len(a.rxQueue) >= rxFifoCapacity {
		a.rxQueue = a.rxQueue[1:]
		a.stats.DroppedRxOverflow++
	}
	a.rxQueue = append(a.rxQueue, pkt)
}

// Poll delivers the next queued radio packet to firmware if one is
// pending, otherwise steps firmware forward from now. A node worker calls
// Poll whenever it gives firmware a chance to run.
func (a *Adapter) Poll(now types.SimTime) StepResult {
	if len(a.rxQueue) > 0 {
		pkt := a.rxQueue[0]
		a.rxQueue = a.rxQueue[1:]
		res := a.entity.InjectRadio(now, pkt)
		a.trackPollingHazard(now, res)
		return res
	}
	return a.Step(now)
}

// HasPendingRx reports whether queued radio packets remain undelivered.
func (a *Adapter) HasPendingRx() bool {
	return len(a.rxQueue) > 0
}

// InjectSerial delivers externally-received bytes to firmware's serial endpoint.
func (a *Adapter) InjectSerial(now types.SimTime, data []byte) StepResult {
	res := a.entity.InjectSerial(now, data)
	a.trackPollingHazard(now, res)
	return res
}

// NotifyRadioState informs firmware of a radio state transition.
func (a *Adapter) NotifyRadioState(now types.SimTime, state types.RadioState) StepResult {
	res := a.entity.NotifyRadioState(now, state)
	a.trackPollingHazard(now, res)
	return res
}

// Reset restarts firmware and clears adapter-local bookkeeping.
func (a *Adapter) Reset(now types.SimTime) StepResult {
	a.rxQueue = nil
	a.consecutivePolls = 0
	a.havePolled = false
	return a.entity.Reset(now)
}
