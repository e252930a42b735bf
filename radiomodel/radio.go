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

// Package radiomodel implements the per-node radio state machine: how a
// node's radio reacts to a request to transmit, to an incoming
// ReceiveAirEvent, and to the end of an active reception, including
// same-channel collision detection between overlapping receptions.
package radiomodel

import (
	"github.com/meshcore-sim/mcsim/logger"
	"github.com/meshcore-sim/mcsim/types"
)

// Radio is the physical-layer state of a single node's radio. It is owned
// exclusively by that node's worker goroutine; nothing outside the worker
// ever touches it concurrently.
type Radio struct {
	nodeID NodeID
	params types.RadioParams

	state types.RadioState

	// stateVersion increments on every state transition, letting callers
	// detect whether the radio changed state across a yield into firmware.
	stateVersion uint64

	// turnaround is true while the radio is mid tx_turnaround or
	// rx_turnaround. Neither phase is visible in state: firmware only sees
	// state change when a turnaround completes. Both phases make the radio
	// unable to receive, which is why receive_air consults CanReceive
	// instead of State alone.
	turnaround bool

	// pendingTx holds the payload handed to RequestTransmit until its
	// tx_turnaround completes and CompleteTxTurnaround actually sends it.
	pendingTx []byte

	tx *types.TransmitRecord

	// active holds, per source NodeId, the reception currently in progress
	// from that source. A node can track multiple concurrent receptions on
	// its channel, which is how overlap is detected as a collision.
	active map[types.NodeId]*types.ActiveReception

	nextPacketID types.PacketId
}

// NodeID is an alias kept local to this package to avoid importing the
// whole types package with a dot-import, matching the style used elsewhere
// in this codebase for small, frequently used aliases.
type NodeID = types.NodeId

// NewRadio creates a Radio for the given node with fixed PHY parameters.
func NewRadio(id NodeID, params types.RadioParams) *Radio {
	return &Radio{
		nodeID: id,
		params: params,
		state:  types.RadioStateSleeping,
		active: make(map[types.NodeId]*types.ActiveReception),
	}
}

// State returns the radio's current visible state.
func (r *Radio) State() types.RadioState {
	return r.state
}

// StateVersion returns the monotonically increasing counter bumped on every
// state transition.
func (r *Radio) StateVersion() uint64 {
	return r.stateVersion
}

func (r *Radio) setState(s types.RadioState) {
	if r.state == s {
		return
	}
	r.state = s
	r.stateVersion++
}

// BeginReceiving transitions the radio into the Receiving state, the only
// state in which a subsequent RequestTransmit is legal.
func (r *Radio) BeginReceiving() {
	r.setState(types.RadioStateReceiving)
}

// CanReceive reports whether the radio can currently begin a new reception:
// only while visibly Receiving and not mid-turnaround. A radio that is
// Transmitting, in tx_turnaround, or in rx_turnaround cannot receive.
func (r *Radio) CanReceive() bool {
	return r.state == types.RadioStateReceiving && !r.turnaround
}

// RequestTransmit begins the rx->tx turnaround for a transmission of
// payload requested at now. It returns the SimTime at which the turnaround
// completes; the caller (the node worker) schedules a local event for that
// time and calls CompleteTxTurnaround when it fires. The radio's visible
// state does not change until then.
//
// Calling RequestTransmit while the radio cannot receive (Transmitting, or
// already mid tx_turnaround/rx_turnaround) is a firmware protocol violation:
// firmware is only ever given a chance to request a transmission after the
// radio told it the channel was clear via a receive window, so an
// overlapping request means firmware ignored the radio's state. That is
// fatal, not a condition to recover from silently.
func (r *Radio) RequestTransmit(now types.SimTime, payload []byte) types.SimTime {
	if !r.CanReceive() {
		logger.Panicf("node %d: request_tx while radio state is %v (turnaround=%v), not Receiving", r.nodeID, r.state, r.turnaround)
	}

	r.turnaround = true
	r.pendingTx = payload
	return now + r.params.TxTurnaroundUs
}

// CompleteTxTurnaround finishes the tx_turnaround scheduled by
// RequestTransmit: the radio becomes visibly Transmitting, and the
// TransmitAirEvent the caller must hand to the coordinator is produced with
// its airtime measured from this moment, not from the original request. It
// returns the event and the SimTime the transmission ends.
func (r *Radio) CompleteTxTurnaround(now types.SimTime) (types.TransmitAirEvent, types.SimTime) {
	payload := r.pendingTx
	r.pendingTx = nil
	r.turnaround = false

	r.nextPacketID++
	pkt := types.LoraPacket{
		ID:      r.nextPacketID,
		Source:  r.nodeID,
		Channel: r.params.Frequency,
		SF:      r.params.SF,
		Bytes:   payload,
	}
	airtime := TimeOnAir(len(payload), r.params)
	end := now + airtime

	r.tx = &types.TransmitRecord{Packet: pkt, StartTime: now, EndTime: end}
	r.setState(types.RadioStateTransmitting)

	return types.TransmitAirEvent{
		Source:    r.nodeID,
		Packet:    pkt,
		StartTime: now,
		EndTime:   end,
	}, end
}

// BeginRxTurnaround starts the tx->rx turnaround once a transmission's
// airtime has fully elapsed. It returns the SimTime the turnaround
// completes; the caller schedules a local event for that time and calls
// CompleteRxTurnaround when it fires. The radio's visible state remains
// Transmitting throughout the turnaround, matching the design that only
// turnaround completion ever advances visible state.
func (r *Radio) BeginRxTurnaround(now types.SimTime) types.SimTime {
	r.tx = nil
	r.turnaround = true
	return now + r.params.RxTurnaroundUs
}

// CompleteRxTurnaround finishes the rx_turnaround begun by
// BeginRxTurnaround: the radio becomes visibly Receiving again.
func (r *Radio) CompleteRxTurnaround() {
	r.turnaround = false
	r.setState(types.RadioStateReceiving)
}

// BeginReceive registers an incoming transmission as an active reception,
// recomputing collisions against anything else in flight on the same
// channel. It returns the set of source NodeIds whose receptions are
// newly marked collided as a result (including ev's own source, if it
// collides with something already active). Callers must check CanReceive
// before calling BeginReceive: a radio that is Transmitting or mid-turnaround
// cannot receive, and receive_air is dropped silently at that point rather
// than reaching here.
func (r *Radio) BeginReceive(ev types.ReceiveAirEvent) []types.NodeId {
	rec := &types.ActiveReception{
		Packet:    ev.Packet,
		FromNode:  ev.From,
		StartTime: ev.StartTime,
		EndTime:   ev.EndTime,
		SnrDb:     ev.Link.SnrDb,
		RssiDbm:   ev.Link.RssiDbm,
	}
	r.active[ev.From] = rec

	var collided []types.NodeId
	for from, other := range r.active {
		if from == ev.From {
			continue
		}
		if other.Packet.Channel != rec.Packet.Channel {
			continue
		}
		if overlaps(other.StartTime, other.EndTime, rec.StartTime, rec.EndTime) {
			if !other.Collided {
				other.Collided = true
				collided = append(collided, from)
			}
			if !rec.Collided {
				rec.Collided = true
				collided = append(collided, ev.From)
			}
		}
	}
	return collided
}

func overlaps(aStart, aEnd, bStart, bEnd types.SimTime) bool {
	return aStart < bEnd && bStart < aEnd
}

// ReceiveResult describes the outcome of one reception reaching its end time.
type ReceiveResult struct {
	Packet    types.LoraPacket
	From      types.NodeId
	SnrDb     float64
	RssiDbm   float64
	Collided  bool
	BelowSens bool
}

// EndReceive finalizes the active reception from the given source, removing
// it from the radio's bookkeeping and reporting whether it decoded
// successfully. A reception fails if it collided with another overlapping
// reception on the same channel, or if its SNR never reached the
// sensitivity threshold for the packet's own spreading factor.
func (r *Radio) EndReceive(from types.NodeId) (ReceiveResult, bool) {
	rec, ok := r.active[from]
	if !ok {
		return ReceiveResult{}, false
	}
	delete(r.active, from)

	threshold := SensitivityThresholdDb(rec.Packet.SF)
	result := ReceiveResult{
		Packet:    rec.Packet,
		From:      from,
		SnrDb:     rec.SnrDb,
		RssiDbm:   rec.RssiDbm,
		Collided:  rec.Collided,
		BelowSens: rec.SnrDb < threshold,
	}
	return result, true
}

// Succeeded reports whether a ReceiveResult represents a successfully
// decoded packet.
func (res ReceiveResult) Succeeded() bool {
	return !res.Collided && !res.BelowSens
}
