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

// Package agent defines the interface a higher-level routing or application
// agent implements to sit on top of one node's firmware, e.g. to drive
// application-layer message generation or react to delivered payloads. It is
// modeled as another node-local entity: the simulator core never depends on
// a concrete Agent, only on this interface, matching how firmware itself is
// only ever reached through firmware.Entity.
package agent

import "github.com/meshcore-sim/mcsim/types"

// Agent observes a node's inbound application-layer traffic and may produce
// outbound payloads for its firmware to transmit. Implementations are
// external collaborators: the simulator core ships only this interface and
// the NoOp default. worker.Worker holds no Agent and never calls these
// methods.
type Agent interface {
	// OnDeliver takes one payload the node decoded after radio-layer
	// collision/sensitivity checks passed.
	OnDeliver(now types.SimTime, from types.NodeId, payload []byte)

	// Poll returns an outbound payload the agent wants sent at now; a nil
	// payload means nothing to send.
	Poll(now types.SimTime) []byte
}

// NoOp is the default Agent: it never generates traffic and ignores every
// delivery, matching the behavior of a node with no application logic
// attached.
type NoOp struct{}

// OnDeliver implements Agent.
func (NoOp) OnDeliver(types.SimTime, types.NodeId, []byte) {}

// Poll implements Agent.
func (NoOp) Poll(types.SimTime) []byte { return nil }
