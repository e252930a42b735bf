// Copyright (c) 2023-2024, The OTNS Authors.
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

// Package types holds the shared value types passed between the coordinator,
// the per-node workers, the link model and the firmware adapter. None of
// these types carry behavior tied to a single package; they are the wire
// format of the simulation itself.
package types

import (
	"fmt"
	"math"
)

// NodeId uniquely identifies a node for the lifetime of a run. Node IDs are
// taken from each node's id field in the scenario config.
type NodeId int

// ChannelId identifies a LoRa radio channel (frequency slot). Two
// transmissions only collide if they share a ChannelId.
type ChannelId int

// SimTime is a simulation timestamp in microseconds since the start of the
// run. SimTime is always non-negative and monotonically non-decreasing
// across a given node's event stream.
type SimTime uint64

// Ever is the wake time used for "no scheduled wake-up", i.e. a node that
// is not waiting on any timer and is only waiting on external input. It is
// math.MaxUint64/2, not the full range of SimTime: far enough in the future
// to sort last against any real wake time, but with headroom left so that
// arithmetic against it (e.g. adding a turnaround or airtime delta) can
// never wrap around and compare as "soonest".
const Ever = SimTime(math.MaxUint64 / 2)

// RadioState is the visible state of a node's radio, as tracked by the
// radio model. Firmware observes and drives this state only indirectly via
// the firmware entity interface.
type RadioState uint8

const (
	RadioStateSleeping RadioState = iota
	RadioStateReceiving
	RadioStateTransmitting
)

func (s RadioState) String() string {
	switch s {
	case RadioStateSleeping:
		return "sleeping"
	case RadioStateReceiving:
		return "receiving"
	case RadioStateTransmitting:
		return "transmitting"
	default:
		return fmt.Sprintf("RadioState(%d)", s)
	}
}

// NodeConfig describes one simulated node as read from the scenario config.
type NodeConfig struct {
	ID          NodeId
	X, Y        float64
	RadioParams RadioParams
	NodeLogFile bool
}

// GetNodeName returns the display name used in logs for a node.
func GetNodeName(id NodeId) string {
	return fmt.Sprintf("node<%d> ", id)
}
