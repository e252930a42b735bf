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

package types

// LocalEventType identifies what kind of thing a LocalEvent carries. A
// worker's local queue only ever holds events local to its own node: a
// firmware timer firing, the end of a reception or a transmission, or the
// end of a radio turnaround.
type LocalEventType uint8

const (
	LocalEventFirmwareTimer LocalEventType = iota
	LocalEventReceiveEnd
	LocalEventFailTime
	LocalEventTransmitEnd
	// LocalEventTxTurnaroundEnd fires when the radio's rx->tx turnaround
	// completes: the radio becomes visibly Transmitting at this point.
	LocalEventTxTurnaroundEnd
	// LocalEventRxTurnaroundEnd fires when the radio's tx->rx turnaround
	// completes: the radio becomes visibly Receiving at this point.
	LocalEventRxTurnaroundEnd
)

// LocalEvent is one entry in a node worker's local event queue, ordered by
// (Time, Seq). Seq breaks ties in FIFO order of insertion so that two events
// scheduled for the same microsecond replay deterministically.
type LocalEvent struct {
	Time    SimTime
	Seq     uint64
	Type    LocalEventType
	Payload interface{}
}

// GlobalEventType identifies what kind of thing a GlobalEvent carries (radio
// transmissions and their routed deliveries, which cross node boundaries and
// therefore cannot live in any one worker's local queue). The coordinator
// keeps no queue of GlobalEvents: it routes each transmission between ticks.
type GlobalEventType uint8

const (
	GlobalEventTransmitAir GlobalEventType = iota
	GlobalEventReceiveAir
)

// TransmitAirEvent is raised by a node worker when its firmware starts a
// radio transmission. The coordinator routes it through the link model into
// zero or more ReceiveAirEvents for other nodes.
type TransmitAirEvent struct {
	Source    NodeId
	Packet    LoraPacket
	StartTime SimTime
	EndTime   SimTime
}

// ReceiveAirEvent is delivered by the coordinator to a destination node's
// worker, describing one incoming transmission it can attempt to receive.
type ReceiveAirEvent struct {
	Dest      NodeId
	From      NodeId
	Packet    LoraPacket
	StartTime SimTime
	EndTime   SimTime
	Link      Link
}

// GlobalEvent is a cross-node event keyed by (Time, Seq) the same way a
// LocalEvent is. No package in this module creates or queues one.
type GlobalEvent struct {
	Time    SimTime
	Seq     uint64
	Type    GlobalEventType
	Payload interface{}
}
