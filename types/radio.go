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

// SpreadingFactor is a LoRa spreading factor, SF7 through SF12.
type SpreadingFactor uint8

const (
	SF7 SpreadingFactor = iota + 7
	SF8
	SF9
	SF10
	SF11
	SF12
)

// RadioParams are the LoRa PHY parameters that determine airtime and
// sensitivity for a node's radio. These are static for the lifetime of a
// node; the link model and radio model both read them but never mutate them.
//
// TxTurnaroundUs and RxTurnaroundUs are the internal switchover delays a real
// LoRa transceiver needs between receiving and transmitting and back. They
// are invisible to firmware: only the completion of a turnaround advances
// the radio's visible state. A zero value means an instantaneous switchover,
// which callers that build RadioParams for production scenarios should
// avoid; config.RadioParams applies the ~100us default documented in the
// scenario schema when a node's config leaves these at zero.
type RadioParams struct {
	Frequency      ChannelId
	SF             SpreadingFactor
	BandwidthHz    uint32
	CodingRate     uint8 // denominator offset, e.g. 1 for 4/5
	PreambleSymbols uint32
	TxPowerDbm      float64
	NoiseFloorDbm   float64
	TxTurnaroundUs  SimTime
	RxTurnaroundUs  SimTime
}

// PacketId uniquely identifies one in-flight LoRa packet transmission,
// assigned by the source node's radio model when the transmission starts.
type PacketId uint64

// LoraPacket is the payload carried by one LoRa radio transmission.
type LoraPacket struct {
	ID      PacketId
	Source  NodeId
	Channel ChannelId
	SF      SpreadingFactor
	Bytes   []byte
}

// Link describes the estimated radio path between two nodes at the moment
// it is queried. A Link with Reachable == false means the destination
// cannot currently receive any transmission from the source, regardless of
// power or spreading factor.
type Link struct {
	SnrDb     float64
	RssiDbm   float64
	Reachable bool
}

// TransmitRecord tracks one transmission in progress on a node's radio,
// from RadioTxStart through the end of its airtime.
type TransmitRecord struct {
	Packet    LoraPacket
	StartTime SimTime
	EndTime   SimTime
}

// ActiveReception tracks one packet a receiving node's radio is currently
// attempting to demodulate. Multiple ActiveReceptions on the same channel at
// overlapping times is what the radio model's collision detection reduces
// over.
type ActiveReception struct {
	Packet    LoraPacket
	FromNode  NodeId
	StartTime SimTime
	EndTime   SimTime
	SnrDb     float64
	RssiDbm   float64
	Collided  bool
}
