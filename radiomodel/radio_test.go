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

package radiomodel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meshcore-sim/mcsim/types"
)

func testParams() types.RadioParams {
	return types.RadioParams{Frequency: 1, SF: types.SF7, BandwidthHz: 125000, CodingRate: 1, PreambleSymbols: 8, TxPowerDbm: 14}
}

func TestRadio_RequestTransmitRequiresReceiving(t *testing.T) {
	r := NewRadio(1, testParams())
	assert.Panics(t, func() {
		r.RequestTransmit(0, []byte("hi"))
	})
}

func TestRadio_RequestTransmitStaysReceivingUntilTurnaroundCompletes(t *testing.T) {
	r := NewRadio(1, testParams())
	r.BeginReceiving()
	v0 := r.StateVersion()

	turnEnd := r.RequestTransmit(100, []byte("hello"))

	assert.Equal(t, types.RadioStateReceiving, r.State(), "tx_turnaround must not be visible as a state change")
	assert.False(t, r.CanReceive(), "radio must not accept a reception while mid tx_turnaround")
	assert.Equal(t, types.SimTime(100), turnEnd) // testParams() leaves TxTurnaroundUs at zero

	ev, end := r.CompleteTxTurnaround(turnEnd)

	assert.Equal(t, types.RadioStateTransmitting, r.State())
	assert.Greater(t, r.StateVersion(), v0)
	assert.Equal(t, types.NodeId(1), ev.Source)
	assert.Greater(t, uint64(end), uint64(100))
}

func TestRadio_TurnaroundDelaysVisibleTransmitStart(t *testing.T) {
	params := testParams()
	params.TxTurnaroundUs = 50
	r := NewRadio(1, params)
	r.BeginReceiving()

	turnEnd := r.RequestTransmit(100, []byte("hello"))
	assert.Equal(t, types.SimTime(150), turnEnd)
	assert.Equal(t, types.RadioStateReceiving, r.State())

	ev, _ := r.CompleteTxTurnaround(turnEnd)
	assert.Equal(t, types.RadioStateTransmitting, r.State())
	assert.Equal(t, types.SimTime(150), ev.StartTime)
}

func TestRadio_RxTurnaroundReturnsToReceiving(t *testing.T) {
	r := NewRadio(1, testParams())
	r.BeginReceiving()
	turnEnd := r.RequestTransmit(0, []byte("x"))
	r.CompleteTxTurnaround(turnEnd)
	assert.Equal(t, types.RadioStateTransmitting, r.State())

	rxTurnEnd := r.BeginRxTurnaround(1000)
	assert.Equal(t, types.SimTime(1000), rxTurnEnd) // testParams() leaves RxTurnaroundUs at zero
	assert.Equal(t, types.RadioStateTransmitting, r.State(), "must stay visibly Transmitting during rx_turnaround")
	assert.False(t, r.CanReceive())

	r.CompleteRxTurnaround()
	assert.Equal(t, types.RadioStateReceiving, r.State())
	assert.True(t, r.CanReceive())
}

func TestRadio_NonOverlappingReceptionsDoNotCollide(t *testing.T) {
	r := NewRadio(3, testParams())
	r.BeginReceiving()

	collided := r.BeginReceive(types.ReceiveAirEvent{
		Dest: 3, From: 1, StartTime: 0, EndTime: 100,
		Packet: types.LoraPacket{Channel: 1, SF: types.SF7},
		Link:   types.Link{SnrDb: 0, Reachable: true},
	})
	assert.Empty(t, collided)

	res, ok := r.EndReceive(1)
	assert.True(t, ok)
	assert.False(t, res.Collided)
}

func TestRadio_OverlappingSameChannelReceptionsCollide(t *testing.T) {
	r := NewRadio(3, testParams())
	r.BeginReceiving()

	r.BeginReceive(types.ReceiveAirEvent{
		Dest: 3, From: 1, StartTime: 0, EndTime: 100,
		Packet: types.LoraPacket{Channel: 1, SF: types.SF7},
		Link:   types.Link{SnrDb: 0, Reachable: true},
	})
	collided := r.BeginReceive(types.ReceiveAirEvent{
		Dest: 3, From: 2, StartTime: 50, EndTime: 150,
		Packet: types.LoraPacket{Channel: 1, SF: types.SF7},
		Link:   types.Link{SnrDb: 0, Reachable: true},
	})

	assert.ElementsMatch(t, []types.NodeId{1, 2}, collided)

	res1, _ := r.EndReceive(1)
	res2, _ := r.EndReceive(2)
	assert.True(t, res1.Collided)
	assert.True(t, res2.Collided)
	assert.False(t, res1.Succeeded())
	assert.False(t, res2.Succeeded())
}

func TestRadio_DifferentChannelsNeverCollide(t *testing.T) {
	r := NewRadio(3, testParams())
	r.BeginReceiving()

	r.BeginReceive(types.ReceiveAirEvent{
		Dest: 3, From: 1, StartTime: 0, EndTime: 100,
		Packet: types.LoraPacket{Channel: 1, SF: types.SF7},
		Link:   types.Link{SnrDb: 0, Reachable: true},
	})
	collided := r.BeginReceive(types.ReceiveAirEvent{
		Dest: 3, From: 2, StartTime: 50, EndTime: 150,
		Packet: types.LoraPacket{Channel: 2, SF: types.SF7},
		Link:   types.Link{SnrDb: 0, Reachable: true},
	})
	assert.Empty(t, collided)
}

func TestRadio_BelowSensitivityFailsEvenWithoutCollision(t *testing.T) {
	r := NewRadio(3, testParams())
	r.BeginReceiving()

	r.BeginReceive(types.ReceiveAirEvent{
		Dest: 3, From: 1, StartTime: 0, EndTime: 100,
		Packet: types.LoraPacket{Channel: 1, SF: types.SF7},
		Link:   types.Link{SnrDb: -50, Reachable: true},
	})
	res, ok := r.EndReceive(1)
	assert.True(t, ok)
	assert.False(t, res.Collided)
	assert.True(t, res.BelowSens)
	assert.False(t, res.Succeeded())
}

func TestRadio_EndReceiveUnknownSourceReturnsFalse(t *testing.T) {
	r := NewRadio(3, testParams())
	_, ok := r.EndReceive(99)
	assert.False(t, ok)
}
