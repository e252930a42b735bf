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

package coordinator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meshcore-sim/mcsim/firmware"
	"github.com/meshcore-sim/mcsim/linkmodel"
	"github.com/meshcore-sim/mcsim/prng"
	"github.com/meshcore-sim/mcsim/progctx"
	"github.com/meshcore-sim/mcsim/radiomodel"
	"github.com/meshcore-sim/mcsim/stats"
	"github.com/meshcore-sim/mcsim/types"
	"github.com/meshcore-sim/mcsim/worker"
)

func init() {
	prng.Init(1)
}

// recordingEntity transmits a fixed payload once at sendAt (if non-zero) and
// records every packet InjectRadio ever delivers to it, for scenario
// assertions that need to observe what firmware actually received.
type recordingEntity struct {
	mu       sync.Mutex
	sendAt   types.SimTime
	payload  []byte
	sent     bool
	received []types.LoraPacket
}

func (e *recordingEntity) Step(now types.SimTime) firmware.StepResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sent && e.sendAt != 0 {
		if now >= e.sendAt {
			e.sent = true
			return firmware.StepResult{Reason: firmware.YieldRadioTxStart, TxPayload: e.payload}
		}
		return firmware.StepResult{Reason: firmware.YieldIdle, WakeAt: e.sendAt}
	}
	return firmware.StepResult{Reason: firmware.YieldIdle, WakeAt: types.Ever}
}

func (e *recordingEntity) InjectRadio(now types.SimTime, pkt types.LoraPacket) firmware.StepResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.received = append(e.received, pkt)
	return firmware.StepResult{Reason: firmware.YieldIdle, WakeAt: types.Ever}
}

func (e *recordingEntity) InjectSerial(now types.SimTime, _ []byte) firmware.StepResult {
	return firmware.StepResult{Reason: firmware.YieldIdle, WakeAt: types.Ever}
}

func (e *recordingEntity) NotifyRadioState(now types.SimTime, _ types.RadioState) firmware.StepResult {
	return firmware.StepResult{Reason: firmware.YieldIdle, WakeAt: types.Ever}
}

func (e *recordingEntity) Reset(now types.SimTime) firmware.StepResult {
	return firmware.StepResult{Reason: firmware.YieldIdle, WakeAt: types.Ever}
}

func (e *recordingEntity) Received() []types.LoraPacket {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.LoraPacket, len(e.received))
	copy(out, e.received)
	return out
}

// floodingEntity relays the first packet it ever hears -- either its own
// scheduled send at sendAt, or the first thing it receives over the air --
// exactly once, matching a bare flood protocol's forwarding rule.
type floodingEntity struct {
	mu         sync.Mutex
	sendAt     types.SimTime
	payload    []byte
	sent       bool
	heard      bool
	firstHeard types.SimTime
}

func (e *floodingEntity) Step(now types.SimTime) firmware.StepResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sent && e.sendAt != 0 {
		if now >= e.sendAt {
			e.sent = true
			return firmware.StepResult{Reason: firmware.YieldRadioTxStart, TxPayload: e.payload}
		}
		return firmware.StepResult{Reason: firmware.YieldIdle, WakeAt: e.sendAt}
	}
	return firmware.StepResult{Reason: firmware.YieldIdle, WakeAt: types.Ever}
}

func (e *floodingEntity) InjectRadio(now types.SimTime, pkt types.LoraPacket) firmware.StepResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.heard {
		e.heard = true
		e.firstHeard = now
	}
	if !e.sent {
		e.sent = true
		return firmware.StepResult{Reason: firmware.YieldRadioTxStart, TxPayload: pkt.Bytes}
	}
	return firmware.StepResult{Reason: firmware.YieldIdle, WakeAt: types.Ever}
}

func (e *floodingEntity) InjectSerial(now types.SimTime, _ []byte) firmware.StepResult {
	return firmware.StepResult{Reason: firmware.YieldIdle, WakeAt: types.Ever}
}

func (e *floodingEntity) NotifyRadioState(now types.SimTime, _ types.RadioState) firmware.StepResult {
	return firmware.StepResult{Reason: firmware.YieldIdle, WakeAt: types.Ever}
}

func (e *floodingEntity) Reset(now types.SimTime) firmware.StepResult {
	return firmware.StepResult{Reason: firmware.YieldIdle, WakeAt: types.Ever}
}

func (e *floodingEntity) Heard() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.heard
}

func (e *floodingEntity) FirstHeard() types.SimTime {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.firstHeard
}

// scenarioNode is one node's full setup: its identity, the firmware it runs,
// and the radio parameters its worker's Radio is built with.
type scenarioNode struct {
	id     types.NodeId
	entity firmware.Entity
	params types.RadioParams
}

// scenarioRadioParams returns the SF7, single-channel radio parameters most
// scenario tests share. Turnaround is left at zero so a transmission's
// tx_turnaround/rx_turnaround collapse to the instant it was requested,
// which keeps timing in simple scenarios easy to reason about; scenarios
// that specifically exercise turnaround behavior build their own
// types.RadioParams instead.
func scenarioRadioParams() types.RadioParams {
	return types.RadioParams{Frequency: 1, SF: types.SF7, BandwidthHz: 125000, CodingRate: 1, PreambleSymbols: 8, TxPowerDbm: 14}
}

// setupScenario wires up one goroutine per node, a shared Router over a
// StaticLinkModel built from edges, and a Coordinator driving them to
// runDuration. It blocks until Run() returns.
func setupScenario(t *testing.T, nodes []scenarioNode, edges []linkmodel.EdgeConfig, linkParams linkmodel.Params, runDuration types.SimTime) *stats.Counters {
	t.Helper()
	link := linkmodel.NewStaticLinkModel(edges, linkParams)

	ids := make([]types.NodeId, len(nodes))
	for i, n := range nodes {
		ids[i] = n.id
	}
	router := NewRouter(link, ids)

	reportCh := make(chan worker.Report, 256)
	counters := stats.NewCounters()
	var handles []NodeHandle
	var wg sync.WaitGroup
	for _, n := range nodes {
		radio := radiomodel.NewRadio(n.id, n.params)
		w := worker.New(n.id, n.entity, radio, reportCh, nil, counters, stats.NewTracer(nil), nil)
		handles = append(handles, NewNodeHandle(n.id, w.Commands()))
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run()
		}()
	}

	c := New(handles, reportCh, router, runDuration, progctx.New(context.Background()))
	c.Run()
	wg.Wait()
	return counters
}

func TestScenario_TwoPeerDeliveryWithinRange(t *testing.T) {
	sender := &recordingEntity{sendAt: 10, payload: []byte("hello")}
	receiver := &recordingEntity{}
	nodes := []scenarioNode{
		{id: 1, entity: sender, params: scenarioRadioParams()},
		{id: 2, entity: receiver, params: scenarioRadioParams()},
	}
	edges := []linkmodel.EdgeConfig{{From: 1, To: 2, MeanSnrDb: 10}}
	setupScenario(t, nodes, edges, linkmodel.DefaultParams(), 100_000)

	got := receiver.Received()
	assert.Len(t, got, 1)
	assert.Equal(t, []byte("hello"), got[0].Bytes)
}

func TestScenario_OutOfRangeNeverDelivers(t *testing.T) {
	// no edge at all between sender and receiver: an unlisted pair is
	// unreachable regardless of transmit power or spreading factor.
	sender := &recordingEntity{sendAt: 10, payload: []byte("hello")}
	receiver := &recordingEntity{}
	nodes := []scenarioNode{
		{id: 1, entity: sender, params: scenarioRadioParams()},
		{id: 2, entity: receiver, params: scenarioRadioParams()},
	}
	setupScenario(t, nodes, nil, linkmodel.DefaultParams(), 1000)

	assert.Empty(t, receiver.Received())
}

func TestScenario_InRangeButBelowSensitivityNeverDelivers(t *testing.T) {
	// the edge's mean SNR sits above the link model's own reachability
	// floor (-21dB) but below SF11's -17.5dB demodulation threshold: the
	// link is "in range" yet the receiver can never decode it.
	senderParams := scenarioRadioParams()
	senderParams.SF = types.SF11
	sender := &recordingEntity{sendAt: 10, payload: []byte("hello")}
	receiver := &recordingEntity{}
	nodes := []scenarioNode{
		{id: 1, entity: sender, params: senderParams},
		{id: 2, entity: receiver, params: scenarioRadioParams()},
	}
	edges := []linkmodel.EdgeConfig{{From: 1, To: 2, MeanSnrDb: -20}}
	counters := setupScenario(t, nodes, edges, linkmodel.DefaultParams(), 1_000_000)

	assert.Empty(t, receiver.Received())
	assert.Equal(t, int64(1), counters.Snapshot().BelowSensitivity)
}

func TestScenario_MutualCollisionDropsBothPackets(t *testing.T) {
	a := &recordingEntity{sendAt: 10, payload: []byte("from-a")}
	b := &recordingEntity{sendAt: 10, payload: []byte("from-b")}
	c := &recordingEntity{}
	nodes := []scenarioNode{
		{id: 1, entity: a, params: scenarioRadioParams()},
		{id: 2, entity: b, params: scenarioRadioParams()},
		{id: 3, entity: c, params: scenarioRadioParams()},
	}
	edges := []linkmodel.EdgeConfig{
		{From: 1, To: 3, MeanSnrDb: 10},
		{From: 2, To: 3, MeanSnrDb: 10},
	}
	setupScenario(t, nodes, edges, linkmodel.DefaultParams(), 100_000)

	// both a and b transmit at the same time on the same channel; the
	// listener in the middle hears a collision on both and decodes neither.
	assert.Empty(t, c.Received())
}

func TestScenario_ReceiverBusyDropsIncomingTransmission(t *testing.T) {
	// b starts transmitting a long-enough packet at t=10 that it is still
	// genuinely Transmitting -- not Receiving, not mid rx_turnaround -- at
	// t=5100, when a's own transmission (started at t=5000) is routed and
	// delivered to it. The reception must be dropped silently: no
	// ActiveReception is ever created for it.
	params := scenarioRadioParams()
	params.TxTurnaroundUs = 100
	params.RxTurnaroundUs = 100

	a := &recordingEntity{sendAt: 5000, payload: []byte("from-a")}
	b := &recordingEntity{sendAt: 10, payload: []byte("from-b")}
	nodes := []scenarioNode{
		{id: 1, entity: a, params: params},
		{id: 2, entity: b, params: params},
	}
	edges := []linkmodel.EdgeConfig{{From: 1, To: 2, MeanSnrDb: 10}}
	counters := setupScenario(t, nodes, edges, linkmodel.DefaultParams(), 50_000)

	assert.Empty(t, b.Received())
	assert.Equal(t, int64(1), counters.Snapshot().PolledWhileTx)
}

func TestScenario_FloodPropagationReachesAllHops(t *testing.T) {
	// a 3x3 grid of repeaters (ids 1-9, row-major) plus four companion
	// nodes (10-13) each attached to one corner repeater (1, 3, 7, 9).
	// Node 10 sends once; every repeater and companion relays the first
	// thing it hears, exactly once. Every node gets its own channel so
	// that no two receptions -- always from different sources -- can ever
	// be judged a same-channel collision, which would otherwise make
	// propagation through the grid's cycles non-deterministic to reason
	// about by hand.
	const originator = types.NodeId(10)
	var entities = map[types.NodeId]*floodingEntity{}
	var nodes []scenarioNode
	nextChannel := types.ChannelId(1)
	addNode := func(id types.NodeId, sendAt types.SimTime) {
		e := &floodingEntity{sendAt: sendAt, payload: []byte("F")}
		entities[id] = e
		p := scenarioRadioParams()
		p.Frequency = nextChannel
		nextChannel++
		nodes = append(nodes, scenarioNode{id: id, entity: e, params: p})
	}
	for id := types.NodeId(1); id <= 9; id++ {
		addNode(id, 0)
	}
	addNode(originator, 10)
	addNode(11, 0)
	addNode(12, 0)
	addNode(13, 0)

	// grid adjacency, both directions:
	//   1 2 3
	//   4 5 6
	//   7 8 9
	gridAdjacent := [][2]types.NodeId{
		{1, 2}, {2, 3}, {4, 5}, {5, 6}, {7, 8}, {8, 9},
		{1, 4}, {4, 7}, {2, 5}, {5, 8}, {3, 6}, {6, 9},
	}
	var edges []linkmodel.EdgeConfig
	addEdge := func(from, to types.NodeId) {
		edges = append(edges,
			linkmodel.EdgeConfig{From: from, To: to, MeanSnrDb: 30},
			linkmodel.EdgeConfig{From: to, To: from, MeanSnrDb: 30},
		)
	}
	for _, pair := range gridAdjacent {
		addEdge(pair[0], pair[1])
	}
	addEdge(10, 1)
	addEdge(11, 3)
	addEdge(12, 7)
	addEdge(13, 9)

	setupScenario(t, nodes, edges, linkmodel.DefaultParams(), 500_000)

	heardCount := 0
	for id, e := range entities {
		if id == originator {
			continue
		}
		if e.Heard() {
			heardCount++
			assert.Greater(t, e.FirstHeard(), types.SimTime(10), "node %d heard before it was sent", id)
		}
	}
	assert.GreaterOrEqual(t, heardCount, 8, "flood should reach at least 8 of the other 12 nodes")
}

func TestScenario_DeterministicReplayProducesIdenticalDeliveries(t *testing.T) {
	run := func() []types.LoraPacket {
		sender := &recordingEntity{sendAt: 10, payload: []byte("replay")}
		receiver := &recordingEntity{}
		nodes := []scenarioNode{
			{id: 1, entity: sender, params: scenarioRadioParams()},
			{id: 2, entity: receiver, params: scenarioRadioParams()},
		}
		edges := []linkmodel.EdgeConfig{{From: 1, To: 2, MeanSnrDb: 10}}
		setupScenario(t, nodes, edges, linkmodel.DefaultParams(), 100_000)
		return receiver.Received()
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
}
