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
	"container/heap"
	"sort"

	"github.com/meshcore-sim/mcsim/logger"
	"github.com/meshcore-sim/mcsim/progctx"
	"github.com/meshcore-sim/mcsim/types"
	"github.com/meshcore-sim/mcsim/worker"
)

// wakeEvent is one entry in the coordinator's wake-time index: one per
// node, always present, updated in place as TimeReached reports arrive.
type wakeEvent struct {
	nodeID types.NodeId
	time   types.SimTime
	index  int
}

type wakeQueue []*wakeEvent

func (q wakeQueue) Len() int            { return len(q) }
func (q wakeQueue) Less(i, j int) bool  { return q[i].time < q[j].time }
func (q wakeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}
func (q *wakeQueue) Push(x interface{}) {
	e := x.(*wakeEvent)
	e.index = len(*q)
	*q = append(*q, e)
}
func (q *wakeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}

// wakeIndex tracks each node's next wake time in a min-heap, so the
// coordinator can find the earliest one without scanning every node.
type wakeIndex struct {
	q       wakeQueue
	byNode  map[types.NodeId]*wakeEvent
}

func newWakeIndex(nodeIDs []types.NodeId) *wakeIndex {
	wi := &wakeIndex{q: wakeQueue{}, byNode: make(map[types.NodeId]*wakeEvent, len(nodeIDs))}
	heap.Init(&wi.q)
	for _, id := range nodeIDs {
		e := &wakeEvent{nodeID: id, time: types.Ever}
		heap.Push(&wi.q, e)
		wi.byNode[id] = e
	}
	return wi
}

func (wi *wakeIndex) set(id types.NodeId, t types.SimTime) {
	e := wi.byNode[id]
	if e == nil {
		logger.Panicf("coordinator: wake time set for unknown node %d", id)
	}
	if e.time != t {
		e.time = t
		heap.Fix(&wi.q, e.index)
	}
}

func (wi *wakeIndex) next() types.SimTime {
	if len(wi.q) == 0 {
		return types.Ever
	}
	return wi.q[0].time
}

// NodeHandle is what the coordinator holds for one node worker: its command
// channel, used both for dispatch and for routing.
type NodeHandle struct {
	id  types.NodeId
	cmd chan<- worker.Command
}

// Coordinator owns the global tick loop: it dispatches AdvanceTime to every
// node worker in parallel, collects their reports, routes any transmissions
// through the Router, and advances global simulation time in lockstep.
type Coordinator struct {
	nodes    []NodeHandle
	reportCh <-chan worker.Report
	router   *Router
	wakes    *wakeIndex
	ctx      *progctx.ProgCtx

	currentTime types.SimTime
	runDuration types.SimTime
}

// New creates a Coordinator. reportCh must be the same channel every node
// worker in nodes was constructed with. ctx is cancelled the first time any
// node's firmware reports a fatal error, which ends the run early; pass
// progctx.New(context.Background()) when no outer program context exists.
func New(nodes []NodeHandle, reportCh <-chan worker.Report, router *Router, runDuration types.SimTime, ctx *progctx.ProgCtx) *Coordinator {
	ids := make([]types.NodeId, len(nodes))
	for i, n := range nodes {
		ids[i] = n.id
	}
	return &Coordinator{
		nodes:       nodes,
		reportCh:    reportCh,
		router:      router,
		wakes:       newWakeIndex(ids),
		ctx:         ctx,
		runDuration: runDuration,
	}
}

// NewNodeHandle constructs the coordinator-facing handle for one worker.
func NewNodeHandle(id types.NodeId, cmd chan<- worker.Command) NodeHandle {
	return NodeHandle{id: id, cmd: cmd}
}

// Run drives the simulation to completion, returning once time has reached
// runDuration or the run's context has been cancelled. When no node has a
// pending wake time, the next tick jumps straight to runDuration.
func (c *Coordinator) Run() {
	// Seed the wake index with every node's initial next-wake-time before
	// picking a real tick target: each worker already queued its first
	// timer when its goroutine started, but the coordinator has no way to
	// know it until a node reports one, so the first tick must not jump
	// straight to runDuration for lack of a better target.
	c.advanceTo(c.currentTime)

	for c.currentTime < c.runDuration && c.ctx.Err() == nil {
		next := c.wakes.next()
		if next > c.runDuration || next == types.Ever {
			next = c.runDuration
		}
		if next <= c.currentTime {
			break
		}
		c.advanceTo(next)
	}
	c.shutdown()
}

// advanceTo sends AdvanceTime to every node, collects reports until every
// node has reported TimeReached, routing any transmissions observed along
// the way, then delivers the resulting receptions before returning.
func (c *Coordinator) advanceTo(target types.SimTime) {
	for _, n := range c.nodes {
		n.cmd <- worker.Command{Type: worker.CmdAdvanceTime, Until: target}
	}

	var pendingTx []types.TransmitAirEvent
	pending := len(c.nodes)
	for pending > 0 {
		r := <-c.reportCh
		switch r.Type {
		case worker.ReportTimeReached:
			c.wakes.set(r.NodeId, r.NextWakeTime)
			pending--
		case worker.ReportTransmitAir:
			pendingTx = append(pendingTx, r.TransmitAir)
		case worker.ReportFirmwareError:
			c.ctx.Cancel(r.Err)
		case worker.ReportShutdown:
			logger.Panicf("coordinator: node %d shut down unexpectedly mid-run", r.NodeId)
		}
	}

	c.currentTime = target
	c.routeAndDeliver(pendingTx)
}

// routeAndDeliver routes every transmission observed during the last tick
// through the Router, in source-NodeId order for determinism, and delivers
// the resulting ReceiveAirEvents to their destination workers.
func (c *Coordinator) routeAndDeliver(txs []types.TransmitAirEvent) {
	sort.Slice(txs, func(i, j int) bool { return txs[i].Source < txs[j].Source })

	byID := make(map[types.NodeId]chan<- worker.Command, len(c.nodes))
	for _, n := range c.nodes {
		byID[n.id] = n.cmd
	}

	for _, tx := range txs {
		for _, rx := range c.router.Route(tx) {
			cmdCh, ok := byID[rx.Dest]
			if !ok {
				continue
			}
			cmdCh <- worker.Command{Type: worker.CmdReceiveAir, ReceiveAir: rx}
		}
	}
}

func (c *Coordinator) shutdown() {
	for _, n := range c.nodes {
		n.cmd <- worker.Command{Type: worker.CmdShutdown}
	}
	pending := len(c.nodes)
	for pending > 0 {
		r := <-c.reportCh
		if r.Type == worker.ReportShutdown {
			pending--
		}
	}
}
