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

// Package worker implements the per-node simulation worker: a single
// goroutine owning one node's firmware, radio and local event queue,
// driven entirely by commands the coordinator sends it.
package worker

import (
	"container/heap"

	"github.com/meshcore-sim/mcsim/logger"
	"github.com/meshcore-sim/mcsim/types"
)

// localQueue is a min-heap of LocalEvent ordered by (Time, Seq), giving a
// single node's pending timers and radio events a deterministic
// replay order even when several share a timestamp.
type localQueue []types.LocalEvent

func (q localQueue) Len() int { return len(q) }

func (q localQueue) Less(i, j int) bool {
	if q[i].Time != q[j].Time {
		return q[i].Time < q[j].Time
	}
	return q[i].Seq < q[j].Seq
}

func (q localQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *localQueue) Push(x interface{}) {
	*q = append(*q, x.(types.LocalEvent))
}

func (q *localQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}

// EventQueue is a node worker's local event queue, holding only events
// local to that node (firmware timers, reception and transmission ends, and
// turnaround ends). Events crossing node boundaries are not queued here or
// anywhere else: the coordinator routes them between ticks.
type EventQueue struct {
	q       localQueue
	nextSeq uint64
}

// NewEventQueue creates an empty EventQueue.
func NewEventQueue() *EventQueue {
	eq := &EventQueue{q: localQueue{}}
	heap.Init(&eq.q)
	return eq
}

// Push inserts a new event at the given time, assigning it the next
// insertion-order sequence number so same-time events replay in FIFO order.
func (eq *EventQueue) Push(t types.SimTime, typ types.LocalEventType, payload interface{}) {
	ev := types.LocalEvent{Time: t, Seq: eq.nextSeq, Type: typ, Payload: payload}
	eq.nextSeq++
	heap.Push(&eq.q, ev)
}

// Len returns the number of pending events.
func (eq *EventQueue) Len() int {
	return eq.q.Len()
}

// PeekTime returns the time of the earliest pending event, or types.Ever if
// the queue is empty.
func (eq *EventQueue) PeekTime() types.SimTime {
	if eq.q.Len() == 0 {
		return types.Ever
	}
	return eq.q[0].Time
}

// Pop removes and returns the earliest pending event. It panics if the
// queue is empty; callers must check Len or PeekTime first.
func (eq *EventQueue) Pop() types.LocalEvent {
	if eq.q.Len() == 0 {
		logger.Panicf("worker: Pop called on empty event queue")
	}
	return heap.Pop(&eq.q).(types.LocalEvent)
}

// PopReady removes and returns all events with Time <= t, in (Time, Seq)
// order, leaving later events in the queue.
func (eq *EventQueue) PopReady(t types.SimTime) []types.LocalEvent {
	var ready []types.LocalEvent
	for eq.q.Len() > 0 && eq.q[0].Time <= t {
		ready = append(ready, heap.Pop(&eq.q).(types.LocalEvent))
	}
	return ready
}
