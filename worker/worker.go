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

package worker

import (
	"github.com/pkg/errors"

	"github.com/meshcore-sim/mcsim/firmware"
	"github.com/meshcore-sim/mcsim/logger"
	"github.com/meshcore-sim/mcsim/radiomodel"
	"github.com/meshcore-sim/mcsim/stats"
	"github.com/meshcore-sim/mcsim/types"
)

// CommandType identifies which command the coordinator sent a worker.
type CommandType uint8

const (
	CmdAdvanceTime CommandType = iota
	CmdReceiveAir
	CmdShutdown
)

// Command is sent from the coordinator to exactly one node worker.
type Command struct {
	Type       CommandType
	Until      types.SimTime       // valid for CmdAdvanceTime
	ReceiveAir types.ReceiveAirEvent // valid for CmdReceiveAir
}

// ReportType identifies which report a worker sent back to the coordinator.
type ReportType uint8

const (
	ReportTimeReached ReportType = iota
	ReportTransmitAir
	ReportShutdown
	ReportFirmwareError
)

// Report is sent from a node worker back to the coordinator.
type Report struct {
	NodeId       types.NodeId
	Type         ReportType
	NextWakeTime types.SimTime          // valid for ReportTimeReached
	TransmitAir  types.TransmitAirEvent // valid for ReportTransmitAir
	Err          error                  // valid for ReportFirmwareError
}

// Worker drives one node's firmware and radio from a single goroutine,
// reachable only via its command channel, matching the concurrency model
// where a node's mutable state is never touched from outside its own
// goroutine.
type Worker struct {
	id      types.NodeId
	adapter *firmware.Adapter
	radio   *radiomodel.Radio
	queue   *EventQueue

	now types.SimTime

	cmdCh    chan Command
	reportCh chan<- Report
	extRxCh  <-chan []byte // optional; nil if no external endpoint is attached

	counters *stats.Counters      // optional; nil disables counting entirely
	tracer   *stats.Tracer        // optional; nil disables --trace logging entirely
	nodeLog  *logger.NodeLogger   // optional; nil disables per-node log-file output entirely

	// pendingExternal holds bytes received from extRxCh since the last
	// AdvanceTime. They are only handed to firmware at the start of the
	// next AdvanceTime, so any transmission they provoke cannot race the
	// tick in progress when they arrived: external input is the only
	// source of non-determinism in an otherwise replayable run.
	pendingExternal [][]byte
}

// New creates a Worker for node id, wrapping entity and radio. reportCh is
// shared by all workers and read by the coordinator; extRxCh is non-nil
// only for nodes with an attached external serial/TCP endpoint; counters,
// tracer and nodeLog may all be nil, in which case this worker contributes
// nothing to run-wide stats and never logs a trace line anywhere.
func New(id types.NodeId, entity firmware.Entity, radio *radiomodel.Radio, reportCh chan<- Report, extRxCh <-chan []byte, counters *stats.Counters, tracer *stats.Tracer, nodeLog *logger.NodeLogger) *Worker {
	return &Worker{
		id:       id,
		adapter:  firmware.NewAdapter(entity),
		radio:    radio,
		queue:    NewEventQueue(),
		cmdCh:    make(chan Command, 1),
		reportCh: reportCh,
		extRxCh:  extRxCh,
		counters: counters,
		tracer:   tracer,
		nodeLog:  nodeLog,
	}
}

// trace logs a --trace line for category at the worker's current time, if
// a tracer is attached and its filter selects this node/category, and mirrors
// the same line into this node's own log file if one is attached.
func (w *Worker) trace(category, detail string) {
	if w.tracer != nil {
		w.tracer.Trace(w.now, w.id, category, detail)
	}
	if w.nodeLog != nil {
		w.nodeLog.Tracef("%s: %s", category, detail)
		w.nodeLog.DisplayPendingLogEntries(uint64(w.now))
	}
}

// Commands returns the channel the coordinator sends this worker's commands on.
func (w *Worker) Commands() chan<- Command {
	return w.cmdCh
}

// Run is the worker's goroutine body. It blocks on its command channel
// (and, if present, its external-bytes channel) until told to shut down.
func (w *Worker) Run() {
	w.radio.BeginReceiving()
	w.pollFirmware()

	for {
		if w.extRxCh == nil {
			cmd := <-w.cmdCh
			if !w.handle(cmd) {
				return
			}
			continue
		}

		select {
		case cmd := <-w.cmdCh:
			if !w.handle(cmd) {
				return
			}
		case data, ok := <-w.extRxCh:
			if ok {
				w.pendingExternal = append(w.pendingExternal, data)
			}
		}
	}
}

// handle processes one command and returns false if the worker should stop.
func (w *Worker) handle(cmd Command) bool {
	switch cmd.Type {
	case CmdAdvanceTime:
		w.advanceTo(cmd.Until)
		w.reportCh <- Report{NodeId: w.id, Type: ReportTimeReached, NextWakeTime: w.nextWakeTime()}
	case CmdReceiveAir:
		w.receiveAir(cmd.ReceiveAir)
	case CmdShutdown:
		w.reportCh <- Report{NodeId: w.id, Type: ReportShutdown}
		return false
	default:
		logger.Panicf("worker %d: unknown command type %d", w.id, cmd.Type)
	}
	return true
}

// advanceTo runs the worker's local event queue and firmware forward until
// simulation time reaches until.
func (w *Worker) advanceTo(until types.SimTime) {
	w.drainPendingExternal()
	for {
		evs := w.queue.PopReady(until)
		if len(evs) == 0 {
			break
		}
		for _, ev := range evs {
			w.now = ev.Time
			w.processLocalEvent(ev)
		}
	}
	w.now = until
}

// drainPendingExternal hands any bytes queued since the last tick to
// firmware's serial endpoint, in arrival order.
func (w *Worker) drainPendingExternal() {
	for _, data := range w.pendingExternal {
		res := w.adapter.InjectSerial(w.now, data)
		w.reactToYield(res)
	}
	w.pendingExternal = nil
}

// reactToYield applies the same state transitions pollFirmware does, for a
// StepResult obtained from a call other than Poll.
func (w *Worker) reactToYield(res firmware.StepResult) {
	switch res.Reason {
	case firmware.YieldIdle:
		if res.WakeAt != types.Ever {
			w.queue.Push(res.WakeAt, types.LocalEventFirmwareTimer, nil)
		}
	case firmware.YieldRadioTxStart:
		turnEnd := w.radio.RequestTransmit(w.now, res.TxPayload)
		w.trace("radio", "tx turnaround start")
		w.queue.Push(turnEnd, types.LocalEventTxTurnaroundEnd, nil)
	case firmware.YieldReboot:
		w.trace("firmware", "reboot")
		w.adapter.Reset(w.now)
	case firmware.YieldPowerOff:
		w.trace("firmware", "power off")
	case firmware.YieldError:
		err := errors.Errorf("node %d firmware error: %s", w.id, res.ErrorMessage)
		w.trace("firmware", err.Error())
		logger.Errorf("%s", err)
		w.reportCh <- Report{NodeId: w.id, Type: ReportFirmwareError, Err: err}
	}
}

func (w *Worker) processLocalEvent(ev types.LocalEvent) {
	switch ev.Type {
	case types.LocalEventFirmwareTimer:
		w.pollFirmware()
	case types.LocalEventReceiveEnd:
		from := ev.Payload.(types.NodeId)
		w.finishReceive(from)
	case types.LocalEventFailTime:
		w.pollFirmware()
	case types.LocalEventTxTurnaroundEnd:
		w.completeTxTurnaround()
	case types.LocalEventTransmitEnd:
		w.beginRxTurnaround()
	case types.LocalEventRxTurnaroundEnd:
		w.completeRxTurnaround()
	default:
		logger.Panicf("worker %d: unknown local event type %d", w.id, ev.Type)
	}
}

// completeTxTurnaround fires when the radio's rx->tx turnaround elapses: the
// radio becomes visibly Transmitting, the TransmitAir announcement goes out
// to the coordinator, and firmware is told its radio state changed.
func (w *Worker) completeTxTurnaround() {
	txEv, end := w.radio.CompleteTxTurnaround(w.now)
	w.trace("radio", "tx start")
	w.reportCh <- Report{NodeId: w.id, Type: ReportTransmitAir, TransmitAir: txEv}
	w.notifyRadioState()
	w.queue.Push(end, types.LocalEventTransmitEnd, nil)
}

// beginRxTurnaround fires when a transmission's airtime elapses: the radio
// starts switching back to Receiving but stays visibly Transmitting until
// the turnaround itself completes.
func (w *Worker) beginRxTurnaround() {
	turnEnd := w.radio.BeginRxTurnaround(w.now)
	w.trace("radio", "rx turnaround start")
	w.queue.Push(turnEnd, types.LocalEventRxTurnaroundEnd, nil)
}

// completeRxTurnaround fires when the radio's tx->rx turnaround elapses: the
// radio becomes visibly Receiving again, firmware is notified, and firmware
// gets a chance to run in case it was polling for the transition.
func (w *Worker) completeRxTurnaround() {
	w.radio.CompleteRxTurnaround()
	w.trace("radio", "rx ready")
	w.notifyRadioState()
	w.pollFirmware()
}

// notifyRadioState tells firmware the radio's visible state changed, waking
// it if it was polling for exactly this transition.
func (w *Worker) notifyRadioState() {
	res := w.adapter.NotifyRadioState(w.now, w.radio.State())
	w.reactToYield(res)
}

// receiveAir registers an incoming transmission with the radio and schedules
// its completion as a local event at the transmission's end time. If the
// radio cannot currently receive -- it is Transmitting or mid-turnaround --
// the event is dropped silently: no ActiveReception is created and nothing
// is scheduled, matching the "no reception during TX" invariant.
func (w *Worker) receiveAir(ev types.ReceiveAirEvent) {
	if !w.radio.CanReceive() {
		if w.counters != nil {
			w.counters.PolledWhileTx.Inc()
		}
		w.trace("radio", "receive dropped: radio busy")
		return
	}
	w.radio.BeginReceive(ev)
	w.queue.Push(ev.EndTime, types.LocalEventReceiveEnd, ev.From)
}

func (w *Worker) finishReceive(from types.NodeId) {
	res, ok := w.radio.EndReceive(from)
	if !ok {
		return
	}
	if w.counters != nil {
		if res.Collided {
			w.counters.Collisions.Inc()
		}
		if res.BelowSens {
			w.counters.BelowSensitivity.Inc()
		}
	}
	if res.Succeeded() {
		before := w.adapter.Stats().DroppedRxOverflow
		w.adapter.EnqueueRadio(res.Packet)
		if w.counters != nil {
			if dropped := w.adapter.Stats().DroppedRxOverflow - before; dropped > 0 {
				w.counters.DroppedRxOverflow.Add(int64(dropped))
			}
		}
		w.trace("radio", "rx ok")
	} else if res.Collided {
		w.trace("radio", "rx collision")
	} else if res.BelowSens {
		w.trace("radio", "rx below sensitivity")
	}
	w.pollFirmware()
}

// pollFirmware gives firmware a chance to run and reacts to its yield.
func (w *Worker) pollFirmware() {
	res := w.adapter.Poll(w.now)
	if res.Reason == firmware.YieldReboot {
		w.adapter.Reset(w.now)
		w.pollFirmware()
		return
	}
	w.reactToYield(res)
}

// nextWakeTime reports the earliest local-queue time, or types.Ever if
// nothing is scheduled and the node is only waiting on external input.
func (w *Worker) nextWakeTime() types.SimTime {
	return w.queue.PeekTime()
}
