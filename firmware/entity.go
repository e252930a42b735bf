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

// Package firmware defines the narrow ABI a node worker uses to drive an
// opaque firmware image, and wraps it with an Adapter that turns its yields
// into the event types the rest of the simulator understands. Firmware
// itself is never inspected or modified by the simulator: it is stepped,
// fed bytes, and asked why it stopped running.
package firmware

import "github.com/meshcore-sim/mcsim/types"

// YieldReason explains why a firmware Step call returned control to the
// simulator.
type YieldReason uint8

const (
	// YieldIdle means firmware has no more work until its next requested
	// wake time, or forever if WakeAt is types.Ever.
	YieldIdle YieldReason = iota
	// YieldRadioTxStart means firmware started a radio transmission; the
	// bytes to transmit are in StepResult.TxPayload.
	YieldRadioTxStart
	// YieldReboot means firmware requests a full restart of its state.
	YieldReboot
	// YieldPowerOff means firmware has shut itself down and will not run
	// again until externally reset.
	YieldPowerOff
	// YieldError means firmware hit an unrecoverable internal fault.
	YieldError
)

func (r YieldReason) String() string {
	switch r {
	case YieldIdle:
		return "idle"
	case YieldRadioTxStart:
		return "radio-tx-start"
	case YieldReboot:
		return "reboot"
	case YieldPowerOff:
		return "power-off"
	case YieldError:
		return "error"
	default:
		return "unknown"
	}
}

// StepResult is returned from every call into firmware: Step, InjectRadio,
// InjectSerial or Notify.
type StepResult struct {
	Reason YieldReason

	// WakeAt is the next SimTime firmware wants to be stepped again, valid
	// only when Reason == YieldIdle. types.Ever means no timer is pending.
	WakeAt types.SimTime

	// TxPayload holds the bytes to transmit, valid only when
	// Reason == YieldRadioTxStart.
	TxPayload []byte

	// SerialTx holds bytes firmware wants written to its external serial
	// endpoint, if any, regardless of Reason.
	SerialTx []byte

	// ErrorMessage describes the fault, valid only when Reason == YieldError.
	ErrorMessage string
}

// Filesystem is the narrow storage surface exposed to firmware for
// persisting configuration/state across reboots within one run.
type Filesystem interface {
	Read(path string) ([]byte, bool)
	Write(path string, data []byte)
}

// Entity is the capability surface a node worker uses to drive firmware. No
// other access to firmware internals is permitted; every effect firmware can
// have on the simulation flows through one of these calls and the
// StepResult it returns.
type Entity interface {
	// Step runs firmware forward from now until it next yields control.
	Step(now types.SimTime) StepResult

	// InjectRadio delivers a successfully received packet to firmware.
	InjectRadio(now types.SimTime, pkt types.LoraPacket) StepResult

	// InjectSerial delivers externally-received bytes to firmware's serial
	// endpoint.
	InjectSerial(now types.SimTime, data []byte) StepResult

	// NotifyRadioState tells firmware its radio transitioned state, e.g.
	// from Transmitting back to Receiving once airtime elapses.
	NotifyRadioState(now types.SimTime, state types.RadioState) StepResult

	// Reset restarts firmware's internal state as of a reboot.
	Reset(now types.SimTime) StepResult
}
