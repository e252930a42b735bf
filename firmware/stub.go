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

package firmware

import "github.com/meshcore-sim/mcsim/types"

// StubEntity is a deterministic reference Entity used by tests and by
// scenarios that don't need real firmware behavior: it transmits a fixed
// payload every Period, and otherwise sleeps until its next transmit time.
type StubEntity struct {
	Period      types.SimTime
	Payload     []byte
	nextWake    types.SimTime
	rebootCount int
}

// NewStubEntity creates a StubEntity that transmits payload every period,
// starting at period.
func NewStubEntity(period types.SimTime, payload []byte) *StubEntity {
	return &StubEntity{Period: period, Payload: payload, nextWake: period}
}

func (s *StubEntity) Step(now types.SimTime) StepResult {
	if now >= s.nextWake {
		s.nextWake = now + s.Period
		return StepResult{Reason: YieldRadioTxStart, TxPayload: s.Payload}
	}
	return StepResult{Reason: YieldIdle, WakeAt: s.nextWake}
}

func (s *StubEntity) InjectRadio(now types.SimTime, _ types.LoraPacket) StepResult {
	return StepResult{Reason: YieldIdle, WakeAt: s.nextWake}
}

func (s *StubEntity) InjectSerial(now types.SimTime, _ []byte) StepResult {
	return StepResult{Reason: YieldIdle, WakeAt: s.nextWake}
}

func (s *StubEntity) NotifyRadioState(now types.SimTime, _ types.RadioState) StepResult {
	return StepResult{Reason: YieldIdle, WakeAt: s.nextWake}
}

func (s *StubEntity) Reset(now types.SimTime) StepResult {
	s.rebootCount++
	s.nextWake = now + s.Period
	return StepResult{Reason: YieldIdle, WakeAt: s.nextWake}
}
