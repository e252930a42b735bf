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
	"math"

	"github.com/meshcore-sim/mcsim/types"
)

// sensitivitySnrDb holds the SNR demodulation threshold (dB) per spreading
// factor, indexed by SF-7. A weaker (more negative) threshold means the
// radio can decode a weaker signal relative to the noise floor.
var sensitivitySnrDb = [...]float64{
	-7.5,  // SF7
	-10.0, // SF8
	-12.5, // SF9
	-15.0, // SF10
	-17.5, // SF11
	-20.0, // SF12
}

// SensitivityThresholdDb returns the minimum SNR (dB) at which a receiver
// using the given spreading factor can demodulate a packet. Spreading
// factors outside 7-12 fall back to the SF12 (most sensitive) threshold.
func SensitivityThresholdDb(sf types.SpreadingFactor) float64 {
	idx := int(sf) - int(types.SF7)
	if idx < 0 || idx >= len(sensitivitySnrDb) {
		return sensitivitySnrDb[len(sensitivitySnrDb)-1]
	}
	return sensitivitySnrDb[idx]
}

// crcBits and explicitHeader reflect a typical LoRa explicit-header packet
// with CRC enabled, matching common firmware defaults.
const (
	crcBits        = 16
	explicitHeader = true
	lowDataRateOpt = false // low data rate optimization, only relevant above SF10
)

// TimeOnAir returns the microsecond duration a payloadLen-byte LoRa packet
// occupies the air, given the radio parameters it's transmitted with. This
// follows the standard Semtech symbol-counting formula for time-on-air.
func TimeOnAir(payloadLen int, params types.RadioParams) types.SimTime {
	sf := float64(params.SF)
	bw := float64(params.BandwidthHz)
	if bw <= 0 {
		bw = 125000
	}
	cr := float64(params.CodingRate)
	if cr <= 0 {
		cr = 1 // 4/5
	}
	preamble := float64(params.PreambleSymbols)
	if preamble <= 0 {
		preamble = 8
	}

	tSym := math.Exp2(sf) / bw // seconds per symbol

	de := 0.0
	if lowDataRateOpt && params.SF >= types.SF11 {
		de = 1.0
	}
	ihBit := 0.0
	if !explicitHeader {
		ihBit = 1.0
	}

	numerator := 8*float64(payloadLen) - 4*sf + 28 + crcBits - 20*ihBit
	denominator := 4 * (sf - 2*de)
	nPayloadSymbols := 8.0
	if numerator > 0 {
		nPayloadSymbols += math.Ceil(numerator/denominator) * (cr + 4)
	}

	tPreamble := (preamble + 4.25) * tSym
	tPayload := nPayloadSymbols * tSym
	totalSec := tPreamble + tPayload

	return types.SimTime(math.Round(totalSec * 1e6))
}
