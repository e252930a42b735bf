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

package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meshcore-sim/mcsim/tracefilter"
)

func TestCounters_SnapshotReflectsIncrements(t *testing.T) {
	c := NewCounters()
	c.DroppedRxOverflow.Inc()
	c.DroppedRxOverflow.Inc()
	c.Collisions.Add(3)

	s := c.Snapshot()
	assert.Equal(t, int64(2), s.DroppedRxOverflow)
	assert.Equal(t, int64(3), s.Collisions)
	assert.Equal(t, int64(0), s.BelowSensitivity)
}

func TestCounters_ConcurrentIncrementsAreSafe(t *testing.T) {
	c := NewCounters()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.PolledWhileTx.Inc()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(100), c.Snapshot().PolledWhileTx)
}

func TestTracer_TraceDoesNotPanicWithNoSelectors(t *testing.T) {
	tr := NewTracer(nil)
	assert.NotPanics(t, func() { tr.Trace(0, 1, "radio", "anything") })
}

func TestTracer_TraceDoesNotPanicWhenMatched(t *testing.T) {
	sel, err := tracefilter.Parse("radio")
	assert.NoError(t, err)
	tr := NewTracer(sel)
	assert.NotPanics(t, func() { tr.Trace(10, 1, "radio", "tx-start") })
}
