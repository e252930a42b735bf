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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meshcore-sim/mcsim/types"
)

func TestWakeIndex_NextIsEverWhenAllUnset(t *testing.T) {
	wi := newWakeIndex([]types.NodeId{1, 2, 3})
	assert.Equal(t, types.Ever, wi.next())
}

func TestWakeIndex_NextTracksMinimum(t *testing.T) {
	wi := newWakeIndex([]types.NodeId{1, 2, 3})
	wi.set(1, 500)
	wi.set(2, 100)
	wi.set(3, 300)
	assert.Equal(t, types.SimTime(100), wi.next())

	wi.set(2, 1000)
	assert.Equal(t, types.SimTime(300), wi.next())
}

func TestWakeIndex_SetUnknownNodePanics(t *testing.T) {
	wi := newWakeIndex([]types.NodeId{1})
	assert.Panics(t, func() { wi.set(99, 10) })
}
