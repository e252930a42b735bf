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

package tracefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshcore-sim/mcsim/types"
)

func TestParse_SingleCategoryNoNodes(t *testing.T) {
	sel, err := Parse("firmware")
	require.NoError(t, err)
	require.Len(t, sel, 1)
	assert.Equal(t, "firmware", sel[0].Category)
	assert.Empty(t, sel[0].NodeIDs)
	assert.True(t, sel[0].Matches("firmware", 42))
}

func TestParse_CategoryWithNodeList(t *testing.T) {
	sel, err := Parse("radio:1,2")
	require.NoError(t, err)
	require.Len(t, sel, 1)
	assert.Equal(t, []types.NodeId{1, 2}, sel[0].NodeIDs)
	assert.True(t, sel[0].Matches("radio", 1))
	assert.False(t, sel[0].Matches("radio", 3))
}

func TestParse_MultipleClauses(t *testing.T) {
	sel, err := Parse("radio:1,2;firmware")
	require.NoError(t, err)
	require.Len(t, sel, 2)
	assert.True(t, MatchesAny(sel, "firmware", 99))
	assert.True(t, MatchesAny(sel, "radio", 2))
	assert.False(t, MatchesAny(sel, "radio", 99))
}

func TestParse_InvalidExpressionReturnsError(t *testing.T) {
	_, err := Parse(":::not valid:::")
	assert.Error(t, err)
}
