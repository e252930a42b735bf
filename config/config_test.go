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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshcore-sim/mcsim/types"
)

const sampleYAML = `
nodes:
  - id: 1
    x: 0
    y: 0
    frequency: 1
    sf: 7
    tx_power_dbm: 14
  - id: 2
    x: 5
    y: 0
    frequency: 1
    sf: 7
    tx_power_dbm: 14
run:
  duration_us: 1000000
  root_seed: 42
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DecodesTopologyAndRun(t *testing.T) {
	path := writeTemp(t, sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Len(t, cfg.Nodes, 2)
	assert.Equal(t, types.SimTime(1000000), cfg.Run.DurationUs)
	assert.Equal(t, int64(42), cfg.Run.RootSeed)
}

func TestLoad_AppliesDefaultsWhenRunBlockOmitted(t *testing.T) {
	path := writeTemp(t, "nodes:\n  - id: 1\n    sf: 7\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, types.SimTime(defaultRunDurationUs), cfg.Run.DurationUs)
	assert.Equal(t, int64(defaultRootSeed), cfg.Run.RootSeed)
}

func TestLoad_RejectsDuplicateNodeIDs(t *testing.T) {
	path := writeTemp(t, "nodes:\n  - id: 1\n    sf: 7\n  - id: 1\n    sf: 8\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsOutOfRangeSpreadingFactor(t *testing.T) {
	path := writeTemp(t, "nodes:\n  - id: 1\n    sf: 20\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsEdgeReferencingUnknownNode(t *testing.T) {
	path := writeTemp(t, "nodes:\n  - id: 1\n    sf: 7\nedges:\n  - from: 1\n    to: 99\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_PositionsAndRadioParams(t *testing.T) {
	path := writeTemp(t, sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	positions := cfg.Positions()
	assert.Equal(t, float64(5), positions[2].X)

	params := cfg.RadioParams()
	assert.Equal(t, types.SF7, params[1].SF)
	assert.Equal(t, 14.0, params[1].TxPowerDbm)
}
