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

// Package config decodes a scenario's topology and run parameters from YAML,
// following the teacher's plain-struct-plus-defaults style for its own
// simulation configuration.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/meshcore-sim/mcsim/linkmodel"
	"github.com/meshcore-sim/mcsim/types"
)

const (
	defaultRunDurationUs  = 60_000_000
	defaultRootSeed       = 1
	defaultTxTurnaroundUs = 100
	defaultRxTurnaroundUs = 100
)

// NodeSpec describes one simulated node's fixed placement and radio. X/Y are
// retained as scenario metadata describing where the node sits -- the link
// model itself no longer derives reachability from them, since mean_snr_db
// on an EdgeSpec now says directly what each directed link looks like.
type NodeSpec struct {
	ID             types.NodeId    `yaml:"id"`
	X              float64         `yaml:"x"`
	Y              float64         `yaml:"y"`
	Frequency      types.ChannelId `yaml:"frequency"`
	SF             int             `yaml:"sf"` // 7-12
	TxPowerDbm     float64         `yaml:"tx_power_dbm"`
	TxTurnaroundUs types.SimTime   `yaml:"tx_turnaround_us"` // 0 means apply the ~100us default
	RxTurnaroundUs types.SimTime   `yaml:"rx_turnaround_us"` // 0 means apply the ~100us default
	Firmware       string          `yaml:"firmware"`         // name looked up in a firmware.Factory registry
	Serial         string          `yaml:"serial"`           // optional "host:port" for this node's external endpoint; cmd/mcsim-run does not open a listener for it
	NodeLogFile    bool            `yaml:"node_log"`         // write this node's trace lines to its own log file under run.node_log_dir
}

// EdgeSpec declares one directed link's mean SNR (dB, at a reference transmit
// power), optionally with a standard deviation sampled once when the link
// model is built. Pairs with no EdgeSpec are unreachable.
type EdgeSpec struct {
	From        types.NodeId `yaml:"from"`
	To          types.NodeId `yaml:"to"`
	MeanSnrDb   float64      `yaml:"mean_snr_db"`
	SnrStdDevDb float64      `yaml:"snr_std_dev"`
}

// RunSpec controls the overall simulation run.
type RunSpec struct {
	DurationUs types.SimTime `yaml:"duration_us"`
	RootSeed   int64         `yaml:"root_seed"`
	Trace      string        `yaml:"trace"`        // --trace filter expression, empty disables tracing
	NodeLogDir string        `yaml:"node_log_dir"` // directory for per-node log files; empty disables per-node logging entirely
}

// Config is the full decoded scenario: topology plus run parameters.
type Config struct {
	Nodes []NodeSpec       `yaml:"nodes"`
	Edges []EdgeSpec       `yaml:"edges"`
	Run   RunSpec          `yaml:"run"`
	Link  linkmodel.Params `yaml:"link"`
}

// DefaultConfig returns a Config with no nodes and the link model's default
// propagation parameters, matching the teacher's DefaultNodeConfig pattern
// of a constructor callers layer their own fields onto.
func DefaultConfig() Config {
	return Config{
		Run: RunSpec{
			DurationUs: defaultRunDurationUs,
			RootSeed:   defaultRootSeed,
		},
		Link: linkmodel.DefaultParams(),
	}
}

// Load reads and decodes a YAML scenario file, applying DefaultConfig's
// values wherever the file leaves a field at its zero value.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	if cfg.Run.DurationUs == 0 {
		cfg.Run.DurationUs = defaultRunDurationUs
	}
	if cfg.Run.RootSeed == 0 {
		cfg.Run.RootSeed = defaultRootSeed
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the decoded config for the invariants the coordinator
// assumes: unique node IDs, plausible spreading factors, and edges that
// reference declared nodes.
func (c Config) Validate() error {
	seen := make(map[types.NodeId]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if seen[n.ID] {
			return errors.Errorf("duplicate node id %d", n.ID)
		}
		seen[n.ID] = true
		if n.SF < 7 || n.SF > 12 {
			return errors.Errorf("node %d: spreading factor %d out of range 7-12", n.ID, n.SF)
		}
	}
	for _, e := range c.Edges {
		if !seen[e.From] || !seen[e.To] {
			return errors.Errorf("edge %d->%d references an undeclared node", e.From, e.To)
		}
	}
	return nil
}

// Position is a node's declared placement, kept for scenario visualization
// and topology documentation. The link model itself never reads it.
type Position struct {
	X float64
	Y float64
}

// Positions returns the per-node static positions declared in the config,
// keyed by NodeId. This is scenario placement metadata only -- the link
// model is built from Edges, not from these positions.
func (c Config) Positions() map[types.NodeId]Position {
	out := make(map[types.NodeId]Position, len(c.Nodes))
	for _, n := range c.Nodes {
		out[n.ID] = Position{X: n.X, Y: n.Y}
	}
	return out
}

// NodeConfigs returns the types.NodeConfig for every declared node, the
// shape logger.GetNodeLogger keys its per-node log files on.
func (c Config) NodeConfigs() []types.NodeConfig {
	out := make([]types.NodeConfig, len(c.Nodes))
	for i, n := range c.Nodes {
		out[i] = types.NodeConfig{ID: n.ID, X: n.X, Y: n.Y, NodeLogFile: n.NodeLogFile}
	}
	return out
}

// NodeIDs returns every node id declared in the config, in declaration order.
func (c Config) NodeIDs() []types.NodeId {
	out := make([]types.NodeId, len(c.Nodes))
	for i, n := range c.Nodes {
		out[i] = n.ID
	}
	return out
}

// LinkEdges converts the declared EdgeSpecs into the linkmodel.EdgeConfig
// shape a StaticLinkModel is built from.
func (c Config) LinkEdges() []linkmodel.EdgeConfig {
	out := make([]linkmodel.EdgeConfig, len(c.Edges))
	for i, e := range c.Edges {
		out[i] = linkmodel.EdgeConfig{
			From:        e.From,
			To:          e.To,
			MeanSnrDb:   e.MeanSnrDb,
			SnrStdDevDb: e.SnrStdDevDb,
		}
	}
	return out
}

// RadioParams returns the per-node RadioParams declared in the config,
// keyed by NodeId, applying the ~100us turnaround default to any node that
// left it at zero.
func (c Config) RadioParams() map[types.NodeId]types.RadioParams {
	out := make(map[types.NodeId]types.RadioParams, len(c.Nodes))
	for _, n := range c.Nodes {
		txTurnaround := n.TxTurnaroundUs
		if txTurnaround == 0 {
			txTurnaround = defaultTxTurnaroundUs
		}
		rxTurnaround := n.RxTurnaroundUs
		if rxTurnaround == 0 {
			rxTurnaround = defaultRxTurnaroundUs
		}
		out[n.ID] = types.RadioParams{
			Frequency:      n.Frequency,
			SF:             types.SpreadingFactor(n.SF),
			BandwidthHz:    125000,
			TxPowerDbm:     n.TxPowerDbm,
			TxTurnaroundUs: txTurnaround,
			RxTurnaroundUs: rxTurnaround,
		}
	}
	return out
}
