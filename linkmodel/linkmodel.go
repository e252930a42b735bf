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

// Package linkmodel computes the radio path between any two nodes in a
// scenario. A LinkModel is pure and stateless at query time: it is built
// once from a scenario's configured directional edges and never varies
// again during a run, queried by the coordinator's graph router once per
// transmission per candidate destination. It never observes or mutates
// simulation time.
package linkmodel

import (
	"math/rand"

	"github.com/meshcore-sim/mcsim/prng"
	"github.com/meshcore-sim/mcsim/types"
)

// DbValue is a value expressed in decibels, used throughout the link budget.
type DbValue = float64

const (
	RssiMinDbm DbValue = -126.0
	RssiMaxDbm DbValue = 0.0

	defaultNoiseFloorDbm DbValue = -95.0
)

// Params configures how a StaticLinkModel converts a configured edge's
// mean_snr_db into the Link it hands back at query time.
type Params struct {
	NoiseFloorDbm     DbValue // ambient noise floor (dBm), used to derive RSSI from SNR
	SnrMinThresholdDb DbValue // SNR below which a link is always unreachable, regardless of SF
}

// DefaultParams returns the link parameters used when a scenario config does
// not override them.
func DefaultParams() Params {
	return Params{
		NoiseFloorDbm:     defaultNoiseFloorDbm,
		SnrMinThresholdDb: -21.0, // below SF12 threshold, nothing can ever be decoded
	}
}

// EdgeConfig is one directed edge as declared in a scenario's topology: the
// mean SNR node To sees from node From at a reference transmit power, with
// an optional standard deviation sampled once at StaticLinkModel build time.
// A SnrStdDevDb of zero yields a perfectly deterministic link.
type EdgeConfig struct {
	From        types.NodeId
	To          types.NodeId
	MeanSnrDb   DbValue
	SnrStdDevDb DbValue
}

// Model is the LinkModel: a pure query from (source, dest) node identities to
// the estimated Link between them.
type Model interface {
	// Query returns the Link a packet from src is received with at dst. A
	// pair with no configured edge is unreachable.
	Query(src, dst types.NodeId) types.Link
}

// StaticLinkModel implements Model over a fixed set of directional edges
// converted once, at construction, into concrete Links: it never varies
// across queries of the same inputs, matching the determinism requirement
// for replayed runs. Edges not listed in the config are unreachable.
type StaticLinkModel struct {
	links map[types.NodeId]map[types.NodeId]types.Link
}

// NewStaticLinkModel builds a StaticLinkModel from edges, deriving RSSI from
// each edge's SNR and params.NoiseFloorDbm. When an edge's SnrStdDevDb is
// nonzero, its SNR is perturbed by a
// Normal deviate drawn once from the run's seeded link-model RNG, so the
// result is fixed for the lifetime of the model but still varies run to run
// with the root seed.
func NewStaticLinkModel(edges []EdgeConfig, params Params) *StaticLinkModel {
	rng := rand.New(rand.NewSource(int64(prng.NewLinkModelRandomSeed())))
	links := make(map[types.NodeId]map[types.NodeId]types.Link, len(edges))
	for _, e := range edges {
		snr := e.MeanSnrDb
		if e.SnrStdDevDb != 0 {
			snr += rng.NormFloat64() * e.SnrStdDevDb
		}

		rssi := snr + params.NoiseFloorDbm
		if rssi < RssiMinDbm {
			rssi = RssiMinDbm
		} else if rssi > RssiMaxDbm {
			rssi = RssiMaxDbm
		}

		if links[e.From] == nil {
			links[e.From] = make(map[types.NodeId]types.Link)
		}
		links[e.From][e.To] = types.Link{
			SnrDb:     snr,
			RssiDbm:   rssi,
			Reachable: snr >= params.SnrMinThresholdDb,
		}
	}
	return &StaticLinkModel{links: links}
}

// Query implements Model.
func (m *StaticLinkModel) Query(src, dst types.NodeId) types.Link {
	if row, ok := m.links[src]; ok {
		if link, ok := row[dst]; ok {
			return link
		}
	}
	return types.Link{Reachable: false}
}
