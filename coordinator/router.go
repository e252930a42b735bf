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

// Package coordinator implements the global tick loop: it owns the wake-time
// index across all node workers, routes transmissions through the link
// model to the node workers that can hear them, and drives the whole
// simulation forward one lockstep tick at a time.
package coordinator

import (
	"sort"

	"github.com/meshcore-sim/mcsim/linkmodel"
	"github.com/meshcore-sim/mcsim/types"
)

// Router turns one TransmitAirEvent into the set of ReceiveAirEvents it
// produces at reachable destinations. It is a pure function of the link
// model and the scenario's node ids; it holds no simulation state of its
// own.
type Router struct {
	link    linkmodel.Model
	nodeIDs []types.NodeId // sorted ascending
}

// NewRouter creates a Router over a fixed link model and the full set of
// node ids present in the scenario.
func NewRouter(link linkmodel.Model, nodeIDs []types.NodeId) *Router {
	sorted := append([]types.NodeId(nil), nodeIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &Router{link: link, nodeIDs: sorted}
}

// Route computes the ReceiveAirEvents produced by tx, one per node other
// than the source whose link is currently reachable. Destinations are
// returned sorted by NodeId, so routing the same transmission twice always
// produces the events in the same order.
func (r *Router) Route(tx types.TransmitAirEvent) []types.ReceiveAirEvent {
	var out []types.ReceiveAirEvent
	for _, dest := range r.nodeIDs {
		if dest == tx.Source {
			continue
		}
		link := r.link.Query(tx.Source, dest)
		if !link.Reachable {
			continue
		}
		out = append(out, types.ReceiveAirEvent{
			Dest:      dest,
			From:      tx.Source,
			Packet:    tx.Packet,
			StartTime: tx.StartTime,
			EndTime:   tx.EndTime,
			Link:      link,
		})
	}
	return out
}
