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

// Package tracefilter parses the --trace command-line flag's small grammar
// into a set of TraceSelectors the stats package's tracer uses to decide
// which (time, source, event kind) rows get logged.
//
// Grammar: category[:node[,node...]][;category[:node...]...]
// Example: "radio:1,2;firmware" selects radio events from nodes 1 and 2,
// plus firmware events from every node.
package tracefilter

import (
	"github.com/alecthomas/participle"
	"github.com/pkg/errors"

	"github.com/meshcore-sim/mcsim/types"
)

// noinspection GoStructTag
type nodeList struct {
	Nodes []int `@Int (","@Int)*` //nolint
}

// noinspection GoStructTag
type clause struct {
	Category string    `@Ident`   //nolint
	Nodes    *nodeList `(":" @@)?` //nolint
}

// noinspection GoStructTag
type filterExpr struct {
	Clauses []*clause `@@ (";" @@)*` //nolint
}

var filterParser = participle.MustBuild(&filterExpr{})

// TraceSelector names one category of trace event, optionally restricted to
// a set of node IDs; an empty NodeIDs means every node.
type TraceSelector struct {
	Category string
	NodeIDs  []types.NodeId
}

// Matches reports whether the selector accepts an event of the given
// category from the given node.
func (s TraceSelector) Matches(category string, node types.NodeId) bool {
	if s.Category != category {
		return false
	}
	if len(s.NodeIDs) == 0 {
		return true
	}
	for _, id := range s.NodeIDs {
		if id == node {
			return true
		}
	}
	return false
}

// Parse compiles a --trace filter expression into its selectors.
func Parse(expr string) ([]TraceSelector, error) {
	var ast filterExpr
	if err := filterParser.ParseString(expr, &ast); err != nil {
		return nil, errors.Wrapf(err, "invalid trace filter %q", expr)
	}

	selectors := make([]TraceSelector, 0, len(ast.Clauses))
	for _, c := range ast.Clauses {
		sel := TraceSelector{Category: c.Category}
		if c.Nodes != nil {
			for _, n := range c.Nodes.Nodes {
				sel.NodeIDs = append(sel.NodeIDs, types.NodeId(n))
			}
		}
		selectors = append(selectors, sel)
	}
	return selectors, nil
}

// MatchesAny reports whether any selector in the set accepts the event.
func MatchesAny(selectors []TraceSelector, category string, node types.NodeId) bool {
	for _, s := range selectors {
		if s.Matches(category, node) {
			return true
		}
	}
	return false
}
