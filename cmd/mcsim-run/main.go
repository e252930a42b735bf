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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mitchellh/go-wordwrap"

	"github.com/meshcore-sim/mcsim/config"
	"github.com/meshcore-sim/mcsim/coordinator"
	"github.com/meshcore-sim/mcsim/firmware"
	"github.com/meshcore-sim/mcsim/linkmodel"
	"github.com/meshcore-sim/mcsim/logger"
	"github.com/meshcore-sim/mcsim/prng"
	"github.com/meshcore-sim/mcsim/progctx"
	"github.com/meshcore-sim/mcsim/radiomodel"
	"github.com/meshcore-sim/mcsim/stats"
	"github.com/meshcore-sim/mcsim/tracefilter"
	"github.com/meshcore-sim/mcsim/types"
	"github.com/meshcore-sim/mcsim/worker"
)

const helpText = `run loads a scenario YAML file describing a fixed set of ` +
	`mesh nodes, their positions and radio parameters, and a run duration, ` +
	`then drives the discrete-event simulation to completion and reports ` +
	`final run-wide counters.`

var args struct {
	ScenarioFile string
	TraceFilter  string
}

func parseArgs() {
	flag.StringVar(&args.TraceFilter, "trace", "", "trace filter expression, e.g. radio:1,2;firmware")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-trace <filter>] <scenario.yaml>\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, wordwrap.WrapString(helpText, 80))
	}
	flag.Parse()

	if len(flag.Args()) != 1 {
		flag.Usage()
		os.Exit(1)
	}
	args.ScenarioFile = flag.Arg(0)
}

func main() {
	parseArgs()
	logger.SetLevel(logger.InfoLevel)

	cfg, err := config.Load(args.ScenarioFile)
	if err != nil {
		logger.Errorf("failed to load scenario: %s", err)
		os.Exit(1)
	}

	if cfg.Run.Trace == "" {
		cfg.Run.Trace = args.TraceFilter
	}
	var selectors []tracefilter.TraceSelector
	if cfg.Run.Trace != "" {
		selectors, err = tracefilter.Parse(cfg.Run.Trace)
		if err != nil {
			logger.Errorf("invalid trace filter: %s", err)
			os.Exit(1)
		}
		logger.SetLevel(logger.TraceLevel)
	}
	tracer := stats.NewTracer(selectors)
	counters := stats.NewCounters()

	prng.Init(cfg.Run.RootSeed)

	link := linkmodel.NewStaticLinkModel(cfg.LinkEdges(), cfg.Link)
	radioParams := cfg.RadioParams()
	router := coordinator.NewRouter(link, cfg.NodeIDs())

	if cfg.Run.NodeLogDir != "" {
		if err := os.MkdirAll(cfg.Run.NodeLogDir, 0o755); err != nil {
			logger.Errorf("creating node log dir %s: %s", cfg.Run.NodeLogDir, err)
			os.Exit(1)
		}
	}

	nodeConfigs := make(map[types.NodeId]types.NodeConfig, len(cfg.Nodes))
	for _, nc := range cfg.NodeConfigs() {
		nodeConfigs[nc.ID] = nc
	}

	reportCh := make(chan worker.Report, 256)
	var handles []coordinator.NodeHandle
	var nodeLogs []*logger.NodeLogger
	for _, n := range cfg.Nodes {
		factory, err := firmware.Lookup(n.Firmware)
		if err != nil {
			logger.Errorf("node %d: %s", n.ID, err)
			os.Exit(1)
		}
		entity, err := factory(int32(n.ID))
		if err != nil {
			logger.Errorf("node %d: firmware init failed: %s", n.ID, err)
			os.Exit(1)
		}

		var nodeLog *logger.NodeLogger
		if cfg.Run.NodeLogDir != "" && n.NodeLogFile {
			nc := nodeConfigs[n.ID]
			nodeLog = logger.GetNodeLogger(cfg.Run.NodeLogDir, int(cfg.Run.RootSeed), &nc)
			nodeLog.SetFileLevel(logger.TraceLevel)
			nodeLogs = append(nodeLogs, nodeLog)
		}

		radio := radiomodel.NewRadio(n.ID, radioParams[n.ID])
		w := worker.New(n.ID, entity, radio, reportCh, nil, counters, tracer, nodeLog)
		handles = append(handles, coordinator.NewNodeHandle(n.ID, w.Commands()))
		go w.Run()
	}

	ctx := progctx.New(context.Background())
	c := coordinator.New(handles, reportCh, router, cfg.Run.DurationUs, ctx)
	c.Run()

	for _, nl := range nodeLogs {
		nl.Close()
	}

	snap := counters.Snapshot()
	fmt.Printf("run complete: duration=%d nodes=%d dropped_rx_overflow=%d collisions=%d below_sensitivity=%d\n",
		cfg.Run.DurationUs, len(cfg.Nodes), snap.DroppedRxOverflow, snap.Collisions, snap.BelowSensitivity)

	if ctx.Err() != nil {
		os.Exit(1)
	}
}
