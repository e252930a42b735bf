// Copyright (c) 2024, The OTNS Authors.
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

// Package prng provides the deterministic pseudo-random generators used
// throughout a run. Every generator derives from a single root seed so that
// a run replayed with the same seed, topology and duration reproduces a
// byte-identical trace.
package prng

import (
	"math/rand"
	"time"
)

type RandomSeed int64

var nodeSeedGenerator *rand.Rand
var linkModelSeedGenerator *rand.Rand
var linkFailTimeGenerator *rand.Rand
var linkJitterGenerator *rand.Rand

// Init initializes the prng package, either with a fixed PRNG seed (rootSeed != 0) or a 'random' time-based PRNG
// seed (if rootSeed == 0).
func Init(rootSeed int64) {
	if rootSeed == 0 {
		rootSeed = time.Now().UnixNano()
	}
	rand.Seed(rootSeed)

	nodeSeedGenerator = rand.New(rand.NewSource(rootSeed + int64(rand.Intn(1e10))))
	linkModelSeedGenerator = rand.New(rand.NewSource(rootSeed + int64(rand.Intn(1e10))))
	linkFailTimeGenerator = rand.New(rand.NewSource(rootSeed + int64(rand.Intn(1e10))))
	linkJitterGenerator = rand.New(rand.NewSource(rootSeed + int64(rand.Intn(1e10))))
}

// NewNodeRandomSeed generates unique random-seeds for newly created node firmware instances.
func NewNodeRandomSeed() int32 {
	return nodeSeedGenerator.Int31()
}

// NewLinkModelRandomSeed generates unique random-seeds for newly created link model instances.
func NewLinkModelRandomSeed() RandomSeed {
	return RandomSeed(linkModelSeedGenerator.Int63())
}

// NewFailTime generates a random new link-failure start time between 0 and failStartTimeMax.
func NewFailTime(failStartTimeMax int) uint64 {
	return uint64(linkFailTimeGenerator.Intn(failStartTimeMax))
}

// NewLinkJitter generates a new random float in [0, 1) from the link-jitter
// generator, fully deterministic for a given seed.
func NewLinkJitter() float64 {
	return linkJitterGenerator.Float64()
}
