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

package firmware

import "github.com/pkg/errors"

// Factory builds one node's firmware Entity from its NodeId. The simulator
// core never imports a concrete firmware package directly; it only ever
// calls through a Factory obtained by name, keeping firmware opaque.
type Factory func(id int32) (Entity, error)

var registry = map[string]Factory{
	"stub": func(int32) (Entity, error) {
		return NewStubEntity(100, []byte("hello")), nil
	},
}

// Register adds a named firmware Factory to the registry, for use by
// cmd/mcsim-run or tests that want a custom firmware image by name.
func Register(name string, f Factory) {
	registry[name] = f
}

// Lookup resolves a named firmware Factory, defaulting to "stub" when name
// is empty.
func Lookup(name string) (Factory, error) {
	if name == "" {
		name = "stub"
	}
	f, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("unknown firmware %q", name)
	}
	return f, nil
}
