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

// Package serialbridge attaches a node worker's external-bytes channel to a
// real TCP connection: a raw, unframed, bidirectional byte pipe. Bytes
// arriving from the socket are explicitly non-deterministic input, so the
// bridge only ever pushes them onto the worker's extRxCh; it is the
// worker's own pendingExternal buffering that defers any resulting
// transmission to the next AdvanceTime tick.
package serialbridge

import (
	"net"

	"github.com/pkg/errors"

	"github.com/meshcore-sim/mcsim/logger"
	"github.com/meshcore-sim/mcsim/types"
)

// Bridge listens for a single inbound TCP connection for one node and
// relays bytes in both directions: inbound bytes go to RxCh, and bytes
// written via Send go out on the connection once established.
type Bridge struct {
	nodeID types.NodeId
	ln     net.Listener

	rxCh  chan []byte
	txCh  chan []byte
	doneCh chan struct{}
}

// Listen starts listening on addr for node id's external endpoint. Serve
// then accepts the connection and relays bytes over it.
func Listen(id types.NodeId, addr string) (*Bridge, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "node %d: listen on %s", id, addr)
	}
	return &Bridge{
		nodeID: id,
		ln:     ln,
		rxCh:   make(chan []byte, 64),
		txCh:   make(chan []byte, 64),
		doneCh: make(chan struct{}),
	}, nil
}

// RxCh is the channel of inbound byte slices; pass it as a worker's extRxCh.
func (b *Bridge) RxCh() <-chan []byte {
	return b.rxCh
}

// Send queues bytes to be written to the connected peer, once one connects.
func (b *Bridge) Send(data []byte) {
	select {
	case b.txCh <- data:
	case <-b.doneCh:
	}
}

// Serve accepts exactly one connection and relays bytes until Close is
// called or the connection drops. It blocks, so call it from its own
// goroutine.
func (b *Bridge) Serve() {
	conn, err := b.ln.Accept()
	if err != nil {
		select {
		case <-b.doneCh:
			return // Close was called, this is expected
		default:
		}
		logger.Errorf("node %d: serial bridge accept failed: %s", b.nodeID, err)
		return
	}
	defer conn.Close()

	go func() {
		<-b.doneCh
		conn.Close()
	}()
	go b.writeLoop(conn)
	b.readLoop(conn)
}

func (b *Bridge) readLoop(conn net.Conn) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case b.rxCh <- data:
			case <-b.doneCh:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (b *Bridge) writeLoop(conn net.Conn) {
	for {
		select {
		case data := <-b.txCh:
			if _, err := conn.Write(data); err != nil {
				return
			}
		case <-b.doneCh:
			return
		}
	}
}

// Close stops accepting new connections and unblocks any pending Serve/Send.
func (b *Bridge) Close() {
	select {
	case <-b.doneCh:
		return // already closed
	default:
		close(b.doneCh)
	}
	b.ln.Close()
}
