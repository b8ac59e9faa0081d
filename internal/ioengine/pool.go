// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ioengine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yigfs/fsclient/internal/backend"
	"github.com/yigfs/fsclient/internal/errno"
)

// Pool is the I/O Thread Pool: a fixed set of workers, each pinned to
// a shard of segment ids by (id0 ^ id1) mod N (spec §4.1).
type Pool struct {
	workers []*worker
	mu      sync.RWMutex
	closed  bool
}

// NewPool starts n workers, each backed by store for staging closed
// segments to object storage. n must be at least 1.
func NewPool(n int, store backend.Store) (*Pool, error) {
	if n < 1 {
		return nil, fmt.Errorf("ioengine: pool size must be at least 1, got %d", n)
	}
	p := &Pool{workers: make([]*worker, n)}
	for i := range p.workers {
		w := newWorker(i, store)
		p.workers[i] = w
		go w.run()
	}
	return p, nil
}

// workerFor returns the worker owning segment (id0, id1). This is the
// pool's only routing decision and is a pure function of the ids.
func (p *Pool) workerFor(id0, id1 uint64) *worker {
	idx := int((id0 ^ id1) % uint64(len(p.workers)))
	return p.workers[idx]
}

// enqueue submits msg to the worker owning (id0, id1), failing with
// Ebadf if the pool has been stopped. This is the pool's single
// enqueue primitive (spec §4.1); it never blocks on the message being
// processed, only on the worker's inbox having room.
func (p *Pool) enqueue(id0, id1 uint64, msg message) errno.Errno {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errno.Ebadf
	}
	p.workerFor(id0, id1).inbox <- msg
	return errno.Esucc
}

// Open ensures the segment (id0, id1)'s file is open under dir,
// creating it if necessary. Idempotent.
func (p *Pool) Open(ctx context.Context, id0, id1 uint64, dir string) errno.Errno {
	replyCh := make(chan errno.Errno, 1)
	if e := p.enqueue(id0, id1, openMsg{id0: id0, id1: id1, dir: dir, reply: replyCh}); !e.IsSuccess() {
		return e
	}
	select {
	case e := <-replyCh:
		return e
	case <-ctx.Done():
		return errno.Eintr
	}
}

// WriteResult is the caller-facing outcome of a Write.
type WriteResult struct {
	Offset uint64
	Nwrite uint32
}

// Write appends data to segment (id0, id1)'s file, failing with
// Enospc (no partial write) if doing so would exceed maxSize. offset
// is the logical file offset, carried for tracing only.
func (p *Pool) Write(ctx context.Context, id0, id1, maxSize uint64, dir string, offset uint64, data []byte) (WriteResult, errno.Errno) {
	replyCh := make(chan writeResult, 1)
	msg := writeMsg{id0: id0, id1: id1, maxSize: maxSize, dir: dir, offset: offset, data: data, reply: replyCh}
	if e := p.enqueue(id0, id1, msg); !e.IsSuccess() {
		return WriteResult{}, e
	}
	select {
	case r := <-replyCh:
		return WriteResult{Offset: r.Offset, Nwrite: r.Nwrite}, r.Err
	case <-ctx.Done():
		return WriteResult{}, errno.Eintr
	}
}

// Read performs a positional read within segment (id0, id1)'s file,
// offset being relative to the segment file, not the logical file
// (callers must translate; see internal/leader).
func (p *Pool) Read(ctx context.Context, id0, id1 uint64, dir string, offset uint64, size uint32) ([]byte, errno.Errno) {
	replyCh := make(chan readResult, 1)
	msg := readMsg{id0: id0, id1: id1, dir: dir, offset: offset, size: size, reply: replyCh}
	if e := p.enqueue(id0, id1, msg); !e.IsSuccess() {
		return nil, e
	}
	select {
	case r := <-replyCh:
		return r.Data, r.Err
	case <-ctx.Done():
		return nil, errno.Eintr
	}
}

// Close flushes and drops the cached descriptor for segment
// (id0, id1). Best-effort: there is no reply, and a close of an
// already-closed or never-opened segment is a silent no-op.
func (p *Pool) Close(id0, id1 uint64) {
	p.enqueue(id0, id1, closeMsg{id0: id0, id1: id1})
}

// Stop closes every worker's inbox and waits for its drain loop (which
// closes all cached descriptors) to finish. After Stop returns, every
// subsequent Open/Write/Read fails fast with Ebadf, and Close is a no-op.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for _, w := range p.workers {
		close(w.inbox)
	}
	p.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		w := w
		g.Go(func() error {
			select {
			case <-w.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}
