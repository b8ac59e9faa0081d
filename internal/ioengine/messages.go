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

// Package ioengine implements the I/O Thread Pool and Disk I/O Worker:
// a fixed-size pool of single-threaded workers, each owning a shard of
// segment file descriptors, communicating strictly through message
// passing so that no lock is ever held across a disk operation.
package ioengine

import "github.com/yigfs/fsclient/internal/errno"

// segKey identifies a segment by its id pair, used as the fd-cache key
// inside a worker.
type segKey struct {
	id0, id1 uint64
}

// message is the sealed set of requests a worker accepts. Workers
// process messages strictly in FIFO arrival order, which is what gives
// per-segment serializability without locks.
type message interface {
	isMessage()
}

// openMsg ensures a segment's file is open for read+append, caching
// the descriptor. Reopening an already-open segment is a no-op that
// replies Esucc.
type openMsg struct {
	id0, id1 uint64
	dir      string
	reply    chan errno.Errno
}

func (openMsg) isMessage() {}

// writeResult is what a writeMsg's reply channel carries.
type writeResult struct {
	Err    errno.Errno
	Offset uint64
	Nwrite uint32
}

// writeMsg appends data to a segment's file, failing with Enospc
// (no partial write) if doing so would exceed maxSize. offset is the
// caller's logical file offset, carried for tracing only: writes are
// pure appends and never seek.
type writeMsg struct {
	id0, id1 uint64
	maxSize  uint64
	dir      string
	offset   uint64
	data     []byte
	reply    chan writeResult
}

func (writeMsg) isMessage() {}

// readResult is what a readMsg's reply channel carries.
type readResult struct {
	Err  errno.Errno
	Data []byte
}

// readMsg performs a positional read within a segment's file, offset
// being relative to the segment (not the logical file).
type readMsg struct {
	id0, id1 uint64
	dir      string
	offset   uint64
	size     uint32
	reply    chan readResult
}

func (readMsg) isMessage() {}

// closeMsg flushes and drops a cached descriptor. No reply: best
// effort, and the worker fd cache must tolerate stale closes.
type closeMsg struct {
	id0, id1 uint64
}

func (closeMsg) isMessage() {}
