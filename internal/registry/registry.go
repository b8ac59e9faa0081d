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

// Package registry implements the File-Handle Registry: a single
// dedicated goroutine owning the ino -> FileHandle map, mutated only
// through request/reply message pairs over bounded (capacity 1)
// channels (spec §4.4). Funneling every mutation through one goroutine
// makes block ordering per inode total and removes any need for a
// lock-per-entry map.
package registry

import (
	"sync"

	"github.com/yigfs/fsclient/internal/errno"
	"github.com/yigfs/fsclient/internal/segment"
)

type command interface {
	isCommand()
}

type getCmd struct {
	ino   uint64
	reply chan getReply
}

func (getCmd) isCommand() {}

type getReply struct {
	handle segment.FileHandle
	err    errno.Errno
}

type addCmd struct {
	handle segment.FileHandle
}

func (addCmd) isCommand() {}

type delCmd struct {
	ino   uint64
	reply chan errno.Errno
}

func (delCmd) isCommand() {}

type addSegmentCmd struct {
	ino   uint64
	seg   segment.Segment
	reply chan errno.Errno
}

func (addSegmentCmd) isCommand() {}

type addBlockCmd struct {
	ino        uint64
	id0, id1   uint64
	block      segment.Block
	reply      chan errno.Errno
}

func (addBlockCmd) isCommand() {}

type getLastSegmentCmd struct {
	ino   uint64
	reply chan lastSegmentReply
}

func (getLastSegmentCmd) isCommand() {}

// LastSegment identifies a FileHandle's tail segment and its capacity.
type LastSegment struct {
	ID0, ID1 uint64
	MaxSize  uint64
}

type lastSegmentReply struct {
	seg LastSegment
	err errno.Errno
}

// Registry is the File-Handle Registry. The zero value is not usable;
// construct with New.
type Registry struct {
	cmds    chan command
	done    chan struct{}
	stopped sync.Once
	mu      sync.RWMutex
	closed  bool
}

// New starts the registry's owning goroutine and returns immediately.
func New() *Registry {
	r := &Registry{
		cmds: make(chan command, 1),
		done: make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Registry) run() {
	defer close(r.done)
	table := make(map[uint64]segment.FileHandle)
	for cmd := range r.cmds {
		switch c := cmd.(type) {
		case getCmd:
			h, ok := table[c.ino]
			if !ok {
				c.reply <- getReply{err: errno.Enoent}
				continue
			}
			c.reply <- getReply{handle: h.Copy(), err: errno.Esucc}

		case addCmd:
			table[c.handle.Ino] = c.handle.Copy()

		case delCmd:
			if _, ok := table[c.ino]; !ok {
				c.reply <- errno.Enoent
				continue
			}
			delete(table, c.ino)
			c.reply <- errno.Esucc

		case addSegmentCmd:
			h, ok := table[c.ino]
			if !ok {
				c.reply <- errno.Enoent
				continue
			}
			h.Segments = append(h.Segments, c.seg.Copy())
			table[c.ino] = h
			c.reply <- errno.Esucc

		case addBlockCmd:
			h, ok := table[c.ino]
			if !ok {
				c.reply <- errno.Enoent
				continue
			}
			idx := indexOfSegment(h.Segments, c.id0, c.id1)
			if idx < 0 {
				c.reply <- errno.Enoent
				continue
			}
			h.Segments[idx].Blocks = append(h.Segments[idx].Blocks, c.block)
			table[c.ino] = h
			c.reply <- errno.Esucc

		case getLastSegmentCmd:
			h, ok := table[c.ino]
			if !ok {
				c.reply <- lastSegmentReply{err: errno.Enoent}
				continue
			}
			tail, ok := h.Tail()
			if !ok {
				c.reply <- lastSegmentReply{err: errno.Enoent}
				continue
			}
			c.reply <- lastSegmentReply{
				seg: LastSegment{ID0: tail.SegID0, ID1: tail.SegID1, MaxSize: tail.MaxSize},
				err: errno.Esucc,
			}
		}
	}
}

func indexOfSegment(segs []segment.Segment, id0, id1 uint64) int {
	for i, s := range segs {
		if s.SegID0 == id0 && s.SegID1 == id1 {
			return i
		}
	}
	return -1
}

// submit enqueues cmd, failing fast with false if the registry has
// stopped.
func (r *Registry) submit(cmd command) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	r.cmds <- cmd
	return true
}

// Get returns a deep-copy snapshot of the FileHandle for ino, or
// Enoent if absent.
func (r *Registry) Get(ino uint64) (segment.FileHandle, errno.Errno) {
	reply := make(chan getReply, 1)
	if !r.submit(getCmd{ino: ino, reply: reply}) {
		return segment.FileHandle{}, errno.Ebadf
	}
	rep := <-reply
	return rep.handle, rep.err
}

// Add inserts handle, overwriting any existing entry for the same ino.
func (r *Registry) Add(handle segment.FileHandle) errno.Errno {
	if !r.submit(addCmd{handle: handle}) {
		return errno.Ebadf
	}
	return errno.Esucc
}

// Del removes ino's entry, returning Enoent if it was not present.
func (r *Registry) Del(ino uint64) errno.Errno {
	reply := make(chan errno.Errno, 1)
	if !r.submit(delCmd{ino: ino, reply: reply}) {
		return errno.Ebadf
	}
	return <-reply
}

// AddSegment appends seg to ino's segment chain, making it the new
// tail. Returns Enoent if ino has no FileHandle.
func (r *Registry) AddSegment(ino uint64, seg segment.Segment) errno.Errno {
	reply := make(chan errno.Errno, 1)
	if !r.submit(addSegmentCmd{ino: ino, seg: seg, reply: reply}) {
		return errno.Ebadf
	}
	return <-reply
}

// AddBlock appends block to the segment identified by (id0, id1)
// within ino's chain. Returns Enoent if either the handle or the
// segment is missing.
func (r *Registry) AddBlock(ino, id0, id1 uint64, block segment.Block) errno.Errno {
	reply := make(chan errno.Errno, 1)
	if !r.submit(addBlockCmd{ino: ino, id0: id0, id1: id1, block: block, reply: reply}) {
		return errno.Ebadf
	}
	return <-reply
}

// GetLastSegment returns the identity and capacity of ino's tail
// segment, or Enoent if the handle is missing or has no segments yet.
func (r *Registry) GetLastSegment(ino uint64) (LastSegment, errno.Errno) {
	reply := make(chan lastSegmentReply, 1)
	if !r.submit(getLastSegmentCmd{ino: ino, reply: reply}) {
		return LastSegment{}, errno.Ebadf
	}
	rep := <-reply
	return rep.seg, rep.err
}

// Stop closes the inbound command channel; the owning goroutine drains
// any already-queued commands and exits. Idempotent and safe to call
// more than once. After Stop returns, every operation fails fast with
// Ebadf.
func (r *Registry) Stop() {
	r.stopped.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.cmds)
		r.mu.Unlock()
	})
	<-r.done
}
