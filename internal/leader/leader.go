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

// Package leader implements the Leader (local): the orchestrator that
// composes the Segment Manager, the File-Handle Registry and the I/O
// Thread Pool into open/read/write/close, enforcing the invariants
// that make data on this machine the single authoritative writer for
// an inode (spec §4.5).
package leader

import (
	"context"
	"time"

	"github.com/yigfs/fsclient/internal/errno"
	"github.com/yigfs/fsclient/internal/ioengine"
	"github.com/yigfs/fsclient/internal/logger"
	"github.com/yigfs/fsclient/internal/metrics"
	"github.com/yigfs/fsclient/internal/registry"
	"github.com/yigfs/fsclient/internal/segment"
)

// pool is the subset of ioengine.Pool the Leader depends on.
type pool interface {
	Open(ctx context.Context, id0, id1 uint64, dir string) errno.Errno
	Write(ctx context.Context, id0, id1, maxSize uint64, dir string, offset uint64, data []byte) (ioengine.WriteResult, errno.Errno)
	Read(ctx context.Context, id0, id1 uint64, dir string, offset uint64, size uint32) ([]byte, errno.Errno)
	Close(id0, id1 uint64)
}

// segmentMgr is the subset of segment.Manager the Leader depends on.
type segmentMgr interface {
	NewSegment(leaderHint string) segment.Segment
	GetSegmentDir(id0, id1 uint64) string
	GetFileSegments(ctx context.Context, ino uint64, machine string) ([]segment.Segment, errno.Errno)
	UpdateSegments(ctx context.Context, ino uint64, segments []segment.Segment) errno.Errno
}

// maxEnospcRetries bounds the write failover loop. Spec §4.5 expects
// at most one retry in practice (a fresh segment is always empty); this
// is a defensive cap against a pathological data.len() > max_size input
// that should have been rejected upstream, so write fails with Enospc
// instead of looping forever.
const maxEnospcRetries = 8

// Leader is the Leader (local) for one machine. It holds its
// collaborators by reference; construction order breaks the
// Leader/Segment-Manager/Metadata-client cycle described in spec §9 by
// layering them: metadata client is a leaf, Segment Manager holds it,
// Leader holds the Segment Manager read-only.
type Leader struct {
	machine string
	reg     *registry.Registry
	segMgr  segmentMgr
	pool    pool
	metrics metrics.Handle
}

// New builds a Leader for machine, composing reg/segMgr/pool. metrics
// may be nil, in which case a no-op Handle is used.
func New(machine string, reg *registry.Registry, segMgr segmentMgr, pool pool, m metrics.Handle) *Leader {
	if m == nil {
		m = metrics.NewNoopHandle()
	}
	return &Leader{machine: machine, reg: reg, segMgr: segMgr, pool: pool, metrics: m}
}

func (l *Leader) observe(ctx context.Context, op string, start time.Time, e errno.Errno) errno.Errno {
	l.metrics.OpLatency(ctx, op, time.Since(start), nil)
	l.metrics.OpCount(ctx, op, 1, nil)
	if !e.IsSuccess() {
		l.metrics.OpErrorCount(ctx, op, e.String(), nil)
	}
	return e
}

// Open implements spec §4.5 open: idempotent, lazily populating the
// Registry from metadata on first miss.
func (l *Leader) Open(ctx context.Context, ino uint64) errno.Errno {
	start := time.Now()

	if _, e := l.reg.Get(ino); e.IsSuccess() {
		return l.observe(ctx, "open", start, errno.Esucc)
	} else if e != errno.Enoent {
		return l.observe(ctx, "open", start, e)
	}

	segs, e := l.segMgr.GetFileSegments(ctx, ino, l.machine)
	if !e.IsSuccess() {
		return l.observe(ctx, "open", start, e)
	}

	for _, s := range segs {
		dir := l.segMgr.GetSegmentDir(s.SegID0, s.SegID1)
		if oe := l.pool.Open(ctx, s.SegID0, s.SegID1, dir); !oe.IsSuccess() {
			// Already-opened workers for earlier segments in this
			// loop are left open; they're cleaned up by a later
			// successful open or close, since Open is idempotent
			// (spec §4.5 step 3, §9 open question 2).
			return l.observe(ctx, "open", start, oe)
		}
	}

	handle := segment.FileHandle{Ino: ino, Leader: l.machine, Segments: segs}
	l.reg.Add(handle)
	return l.observe(ctx, "open", start, errno.Esucc)
}

// Read implements spec §4.5 read: walks the handle's segments and
// blocks in order, translating the logical file offset into each
// block's segment-file offset via seg_start_addr + (start - b.offset)
// rather than using the logical offset directly (spec §9 open
// question 1 — the source's direct use of the logical offset as a
// segment-positional offset is a bug this corrects).
func (l *Leader) Read(ctx context.Context, ino uint64, offset uint64, size uint32) ([]byte, errno.Errno) {
	start := time.Now()

	h, e := l.reg.Get(ino)
	if !e.IsSuccess() {
		l.observe(ctx, "read", start, e)
		return nil, e
	}

	out := make([]byte, 0, size)
	cur := offset
	remaining := uint64(size)

outer:
	for _, s := range h.Segments {
		dir := l.segMgr.GetSegmentDir(s.SegID0, s.SegID1)
		for _, b := range s.Blocks {
			if remaining == 0 {
				break outer
			}
			if cur < b.Offset || cur > b.Offset+uint64(b.Size) {
				continue
			}

			segOffset := b.SegStartAddr + (cur - b.Offset)
			avail := uint64(b.Size) - (cur - b.Offset)
			want := remaining
			if want > avail {
				want = avail
			}
			if want == 0 {
				continue
			}

			data, re := l.pool.Read(ctx, s.SegID0, s.SegID1, dir, segOffset, uint32(want))
			if re == errno.Eeof {
				break outer
			}
			if !re.IsSuccess() {
				l.observe(ctx, "read", start, re)
				return nil, re
			}

			out = append(out, data...)
			cur += uint64(len(data))
			remaining -= uint64(len(data))
		}
	}

	l.observe(ctx, "read", start, errno.Esucc)
	return out, errno.Esucc
}

// Write implements spec §4.5 write: on Enospc from the tail segment's
// worker, allocates a fresh segment, makes it the new tail via the
// Registry, and retries.
func (l *Leader) Write(ctx context.Context, ino uint64, offset uint64, data []byte) (segment.BlockIo, errno.Errno) {
	start := time.Now()

	for attempt := 0; ; attempt++ {
		last, e := l.reg.GetLastSegment(ino)
		if !e.IsSuccess() {
			l.observe(ctx, "write", start, e)
			return segment.BlockIo{}, e
		}

		dir := l.segMgr.GetSegmentDir(last.ID0, last.ID1)
		wr, we := l.pool.Write(ctx, last.ID0, last.ID1, last.MaxSize, dir, offset, data)

		switch we {
		case errno.Esucc:
			block := segment.Block{
				Ino:          ino,
				Generation:   0,
				Offset:       offset,
				SegStartAddr: wr.Offset,
				SegEndAddr:   wr.Offset + uint64(wr.Nwrite),
				Size:         int64(wr.Nwrite),
			}
			if ae := l.reg.AddBlock(ino, last.ID0, last.ID1, block); !ae.IsSuccess() {
				l.observe(ctx, "write", start, ae)
				return segment.BlockIo{}, ae
			}
			l.observe(ctx, "write", start, errno.Esucc)
			return segment.BlockIo{ID0: last.ID0, ID1: last.ID1, Offset: wr.Offset, Size: wr.Nwrite}, errno.Esucc

		case errno.Enospc:
			if attempt >= maxEnospcRetries {
				logger.Errorf("leader: write ino=%d exceeded %d segment-failover retries, data len=%d", ino, maxEnospcRetries, len(data))
				l.observe(ctx, "write", start, errno.Enospc)
				return segment.BlockIo{}, errno.Enospc
			}
			newSeg := l.segMgr.NewSegment(l.machine)
			if ae := l.reg.AddSegment(ino, newSeg); !ae.IsSuccess() {
				l.observe(ctx, "write", start, ae)
				return segment.BlockIo{}, ae
			}
			if oe := l.pool.Open(ctx, newSeg.SegID0, newSeg.SegID1, l.segMgr.GetSegmentDir(newSeg.SegID0, newSeg.SegID1)); !oe.IsSuccess() {
				l.observe(ctx, "write", start, oe)
				return segment.BlockIo{}, oe
			}
			continue

		default:
			l.observe(ctx, "write", start, we)
			return segment.BlockIo{}, we
		}
	}
}

// Close implements spec §4.5 close: metadata is updated before any
// local state is mutated, so a failed update_segments leaves the
// Registry entry intact and safe to retry.
func (l *Leader) Close(ctx context.Context, ino uint64) errno.Errno {
	start := time.Now()

	h, e := l.reg.Get(ino)
	if !e.IsSuccess() {
		return l.observe(ctx, "close", start, e)
	}

	if len(h.Segments) > 0 {
		if ue := l.segMgr.UpdateSegments(ctx, ino, h.Segments); !ue.IsSuccess() {
			return l.observe(ctx, "close", start, ue)
		}
	}

	for _, s := range h.Segments {
		l.pool.Close(s.SegID0, s.SegID1)
	}

	del := l.reg.Del(ino)
	return l.observe(ctx, "close", start, del)
}

// Release stops the Registry's owning goroutine. The Leader must not
// be used afterward.
func (l *Leader) Release() {
	l.reg.Stop()
}
