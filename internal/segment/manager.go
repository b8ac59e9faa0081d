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

package segment

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/yigfs/fsclient/internal/errno"
)

// MetaClient is the subset of the metadata service client the Segment
// Manager needs: fetching the segment chain for an inode, and
// replacing it wholesale on close. internal/metaclient.Client
// satisfies this interface structurally.
type MetaClient interface {
	GetFileSegments(ctx context.Context, ino uint64, machine string) ([]Segment, errno.Errno)
	UpdateSegments(ctx context.Context, ino uint64, segments []Segment) errno.Errno
}

// Manager is pure and sharable per spec §3 ("Ownership"): its
// (id0,id1) -> directory mapping is a deterministic, read-only
// function, and it holds its MetaClient by reference rather than by
// value so it can be shared across the Leader without copying.
//
// Manager must be immutable after construction (spec §5, "Shared
// resources").
type Manager struct {
	root       string
	dirShards  uint32
	defMaxSize uint64
	meta       MetaClient
}

// NewManager builds a Manager rooted at dir, partitioning segment
// directories across dirShards buckets, using defMaxSize as the
// capacity for freshly allocated segments.
func NewManager(dir string, dirShards uint32, defMaxSize uint64, meta MetaClient) *Manager {
	if dirShards == 0 {
		dirShards = 1
	}
	return &Manager{root: dir, dirShards: dirShards, defMaxSize: defMaxSize, meta: meta}
}

// NewSegment allocates a fresh segment id from a UUIDv4 source and
// returns an empty Segment with this Manager's configured capacity.
// leaderHint names the machine the segment is provisionally owned by;
// metadata is not consulted until Close's UpdateSegments call (spec
// §3 "Lifecycle": "the client owns provisional tails").
func (m *Manager) NewSegment(leaderHint string) Segment {
	hi, lo := splitUUID(uuid.New())
	return Segment{
		SegID0:  hi,
		SegID1:  lo,
		Leader:  leaderHint,
		MaxSize: m.defMaxSize,
	}
}

// splitUUID returns the high and low 64-bit halves of a 128-bit UUID,
// the same decomposition used by SharedCode-sop's sop.UUID.Split.
func splitUUID(id uuid.UUID) (hi, lo uint64) {
	b := id[:]
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(b[i])
	}
	for i := 8; i < 16; i++ {
		lo = lo<<8 | uint64(b[i])
	}
	return hi, lo
}

// GetSegmentDir returns the deterministic directory a segment's file
// lives in. Partitioning is root/<id0 mod K>/<hex(id0)><hex(id1)>/;
// the only contract (spec §4.3) is determinism, not this exact shape.
func (m *Manager) GetSegmentDir(id0, id1 uint64) string {
	bucket := id0 % uint64(m.dirShards)
	name := fmt.Sprintf("%016x%016x", id0, id1)
	return filepath.Join(m.root, fmt.Sprintf("%d", bucket), name)
}

// GetFileSegments fetches ino's segment chain from metadata and
// validates that every returned segment is actually owned by machine,
// failing with Eintr on mismatch (spec §4.3).
func (m *Manager) GetFileSegments(ctx context.Context, ino uint64, machine string) ([]Segment, errno.Errno) {
	segs, err := m.meta.GetFileSegments(ctx, ino, machine)
	if !err.IsSuccess() {
		return nil, err
	}
	for _, s := range segs {
		if s.Leader != machine {
			return nil, errno.Eintr
		}
	}
	return segs, errno.Esucc
}

// UpdateSegments replaces ino's full segment list in metadata. It must
// be safe to retry (spec §5): the call is a full replace, not a delta.
func (m *Manager) UpdateSegments(ctx context.Context, ino uint64, segments []Segment) errno.Errno {
	return m.meta.UpdateSegments(ctx, ino, segments)
}
