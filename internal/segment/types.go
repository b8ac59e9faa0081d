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

// Package segment holds the data model shared by the Registry, the
// Segment Manager and the Leader: Block, Segment, FileHandle and the
// worker-facing BlockIo receipt (spec §3).
package segment

// Block represents a contiguous region of file bytes physically stored
// at [SegStartAddr, SegEndAddr) within one segment.
//
// INVARIANT: SegEndAddr == SegStartAddr + Size, and Size > 0.
type Block struct {
	Ino        uint64
	Generation uint64
	// Offset is the position within the logical file this block covers.
	Offset uint64
	// SegStartAddr/SegEndAddr are positions within the segment file.
	SegStartAddr uint64
	SegEndAddr   uint64
	Size         int64
}

// Copy returns an independent copy of b.
func (b Block) Copy() Block { return b }

// Segment is an append-only unit of physical storage: an ordered
// sequence of Blocks backed by one on-disk segment file.
//
// INVARIANT: usage (sum of block sizes) <= MaxSize.
// INVARIANT: a Segment belongs to exactly one leader machine at a time,
// enforced by metadata, not by this type.
type Segment struct {
	SegID0  uint64
	SegID1  uint64
	Leader  string
	MaxSize uint64
	Blocks  []Block
}

// Copy returns a deep copy of s: the Blocks slice is not shared with
// the original.
func (s Segment) Copy() Segment {
	out := Segment{
		SegID0:  s.SegID0,
		SegID1:  s.SegID1,
		Leader:  s.Leader,
		MaxSize: s.MaxSize,
		Blocks:  make([]Block, len(s.Blocks)),
	}
	copy(out.Blocks, s.Blocks)
	return out
}

// Usage returns the sum of all block sizes currently recorded in s.
func (s Segment) Usage() uint64 {
	var total uint64
	for _, b := range s.Blocks {
		total += uint64(b.Size)
	}
	return total
}

// IsEmpty reports whether s has no recorded blocks yet.
func (s Segment) IsEmpty() bool { return len(s.Blocks) == 0 }

// AddBlock appends a block describing nwrite bytes written at
// segStartOffset for the given ino/offset. Generation is always 0: the
// Leader's write path never bumps it (spec §4.5 write, step 3).
func (s *Segment) AddBlock(ino uint64, offset uint64, segStartOffset uint64, nwrite uint32) {
	s.Blocks = append(s.Blocks, Block{
		Ino:          ino,
		Generation:   0,
		Offset:       offset,
		SegStartAddr: segStartOffset,
		SegEndAddr:   segStartOffset + uint64(nwrite),
		Size:         int64(nwrite),
	})
}

// FileHandle is the Registry's unit of ownership: an open file's
// segment chain on this leader machine (spec §3, §4.4).
//
// INVARIANT: every Segment in Segments has Segment.Leader == Leader.
// The last element of Segments is the tail, the sole write target.
type FileHandle struct {
	Ino      uint64
	Leader   string
	Segments []Segment
}

// Copy returns a deep copy of h, including independent copies of every
// Segment (and transitively every Block). The Registry's get operation
// always returns a Copy so callers cannot mutate stored state (spec
// §4.4 invariant (i)).
func (h FileHandle) Copy() FileHandle {
	out := FileHandle{
		Ino:      h.Ino,
		Leader:   h.Leader,
		Segments: make([]Segment, len(h.Segments)),
	}
	for i, s := range h.Segments {
		out.Segments[i] = s.Copy()
	}
	return out
}

// Tail returns the last segment in the chain and true, or the zero
// Segment and false if the handle has no segments yet.
func (h FileHandle) Tail() (Segment, bool) {
	if len(h.Segments) == 0 {
		return Segment{}, false
	}
	return h.Segments[len(h.Segments)-1], true
}

// BlockIo is the result the Leader returns from a successful write: the
// identity of the segment written to plus the placement of the new
// block within it.
type BlockIo struct {
	ID0    uint64
	ID1    uint64
	Offset uint64
	Size   uint32
}
