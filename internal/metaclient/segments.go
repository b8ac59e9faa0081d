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

package metaclient

import (
	"context"
	"net/http"

	"github.com/yigfs/fsclient/internal/errno"
	"github.com/yigfs/fsclient/internal/segment"
)

func toWireSegment(s segment.Segment) wireSegment {
	blocks := make([]wireBlock, len(s.Blocks))
	for i, b := range s.Blocks {
		blocks[i] = wireBlock{
			Offset:       b.Offset,
			SegStartAddr: b.SegStartAddr,
			SegEndAddr:   b.SegEndAddr,
			Size:         b.Size,
		}
	}
	return wireSegment{
		SegID0:  s.SegID0,
		SegID1:  s.SegID1,
		Leader:  s.Leader,
		MaxSize: s.MaxSize,
		Blocks:  blocks,
	}
}

func fromWireSegment(ws wireSegment) segment.Segment {
	blocks := make([]segment.Block, len(ws.Blocks))
	for i, b := range ws.Blocks {
		blocks[i] = segment.Block{
			Offset:       b.Offset,
			SegStartAddr: b.SegStartAddr,
			SegEndAddr:   b.SegEndAddr,
			Size:         b.Size,
		}
	}
	return segment.Segment{
		SegID0:  ws.SegID0,
		SegID1:  ws.SegID1,
		Leader:  ws.Leader,
		MaxSize: ws.MaxSize,
		Blocks:  blocks,
	}
}

// GetFileSegments fetches the segment chain recorded for ino. The
// returned Errno is Enoent when metadata has no entries for ino, or
// Eintr on any transport/business failure. machine is used only to
// fill in a segment whose wire Leader is empty; the leader-ownership
// check (spec §4.3) is performed by the caller (segment.Manager).
func (c *Client) GetFileSegments(ctx context.Context, ino uint64, machine string) ([]segment.Segment, errno.Errno) {
	req := reqGetSegments{Region: c.cfg.Region, Bucket: c.cfg.Bucket, Ino: ino}
	var resp respGetSegments
	status, err := c.doJSON(ctx, http.MethodGet, "/v1/file/segments", req, &resp)
	e := errnoFor(status, err, resp.Result.ErrCode)
	if !e.IsSuccess() {
		return nil, e
	}

	segs := make([]segment.Segment, len(resp.Segments))
	for i, ws := range resp.Segments {
		s := fromWireSegment(ws)
		if s.Leader == "" {
			s.Leader = machine
		}
		segs[i] = s
	}
	return segs, errno.Esucc
}

// UpdateSegments replaces ino's full segment list in metadata (spec
// §4.3, §4.5 close). Safe to retry: it's a full replace, not a delta.
func (c *Client) UpdateSegments(ctx context.Context, ino uint64, segments []segment.Segment) errno.Errno {
	wire := make([]wireSegment, len(segments))
	for i, s := range segments {
		wire[i] = toWireSegment(s)
	}
	req := reqUpdateSegments{Region: c.cfg.Region, Bucket: c.cfg.Bucket, Ino: ino, Segments: wire}
	var resp respUpdateSegments
	status, err := c.doJSON(ctx, http.MethodPut, "/v1/file/segments", req, &resp)
	return errnoFor(status, err, resp.Result.ErrCode)
}
