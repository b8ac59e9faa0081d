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

package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigfs/fsclient/internal/errno"
	"github.com/yigfs/fsclient/internal/segment"
)

func TestGet_MissingIsEnoent(t *testing.T) {
	r := New()
	defer r.Stop()

	_, e := r.Get(99)
	assert.Equal(t, errno.Enoent, e)
}

func TestAddThenGet_ReturnsIndependentCopy(t *testing.T) {
	r := New()
	defer r.Stop()

	h := segment.FileHandle{Ino: 7, Leader: "host-a", Segments: []segment.Segment{{SegID0: 1, SegID1: 1, MaxSize: 100}}}
	require.Equal(t, errno.Esucc, r.Add(h))

	got, e := r.Get(7)
	require.Equal(t, errno.Esucc, e)
	require.Len(t, got.Segments, 1)

	got.Segments[0].MaxSize = 999
	got.Segments[0].Blocks = append(got.Segments[0].Blocks, segment.Block{Size: 1})

	again, e := r.Get(7)
	require.Equal(t, errno.Esucc, e)
	assert.EqualValues(t, 100, again.Segments[0].MaxSize)
	assert.Empty(t, again.Segments[0].Blocks)
}

func TestAdd_OverwritesExisting(t *testing.T) {
	r := New()
	defer r.Stop()

	require.Equal(t, errno.Esucc, r.Add(segment.FileHandle{Ino: 1, Leader: "a"}))
	require.Equal(t, errno.Esucc, r.Add(segment.FileHandle{Ino: 1, Leader: "b"}))

	got, e := r.Get(1)
	require.Equal(t, errno.Esucc, e)
	assert.Equal(t, "b", got.Leader)
}

func TestDel_MissingIsEnoent(t *testing.T) {
	r := New()
	defer r.Stop()

	assert.Equal(t, errno.Enoent, r.Del(5))
}

func TestDel_RemovesEntry(t *testing.T) {
	r := New()
	defer r.Stop()

	require.Equal(t, errno.Esucc, r.Add(segment.FileHandle{Ino: 3}))
	assert.Equal(t, errno.Esucc, r.Del(3))
	_, e := r.Get(3)
	assert.Equal(t, errno.Enoent, e)
}

func TestAddSegment_MissingHandleIsEnoent(t *testing.T) {
	r := New()
	defer r.Stop()

	e := r.AddSegment(11, segment.Segment{SegID0: 1, SegID1: 1})
	assert.Equal(t, errno.Enoent, e)
}

func TestAddSegment_BecomesNewTail(t *testing.T) {
	r := New()
	defer r.Stop()

	require.Equal(t, errno.Esucc, r.Add(segment.FileHandle{Ino: 1, Segments: []segment.Segment{{SegID0: 1, SegID1: 1}}}))
	require.Equal(t, errno.Esucc, r.AddSegment(1, segment.Segment{SegID0: 2, SegID1: 2}))

	last, e := r.GetLastSegment(1)
	require.Equal(t, errno.Esucc, e)
	assert.Equal(t, uint64(2), last.ID0)
}

func TestAddBlock_OrderingIsTotal(t *testing.T) {
	r := New()
	defer r.Stop()

	require.Equal(t, errno.Esucc, r.Add(segment.FileHandle{Ino: 1, Segments: []segment.Segment{{SegID0: 1, SegID1: 1, MaxSize: 1000}}}))

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := r.AddBlock(1, 1, 1, segment.Block{Offset: uint64(i), Size: 1})
			require.Equal(t, errno.Esucc, e)
		}(i)
	}
	wg.Wait()

	got, e := r.Get(1)
	require.Equal(t, errno.Esucc, e)
	assert.Len(t, got.Segments[0].Blocks, n)
}

func TestAddBlock_MissingSegmentIsEnoent(t *testing.T) {
	r := New()
	defer r.Stop()

	require.Equal(t, errno.Esucc, r.Add(segment.FileHandle{Ino: 1, Segments: []segment.Segment{{SegID0: 1, SegID1: 1}}}))
	e := r.AddBlock(1, 9, 9, segment.Block{})
	assert.Equal(t, errno.Enoent, e)
}

func TestGetLastSegment_NoSegmentsIsEnoent(t *testing.T) {
	r := New()
	defer r.Stop()

	require.Equal(t, errno.Esucc, r.Add(segment.FileHandle{Ino: 1}))
	_, e := r.GetLastSegment(1)
	assert.Equal(t, errno.Enoent, e)
}

func TestStop_IsIdempotentAndFailsSubsequentOps(t *testing.T) {
	r := New()
	r.Stop()
	r.Stop()

	_, e := r.Get(1)
	assert.Equal(t, errno.Ebadf, e)
	assert.Equal(t, errno.Ebadf, r.Add(segment.FileHandle{Ino: 1}))
}

func TestIdempotentAdd_LeavesSingleEntry(t *testing.T) {
	r := New()
	defer r.Stop()

	h := segment.FileHandle{Ino: 7}
	require.Equal(t, errno.Esucc, r.Add(h))
	require.Equal(t, errno.Esucc, r.Add(h))

	_, e := r.Get(7)
	assert.Equal(t, errno.Esucc, e)
}
