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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigfs/fsclient/internal/errno"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := NewClient(Config{
		BaseURL: srv.URL,
		Region:  "us-east-1",
		Bucket:  "bucket-a",
		Zone:    "zone-a",
		Machine: "host-a",
		Retries: 3,
	})
	return c, srv.Close
}

func TestMount_Success(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/dir", r.URL.Path)
		assert.Equal(t, http.MethodPut, r.Method)
		var req reqMount
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "host-a", req.Machine)
		json.NewEncoder(w).Encode(respMount{Result: result{ErrCode: 0}})
	})
	defer closeFn()

	e := c.Mount(context.Background())
	assert.Equal(t, errno.Esucc, e)
}

func TestGetFileSegments_NotFoundMapsToEnoent(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(respGetSegments{Result: result{ErrCode: 40003}})
	})
	defer closeFn()

	segs, e := c.GetFileSegments(context.Background(), 7, "host-a")
	assert.Nil(t, segs)
	assert.Equal(t, errno.Enoent, e)
}

func TestGetFileSegments_RoundTrip(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(respGetSegments{
			Result: result{ErrCode: 0},
			Segments: []wireSegment{
				{
					SegID0:  1,
					SegID1:  2,
					Leader:  "host-a",
					MaxSize: 1 << 20,
					Blocks: []wireBlock{
						{Offset: 0, SegStartAddr: 0, SegEndAddr: 10, Size: 10},
					},
				},
			},
		})
	})
	defer closeFn()

	segs, e := c.GetFileSegments(context.Background(), 7, "host-a")
	require.Equal(t, errno.Esucc, e)
	require.Len(t, segs, 1)
	assert.Equal(t, uint64(1), segs[0].SegID0)
	assert.Equal(t, uint64(2), segs[0].SegID1)
	assert.Equal(t, "host-a", segs[0].Leader)
	require.Len(t, segs[0].Blocks, 1)
	assert.Equal(t, int64(10), segs[0].Blocks[0].Size)
}

func TestGetFileSegments_LeaderMismatchIsNotOverridden(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(respGetSegments{
			Result:   result{ErrCode: 0},
			Segments: []wireSegment{{SegID0: 1, SegID1: 1, Leader: "host-b"}},
		})
	})
	defer closeFn()

	segs, e := c.GetFileSegments(context.Background(), 7, "host-a")
	require.Equal(t, errno.Esucc, e)
	require.Len(t, segs, 1)
	assert.Equal(t, "host-b", segs[0].Leader)
}

func TestUpdateSegments_StatusAboveThresholdIsEintr(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer closeFn()

	e := c.UpdateSegments(context.Background(), 7, nil)
	assert.Equal(t, errno.Eintr, e)
}

func TestDoJSON_RetriesTransportFailureThenSucceeds(t *testing.T) {
	var attempts int32
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) <= 2 {
			// Simulate a transport failure by closing the connection
			// without a response.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		json.NewEncoder(w).Encode(respMount{Result: result{ErrCode: 0}})
	})
	defer closeFn()

	e := c.Mount(context.Background())
	assert.Equal(t, errno.Esucc, e)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(3))
}

func TestFileLeader_Election(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req reqFileLeader
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, uint8(1), req.Flag)
		json.NewEncoder(w).Encode(respFileLeader{
			Result:     result{ErrCode: 0},
			LeaderInfo: wireLeaderInfo{Zone: "zone-a", Leader: "host-a"},
		})
	})
	defer closeFn()

	fl, e := c.FileLeader(context.Background(), 42, 1)
	require.Equal(t, errno.Esucc, e)
	assert.Equal(t, "host-a", fl.Leader)
	assert.Equal(t, uint64(42), fl.Ino)
}

func TestReadDir(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(respReadDir{
			Result: result{ErrCode: 0},
			Files: []wireDirEntry{
				{Ino: 2, DirEntryType: 1, Name: "a.txt"},
				{Ino: 3, DirEntryType: 2, Name: "subdir"},
			},
		})
	})
	defer closeFn()

	entries, e := c.ReadDir(context.Background(), 1, 0)
	require.Equal(t, errno.Esucc, e)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].Name)
}

func TestFileAttr(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(respFileAttr{
			Result: result{ErrCode: 0},
			Attr:   wireFileAttr{Ino: 9, Size: 1024, Kind: 1},
		})
	})
	defer closeFn()

	attr, e := c.FileAttr(context.Background(), 9)
	require.Equal(t, errno.Esucc, e)
	assert.EqualValues(t, 1024, attr.Size)
}
