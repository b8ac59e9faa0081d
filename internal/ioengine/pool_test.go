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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigfs/fsclient/internal/errno"
)

func TestNewPool_RejectsZeroSize(t *testing.T) {
	pool, err := NewPool(0, nil)
	assert.Error(t, err)
	assert.Nil(t, pool)
}

func TestOpenWriteRead_RoundTrip(t *testing.T) {
	pool, err := NewPool(2, nil)
	require.NoError(t, err)
	defer pool.Stop(context.Background())

	dir := t.TempDir()
	ctx := context.Background()

	e := pool.Open(ctx, 1, 2, dir)
	require.Equal(t, errno.Esucc, e)

	wr, e := pool.Write(ctx, 1, 2, 1<<20, dir, 0, []byte("hello"))
	require.Equal(t, errno.Esucc, e)
	assert.Equal(t, uint64(0), wr.Offset)
	assert.EqualValues(t, 5, wr.Nwrite)

	data, e := pool.Read(ctx, 1, 2, dir, 0, 5)
	require.Equal(t, errno.Esucc, e)
	assert.Equal(t, "hello", string(data))
}

func TestWrite_EnospcOnOverflowIsNoPartialWrite(t *testing.T) {
	pool, err := NewPool(1, nil)
	require.NoError(t, err)
	defer pool.Stop(context.Background())

	dir := t.TempDir()
	ctx := context.Background()

	_, e := pool.Write(ctx, 1, 1, 4, dir, 0, []byte("abcdefg"))
	assert.Equal(t, errno.Enospc, e)

	data, e := pool.Read(ctx, 1, 1, dir, 0, 10)
	require.Equal(t, errno.Eeof, e)
	assert.Empty(t, data)
}

func TestRead_PastEndOfFileIsEeof(t *testing.T) {
	pool, err := NewPool(1, nil)
	require.NoError(t, err)
	defer pool.Stop(context.Background())

	dir := t.TempDir()
	ctx := context.Background()

	_, e := pool.Write(ctx, 5, 5, 1<<20, dir, 0, []byte("ab"))
	require.Equal(t, errno.Esucc, e)

	_, e = pool.Read(ctx, 5, 5, dir, 2, 1)
	assert.Equal(t, errno.Eeof, e)
}

func TestOpen_IsIdempotent(t *testing.T) {
	pool, err := NewPool(1, nil)
	require.NoError(t, err)
	defer pool.Stop(context.Background())

	dir := t.TempDir()
	ctx := context.Background()

	assert.Equal(t, errno.Esucc, pool.Open(ctx, 9, 9, dir))
	assert.Equal(t, errno.Esucc, pool.Open(ctx, 9, 9, dir))
}

func TestWrite_SameSegmentFromConcurrentCallersIsSerialized(t *testing.T) {
	pool, err := NewPool(4, nil)
	require.NoError(t, err)
	defer pool.Stop(context.Background())

	dir := t.TempDir()
	ctx := context.Background()
	require.Equal(t, errno.Esucc, pool.Open(ctx, 3, 3, dir))

	const n = 50
	var wg sync.WaitGroup
	offsets := make([]uint64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, e := pool.Write(ctx, 3, 3, 1<<20, dir, uint64(i), []byte{byte(i)})
			require.Equal(t, errno.Esucc, e)
			offsets[i] = r.Offset
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, n)
	for _, off := range offsets {
		assert.False(t, seen[off], "offset %d reused, writes were not serialized", off)
		seen[off] = true
	}
}

func TestStop_FailsSubsequentCallsFast(t *testing.T) {
	pool, err := NewPool(1, nil)
	require.NoError(t, err)

	require.NoError(t, pool.Stop(context.Background()))

	e := pool.Open(context.Background(), 1, 1, t.TempDir())
	assert.Equal(t, errno.Ebadf, e)
}
