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
	"io"
	"os"
	"path/filepath"

	"github.com/yigfs/fsclient/internal/backend"
	"github.com/yigfs/fsclient/internal/errno"
	"github.com/yigfs/fsclient/internal/logger"
)

// segFile tracks one open segment's descriptor and its append cursor,
// the number of bytes already written (== current file size, since
// every write lands at the cursor and the file is never truncated).
type segFile struct {
	f   *os.File
	cur uint64
}

// worker is a single-threaded Disk I/O Worker: it owns a shard of
// segment file descriptors and processes inbox messages strictly in
// FIFO order, which is the entire source of this subsystem's
// per-segment serializability.
type worker struct {
	id    int
	inbox chan message
	done  chan struct{}
	fds   map[segKey]*segFile
	store backend.Store
}

func newWorker(id int, store backend.Store) *worker {
	return &worker{
		id:    id,
		inbox: make(chan message, 64),
		done:  make(chan struct{}),
		fds:   make(map[segKey]*segFile),
		store: store,
	}
}

func (w *worker) run() {
	defer close(w.done)
	for msg := range w.inbox {
		switch m := msg.(type) {
		case openMsg:
			w.handleOpen(m)
		case writeMsg:
			w.handleWrite(m)
		case readMsg:
			w.handleRead(m)
		case closeMsg:
			w.handleClose(m)
		}
	}
	for _, sf := range w.fds {
		sf.f.Close()
	}
}

func (w *worker) open(key segKey, dir string) (*segFile, errno.Errno) {
	if sf, ok := w.fds[key]; ok {
		return sf, errno.Esucc
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Errorf("ioengine: worker %d mkdir %s: %v", w.id, dir, err)
		return nil, errno.Eintr
	}
	path := filepath.Join(dir, segmentFileName(key.id0, key.id1))
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		logger.Errorf("ioengine: worker %d open %s: %v", w.id, path, err)
		return nil, errno.Eintr
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errno.Eintr
	}
	sf := &segFile{f: f, cur: uint64(info.Size())}
	w.fds[key] = sf
	return sf, errno.Esucc
}

func (w *worker) handleOpen(m openMsg) {
	_, e := w.open(segKey{m.id0, m.id1}, m.dir)
	reply(m.reply, e)
}

func (w *worker) handleWrite(m writeMsg) {
	key := segKey{m.id0, m.id1}
	sf, e := w.open(key, m.dir)
	if !e.IsSuccess() {
		reply(m.reply, writeResult{Err: e})
		return
	}

	if sf.cur+uint64(len(m.data)) > m.maxSize {
		reply(m.reply, writeResult{Err: errno.Enospc})
		return
	}

	start := sf.cur
	written := 0
	for written < len(m.data) {
		n, err := sf.f.WriteAt(m.data[written:], int64(start)+int64(written))
		if err != nil {
			logger.Errorf("ioengine: worker %d write %s: %v", w.id, sf.f.Name(), err)
			reply(m.reply, writeResult{Err: errno.Eintr})
			return
		}
		written += n
	}
	sf.cur += uint64(written)

	reply(m.reply, writeResult{Err: errno.Esucc, Offset: start, Nwrite: uint32(written)})
}

func (w *worker) handleRead(m readMsg) {
	key := segKey{m.id0, m.id1}
	sf, e := w.open(key, m.dir)
	if !e.IsSuccess() {
		reply(m.reply, readResult{Err: e})
		return
	}

	if m.offset >= sf.cur {
		reply(m.reply, readResult{Err: errno.Eeof})
		return
	}

	remaining := sf.cur - m.offset
	want := uint64(m.size)
	if want > remaining {
		want = remaining
	}
	buf := make([]byte, want)
	n, err := sf.f.ReadAt(buf, int64(m.offset))
	if err != nil && err != io.EOF {
		logger.Errorf("ioengine: worker %d read %s: %v", w.id, sf.f.Name(), err)
		reply(m.reply, readResult{Err: errno.Eintr})
		return
	}
	reply(m.reply, readResult{Err: errno.Esucc, Data: buf[:n]})
}

func (w *worker) handleClose(m closeMsg) {
	key := segKey{m.id0, m.id1}
	sf, ok := w.fds[key]
	if !ok {
		return
	}
	delete(w.fds, key)

	path := sf.f.Name()
	if err := sf.f.Close(); err != nil {
		logger.Warnf("ioengine: worker %d close %s: %v", w.id, path, err)
	}

	if w.store == nil {
		return
	}
	go func() {
		if err := w.store.PutSegment(context.Background(), m.id0, m.id1, path); err != nil {
			logger.Warnf("ioengine: worker %d stage %s to backend: %v", w.id, path, err)
		}
	}()
}

// reply sends v on ch without blocking forever on a receiver that has
// gone away: the spec's contract is "a send to a dropped receiver is
// silently dropped," which a buffered channel of size 1 gives us for
// free since the caller is expected to read exactly once.
func reply[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func segmentFileName(id0, id1 uint64) string {
	return hex16(id0) + hex16(id1)
}

func hex16(v uint64) string {
	const hexDigits = "0123456789abcdef"
	b := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		b[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(b)
}
