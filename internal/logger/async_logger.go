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

package logger

import (
	"fmt"
	"io"
	"os"
)

// AsyncLogger decouples log writers (FUSE op handlers, worker
// goroutines) from the latency of the underlying writer, typically a
// rotating file. Writes that would block because the internal buffer
// is full are dropped rather than slowing down the caller.
type AsyncLogger struct {
	w    io.Writer
	ch   chan []byte
	done chan struct{}
}

// NewAsyncLogger starts a background goroutine draining writes to w
// and returns immediately. bufSize bounds how many pending writes may
// queue before new writes are dropped.
func NewAsyncLogger(w io.Writer, bufSize int) *AsyncLogger {
	l := &AsyncLogger{
		w:    w,
		ch:   make(chan []byte, bufSize),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *AsyncLogger) run() {
	defer close(l.done)
	for b := range l.ch {
		_, _ = l.w.Write(b)
	}
}

// Write implements io.Writer. It never blocks: if the buffer is full,
// the message is dropped and a warning is written to stderr.
func (l *AsyncLogger) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)

	select {
	case l.ch <- buf:
	default:
		fmt.Fprintln(os.Stderr, "asynclogger: log buffer is full, dropping message.")
	}
	return len(p), nil
}

// Close drains the remaining buffer and closes the underlying writer
// if it implements io.Closer.
func (l *AsyncLogger) Close() error {
	close(l.ch)
	<-l.done
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
