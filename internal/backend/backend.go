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

// Package backend defines the Store capability injected into I/O
// workers for staging a closed segment file to cloud object storage.
// The capability's internals are out of scope; only its contract
// matters to the core (spec §1). Store must be safe for concurrent
// use since every worker shares one instance.
package backend

import (
	"context"
	"errors"
)

// Store uploads and fetches whole segment files, keyed by their
// (id0, id1) pair, under a caller-chosen object prefix.
type Store interface {
	PutSegment(ctx context.Context, id0, id1 uint64, localPath string) error
	GetSegment(ctx context.Context, id0, id1 uint64, localPath string) error
}

// NoopStore discards uploads and fails downloads; useful for local-only
// runs and tests that never need object storage.
type NoopStore struct{}

func (NoopStore) PutSegment(ctx context.Context, id0, id1 uint64, localPath string) error {
	return nil
}

func (NoopStore) GetSegment(ctx context.Context, id0, id1 uint64, localPath string) error {
	return errors.New("backend: no object store configured")
}
