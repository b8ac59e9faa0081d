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

// Package metaclient is a typed RPC wrapper over the metadata
// service's HTTP/JSON API (spec §6). Every call is idempotent by
// construction (read-only, or replace-all) so the transport layer is
// free to retry without a dedup scheme (spec §5).
package metaclient

// DirEntry is one entry returned by ReadDir.
type DirEntry struct {
	Ino          uint64
	DirEntryType uint8
	Name         string
}

// FileAttr mirrors the subset of POSIX attributes the metadata service
// tracks per inode. Generation is carried through even though the
// Leader's own write path always records generation 0 (spec §3's Block
// entity); a complete client still needs it for stat-like calls.
type FileAttr struct {
	Ino        uint64
	Generation uint64
	Size       uint64
	Blocks     uint64
	Atime      int64
	Mtime      int64
	Ctime      int64
	Kind       uint32
	Perm       uint32
	Nlink      uint32
	UID        uint32
	GID        uint32
	Rdev       uint32
	Flags      uint32
}

// FileLeader is the machine (and zone) metadata designates as the
// single writer for an inode at this moment (spec §3 "Leader").
type FileLeader struct {
	Ino   uint64
	Zone  string
	Leader string
}
