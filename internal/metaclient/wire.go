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

// result is embedded in every response body (spec §6): err_code 0
// means success, 40003 means "no entries" (maps to Enoent), anything
// else is a business failure mapped to Eintr.
type result struct {
	ErrCode int    `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
}

type reqMount struct {
	Region  string `json:"region"`
	Bucket  string `json:"bucket"`
	Zone    string `json:"zone"`
	Machine string `json:"machine"`
}

type respMount struct {
	Result result `json:"result"`
}

type reqReadDir struct {
	Region string `json:"region"`
	Bucket string `json:"bucket"`
	Ino    uint64 `json:"ino"`
	Offset int64  `json:"offset"`
}

type wireDirEntry struct {
	Ino          uint64 `json:"ino"`
	DirEntryType uint8  `json:"dir_entry_type"`
	Name         string `json:"name"`
}

type respReadDir struct {
	Result result         `json:"result"`
	Files  []wireDirEntry `json:"files"`
}

type reqFileAttr struct {
	Region string `json:"region"`
	Bucket string `json:"bucket"`
	Ino    uint64 `json:"ino"`
}

type wireFileAttr struct {
	Ino        uint64 `json:"ino"`
	Generation uint64 `json:"generation"`
	Size       uint64 `json:"size"`
	Blocks     uint64 `json:"blocks"`
	Atime      int64  `json:"atime"`
	Mtime      int64  `json:"mtime"`
	Ctime      int64  `json:"ctime"`
	Kind       uint32 `json:"kind"`
	Perm       uint32 `json:"perm"`
	Nlink      uint32 `json:"nlink"`
	UID        uint32 `json:"uid"`
	GID        uint32 `json:"gid"`
	Rdev       uint32 `json:"rdev"`
	Flags      uint32 `json:"flags"`
}

type respFileAttr struct {
	Result result       `json:"result"`
	Attr   wireFileAttr `json:"attr"`
}

type reqDirFileAttr struct {
	Region string `json:"region"`
	Bucket string `json:"bucket"`
	Ino    uint64 `json:"ino"`
	Name   string `json:"name"`
}

type reqFileLeader struct {
	Region  string `json:"region"`
	Bucket  string `json:"bucket"`
	Zone    string `json:"zone"`
	Machine string `json:"machine"`
	Ino     uint64 `json:"ino"`
	Flag    uint8  `json:"flag"`
}

type wireLeaderInfo struct {
	Zone   string `json:"zone"`
	Leader string `json:"leader"`
}

type respFileLeader struct {
	Result     result         `json:"result"`
	LeaderInfo wireLeaderInfo `json:"leader_info"`
}

type wireBlock struct {
	Offset       uint64 `json:"offset"`
	SegStartAddr uint64 `json:"seg_start_addr"`
	SegEndAddr   uint64 `json:"seg_end_addr"`
	Size         int64  `json:"size"`
}

type wireSegment struct {
	SegID0  uint64      `json:"seg_id0"`
	SegID1  uint64      `json:"seg_id1"`
	Leader  string      `json:"leader"`
	MaxSize uint64      `json:"max_size"`
	Blocks  []wireBlock `json:"blocks"`
}

type reqGetSegments struct {
	Region string `json:"region"`
	Bucket string `json:"bucket"`
	Ino    uint64 `json:"ino"`
}

type respGetSegments struct {
	Result   result        `json:"result"`
	Segments []wireSegment `json:"segments"`
}

type reqUpdateSegments struct {
	Region   string        `json:"region"`
	Bucket   string        `json:"bucket"`
	Ino      uint64        `json:"ino"`
	Segments []wireSegment `json:"segments"`
}

type respUpdateSegments struct {
	Result result `json:"result"`
}
