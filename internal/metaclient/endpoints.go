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
)

// Mount registers this machine as present for region/bucket/zone,
// letting the metadata service route FileLeader elections to it (spec
// §6). Called once at startup.
func (c *Client) Mount(ctx context.Context) errno.Errno {
	req := reqMount{Region: c.cfg.Region, Bucket: c.cfg.Bucket, Zone: c.cfg.Zone, Machine: c.cfg.Machine}
	var resp respMount
	status, err := c.doJSON(ctx, http.MethodPut, "/v1/dir", req, &resp)
	return errnoFor(status, err, resp.Result.ErrCode)
}

// ReadDir lists the entries of the directory named by ino, starting
// after offset (spec §6).
func (c *Client) ReadDir(ctx context.Context, ino uint64, offset int64) ([]DirEntry, errno.Errno) {
	req := reqReadDir{Region: c.cfg.Region, Bucket: c.cfg.Bucket, Ino: ino, Offset: offset}
	var resp respReadDir
	status, err := c.doJSON(ctx, http.MethodGet, "/v1/dir/files", req, &resp)
	e := errnoFor(status, err, resp.Result.ErrCode)
	if !e.IsSuccess() {
		return nil, e
	}

	entries := make([]DirEntry, len(resp.Files))
	for i, f := range resp.Files {
		entries[i] = DirEntry{Ino: f.Ino, DirEntryType: f.DirEntryType, Name: f.Name}
	}
	return entries, errno.Esucc
}

// FileAttr fetches the POSIX attributes recorded for ino.
func (c *Client) FileAttr(ctx context.Context, ino uint64) (FileAttr, errno.Errno) {
	req := reqFileAttr{Region: c.cfg.Region, Bucket: c.cfg.Bucket, Ino: ino}
	var resp respFileAttr
	status, err := c.doJSON(ctx, http.MethodGet, "/v1/file/attr", req, &resp)
	e := errnoFor(status, err, resp.Result.ErrCode)
	if !e.IsSuccess() {
		return FileAttr{}, e
	}
	return fromWireFileAttr(resp.Attr), errno.Esucc
}

// DirFileAttr fetches the POSIX attributes of the child named name
// within directory ino, used to resolve a single path component
// without a full ReadDir (spec §6).
func (c *Client) DirFileAttr(ctx context.Context, ino uint64, name string) (FileAttr, errno.Errno) {
	req := reqDirFileAttr{Region: c.cfg.Region, Bucket: c.cfg.Bucket, Ino: ino, Name: name}
	var resp respFileAttr
	status, err := c.doJSON(ctx, http.MethodGet, "/v1/dir/file/attr", req, &resp)
	e := errnoFor(status, err, resp.Result.ErrCode)
	if !e.IsSuccess() {
		return FileAttr{}, e
	}
	return fromWireFileAttr(resp.Attr), errno.Esucc
}

// FileLeader asks the metadata service to elect (flag=1) or simply
// report (flag=0) the leader machine for ino (spec §4.3, §6).
func (c *Client) FileLeader(ctx context.Context, ino uint64, flag uint8) (FileLeader, errno.Errno) {
	req := reqFileLeader{
		Region:  c.cfg.Region,
		Bucket:  c.cfg.Bucket,
		Zone:    c.cfg.Zone,
		Machine: c.cfg.Machine,
		Ino:     ino,
		Flag:    flag,
	}
	var resp respFileLeader
	status, err := c.doJSON(ctx, http.MethodGet, "/v1/file/leader", req, &resp)
	e := errnoFor(status, err, resp.Result.ErrCode)
	if !e.IsSuccess() {
		return FileLeader{}, e
	}
	return FileLeader{Ino: ino, Zone: resp.LeaderInfo.Zone, Leader: resp.LeaderInfo.Leader}, errno.Esucc
}

func fromWireFileAttr(w wireFileAttr) FileAttr {
	return FileAttr{
		Ino:        w.Ino,
		Generation: w.Generation,
		Size:       w.Size,
		Blocks:     w.Blocks,
		Atime:      w.Atime,
		Mtime:      w.Mtime,
		Ctime:      w.Ctime,
		Kind:       w.Kind,
		Perm:       w.Perm,
		Nlink:      w.Nlink,
		UID:        w.UID,
		GID:        w.GID,
		Rdev:       w.Rdev,
		Flags:      w.Flags,
	}
}
