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

// Package errno defines the tagged error taxonomy shared across the
// Leader subsystem and its collaborators. Errno values are returned,
// never raised: every operation on the Registry, the Segment Manager,
// the metadata client, and the Leader itself resolves to one of these
// variants rather than an ad-hoc error type.
package errno

import "fmt"

// Errno is a tagged enumeration of the failure kinds used uniformly
// across the core. The zero value is Esucc so a freshly zeroed Errno
// reads as success.
type Errno int

const (
	// Esucc indicates the operation completed successfully.
	Esucc Errno = iota
	// Enoent indicates the requested entry does not exist (e.g. no
	// FileHandle for an inode, or metadata reporting no segments).
	Enoent
	// Eintr indicates an interrupted or failed remote call (HTTP
	// transport failure, non-2xx status, or a leader/zone mismatch
	// reported by metadata).
	Eintr
	// Eaccess indicates a permission failure.
	Eaccess
	// Eeof indicates a read reached end of file.
	Eeof
	// Enospc indicates a segment has no room for the requested write.
	Enospc
	// Ebadf indicates an operation was attempted on a bad/closed file
	// descriptor.
	Ebadf
	// Ealready indicates a duplicate operation (e.g. a handle already
	// present where a fresh insert was expected).
	Ealready
	// Enotf is a catch-all "not found" distinct from Enoent, used by
	// collaborators that need to distinguish "no such name" from "no
	// such entry in a registry".
	Enotf
)

var names = [...]string{
	Esucc:    "Esucc",
	Enoent:   "Enoent",
	Eintr:    "Eintr",
	Eaccess:  "Eaccess",
	Eeof:     "Eeof",
	Enospc:   "Enospc",
	Ebadf:    "Ebadf",
	Ealready: "Ealready",
	Enotf:    "Enotf",
}

// String renders the Errno using its tag name, falling back to the
// integer value for anything out of range.
func (e Errno) String() string {
	if int(e) >= 0 && int(e) < len(names) {
		return names[e]
	}
	return fmt.Sprintf("Errno(%d)", int(e))
}

// IsSuccess reports whether e is Esucc.
func (e Errno) IsSuccess() bool { return e == Esucc }

// IsEnoent reports whether e is Enoent. The Registry uses this to
// distinguish "no entry" from a real failure.
func (e Errno) IsEnoent() bool { return e == Enoent }

// IsEnospc reports whether e is Enospc, the trigger for the Leader's
// failover-to-new-segment retry during write.
func (e Errno) IsEnospc() bool { return e == Enospc }

// IsEof reports whether e is Eeof.
func (e Errno) IsEof() bool { return e == Eeof }

// Error implements the error interface so an Errno can be returned,
// wrapped, and compared through the standard errors package alongside
// plain Go errors raised by collaborators outside the tagged taxonomy.
func (e Errno) Error() string {
	return e.String()
}

// FromHTTPStatus maps an HTTP status code to an Errno per spec: any
// status >= 300 is Eintr, anything else is Esucc (business-level error
// codes in the JSON body are translated separately by the caller).
func FromHTTPStatus(status int) Errno {
	if status >= 300 {
		return Eintr
	}
	return Esucc
}

// FromMetaErrCode maps a metadata-service business error code to an
// Errno. 0 is success; 40003 ("no entries") maps to Enoent; anything
// else is treated as an interrupted/failed call.
func FromMetaErrCode(code int) Errno {
	switch code {
	case 0:
		return Esucc
	case 40003:
		return Enoent
	default:
		return Eintr
	}
}
