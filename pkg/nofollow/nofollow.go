// Copyright 2026 The gVisor Authors.
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

//go:build linux || darwin || freebsd

// Package nofollow implements symlink-safe "at" operations for a host-side
// passthrough file server: extended attributes, timestamps and special node
// creation on an entry named relative to a caller-owned directory
// descriptor.
//
// The guest controls the names handed to these operations and can swap an
// entry for a symlink at any time. Every operation therefore resolves the
// final component exactly once, through a mechanism that cannot follow a
// symlink: a /proc magic link, a no-follow locator descriptor, or the native
// *at syscall. Which mechanism is used is fixed at build time, see Variant.
//
// Directory descriptors passed in are borrowed and never closed. Any
// descriptor opened internally is closed before the call returns.
package nofollow

import (
	"strings"

	"github.com/passthrough/nofollow/pkg/safeopen"
	"golang.org/x/sys/unix"
)

// Variant identifies the host platform backend compiled into the package.
type Variant int

const (
	// MagicLink resolves entries through /proc/self/fd magic links and uses
	// the l*xattr family on the synthetic path.
	MagicLink Variant = iota

	// GenericPOSIX opens a no-follow locator descriptor and operates on it.
	GenericPOSIX

	// DescriptorSubstitution is GenericPOSIX plus node creation through a
	// thread-local working directory, for hosts without mknodat(2).
	DescriptorSubstitution
)

// String implements fmt.Stringer.
func (v Variant) String() string {
	switch v {
	case MagicLink:
		return "magic-link-capable"
	case GenericPOSIX:
		return "generic-posix"
	case DescriptorSubstitution:
		return "descriptor-substitution-required"
	}
	return "unknown"
}

// SetMode controls whether SetXattr may create or replace an attribute.
type SetMode int

const (
	// SetEither creates the attribute or replaces its value.
	SetEither SetMode = iota

	// SetCreate fails with EEXIST if the attribute exists.
	SetCreate

	// SetReplace fails with ENODATA (ENOATTR) if the attribute is absent.
	SetReplace
)

// NodeKind is the type of node created by Mknod.
type NodeKind uint32

// Node kinds accepted by Mknod.
const (
	NodeRegular NodeKind = unix.S_IFREG
	NodeFIFO    NodeKind = unix.S_IFIFO
	NodeSocket  NodeKind = unix.S_IFSOCK
	NodeChar    NodeKind = unix.S_IFCHR
	NodeBlock   NodeKind = unix.S_IFBLK
)

// String implements fmt.Stringer.
func (k NodeKind) String() string {
	switch k {
	case NodeRegular:
		return "regular"
	case NodeFIFO:
		return "fifo"
	case NodeSocket:
		return "socket"
	case NodeChar:
		return "char"
	case NodeBlock:
		return "block"
	}
	return "unknown"
}

// Timestamp is a point in time with nanosecond resolution. Nsec may also be
// UtimeNow or UtimeOmit, the special values of utimensat(2).
type Timestamp struct {
	Sec  int64
	Nsec int64
}

func (t Timestamp) valid() bool {
	return t.Nsec == UtimeNow || t.Nsec == UtimeOmit || (t.Nsec >= 0 && t.Nsec < 1e9)
}

// Timestamps holds the access and modification times set by Utimes.
type Timestamps struct {
	Atime Timestamp
	Mtime Timestamp
}

// Host is the set of no-follow operations. All methods take a directory
// descriptor that the caller keeps ownership of, and a single path
// component name.
type Host interface {
	// GetXattr reads attribute attr into dest and returns its length. With
	// an empty dest only the required length is returned.
	//
	// If name is a symlink its target is never read. The error then depends
	// on the variant: MagicLink reports the symlink's own attributes, so a
	// user.* attribute is NotFound (ENODATA); the other variants refuse the
	// entry with Unsupported (ELOOP).
	GetXattr(dirFD int, name, attr string, dest []byte) (int, error)

	// ListXattr writes the NUL-terminated attribute names into dest and
	// returns the length of the list. With an empty dest only the required
	// length is returned.
	ListXattr(dirFD int, name string, dest []byte) (int, error)

	// SetXattr sets attribute attr to value. On a symlink, MagicLink fails
	// with PermissionDenied (EPERM, user.* is not allowed on symlinks) and
	// the other variants with Unsupported (ELOOP).
	SetXattr(dirFD int, name, attr string, value []byte, mode SetMode) error

	// RemoveXattr removes attribute attr.
	RemoveXattr(dirFD int, name, attr string) error

	// XattrValue returns the whole value of attribute attr.
	XattrValue(dirFD int, name, attr string) ([]byte, error)

	// XattrNames returns the names of all attributes of the entry.
	XattrNames(dirFD int, name string) ([]string, error)

	// Utimes sets the access and modification times of the entry.
	Utimes(dirFD int, name string, ts Timestamps) error

	// Mknod creates a new node of the given kind. perm is masked with 07777
	// and dev is only used for NodeChar and NodeBlock.
	Mknod(dirFD int, name string, kind NodeKind, perm uint32, dev uint64) error
}

// Config configures the host backend.
type Config struct {
	// Opener opens locator descriptors. It must never follow a symlink in
	// the final component.
	Opener safeopen.Opener

	// ProcRoot is where procfs is mounted. Only used by MagicLink.
	ProcRoot string

	// DisablePreciseUtimes skips utimensat(2) and always sets timestamps
	// through a locator descriptor with microsecond resolution.
	DisablePreciseUtimes bool
}

// DefaultConfig returns the configuration used by New when fields are left
// empty.
func DefaultConfig() Config {
	return Config{
		Opener:   safeopen.Default,
		ProcRoot: "/proc",
	}
}

// New returns the Host for the variant selected at build time.
func New(conf Config) Host {
	def := DefaultConfig()
	if conf.Opener == nil {
		conf.Opener = def.Opener
	}
	if conf.ProcRoot == "" {
		conf.ProcRoot = def.ProcRoot
	}
	return newHost(conf)
}

// isNameValid returns true if name is a single path component.
func isNameValid(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return strings.IndexByte(name, '/') < 0
}
