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

//go:build unix

// Package safeopen opens directory entries relative to an already resolved
// directory descriptor without ever following a symlink in the final
// component.
//
// It produces the caller-owned directory descriptors and the transient
// locator descriptors used by package nofollow.
package safeopen

import (
	"strings"

	"github.com/passthrough/nofollow/pkg/cleanup"
	"golang.org/x/sys/unix"
)

// Opener opens name relative to dirFD. Implementations must never follow a
// symlink in name, and must return a descriptor owned by the caller.
type Opener interface {
	OpenAt(dirFD int, name string, flags int, mode uint32) (int, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(dirFD int, name string, flags int, mode uint32) (int, error)

// OpenAt implements Opener.OpenAt.
func (f OpenerFunc) OpenAt(dirFD int, name string, flags int, mode uint32) (int, error) {
	return f(dirFD, name, flags, mode)
}

// Default is the host Opener.
//
// It always adds O_NOFOLLOW, O_CLOEXEC and O_NOCTTY. The open itself is done
// with O_NONBLOCK so that FIFOs and devices cannot stall the caller; unless
// the caller asked for O_NONBLOCK, or the descriptor is path-only, the flag is
// cleared again before returning. If O_NOATIME is refused with EPERM (the
// caller does not own the file) the open is retried once without it.
var Default Opener = OpenerFunc(openFile)

// openFlags are always set on the host.
const openFlags = unix.O_NOFOLLOW | unix.O_CLOEXEC | unix.O_NOCTTY

func openFile(dirFD int, name string, flags int, mode uint32) (int, error) {
	fd, err := openat(dirFD, name, flags|openFlags|unix.O_NONBLOCK, mode)
	if err == unix.EPERM && noatimeFlag != 0 && flags&noatimeFlag != 0 {
		flags &^= noatimeFlag
		fd, err = openat(dirFD, name, flags|openFlags|unix.O_NONBLOCK, mode)
	}
	if err != nil {
		return -1, err
	}
	if flags&(unix.O_NONBLOCK|pathFlag) != 0 {
		return fd, nil
	}

	cu := cleanup.Make(func() {
		_ = unix.Close(fd)
	})
	defer cu.Clean()

	// O_NONBLOCK was only needed to open the file. F_SETFL ignores the access
	// mode and creation flags.
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags); err != nil {
		return -1, err
	}
	cu.Release()
	return fd, nil
}

// DirFlags are the flags used by OpenDir.
const DirFlags = unix.O_DIRECTORY | unix.O_RDONLY | pathFlag

// OpenDir opens the directory name relative to dirFD. The returned
// descriptor is suitable as a directory handle for package nofollow.
func OpenDir(o Opener, dirFD int, name string) (int, error) {
	return o.OpenAt(dirFD, name, DirFlags|openFlags, 0)
}

// Walk opens the directory at relPath below rootFD one component at a time,
// never following a symlink. Symlinks that are part of relPath make Walk fail
// with ELOOP or ENOTDIR. An empty relPath (or ".") opens rootFD itself.
func Walk(o Opener, rootFD int, relPath string) (int, error) {
	if strings.HasPrefix(relPath, "/") {
		return -1, unix.EINVAL
	}
	var parts []string
	for _, p := range strings.Split(relPath, "/") {
		switch p {
		case "", ".":
			continue
		case "..":
			return -1, unix.EINVAL
		}
		parts = append(parts, p)
	}

	curFD, err := OpenDir(o, rootFD, ".")
	if err != nil {
		return -1, err
	}
	for _, name := range parts {
		nextFD, err := OpenDir(o, curFD, name)
		_ = unix.Close(curFD)
		if err != nil {
			return -1, err
		}
		curFD = nextFD
	}
	return curFD, nil
}
