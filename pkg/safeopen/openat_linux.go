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

//go:build linux

package safeopen

import (
	"sync/atomic"

	"github.com/passthrough/nofollow/pkg/log"
	"golang.org/x/sys/unix"
)

const (
	pathFlag    = unix.O_PATH
	noatimeFlag = unix.O_NOATIME
)

// resolveFlags confine resolution to a single step below dirFD.
const resolveFlags = unix.RESOLVE_BENEATH | unix.RESOLVE_NO_SYMLINKS | unix.RESOLVE_NO_MAGICLINKS

// pathOnlyFlags are the only flags openat2(2) accepts along with O_PATH;
// openat(2) silently drops the rest.
const pathOnlyFlags = unix.O_PATH | unix.O_DIRECTORY | unix.O_NOFOLLOW | unix.O_CLOEXEC

// openat2Attempts bounds the retries of openat2(2) after EAGAIN, which it
// returns when a concurrent rename or mount races the lookup. EAGAIN is also
// how a non-blocking open reports a conflicting lease; that must reach the
// caller and not be waited out.
const openat2Attempts = 3

// noOpenat2 is set once openat2(2) has been found missing on the host.
var noOpenat2 atomic.Bool

func openat(dirFD int, name string, flags int, mode uint32) (int, error) {
	if !noOpenat2.Load() {
		if flags&unix.O_PATH != 0 {
			flags &= pathOnlyFlags
		}
		how := unix.OpenHow{
			Flags:   uint64(flags),
			Resolve: resolveFlags,
		}
		if flags&(unix.O_CREAT|unix.O_TMPFILE) != 0 {
			how.Mode = uint64(mode)
		}
		fd, err := openat2(dirFD, name, &how)
		if err != unix.ENOSYS {
			return fd, err
		}
		if noOpenat2.CompareAndSwap(false, true) {
			log.Infof("openat2(2) not supported by the host, using openat(2) with O_NOFOLLOW")
		}
	}
	for {
		fd, err := unix.Openat(dirFD, name, flags, mode)
		if err != unix.EINTR {
			return fd, err
		}
	}
}

func openat2(dirFD int, name string, how *unix.OpenHow) (int, error) {
	for attempt := 1; ; {
		fd, err := unix.Openat2(dirFD, name, how)
		switch {
		case err == unix.EINTR:
		case err == unix.EAGAIN && attempt < openat2Attempts:
			attempt++
		default:
			return fd, err
		}
	}
}
