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

//go:build darwin

package nofollow

import "golang.org/x/sys/unix"

// Private Darwin syscalls, stable since 10.5.
const (
	sysPthreadFchdir = 349
	sysThreadSelfid  = 372
)

// darwinCwd uses __pthread_fchdir(2), which sets a per-thread working
// directory that overrides the process one until it is reset with -1.
type darwinCwd struct{}

func (darwinCwd) tid() int64 {
	id, _, _ := unix.Syscall(sysThreadSelfid, 0, 0, 0)
	return int64(id)
}

func (darwinCwd) set(dirFD int) error {
	if _, _, errno := unix.Syscall(sysPthreadFchdir, uintptr(dirFD), 0, 0); errno != 0 {
		return errno
	}
	return nil
}

func (darwinCwd) clear() error {
	reset := -1
	if _, _, errno := unix.Syscall(sysPthreadFchdir, uintptr(reset), 0, 0); errno != 0 {
		return errno
	}
	return nil
}

// mknodCwd creates the node with mknod(2) relative to a thread-local working
// directory equal to dirFD. Ancestors are fixed by dirFD; mknod(2) itself does
// not follow a symlink in name and fails with EEXIST instead.
func mknodCwd(dirFD int, name string, mode uint32, dev uint64) error {
	return withThreadCwd(darwinCwd{}, dirFD, func() error {
		return unix.Mknod(name, mode, int(dev))
	})
}
