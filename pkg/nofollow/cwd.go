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

package nofollow

import (
	"runtime"
	"sync"

	"github.com/passthrough/nofollow/pkg/cleanup"
	"github.com/passthrough/nofollow/pkg/log"
	"golang.org/x/sys/unix"
)

// threadCwd controls the working directory of the calling OS thread, as
// opposed to the process-wide one.
type threadCwd interface {
	// tid identifies the calling OS thread.
	tid() int64

	// set makes dirFD the thread's working directory.
	set(dirFD int) error

	// clear returns the thread to the process working directory.
	clear() error
}

// cwdWindows records the OS threads that currently have a working directory
// substituted. A thread appears at most once.
var cwdWindows sync.Map // map[int64]struct{}

// withThreadCwd runs fn with dirFD as the working directory of the current
// OS thread, so that relative paths in fn resolve below dirFD. It is not
// reentrant: a second window on the same thread fails with EBUSY without
// touching the working directory.
//
// fn must make exactly one syscall and must not block; the goroutine stays
// locked to its thread for the whole window. The working directory is
// cleared before withThreadCwd returns, whatever fn returned. If clearing
// fails the thread is left locked so the runtime retires it instead of
// scheduling other goroutines on it, and fn's result is still the one
// reported.
func withThreadCwd(tc threadCwd, dirFD int, fn func() error) error {
	runtime.LockOSThread()
	tainted := false
	cu := cleanup.Make(func() {
		if !tainted {
			runtime.UnlockOSThread()
		}
	})
	defer cu.Clean()

	tid := tc.tid()
	if _, busy := cwdWindows.LoadOrStore(tid, struct{}{}); busy {
		return unix.EBUSY
	}
	cu.Add(func() { cwdWindows.Delete(tid) })

	if err := tc.set(dirFD); err != nil {
		return err
	}
	err := fn()
	if cerr := tc.clear(); cerr != nil {
		log.Warningf("Clearing thread working directory of thread %d failed, retiring thread: %v", tid, cerr)
		tainted = true
	}
	return err
}
