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
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// fakeCwd records calls instead of changing any working directory.
type fakeCwd struct {
	id       int64
	setErr   error
	clearErr error

	sets   atomic.Int32
	clears atomic.Int32
	// dir is the directory set, or -1.
	dir atomic.Int64
}

func newFakeCwd(id int64) *fakeCwd {
	f := &fakeCwd{id: id}
	f.dir.Store(-1)
	return f
}

func (f *fakeCwd) tid() int64 { return f.id }

func (f *fakeCwd) set(dirFD int) error {
	f.sets.Add(1)
	if f.setErr != nil {
		return f.setErr
	}
	f.dir.Store(int64(dirFD))
	return nil
}

func (f *fakeCwd) clear() error {
	f.clears.Add(1)
	if f.clearErr != nil {
		return f.clearErr
	}
	f.dir.Store(-1)
	return nil
}

func checkNoWindow(t *testing.T, tid int64) {
	t.Helper()
	if _, ok := cwdWindows.Load(tid); ok {
		t.Errorf("thread %d still registered", tid)
	}
}

func TestThreadCwd(t *testing.T) {
	f := newFakeCwd(1)
	var inside int64
	err := withThreadCwd(f, 42, func() error {
		inside = f.dir.Load()
		return nil
	})
	if err != nil {
		t.Fatalf("withThreadCwd() failed, err: %v", err)
	}
	if inside != 42 {
		t.Errorf("working directory inside the window = %d, want 42", inside)
	}
	if got := f.dir.Load(); got != -1 {
		t.Errorf("working directory after the window = %d, want cleared", got)
	}
	checkNoWindow(t, 1)
}

func TestThreadCwdNested(t *testing.T) {
	f := newFakeCwd(2)
	var nested error
	err := withThreadCwd(f, 10, func() error {
		nested = withThreadCwd(f, 20, func() error {
			t.Errorf("nested window ran")
			return nil
		})
		return nil
	})
	if err != nil {
		t.Fatalf("withThreadCwd() failed, err: %v", err)
	}
	if !errors.Is(nested, unix.EBUSY) {
		t.Errorf("nested withThreadCwd() = %v, want EBUSY", nested)
	}
	got := []int32{f.sets.Load(), f.clears.Load()}
	if diff := cmp.Diff([]int32{1, 1}, got); diff != "" {
		t.Errorf("set/clear calls mismatch (-want +got):\n%s", diff)
	}
	checkNoWindow(t, 2)
}

func TestThreadCwdErrors(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		f := newFakeCwd(3)
		f.setErr = unix.EBADF
		err := withThreadCwd(f, 10, func() error {
			t.Errorf("fn ran after set failed")
			return nil
		})
		if !errors.Is(err, unix.EBADF) {
			t.Errorf("withThreadCwd() = %v, want EBADF", err)
		}
		if n := f.clears.Load(); n != 0 {
			t.Errorf("clear called %d times, want 0", n)
		}
		checkNoWindow(t, 3)
	})

	t.Run("fn", func(t *testing.T) {
		f := newFakeCwd(4)
		err := withThreadCwd(f, 10, func() error { return unix.EEXIST })
		if !errors.Is(err, unix.EEXIST) {
			t.Errorf("withThreadCwd() = %v, want EEXIST", err)
		}
		if n := f.clears.Load(); n != 1 {
			t.Errorf("clear called %d times, want 1", n)
		}
		checkNoWindow(t, 4)
	})

	for _, fnErr := range []error{nil, unix.EEXIST} {
		t.Run("clear", func(t *testing.T) {
			f := newFakeCwd(5)
			f.clearErr = unix.EIO
			// The thread stays locked after a failed clear; run on a goroutine
			// of its own so that the runtime retires the thread with it.
			done := make(chan error)
			go func() {
				done <- withThreadCwd(f, 10, func() error { return fnErr })
			}()
			if err := <-done; err != fnErr {
				t.Errorf("withThreadCwd() = %v, want %v", err, fnErr)
			}
			checkNoWindow(t, 5)
		})
	}
}

// TestThreadCwdExclusive runs many windows claiming the same thread. Each
// either runs alone or is refused with EBUSY.
func TestThreadCwdExclusive(t *testing.T) {
	f := newFakeCwd(6)
	var active, ran atomic.Int32
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		i := i
		g.Go(func() error {
			err := withThreadCwd(f, i, func() error {
				if n := active.Add(1); n != 1 {
					t.Errorf("%d windows open at once", n)
				}
				ran.Add(1)
				time.Sleep(time.Millisecond)
				active.Add(-1)
				return nil
			})
			if err != nil && !errors.Is(err, unix.EBUSY) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("withThreadCwd() failed, err: %v", err)
	}
	if ran.Load() == 0 {
		t.Errorf("no window ran")
	}
	checkNoWindow(t, 6)
}

func TestThreadCwdDistinctThreads(t *testing.T) {
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		f := newFakeCwd(int64(100 + i))
		i := i
		g.Go(func() error {
			return withThreadCwd(f, i, func() error {
				time.Sleep(time.Millisecond)
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("withThreadCwd() failed, err: %v", err)
	}
	for i := 0; i < 16; i++ {
		checkNoWindow(t, int64(100+i))
	}
}
