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
	"sync/atomic"
	"time"

	"github.com/passthrough/nofollow/pkg/log"
	"github.com/passthrough/nofollow/pkg/safeopen"
	"golang.org/x/sys/unix"
)

// utimensat is replaced by tests to simulate hosts without the syscall.
var utimensat = unix.UtimesNanoAt

// timeSetter sets timestamps with utimensat(2) and AT_SYMLINK_NOFOLLOW when
// the host has it, and otherwise with futimes(2) on a locator descriptor.
type timeSetter struct {
	opener safeopen.Opener

	// precise is cleared the first time utimensat(2) reports ENOSYS. The
	// call may be present in the build but not in the running kernel.
	precise atomic.Bool
}

func newTimeSetter(conf Config) *timeSetter {
	t := &timeSetter{opener: conf.Opener}
	t.precise.Store(!conf.DisablePreciseUtimes)
	return t
}

func (t *timeSetter) set(dirFD int, name string, ts Timestamps) error {
	if t.precise.Load() {
		err := utimensat(dirFD, name, []unix.Timespec{ts.Atime.timespec(), ts.Mtime.timespec()}, unix.AT_SYMLINK_NOFOLLOW)
		if err != unix.ENOSYS {
			return err
		}
		if t.precise.CompareAndSwap(true, false) {
			log.Infof("utimensat(2) not supported by the host, timestamps are set with microsecond resolution")
		}
	}
	return t.setCoarse(dirFD, name, ts)
}

// setCoarse uses futimes(2). Nanoseconds are truncated to microseconds;
// UtimeNow and UtimeOmit are resolved here since futimes has no equivalent.
func (t *timeSetter) setCoarse(dirFD int, name string, ts Timestamps) error {
	return withLocator(t.opener, dirFD, name, func(l *locator) error {
		if ts.Atime.Nsec == UtimeOmit || ts.Mtime.Nsec == UtimeOmit {
			var stat unix.Stat_t
			if err := unix.Fstat(l.fd, &stat); err != nil {
				return err
			}
			if ts.Atime.Nsec == UtimeOmit {
				ts.Atime.Sec, ts.Atime.Nsec = stat.Atim.Unix()
			}
			if ts.Mtime.Nsec == UtimeOmit {
				ts.Mtime.Sec, ts.Mtime.Nsec = stat.Mtim.Unix()
			}
		}
		now := time.Now()
		return unix.Futimes(l.fd, []unix.Timeval{ts.Atime.timeval(now), ts.Mtime.timeval(now)})
	})
}

func (t Timestamp) timespec() unix.Timespec {
	var ts unix.Timespec
	setInt(&ts.Sec, t.Sec)
	setInt(&ts.Nsec, t.Nsec)
	return ts
}

// timeval truncates t toward zero to microseconds. UtimeNow maps to now.
func (t Timestamp) timeval(now time.Time) unix.Timeval {
	if t.Nsec == UtimeNow {
		t.Sec, t.Nsec = now.Unix(), int64(now.Nanosecond())
	}
	var tv unix.Timeval
	setInt(&tv.Sec, t.Sec)
	setInt(&tv.Usec, t.Nsec/1000)
	return tv
}

// setInt stores v in a field whose width varies across hosts.
func setInt[T ~int32 | ~int64](dst *T, v int64) {
	*dst = T(v)
}
