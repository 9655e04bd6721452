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
	"testing"
	"time"
)

func TestUtimeSpecialValues(t *testing.T) {
	if UtimeNow == UtimeOmit {
		t.Fatalf("UtimeNow and UtimeOmit are both %d", UtimeNow)
	}
	for _, nsec := range []int64{UtimeNow, UtimeOmit} {
		if nsec >= 0 && nsec < 1e9 {
			t.Errorf("special value %d is a valid nanosecond count", nsec)
		}
		if !(Timestamp{Nsec: nsec}).valid() {
			t.Errorf("Timestamp{Nsec: %d}.valid() = false", nsec)
		}
	}

	// UtimeNow is resolved by the fallback, never passed to futimes(2).
	now := time.Unix(1234, 5000)
	if tv := (Timestamp{Nsec: UtimeNow}).timeval(now); int64(tv.Sec) != 1234 || int64(tv.Usec) != 5 {
		t.Errorf("timeval(UtimeNow) = %d.%06d, want 1234.000005", tv.Sec, tv.Usec)
	}
}
