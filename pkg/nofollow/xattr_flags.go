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

//go:build linux || darwin

package nofollow

import "golang.org/x/sys/unix"

func (m SetMode) flags() int {
	switch m {
	case SetCreate:
		return unix.XATTR_CREATE
	case SetReplace:
		return unix.XATTR_REPLACE
	}
	return 0
}

// checkSetFlags is a no-op: the kernel enforces XATTR_CREATE and
// XATTR_REPLACE itself.
func checkSetFlags(fd int, attr string, flags int) error {
	return nil
}
