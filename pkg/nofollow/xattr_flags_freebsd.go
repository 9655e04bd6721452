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

//go:build freebsd

package nofollow

import (
	"github.com/pkg/xattr"
	"golang.org/x/sys/unix"
)

// extattr(2) has no create/replace flags, so SetMode is checked against the
// locator descriptor before writing.
const (
	setCreateFlag = 1 << iota
	setReplaceFlag
)

func (m SetMode) flags() int {
	switch m {
	case SetCreate:
		return setCreateFlag
	case SetReplace:
		return setReplaceFlag
	}
	return 0
}

// checkSetFlags enforces SetCreate and SetReplace. The descriptor pins the
// entry, so only a concurrent writer of the same attribute can slip in
// between the check and the write.
func checkSetFlags(fd int, attr string, flags int) error {
	if flags == 0 {
		return nil
	}
	_, err := unix.Fgetxattr(fd, attr, nil)
	switch {
	case err == nil && flags&setCreateFlag != 0:
		return unix.EEXIST
	case err == xattr.ENOATTR && flags&setReplaceFlag != 0:
		return xattr.ENOATTR
	case err != nil && err != xattr.ENOATTR:
		return err
	}
	return nil
}
