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

package nofollow

import (
	"fmt"
	"path"
	"strconv"

	"github.com/passthrough/nofollow/pkg/log"
	"github.com/pkg/xattr"
	"golang.org/x/sys/unix"
)

// procRootIno is the inode number of the root of every procfs mount.
const procRootIno = 1

// procXattrs names the entry as /proc/self/fd/<dirFD>/<name> and uses the
// l*xattr family on that path. The kernel resolves the magic link to the
// directory already open on dirFD without walking the real tree again, and
// the l* calls never follow a symlink in the last component.
type procXattrs struct {
	// fdDir is <procRoot>/self/fd.
	fdDir string

	// err is set if procRoot is not a procfs mount we trust. All calls then
	// fail with EOPNOTSUPP.
	err error
}

var _ xattrAccessor = (*procXattrs)(nil)

func newProcXattrs(procRoot string) *procXattrs {
	a := &procXattrs{fdDir: path.Join(procRoot, "self", "fd")}
	if err := verifyProcRoot(procRoot); err != nil {
		log.Warningf("Extended attributes disabled, procfs at %q is unusable: %v", procRoot, err)
		a.err = err
	}
	return a
}

// verifyProcRoot checks that procRoot is the root of a procfs mount, so the
// synthetic paths built below it are real magic links.
func verifyProcRoot(procRoot string) error {
	fd, err := unix.Open(procRoot, unix.O_PATH|unix.O_DIRECTORY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	var statfs unix.Statfs_t
	if err := unix.Fstatfs(fd, &statfs); err != nil {
		return err
	}
	if statfs.Type != unix.PROC_SUPER_MAGIC {
		return fmt.Errorf("incorrect filesystem type %#x", statfs.Type)
	}
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		return err
	}
	if stat.Ino != procRootIno {
		return fmt.Errorf("incorrect root inode number %d", stat.Ino)
	}
	return nil
}

func (a *procXattrs) path(dirFD int, name string) (string, error) {
	if a.err != nil {
		return "", unix.EOPNOTSUPP
	}
	return a.fdDir + "/" + strconv.Itoa(dirFD) + "/" + name, nil
}

func (a *procXattrs) get(dirFD int, name, attr string, dest []byte) (int, error) {
	p, err := a.path(dirFD, name)
	if err != nil {
		return 0, err
	}
	return unix.Lgetxattr(p, attr, dest)
}

func (a *procXattrs) list(dirFD int, name string, dest []byte) (int, error) {
	p, err := a.path(dirFD, name)
	if err != nil {
		return 0, err
	}
	return unix.Llistxattr(p, dest)
}

func (a *procXattrs) set(dirFD int, name, attr string, value []byte, flags int) error {
	p, err := a.path(dirFD, name)
	if err != nil {
		return err
	}
	return unix.Lsetxattr(p, attr, value, flags)
}

func (a *procXattrs) remove(dirFD int, name, attr string) error {
	p, err := a.path(dirFD, name)
	if err != nil {
		return err
	}
	return unix.Lremovexattr(p, attr)
}

func (a *procXattrs) value(dirFD int, name, attr string) ([]byte, error) {
	p, err := a.path(dirFD, name)
	if err != nil {
		return nil, err
	}
	return xattr.LGet(p, attr)
}

func (a *procXattrs) names(dirFD int, name string) ([]string, error) {
	p, err := a.path(dirFD, name)
	if err != nil {
		return nil, err
	}
	return xattr.LList(p)
}
