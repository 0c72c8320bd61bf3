//go:build unix

package hvos

import (
	"io/fs"
	"os"
	"syscall"
)

func (Std) Owner(name string) (uid, gid int, mode fs.FileMode, err error) {
	var fi os.FileInfo
	if fi, err = os.Stat(name); err != nil {
		return 0, 0, 0, err
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, fi.Mode(), nil
	}
	return int(st.Uid), int(st.Gid), fi.Mode(), nil
}
