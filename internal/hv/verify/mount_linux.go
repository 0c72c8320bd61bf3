//go:build linux

package verify

import (
	"bufio"
	"os"
	"strings"
	"sync"
)

var (
	mountPointsOnce sync.Once
	mountPoints     map[string]struct{}
)

// onMountBoundary reports whether dir is itself a mount point, read
// from /proc/self/mountinfo once and cached for the process lifetime
// (the mount table is not expected to change mid-verification).
func onMountBoundary(dir string) bool {
	mountPointsOnce.Do(loadMountPoints)
	_, ok := mountPoints[dir]
	return ok
}

func loadMountPoints() {
	mountPoints = make(map[string]struct{})
	f, err := os.Open("/proc/self/mountinfo")
	if err != nil {
		return
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		fields := strings.Fields(s.Text())
		// mountinfo format: ... mount-point ... the mount point is
		// the 5th whitespace-delimited field (1-indexed).
		if len(fields) < 5 {
			continue
		}
		mountPoints[fields[4]] = struct{}{}
	}
}
