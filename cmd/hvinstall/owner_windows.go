//go:build windows

package main

import "io/fs"

// ownerOf has no POSIX uid/gid equivalent on Windows; scanned records
// default to 0/0, matching hvos.Std's Owner stand-in on this platform.
func ownerOf(info fs.FileInfo) (uid, gid int) { return 0, 0 }
