// Package dload implements the dlopen/dlsym primitive shared by the
// Runtime Loader (T) and Trusted-Payload Loader (P) of spec.md §4.7
// and §4.8, built on github.com/ebitengine/purego so neither loader
// needs cgo to resolve the well-known exported symbols it calls.
package dload

import "path"

// platformSuffix is the shared-object suffix for the current
// platform; overridden per build in suffix_*.go.
var platformSuffix = defaultSuffix()

// LibraryPath implements testable property 1 of spec.md §8: the
// constructed library path is exactly
//
//	appBinDir + subDirSlash + progName + platformSuffix
//
// where subDirSlash is "/testcase/" iff the caller is running from the
// TESTCASE location, else "/".
func LibraryPath(appBinDir string, testcase bool, progName string) string {
	sub := "/"
	if testcase {
		sub = "/testcase/"
	}
	return appBinDir + sub + baseName(progName) + platformSuffix
}

// Suffix returns the platform shared-object suffix LibraryPath uses,
// exported for tests.
func Suffix() string { return platformSuffix }

// baseName strips any directory components a caller-supplied progName
// might carry, so LibraryPath never escapes appBinDir.
func baseName(p string) string { return path.Base(p) }
