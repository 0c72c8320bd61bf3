//go:build darwin

package dload

func defaultSuffix() string { return ".dylib" }
