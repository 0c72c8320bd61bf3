//go:build linux

package dload

func defaultSuffix() string { return ".so" }
