//go:build windows

package dload

func defaultSuffix() string { return ".dll" }
