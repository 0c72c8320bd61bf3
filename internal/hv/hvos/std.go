package hvos

import (
	"io/fs"
	"os"
	"time"
)

// Std implements [OS] using the standard library. This is what
// cmd/hvstub wires up; every other caller in tests uses [Fake].
type Std struct{}

func (Std) Getuid() int  { return os.Getuid() }
func (Std) Getgid() int  { return os.Getgid() }
func (Std) Geteuid() int { return os.Geteuid() }
func (Std) Getegid() int { return os.Getegid() }

func (Std) Lstat(name string) (fs.FileInfo, error) { return os.Lstat(name) }
func (Std) Stat(name string) (fs.FileInfo, error)  { return os.Stat(name) }
func (Std) Readlink(name string) (string, error)   { return os.Readlink(name) }

func (Std) OpenFile(name string, flag int, perm fs.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

func (Std) Executable() (string, error) { return os.Executable() }

func (Std) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }
func (Std) Environ() []string                   { return os.Environ() }
func (Std) Setenv(key, value string) error       { return os.Setenv(key, value) }
func (Std) Unsetenv(key string) error            { return os.Unsetenv(key) }

func (Std) Now() time.Time { return time.Now() }
