package hook

import (
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// pathResolver supplies the directories relative paths are resolved
// against.
type pathResolver interface {
	Getwd() (string, error)
	DirOf(fd int) (string, error)
}

// procResolver reads the working directory and descriptor targets from
// the kernel.
type procResolver struct{}

func (procResolver) Getwd() (string, error) {
	return unix.Getwd()
}

func (procResolver) DirOf(fd int) (string, error) {
	return readlink("/proc/self/fd/" + strconv.Itoa(fd))
}

func readlink(path string) (string, error) {
	buf := make([]byte, unix.PathMax)
	n, err := unix.Readlink(path, buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// absolute makes path absolute against dirfd, which is AT_FDCWD or an open
// directory. When the base cannot be determined the raw path is returned.
func absolute(r pathResolver, dirfd int, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	var (
		base string
		err  error
	)
	if dirfd == unix.AT_FDCWD {
		base, err = r.Getwd()
	} else {
		base, err = r.DirOf(dirfd)
	}
	if err != nil || !filepath.IsAbs(base) {
		return path
	}
	return filepath.Join(base, path)
}
