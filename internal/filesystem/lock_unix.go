//go:build unix

package filesystem

import (
	"errors"
	"os"
	"syscall"
)

// lockShared takes a non-blocking shared flock on f. Writers that still hold
// an exclusive lock (for example a multipart handler flushing the upload)
// make it fail with ErrLocked.
func lockShared(f *os.File) (func(), error) {
	fd := int(f.Fd())
	if err := syscall.Flock(fd, syscall.LOCK_SH|syscall.LOCK_NB); err != nil {
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		// Filesystems without flock support are treated as unlocked.
		if errors.Is(err, syscall.ENOTSUP) || errors.Is(err, syscall.EINVAL) {
			return func() {}, nil
		}
		return nil, err
	}
	return func() { _ = syscall.Flock(fd, syscall.LOCK_UN) }, nil
}

func isLockError(err error) bool {
	return errors.Is(err, syscall.EWOULDBLOCK) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETXTBSY)
}
