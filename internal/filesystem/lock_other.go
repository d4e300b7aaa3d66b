//go:build !unix

package filesystem

import (
	"errors"
	"os"
	"syscall"
)

func lockShared(*os.File) (func(), error) {
	return func() {}, nil
}

// Windows reports ERROR_SHARING_VIOLATION (32) and ERROR_LOCK_VIOLATION (33)
// when another process holds the file.
func isLockError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == 32 || errno == 33
	}
	return false
}
