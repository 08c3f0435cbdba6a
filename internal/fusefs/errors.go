package fusefs

import (
	"errors"
	"syscall"

	"github.com/jacobsa/bazilfuse"
	"github.com/jacobsa/fuse"

	"github.com/delehef/fusta/internal/model"
)

// Errno values jacobsa/fuse's errors.go does not predefine, minted the
// same way it mints ENOTEMPTY: wrapping the kernel errno in
// bazilfuse.Errno.
var (
	eacces = bazilfuse.Errno(syscall.EACCES)
	eexist = bazilfuse.Errno(syscall.EEXIST)
	einval = bazilfuse.Errno(syscall.EINVAL)
)

// translate maps a model sentinel error (or nil) to the fuse.Errno the
// kernel expects, per spec.md §7's error taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrNoSuchEntry):
		return fuse.ENOENT
	case errors.Is(err, model.ErrAccessDenied):
		return eacces
	case errors.Is(err, model.ErrAlreadyExists):
		return eexist
	case errors.Is(err, model.ErrInvalidData):
		return einval
	case errors.Is(err, model.ErrIOError):
		return fuse.EIO
	case errors.Is(err, model.ErrLoadError):
		return fuse.EIO
	default:
		return fuse.EIO
	}
}
