package sys

import (
	"fmt"
	"syscall"
)

// ChannelInitError is returned when the kernel refuses to open a new
// notification channel, typically because the per-user instance limit is
// reached.
type ChannelInitError struct {
	Code  int
	Errno syscall.Errno
}

func (e *ChannelInitError) Error() string {
	return fmt.Sprintf("initializing inotify: code %d: errno: %d (%v)", e.Code, int(e.Errno), e.Errno)
}

func (e *ChannelInitError) Unwrap() error {
	return e.Errno
}

// WatchAddError carries the kernel's rejection of a path.
type WatchAddError struct {
	Path  string
	Flags uint32
	Code  int
	Errno syscall.Errno
}

func (e *WatchAddError) Error() string {
	return fmt.Sprintf("adding watch on %s (flags %#x): code %d: errno: %d (%v)", e.Path, e.Flags, e.Code, int(e.Errno), e.Errno)
}

func (e *WatchAddError) Unwrap() error {
	return e.Errno
}

// WatchRemoveError is returned when the kernel does not know the descriptor
// any more, e.g. because the watched path was deleted.
type WatchRemoveError struct {
	Descriptor int
	Code       int
	Errno      syscall.Errno
}

func (e *WatchRemoveError) Error() string {
	return fmt.Sprintf("removing watch %d: code %d: errno: %d (%v)", e.Descriptor, e.Code, int(e.Errno), e.Errno)
}

func (e *WatchRemoveError) Unwrap() error {
	return e.Errno
}

func errnoOf(err error) syscall.Errno {
	if errno, ok := err.(syscall.Errno); ok {
		return errno
	}
	return 0
}
