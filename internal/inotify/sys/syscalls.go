//go:build linux

package sys

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// InitFlags are passed to inotify_init1. The descriptor is non-blocking so
// that it can be handed to the runtime poller.
const InitFlags = unix.IN_CLOEXEC | unix.IN_NONBLOCK

type InotifySyscallsUNIX struct{}

var _ Syscalls = (*InotifySyscallsUNIX)(nil)

func (isu *InotifySyscallsUNIX) Init() (int, error) {
	fd, err := unix.InotifyInit1(InitFlags)
	if fd < 0 {
		return fd, &ChannelInitError{Code: fd, Errno: errnoOf(err)}
	}
	return fd, nil
}

func (isu *InotifySyscallsUNIX) AddWatch(fd int, path string, flags uint32) (int, error) {
	wd, err := unix.InotifyAddWatch(fd, path, flags)
	if wd < 0 {
		return wd, &WatchAddError{Path: path, Flags: flags, Code: wd, Errno: errnoOf(err)}
	}
	return wd, nil
}

func (isu *InotifySyscallsUNIX) RemoveWatch(fd int, wd int) error {
	code, err := unix.InotifyRmWatch(fd, uint32(wd))
	if code != 0 {
		return &WatchRemoveError{Descriptor: wd, Code: code, Errno: errnoOf(err)}
	}
	return nil
}

func (isu *InotifySyscallsUNIX) Close(fd int) error {
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("closing inotify fd %d: %w", fd, err)
	}
	return nil
}
