//go:build linux

package inotify

import "github.com/dominicbreuker/notifywatch/internal/inotify/sys"

func defaultSyscalls() sys.Syscalls {
	return &sys.InotifySyscallsUNIX{}
}
