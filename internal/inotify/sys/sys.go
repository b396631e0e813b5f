// Package sys is the boundary between the watcher and the kernel's inotify
// facility. Nothing outside this package issues inotify system calls.
package sys

// Syscalls is the set of primitive operations on a notification channel.
// Implementations keep no state: the caller owns all bookkeeping.
type Syscalls interface {
	// Init opens a new notification channel and returns its descriptor.
	Init() (int, error)
	// AddWatch registers interest in path on channel fd.
	AddWatch(fd int, path string, flags uint32) (int, error)
	// RemoveWatch deregisters watch descriptor wd from channel fd.
	RemoveWatch(fd int, wd int) error
	// Close releases the channel descriptor itself.
	Close(fd int) error
}
