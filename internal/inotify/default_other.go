//go:build !linux

package inotify

import (
	"errors"

	"github.com/dominicbreuker/notifywatch/internal/inotify/sys"
)

var errUnsupported = errors.New("inotify is only available on linux")

type unsupportedSyscalls struct{}

func defaultSyscalls() sys.Syscalls {
	return unsupportedSyscalls{}
}

func (unsupportedSyscalls) Init() (int, error) { return -1, errUnsupported }

func (unsupportedSyscalls) AddWatch(int, string, uint32) (int, error) { return -1, errUnsupported }

func (unsupportedSyscalls) RemoveWatch(int, int) error { return errUnsupported }

func (unsupportedSyscalls) Close(int) error { return errUnsupported }
