package sys

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	MaxUserWatchesFile   = "/proc/sys/fs/inotify/max_user_watches"
	MaxUserInstancesFile = "/proc/sys/fs/inotify/max_user_instances"
	MaxQueuedEventsFile  = "/proc/sys/fs/inotify/max_queued_events"
)

// Limits are the per-user inotify limits configured in the kernel.
type Limits struct {
	MaxUserWatches   int
	MaxUserInstances int
	MaxQueuedEvents  int
}

func (l Limits) String() string {
	return fmt.Sprintf("max_user_watches=%d max_user_instances=%d max_queued_events=%d", l.MaxUserWatches, l.MaxUserInstances, l.MaxQueuedEvents)
}

// ReadLimits reads all limits from procfs.
func ReadLimits() (Limits, error) {
	var l Limits
	var err error
	if l.MaxUserWatches, err = readLimit(MaxUserWatchesFile); err != nil {
		return l, err
	}
	if l.MaxUserInstances, err = readLimit(MaxUserInstancesFile); err != nil {
		return l, err
	}
	if l.MaxQueuedEvents, err = readLimit(MaxQueuedEventsFile); err != nil {
		return l, err
	}
	return l, nil
}

func readLimit(file string) (int, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return 0, fmt.Errorf("reading from %s: %w", file, err)
	}

	s := strings.TrimSpace(string(b))
	m, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("converting %s to integer: %w", file, err)
	}

	return m, nil
}
