package inotify

import (
	"io"
	"syscall"
	"testing"

	"github.com/dominicbreuker/notifywatch/internal/inotify/sys"
)

const mockFD = 42

// MockSyscalls hands out increasing descriptors and remembers live watches.
type MockSyscalls struct {
	initErr error
	nextWD  int
	watches map[int]string
	failAdd map[string]bool
	failRm  map[int]bool
	closed  []int
}

func NewMockSyscalls() *MockSyscalls {
	return &MockSyscalls{
		nextWD:  1,
		watches: make(map[int]string),
		failAdd: make(map[string]bool),
		failRm:  make(map[int]bool),
	}
}

func (m *MockSyscalls) Init() (int, error) {
	if m.initErr != nil {
		return -1, m.initErr
	}
	return mockFD, nil
}

func (m *MockSyscalls) AddWatch(fd int, path string, flags uint32) (int, error) {
	if m.failAdd[path] {
		return -1, &sys.WatchAddError{Path: path, Flags: flags, Code: -1, Errno: syscall.ENOENT}
	}
	wd := m.nextWD
	m.nextWD++
	m.watches[wd] = path
	return wd, nil
}

func (m *MockSyscalls) RemoveWatch(fd int, wd int) error {
	if _, ok := m.watches[wd]; !ok || m.failRm[wd] {
		return &sys.WatchRemoveError{Descriptor: wd, Code: -1, Errno: syscall.EINVAL}
	}
	delete(m.watches, wd)
	return nil
}

func (m *MockSyscalls) Close(fd int) error {
	m.closed = append(m.closed, fd)
	return nil
}

// mockStream feeds the watcher through a pipe; the test writes records into
// the write end.
type mockStream struct {
	r       *io.PipeReader
	w       *io.PipeWriter
	openErr error
}

func newMockStream() *mockStream {
	r, w := io.Pipe()
	return &mockStream{r: r, w: w}
}

func (s *mockStream) open(fd int) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.r, nil
}

// send writes b in the background; the write returns once the watcher has
// consumed it or the pipe is closed.
func (s *mockStream) send(b ...[]byte) {
	go func() {
		for _, chunk := range b {
			if _, err := s.w.Write(chunk); err != nil {
				return
			}
		}
	}()
}

func newTestWatcher(t *testing.T, opts ...Option) (*Watcher, *MockSyscalls, *mockStream) {
	m := NewMockSyscalls()
	s := newMockStream()
	opts = append([]Option{WithSyscalls(m), WithStreamOpener(s.open)}, opts...)
	w := NewWatcher(opts...)
	t.Cleanup(func() {
		if w.State() != Closed {
			w.Close()
		}
		s.w.Close()
	})
	return w, m, s
}
