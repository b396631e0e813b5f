// Package inotify multiplexes aliased watch requests onto one kernel
// notification channel and hands the decoded events back one at a time.
package inotify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dominicbreuker/notifywatch/internal/inotify/record"
	"github.com/dominicbreuker/notifywatch/internal/inotify/registry"
	"github.com/dominicbreuker/notifywatch/internal/inotify/sys"
)

type State int

const (
	Created State = iota
	Active
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Active:
		return "active"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// InvalidStateError is returned when an operation is called in a lifecycle
// state that does not allow it.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: not allowed while watcher is %s", e.Op, e.State)
}

// StreamOpener binds a channel descriptor to a byte stream. Closing the
// stream must release the descriptor.
type StreamOpener func(fd int) (io.ReadCloser, error)

// OpenFile hands fd to the runtime poller through os.NewFile. The descriptor
// must be non-blocking for reads to be interruptible by Close.
func OpenFile(fd int) (io.ReadCloser, error) {
	f := os.NewFile(uintptr(fd), "inotify")
	if f == nil {
		return nil, fmt.Errorf("invalid inotify fd %d", fd)
	}
	return f, nil
}

type Option func(*Watcher)

func WithSyscalls(s sys.Syscalls) Option {
	return func(w *Watcher) { w.sys = s }
}

func WithStreamOpener(open StreamOpener) Option {
	return func(w *Watcher) { w.open = open }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(w *Watcher) { w.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

// WithBufferSize sets the read buffer of the event stream. Values below
// record.MinBufferSize are raised to it.
func WithBufferSize(n int) Option {
	return func(w *Watcher) { w.bufSize = n }
}

// Watcher is one inotify session. Watch and Unwatch may be called before and
// after Setup; GetEvent only after. A Watcher can not be reused once closed.
type Watcher struct {
	mu    sync.Mutex
	state State
	sys   sys.Syscalls
	reg   *registry.Registry
	fd    int

	open      StreamOpener
	stream    io.ReadCloser
	reader    *record.Reader
	bufSize   int
	exhausted bool

	// readMu admits one GetEvent at a time; inflight is guarded by it.
	readMu   sync.Mutex
	inflight chan readResult

	log     logrus.FieldLogger
	metrics *Metrics
}

func NewWatcher(opts ...Option) *Watcher {
	w := &Watcher{
		state:   Created,
		sys:     defaultSyscalls(),
		fd:      -1,
		open:    OpenFile,
		bufSize: record.DefaultBufferSize,
		log:     discardLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.reg = registry.New(w.sys)
	return w
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Aliases returns the registered aliases in registration order.
func (w *Watcher) Aliases() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reg.Aliases()
}

// Descriptor returns the kernel descriptor of an active alias.
func (w *Watcher) Descriptor(alias string) (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reg.Descriptor(alias)
}

// Close releases the event stream and with it the channel descriptor. A
// GetEvent blocked on the stream returns once the stream is closed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	switch w.state {
	case Closed:
		return &InvalidStateError{Op: "Close", State: w.state}
	case Active:
		if cerr := w.stream.Close(); cerr != nil {
			err = fmt.Errorf("closing inotify stream: %w", cerr)
		}
		w.stream = nil
		w.fd = -1
	}
	w.reg.Forget()
	w.state = Closed
	w.metrics.setActive(0)
	w.log.Info("inotify watcher closed")
	return err
}

func (w *Watcher) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	aliases := w.reg.Aliases()
	if len(aliases) < 20 {
		return fmt.Sprintf("Watching (%s): %v", w.state, aliases)
	}
	return fmt.Sprintf("Watching %d aliases (%s)", len(aliases), w.state)
}
