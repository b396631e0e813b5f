package inotify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dominicbreuker/notifywatch/internal/inotify/record"
)

// Setup opens the notification channel, adds every pending watch in
// registration order and binds the channel to the event stream. If any step
// fails the watcher ends up Failed and must be replaced.
func (w *Watcher) Setup(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != Created {
		return &InvalidStateError{Op: "Setup", State: w.state}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fd, err := w.sys.Init()
	if err != nil {
		w.state = Failed
		return fmt.Errorf("setting up inotify: %w", err)
	}
	w.fd = fd

	for _, alias := range w.reg.Pending() {
		if err := w.reg.Activate(fd, alias); err != nil {
			w.abortSetup()
			return fmt.Errorf("setting up watch for alias %q: %w", alias, err)
		}
		wd, _ := w.reg.Descriptor(alias)
		w.log.WithFields(logrus.Fields{"alias": alias, "wd": wd}).Debug("watch added")
	}

	if err := ctx.Err(); err != nil {
		w.abortSetup()
		return err
	}
	stream, err := w.open(fd)
	if err != nil {
		w.abortSetup()
		return fmt.Errorf("binding inotify fd %d to stream: %w", fd, err)
	}
	w.stream = stream
	w.reader = record.NewReader(stream, w.bufSize)
	w.state = Active
	w.metrics.setActive(w.reg.NumActive())
	w.log.WithField("watches", w.reg.NumActive()).Info("inotify watcher set up")
	return nil
}

// abortSetup removes what the failed attempt added and releases the channel.
// Errors are logged only: the attempt has already failed.
func (w *Watcher) abortSetup() {
	for _, alias := range w.reg.Aliases() {
		if _, active := w.reg.Descriptor(alias); !active {
			continue
		}
		if err := w.reg.Deactivate(w.fd, alias); err != nil {
			w.log.WithError(err).WithField("alias", alias).Warn("removing watch after failed setup")
		}
	}
	w.reg.Forget()
	if err := w.sys.Close(w.fd); err != nil {
		w.log.WithError(err).Warn("closing inotify fd after failed setup")
	}
	w.fd = -1
	w.state = Failed
}
