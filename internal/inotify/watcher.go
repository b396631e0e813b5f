package inotify

import (
	"github.com/sirupsen/logrus"
)

// Watch asks for events matching flags on path, reported under alias. An
// empty alias means the path itself. Before Setup the request is queued;
// afterwards it is added to the channel right away.
func (w *Watcher) Watch(path string, flags uint32, alias string) error {
	if alias == "" {
		alias = path
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case Created:
		return w.reg.Register(alias, path, flags)
	case Active:
		if err := w.reg.Register(alias, path, flags); err != nil {
			return err
		}
		if err := w.reg.Activate(w.fd, alias); err != nil {
			_ = w.reg.Unregister(alias)
			return err
		}
		wd, _ := w.reg.Descriptor(alias)
		w.metrics.setActive(w.reg.NumActive())
		w.log.WithFields(logrus.Fields{"alias": alias, "path": path, "wd": wd}).Debug("watch added")
		return nil
	default:
		return &InvalidStateError{Op: "Watch", State: w.state}
	}
}

// Unwatch drops the request registered under alias, removing the kernel
// watch if there is one.
func (w *Watcher) Unwatch(alias string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case Created:
		return w.reg.Unregister(alias)
	case Active:
		if err := w.reg.Deactivate(w.fd, alias); err != nil {
			return err
		}
		w.metrics.setActive(w.reg.NumActive())
		w.log.WithField("alias", alias).Debug("watch removed")
		return nil
	default:
		return &InvalidStateError{Op: "Unwatch", State: w.state}
	}
}
