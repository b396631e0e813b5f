package inotify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/dominicbreuker/notifywatch/internal/inotify/record"
	"github.com/dominicbreuker/notifywatch/internal/inotify/registry"
)

type readResult struct {
	rec record.Record
	err error
}

// observe reads exactly one framed record. Header and name are read by the
// same call so a cancelled GetEvent never splits a record.
func observe(rd *record.Reader, out chan<- readResult) {
	rec, err := rd.Next()
	out <- readResult{rec: rec, err: err}
}

// GetEvent blocks until the next event arrives or ctx is done. It returns
// nil and no error once the stream has ended.
//
// When ctx is done first, the read already under way is kept and its record
// is returned by the next call.
func (w *Watcher) GetEvent(ctx context.Context) (*Event, error) {
	w.readMu.Lock()
	defer w.readMu.Unlock()

	w.mu.Lock()
	if w.state != Active {
		st := w.state
		w.mu.Unlock()
		return nil, &InvalidStateError{Op: "GetEvent", State: st}
	}
	if w.exhausted {
		w.mu.Unlock()
		return nil, nil
	}
	if w.inflight == nil {
		w.inflight = make(chan readResult, 1)
		go observe(w.reader, w.inflight)
	}
	results := w.inflight
	w.mu.Unlock()

	var res readResult
	select {
	case res = <-results:
		w.inflight = nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Active {
		return nil, &InvalidStateError{Op: "GetEvent", State: w.state}
	}
	return w.handle(res)
}

func (w *Watcher) handle(res readResult) (*Event, error) {
	if res.err != nil {
		return nil, w.readFailed(res.err)
	}
	rec := res.rec

	if rec.WD == -1 && rec.Mask&QOverflow != 0 {
		w.log.WithField("flags", FlagString(rec.Mask)).Warn("inotify event queue overflowed, events were lost")
		return &Event{Flags: rec.Mask, Cookie: rec.Cookie, Name: rec.Name}, nil
	}

	alias, err := w.reg.Resolve(int(rec.WD))
	if err != nil {
		var descErr *registry.UnknownDescriptorError
		if errors.As(err, &descErr) {
			descErr.Mask = rec.Mask
			// Unwatch already dropped the alias; the kernel confirms with IGNORED.
			if rec.Mask&Ignored != 0 && w.reg.ConfirmRemoval(int(rec.WD)) {
				descErr.Removed = true
				w.log.WithField("wd", rec.WD).Debug("watch removal confirmed")
				return nil, fmt.Errorf("resolving inotify event: %w", err)
			}
		}
		w.metrics.decodeError("unknown_descriptor")
		w.log.WithFields(logrus.Fields{
			"wd":    rec.WD,
			"flags": FlagString(rec.Mask),
			"name":  rec.Name,
		}).Warn("event for unknown watch descriptor")
		return nil, fmt.Errorf("resolving inotify event: %w", err)
	}

	if rec.Mask&Ignored != 0 {
		// The kernel has dropped this watch; its descriptor is dead.
		w.reg.Release(alias)
		w.metrics.setActive(w.reg.NumActive())
	}

	ev := &Event{
		Flags:  rec.Mask,
		Cookie: rec.Cookie,
		Name:   rec.Name,
		Alias:  alias,
	}
	w.metrics.event(alias)
	w.log.WithFields(logrus.Fields{
		"alias": alias,
		"flags": FlagString(rec.Mask),
		"name":  rec.Name,
	}).Debug("event")
	return ev, nil
}

func (w *Watcher) readFailed(err error) error {
	if errors.Is(err, io.EOF) {
		w.exhausted = true
		w.log.Info("inotify stream ended")
		return nil
	}

	var truncErr *record.TruncatedRecordError
	var encErr *record.InvalidEncodingError
	switch {
	case errors.As(err, &truncErr):
		// Whatever follows a cut-off record can not be framed.
		w.exhausted = true
		w.metrics.decodeError("truncated")
	case errors.As(err, &encErr):
		w.metrics.decodeError("encoding")
	default:
		w.metrics.decodeError("read")
	}
	return fmt.Errorf("reading inotify event: %w", err)
}
