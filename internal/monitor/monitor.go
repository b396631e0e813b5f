package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dominicbreuker/notifywatch/internal/config"
	"github.com/dominicbreuker/notifywatch/internal/inotify"
	"github.com/dominicbreuker/notifywatch/internal/inotify/record"
	"github.com/dominicbreuker/notifywatch/internal/inotify/registry"
	"github.com/dominicbreuker/notifywatch/internal/logging"
)

type Bindings struct {
	Logger  Logger
	Watcher Watcher
}

type Logger interface {
	Infof(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Eventf(color int, format string, v ...interface{})
}

type Watcher interface {
	Watch(path string, flags uint32, alias string) error
	Setup(ctx context.Context) error
	GetEvent(ctx context.Context) (*inotify.Event, error)
	Close() error
}

const shutdownTimeout = 5 * time.Second

// Run watches cfg's paths until ctx is done or the event stream ends. If
// cfg.MetricsAddr is set, gatherer is served on it under /metrics meanwhile.
func Run(ctx context.Context, cfg *config.Config, b *Bindings, gatherer prometheus.Gatherer) error {
	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	defer stop()

	g.Go(func() error {
		defer stop()
		return Start(runCtx, cfg, b)
	})

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

		g.Go(func() error {
			b.Logger.Infof("Serving metrics on %s", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving metrics: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// Start registers the configured watches, sets up the watcher and prints
// events until ctx is done or the stream ends. The watcher is closed on
// return.
func Start(ctx context.Context, cfg *config.Config, b *Bindings) error {
	b.Logger.Infof("Config: %s", cfg)

	if err := addWatches(cfg, b.Watcher); err != nil {
		b.Watcher.Close()
		return err
	}
	if err := b.Watcher.Setup(ctx); err != nil {
		b.Watcher.Close()
		return fmt.Errorf("setting up watcher: %w", err)
	}
	defer b.Watcher.Close()

	return printOutput(ctx, b)
}

func addWatches(cfg *config.Config, w Watcher) error {
	for _, watch := range cfg.Watches {
		flags, err := inotify.ParseFlags(cfg.EventsFor(watch))
		if err != nil {
			return fmt.Errorf("watch %s: %w", watch.Path, err)
		}
		if err := w.Watch(watch.Path, flags, watch.Alias); err != nil {
			return fmt.Errorf("watch %s: %w", watch.Path, err)
		}
	}
	return nil
}

func printOutput(ctx context.Context, b *Bindings) error {
	for {
		ev, err := b.Watcher.GetEvent(ctx)
		if ctx.Err() != nil {
			b.Logger.Infof("Exiting program... (%v)", ctx.Err())
			return nil
		}
		if err != nil {
			if !perEvent(err) {
				return fmt.Errorf("reading events: %w", err)
			}
			logEventError(b.Logger, err)
			continue
		}
		if ev == nil {
			b.Logger.Infof("Event stream ended")
			return nil
		}
		b.Logger.Eventf(colorFor(ev.Flags), "FS: %s", ev)
	}
}

// perEvent reports whether err concerns a single record only, so that
// reading can go on.
func perEvent(err error) bool {
	var descErr *registry.UnknownDescriptorError
	var encErr *record.InvalidEncodingError
	var truncErr *record.TruncatedRecordError
	return errors.As(err, &descErr) || errors.As(err, &encErr) || errors.As(err, &truncErr)
}

func logEventError(l Logger, err error) {
	var descErr *registry.UnknownDescriptorError
	// The kernel confirms every removed watch with IGNORED after the
	// descriptor is gone from the registry.
	if errors.As(err, &descErr) && descErr.Mask&inotify.Ignored != 0 {
		l.Debugf("ignoring event: %v", err)
		return
	}
	l.Errorf("ERROR: %v", err)
}

func colorFor(flags uint32) int {
	switch {
	case flags&(inotify.Create|inotify.MovedTo) != 0:
		return logging.ColorGreen
	case flags&(inotify.Delete|inotify.DeleteSelf|inotify.MovedFrom) != 0:
		return logging.ColorRed
	default:
		return logging.ColorNone
	}
}
