package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dominicbreuker/notifywatch/internal/config"
	"github.com/dominicbreuker/notifywatch/internal/inotify"
	"github.com/dominicbreuker/notifywatch/internal/inotify/sys"
	"github.com/dominicbreuker/notifywatch/internal/logging"
	"github.com/dominicbreuker/notifywatch/internal/monitor"
)

var helpText = `
notifywatch prints file system events for the paths you give it.
Each path is watched under an alias (the path itself unless you name one),
and every event line says which alias it belongs to.
Events are read straight from a single inotify instance.
Directories are not watched recursively.
`

var rootCmd = &cobra.Command{
	Use:   "notifywatch [flags] [alias=]path...",
	Short: "notifywatch prints inotify events for a set of aliased paths",
	Long:  helpText,
	RunE:  root,

	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	cfgFile     string
	watchArgs   []string
	events      []string
	debug       bool
	metricsAddr string
	bufferSize  int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "read watches and settings from this YAML file")
	rootCmd.PersistentFlags().StringArrayVarP(&watchArgs, "watch", "w", []string{}, "watch this path, optionally as alias=path")
	rootCmd.PersistentFlags().StringSliceVarP(&events, "events", "e", []string{}, "events to watch for (default "+strings.Join(config.DefaultEvents, ",")+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().IntVar(&bufferSize, "buffer-size", 0, "read buffer size in bytes for the inotify stream")
}

func root(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.Debug)
	if limits, err := sys.ReadLimits(); err != nil {
		logger.Debugf("Can't get inotify limits: %v", err)
	} else {
		logger.Debugf("inotify limits: %s", limits)
		if len(cfg.Watches) > limits.MaxUserWatches {
			return fmt.Errorf("%d watches configured but max_user_watches is %d", len(cfg.Watches), limits.MaxUserWatches)
		}
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []inotify.Option{
		inotify.WithLogger(logger.Diagnostics()),
		inotify.WithMetrics(inotify.NewMetrics(reg)),
	}
	if cfg.BufferSize > 0 {
		opts = append(opts, inotify.WithBufferSize(cfg.BufferSize))
	}
	b := &monitor.Bindings{
		Logger:  logger,
		Watcher: inotify.NewWatcher(opts...),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return monitor.Run(ctx, cfg, b, reg)
}

// buildConfig starts from the config file, if any, and lets flags override
// it. Watches from flags and arguments are appended to those from the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := &config.Config{}
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	for _, arg := range append(watchArgs, args...) {
		w, err := config.ParseWatch(arg)
		if err != nil {
			return nil, err
		}
		cfg.Watches = append(cfg.Watches, w)
	}

	flags := cmd.Flags()
	if flags.Changed("events") {
		cfg.Events = events
	}
	if flags.Changed("debug") {
		cfg.Debug = debug
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	if flags.Changed("buffer-size") {
		cfg.BufferSize = bufferSize
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
