package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultEvents is used for watches that do not list their own events.
var DefaultEvents = []string{"create", "delete", "modify", "close_write", "moved_from", "moved_to"}

type Watch struct {
	Alias  string   `yaml:"alias"`
	Path   string   `yaml:"path"`
	Events []string `yaml:"events,omitempty"`
}

type Config struct {
	Watches     []Watch  `yaml:"watches"`
	Events      []string `yaml:"events,omitempty"`
	Debug       bool     `yaml:"debug"`
	MetricsAddr string   `yaml:"metrics_addr,omitempty"`
	BufferSize  int      `yaml:"buffer_size,omitempty"`
}

// Load reads a YAML config file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func Parse(b []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ParseWatch reads a command line watch argument, either "path" or
// "alias=path".
func ParseWatch(arg string) (Watch, error) {
	alias, path, found := strings.Cut(arg, "=")
	if !found {
		path, alias = alias, ""
	}
	if path == "" {
		return Watch{}, fmt.Errorf("watch %q: empty path", arg)
	}
	return Watch{Alias: alias, Path: path}, nil
}

// EventsFor returns the event names a watch asks for.
func (c Config) EventsFor(w Watch) []string {
	switch {
	case len(w.Events) > 0:
		return w.Events
	case len(c.Events) > 0:
		return c.Events
	default:
		return DefaultEvents
	}
}

func (c Config) Validate() error {
	if len(c.Watches) == 0 {
		return errors.New("no watches configured")
	}
	for i, w := range c.Watches {
		if w.Path == "" {
			return fmt.Errorf("watch %d (alias %q): empty path", i, w.Alias)
		}
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer size must not be negative: %d", c.BufferSize)
	}
	return nil
}

func (c Config) String() string {
	watches := make([]string, 0, len(c.Watches))
	for _, w := range c.Watches {
		if w.Alias == "" || w.Alias == w.Path {
			watches = append(watches, w.Path)
		} else {
			watches = append(watches, w.Alias+"="+w.Path)
		}
	}
	return fmt.Sprintf("Watching: %v | events: %v | debug=%t | metrics=%q", watches, c.EventsFor(Watch{}), c.Debug, c.MetricsAddr)
}
