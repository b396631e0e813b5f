package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `
events: [create, delete]
debug: true
metrics_addr: ":9137"
watches:
  - alias: docs
    path: /tmp/docs
  - path: /var/log
    events: [modify]
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifywatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, &Config{
		Watches: []Watch{
			{Alias: "docs", Path: "/tmp/docs"},
			{Path: "/var/log", Events: []string{"modify"}},
		},
		Events:      []string{"create", "delete"},
		Debug:       true,
		MetricsAddr: ":9137",
	}, cfg)
	require.NoError(t, cfg.Validate())

	require.Equal(t, []string{"create", "delete"}, cfg.EventsFor(cfg.Watches[0]))
	require.Equal(t, []string{"modify"}, cfg.EventsFor(cfg.Watches[1]))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "reading config")

	_, err = Parse([]byte("watches:\n  - path: /tmp\n    recursive: true\n"))
	require.ErrorContains(t, err, "field recursive not found")
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, DefaultEvents, cfg.EventsFor(Watch{Path: "/tmp"}))
	require.EqualError(t, cfg.Validate(), "no watches configured")
}

func TestParseWatch(t *testing.T) {
	tests := []struct {
		arg  string
		want Watch
		err  string
	}{
		{arg: "/tmp", want: Watch{Path: "/tmp"}},
		{arg: "docs=/tmp/docs", want: Watch{Alias: "docs", Path: "/tmp/docs"}},
		{arg: "docs=", err: `watch "docs=": empty path`},
		{arg: "", err: `watch "": empty path`},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := ParseWatch(tt.arg)
			if tt.err != "" {
				require.EqualError(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{Watches: []Watch{{Alias: "x"}}}
	require.EqualError(t, cfg.Validate(), `watch 0 (alias "x"): empty path`)

	cfg = Config{Watches: []Watch{{Path: "/tmp"}}, BufferSize: -1}
	require.Error(t, cfg.Validate())
}

func TestString(t *testing.T) {
	cfg := Config{Watches: []Watch{{Path: "/tmp"}, {Alias: "docs", Path: "/tmp/docs"}}, Events: []string{"create"}}
	require.Equal(t, `Watching: [/tmp docs=/tmp/docs] | events: [create] | debug=false | metrics=""`, cfg.String())
}
