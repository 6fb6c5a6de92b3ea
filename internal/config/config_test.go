package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stensonb/cloud-agent/internal/brand"
	"github.com/stensonb/cloud-agent/internal/logging"
)

func TestLoadHCL_Full(t *testing.T) {
	src := `
context_path     = "/media/context/context.sh"
state_path       = "/tmp/agent.db"
metrics_textfile = "/var/lib/node_exporter/cloud_agent.prom"
log_level        = "debug"
log_json         = true
legacy_comments  = true

syslog {
  host = "10.0.0.1"
}

watch {
  debounce = "2s"
}
`
	cfg, err := LoadHCL([]byte(src), "agent.hcl")
	require.NoError(t, err)

	assert.Equal(t, "/media/context/context.sh", cfg.ContextPath)
	assert.Equal(t, "/tmp/agent.db", cfg.StatePath)
	assert.Equal(t, "/var/lib/node_exporter/cloud_agent.prom", cfg.MetricsTextfile)
	assert.Equal(t, logging.LevelDebug, cfg.Level())
	assert.True(t, cfg.LogJSON)
	assert.True(t, cfg.LegacyComments)
	assert.Equal(t, 2*time.Second, cfg.Debounce())

	sc, ok := cfg.SyslogSettings()
	require.True(t, ok)
	assert.True(t, sc.Enabled)
	assert.Equal(t, "10.0.0.1", sc.Host)
	assert.Equal(t, 514, sc.Port)
	assert.Equal(t, "udp", sc.Protocol)
	assert.Equal(t, "cloud-agent", sc.Tag)

	lc := cfg.LoggingConfig()
	assert.True(t, lc.JSON)
	assert.Equal(t, logging.LevelDebug, lc.Level)
}

func TestLoadHCL_Defaults(t *testing.T) {
	cfg, err := LoadHCL([]byte(""), "empty.hcl")
	require.NoError(t, err)

	assert.Equal(t, brand.ContextPath, cfg.ContextPath)
	assert.Equal(t, brand.StatePath(), cfg.StatePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultDebounce, cfg.Debounce())

	_, ok := cfg.SyslogSettings()
	assert.False(t, ok)
}

func TestLoadHCL_DirectoryVariables(t *testing.T) {
	t.Setenv(brand.ConfigEnvPrefix+"_STATE_DIR", "/srv/agent")

	cfg, err := LoadHCL([]byte(`state_path = "${state_dir}/boots.db"`), "agent.hcl")
	require.NoError(t, err)
	assert.Equal(t, "/srv/agent/boots.db", cfg.StatePath)
}

func TestLoadHCL_EnvOverrides(t *testing.T) {
	t.Setenv(brand.ConfigEnvPrefix+"_CONTEXT", "/run/context.sh")
	t.Setenv(brand.ConfigEnvPrefix+"_LOG_LEVEL", "warn")

	cfg, err := LoadHCL([]byte(`
context_path = "/mnt/context.sh"
log_level    = "debug"
`), "agent.hcl")
	require.NoError(t, err)
	assert.Equal(t, "/run/context.sh", cfg.ContextPath)
	assert.Equal(t, logging.LevelWarn, cfg.Level())
}

func TestLoadHCL_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"level", `log_level = "loud"`, "log_level"},
		{"debounce", "watch {\n  debounce = \"soon\"\n}", "watch.debounce"},
		{"negative debounce", "watch {\n  debounce = \"-1s\"\n}", "watch.debounce"},
		{"protocol", "syslog {\n  host = \"h\"\n  protocol = \"sctp\"\n}", "syslog.protocol"},
		{"port", "syslog {\n  host = \"h\"\n  port = 70000\n}", "syslog.port"},
		{"relative context", `context_path = "context.sh"`, "context_path"},
		{"traversal", `metrics_textfile = "/var/../etc/x.prom"`, "metrics_textfile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadHCL([]byte(tt.src), "agent.hcl")
			require.NoError(t, err)

			verrs := cfg.Validate()
			require.True(t, verrs.HasErrors())
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestLoadHCL_EnvNotValidated(t *testing.T) {
	t.Setenv(brand.ConfigEnvPrefix+"_LOG_LEVEL", "bogus")

	cfg, err := LoadHCL(nil, "agent.hcl")
	require.NoError(t, err)
	assert.Equal(t, "bogus", cfg.LogLevel)

	cfg.LogLevel = "debug"
	assert.False(t, cfg.Validate().HasErrors())
}

func TestLoadHCL_SyntaxError(t *testing.T) {
	_, err := LoadHCL([]byte(`context_path = `), "broken.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HCL parse error")
}

func TestLoadHCL_UnknownAttribute(t *testing.T) {
	_, err := LoadHCL([]byte(`zone = "wan"`), "agent.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HCL decode error")
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, brand.ContextPath, cfg.ContextPath)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`context_path = "/cdrom/context.sh"`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/cdrom/context.sh", cfg.ContextPath)
}

func TestGenerateHCL_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.MetricsTextfile = "/tmp/metrics.prom"
	cfg.Watch = &WatchConfig{Debounce: "1s"}

	out := GenerateHCL(cfg)
	assert.Contains(t, string(out), `metrics_textfile = "/tmp/metrics.prom"`)

	back, err := LoadHCL(out, "generated.hcl")
	require.NoError(t, err)
	assert.Equal(t, cfg.MetricsTextfile, back.MetricsTextfile)
	assert.Equal(t, time.Second, back.Debounce())
}
