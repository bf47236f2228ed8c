package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 150*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.ReconnectDelay)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 0, cfg.Server.Port)
	assert.Equal(t, "/__ws", cfg.Server.UpgradePath)
	assert.True(t, cfg.Server.Open)
	assert.Equal(t, os.TempDir(), cfg.Output.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, ValidateConfigWithDetails(cfg).HasErrors())
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(v *viper.Viper)
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:  "defaults only",
			setup: func(v *viper.Viper) {},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce)
				assert.True(t, cfg.Server.Open)
			},
		},
		{
			name: "duration strings are decoded",
			setup: func(v *viper.Viper) {
				v.Set("watch.debounce", "300ms")
				v.Set("watch.reconnect_delay", "1s")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
				assert.Equal(t, time.Second, cfg.Watch.ReconnectDelay)
			},
		},
		{
			name: "no-open flag override",
			setup: func(v *viper.Viper) {
				v.Set("server.open", true)
				v.Set("server.no-open", true)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Server.Open)
			},
		},
		{
			name: "non-loopback host rejected",
			setup: func(v *viper.Viper) {
				v.Set("server.host", "0.0.0.0")
			},
			expectError: true,
		},
		{
			name: "invalid port type",
			setup: func(v *viper.Viper) {
				v.Set("server.port", "invalid_port")
			},
			expectError: true,
		},
		{
			name: "zero debounce rejected",
			setup: func(v *viper.Viper) {
				v.Set("watch.debounce", "0s")
			},
			expectError: true,
		},
		{
			name: "unknown log format rejected",
			setup: func(v *viper.Viper) {
				v.Set("log.format", "xml")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			tt.setup(v)

			cfg, err := LoadFrom(v)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".mdreader.yml")
	content := `watch:
  debounce: 250ms
server:
  upgrade_path: /__live
  open: false
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, DefaultReconnectDelay, cfg.Watch.ReconnectDelay)
	assert.Equal(t, "/__live", cfg.Server.UpgradePath)
	assert.False(t, cfg.Server.Open)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadUsesGlobalViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("server.port", 9123)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9123, cfg.Server.Port)
}

func TestValidateConfigWithDetails(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	cfg.Server.UpgradePath = "/"
	cfg.Watch.Debounce = 10 * time.Second
	cfg.Log.Level = "chatty"

	result := ValidateConfigWithDetails(cfg)

	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors())
	assert.True(t, result.HasWarnings())

	fields := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"server.port", "server.upgrade_path", "log.level"}, fields)

	out := result.String()
	assert.Contains(t, out, "Validation errors:")
	assert.Contains(t, out, "Validation warnings:")
	assert.Contains(t, out, "watch.debounce")
}

func TestValidationErrorError(t *testing.T) {
	err := &ValidationError{Field: "server.host", Message: "bad"}
	assert.Equal(t, "validation error in server.host: bad", err.Error())
}
