package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CONFIG_PATH", "PORT", "MONGO_URI", "STORE_URI", "STATIC_DIR",
		"REDIS_ADDR", "GRPC_ADDR", "APP_ENV", "LOG_BACKEND", "LOG_DEBUG"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 3000, cfg.HTTP.Port)
	require.Equal(t, ":3000", cfg.HTTP.Addr())
	require.Equal(t, "./public", cfg.HTTP.StaticDir)
	require.Equal(t, "badger://./data", cfg.Store.URI)
	require.Equal(t, 5*time.Second, cfg.Store.OpTimeout)
	require.Equal(t, 15*time.Second, cfg.WS.PingEvery)
	require.Equal(t, "board:events", cfg.Redis.Channel)
	require.Equal(t, "board-service", cfg.Logging.Service)
	require.Empty(t, cfg.Logging.Backend, "left to the logger's env default")
	require.Empty(t, cfg.Redis.Addr)
	require.Empty(t, cfg.GRPC.Addr)
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeYAML(t, `
http:
  port: 8081
  staticDir: /srv/www
store:
  uri: postgres://board:board@db:5432/board
  opTimeout: 2s
ws:
  pingEvery: 30s
logging:
  backend: zap
  env: prod
`))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 8081, cfg.HTTP.Port)
	require.Equal(t, "/srv/www", cfg.HTTP.StaticDir)
	require.Equal(t, "postgres://board:board@db:5432/board", cfg.Store.URI)
	require.Equal(t, 2*time.Second, cfg.Store.OpTimeout)
	require.Equal(t, 30*time.Second, cfg.WS.PingEvery)
	require.Equal(t, "zap", cfg.Logging.Backend)
	require.Equal(t, "prod", cfg.Logging.Env)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeYAML(t, `
http:
  port: 8081
store:
  uri: badger:///var/lib/board
`))
	t.Setenv("PORT", "9000")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017/board")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_DEBUG", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.HTTP.Port)
	require.Equal(t, "mongodb://localhost:27017/board", cfg.Store.URI)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.True(t, cfg.Logging.Debug)

	t.Setenv("STORE_URI", "postgres://localhost/board")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost/board", cfg.Store.URI)
}

func TestLoadConfig_BackendNormalized(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_BACKEND", " ZAP ")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "zap", cfg.Logging.Backend)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		path string
		env  map[string]string
	}{
		{name: "explicit path missing", path: filepath.Join(os.TempDir(), "does-not-exist.yaml")},
		{name: "bad yaml", yaml: "http: [port"},
		{name: "unknown backend", yaml: "logging:\n  backend: syslog\n"},
		{name: "port out of range", yaml: "http:\n  port: 70000\n"},
		{name: "port not a number", env: map[string]string{"PORT": "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			switch {
			case tt.path != "":
				t.Setenv("CONFIG_PATH", tt.path)
			case tt.yaml != "":
				t.Setenv("CONFIG_PATH", writeYAML(t, tt.yaml))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
