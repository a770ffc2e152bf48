package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	inTempDir(t)
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load(nil)
	req.NoError(err)
	req.Equal("info", cfg.LogLevel)
	req.Equal(8000, cfg.Server.Port)
	req.Equal(6*time.Hour, cfg.Server.TokenTTL)
	req.Equal("drop", cfg.Server.Backpressure)
	req.Equal("http://localhost:8000", cfg.Client.BackendURL)
	req.Equal("/api/transcript-stream", cfg.Client.StreamPath)
	req.Zero(cfg.Client.StreamReconnects)
	req.Zero(cfg.Client.CredentialTimeout)
	req.Equal([]string{"stun:stun.l.google.com:19302"}, cfg.Client.ICEServers)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	req := require.New(t)
	dir := inTempDir(t)
	req.NoError(os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	req.NoError(os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), []byte(`
server:
  port: 9000
  api_secret: filesecret
  worker_command: ["python", "agent.py"]
client:
  backend_url: http://file:8000
  stream_reconnects: 3
`), 0o644))
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("SCRIBE_SERVER_API_SECRET", "envsecret")

	fs := pflag.NewFlagSet("client", pflag.ContinueOnError)
	fs.String("backend-url", "", "backend base URL")
	fs.String("room", "", "room id")
	fs.String("log-level", "", "log level")
	req.NoError(fs.Parse([]string{"--backend-url=http://flag:8000", "--log-level=debug"}))

	cfg, err := Load(fs)
	req.NoError(err)
	req.Equal(9000, cfg.Server.Port)
	req.Equal("envsecret", cfg.Server.APISecret)
	req.Equal([]string{"python", "agent.py"}, cfg.Server.WorkerCommand)
	req.Equal("http://flag:8000", cfg.Client.BackendURL)
	req.Equal(3, cfg.Client.StreamReconnects)
	req.Equal("debug", cfg.LogLevel)
}

func TestLoad_DotEnv(t *testing.T) {
	req := require.New(t)
	dir := inTempDir(t)
	t.Setenv("CONFIG_ENV", "missing")
	// Registered so t restores it after godotenv sets it.
	t.Setenv("SCRIBE_SERVER_MEDIA_URL", "")
	req.NoError(os.Unsetenv("SCRIBE_SERVER_MEDIA_URL"))
	req.NoError(os.WriteFile(filepath.Join(dir, ".env"), []byte("SCRIBE_SERVER_MEDIA_URL=ws://dotenv:7880\n"), 0o644))

	cfg, err := Load(nil)
	req.NoError(err)
	req.Equal("ws://dotenv:7880", cfg.Server.MediaURL)
}

func TestIngestURL(t *testing.T) {
	req := require.New(t)
	req.Equal("http://127.0.0.1:8000/api/transcripts", ServerConfig{Port: 8000}.IngestURL())
	req.Equal("https://scribe.example/api/transcripts", ServerConfig{PublicURL: "https://scribe.example/"}.IngestURL())
}

func TestLoad_RateLimitDefaults(t *testing.T) {
	req := require.New(t)
	inTempDir(t)
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load(nil)
	req.NoError(err)
	req.Equal(30, cfg.Server.RateLimit)
	req.Equal(time.Minute, cfg.Server.RateInterval)
}
