package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "SCRIBE"

type Config struct {
	LogLevel string       `mapstructure:"log_level"`
	Server   ServerConfig `mapstructure:"server"`
	Client   ClientConfig `mapstructure:"client"`
}

type ServerConfig struct {
	Mode              string        `mapstructure:"mode"`
	Port              int           `mapstructure:"port"`
	APIKey            string        `mapstructure:"api_key"`
	APISecret         string        `mapstructure:"api_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	MediaURL          string        `mapstructure:"media_url"`
	PublicURL         string        `mapstructure:"public_url"`
	Keepalive         time.Duration `mapstructure:"keepalive"`
	SubscriberBuffer  int           `mapstructure:"subscriber_buffer"`
	Backpressure      string        `mapstructure:"backpressure"`
	WorkerCommand     []string      `mapstructure:"worker_command"`
	WorkerIdleTimeout time.Duration `mapstructure:"worker_idle_timeout"`
	WorkerCheckPeriod time.Duration `mapstructure:"worker_check_period"`
	RateLimit         int           `mapstructure:"rate_limit"`
	RateInterval      time.Duration `mapstructure:"rate_interval"`
}

// IngestURL is where workers post finalized transcript segments.
func (s ServerConfig) IngestURL() string {
	base := s.PublicURL
	if base == "" {
		base = fmt.Sprintf("http://127.0.0.1:%d", s.Port)
	}
	return strings.TrimRight(base, "/") + "/api/transcripts"
}

type ClientConfig struct {
	BackendURL           string        `mapstructure:"backend_url"`
	TokenPath            string        `mapstructure:"token_path"`
	AttachPath           string        `mapstructure:"attach_path"`
	StreamPath           string        `mapstructure:"stream_path"`
	SignalURL            string        `mapstructure:"signal_url"`
	ICEServers           []string      `mapstructure:"ice_servers"`
	CredentialTimeout    time.Duration `mapstructure:"credential_timeout"`
	ActivationTimeout    time.Duration `mapstructure:"activation_timeout"`
	StreamReconnects     int           `mapstructure:"stream_reconnects"`
	StreamReconnectDelay time.Duration `mapstructure:"stream_reconnect_delay"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("server.mode", "release")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.api_key", "devkey")
	v.SetDefault("server.api_secret", "")
	v.SetDefault("server.token_ttl", "6h")
	v.SetDefault("server.media_url", "ws://localhost:7880")
	v.SetDefault("server.public_url", "")
	v.SetDefault("server.keepalive", "15s")
	v.SetDefault("server.subscriber_buffer", 64)
	v.SetDefault("server.backpressure", "drop")
	v.SetDefault("server.worker_command", []string{})
	v.SetDefault("server.worker_idle_timeout", "1m")
	v.SetDefault("server.worker_check_period", "5s")
	v.SetDefault("server.rate_limit", 30)
	v.SetDefault("server.rate_interval", "1m")

	v.SetDefault("client.backend_url", "http://localhost:8000")
	v.SetDefault("client.token_path", "/api/token")
	v.SetDefault("client.attach_path", "/api/attach-transcriber")
	v.SetDefault("client.stream_path", "/api/transcript-stream")
	v.SetDefault("client.signal_url", "")
	v.SetDefault("client.ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("client.credential_timeout", "0s")
	v.SetDefault("client.activation_timeout", "10s")
	v.SetDefault("client.stream_reconnects", 0)
	v.SetDefault("client.stream_reconnect_delay", "2s")
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then SCRIBE_*
// environment variables, then any flags in fs that were set explicitly.
// fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("failed to read .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Server.Mode).Int("port", cfg.Server.Port).Str("backend", cfg.Client.BackendURL).Msg("config ready")
	return &cfg, nil
}

// bindFlags maps flag "backend-url" to key "client.backend_url" and so on.
// Flags named after a top-level key bind to it directly.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		for _, section := range []string{"client", "server"} {
			if v.IsSet(section + "." + key) {
				key = section + "." + key
				break
			}
		}
		if !v.IsSet(key) {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

// SetupLogger installs the console writer on stderr and the global level.
func SetupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
