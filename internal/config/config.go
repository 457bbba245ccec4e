package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "FLOWON"

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	Auth   AuthConfig   `mapstructure:"auth"`
	Voice  VoiceConfig  `mapstructure:"voice"`
	Signal SignalConfig `mapstructure:"signal"`
}

// AuthConfig covers dashboard bearer tokens.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// VoiceConfig covers room tokens and where clients connect with them.
type VoiceConfig struct {
	// Provider is "builtin" (this server's SFU) or "livekit".
	Provider   string        `mapstructure:"provider"`
	LiveKitURL string        `mapstructure:"livekit_url"`
	SignalURL  string        `mapstructure:"signal_url"`
	APIKey     string        `mapstructure:"api_key"`
	APISecret  string        `mapstructure:"api_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	ICEServers []string      `mapstructure:"ice_servers"`
}

// SignalConfig tunes the built-in signaling server.
type SignalConfig struct {
	JoinLimit    int           `mapstructure:"join_limit"`
	JoinInterval time.Duration `mapstructure:"join_interval"`
	SendBuffer   int           `mapstructure:"send_buffer"`
	KickSlow     bool          `mapstructure:"kick_slow"`
}

// RoomURL is the URL handed out with room tokens.
func (c *Config) RoomURL() string {
	if c.Voice.Provider == "livekit" {
		return c.Voice.LiveKitURL
	}
	if c.Voice.SignalURL != "" {
		return c.Voice.SignalURL
	}
	return fmt.Sprintf("ws://127.0.0.1:%d/api/ws/signal", c.Port)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Voice.APIKey == "" || c.Voice.APISecret == "" {
		errs = append(errs, errors.New("voice.api_key and voice.api_secret are required"))
	}
	switch c.Voice.Provider {
	case "builtin":
	case "livekit":
		if c.Voice.LiveKitURL == "" {
			errs = append(errs, errors.New("voice.livekit_url is required with the livekit provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown voice.provider %q", c.Voice.Provider))
	}
	return errors.Join(errs...)
}

// Flags declares the server command-line overrides.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	fs.Int("port", 8080, "listen port")
	fs.String("mode", "release", "gin mode: debug or release")
	fs.String("log-level", "info", "log level")
	fs.String("voice-provider", "builtin", "room provider: builtin or livekit")
	return fs
}

func Load(fs *pflag.FlagSet) (*Config, error) {
	v := newViper("config", fs)

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "flowon")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("voice.provider", "builtin")
	v.SetDefault("voice.livekit_url", "")
	v.SetDefault("voice.signal_url", "")
	v.SetDefault("voice.api_key", "")
	v.SetDefault("voice.api_secret", "")
	v.SetDefault("voice.token_ttl", "10m")
	v.SetDefault("voice.ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("signal.join_limit", 5)
	v.SetDefault("signal.join_interval", "1m")
	v.SetDefault("signal.send_buffer", 32)
	v.SetDefault("signal.kick_slow", true)

	if err := bindFlags(v, fs, map[string]string{
		"port":           "port",
		"mode":           "mode",
		"log-level":      "log_level",
		"voice-provider": "voice.provider",
	}); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("provider", cfg.Voice.Provider).Msg("config loaded")
	return &cfg, nil
}

// ClientConfig configures voicectl.
type ClientConfig struct {
	BackendURL      string        `mapstructure:"backend_url"`
	AuthToken       string        `mapstructure:"auth_token"`
	Transport       string        `mapstructure:"transport"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	TeardownTimeout time.Duration `mapstructure:"teardown_timeout"`
	AudioSource     string        `mapstructure:"audio_source"`
	RecordDir       string        `mapstructure:"record_dir"`
	ICEServers      []string      `mapstructure:"ice_servers"`
	LogLevel        string        `mapstructure:"log_level"`
}

func (c *ClientConfig) Validate() error {
	var errs []error
	if c.BackendURL == "" {
		errs = append(errs, errors.New("backend_url is required"))
	}
	if c.AuthToken == "" {
		errs = append(errs, errors.New("auth_token is required"))
	}
	if c.Transport != "builtin" && c.Transport != "livekit" {
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}
	return errors.Join(errs...)
}

// ClientFlags declares the voicectl flags that map onto ClientConfig.
func ClientFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("voicectl", pflag.ContinueOnError)
	fs.String("backend", "", "dashboard backend base URL")
	fs.String("token", "", "dashboard bearer token")
	fs.String("transport", "builtin", "room transport: builtin or livekit")
	fs.String("audio", "", "Ogg/Opus file fed to the microphone (silence when empty)")
	fs.String("record", "", "directory receiving one .ogg per remote track")
	fs.String("log-level", "info", "log level")
	return fs
}

func LoadClient(fs *pflag.FlagSet) (*ClientConfig, error) {
	v := newViper("voicectl", fs)

	v.SetDefault("backend_url", "http://127.0.0.1:8080")
	v.SetDefault("auth_token", "")
	v.SetDefault("transport", "builtin")
	v.SetDefault("connect_timeout", "15s")
	v.SetDefault("teardown_timeout", "2s")
	v.SetDefault("audio_source", "")
	v.SetDefault("record_dir", "")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("log_level", "info")

	if err := bindFlags(v, fs, map[string]string{
		"backend":   "backend_url",
		"token":     "auth_token",
		"transport": "transport",
		"audio":     "audio_source",
		"record":    "record_dir",
		"log-level": "log_level",
	}); err != nil {
		return nil, err
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// newViper reads config/<name>.<CONFIG_ENV>.yaml when present and layers
// FLOWON_* environment variables on top.
func newViper(name string, fs *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/%s.%s.yaml", name, env)
	v.SetConfigFile(fileName)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}
	return v
}

// bindFlags binds only flags set on the command line, so unset flag defaults
// never shadow file or environment values.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	if fs == nil {
		return nil
	}
	for flag, key := range keys {
		f := fs.Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// SetupLogging initialises the global zerolog logger the way every command does.
func SetupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
