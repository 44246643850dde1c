package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type StorageConfig struct {
	Driver      string
	RedisAddr   string
	DatabaseURL string
	TTL         time.Duration
}

type PushConfig struct {
	ReconnectInitial time.Duration
	Multiplier       float64
	MaxInterval      time.Duration
	MaxRetries       uint64
}

type PreloaderConfig struct {
	Settle      time.Duration
	Ceiling     time.Duration
	FadeOut     time.Duration
	DetachDelay time.Duration
}

type RevealConfig struct {
	Hero       time.Duration
	Categories time.Duration
	Newsletter time.Duration
	Loader     time.Duration
	LoaderFade time.Duration
}

type Config struct {
	Port            string
	APIURL          string
	LoginURL        string
	CurrencySymbol  string
	SessionKey      []byte
	CSRFKey         []byte
	CookieSecure    bool
	CSRFEnabled     bool
	TrustProxy      bool
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	ToastDuration   time.Duration
	CartRateLimit   float64
	CartRateBurst   int
	LogLevel        string
	LogFormat       string

	Storage   StorageConfig
	Push      PushConfig
	Preloader PreloaderConfig
	Reveal    RevealConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("api_url", "http://localhost:5000")
	v.SetDefault("login_url", "/auth/login")
	v.SetDefault("currency_symbol", "₦")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("csrf_enabled", true)
	v.SetDefault("trust_proxy", false)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("shutdown_timeout", 15*time.Second)
	v.SetDefault("toast_duration", 3*time.Second)
	v.SetDefault("cart_rate_limit", 5)
	v.SetDefault("cart_rate_burst", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.database_url", "")
	v.SetDefault("storage.ttl", 30*24*time.Hour)

	v.SetDefault("push.reconnect_initial", 3*time.Second)
	v.SetDefault("push.multiplier", 1.0)
	v.SetDefault("push.max_interval", time.Minute)
	v.SetDefault("push.max_retries", 0)

	v.SetDefault("preloader.settle", 500*time.Millisecond)
	v.SetDefault("preloader.ceiling", 4*time.Second)
	v.SetDefault("preloader.fade_out", 600*time.Millisecond)
	v.SetDefault("preloader.detach_delay", 100*time.Millisecond)

	v.SetDefault("reveal.hero", 800*time.Millisecond)
	v.SetDefault("reveal.categories", 1000*time.Millisecond)
	v.SetDefault("reveal.newsletter", 1200*time.Millisecond)
	v.SetDefault("reveal.loader", 500*time.Millisecond)
	v.SetDefault("reveal.loader_fade", 300*time.Millisecond)
}

// Load reads defaults, an optional storefront.yaml from the given directories
// and STOREFRONT_* environment variables, in increasing priority.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("storefront")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if len(paths) == 0 {
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Port:            v.GetString("port"),
		APIURL:          strings.TrimRight(v.GetString("api_url"), "/"),
		LoginURL:        v.GetString("login_url"),
		CurrencySymbol:  v.GetString("currency_symbol"),
		CookieSecure:    v.GetBool("cookie_secure"),
		CSRFEnabled:     v.GetBool("csrf_enabled"),
		TrustProxy:      v.GetBool("trust_proxy"),
		RequestTimeout:  v.GetDuration("request_timeout"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		ToastDuration:   v.GetDuration("toast_duration"),
		CartRateLimit:   v.GetFloat64("cart_rate_limit"),
		CartRateBurst:   v.GetInt("cart_rate_burst"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		Storage: StorageConfig{
			Driver:      strings.ToLower(v.GetString("storage.driver")),
			RedisAddr:   v.GetString("storage.redis_addr"),
			DatabaseURL: v.GetString("storage.database_url"),
			TTL:         v.GetDuration("storage.ttl"),
		},
		Push: PushConfig{
			ReconnectInitial: v.GetDuration("push.reconnect_initial"),
			Multiplier:       v.GetFloat64("push.multiplier"),
			MaxInterval:      v.GetDuration("push.max_interval"),
			MaxRetries:       v.GetUint64("push.max_retries"),
		},
		Preloader: PreloaderConfig{
			Settle:      v.GetDuration("preloader.settle"),
			Ceiling:     v.GetDuration("preloader.ceiling"),
			FadeOut:     v.GetDuration("preloader.fade_out"),
			DetachDelay: v.GetDuration("preloader.detach_delay"),
		},
		Reveal: RevealConfig{
			Hero:       v.GetDuration("reveal.hero"),
			Categories: v.GetDuration("reveal.categories"),
			Newsletter: v.GetDuration("reveal.newsletter"),
			Loader:     v.GetDuration("reveal.loader"),
			LoaderFade: v.GetDuration("reveal.loader_fade"),
		},
	}

	cfg.SessionKey = decodeKey("session_key", v.GetString("session_key"))
	cfg.CSRFKey = decodeKey("csrf_key", v.GetString("csrf_key"))

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("invalid port, falling back to default", "port", cfg.Port)
		cfg.Port = "8080"
	}

	switch cfg.Storage.Driver {
	case "memory", "redis", "postgres":
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "postgres" && cfg.Storage.DatabaseURL == "" {
		return nil, errors.New("storage driver postgres needs STOREFRONT_STORAGE_DATABASE_URL")
	}

	return cfg, nil
}

// decodeKey reads a base64 key of at least 32 bytes. Anything else yields a
// random key that changes on every restart.
func decodeKey(name, encoded string) []byte {
	if encoded == "" {
		slog.Warn("key not set, generating a random one for development", "key", name)
		return generateRandomBytes(32)
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(key) < 32 {
		slog.Warn("key is invalid or shorter than 32 bytes, generating a random one", "key", name)
		return generateRandomBytes(32)
	}
	return key
}

func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return b
}

// SlogLevel maps the configured level name onto slog.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
