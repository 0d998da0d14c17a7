package internal

import (
	"fmt"
	"strings"
	"time"
)

const (
	DriverBadger = "badger"
	DriverMongo  = "mongo"
)

type Config struct {
	Host          string        `env:"HOST,default=0.0.0.0"`
	Port          int           `env:"PORT,default=8080"`
	Origin        string        `env:"ORIGIN,default=http://localhost:5173"`
	SecretKey     string        `env:"SECRET_KEY,required=true"`
	TokenDuration time.Duration `env:"TOKEN_DURATION,default=1h"`
	CookieSecure  bool          `env:"COOKIE_SECURE,default=false"`
	CookieDomain  string        `env:"COOKIE_DOMAIN"`

	StoreDriver    string `env:"STORE_DRIVER,default=badger"`
	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/badger"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,default=./data/bluge"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MongoDatabase  string `env:"MONGO_DATABASE,default=dmchat"`

	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=2s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=4096"`
	CensoredWords        string        `env:"CENSORED_WORDS"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*"`
}

// Validate checks what the env tags cannot express.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverBadger:
	case DriverMongo:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required with STORE_DRIVER=%s", DriverMongo)
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverBadger, DriverMongo, c.StoreDriver)
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("TOKEN_DURATION must be positive, got %s", c.TokenDuration)
	}
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return err
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
