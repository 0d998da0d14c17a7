package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	// SECRET_KEY is the only required variable
	t.Setenv("SECRET_KEY", "s3cret")

	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	req.NoError(err)

	req.Equal(DriverBadger, cfg.StoreDriver)
	req.Equal(time.Hour, cfg.TokenDuration)
	req.Equal("*", cfg.CharReplacement)
	req.NoError(cfg.Validate())
}

func TestConfig_FromEnviron(t *testing.T) {
	req := require.New(t)
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("TOKEN_DURATION", "30m")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("DATABASE_URL", "mongodb://localhost:27017")

	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	req.NoError(err)
	req.Equal("127.0.0.1:9090", cfg.Addr())
	req.Equal(30*time.Minute, cfg.TokenDuration)
	req.NoError(cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	base := Config{StoreDriver: DriverBadger, TokenDuration: time.Hour, CharReplacement: "*"}

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"Unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }},
		{"Mongo without url", func(c *Config) { c.StoreDriver = DriverMongo }},
		{"Multi rune replacement", func(c *Config) { c.CharReplacement = "**" }},
		{"Empty replacement", func(c *Config) { c.CharReplacement = "" }},
		{"Zero token duration", func(c *Config) { c.TokenDuration = 0 }},
	}
	require.NoError(t, base.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.modify(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
