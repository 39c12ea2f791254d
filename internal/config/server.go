package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// PostgresDSN enables the hand-history recorder when set.
	PostgresDSN string `env:"POSTGRES_DSN"`

	// ActionTimeout auto-folds the active seat when it expires; zero
	// disables the turn timer.
	ActionTimeout time.Duration `env:"ACTION_TIMEOUT" envDefault:"0"`

	// DefaultBuyIn is the stack granted when a request omits buy_in.
	DefaultBuyIn int64 `env:"DEFAULT_BUY_IN" envDefault:"10000"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
