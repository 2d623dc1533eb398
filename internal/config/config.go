// Package config loads the client configuration.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all recognized runtime options. Values come from the yaml
// file with environment variables taking precedence.
type Config struct {
	Server   Server   `yaml:"server"`
	Features Features `yaml:"features"`
}

// Server is the transport endpoint.
type Server struct {
	Host string `yaml:"host" env:"REVERSI_SERVER_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REVERSI_SERVER_PORT" env-default:"8888"`
	Path string `yaml:"path" env:"REVERSI_SERVER_PATH" env-default:"/ws"`
}

// Features gate the differences between protocol revisions so one client
// speaks the superset protocol. Flags are phrased so that the zero value
// is the default behavior.
type Features struct {
	// NoReconnect disables automatic redialing after an unexpected close.
	NoReconnect bool `yaml:"no-reconnect" env:"REVERSI_NO_RECONNECT"`
	// OmitPlayerID drops the local player id from move payloads.
	OmitPlayerID bool `yaml:"omit-player-id" env:"REVERSI_OMIT_PLAYER_ID"`
	// LegacyMoveKeys encodes move coordinates as a/b instead of x/y.
	LegacyMoveKeys bool `yaml:"legacy-move-keys" env:"REVERSI_LEGACY_MOVE_KEYS"`
}

// MustLoad reads the config file at path, falling back to environment
// variables and defaults when the file does not exist.
func MustLoad(path string) *Config {
	config := &Config{}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(config); err != nil {
			panic(fmt.Errorf("unable to load config from environment: %w", err))
		}
		return config
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// URL builds the WebSocket endpoint.
func (s *Server) URL() string {
	return fmt.Sprintf("ws://%s:%s%s", s.Host, s.Port, s.Path)
}
