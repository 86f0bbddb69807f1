// Package config loads the process-wide deployment configuration.
//
// Settings come from an optional TOML file overlaid by CANVAS_*
// environment variables, mirroring the dotenv surface the notebook host
// exports. Per-session values (space, grid, output directory, mode) are
// not configuration; they arrive with each configuration request.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/ovecast/ovecast/pkg/errors"
)

// Mode selects between issuing canvas mutations and logging them.
type Mode string

// Deployment modes.
const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeProduction, ModeDevelopment:
		return Mode(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidMode, "unknown mode: %s", s)
}

// Settings is the deployment configuration shared by every session.
type Settings struct {
	// Core is the canvas service API root, e.g. "http://ove:8080".
	Core string `toml:"core"`

	// Host is the public base URL assets are served from, without the
	// port, e.g. "http://localhost".
	Host string `toml:"host"`

	// Port the asset/control server listens on.
	Port int `toml:"port"`

	// Optional basic-auth credentials for the asset server. Setting
	// one without the other is a startup error.
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// AssetHost returns the host:port base URL assets are addressed under.
func (s Settings) AssetHost() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks invariants that must hold before a server starts.
func (s Settings) Validate() error {
	if s.Core == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas core url not configured")
	}
	if s.Host == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "asset host not configured")
	}
	if s.Port <= 0 || s.Port > 65535 {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid port %d", s.Port)
	}
	if (s.Username == "") != (s.Password == "") {
		return errors.New(errors.ErrCodeInvalidConfig, "please provide both a username and a password")
	}
	return nil
}

// Load reads settings from the TOML file at path (skipped when path is
// empty or missing) and overlays CANVAS_* environment variables.
func Load(path string) (Settings, error) {
	s := Settings{Port: 8000}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &s); err != nil {
				return Settings{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
			}
		}
	}

	if v := os.Getenv("CANVAS_CORE"); v != "" {
		s.Core = v
	}
	if v := os.Getenv("CANVAS_HOST"); v != "" {
		s.Host = v
	}
	if v := os.Getenv("CANVAS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Settings{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse CANVAS_PORT")
		}
		s.Port = port
	}
	if v := os.Getenv("CANVAS_USERNAME"); v != "" {
		s.Username = v
	}
	if v := os.Getenv("CANVAS_PASSWORD"); v != "" {
		s.Password = v
	}

	return s, nil
}
