// Package config loads compiler defaults from an optional mddc.toml file.
// Command-line flags override anything set here.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the config file looked up in the working directory when
// no explicit path is given.
const DefaultFile = "mddc.toml"

// Config holds the compiler defaults.
type Config struct {
	// Compression is the default chunk compression (none, gzip, xz).
	Compression string `toml:"compression"`

	// Strict promotes validation warnings to failures.
	Strict bool `toml:"strict"`

	// LogLevel sets the default log level (debug, info, warn, error).
	LogLevel string `toml:"log_level"`
}

// Default returns the built-in defaults used when no config file exists.
func Default() Config {
	return Config{
		Compression: "xz",
		LogLevel:    "info",
	}
}

// Load reads the config file at path, or DefaultFile in the working
// directory when path is empty. A missing file is not an error; the
// defaults are returned. Unknown keys are rejected so typos surface.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	switch cfg.Compression {
	case "none", "gzip", "xz":
	default:
		return Config{}, fmt.Errorf("load config %s: unknown compression %q", path, cfg.Compression)
	}
	return cfg, nil
}
