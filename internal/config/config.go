// Package config loads almconv settings from an ini file and locates the
// game's engine data directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "almconv.ini"

// Config holds the settings the CLI reads from almconv.ini.
type Config struct {
	DataDir  string       // [data] dir
	LogLevel logrus.Level // [log] level
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{LogLevel: logrus.InfoLevel}
}

// Load reads path. A missing file yields the defaults; a malformed file or
// an unknown log level is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := ini.LooseLoad(path)
	if err != nil {
		return cfg, fmt.Errorf("load %s: %w", path, err)
	}

	cfg.DataDir = f.Section("data").Key("dir").String()

	if key := f.Section("log").Key("level"); key.String() != "" {
		level, err := logrus.ParseLevel(key.String())
		if err != nil {
			return cfg, fmt.Errorf("load %s: [log] level: %w", path, err)
		}
		cfg.LogLevel = level
	}
	return cfg, nil
}

// marker is the file whose presence identifies a data directory, relative to
// the directory that contains "data".
var marker = filepath.Join("data", "world", "data", "itemname.bin")

// DiscoverDataDir walks up from the directory of path looking for a game
// install and returns its data directory.
func DiscoverDataDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	for d := filepath.Dir(abs); ; d = filepath.Dir(d) {
		if _, err := os.Stat(filepath.Join(d, marker)); err == nil {
			return filepath.Join(d, "data"), nil
		}
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	return "", fmt.Errorf("no game data directory above %s, set --data-dir", path)
}

// ResolveDataDir picks the data directory: the explicit flag value, then the
// config file, then discovery from the first map path.
func ResolveDataDir(flag string, cfg Config, maps []string) (string, error) {
	switch {
	case flag != "":
		return flag, nil
	case cfg.DataDir != "":
		return cfg.DataDir, nil
	case len(maps) > 0:
		return DiscoverDataDir(maps[0])
	default:
		return "", errors.New("no data directory: set --data-dir or [data] dir in " + DefaultFile)
	}
}
