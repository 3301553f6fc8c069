// Package config loads application settings from defaults, an optional
// .env file and WHEREISIT_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/erazemk/whereisit/internal/imaging"
)

// Config holds all configuration for the application.
type Config struct {
	// DataDir is the application's persistent storage root.
	DataDir string
	// DBPath is the SQLite file holding the key-value entries. Defaults to
	// DataDir/whereisit.sqlite3.
	DBPath string
	// ImagesDir is the managed image directory. Defaults to DataDir/images.
	ImagesDir string
	// LogPath, if set, receives a copy of all log output.
	LogPath string

	PhotoWidth   int
	PhotoQuality int
}

// Environment variables read by Load.
const (
	EnvDataDir      = "WHEREISIT_DATA_DIR"
	EnvDBPath       = "WHEREISIT_DB"
	EnvImagesDir    = "WHEREISIT_IMAGES_DIR"
	EnvLogPath      = "WHEREISIT_LOG"
	EnvPhotoWidth   = "WHEREISIT_PHOTO_WIDTH"
	EnvPhotoQuality = "WHEREISIT_PHOTO_QUALITY"
)

func defaults() Config {
	return Config{
		DataDir:      defaultDataDir(),
		PhotoWidth:   imaging.DefaultWidth,
		PhotoQuality: imaging.DefaultQuality,
	}
}

// Load reads a .env file from the working directory if present, then
// applies environment overrides on top of the defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return loadFrom(os.Getenv)
}

func loadFrom(getenv func(string) string) (Config, error) {
	cfg := defaults()

	if v := getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := getenv(EnvImagesDir); v != "" {
		cfg.ImagesDir = v
	}
	if v := getenv(EnvLogPath); v != "" {
		cfg.LogPath = v
	}
	if err := intFromEnv(getenv, EnvPhotoWidth, &cfg.PhotoWidth); err != nil {
		return Config{}, err
	}
	if err := intFromEnv(getenv, EnvPhotoQuality, &cfg.PhotoQuality); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func intFromEnv(getenv func(string) string, key string, dst *int) error {
	raw := getenv(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("parsing %s=%q: %w", key, raw, err)
	}
	*dst = n
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	if c.PhotoWidth < 1 {
		return fmt.Errorf("photo width must be positive, got %d", c.PhotoWidth)
	}
	if c.PhotoQuality < 1 || c.PhotoQuality > 100 {
		return fmt.Errorf("photo quality must be between 1 and 100, got %d", c.PhotoQuality)
	}
	return nil
}

// Database returns the SQLite path, derived from DataDir unless set.
func (c Config) Database() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "whereisit.sqlite3")
}

// Images returns the managed image directory, derived from DataDir unless set.
func (c Config) Images() string {
	if c.ImagesDir != "" {
		return c.ImagesDir
	}
	return filepath.Join(c.DataDir, "images")
}

// ImagingOptions returns the resize settings for captured photos.
func (c Config) ImagingOptions() imaging.Options {
	return imaging.Options{Width: c.PhotoWidth, Quality: c.PhotoQuality}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "whereisit-data"
		}
	}
	return filepath.Join(dir, "whereisit")
}
