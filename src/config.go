package main

import (
	"asset-unpack/src/assets"
	"asset-unpack/src/materialize"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	classifyMetadata = "metadata"
	classifyListing  = "listing"
)

type destConfig struct {
	Path string `yaml:"path"`
}

type config struct {
	Source        assets.LocalConfig  `yaml:"source"`
	Dest          destConfig          `yaml:"dest"`
	Options       materialize.Options `yaml:",inline"`
	LogLevel      string              `yaml:"log_level"`
	Watch         bool                `yaml:"watch"`
	WatchDebounce time.Duration       `yaml:"watch_debounce"`
}

// readConfig loads filename when present. A missing file is only an error
// when the caller insists on it.
func readConfig(log *zap.SugaredLogger, filename string, required bool) (*config, error) {
	c := &config{}

	log.Debugf("Reading configuration from %s", filename)
	b, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
		log.Debugf("No configuration at %s, using defaults", filename)
	default:
		return nil, err
	}

	c.setDefaults()
	return c, nil
}

func (c *config) setDefaults() {
	if c.Source.Classify == "" {
		c.Source.Classify = classifyMetadata
	}
	if c.Options.Workers == 0 {
		c.Options.Workers = 1
	}
	if c.Options.BufferSize == 0 {
		c.Options.BufferSize = materialize.DefaultBufferSize
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.WatchDebounce == 0 {
		c.WatchDebounce = 500 * time.Millisecond
	}
}

func (c *config) validate() error {
	if c.Source.Path == "" {
		return errors.New("source path is required")
	}
	if c.Source.Classify != classifyMetadata && c.Source.Classify != classifyListing {
		return fmt.Errorf("unknown classify mode %q", c.Source.Classify)
	}
	for _, p := range c.Source.Ignore {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("ignore pattern %q: %w", p, err)
		}
	}
	if c.Options.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Options.Workers)
	}
	if c.Options.BufferSize < 1 {
		return fmt.Errorf("buffer size must be positive, got %d", c.Options.BufferSize)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("negative watch debounce %v", c.WatchDebounce)
	}
	return nil
}

func (c *config) validateDest() error {
	if c.Dest.Path == "" {
		return errors.New("destination path is required")
	}

	// the destination must not show up in its own source listing
	src, err := filepath.Abs(c.Source.Path)
	if err != nil {
		return err
	}
	dst, err := filepath.Abs(c.Dest.Path)
	if err != nil {
		return err
	}
	if rel, err := filepath.Rel(src, dst); err == nil && !outside(rel) {
		return fmt.Errorf("destination %s is inside source %s", c.Dest.Path, c.Source.Path)
	}
	return nil
}

func outside(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// openSource returns the on-disk bundle and the view of it the materializer
// should use, which hides kind metadata in listing mode.
func (c *config) openSource(log *zap.SugaredLogger) (*assets.Local, assets.Source) {
	local := assets.NewLocal(log, &c.Source)
	if c.Source.Classify == classifyListing {
		return local, assets.Untyped(local)
	}
	return local, local
}
