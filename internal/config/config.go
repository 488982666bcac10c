// Package config loads the runview client configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/client-go/util/homedir"
)

// Default values.
const (
	DefaultAPIURL       = "http://127.0.0.1:8000"
	DefaultPollInterval = time.Second
	DefaultTimeout      = 30 * time.Second
)

// DefaultDir returns the runview directory inside the user home.
func DefaultDir() string {
	return filepath.Join(homedir.HomeDir(), ".runview")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Config is the client configuration.
type Config struct {
	APIURL       string
	Token        string
	Cookie       string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Default returns the configuration used when there is no config file.
func Default() Config {
	return Config{
		APIURL:       DefaultAPIURL,
		PollInterval: DefaultPollInterval,
		Timeout:      DefaultTimeout,
	}
}

// Loader knows how to load the configuration from a file system.
type Loader struct {
	fs fs.FS
}

// NewLoader returns a new config loader that reads from fsys.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fs: fsys}
}

// Load loads the configuration at path. A missing file is not an error, the defaults
// are returned instead.
func (l *Loader) Load(path string) (Config, error) {
	data, err := fs.ReadFile(l.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
	}

	var f configFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Config{}, fmt.Errorf("could not parse config file %q: %w", path, err)
	}

	if err := f.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %q: %w", path, err)
	}

	return f.toConfig(), nil
}

// LoadFile loads the configuration from an OS path (absolute or relative).
func LoadFile(path string) (Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not resolve config path: %w", err)
	}

	return NewLoader(os.DirFS(filepath.Dir(abs))).Load(filepath.Base(abs))
}

// configFile is the YAML structure of the config file.
type configFile struct {
	APIURL       string        `yaml:"api_url"`
	Token        string        `yaml:"token"`
	Cookie       string        `yaml:"cookie"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

func (c configFile) validate() error {
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil {
			return fmt.Errorf("api_url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("api_url scheme must be http or https, got: %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("api_url host is required")
		}
	}

	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval must be positive, got: %s", c.PollInterval)
	}
	if c.PollInterval > 0 && c.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("poll_interval must be at least 100ms, got: %s", c.PollInterval)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got: %s", c.Timeout)
	}
	return nil
}

func (c configFile) toConfig() Config {
	cfg := Default()
	if c.APIURL != "" {
		cfg.APIURL = strings.TrimRight(c.APIURL, "/")
	}
	if c.PollInterval > 0 {
		cfg.PollInterval = c.PollInterval
	}
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}
	cfg.Token = c.Token
	cfg.Cookie = c.Cookie
	return cfg
}
