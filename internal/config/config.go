// Package config loads interpreter settings from expresso.yml, .env files
// and EXPRESSO_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"expresso/pkg/interpreter"
)

// FileName is the configuration file looked up in the working directory
const FileName = "expresso.yml"

const envPrefix = "EXPRESSO_"

type Config struct {
	Path string `yaml:"-"`

	SearchPaths []string `yaml:"search_paths"`
	MaxSteps    int      `yaml:"max_steps"`
	MaxStack    int      `yaml:"max_stack"`
	Verbose     bool     `yaml:"verbose"`
	NoColor     bool     `yaml:"no_color"`
	HistoryFile string   `yaml:"history_file"`
}

// ValidationError aggregates configuration problems.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Default returns the settings used when nothing is configured
func Default() *Config {
	history := ".expresso_history"
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, history)
	}
	return &Config{
		SearchPaths: []string{"."},
		MaxStack:    interpreter.DefaultMaxStack,
		HistoryFile: history,
	}
}

// Load reads the configuration at path, or expresso.yml in the working
// directory when path is empty. A missing default file is not an error.
// Values from .env and the environment override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = FileName
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// variables already set in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			// an empty file keeps the defaults
			c.Path = absPath
			return nil
		}
		return fmt.Errorf("config: parse %s: %w", absPath, err)
	}
	c.Path = absPath
	return nil
}

func (c *Config) applyEnv() error {
	var errs ValidationError

	if v, ok := lookupEnv("SEARCH_PATHS"); ok {
		c.SearchPaths = filepath.SplitList(v)
	}
	if v, ok := lookupEnv("HISTORY_FILE"); ok {
		c.HistoryFile = v
	}
	for name, dst := range map[string]*int{"MAX_STEPS": &c.MaxSteps, "MAX_STACK": &c.MaxStack} {
		v, ok := lookupEnv(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("%s%s must be an integer, got %q", envPrefix, name, v))
			continue
		}
		*dst = n
	}
	for name, dst := range map[string]*bool{"VERBOSE": &c.Verbose, "NO_COLOR": &c.NoColor} {
		v, ok := lookupEnv(name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("%s%s must be a boolean, got %q", envPrefix, name, v))
			continue
		}
		*dst = b
	}

	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs ValidationError
	if c.MaxSteps < 0 {
		errs.Issues = append(errs.Issues, "max_steps must not be negative")
	}
	if c.MaxStack <= 0 {
		errs.Issues = append(errs.Issues, "max_stack must be positive")
	}
	if len(c.SearchPaths) == 0 {
		errs.Issues = append(errs.Issues, "search_paths must list at least one directory")
	}
	for i, p := range c.SearchPaths {
		if strings.TrimSpace(p) == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("search_paths[%d] must be a non-empty path", i))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}
