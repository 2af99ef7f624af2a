// Package config loads interpreter settings from a YAML file.
//
// A minimal file:
//
//	numeric:
//	  digits: 12
//	interpret:
//	  allowed_modes: [isolated, isolated_export]
//	extensions: [string, array]
//	log:
//	  level: debug
//	  format: json
//
// Unknown keys are rejected so that typos surface as errors.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/gorexx/pkg/evaluator"
	"github.com/sandrolain/gorexx/pkg/ext"
	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// Config is the decoded settings file.
type Config struct {
	Numeric     NumericConfig   `yaml:"numeric"`
	Interpret   InterpretConfig `yaml:"interpret"`
	Address     string          `yaml:"address"`
	Strict      bool            `yaml:"strict"`
	MaxDepth    int             `yaml:"max_depth"`
	Timeout     time.Duration   `yaml:"timeout"`
	Cache       CacheConfig     `yaml:"cache"`
	LambdaSites []string        `yaml:"lambda_sites"`
	Extensions  []string        `yaml:"extensions"`
	Log         LogConfig       `yaml:"log"`
}

// NumericConfig mirrors the NUMERIC statement. Zero values keep the defaults.
type NumericConfig struct {
	Digits int    `yaml:"digits"`
	Fuzz   int    `yaml:"fuzz"`
	Form   string `yaml:"form"`
}

// InterpretConfig restricts the INTERPRET statement.
type InterpretConfig struct {
	Disabled     bool     `yaml:"disabled"`
	AllowedModes []string `yaml:"allowed_modes"`
}

// CacheConfig controls the compiled program cache.
type CacheConfig struct {
	Disabled bool `yaml:"disabled"`
	Size     int  `yaml:"size"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ValidationError collects every problem found in a settings file.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "config validation failed"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

var interpretModes = map[string]types.InterpretMode{
	"classic":                types.InterpretClassic,
	"isolated":               types.InterpretIsolated,
	"isolated_import":        types.InterpretIsolatedImport,
	"isolated_export":        types.InterpretIsolatedExport,
	"isolated_import_export": types.InterpretIsolatedImportExport,
}

var extensions = map[string]func() evaluator.EvalOption{
	"all":        ext.WithAll,
	"string":     ext.WithString,
	"numeric":    ext.WithNumeric,
	"array":      ext.WithArray,
	"object":     ext.WithObject,
	"types":      ext.WithTypes,
	"datetime":   ext.WithDateTime,
	"crypto":     ext.WithCrypto,
	"format":     ext.WithFormat,
	"functional": ext.WithFunctional,
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Load reads and validates the settings file at path.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer file.Close()

	cfg, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates settings from r. An empty document yields
// the defaults.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs ValidationError

	if n, ok := c.numeric(); ok {
		if err := n.Validate(); err != nil {
			errs.Issues = append(errs.Issues, err.Error())
		}
	}
	if c.Numeric.Form != "" {
		if _, ok := value.ParseForm(c.Numeric.Form); !ok {
			errs.Issues = append(errs.Issues, fmt.Sprintf("numeric.form %q is not SCIENTIFIC or ENGINEERING", c.Numeric.Form))
		}
	}
	for _, m := range c.Interpret.AllowedModes {
		if _, ok := interpretModes[strings.ToLower(m)]; !ok {
			errs.Issues = append(errs.Issues, fmt.Sprintf("interpret.allowed_modes: unknown mode %q", m))
		}
	}
	if strings.ContainsAny(c.Address, " \t") {
		errs.Issues = append(errs.Issues, fmt.Sprintf("address %q must be a single word", c.Address))
	}
	if c.MaxDepth < 0 {
		errs.Issues = append(errs.Issues, "max_depth must not be negative")
	}
	if c.Timeout < 0 {
		errs.Issues = append(errs.Issues, "timeout must not be negative")
	}
	if c.Cache.Size < 0 {
		errs.Issues = append(errs.Issues, "cache.size must not be negative")
	}
	for _, name := range c.Extensions {
		if _, ok := extensions[strings.ToLower(name)]; !ok {
			errs.Issues = append(errs.Issues, fmt.Sprintf("extensions: unknown category %q", name))
		}
	}
	if c.Log.Level != "" {
		if _, ok := logLevels[strings.ToLower(c.Log.Level)]; !ok {
			errs.Issues = append(errs.Issues, fmt.Sprintf("log.level %q is not debug, info, warn or error", c.Log.Level))
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("log.format %q is not text or json", c.Log.Format))
	}

	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// numeric returns the configured NUMERIC settings and whether any were set.
func (c *Config) numeric() (value.Numeric, bool) {
	n := value.DefaultNumeric
	set := false
	if c.Numeric.Digits != 0 {
		n.Digits = c.Numeric.Digits
		set = true
	}
	if c.Numeric.Fuzz != 0 {
		n.Fuzz = c.Numeric.Fuzz
		set = true
	}
	if f, ok := value.ParseForm(c.Numeric.Form); ok {
		n.Form = f
		set = true
	}
	return n, set
}

// Logger builds a slog.Logger writing to w. Debug level also switches the
// evaluator's statement tracing on through Options.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *Config) level() slog.Level {
	if lvl, ok := logLevels[strings.ToLower(c.Log.Level)]; ok {
		return lvl
	}
	return slog.LevelWarn
}

// Options converts the settings into evaluator options. A nil logger
// leaves the evaluator's default in place.
func (c *Config) Options(logger *slog.Logger) []evaluator.EvalOption {
	var opts []evaluator.EvalOption

	if n, ok := c.numeric(); ok {
		opts = append(opts, evaluator.WithNumeric(n))
	}
	if c.Interpret.Disabled {
		opts = append(opts, evaluator.WithInterpretDisabled(true))
	}
	if len(c.Interpret.AllowedModes) > 0 {
		modes := make([]types.InterpretMode, 0, len(c.Interpret.AllowedModes))
		for _, m := range c.Interpret.AllowedModes {
			modes = append(modes, interpretModes[strings.ToLower(m)])
		}
		opts = append(opts, evaluator.WithAllowedInterpretModes(modes...))
	}
	if c.Address != "" {
		opts = append(opts, evaluator.WithInitialAddress(c.Address))
	}
	if c.Strict {
		opts = append(opts, evaluator.WithStrict(true))
	}
	if c.MaxDepth > 0 {
		opts = append(opts, evaluator.WithMaxDepth(c.MaxDepth))
	}
	if c.Timeout > 0 {
		opts = append(opts, evaluator.WithTimeout(c.Timeout))
	}
	if c.Cache.Disabled {
		opts = append(opts, evaluator.WithCaching(false))
	} else if c.Cache.Size > 0 {
		opts = append(opts, evaluator.WithCacheSize(c.Cache.Size))
	}
	for _, name := range c.Extensions {
		opts = append(opts, extensions[strings.ToLower(name)]())
	}
	if len(c.LambdaSites) > 0 {
		opts = append(opts, evaluator.WithLambdaSites(c.LambdaSites...))
	}
	if logger != nil {
		opts = append(opts, evaluator.WithLogger(logger))
		if c.level() == slog.LevelDebug {
			opts = append(opts, evaluator.WithDebug(true))
		}
	}
	return opts
}
