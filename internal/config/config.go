// Package config loads the fixconv configuration from a YAML file, FIXCONV_
// environment variables and command line flags, in increasing precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mkadit/fix"
)

type Config struct {
	Dictionary      string     `mapstructure:"dictionary"`
	Checks          []string   `mapstructure:"checks"`
	InputDelimiter  string     `mapstructure:"input_delimiter"`
	OutputDelimiter string     `mapstructure:"output_delimiter"`
	Concurrency     int        `mapstructure:"concurrency"`
	MaxMessageSize  int        `mapstructure:"max_message_size"`
	Production      bool       `mapstructure:"production"`
	Limits          fix.Limits `mapstructure:"limits"`
}

// flag name to config key
var flagKeys = map[string]string{
	"dictionary":       "dictionary",
	"checks":           "checks",
	"in-delim":         "input_delimiter",
	"out-delim":        "output_delimiter",
	"concurrency":      "concurrency",
	"max-message-size": "max_message_size",
	"production":       "production",
	"max-pages":        "limits.max_pages",
	"max-groups":       "limits.max_groups",
}

func setDefaults(v *viper.Viper) {
	limits := fix.DefaultLimits()
	v.SetDefault("dictionary", "")
	v.SetDefault("checks", []string{"all"})
	v.SetDefault("input_delimiter", "soh")
	v.SetDefault("output_delimiter", "|")
	v.SetDefault("concurrency", 4)
	v.SetDefault("max_message_size", fix.DefaultMaxMessageSize)
	v.SetDefault("production", false)
	v.SetDefault("limits.page_size", limits.PageSize)
	v.SetDefault("limits.max_page_size", 0)
	v.SetDefault("limits.num_pages", limits.NumPages)
	v.SetDefault("limits.max_pages", 0)
	v.SetDefault("limits.num_groups", limits.NumGroups)
	v.SetDefault("limits.max_groups", 0)
}

// NewFlagSet declares the command line flags understood by Load.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "YAML configuration file")
	fs.StringP("dictionary", "d", "", "protocol dictionary (XML or YAML); the bundled FIX.4.4 when empty")
	fs.StringSlice("checks", nil, "checks to apply: crc, required, value, unknown, all, none")
	fs.String("in-delim", "", "input field delimiter: soh, pipe or a single character")
	fs.String("out-delim", "", "output field delimiter: soh, pipe or a single character")
	fs.Int("concurrency", 0, "number of messages parsed in parallel")
	fs.Int("max-message-size", 0, "largest accepted message in bytes")
	fs.Bool("production", false, "log JSON instead of console output")
	fs.Int("max-pages", 0, "maximum value pages in use, 0 for unlimited")
	fs.Int("max-groups", 0, "maximum group instances in use, 0 for unlimited")
	return fs
}

// Load parses args with fs and merges them over the environment, the config
// file and the defaults. It returns the positional arguments as well.
func Load(fs *pflag.FlagSet, args []string) (*Config, []string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FIXCONV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err := cfg.Flags(); err != nil {
		return nil, nil, err
	}
	if _, err := ParseDelimiter(cfg.InputDelimiter); err != nil {
		return nil, nil, fmt.Errorf("input_delimiter: %w", err)
	}
	if _, err := ParseDelimiter(cfg.OutputDelimiter); err != nil {
		return nil, nil, fmt.Errorf("output_delimiter: %w", err)
	}
	return &cfg, fs.Args(), nil
}

// Flags converts the configured check names to parser flags.
func (c *Config) Flags() (fix.Flags, error) {
	return fix.ParseFlags(c.Checks)
}

// ParseDelimiter accepts "soh", "pipe", "\x01" or a single character.
func ParseDelimiter(s string) (byte, error) {
	switch strings.ToLower(s) {
	case "soh", `\x01`, `\001`, "^a":
		return fix.SOH, nil
	case "pipe":
		return fix.Pipe, nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return s[0], nil
}
