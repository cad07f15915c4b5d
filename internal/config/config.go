// Package config loads the deprule command line configuration.
//
// Values are layered, lowest priority first:
//
//  1. built-in defaults
//  2. a deprule.yaml file next to the manifest, or the file given by --config
//  3. DEPRULE_* environment variables (DEPRULE_NO_DEV_DEPENDENCIES=true)
//  4. flags set on the command line
//
// Keys are the flag names in snake case, so a config file reads
//
//	charset: ascii
//	format: "{p} {l}"
//	no_dev_dependencies: true
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/deprule/pkg/errors"
	"github.com/matzehuels/deprule/pkg/format"
	"github.com/matzehuels/deprule/pkg/tree"
)

// EnvPrefix is the prefix of environment variables read into the config.
const EnvPrefix = "DEPRULE_"

// FileNames are the config file names searched for, in order.
var FileNames = []string{"deprule.yaml", "deprule.yml"}

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds every setting shared by the deprule commands.
type Config struct {
	ManifestPath string `koanf:"manifest_path"`
	Rules        string `koanf:"rules"`
	MetadataFile string `koanf:"metadata_file"`
	Report       string `koanf:"report"`

	Format  string `koanf:"format"`
	Charset string `koanf:"charset"`
	Prefix  string `koanf:"prefix"`
	All     bool   `koanf:"all"`
	Color   string `koanf:"color"`
	Verbose bool   `koanf:"verbose"`

	NoDevDependencies bool     `koanf:"no_dev_dependencies"`
	Features          []string `koanf:"features"`
	AllFeatures       bool     `koanf:"all_features"`
	NoDefaultFeatures bool     `koanf:"no_default_features"`
	Target            string   `koanf:"target"`
	Frozen            bool     `koanf:"frozen"`
	Locked            bool     `koanf:"locked"`
	Offline           bool     `koanf:"offline"`
}

// Defaults returns the built-in configuration.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"format":       format.DefaultTemplate,
		"charset":      tree.CharsetUTF8.String(),
		"prefix":       tree.PrefixIndent.String(),
		"color":        ColorAuto,
		"all_features": true,
	}
}

// LoadOptions selects the sources of a Load.
type LoadOptions struct {
	// ConfigFile is an explicit config file. It must exist.
	ConfigFile string
	// SearchDir is searched for one of FileNames when ConfigFile is empty.
	SearchDir string
	// Flags contributes every flag that was set explicitly.
	Flags *pflag.FlagSet
}

// Load reads the layered configuration and validates it. It returns the
// config file that was used, or "" when none was found.
func Load(opts LoadOptions) (*Config, string, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "load defaults")
	}

	used := findFile(opts.ConfigFile, opts.SearchDir)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read config file %s", used)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "load environment")
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, used, nil
}

// envValue maps DEPRULE_NO_DEV_DEPENDENCIES to no_dev_dependencies and
// splits the comma separated feature list.
func envValue(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "features" {
		return key, splitList(value)
	}
	return key, value
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}

func findFile(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	if dir == "" {
		return ""
	}
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Validate checks the enumerated settings and compiles the format so a bad
// template fails before cargo runs.
func (c *Config) Validate() error {
	if _, err := format.Compile(c.Format); err != nil {
		return err
	}
	if _, err := tree.ParseCharset(c.Charset); err != nil {
		return err
	}
	if _, err := tree.ParsePrefix(c.Prefix); err != nil {
		return err
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid color %q (want auto, always or never)", c.Color)
	}
	return nil
}

// TreeOptions converts the rendering settings. Validate must have passed.
func (c *Config) TreeOptions() tree.Options {
	charset, _ := tree.ParseCharset(c.Charset)
	prefix, _ := tree.ParsePrefix(c.Prefix)
	return tree.Options{Charset: charset, Prefix: prefix, ExpandAll: c.All}
}
