package cli

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/pebble/log"
)

// resolve is a [kong.ConfigurationLoader] that reads a YAML configuration
// file.
//
// It is used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve, "/path/to/config.yaml")
//
// Top-level keys are flag names. Nested mappings are joined to their parent
// key with a hyphen, so both of these set --log-level:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Flag names with hyphens may also be written with underscores (log_level).
// Sequences set repeatable flags such as --source. Command-line flags
// override config file values.
//
// A file that is not valid YAML is ignored with a warning so that a broken
// configuration never prevents the CLI from starting.
func resolve(r io.Reader) (kong.Resolver, error) {
	var doc map[string]any

	err := yaml.NewDecoder(r).Decode(&doc)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			log.Warn("ignoring invalid configuration file", slog.Any("error", err))
		}

		return config{}, nil
	}

	cfg := config{}
	cfg.flatten("", doc)

	return cfg, nil
}

// config implements [kong.Resolver] for YAML configuration files.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	name := flag.Name

	if value, ok := r[name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(name, "-", "_")]; ok {
		return value, nil
	}

	// Not found - return nil to let Kong use defaults
	return nil, nil
}

// flatten stores every leaf of m in r, keyed by its hyphen-joined path.
func (r config) flatten(prefix string, m map[string]any) {
	for key, value := range m {
		if prefix != "" {
			key = prefix + "-" + key
		}

		if sub, ok := value.(map[string]any); ok {
			r.flatten(key, sub)

			continue
		}

		r[key] = scalar(value)
	}
}

// scalar converts a decoded YAML value to the form kong expects from a
// resolver. Kong parses numbers from strings.
func scalar(value any) any {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		list := make([]any, len(v))
		for i, e := range v {
			list[i] = scalar(e)
		}

		return list
	default:
		return v
	}
}
