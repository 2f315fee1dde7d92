// Package config loads default flag values from a YAML file.
//
// Keys are long flag names. Flags of a subcommand may also be nested under
// the command name, which takes precedence over a top-level key:
//
//	block-size: 256
//	bits: 16
//	normalize:
//	  level: -26
//	  rms: false
//
// Values given on the command line always override the file.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAML is a kong.ConfigurationLoader reading flag defaults from a YAML
// document. An empty document resolves nothing.
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML configuration: %w", err)
	}

	var f kong.ResolverFunc = func(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if parent != nil && parent.Command != nil {
			if section, ok := values[parent.Command.Name].(map[string]any); ok {
				if v, ok := lookup(section, flag.Name); ok {
					return scalar(v), nil
				}
			}
		}
		if v, ok := lookup(values, flag.Name); ok {
			return scalar(v), nil
		}
		return nil, nil
	}
	return f, nil
}

// lookup finds a flag by its name, accepting underscores for hyphens.
func lookup(values map[string]any, name string) (any, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}
	v, ok := values[strings.ReplaceAll(name, "-", "_")]
	return v, ok
}

// scalar renders YAML scalars as the strings a user would have typed, so
// kong's mappers parse them exactly like command-line input. Sequences
// become comma-separated lists.
func scalar(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case map[string]any:
		return t
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
