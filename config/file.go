package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/c360/appkernel/errors"
	"github.com/c360/appkernel/option"
)

// loadFile parses the config file at path against the config-only
// sub-schema. The file grammar is line-oriented "key = value" pairs with
// #-prefixed comments. Unknown keys are rejected; known keys are converted
// to the option's declared kind.
func loadFile(path string, cfg *option.Schema) (map[string]option.Value, error) {
	raw := make(map[string]any)
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, errors.WrapInvalid(err, "config", "loadFile", "config file parsing")
	}

	out := make(map[string]option.Value, len(raw))
	for key, rawVal := range raw {
		opt, ok := cfg.Lookup(key)
		if !ok {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %q in %s", errors.ErrUnknownOption, key, path),
				"config", "loadFile", "schema validation")
		}
		v, err := option.FromConfig(opt.Kind, rawVal)
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("option %q: %w", key, err),
				"config", "loadFile", "value conversion")
		}
		out[key] = v
	}
	return out, nil
}

// WriteDefaultConfigFile renders the default-config template for the given
// config schema to path, creating parent directories first.
func WriteDefaultConfigFile(path string, cfg *option.Schema) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "config", "WriteDefaultConfigFile", "create config directory")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "config", "WriteDefaultConfigFile", "create config file")
	}
	defer func() { _ = f.Close() }()

	if err := option.WriteDefaultConfig(f, cfg); err != nil {
		return errors.Wrap(err, "config", "WriteDefaultConfigFile", "render template")
	}
	return nil
}
