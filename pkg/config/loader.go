// Package config loads client configuration. YAML, JSON and CUE files are
// all read through CUE.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/encoding/yaml"
)

// LoadValueFromReader parses YAML (or JSON, which YAML includes) from r.
// For .cue files with imports, use LoadValue instead.
func LoadValueFromReader(r io.Reader) (cue.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read config: %w", err)
	}
	return buildData(cuecontext.New(), "", data)
}

// LoadValue loads a file or directory into a CUE value.
//
// Directories and .cue files are loaded as CUE instances, so imports work.
// .json is compiled directly; anything else is parsed as YAML.
func LoadValue(path string) (cue.Value, error) {
	return loadValue(cuecontext.New(), path)
}

// loadValue builds the value in ctx so it can be unified with other values
// from the same context.
func loadValue(ctx *cue.Context, path string) (cue.Value, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to stat path: %w", err)
	}

	if !fileInfo.IsDir() && !strings.HasSuffix(strings.ToLower(path), ".cue") {
		data, err := os.ReadFile(path)
		if err != nil {
			return cue.Value{}, fmt.Errorf("failed to read file: %w", err)
		}
		return buildData(ctx, path, data)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to resolve path: %w", err)
	}
	cfg := &load.Config{
		Dir:       filepath.Dir(absPath),
		DataFiles: true,
	}
	args := []string{absPath}
	if fileInfo.IsDir() {
		args = []string{path}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no instances loaded from %s", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, fmt.Errorf("failed to load config: %w", inst.Err)
	}

	val := ctx.BuildInstance(inst)
	if err := val.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to build CUE value: %w", err)
	}
	return val, nil
}

// buildData parses a standalone data file. path only selects the format and
// names the file in errors.
func buildData(ctx *cue.Context, path string, data []byte) (cue.Value, error) {
	var val cue.Value
	if strings.EqualFold(filepath.Ext(path), ".json") {
		val = ctx.CompileBytes(data, cue.Filename(path))
	} else {
		file, err := yaml.Extract(path, data)
		if err != nil {
			return cue.Value{}, fmt.Errorf("failed to parse config: %w", err)
		}
		val = ctx.BuildFile(file)
	}
	if err := val.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to build CUE value: %w", err)
	}
	return val, nil
}

// LoadAndUnifyPaths loads every file matching the glob patterns and unifies
// them into one value. Patterns matching nothing are skipped, so optional
// overlays like "config.d/*.yaml" need no special casing. Conflicting
// values are an error.
func LoadAndUnifyPaths(patterns []string) (cue.Value, error) {
	return loadAndUnify(cuecontext.New(), patterns)
}

func loadAndUnify(ctx *cue.Context, patterns []string) (cue.Value, error) {
	val := ctx.CompileString("{}")
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return cue.Value{}, fmt.Errorf("bad config pattern %q: %w", pattern, err)
		}
		for _, path := range matches {
			v, err := loadValue(ctx, path)
			if err != nil {
				return cue.Value{}, fmt.Errorf("%s: %w", path, err)
			}
			val = val.Unify(v)
		}
	}
	if err := val.Validate(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to unify config: %w", err)
	}
	return val, nil
}

// LoadFromFile loads a file or directory and decodes it into T.
//
//	cfg, err := LoadFromFile[Config]("nntp.yaml")
//	cfg, err := LoadFromFile[Config]("./config")  // loads .cue directory
func LoadFromFile[T any](path string) (*T, error) {
	val, err := LoadValue(path)
	if err != nil {
		return nil, err
	}

	var config T
	if err := val.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &config, nil
}
