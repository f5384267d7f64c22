package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/scatter/pkg/errors"
)

// Supported declaration file formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// FormatOf returns the declaration format implied by a file extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported schema file extension: %s", path)
}

// LoadFile reads a LUT from a JSON, TOML or YAML file.
func LoadFile(path string) (LUT, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read schema file")
	}
	lut, err := DecodeLUT(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lut, nil
}

// DecodeLUT parses a LUT in the given format.
func DecodeLUT(data []byte, format string) (LUT, error) {
	var lut LUT
	var err error
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&lut)
	case FormatTOML:
		lut, err = decodeTOML(data)
	case FormatYAML:
		err = yaml.Unmarshal(data, &lut)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported schema format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "decode %s schema", format)
	}
	return lut, nil
}

// LoadRegistry reads and resolves a schema file.
func LoadRegistry(path string) (*Registry, error) {
	lut, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Resolve(lut)
}

func decodeTOML(data []byte) (LUT, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	lut := make(LUT, len(raw))
	for id, v := range raw {
		ref, err := refFromValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		lut[id] = ref
	}
	return lut, nil
}
