// Package persist encodes result sets to files in a selectable format.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Format names accepted by CodecFor.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const (
	jsonIndent = "  "
	yamlIndent = 2
)

// ErrUnknownFormat is returned by CodecFor for unsupported names.
var ErrUnknownFormat = errors.New("unknown output format")

// Codec serializes values to and from a stream.
type Codec interface {
	Encode(w io.Writer, v any) error
	Decode(r io.Reader, v any) error
	// Name is the format name, also used as file extension.
	Name() string
}

// CodecFor returns the codec of a format name.
func CodecFor(format string) (Codec, error) {
	switch format {
	case FormatJSON:
		return JSONCodec{Indent: jsonIndent}, nil
	case FormatYAML:
		return YAMLCodec{Indent: yamlIndent}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// JSONCodec writes JSON, indented when Indent is set.
type JSONCodec struct {
	Indent string
}

// Encode writes v as one JSON document.
func (c JSONCodec) Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if c.Indent != "" {
		enc.SetIndent("", c.Indent)
	}

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode reads one JSON document into v.
func (JSONCodec) Decode(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Name returns "json".
func (JSONCodec) Name() string { return FormatJSON }

// YAMLCodec writes block-style YAML.
type YAMLCodec struct {
	Indent int
}

// Encode writes v as one YAML document.
func (c YAMLCodec) Encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	if c.Indent > 0 {
		enc.SetIndent(c.Indent)
	}

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	return nil
}

// Decode reads one YAML document into v.
func (YAMLCodec) Decode(r io.Reader, v any) error {
	if err := yaml.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}

	return nil
}

// Name returns "yaml".
func (YAMLCodec) Name() string { return FormatYAML }

// SaveFile encodes v into path, replacing any existing file.
func SaveFile(path string, codec Codec, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	encErr := codec.Encode(file, v)

	return errors.Join(encErr, file.Close())
}

// LoadFile decodes path into v, which must be a pointer.
func LoadFile(path string, codec Codec, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	return codec.Decode(file, v)
}
