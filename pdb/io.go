package pdb

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// Read decodes a YAML model from r and assigns global atom indices.
func Read(r io.Reader) (*Entry, error) {
	entry := new(Entry)
	if err := yaml.NewDecoder(r).Decode(entry); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	entry.Renumber()
	return entry, nil
}

// ReadFile reads a model from a file. If the file name ends with ".gz",
// gzip decompression will be used.
func ReadFile(fileName string) (*Entry, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = f
	if path.Ext(fileName) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}
	entry, err := Read(reader)
	if err != nil {
		return nil, fmt.Errorf("The model file '%s' could not be read: %w",
			fileName, err)
	}
	entry.Path = fileName
	return entry, nil
}

// Write encodes the entry as YAML.
func (e *Entry) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return enc.Close()
}

// MarshalYAML writes coordinates as a three element list.
func (c Coords) MarshalYAML() (interface{}, error) {
	return []float64{c.X, c.Y, c.Z}, nil
}

// UnmarshalYAML reads coordinates from a three element list.
func (c *Coords) UnmarshalYAML(value *yaml.Node) error {
	var xyz []float64
	if err := value.Decode(&xyz); err != nil {
		return err
	}
	if len(xyz) != 3 {
		return fmt.Errorf("line %d: expected 3 coordinates but got %d",
			value.Line, len(xyz))
	}
	c.X, c.Y, c.Z = xyz[0], xyz[1], xyz[2]
	return nil
}
