package export

import (
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-compose/compose"
	"gopkg.in/yaml.v3"
)

// SheetDocument is the serialized form of a composed song.
type SheetDocument struct {
	Name   string                   `json:"name" yaml:"name"`
	Key    string                   `json:"key" yaml:"key"`
	Tracks map[string]compose.Track `json:"tracks,omitempty" yaml:"tracks,omitempty"`
	Sheet  compose.Sheet            `json:"sheet" yaml:"sheet"`
}

// WriteSheetYAML encodes doc with two-space indentation.
func WriteSheetYAML(w io.Writer, doc SheetDocument) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("%w: encode yaml: %v", ErrIO, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: encode yaml: %v", ErrIO, err)
	}
	return nil
}

func SaveSheetYAML(path string, doc SheetDocument) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteSheetYAML(f, doc); err != nil {
		return err
	}
	return f.Close()
}

// LoadSheetYAML reads a document written by SaveSheetYAML and validates its
// sheet.
func LoadSheetYAML(path string) (SheetDocument, error) {
	var doc SheetDocument
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("%w: decode %s: %v", ErrIO, path, err)
	}
	if len(doc.Sheet) == 0 {
		return doc, fmt.Errorf("%w: %s has no sheet", compose.ErrConfig, path)
	}
	for i, t := range doc.Sheet {
		if err := t.Validate(); err != nil {
			return doc, fmt.Errorf("%s track %d: %w", path, i, err)
		}
	}
	return doc, nil
}
