// Package output writes the vis.js timeline document.
package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/teranos/chronicle/am"
	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/timeline"
)

// Document is what vis.js loads: the resolved segments plus the spec's
// groups and options, passed through untouched
type Document struct {
	Items   []timeline.Segment `json:"items"`
	Groups  json.RawMessage    `json:"groups,omitempty"`
	Options json.RawMessage    `json:"options,omitempty"`
}

// New builds a document. A nil segment list is written as [].
func New(segments []timeline.Segment, groups, options json.RawMessage) *Document {
	if segments == nil {
		segments = []timeline.Segment{}
	}
	return &Document{Items: segments, Groups: groups, Options: options}
}

// Marshal renders the document with indent per level; empty is compact
func (d *Document) Marshal(indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(d); err != nil {
		return nil, errors.Wrap(err, "failed to encode timeline document")
	}
	return buf.Bytes(), nil
}

// Write saves the document to path, creating missing directories
func (d *Document) Write(path, indent string) error {
	data, err := d.Marshal(indent)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), am.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create output directory for %s", path)
	}
	if err := os.WriteFile(path, data, am.DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
