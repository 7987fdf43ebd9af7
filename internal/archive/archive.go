// Package archive packages named binary entries into one portable blob and
// enumerates them back out. Backup export/import only needs "write named
// entry" / "read named entry by name" semantics; zip is the container.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
)

// Writer streams named entries into a zip container.
type Writer struct {
	zw *zip.Writer
}

// NewWriter creates a Writer that writes the container to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{zw: zip.NewWriter(w)}
}

// WriteEntry adds one named entry with the given payload.
func (w *Writer) WriteEntry(name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("entry name is required")
	}
	entry, err := w.zw.Create(name)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

// Close finalizes the container. The Writer is unusable afterwards.
func (w *Writer) Close() error {
	return w.zw.Close()
}

// Reader enumerates named entries out of a packaged blob.
type Reader struct {
	entries map[string]*zip.File
}

// NewReader parses a packaged blob.
func NewReader(data []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse archive: %w", err)
	}
	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}
	return &Reader{entries: entries}, nil
}

// ReadEntry returns the payload of one named entry. The second return is
// false when the entry is absent.
func (r *Reader) ReadEntry(name string) ([]byte, bool, error) {
	f, ok := r.entries[name]
	if !ok {
		return nil, false, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, true, fmt.Errorf("open entry %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, true, fmt.Errorf("read entry %s: %w", name, err)
	}
	return data, true, nil
}

// Names lists all entry names in sorted order.
func (r *Reader) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
