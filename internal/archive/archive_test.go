package archive

import (
	"bytes"
	"reflect"
	"testing"
)

func TestWriteReadEntries_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	entries := map[string][]byte{
		"manifest.json":      []byte(`{"schema_version":1}`),
		"assets/ast-1.png":   {0x89, 0x50, 0x4e, 0x47},
		"assets/ast-2.webp":  []byte("webp-bytes"),
		"assets/empty.bin":   {},
	}
	for name, data := range entries {
		if err := w.WriteEntry(name, data); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	r, err := NewReader(buf.Bytes())
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}

	wantNames := []string{"assets/ast-1.png", "assets/ast-2.webp", "assets/empty.bin", "manifest.json"}
	if got := r.Names(); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("names = %v, want %v", got, wantNames)
	}

	for name, want := range entries {
		got, ok, err := r.ReadEntry(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !ok {
			t.Fatalf("entry %s missing", name)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("entry %s = %v, want %v", name, got, want)
		}
	}
}

func TestReadEntry_Missing(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteEntry("only.txt", []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := NewReader(buf.Bytes())
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	_, ok, err := r.ReadEntry("absent.txt")
	if err != nil {
		t.Fatalf("read absent: %v", err)
	}
	if ok {
		t.Error("expected ok=false for absent entry")
	}
}

func TestNewReader_Garbage(t *testing.T) {
	if _, err := NewReader([]byte("not a zip file")); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestWriteEntry_EmptyName(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	if err := w.WriteEntry("", []byte("x")); err == nil {
		t.Fatal("expected error for empty entry name")
	}
}
