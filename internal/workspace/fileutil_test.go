package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAtomic_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.txt")
	if err := WriteAtomic(path, []byte("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("got %q", data)
	}
}

func TestWriteAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := WriteAtomic(path, []byte("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestWriteJSONReadJSON(t *testing.T) {
	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	path := filepath.Join(t.TempDir(), "record.json")
	if err := WriteJSON(path, record{Name: "javadoc", Count: 5}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got record
	if err := ReadJSON(path, &got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Name != "javadoc" || got.Count != 5 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
