package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeQuadOBJ(t *testing.T) string {
	t.Helper()

	data := strings.Join([]string{
		"v 0 0 0",
		"v 1 0 0",
		"v 1 1 0",
		"v 0 1 0",
		"f 1 2 3 4",
	}, "\n")

	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadSharesInstance(t *testing.T) {
	path := writeQuadOBJ(t)
	mgr := NewManager()

	first, err := mgr.Load(path)
	if err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	if first.NumFaces() != 1 {
		t.Fatalf("expected 1 face, got %d", first.NumFaces())
	}

	second, err := mgr.Load(path)
	if err != nil {
		t.Fatalf("second load failed: %v", err)
	}
	if first != second {
		t.Error("second load returned a different instance")
	}

	hits, misses := mgr.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d and %d", hits, misses)
	}
}

func TestLoadMissingFile(t *testing.T) {
	mgr := NewManager()

	if _, err := mgr.Load("/nonexistent/mesh.obj"); err == nil {
		t.Error("expected error for missing file, got nil")
	}

	hits, misses := mgr.Stats()
	if hits != 0 || misses != 0 {
		t.Errorf("failed load should not count, got %d hits and %d misses", hits, misses)
	}
}

func TestClear(t *testing.T) {
	path := writeQuadOBJ(t)
	mgr := NewManager()

	first, err := mgr.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	mgr.Clear()

	hits, misses := mgr.Stats()
	if hits != 0 || misses != 0 {
		t.Errorf("expected reset stats after Clear, got %d hits and %d misses", hits, misses)
	}

	second, err := mgr.Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if first == second {
		t.Error("expected a fresh instance after Clear")
	}
}
