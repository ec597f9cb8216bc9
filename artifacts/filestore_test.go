package artifacts_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/tailored-agentic-units/insight/artifacts"
)

func TestFileStore_SaveLoad(t *testing.T) {
	root := t.TempDir()
	s := artifacts.NewFileStore(root)
	ctx := context.Background()

	p, err := s.Save(ctx, "session-1/img_2026-01-02_15-04-05.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if want := filepath.Join(root, "session-1", "img_2026-01-02_15-04-05.png"); p != want {
		t.Errorf("got path %q, want %q", p, want)
	}

	data, err := s.Load(ctx, "session-1/img_2026-01-02_15-04-05.png")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("got %q", data)
	}

	if _, err := s.Save(ctx, "session-1/img_2026-01-02_15-04-05.png", []byte("v2")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	data, _ = s.Load(ctx, "session-1/img_2026-01-02_15-04-05.png")
	if string(data) != "v2" {
		t.Errorf("got %q after overwrite", data)
	}
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	root := t.TempDir()
	s := artifacts.NewFileStore(root)

	if _, err := s.Save(context.Background(), "a/b.txt", []byte("x")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, _ := os.ReadDir(filepath.Join(root, "a"))
	if len(entries) != 1 || entries[0].Name() != "b.txt" {
		t.Errorf("unexpected directory contents: %v", entries)
	}
}

func TestFileStore_List(t *testing.T) {
	root := t.TempDir()
	s := artifacts.NewFileStore(root)
	ctx := context.Background()

	for _, k := range []string{"s2/img_b.png", "s1/img_a.png", "s1/export.json"} {
		if _, err := s.Save(ctx, k, []byte(k)); err != nil {
			t.Fatalf("Save %s failed: %v", k, err)
		}
	}
	os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0o644)

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if want := []string{"s1/export.json", "s1/img_a.png", "s2/img_b.png"}; !slices.Equal(all, want) {
		t.Errorf("got %v, want %v", all, want)
	}

	s1, _ := s.List(ctx, "s1/")
	if len(s1) != 2 {
		t.Errorf("got %v for prefix s1/", s1)
	}
}

func TestFileStore_ListMissingRoot(t *testing.T) {
	s := artifacts.NewFileStore(filepath.Join(t.TempDir(), "missing"))
	keys, err := s.List(context.Background(), "")
	if err != nil || len(keys) != 0 {
		t.Errorf("got (%v, %v), want empty", keys, err)
	}
}

func TestFileStore_Errors(t *testing.T) {
	s := artifacts.NewFileStore(t.TempDir())
	ctx := context.Background()

	if _, err := s.Load(ctx, "nope.png"); !errors.Is(err, artifacts.ErrKeyNotFound) {
		t.Errorf("got %v, want ErrKeyNotFound", err)
	}

	for _, key := range []string{"", "/etc/passwd", "../escape.png", "a/../../b", "."} {
		if _, err := s.Save(ctx, key, nil); !errors.Is(err, artifacts.ErrInvalidKey) {
			t.Errorf("Save(%q): got %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestFileStore_Delete(t *testing.T) {
	root := t.TempDir()
	s := artifacts.NewFileStore(root)
	ctx := context.Background()

	s.Save(ctx, "s1/deep/img.png", []byte("x"))

	if err := s.Delete(ctx, "s1/deep/img.png", "s1/missing.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "s1")); !os.IsNotExist(err) {
		t.Error("empty directories were not pruned")
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root was removed: %v", err)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := artifacts.DefaultConfig()
	if cfg.Root != artifacts.DefaultRoot {
		t.Errorf("got root %q", cfg.Root)
	}
	cfg.Merge(&artifacts.Config{})
	if cfg.Root != artifacts.DefaultRoot {
		t.Error("zero value overwrote root")
	}
	cfg.Merge(&artifacts.Config{Root: "out"})
	if cfg.Root != "out" {
		t.Errorf("got root %q", cfg.Root)
	}
}
