package storage

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/starford/montage/internal/models"
)

func tempMedia(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempMedia(t)
	content := []byte("a caption")
	if err := s.Write("caption.txt", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("caption.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempMedia(t)
	if err := s.Write("a/b/c.png", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := s.Read("a/b/c.png"); err != nil {
		t.Fatalf("Read: %v", err)
	}
}

func TestDeleteRemovesSidecar(t *testing.T) {
	s := tempMedia(t)
	_ = s.Write("clip.mp4", []byte("video"))
	_ = s.Write("clip.mp4.yaml", []byte("name: Clip"))
	if err := s.Delete("clip.mp4"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("clip.mp4"); err == nil {
		t.Error("expected error reading deleted file")
	}
	if _, err := s.Read("clip.mp4.yaml"); err == nil {
		t.Error("sidecar left behind")
	}
}

func TestMoveCarriesSidecar(t *testing.T) {
	s := tempMedia(t)
	_ = s.Write("old.mp3", []byte("audio"))
	_ = s.Write("old.mp3.yaml", []byte("duration: 3"))
	if err := s.Move("old.mp3", "sub/new.mp3"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := s.Read("sub/new.mp3"); err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if _, err := s.Read("sub/new.mp3.yaml"); err != nil {
		t.Errorf("sidecar not moved: %v", err)
	}
	if _, err := s.Read("old.mp3"); err == nil {
		t.Error("old path should not exist")
	}
}

func TestList_MediaOnly(t *testing.T) {
	s := tempMedia(t)
	_ = s.Write("a.mp4", []byte("a"))
	_ = s.Write("sub/b.PNG", []byte("b"))
	_ = s.Write("sub/b.PNG.yaml", []byte("name: B"))
	_ = s.Write("notes.md", []byte("not media"))
	_ = s.Write(".hidden/c.mp3", []byte("c"))
	_ = s.Write("d.txt", []byte("text"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := map[string]models.MediaKind{}
	for _, it := range items {
		got[filepath.ToSlash(it.Path)] = it.Kind
	}
	want := map[string]models.MediaKind{
		"a.mp4":     models.MediaVideo,
		"sub/b.PNG": models.MediaImage,
		"d.txt":     models.MediaText,
	}
	if len(got) != len(want) {
		keys := make([]string, 0, len(got))
		for k := range got {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t.Fatalf("listed %v, want %d files", keys, len(want))
	}
	for p, k := range want {
		if got[p] != k {
			t.Errorf("%s kind = %q, want %q", p, got[p], k)
		}
	}
}

func TestFingerprintTracksSidecar(t *testing.T) {
	s := tempMedia(t)
	_ = s.Write("a.mp4", []byte("a"))
	before, err := s.Stat("a.mp4")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	same, _ := s.Stat("a.mp4")
	if same.Fingerprint != before.Fingerprint {
		t.Error("fingerprint not stable")
	}

	_ = s.Write("a.mp4.yaml", []byte("duration: 4"))
	after, _ := s.Stat("a.mp4")
	if after.Fingerprint == before.Fingerprint {
		t.Error("fingerprint ignores sidecar")
	}

	later := time.Now().Add(time.Hour)
	_ = os.Chtimes(filepath.Join(s.Root(), "a.mp4"), later, later)
	touched, _ := s.Stat("a.mp4")
	if touched.Fingerprint == after.Fingerprint {
		t.Error("fingerprint ignores mtime")
	}
}

func TestStat_Rejects(t *testing.T) {
	s := tempMedia(t)
	_ = s.Write("readme.md", []byte("x"))
	if _, err := s.Stat("readme.md"); err == nil {
		t.Error("expected error for non-media file")
	}
	if _, err := s.Stat("missing.mp4"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempMedia(t)
	for _, p := range []string{"../../etc/passwd", "../outside.png", "/etc/shadow"} {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTemp(t *testing.T) {
	s := tempMedia(t)
	_ = s.Write("atomic.txt", []byte("original"))
	if err := s.Write("atomic.txt", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.txt")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.root, ".montage-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media", "nested")
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if info, err := os.Stat(s.Root()); err != nil || !info.IsDir() {
		t.Errorf("root not created: %v", err)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "montage-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestKinds(t *testing.T) {
	if k, ok := KindOf("x/Y.JPEG"); !ok || k != models.MediaImage {
		t.Errorf("KindOf jpeg = %q, %v", k, ok)
	}
	if _, ok := KindOf("x.md"); ok {
		t.Error("md should not be media")
	}
	if !IsSidecar("a.mp4.yaml") || IsSidecar("config.yaml") {
		t.Error("IsSidecar mismatch")
	}
	if got := MediaForSidecar(SidecarFor("a/b.wav")); got != "a/b.wav" {
		t.Errorf("sidecar round trip = %q", got)
	}
}
