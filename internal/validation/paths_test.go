package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewSecurePathHandler(t *testing.T) {
	ph := NewSecurePathHandler()
	if ph == nil || ph.validator == nil {
		t.Fatal("NewSecurePathHandler returned an unusable handler")
	}
	if ph.validator.AllowRelativePaths {
		t.Error("Secure handler should not allow relative paths")
	}
}

func TestNewPermissivePathHandler(t *testing.T) {
	ph := NewPermissivePathHandler()
	if len(ph.validator.AllowedBaseDirs) != 0 {
		t.Error("Permissive handler should not restrict base directories")
	}
}

func TestGetSecureDBPath(t *testing.T) {
	ph := NewSecurePathHandler()
	homeDir, _ := os.UserHomeDir()

	got, err := ph.GetSecureDBPath("")
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if want := filepath.Join(homeDir, ".newsmap", "prefs.db"); got != want {
		t.Errorf("default DB path = %q, want %q", got, want)
	}

	tmp := filepath.Join(os.TempDir(), "newsmap-test.db")
	if _, err := ph.GetSecureDBPath(tmp); err != nil {
		t.Errorf("temp path rejected: %v", err)
	}

	if _, err := ph.GetSecureDBPath("/etc/newsmap.db"); err == nil {
		t.Error("expected a path outside the allowed directories to be rejected")
	}
	if _, err := ph.GetSecureDBPath("../../prefs.db"); err == nil {
		t.Error("expected traversal to be rejected")
	}
}

func TestGetSecureConfigPath(t *testing.T) {
	ph := NewSecurePathHandler()
	homeDir, _ := os.UserHomeDir()

	got, err := ph.GetSecureConfigPath("")
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if want := filepath.Join(homeDir, ".config", "newsmap", "config.toml"); got != want {
		t.Errorf("default config path = %q, want %q", got, want)
	}
}

func TestGetExportDir(t *testing.T) {
	ph := NewPermissivePathHandler()
	dir := filepath.Join(t.TempDir(), "exports", "nested")

	got, err := ph.GetExportDir(dir)
	if err != nil {
		t.Fatalf("GetExportDir: %v", err)
	}
	info, err := os.Stat(got)
	if err != nil || !info.IsDir() {
		t.Fatalf("export dir was not created: %v", err)
	}

	file := filepath.Join(t.TempDir(), "file.csv")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ph.GetExportDir(file); err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("expected a regular file to be rejected, got %v", err)
	}
}

func TestEnsureSecureDirectory(t *testing.T) {
	ph := NewSecurePathHandler()
	dir := filepath.Join(os.TempDir(), "newsmap-ensure-test")
	defer os.RemoveAll(dir)

	got, err := ph.EnsureSecureDirectory(dir)
	if err != nil {
		t.Fatalf("EnsureSecureDirectory: %v", err)
	}
	if _, err := os.Stat(got); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}
