package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const maxPathLength = 4096

// FilePathValidator checks the local paths newsmap writes to: the
// preferences database, the config file, exports and the log.
type FilePathValidator struct {
	// AllowedBaseDirs confines paths to these trees. Empty allows any.
	AllowedBaseDirs    []string
	AllowHomeExpansion bool
	AllowRelativePaths bool
	MaxPathLength      int
}

// NewFilePathValidator confines paths to ~/.newsmap, ~/.config/newsmap
// and the temp dir.
func NewFilePathValidator() *FilePathValidator {
	homeDir, _ := os.UserHomeDir()
	return &FilePathValidator{
		AllowedBaseDirs: []string{
			filepath.Join(homeDir, ".newsmap"),
			filepath.Join(homeDir, ".config", "newsmap"),
			os.TempDir(),
		},
		AllowHomeExpansion: true,
		MaxPathLength:      maxPathLength,
	}
}

// NewPermissiveFilePathValidator accepts any directory, including relative
// ones, for paths the user names on the command line.
func NewPermissiveFilePathValidator() *FilePathValidator {
	return &FilePathValidator{
		AllowHomeExpansion: true,
		AllowRelativePaths: true,
		MaxPathLength:      maxPathLength,
	}
}

// ValidateAndSanitize returns the cleaned form of path, or an error if it
// is empty, too long, carries control bytes, escapes upward or falls
// outside the allowed trees.
func (v *FilePathValidator) ValidateAndSanitize(path string) (string, error) {
	switch {
	case path == "":
		return "", errors.New("path cannot be empty")
	case len(path) > v.MaxPathLength:
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}
	if err := v.validateCharacters(path); err != nil {
		return "", err
	}

	clean, err := v.normalizePath(path)
	if err != nil {
		return "", fmt.Errorf("path normalization failed: %w", err)
	}
	if err := v.validateTraversal(clean); err != nil {
		return "", err
	}
	if err := v.validateBaseDirs(clean); err != nil {
		return "", err
	}
	return clean, nil
}

// suspiciousSequences are rejected before any cleaning happens, so
// "a/../b" cannot be laundered into "b".
var suspiciousSequences = []string{"../", `..\`, "./", "//", `\\`}

func (v *FilePathValidator) validateCharacters(path string) error {
	for _, r := range path {
		if r == 0 {
			return errors.New("path contains null bytes")
		}
		if r < 32 && r != '\t' {
			return errors.New("path contains control characters")
		}
	}
	for _, seq := range suspiciousSequences {
		if strings.Contains(path, seq) {
			return fmt.Errorf("path contains dangerous sequence: %s", seq)
		}
	}
	return nil
}

func (v *FilePathValidator) normalizePath(path string) (string, error) {
	switch {
	case v.AllowHomeExpansion && strings.HasPrefix(path, "~/"):
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	case strings.HasPrefix(path, "~"):
		return "", errors.New("tilde expansion not allowed or invalid tilde usage")
	}

	if !v.AllowRelativePaths && !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("cannot make path absolute: %w", err)
		}
		path = abs
	}

	clean := filepath.Clean(path)
	if clean != path && strings.Contains(path, "..") {
		return "", errors.New("path contains directory traversal after normalization")
	}
	return clean, nil
}

func (v *FilePathValidator) validateTraversal(path string) error {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		switch {
		case part == "..":
			return errors.New("directory traversal not allowed")
		case part == "." && !v.AllowRelativePaths:
			return errors.New("relative path components not allowed")
		}
	}
	return nil
}

func (v *FilePathValidator) validateBaseDirs(path string) error {
	if len(v.AllowedBaseDirs) == 0 {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path: %w", err)
	}
	for _, base := range v.AllowedBaseDirs {
		absBase, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		if rel, err := filepath.Rel(absBase, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return nil
		}
	}
	return fmt.Errorf("path not within allowed directories: %v", v.AllowedBaseDirs)
}

// ValidateDirectory validates path as a directory. A missing directory is
// created when create is set and returned as-is otherwise.
func (v *FilePathValidator) ValidateDirectory(path string, create bool) (string, error) {
	dir, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if create {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("failed to create directory: %w", err)
			}
		}
		return dir, nil
	case err != nil:
		return "", fmt.Errorf("checking directory: %w", err)
	case !info.IsDir():
		return "", fmt.Errorf("path exists but is not a directory: %s", dir)
	}
	return dir, nil
}

// ValidateFile validates path as a file to be written. It may not exist
// yet, but must not be a directory.
func (v *FilePathValidator) ValidateFile(path string) (string, error) {
	file, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}
	if err := v.validateBaseDirs(filepath.Dir(file)); err != nil {
		return "", fmt.Errorf("parent directory not allowed: %w", err)
	}
	if info, err := os.Stat(file); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", file)
	}
	return file, nil
}
