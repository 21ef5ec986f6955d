package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hpungsan/octidy/internal/config"
	"github.com/hpungsan/octidy/internal/errors"
)

// ValidateExportPath vets a transcript destination before anything is
// written. The file must carry ext, must not traverse with "..", and must not
// be a symlink. Unless allow_unsafe_paths is set it must also sit directly in
// exportsDir or one of the configured allowed_paths, and that directory must
// not itself be a symlink. Nested directories are refused so nothing between
// the check and the O_NOFOLLOW open can be swapped for a link.
func ValidateExportPath(path, ext, exportsDir string, cfg *config.Config) error {
	switch {
	case path == "":
		return errors.NewInvalidRequest("path is required")
	case hasDotDot(path):
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	case filepath.Ext(filepath.Clean(path)) != ext:
		return errors.NewInvalidRequest(fmt.Sprintf("path must have %s extension", ext))
	}

	target, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		dirs, err := exportDirs(exportsDir, cfg)
		if err != nil {
			return err
		}
		parent := filepath.Dir(target)
		if !slices.Contains(dirs, parent) {
			return errors.NewInvalidRequest(
				fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v", dirs))
		}
		if isSymlink(parent) {
			return errors.NewInvalidRequest("parent directory must not be a symlink")
		}
	}

	if isSymlink(target) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

// exportDirs lists the directories a transcript may be written into:
// exportsDir plus every absolute allowed_paths entry. Entries that are
// symlinks are replaced by their targets.
func exportDirs(exportsDir string, cfg *config.Config) ([]string, error) {
	candidates := []string{exportsDir}
	if cfg != nil {
		candidates = append(candidates, cfg.AllowedPaths...)
	}

	var dirs []string
	for _, d := range candidates {
		if d == "" || (d != exportsDir && !filepath.IsAbs(d)) {
			continue
		}
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if isSymlink(abs) {
			if abs, err = filepath.EvalSymlinks(abs); err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
		}
		dirs = append(dirs, abs)
	}
	return dirs, nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// hasDotDot reports whether any element of path, split on either slash, is "..".
func hasDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	return slices.Contains(parts, "..")
}

// SanitizeForFilename makes s safe to use as a file name.
func SanitizeForFilename(s string) string {
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, "..", "-")

	var result strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			result.WriteRune(r)
		}
	}
	s = result.String()

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")

	if s == "" {
		s = "unnamed"
	}
	return s
}
