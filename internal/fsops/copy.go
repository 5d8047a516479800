package fsops

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/dirbuilder/internal/logfields"
)

// FileSet selects files relative to BaseDir. Patterns are applied in order;
// a pattern starting with "!" removes earlier matches.
type FileSet struct {
	Patterns []string
	BaseDir  string
}

// Copier copies selected files into a destination directory.
type Copier interface {
	Copy(ctx context.Context, sets []FileSet, destDir string) (int, error)
}

// GlobCopier expands doublestar patterns and mirrors every match below destDir
// at its path relative to the set's BaseDir.
type GlobCopier struct{}

// NewGlobCopier returns the default Copier.
func NewGlobCopier() *GlobCopier { return &GlobCopier{} }

// Copy copies every file set and returns the number of files written.
// Matched directories are created empty; their contents are only copied when
// a pattern also matches them. ctx is checked between entries.
func (c *GlobCopier) Copy(ctx context.Context, sets []FileSet, destDir string) (int, error) {
	copied := 0
	for _, set := range sets {
		matches, err := Expand(set.BaseDir, set.Patterns)
		if err != nil {
			return copied, err
		}
		inside, destRel := nestedIn(set.BaseDir, destDir)
		for _, rel := range matches {
			if err := ctx.Err(); err != nil {
				return copied, err
			}
			if inside && (rel == destRel || strings.HasPrefix(rel, destRel+"/")) {
				continue
			}
			src := filepath.Join(set.BaseDir, filepath.FromSlash(rel))
			dst := filepath.Join(destDir, filepath.FromSlash(rel))
			n, err := copyEntry(src, dst)
			if err != nil {
				return copied, err
			}
			copied += n
		}
		slog.Debug("Copied file set",
			logfields.Dir(set.BaseDir),
			logfields.Count(len(matches)))
	}
	return copied, nil
}

// Expand resolves patterns against baseDir and returns slash-separated
// relative paths in first-match order without duplicates.
func Expand(baseDir string, patterns []string) ([]string, error) {
	fsys := os.DirFS(baseDir)
	var ordered []string
	seen := make(map[string]bool)

	for _, raw := range patterns {
		negate := strings.HasPrefix(raw, "!")
		pattern, err := normalizePattern(strings.TrimPrefix(raw, "!"))
		if err != nil {
			return nil, err
		}

		if negate {
			kept := ordered[:0]
			for _, p := range ordered {
				if ok, _ := doublestar.Match(pattern, p); ok {
					delete(seen, p)
					continue
				}
				kept = append(kept, p)
			}
			ordered = kept
			continue
		}

		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("expand pattern %q: %w", raw, err)
		}
		allowDot := namesDotSegment(pattern)
		for _, m := range matches {
			if m == "." || seen[m] || (!allowDot && hasDotSegment(m)) {
				continue
			}
			seen[m] = true
			ordered = append(ordered, m)
		}
		slog.Debug("Expanded pattern", logfields.Pattern(raw), logfields.Count(len(matches)))
	}
	return ordered, nil
}

// nestedIn reports whether dir lies below base and returns its slash-separated
// path relative to base.
func nestedIn(base, dir string) (bool, string) {
	rel, err := filepath.Rel(base, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return false, ""
	}
	return true, filepath.ToSlash(rel)
}

func normalizePattern(p string) (string, error) {
	p = filepath.ToSlash(strings.TrimSpace(p))
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	if p == "" {
		return "", fmt.Errorf("%w: empty pattern", doublestar.ErrBadPattern)
	}
	if path.IsAbs(p) || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("pattern %q escapes the copy root", p)
	}
	if !doublestar.ValidatePattern(p) {
		return "", fmt.Errorf("%w: %q", doublestar.ErrBadPattern, p)
	}
	return p, nil
}

func namesDotSegment(pattern string) bool {
	for _, seg := range strings.Split(pattern, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func hasDotSegment(rel string) bool {
	return namesDotSegment(rel)
}

// copyEntry creates a directory or copies a regular file, returning 1 for a copied file.
func copyEntry(src, dst string) (int, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", src, err)
	}
	if info.IsDir() {
		if err := os.MkdirAll(dst, dirMode(info.Mode())); err != nil {
			return 0, fmt.Errorf("create directory %s: %w", dst, err)
		}
		return 0, nil
	}
	if !info.Mode().IsRegular() {
		slog.Warn("Skipping non-regular file", logfields.Path(src))
		return 0, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return 0, fmt.Errorf("create directory %s: %w", filepath.Dir(dst), err)
	}
	if err := copyFile(src, dst, info.Mode().Perm()); err != nil {
		return 0, err
	}
	return 1, nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	// #nosec G304 - src comes from expanding configured patterns under the copy root
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() {
		_ = in.Close()
	}()

	// #nosec G304 - dst is derived from the destination root
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	// OpenFile honours umask; restore the source permissions explicitly.
	return os.Chmod(dst, perm)
}

func dirMode(m fs.FileMode) fs.FileMode {
	perm := m.Perm()
	if perm&0o700 == 0 {
		return 0o750
	}
	return perm
}
