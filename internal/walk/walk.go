// Package walk collects the candidate files for a run. Hidden entries
// and anything matched by .gitignore or .ignore rules drop silently,
// the way git-aware tools are expected to behave; the run's own filters
// (name match, secrets, extensions, size, binary sniffing) record a
// reason for the summary. Paths come back sorted so output is
// deterministic.
package walk

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// SkipReason says why a file was left out.
type SkipReason int

const (
	SkipSecret SkipReason = iota
	SkipBinary
	SkipTooLarge
	SkipExtension
	SkipGitignore
	SkipReadError
	SkipMatch
)

func (r SkipReason) String() string {
	switch r {
	case SkipSecret:
		return "secret"
	case SkipBinary:
		return "binary"
	case SkipTooLarge:
		return "too large"
	case SkipExtension:
		return "extension"
	case SkipGitignore:
		return "gitignore"
	case SkipReadError:
		return "read error"
	case SkipMatch:
		return "match"
	}
	return "unknown"
}

// Skip records one excluded file and why.
type Skip struct {
	Path   string
	Reason SkipReason
}

// Options configure one collection pass.
type Options struct {
	// Root is the directory to scan.
	Root string
	// MaxFileSize is the largest file, in bytes, worth including.
	MaxFileSize int64
	// GitignorePath names an extra ignore file whose rules apply from
	// the root.
	GitignorePath string
	// IncludeExtension, when non-nil, filters files by extension
	// (without the leading dot). Extensionless files bypass it.
	IncludeExtension func(ext string) bool
	// IncludeName, when non-nil, filters files by base name.
	IncludeName func(name string) bool
}

// Result is everything one collection pass found.
type Result struct {
	// Paths are the included files, sorted.
	Paths []string
	// Skipped lists filtered files in walk order.
	Skipped []Skip
	// Errors are traversal failures. The walk continues past them, so
	// a partial result is still usable.
	Errors []error
}

type ignoreRule struct {
	dir string
	gi  *ignore.GitIgnore
}

// Collect walks root and splits what it finds into included paths and
// recorded skips.
func Collect(opts Options) (*Result, error) {
	res := &Result{}
	var rules []ignoreRule

	if opts.GitignorePath != "" {
		gi, err := ignore.CompileIgnoreFile(opts.GitignorePath)
		if err != nil {
			return nil, fmt.Errorf("reading ignore file %s: %w", opts.GitignorePath, err)
		}
		rules = append(rules, ignoreRule{dir: opts.Root, gi: gi})
	}

	err := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			res.Errors = append(res.Errors, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != opts.Root {
				if hidden(d.Name()) || ignoredBy(rules, path, true) {
					return fs.SkipDir
				}
			}
			rules = appendIgnoreFiles(rules, path)
			return nil
		}
		if hidden(d.Name()) || ignoredBy(rules, path, false) {
			return nil
		}
		if reason, skip := shouldSkip(path, opts); skip {
			res.Skipped = append(res.Skipped, Skip{Path: path, Reason: reason})
			return nil
		}
		res.Paths = append(res.Paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(res.Paths)
	return res, nil
}

// appendIgnoreFiles compiles dir's .gitignore and .ignore, if present.
// Rules accumulate across the walk; relativity checks in ignoredBy keep
// a directory's rules from leaking onto its siblings.
func appendIgnoreFiles(rules []ignoreRule, dir string) []ignoreRule {
	for _, name := range []string{".gitignore", ".ignore"} {
		gi, err := ignore.CompileIgnoreFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		rules = append(rules, ignoreRule{dir: dir, gi: gi})
	}
	return rules
}

func ignoredBy(rules []ignoreRule, path string, isDir bool) bool {
	for _, r := range rules {
		rel, err := filepath.Rel(r.dir, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)
		if r.gi.MatchesPath(rel) {
			return true
		}
		if isDir && r.gi.MatchesPath(rel+"/") {
			return true
		}
	}
	return false
}

// shouldSkip applies the run's filters in a fixed order so a file that
// trips several always reports the same reason.
func shouldSkip(path string, opts Options) (SkipReason, bool) {
	if opts.IncludeName != nil && !opts.IncludeName(filepath.Base(path)) {
		return SkipMatch, true
	}
	if isSecretFile(path) {
		return SkipSecret, true
	}
	if ext := Ext(path); ext != "" {
		if opts.IncludeExtension != nil && !opts.IncludeExtension(ext) {
			return SkipExtension, true
		}
		if binaryExtensions[strings.ToLower(ext)] {
			return SkipBinary, true
		}
	}
	if exceedsSizeLimit(path, opts.MaxFileSize) {
		return SkipTooLarge, true
	}
	if isBinaryContent(path) {
		return SkipBinary, true
	}
	return 0, false
}

// Ext returns path's extension without the leading dot. Dotfiles and
// extensionless names have none.
func Ext(path string) string {
	name := filepath.Base(path)
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i+1:]
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

var secretNames = map[string]bool{
	".env":                true,
	"credentials.json":    true,
	"serviceaccount.json": true,
	"id_rsa":              true,
	"id_dsa":              true,
	"id_ecdsa":            true,
	"id_ed25519":          true,
}

var secretExtensions = map[string]bool{
	"key": true,
	"pem": true,
	"p12": true,
	"pfx": true,
}

var secretSubstrings = []string{"secret", "password", "credential"}

func isSecretFile(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if secretNames[name] || strings.HasPrefix(name, ".env") {
		return true
	}
	if secretExtensions[strings.ToLower(Ext(path))] {
		return true
	}
	for _, s := range secretSubstrings {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

var binaryExtensions = map[string]bool{
	// Images
	"png": true, "jpg": true, "jpeg": true, "gif": true, "bmp": true,
	"ico": true, "svg": true, "webp": true,
	// Media
	"mp4": true, "mp3": true, "wav": true, "avi": true, "mov": true,
	"flac": true, "ogg": true,
	// Archives
	"zip": true, "tar": true, "gz": true, "7z": true, "rar": true,
	"bz2": true, "xz": true,
	// Binaries
	"exe": true, "dll": true, "so": true, "dylib": true, "bin": true,
	// Compiled
	"wasm": true, "class": true, "pyc": true, "o": true, "a": true,
	"lib": true,
	// Documents
	"pdf": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
	"ppt": true, "pptx": true,
}

func exceedsSizeLimit(path string, maxSize int64) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() > maxSize
}

// isBinaryContent sniffs the first 8KB for a null byte.
func isBinaryContent(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 8192)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
