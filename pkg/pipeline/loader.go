// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/kraklabs/ccg/pkg/graph"
)

var (
	// validGitURLPattern matches git URLs (https, ssh, file).
	validGitURLPattern = regexp.MustCompile(`^(https?://|git@|ssh://|file://)[\w.\-@:/%]+$`)

	// dangerousCharsPattern matches characters that could be used for
	// command injection through the clone URL.
	dangerousCharsPattern = regexp.MustCompile(`[;&|$` + "`" + `\n\r\\]`)
)

// DefaultMaxFileSize is the per-file size ceiling. Larger files are recorded
// as skipped and excluded from extraction.
const DefaultMaxFileSize = 1 << 20 // 1 MiB

// DefaultExcludes are directory trees no analysis run wants.
var DefaultExcludes = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/__pycache__/**",
	"**/venv/**",
	"**/.venv/**",
	"**/dist/**",
	"**/build/**",
	"**/.next/**",
	"**/coverage/**",
}

// Loader materializes a repository (clone or local path) and inventories its
// files. Source files within the language allowlist are read into memory;
// everything else only appears in the tree listing.
type Loader struct {
	logger     *slog.Logger
	excludes   []glob.Glob
	maxSize    int64
	tempDirs   []string
	tempDirsMu sync.Mutex
}

// NewLoader creates a loader. extraExcludes extend DefaultExcludes; a
// maxFileSize of 0 means DefaultMaxFileSize.
func NewLoader(logger *slog.Logger, extraExcludes []string, maxFileSize int64) (*Loader, error) {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	patterns := append(append([]string{}, DefaultExcludes...), extraExcludes...)
	excludes := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(filepath.ToSlash(p), '/')
		if err != nil {
			return nil, fmt.Errorf("bad exclude pattern %q: %w", p, err)
		}
		excludes = append(excludes, g)
	}

	return &Loader{
		logger:   logger,
		excludes: excludes,
		maxSize:  maxFileSize,
	}, nil
}

// Close removes temporary clone directories.
func (l *Loader) Close() error {
	l.tempDirsMu.Lock()
	defer l.tempDirsMu.Unlock()

	var lastErr error
	for _, dir := range l.tempDirs {
		if err := os.RemoveAll(dir); err != nil {
			l.logger.Warn("repo.cleanup.error", "dir", dir, "err", err)
			lastErr = err
		}
	}
	l.tempDirs = nil
	return lastErr
}

// TreeEntry is one file in the repository's tree listing, analyzed or not.
type TreeEntry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// LoadResult is the Map stage's output.
type LoadResult struct {
	// Root is the absolute path of the materialized repository.
	Root string

	// Cloned reports whether Root is a temporary clone.
	Cloned bool

	// Files are the in-allowlist source files, content loaded.
	Files []graph.SourceFile

	// Manifests are dependency manifests (package.json, requirements.txt),
	// content loaded, for framework detection.
	Manifests []graph.SourceFile

	// Readme is the root README content, if one exists.
	Readme string

	// Skipped records source files excluded by the size ceiling or read
	// failures.
	Skipped []graph.SkippedFile

	// Tree lists every non-excluded file, for the file tree artifact.
	Tree []TreeEntry
}

// IsGitSource reports whether source looks like a clonable URL rather than a
// local path.
func IsGitSource(source string) bool {
	return strings.Contains(source, "://") || strings.HasPrefix(source, "git@")
}

// Load materializes source and walks it. Git URLs are shallow-cloned into a
// temp directory that lives until Close.
func (l *Loader) Load(ctx context.Context, source string) (*LoadResult, error) {
	var root string
	var cloned bool
	var err error

	if IsGitSource(source) {
		root, err = l.clone(ctx, source)
		if err != nil {
			return nil, err
		}
		cloned = true
	} else {
		root, err = filepath.Abs(source)
		if err != nil {
			return nil, fmt.Errorf("resolve local path: %w", err)
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat local path: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("local path is not a directory: %s", root)
		}
	}

	l.logger.Info("repo.load.start", "root", root, "cloned", cloned)

	result, err := l.walk(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("walk repository: %w", err)
	}
	result.Root = root
	result.Cloned = cloned

	l.logger.Info("repo.load.complete",
		"files", len(result.Files),
		"manifests", len(result.Manifests),
		"skipped", len(result.Skipped),
		"tree_entries", len(result.Tree),
	)
	return result, nil
}

// validateGitURL rejects URLs that could smuggle shell metacharacters into
// the git invocation or leak credentials.
func validateGitURL(gitURL string) error {
	if gitURL == "" {
		return fmt.Errorf("git URL is empty")
	}
	if dangerousCharsPattern.MatchString(gitURL) {
		return fmt.Errorf("git URL contains dangerous characters")
	}

	if strings.HasPrefix(gitURL, "http://") || strings.HasPrefix(gitURL, "https://") {
		parsed, err := url.Parse(gitURL)
		if err != nil {
			return fmt.Errorf("invalid URL format: %w", err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("git URL missing host")
		}
		if parsed.User != nil {
			if _, hasPassword := parsed.User.Password(); hasPassword {
				return fmt.Errorf("git URL should not contain embedded password")
			}
		}
		return nil
	}

	if strings.HasPrefix(gitURL, "git@") || strings.HasPrefix(gitURL, "ssh://") {
		if !validGitURLPattern.MatchString(gitURL) {
			return fmt.Errorf("invalid SSH git URL format")
		}
		return nil
	}

	if strings.HasPrefix(gitURL, "file://") {
		return nil
	}

	return fmt.Errorf("unsupported git URL protocol: must be https://, git@, ssh://, or file://")
}

// clone shallow-clones gitURL into a temp directory.
func (l *Loader) clone(ctx context.Context, gitURL string) (string, error) {
	if err := validateGitURL(gitURL); err != nil {
		return "", &CloneError{URL: gitURL, Err: err}
	}

	tmpDir, err := os.MkdirTemp("", "ccg-clone-*")
	if err != nil {
		return "", &CloneError{URL: gitURL, Err: fmt.Errorf("create temp dir: %w", err)}
	}

	logURL := gitURL
	if parsed, err := url.Parse(gitURL); err == nil {
		parsed.RawQuery = ""
		if parsed.User != nil {
			parsed.User = url.User("***")
		}
		logURL = parsed.String()
	}
	l.logger.Info("repo.clone.start", "url", logURL, "temp_dir", tmpDir)

	// #nosec G204 - gitURL is validated above
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", "--quiet", gitURL, tmpDir)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", &CloneError{URL: gitURL, Err: err}
	}

	l.logger.Info("repo.clone.success", "url", logURL, "temp_dir", tmpDir)

	l.tempDirsMu.Lock()
	l.tempDirs = append(l.tempDirs, tmpDir)
	l.tempDirsMu.Unlock()

	return tmpDir, nil
}

func (l *Loader) walk(ctx context.Context, root string) (*LoadResult, error) {
	result := &LoadResult{}

	// Root .gitignore, when present, filters the walk alongside the exclude
	// globs. A malformed file is treated as absent.
	ignore, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		ignore = nil
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			l.logger.Warn("repo.walk.error", "path", path, "err", err)
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if l.excluded(rel+"/", ignore) {
				return filepath.SkipDir
			}
			return nil
		}
		if l.excluded(rel, ignore) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		result.Tree = append(result.Tree, TreeEntry{Path: rel, Size: info.Size()})

		switch fileClass(rel) {
		case classSource:
			if info.Size() > l.maxSize {
				l.logger.Warn("repo.walk.skip_large_file",
					"path", rel,
					"size", info.Size(),
					"limit", l.maxSize,
				)
				result.Skipped = append(result.Skipped, graph.SkippedFile{
					Path:   rel,
					Size:   info.Size(),
					Reason: "exceeds size ceiling",
				})
				return nil
			}
			content, err := os.ReadFile(path)
			if err != nil {
				readErr := &FileReadError{Path: rel, Err: err}
				l.logger.Warn("repo.walk.read_error", "path", rel, "err", err)
				result.Skipped = append(result.Skipped, graph.SkippedFile{
					Path:   rel,
					Size:   info.Size(),
					Reason: readErr.Error(),
				})
				return nil
			}
			result.Files = append(result.Files, graph.SourceFile{
				Path:     rel,
				Language: graph.LanguageForPath(rel),
				Size:     info.Size(),
				Content:  content,
			})

		case classManifest:
			content, err := os.ReadFile(path)
			if err != nil {
				l.logger.Warn("repo.walk.read_error", "path", rel, "err", err)
				return nil
			}
			result.Manifests = append(result.Manifests, graph.SourceFile{
				Path:     rel,
				Language: graph.LangUnknown,
				Size:     info.Size(),
				Content:  content,
			})

		case classReadme:
			// Only the shallowest README feeds the summary.
			if result.Readme == "" && !strings.Contains(rel, "/") {
				content, err := os.ReadFile(path)
				if err == nil {
					result.Readme = string(content)
				}
			}
		}

		return nil
	})

	if walkErr != nil {
		return nil, walkErr
	}
	return result, nil
}

func (l *Loader) excluded(rel string, ignore *gitignore.GitIgnore) bool {
	// Also match with a leading slash so "**/dir/**" covers a top-level dir.
	for _, g := range l.excludes {
		if g.Match(rel) || g.Match("/"+rel) {
			return true
		}
	}
	if ignore != nil && ignore.MatchesPath(rel) {
		return true
	}
	return false
}

type class int

const (
	classOther class = iota
	classSource
	classManifest
	classReadme
)

func fileClass(rel string) class {
	base := strings.ToLower(filepath.Base(rel))
	switch base {
	case "package.json", "requirements.txt":
		return classManifest
	}
	if strings.HasPrefix(base, "readme") {
		return classReadme
	}
	if graph.LanguageForPath(rel) != graph.LangUnknown {
		return classSource
	}
	return classOther
}
