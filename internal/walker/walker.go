package walker

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"nsisgen/internal/hash"
	"nsisgen/internal/pathset"
	"nsisgen/internal/progress"
)

type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// WalkResult lists everything found below a root. Dirs never contains the
// root itself. Files holds every entry that is not a directory, including
// symbolic links, which are not followed.
type WalkResult struct {
	Dirs   []string
	Files  []FileInfo
	Errors []error
}

// Walk recursively lists rootPath. Errors below the root are collected in
// the result; only a failure to read the root itself is returned.
func Walk(rootPath string) (*WalkResult, error) {
	result := &WalkResult{
		Dirs:   make([]string, 0),
		Files:  make([]FileInfo, 0),
		Errors: make([]error, 0),
	}

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// If error is on the root path, return it (don't continue walking)
			if path == rootPath {
				return err
			}
			result.Errors = append(result.Errors, err)
			return nil
		}

		if path == rootPath {
			return nil
		}

		if d.IsDir() {
			result.Dirs = append(result.Dirs, path)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}

		result.Files = append(result.Files, FileInfo{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return result, nil
}

// ExcludeFilter returns a filter that drops every path below root matching
// one of patterns. Patterns ending in "/" match any path component, so
// ".git/" removes the .git directory and everything under it. Other patterns
// match the base name, or the whole relative path when they contain "/".
func ExcludeFilter(root string, patterns []string) pathset.Filter {
	return pathset.Keep(func(path string) bool {
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return true
		}
		return !shouldExclude(relPath, patterns)
	})
}

func shouldExclude(relPath string, exclusions []string) bool {
	for _, pattern := range exclusions {
		// Handle directory exclusions (patterns ending with /)
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			parts := strings.Split(relPath, string(filepath.Separator))
			for _, part := range parts {
				if matched, _ := filepath.Match(dirPattern, part); matched {
					return true
				}
				if part == dirPattern {
					return true
				}
			}
		} else {
			matched, err := filepath.Match(pattern, filepath.Base(relPath))
			if err == nil && matched {
				return true
			}
			if strings.Contains(pattern, "/") {
				matched, err := filepath.Match(pattern, filepath.ToSlash(relPath))
				if err == nil && matched {
					return true
				}
			}
		}
	}
	return false
}

type HashResult struct {
	Hashes map[string]string // path -> hash
	Errors []error
}

// HashFiles hashes files with at most numWorkers running at once. A file
// that cannot be read is reported in Errors and left out of Hashes.
func HashFiles(files []FileInfo, numWorkers int, progressBar *progress.Bar) (*HashResult, error) {
	if numWorkers <= 0 {
		numWorkers = 1
	}

	result := &HashResult{
		Hashes: make(map[string]string),
		Errors: make([]error, 0),
	}

	if len(files) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(numWorkers)

	for _, fileInfo := range files {
		path := fileInfo.Path
		g.Go(func() error {
			hashStr, err := hash.HashFile(path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
				return nil
			}
			result.Hashes[path] = hashStr

			if progressBar != nil {
				progressBar.SetDirectory(filepath.Dir(path))
				progressBar.Increment()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}
