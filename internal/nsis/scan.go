package nsis

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"nsisgen/internal/marker"
	"nsisgen/internal/pathset"
	"nsisgen/internal/walker"
)

// InitFromDirectory rebuilds the payload from the tree at artifactDir, which
// becomes the relative install root.
//
// A symlinked artifactDir is resolved, and the resolved path is the root.
// Every subdirectory goes to the directory set and every other entry to the
// file set, both as absolute paths. A non-nil dirFilter or fileFilter then
// replaces its set with the filter's output. Finally each remaining file that
// is a native symlink or a legacy marker file moves to the symlink map.
//
// Only a failure to read artifactDir itself is returned. Entries below it
// that cannot be read are logged and skipped.
func (s *Script) InitFromDirectory(artifactDir string, dirFilter, fileFilter pathset.Filter) error {
	root, err := filepath.Abs(artifactDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	// The walk does not follow a symlinked root, so resolve it first.
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", artifactDir, err)
	}

	s.relativeInstallRoot = root
	s.paths.Reset()

	result, err := walker.Walk(root)
	if err != nil {
		return err
	}
	for _, walkErr := range result.Errors {
		log.Warnf("skipping unreadable entry: %v", walkErr)
	}

	for _, dir := range result.Dirs {
		s.paths.Dirs.Add(dir)
	}
	for _, file := range result.Files {
		s.paths.Files.Add(file.Path)
	}

	if dirFilter != nil {
		s.paths.Dirs = orEmpty(dirFilter(s.paths.Dirs))
	}
	if fileFilter != nil {
		s.paths.Files = orEmpty(fileFilter(s.paths.Files))
	}

	s.classifySymlinks()
	if s.detectHardLinks {
		s.classifyHardLinks()
	}

	log.WithFields(log.Fields{
		"root":      root,
		"dirs":      len(s.paths.Dirs),
		"files":     len(s.paths.Files),
		"symlinks":  len(s.paths.Symlinks),
		"hardlinks": len(s.paths.Links),
	}).Info("scanned artifact directory")

	return nil
}

func orEmpty(set pathset.Set) pathset.Set {
	if set == nil {
		return make(pathset.Set)
	}
	return set
}

// classifySymlinks moves native symlinks and marker files out of the file
// set. A file that cannot be probed stays a plain file.
func (s *Script) classifySymlinks() {
	for _, path := range s.paths.Files.Sorted() {
		target, ok, err := readLink(path)
		if err != nil {
			log.WithError(err).Warnf("treating %s as a plain file", path)
			continue
		}
		if ok {
			log.Debugf("symlink %s -> %s", path, target)
			s.paths.AddSymlink(path, target)
		}
	}
}

func readLink(path string) (string, bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", false, err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return "", false, err
		}
		return target, true, nil
	}

	return marker.ReadTarget(path)
}

// classifyHardLinks keeps the lexically first path of every group of files
// sharing an inode and records the others as hard links to it.
func (s *Script) classifyHardLinks() {
	type candidate struct {
		path string
		info os.FileInfo
	}

	bySize := make(map[int64][]candidate)
	for _, path := range s.paths.Files.Sorted() {
		info, err := os.Lstat(path)
		if err != nil {
			log.WithError(err).Warnf("skipping hard link check for %s", path)
			continue
		}
		bySize[info.Size()] = append(bySize[info.Size()], candidate{path, info})
	}

	for _, candidates := range bySize {
		var heads []candidate
	next:
		for _, c := range candidates {
			for _, h := range heads {
				if os.SameFile(h.info, c.info) {
					log.Debugf("hard link %s -> %s", c.path, h.path)
					s.paths.AddHardLink(c.path, h.path)
					continue next
				}
			}
			heads = append(heads, c)
		}
	}
}
