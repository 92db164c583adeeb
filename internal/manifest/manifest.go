package manifest

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	mt "github.com/txaty/go-merkletree"

	"nsisgen/internal/hash"
	"nsisgen/internal/nsis"
	"nsisgen/internal/pathset"
	"nsisgen/internal/progress"
	"nsisgen/internal/walker"
)

const Generator = "nsisgen"

type Kind string

const (
	KindDir      Kind = "dir"
	KindFile     Kind = "file"
	KindSymlink  Kind = "symlink"
	KindHardLink Kind = "hardlink"
)

// Entry is one installed item. Path is relative to the install directory
// and always uses forward slashes.
type Entry struct {
	Path   string `json:"path"`
	Kind   Kind   `json:"kind"`
	Hash   string `json:"hash,omitempty"`
	Size   int64  `json:"size,omitempty"`
	Target string `json:"target,omitempty"`
}

// Serialize implements the go-merkletree DataBlock interface.
func (e Entry) Serialize() ([]byte, error) {
	return []byte(strings.Join([]string{string(e.Kind), e.Path, e.Hash, e.Target}, "\x00")), nil
}

// Manifest records what a generated installer contains. Digest is the
// merkle root over Entries, so two payloads with equal digests install the
// same tree.
type Manifest struct {
	Generator  string    `json:"generator"`
	Created    time.Time `json:"created"`
	Root       string    `json:"root"`
	InstallDir string    `json:"install_dir"`
	Digest     string    `json:"digest"`
	Size       string    `json:"size"`
	TotalSize  int64     `json:"total_size"`
	Entries    []Entry   `json:"entries"`
	Skipped    []string  `json:"skipped,omitempty"`
}

// Build hashes the files classified by s and assembles its manifest. Files
// that cannot be hashed are listed in Skipped and left out of Entries.
func Build(s *nsis.Script, workers int, bar *progress.Bar) (*Manifest, error) {
	paths := s.Paths()
	m := &Manifest{
		Generator:  Generator,
		Created:    time.Now(),
		Root:       s.RelativeInstallRoot(),
		InstallDir: s.InstallDir(),
		Entries:    make([]Entry, 0, paths.Len()),
	}

	rel := func(p string) string {
		return filepath.ToSlash(s.NormalizeInstallPath(p))
	}

	for _, dir := range paths.Dirs.Sorted() {
		m.Entries = append(m.Entries, Entry{Path: rel(dir), Kind: KindDir})
	}

	files := make([]walker.FileInfo, 0, len(paths.Files))
	for _, file := range paths.Files.Sorted() {
		info, err := os.Stat(file)
		if err != nil {
			m.Skipped = append(m.Skipped, fmt.Sprintf("%s: %v", file, err))
			continue
		}
		files = append(files, walker.FileInfo{Path: file, Size: info.Size(), ModTime: info.ModTime()})
	}

	hashes, err := walker.HashFiles(files, workers, bar)
	if err != nil {
		return nil, fmt.Errorf("failed to hash files: %w", err)
	}
	for _, hashErr := range hashes.Errors {
		m.Skipped = append(m.Skipped, hashErr.Error())
	}

	for _, file := range files {
		h, ok := hashes.Hashes[file.Path]
		if !ok {
			continue
		}
		m.TotalSize += file.Size
		m.Entries = append(m.Entries, Entry{Path: rel(file.Path), Kind: KindFile, Hash: h, Size: file.Size})
	}

	for _, link := range pathset.SortedKeys(paths.Symlinks) {
		m.Entries = append(m.Entries, Entry{Path: rel(link), Kind: KindSymlink, Target: paths.Symlinks[link]})
	}
	for _, link := range pathset.SortedKeys(paths.Links) {
		m.Entries = append(m.Entries, Entry{Path: rel(link), Kind: KindHardLink, Target: rel(paths.Links[link])})
	}

	sort.SliceStable(m.Entries, func(i, j int) bool {
		return m.Entries[i].Path < m.Entries[j].Path
	})

	m.Digest, err = Digest(m.Entries)
	if err != nil {
		return nil, err
	}
	m.Size = formatSize(m.TotalSize)

	return m, nil
}

// Digest returns the hex merkle root of entries, in the order given.
func Digest(entries []Entry) (string, error) {
	switch len(entries) {
	case 0:
		return hash.HashString("empty-tree"), nil
	case 1:
		data, _ := entries[0].Serialize()
		sum, err := hash.XXHashFunc(data)
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(sum), nil
	}

	blocks := make([]mt.DataBlock, len(entries))
	for i := range entries {
		blocks[i] = entries[i]
	}

	tree, err := mt.New(&mt.Config{
		HashFunc: hash.XXHashFunc,
		Mode:     mt.ModeTreeBuild,
	}, blocks)
	if err != nil {
		return "", fmt.Errorf("failed to build merkle tree: %w", err)
	}

	return hex.EncodeToString(tree.Root), nil
}
