package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsisgen/internal/marker"
	"nsisgen/internal/nsis"
	"nsisgen/internal/progress"
)

func scanPayload(t *testing.T, root string) *nsis.Script {
	t.Helper()
	s := nsis.New("")
	require.NoError(t, s.InitFromDirectory(root, nil, nil))
	return s
}

func newPayload(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("bravo!"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "link1"), marker.Encode("a.txt"), 0644))
	return root
}

func TestBuild(t *testing.T) {
	root := newPayload(t)
	s := scanPayload(t, root)

	var out bytes.Buffer
	m, err := Build(s, 2, progress.New(2, &out))
	require.NoError(t, err)

	assert.Equal(t, Generator, m.Generator)
	assert.Equal(t, root, m.Root)
	assert.Equal(t, nsis.DefaultInstallDir, m.InstallDir)
	assert.Equal(t, int64(11), m.TotalSize)
	assert.Equal(t, "11 B", m.Size)
	assert.Empty(t, m.Skipped)
	assert.Contains(t, out.String(), "(2/2)")

	require.Len(t, m.Entries, 4)
	assert.Equal(t, Entry{Path: "a.txt", Kind: KindFile, Hash: m.Entries[0].Hash, Size: 5}, m.Entries[0])
	assert.Equal(t, Entry{Path: "link1", Kind: KindSymlink, Target: "a.txt"}, m.Entries[1])
	assert.Equal(t, Entry{Path: "sub", Kind: KindDir}, m.Entries[2])
	assert.Equal(t, "sub/b.txt", m.Entries[3].Path)
	assert.NotEmpty(t, m.Entries[3].Hash)
	assert.NotEmpty(t, m.Digest)
}

func TestBuild_HardLinks(t *testing.T) {
	root := newPayload(t)
	s := scanPayload(t, root)
	s.Paths().AddHardLink(filepath.Join(root, "sub", "c.txt"), filepath.Join(root, "sub", "b.txt"))

	m, err := Build(s, 1, nil)
	require.NoError(t, err)

	assert.Contains(t, m.Entries, Entry{Path: "sub/c.txt", Kind: KindHardLink, Target: "sub/b.txt"})
}

func TestBuild_SkipsUnreadableFiles(t *testing.T) {
	root := newPayload(t)
	s := scanPayload(t, root)
	s.Paths().Files.Add(filepath.Join(root, "vanished.dll"))

	m, err := Build(s, 1, nil)
	require.NoError(t, err)

	require.Len(t, m.Skipped, 1)
	assert.Contains(t, m.Skipped[0], "vanished.dll")
	assert.Len(t, m.Entries, 4)
}

func TestDigest_DetectsChanges(t *testing.T) {
	root := newPayload(t)

	before, err := Build(scanPayload(t, root), 1, nil)
	require.NoError(t, err)
	again, err := Build(scanPayload(t, root), 4, nil)
	require.NoError(t, err)
	assert.Equal(t, before.Digest, again.Digest, "digest must not depend on worker count or scan time")

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("ALPHA"), 0644))
	after, err := Build(scanPayload(t, root), 1, nil)
	require.NoError(t, err)
	assert.NotEqual(t, before.Digest, after.Digest)
}

func TestDigest_SmallInputs(t *testing.T) {
	empty, err := Digest(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, empty)

	one, err := Digest([]Entry{{Path: "a", Kind: KindDir}})
	require.NoError(t, err)
	other, err := Digest([]Entry{{Path: "b", Kind: KindDir}})
	require.NoError(t, err)

	assert.NotEqual(t, empty, one)
	assert.NotEqual(t, one, other)
}

func TestSaveLoad(t *testing.T) {
	root := newPayload(t)
	m, err := Build(scanPayload(t, root), 1, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, Save(m, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Digest, loaded.Digest)
	assert.Equal(t, m.Entries, loaded.Entries)
	assert.True(t, m.Created.Equal(loaded.Created))
}

func TestLoad_RejectsTamperedEntries(t *testing.T) {
	root := newPayload(t)
	m, err := Build(scanPayload(t, root), 1, nil)
	require.NoError(t, err)

	m.Entries[0].Hash = "0000000000000000"
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, Save(m, path))

	_, err = Load(path)
	assert.ErrorContains(t, err, "corrupt")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.50 KB", formatSize(1536))
	assert.Equal(t, "2.00 MB", formatSize(2*1024*1024))
	assert.Equal(t, "1.00 GB", formatSize(1024*1024*1024))
}
