package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsisgen/internal/manifest"
	"nsisgen/internal/nsis"
)

func writePayload(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range []string{"bin/tool.exe", "include/api.h", ".git/HEAD", "README"} {
		full := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(f), 0644))
	}
	return root
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestRenderCommand(t *testing.T) {
	root := writePayload(t)
	buildDir := t.TempDir()
	script := filepath.Join(buildDir, "nsis.nsi")

	out := execute(t,
		"--config", filepath.Join(buildDir, "absent.yaml"),
		"--script", script,
		"--install-dir", `D:\tools`,
		"render", root,
	)
	assert.Contains(t, out, nsis.SectionScript)

	name, err := os.ReadFile(filepath.Join(buildDir, nsis.InstallNameScript))
	require.NoError(t, err)
	assert.Equal(t, "InstallDir \"D:\\tools\"\n", string(name))

	section, err := os.ReadFile(filepath.Join(buildDir, nsis.SectionScript))
	require.NoError(t, err)
	assert.Contains(t, string(section), `CreateDirectory "$INSTDIR\bin"`)
	assert.Contains(t, string(section), `File "/oname=include\api.h"`)
	assert.NotContains(t, string(section), ".git", "default exclusions drop VCS metadata")
}

func TestManifestCommand(t *testing.T) {
	root := writePayload(t)
	buildDir := t.TempDir()
	output := filepath.Join(buildDir, "payload.json")

	out := execute(t,
		"--config", filepath.Join(buildDir, "absent.yaml"),
		"--workers", "2",
		"manifest", root, output,
	)
	assert.Contains(t, out, "Digest:")

	m, err := manifest.Load(output)
	require.NoError(t, err)

	var paths []string
	for _, e := range m.Entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, "README bin bin/tool.exe include include/api.h", strings.Join(paths, " "))
}

func TestDiffCommand(t *testing.T) {
	root := writePayload(t)
	buildDir := t.TempDir()
	config := filepath.Join(buildDir, "absent.yaml")
	before := filepath.Join(buildDir, "before.json")
	after := filepath.Join(buildDir, "after.json")

	execute(t, "--config", config, "manifest", root, before)

	out := execute(t, "--config", config, "diff", before, before)
	assert.Contains(t, out, "No changes detected.")

	require.NoError(t, os.WriteFile(filepath.Join(root, "include", "extra.h"), []byte("extra"), 0644))
	execute(t, "--config", config, "manifest", root, after)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"--config", config, "diff", before, after})
	err := rootCmd.Execute()

	assert.ErrorIs(t, err, errChanged)
	assert.Contains(t, buf.String(), "+ include/extra.h")
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "version")
	assert.Equal(t, version+"\n", out)
}
