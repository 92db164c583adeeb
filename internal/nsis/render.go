package nsis

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nsisgen/internal/pathset"
)

const instDir = `$INSTDIR`

var escaper = strings.NewReplacer(`$`, `$$`, `"`, `$\"`)

// quote renders s as an NSIS string literal.
func quote(s string) string {
	return `"` + escaper.Replace(s) + `"`
}

// windowsPath converts a host relative path to the separator used on the
// install target.
func windowsPath(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), "/", `\`)
}

// installPath renders path as a quoted location under $INSTDIR.
func (s *Script) installPath(path string) string {
	rel := windowsPath(s.NormalizeInstallPath(path))
	return `"` + instDir + `\` + escaper.Replace(rel) + `"`
}

// baseName returns the last element of p, accepting either separator since
// link targets may be written in Windows or POSIX form.
func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// symlinkType returns the MkLink command variant for a link to target. A
// target whose base name matches a tracked file is a file link; anything
// else is assumed to be a directory.
func symlinkType(target string, fileNames map[string]struct{}) string {
	if _, ok := fileNames[baseName(target)]; ok {
		return "SoftF"
	}
	return "SoftD"
}

// RenderInstallName returns the contents of InstallNameScript.
func (s *Script) RenderInstallName() []byte {
	return []byte(fmt.Sprintf("InstallDir %s\n", quote(s.installDir)))
}

// RenderSection returns the contents of SectionScript. Entries of each kind
// are emitted in lexical order.
func (s *Script) RenderSection() []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "Section %s %s\n", quote(s.sectionTitle), s.sectionID)
	b.WriteString("  SectionIn RO\n")
	fmt.Fprintf(&b, "  SetOutPath %s\n", instDir)

	for _, dir := range s.paths.Dirs.Sorted() {
		fmt.Fprintf(&b, "  CreateDirectory %s\n", s.installPath(dir))
	}

	fileNames := make(map[string]struct{}, len(s.paths.Files))
	for _, file := range s.paths.Files.Sorted() {
		fileNames[filepath.Base(file)] = struct{}{}
		oname := windowsPath(s.NormalizeInstallPath(file))
		fmt.Fprintf(&b, "  File %s %s\n", quote("/oname="+oname), quote(file))
	}

	for _, link := range pathset.SortedKeys(s.paths.Symlinks) {
		target := s.paths.Symlinks[link]
		fmt.Fprintf(&b, "  MkLink::%s %s %s\n",
			symlinkType(target, fileNames), s.installPath(link), quote(target))
	}

	for _, link := range pathset.SortedKeys(s.paths.Links) {
		fmt.Fprintf(&b, "  MkLink::Hard %s %s\n",
			s.installPath(link), s.installPath(s.paths.Links[link]))
	}

	b.WriteString("SectionEnd\n")
	return b.Bytes()
}

// CreateInstallNameScript writes InstallNameScript into cwd, replacing any
// existing file.
func (s *Script) CreateInstallNameScript(cwd string) error {
	return writeFragment(filepath.Join(cwd, InstallNameScript), s.RenderInstallName())
}

// CreateSectionScript writes SectionScript into cwd, replacing any existing
// file.
func (s *Script) CreateSectionScript(cwd string) error {
	return writeFragment(filepath.Join(cwd, SectionScript), s.RenderSection())
}

func writeFragment(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
