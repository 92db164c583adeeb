// Package nsis generates the include fragments of an NSIS installer script
// from a directory of build artifacts and runs the NSIS compiler on the root
// script that includes them.
//
// A Script is used in four steps:
//
//	s := nsis.New("installer/nsis.nsi")
//	if err := s.SetInstallDir(`C:\my_sdk`); err != nil { ... }
//	if err := s.InitFromDirectory("out/sdk", nil, nil); err != nil { ... }
//	if err := s.Compile(ctx); err != nil { ... }
//
// The root script is written by hand. It must include the two fragments,
// InstallNameScript and SectionScript, which Compile writes next to it.
package nsis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"nsisgen/internal/pathset"
)

const (
	DefaultScriptFile   = "nsis.nsi"
	DefaultInstallDir   = `C:\nsis_install`
	DefaultSectionTitle = "!Installer Payload"
	DefaultSectionID    = "Payload"
	DefaultCompiler     = "makensis"
	DefaultVerbosity    = 2

	// InstallNameScript declares the default install directory.
	InstallNameScript = "sdk_install_name.nsh"
	// SectionScript holds the section that installs the payload.
	SectionScript = "sdk_section.nsh"
)

// ErrInvalidInstallDir is returned for install directories that are not
// absolute Windows paths with a drive or UNC volume.
var ErrInvalidInstallDir = errors.New("install_dir must be an absolute path")

// Windows path syntax is checked independently of the host OS: the
// generator usually runs on a build machine that is not the install target.
var (
	drivePath = regexp.MustCompile(`^[A-Za-z]:[\\/]`)
	uncPath   = regexp.MustCompile(`^[\\/]{2}[^\\/]+[\\/][^\\/]+`)
)

// ValidateInstallDir checks that dir is absolute and carries a drive
// designator, e.g. C:\sdk or \\host\share\sdk.
func ValidateInstallDir(dir string) error {
	if drivePath.MatchString(dir) || uncPath.MatchString(dir) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidInstallDir, dir)
}

// Option configures a Script built by New.
type Option func(*Script)

// WithSection sets the title and id of the generated section.
func WithSection(title, id string) Option {
	return func(s *Script) {
		s.sectionTitle = title
		s.sectionID = id
	}
}

// WithCompiler sets the makensis executable to run.
func WithCompiler(path string) Option {
	return func(s *Script) {
		s.compiler = path
	}
}

// WithVerbosity sets the makensis verbosity level, 0 to 4.
func WithVerbosity(level int) Option {
	return func(s *Script) {
		s.verbosity = level
	}
}

// WithHardLinkDetection makes InitFromDirectory record files that share an
// inode as hard links instead of separate copies.
func WithHardLinkDetection() Option {
	return func(s *Script) {
		s.detectHardLinks = true
	}
}

// Script is an NSIS installer script under construction. It is not safe for
// concurrent use.
type Script struct {
	scriptFile          string
	installDir          string
	relativeInstallRoot string

	sectionTitle    string
	sectionID       string
	compiler        string
	verbosity       int
	detectHardLinks bool

	paths *pathset.PathSet

	execCC func(context.Context, string, ...string) *exec.Cmd // Allows test overrides
}

// New returns a Script that compiles scriptFile. An empty scriptFile means
// DefaultScriptFile.
func New(scriptFile string, opts ...Option) *Script {
	if scriptFile == "" {
		scriptFile = DefaultScriptFile
	}

	s := &Script{
		scriptFile:   scriptFile,
		installDir:   DefaultInstallDir,
		sectionTitle: DefaultSectionTitle,
		sectionID:    DefaultSectionID,
		compiler:     DefaultCompiler,
		verbosity:    DefaultVerbosity,
		paths:        pathset.New(),
		execCC:       exec.CommandContext,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Script) ScriptFile() string { return s.scriptFile }

func (s *Script) InstallDir() string { return s.installDir }

// RelativeInstallRoot is the directory last scanned by InitFromDirectory, or
// "" before any scan.
func (s *Script) RelativeInstallRoot() string { return s.relativeInstallRoot }

// Paths exposes the classified payload. Callers may add links to it before
// rendering.
func (s *Script) Paths() *pathset.PathSet { return s.paths }

// SetInstallDir replaces the default install directory. The previous value
// is kept when dir is invalid.
func (s *Script) SetInstallDir(dir string) error {
	if err := ValidateInstallDir(dir); err != nil {
		return err
	}
	s.installDir = dir
	return nil
}

// NormalizeInstallPath makes path relative to the scanned root. Paths outside
// the root, and every path before a scan, are returned unchanged.
func (s *Script) NormalizeInstallPath(path string) string {
	root := s.relativeInstallRoot
	if root == "" || !strings.HasPrefix(path, root) {
		return path
	}

	rest := path[len(root):]
	switch {
	case os.IsPathSeparator(root[len(root)-1]):
		return rest
	case rest == "":
		return ""
	case os.IsPathSeparator(rest[0]):
		return rest[1:]
	default:
		// a sibling such as /out/sdk2 when the root is /out/sdk
		return path
	}
}
