package nsis

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// makensis takes /OPTION switches on Windows and -OPTION elsewhere.
var flagPrefix = func() string {
	if runtime.GOOS == "windows" {
		return "/"
	}
	return "-"
}()

func (s *Script) verbosityFlag() string {
	return fmt.Sprintf("%sV%d", flagPrefix, s.verbosity)
}

// Compile writes both fragments next to the script file and runs the
// compiler on the script from that directory. The installer it produces is
// named by the script's own OutFile directive.
func (s *Script) Compile(ctx context.Context) error {
	workingDir := filepath.Dir(s.scriptFile)

	if err := s.CreateInstallNameScript(workingDir); err != nil {
		return err
	}
	if err := s.CreateSectionScript(workingDir); err != nil {
		return err
	}

	script, err := filepath.Abs(s.scriptFile)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	_, err = s.execOut(ctx, workingDir, s.compiler, s.verbosityFlag(), script)
	return err
}

func (s *Script) execOut(ctx context.Context, dir string, argv0 string, args ...string) (string, error) {
	cmd := s.execCC(ctx, argv0, args...)

	log.WithFields(log.Fields{
		"cmd": strings.Join(cmd.Args, " "),
		"dir": dir,
	}).Info("running installer compiler")

	cmd.Dir = dir
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.Stdout, cmd.Stderr = stdout, stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run command %s %v: %w\nstdout=%s\nstderr=%s", argv0, args, err, stdout, stderr)
	}

	log.Debugf("compiler output:\n%s", stdout)
	return strings.TrimSpace(stdout.String()), nil
}
