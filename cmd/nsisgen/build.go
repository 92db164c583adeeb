package main

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nsisgen/internal/manifest"
	"nsisgen/internal/nsis"
	"nsisgen/internal/progress"
)

var manifestPath string

var (
	buildCmd = &cobra.Command{
		Use:   "build <artifact-dir>",
		Short: "Scan an artifact directory and compile the installer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scan(args[0])
			if err != nil {
				return err
			}

			if manifestPath != "" {
				if err := writeManifest(cmd, s, manifestPath); err != nil {
					return err
				}
			}

			if err := s.Compile(cmd.Context()); err != nil {
				return fmt.Errorf("failed to compile installer: %w", err)
			}

			cmd.Printf("✓ Installer compiled from %s\n", s.ScriptFile())
			return nil
		},
	}

	renderCmd = &cobra.Command{
		Use:   "render <artifact-dir>",
		Short: "Write the include fragments without running the compiler",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scan(args[0])
			if err != nil {
				return err
			}

			dir := filepath.Dir(s.ScriptFile())
			if err := s.CreateInstallNameScript(dir); err != nil {
				return err
			}
			if err := s.CreateSectionScript(dir); err != nil {
				return err
			}

			cmd.Printf("✓ Wrote %s and %s\n",
				filepath.Join(dir, nsis.InstallNameScript), filepath.Join(dir, nsis.SectionScript))
			return nil
		},
	}

	manifestCmd = &cobra.Command{
		Use:   "manifest <artifact-dir> [output-json]",
		Short: "Write a payload manifest with per-file hashes and a merkle digest",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scan(args[0])
			if err != nil {
				return err
			}

			var output string
			if len(args) == 2 {
				output = args[1]
			}
			return writeManifest(cmd, s, output)
		},
	}
)

func init() {
	buildCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Also write a payload manifest to this path")
}

// writeManifest hashes the payload of s and saves its manifest to output,
// or to output/<digest>.json when output is empty.
func writeManifest(cmd *cobra.Command, s *nsis.Script, output string) error {
	cmd.Printf("Hashing %d files...\n", len(s.Paths().Files))

	bar := progress.New(int64(len(s.Paths().Files)), cmd.ErrOrStderr())
	m, err := manifest.Build(s, workers, bar)
	if err != nil {
		return err
	}
	bar.Finish()

	for _, skipped := range m.Skipped {
		log.Warnf("not in manifest: %s", skipped)
	}

	if output == "" {
		output = filepath.Join("output", m.Digest+".json")
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := manifest.Save(m, output); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	cmd.Printf("✓ Manifest written\n")
	cmd.Printf("  Digest: %s\n", m.Digest)
	cmd.Printf("  Entries: %d (%s)\n", len(m.Entries), m.Size)
	cmd.Printf("  Output: %s\n", output)

	if len(m.Skipped) > 0 {
		cmd.Printf("\n⚠ Skipped %d files due to errors\n", len(m.Skipped))
	}

	return nil
}
