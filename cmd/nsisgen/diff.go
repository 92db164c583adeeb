package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"nsisgen/internal/compare"
	"nsisgen/internal/manifest"
)

var version = "dev"

// errChanged is returned by diff when the manifests differ. main exits 1
// on it without printing an error.
var errChanged = errors.New("manifests differ")

var (
	diffCmd = &cobra.Command{
		Use:   "diff <old.json> <new.json>",
		Short: "Compare two payload manifests; exits 1 when they differ",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldM, err := manifest.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to load manifest: %w", err)
			}
			newM, err := manifest.Load(args[1])
			if err != nil {
				return fmt.Errorf("failed to load manifest: %w", err)
			}

			result := compare.Compare(oldM, newM)
			cmd.Println(compare.FormatReport(result))

			if result.HasChanges() {
				return errChanged
			}
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the nsisgen version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}
)
