package main

import (
	"fmt"
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nsisgen/internal/config"
	"nsisgen/internal/logging"
	"nsisgen/internal/nsis"
	"nsisgen/internal/walker"
)

var (
	configPath string
	logLevel   string
	logFile    string
	scriptFile string
	installDir string
	workers    int

	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "nsisgen",
		Short: "Generate and compile NSIS installers from a build artifact directory",
		Long: `nsisgen scans a directory of build artifacts, writes the NSIS include
fragments sdk_install_name.nsh and sdk_section.nsh next to the root installer
script, and runs makensis on that script.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "nsisgen.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", `Log file path, or "console" (overrides config)`)
	rootCmd.PersistentFlags().StringVarP(&scriptFile, "script", "s", "", "Root NSIS script (overrides config)")
	rootCmd.PersistentFlags().StringVar(&installDir, "install-dir", "", `Default install directory, e.g. C:\sdk (overrides config)`)
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", runtime.NumCPU()*2, "Number of hashing goroutines")

	rootCmd.AddCommand(buildCmd, renderCmd, manifestCmd, diffCmd, versionCmd)
}

// setup loads the config, applies flag overrides and configures logging.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("script") {
		cfg.ScriptFile = scriptFile
	}
	if flags.Changed("install-dir") {
		cfg.InstallDir = installDir
	}

	if err := logging.InitLog(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}

	return cfg.Validate()
}

// scan builds a script from the loaded config and populates it from
// artifactDir.
func scan(artifactDir string) (*nsis.Script, error) {
	s := nsis.New(cfg.ScriptFile, cfg.ScriptOptions()...)
	if err := s.SetInstallDir(cfg.InstallDir); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(artifactDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	log.Infof("scanning directory: %s", root)

	// Files below an excluded directory go with it.
	fileExclusions := append(append([]string{}, cfg.ExcludeDirs...), cfg.ExcludeFiles...)

	err = s.InitFromDirectory(root,
		walker.ExcludeFilter(root, cfg.ExcludeDirs),
		walker.ExcludeFilter(root, fileExclusions),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	return s, nil
}
