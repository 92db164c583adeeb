package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"nsisgen/internal/nsis"
)

// Section names the installer section the generated fragment declares.
type Section struct {
	Title string `yaml:"title"`
	ID    string `yaml:"id"`
}

type Config struct {
	ScriptFile      string   `yaml:"script_file"`
	InstallDir      string   `yaml:"install_dir"`
	Section         Section  `yaml:"section"`
	Compiler        string   `yaml:"compiler"`
	Verbosity       int      `yaml:"verbosity"`
	DetectHardLinks bool     `yaml:"detect_hard_links"`
	ExcludeDirs     []string `yaml:"exclude_dirs"`
	ExcludeFiles    []string `yaml:"exclude_files"`
	LogLevel        string   `yaml:"log_level"`
	LogFile         string   `yaml:"log_file"`
}

func DefaultConfig() *Config {
	return &Config{
		ScriptFile: nsis.DefaultScriptFile,
		InstallDir: nsis.DefaultInstallDir,
		Section: Section{
			Title: nsis.DefaultSectionTitle,
			ID:    nsis.DefaultSectionID,
		},
		Compiler:  nsis.DefaultCompiler,
		Verbosity: nsis.DefaultVerbosity,
		ExcludeDirs: []string{
			".git/",
			".svn/",
		},
		ExcludeFiles: []string{
			".DS_Store",
			"Thumbs.db",
			"*.swp",
		},
		LogLevel: "info",
		LogFile:  "console",
	}
}

// LoadConfig reads path over the defaults. A missing file yields the
// defaults; keys absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if cfg.ExcludeDirs == nil {
		cfg.ExcludeDirs = []string{}
	}
	if cfg.ExcludeFiles == nil {
		cfg.ExcludeFiles = []string{}
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.ScriptFile == "" {
		return errors.New("script_file must be set")
	}
	if err := nsis.ValidateInstallDir(c.InstallDir); err != nil {
		return err
	}
	if c.Verbosity < 0 || c.Verbosity > 4 {
		return fmt.Errorf("verbosity must be between 0 and 4, got %d", c.Verbosity)
	}
	if c.Compiler == "" {
		return errors.New("compiler must be set")
	}
	return nil
}

// ScriptOptions translates the configuration into generator options.
func (c *Config) ScriptOptions() []nsis.Option {
	opts := []nsis.Option{
		nsis.WithSection(c.Section.Title, c.Section.ID),
		nsis.WithCompiler(c.Compiler),
		nsis.WithVerbosity(c.Verbosity),
	}
	if c.DetectHardLinks {
		opts = append(opts, nsis.WithHardLinkDetection())
	}
	return opts
}
