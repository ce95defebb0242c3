// Package initcmder provides the init command for initializing a local .arbor
// directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arborhq/arbor/pkg/config"
)

const (
	dirName = ".arbor"
)

const initLongDesc string = `Initialize a new .arbor/ directory in the current working directory.

Creates a local .arbor/ directory that takes precedence over the default
~/.arbor/ directory for session state, configuration, and other arbor
operations.

This is useful for maintaining separate arbor state per vault or project.

With --preset, a config.toml is written alongside the directory. Named
presets configure the vector store (sqlite, chroma, qdrant); an http(s)
URL fetches a shared config.toml instead.

Examples:
  arbor init
  arbor init --preset qdrant
  arbor init --preset https://example.com/team-config.toml`

const initShortDesc string = "Initialize a local .arbor/ directory"

type initCommander struct {
	preset string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Config preset name or config.toml URL")

	return cmd
}

func (c *initCommander) run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	exists := err == nil && info.IsDir()
	if !exists {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .arbor directory: %w", err)
		}
	}

	if c.preset != "" {
		if err := writePresetConfig(dir, c.preset); err != nil {
			return err
		}
	}

	if exists {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	fmt.Printf("Initialized .arbor directory: %s\n", dir)
	return nil
}

func writePresetConfig(dir, preset string) error {
	var cfg *config.Config
	var err error

	if strings.HasPrefix(preset, "http://") || strings.HasPrefix(preset, "https://") {
		cfg, err = fetchRemoteConfig(preset)
	} else {
		cfg, err = config.PresetConfig(preset)
	}
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("opening config dir: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("writing config.toml: %w", err)
	}

	return nil
}

func fetchRemoteConfig(url string) (*config.Config, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	cfg, err := config.ParseConfigTOML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing remote config: %w", err)
	}

	return cfg, nil
}
