package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"instancesync/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set curseforge.api_key (or export CURSEFORGE_API_KEY) before running instancesync sync.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			printLines(out, renderSectionHeader("Configuration", colorize)...)
			pathKind := statusOK
			pathMessage := ctx.configPath
			if !ctx.configSeen {
				pathKind = statusInfo
				pathMessage = ctx.configPath + " (not found, defaults used)"
			}
			printLines(out, renderStatusLine("Config path", pathKind, pathMessage, colorize))

			if err := cfg.RequireAPIKey(); err != nil {
				printLines(out, renderStatusLine("API key", statusWarn, "not set; sync will fail", colorize))
			} else {
				printLines(out, renderStatusLine("API key", statusOK, "set", colorize))
			}

			cachePath := "disabled"
			if cfg.LookupCache.Enabled {
				cachePath = cfg.LookupCache.Path
			}
			printLines(out,
				renderStatusLine("Input dir", statusInfo, cfg.Paths.InputDir, colorize),
				renderStatusLine("Output", statusInfo, cfg.Paths.OutputPath, colorize),
				renderStatusLine("Game ID", statusInfo, strconv.Itoa(cfg.CurseForge.GameID), colorize),
				renderStatusLine("Batch size", statusInfo, strconv.Itoa(cfg.CurseForge.BatchSize), colorize),
				renderStatusLine("Lookup cache", statusInfo, cachePath, colorize),
				renderStatusLine("Strict matching", statusInfo, yesNo(cfg.Manifest.FailOnUnmatched), colorize),
			)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
