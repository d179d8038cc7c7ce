package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"instancesync/internal/config"
	"instancesync/internal/curseforge"
	"instancesync/internal/logging"
	"instancesync/internal/manifest"
	"instancesync/internal/services"
	"instancesync/internal/workflow"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var inputDir string
	var outputPath string
	var dryRun bool
	var allowUnmatched bool
	var batchSize int

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fingerprint archives and write the instance manifest",
		Long: `Fingerprint every archive in the input directory, resolve each fingerprint
through the CurseForge fingerprint service and write the instance manifest.

Previously resolved fingerprints are served from the lookup cache. With
--dry-run the manifest is printed to stdout instead of being written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireAPIKey(); err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "sync", "", err)
			}

			input, err := resolvePathFlag(inputDir, cfg.Paths.InputDir)
			if err != nil {
				return err
			}
			output, err := resolvePathFlag(outputPath, cfg.Paths.OutputPath)
			if err != nil {
				return err
			}
			batch := cfg.CurseForge.BatchSize
			if cmd.Flags().Changed("batch-size") {
				if batchSize < 1 || batchSize > config.MaxBatchSize {
					return services.Wrap(services.ErrValidation, "cli", "sync",
						fmt.Sprintf("--batch-size must be between 1 and %d", config.MaxBatchSize), nil)
				}
				batch = batchSize
			}

			cache, logger, err := ctx.openLookupCache(cmd)
			if err != nil {
				return err
			}
			defer cache.Close()

			client, err := curseforge.New(curseforge.Config{
				APIKey:          cfg.CurseForge.APIKey,
				BaseURL:         cfg.CurseForge.BaseURL,
				FingerprintPath: cfg.CurseForge.FingerprintPath,
				GameID:          cfg.CurseForge.GameID,
				UserAgent:       cfg.CurseForge.UserAgent,
				Timeout:         cfg.RequestTimeout(),
			})
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "sync", "curseforge client", err)
			}

			runner := workflow.NewRunner(client, cache, workflow.Options{
				Extensions:   cfg.Scan.Extensions,
				MaxDepth:     cfg.Scan.MaxDepth,
				Workers:      cfg.Scan.Workers,
				MaxFileBytes: cfg.MaxFileBytes(),
			}, logger)

			result, err := runner.Run(cmd.Context(), workflow.Request{
				InputDir:        input,
				OutputPath:      output,
				BatchSize:       batch,
				FailOnUnmatched: cfg.Manifest.FailOnUnmatched && !allowUnmatched,
				DryRun:          dryRun,
				CachedScans:     cfg.Manifest.CachedScans,
			})
			if err != nil {
				if result != nil && len(result.Unmatched) > 0 {
					logging.ErrorWithContext(logger, "unresolved archives", "sync_unresolved",
						logging.Int("count", len(result.Unmatched)),
						logging.String(logging.FieldErrorHint, "rerun with --allow-unmatched to write a partial manifest"),
					)
				}
				return err
			}

			if dryRun {
				data, err := manifest.Encode(result.Manifest)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			renderSyncSummary(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory containing the archives (defaults to paths.input_dir)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Manifest destination (defaults to paths.output_path)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve archives and print the manifest without writing it")
	cmd.Flags().BoolVar(&allowUnmatched, "allow-unmatched", false, "Leave unresolved archives out instead of failing")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Fingerprints per lookup request (defaults to curseforge.batch_size)")
	return cmd
}

func resolvePathFlag(flag, fallback string) (string, error) {
	value := strings.TrimSpace(flag)
	if value == "" {
		return fallback, nil
	}
	expanded, err := config.ExpandPath(value)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "cli", "resolve path", value, err)
	}
	return expanded, nil
}

func renderSyncSummary(cmd *cobra.Command, result *workflow.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	printLines(out, renderSectionHeader("Sync", colorize)...)
	printLines(out,
		renderStatusLine("Archives", statusInfo, strconv.Itoa(result.Archives), colorize),
		renderStatusLine("Resolved", statusOK, fmt.Sprintf("%d (%d from cache)", len(result.Resolved), result.CacheHits), colorize),
	)
	if len(result.Unmatched) > 0 {
		names := make([]string, 0, len(result.Unmatched))
		for _, archive := range result.Unmatched {
			names = append(names, archive.Name)
		}
		printLines(out, renderStatusLine("Unmatched", statusWarn, strings.Join(names, ", "), colorize))
	}
	printLines(out,
		renderStatusLine("Requests", statusInfo, strconv.Itoa(result.Requests), colorize),
		renderStatusLine("Manifest", statusOK, result.OutputPath, colorize),
		renderStatusLine("Run ID", statusInfo, result.RunID, colorize),
	)
}
