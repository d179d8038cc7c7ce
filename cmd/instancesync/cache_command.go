package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"instancesync/internal/fingerprint"
	"instancesync/internal/lookupcache"
)

const cacheDisabledMessage = "Lookup cache is disabled (lookup_cache.enabled = false)"

const cacheFileColumnWidth = 48

func newCacheCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the fingerprint lookup cache",
		Long: `Inspect and manage the fingerprint lookup cache.

The cache stores fingerprint to download URL resolutions so repeat syncs
only query the service for archives that changed.

Commands:
  list     - List cached resolutions, newest first
  remove   - Remove a specific entry by number (see 'list' for numbers)
  clear    - Remove all cached entries`,
	}
	cacheCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of text")

	cacheCmd.AddCommand(newCacheListCommand(ctx, &jsonOutput))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx, &jsonOutput))
	cacheCmd.AddCommand(newCacheClearCommand(ctx, &jsonOutput))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached fingerprint resolutions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, _, err := ctx.openLookupCache(cmd)
			if err != nil {
				return err
			}
			defer cache.Close()

			if !cache.Enabled() && !*jsonOutput {
				fmt.Fprintln(cmd.OutOrStdout(), cacheDisabledMessage)
				return nil
			}

			entries, err := cache.List(cmd.Context())
			if err != nil {
				return err
			}
			if *jsonOutput {
				if entries == nil {
					entries = []lookupcache.Entry{}
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Lookup cache: empty")
				return nil
			}

			fmt.Fprintf(out, "Lookup cache: %d entries\n\n", len(entries))
			const stampLayout = "2006-01-02"
			rows := make([][]string, 0, len(entries))
			for i, entry := range entries {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					fingerprint.Format(entry.Fingerprint),
					entry.FileName,
					strconv.FormatInt(entry.ProjectID, 10),
					entry.CachedAt.In(time.Local).Format(stampLayout),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]tableColumn{
					rightColumn("#"),
					rightColumn("Fingerprint"),
					leftColumn("File").trimmedTo(cacheFileColumnWidth),
					rightColumn("Project"),
					leftColumn("Cached"),
				},
				rows,
			))
			return nil
		},
	}
}

func newCacheRemoveCommand(ctx *commandContext, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <number>",
		Short: "Remove a specific cache entry by number",
		Long: `Remove a specific cache entry by its number from 'instancesync cache list'.

Example:
  instancesync cache list        # Shows numbered list of cached resolutions
  instancesync cache remove 2    # Removes entry #2 from the list`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryNum, err := strconv.Atoi(args[0])
			if err != nil || entryNum < 1 {
				return fmt.Errorf("invalid entry number: %s (must be a positive integer)", args[0])
			}

			cache, _, err := ctx.openLookupCache(cmd)
			if err != nil {
				return err
			}
			defer cache.Close()

			if !cache.Enabled() {
				return errors.New(cacheDisabledMessage)
			}

			entry, err := cache.RemoveByNumber(cmd.Context(), entryNum)
			if err != nil {
				return err
			}

			if *jsonOutput {
				return writeJSON(cmd, map[string]any{
					"removed":     true,
					"entry":       entryNum,
					"fingerprint": entry.Fingerprint,
					"file_name":   entry.FileName,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed lookup cache entry %d (%s)\n", entryNum, entry.FileName)
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cache entries",
		Long:  "Delete every cached resolution. The cache is repopulated by the next sync.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, _, err := ctx.openLookupCache(cmd)
			if err != nil {
				return err
			}
			defer cache.Close()

			removed, err := cache.Clear(cmd.Context())
			if err != nil {
				return err
			}

			if *jsonOutput {
				return writeJSON(cmd, map[string]any{"removed": removed})
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Lookup cache is already empty")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d lookup cache entries\n", removed)
			return nil
		},
	}
}
