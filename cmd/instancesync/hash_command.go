package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"instancesync/internal/fingerprint"
	"instancesync/internal/scanner"
)

type hashOutput struct {
	File             string `json:"file"`
	Fingerprint      uint32 `json:"fingerprint"`
	FingerprintHex   string `json:"fingerprint_hex"`
	NormalizedLength uint32 `json:"normalized_length"`
	Size             int64  `json:"size"`
	Blake3           string `json:"blake3"`
}

func newHashCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "hash FILE...",
		Short: "Print the fingerprint of one or more files",
		Long: `Print the lookup fingerprint of each file along with the number of bytes
that contribute to it and the file's BLAKE3 digest. Whitespace bytes
(tab, line feed, carriage return, space) are ignored by the fingerprint.`,
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]hashOutput, 0, len(args))
			for _, path := range args {
				archive, err := scanner.HashFile(path, 0)
				if err != nil {
					return fmt.Errorf("hash %s: %w", path, err)
				}
				results = append(results, hashOutput{
					File:             path,
					Fingerprint:      archive.Fingerprint,
					FingerprintHex:   fmt.Sprintf("0x%08X", archive.Fingerprint),
					NormalizedLength: archive.NormalizedLength,
					Size:             archive.Size,
					Blake3:           archive.Digest,
				})
			}

			if jsonOutput {
				return writeJSON(cmd, results)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					r.File,
					fingerprint.Format(r.Fingerprint),
					r.FingerprintHex,
					strconv.FormatUint(uint64(r.NormalizedLength), 10),
					strconv.FormatInt(r.Size, 10),
					shortDigest(r.Blake3),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]tableColumn{
					leftColumn("File"),
					rightColumn("Fingerprint"),
					leftColumn("Hex"),
					rightColumn("Normalized"),
					rightColumn("Size"),
					leftColumn("BLAKE3"),
				},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func shortDigest(digest string) string {
	if len(digest) <= 16 {
		return digest
	}
	return digest[:16]
}
