package main

import (
	"fmt"
	"path/filepath"

	"github.com/nvandessel/psyche/internal/backup"
	"github.com/spf13/cobra"
)

func newCheckpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect and prune brain checkpoint archives",
		Long: `Checkpoint archives are written by 'psyche simulate --checkpoint-dir'.
Each one is a gzip-compressed brain with a checksummed header, and can be
passed anywhere a brain file is accepted.`,
	}
	cmd.AddCommand(
		newCheckpointListCmd(),
		newCheckpointVerifyCmd(),
		newCheckpointPruneCmd(),
	)
	return cmd
}

func newCheckpointListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <dir>",
		Short: "List checkpoints with step and size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			archives, err := backup.ListArchives(args[0])
			if err != nil {
				return fmt.Errorf("failed to list checkpoints: %w", err)
			}

			if jsonOut {
				if archives == nil {
					archives = []backup.ArchiveInfo{}
				}
				return printJSON(cmd, map[string]any{
					"checkpoints": archives,
					"total_count": len(archives),
					"directory":   args[0],
				})
			}

			w := cmd.OutOrStdout()
			if len(archives) == 0 {
				fmt.Fprintf(w, "No checkpoints found in %s\n", args[0])
				return nil
			}
			fmt.Fprintf(w, "Checkpoints in %s:\n", args[0])
			var totalSize int64
			for _, a := range archives {
				totalSize += a.Size
				fmt.Fprintf(w, "  %s  step %-8d %5d neurons  %6d synapses  %8s  %s\n",
					a.CreatedAt.Local().Format("2006-01-02 15:04"), a.Step, a.Neurons, a.Synapses,
					formatBytes(a.Size), filepath.Base(a.Path))
			}
			fmt.Fprintf(w, "Total: %d checkpoints, %s\n", len(archives), formatBytes(totalSize))
			return nil
		},
	}
}

func newCheckpointVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify checkpoint integrity",
		Long: `Verify a checkpoint archive by checking its SHA-256 checksum.

Examples:
  psyche checkpoint verify out/step-000000000100.psyche.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			verr := backup.VerifyChecksum(args[0])
			if jsonOut {
				out := map[string]any{"path": args[0], "valid": verr == nil}
				if verr != nil {
					out["error"] = verr.Error()
				}
				if err := printJSON(cmd, out); err != nil {
					return err
				}
				return verr
			}
			if verr != nil {
				return fmt.Errorf("verification failed: %w", verr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: checksum OK\n", args[0])
			return nil
		},
	}
}

func newCheckpointPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune <dir>",
		Short: "Delete checkpoints outside the retention limits",
		Example: `  psyche checkpoint prune out/ --keep 5
  psyche checkpoint prune out/ --max-age 7d --max-size 1GB`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := retentionPolicy(cmd, "")
			if err != nil {
				return err
			}
			if policy == nil {
				return fmt.Errorf("set at least one of --keep, --max-age or --max-size")
			}
			deleted, err := backup.ApplyRetention(args[0], policy)
			if err != nil {
				return err
			}
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				if deleted == nil {
					deleted = []string{}
				}
				return printJSON(cmd, map[string]any{"deleted": deleted})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d checkpoint(s)\n", len(deleted))
			return nil
		},
	}
	addRetentionFlags(cmd, "")
	return cmd
}

// addRetentionFlags registers keep, max-age and max-size with a prefix.
func addRetentionFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().Int(prefix+"keep", 0, "Keep at most this many checkpoints (0 = no limit)")
	cmd.Flags().String(prefix+"max-age", "", "Delete checkpoints older than this (e.g. 12h, 7d, 2w)")
	cmd.Flags().String(prefix+"max-size", "", "Keep the newest checkpoints within this total size (e.g. 500MB)")
}

// retentionPolicy combines the retention flags. Nil means keep everything.
func retentionPolicy(cmd *cobra.Command, prefix string) (backup.RetentionPolicy, error) {
	var policies []backup.RetentionPolicy
	if keep, _ := cmd.Flags().GetInt(prefix + "keep"); keep > 0 {
		policies = append(policies, &backup.CountPolicy{MaxCount: keep})
	}
	if s, _ := cmd.Flags().GetString(prefix + "max-age"); s != "" {
		d, err := backup.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("--%smax-age: %w", prefix, err)
		}
		policies = append(policies, &backup.AgePolicy{MaxAge: d})
	}
	if s, _ := cmd.Flags().GetString(prefix + "max-size"); s != "" {
		n, err := backup.ParseSize(s)
		if err != nil {
			return nil, fmt.Errorf("--%smax-size: %w", prefix, err)
		}
		policies = append(policies, &backup.SizePolicy{MaxTotalBytes: n})
	}
	switch len(policies) {
	case 0:
		return nil, nil
	case 1:
		return policies[0], nil
	default:
		return &backup.CompositePolicy{Policies: policies}, nil
	}
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1fGB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1fMB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.1fKB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%dB", b)
	}
}
