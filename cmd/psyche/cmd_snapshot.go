package main

import (
	"fmt"
	"strings"

	"github.com/nvandessel/psyche/internal/codec"
	"github.com/nvandessel/psyche/internal/store"
	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage named brain snapshots",
		Long: `Save, load, list and delete brains in the snapshot store.

The store backend and path come from the "store" section of the config
(default: SQLite at ~/.psyche/psyche.db).`,
	}
	cmd.AddCommand(
		newSnapshotSaveCmd(),
		newSnapshotLoadCmd(),
		newSnapshotListCmd(),
		newSnapshotDeleteCmd(),
	)
	return cmd
}

func newSnapshotSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <name> <brain.yaml>",
		Short: "Store a brain file under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			strict, _ := cmd.Flags().GetBool("strict")
			tags, _ := cmd.Flags().GetStringSlice("tag")

			in, closeFn, err := openInput(cmd, args[1])
			if err != nil {
				return err
			}
			defer closeFn()
			b, _, err := codec.Decode(in, codec.DecodeOptions{Strict: strict, Logger: newLogger(cmd, cfg)})
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}

			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := store.SaveBrain(cmd.Context(), s, args[0], b, tags...); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return printJSON(cmd, map[string]any{
					"name":     args[0],
					"step":     b.Step(),
					"neurons":  b.NeuronCount(),
					"synapses": b.SynapseCount(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot %q (step %d, %d neurons, %d synapses)\n",
				args[0], b.Step(), b.NeuronCount(), b.SynapseCount())
			return nil
		},
	}
	cmd.Flags().Bool("strict", false, "Reject unknown keys and malformed entries instead of repairing them")
	cmd.Flags().StringSlice("tag", nil, "Tag the snapshot (repeatable)")
	return cmd
}

func newSnapshotLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Write a stored brain as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dropInFlight, _ := cmd.Flags().GetBool("drop-in-flight")
			out, _ := cmd.Flags().GetString("output")

			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			b, _, err := store.LoadBrain(cmd.Context(), s, args[0], codec.DecodeOptions{
				DropInFlight: dropInFlight,
				Logger:       newLogger(cmd, cfg),
			})
			if err != nil {
				return err
			}
			return writeBrain(cmd, b, out)
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().Bool("drop-in-flight", false, "Discard pending arrivals")
	return cmd
}

func newSnapshotListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			tag, _ := cmd.Flags().GetString("tag")

			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			records, err := s.List(cmd.Context(), tag)
			if err != nil {
				return fmt.Errorf("list snapshots: %w", err)
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return printJSON(cmd, map[string]any{
					"snapshots": records,
					"count":     len(records),
				})
			}
			w := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(w, "No snapshots stored.")
				return nil
			}
			fmt.Fprintf(w, "%d snapshot(s):\n\n", len(records))
			for _, rec := range records {
				fmt.Fprintf(w, "  %s  step %d, %d neurons, %d synapses  (updated %s)\n",
					rec.Name, rec.Step, rec.Neurons, rec.Synapses, rec.UpdatedAt.Local().Format("2006-01-02 15:04"))
				if len(rec.Tags) > 0 {
					fmt.Fprintf(w, "    tags: %s\n", strings.Join(rec.Tags, ", "))
				}
			}
			return nil
		},
	}
	cmd.Flags().String("tag", "", "Only list snapshots with this tag")
	return cmd
}

func newSnapshotDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return printJSON(cmd, map[string]any{"deleted": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted snapshot %q\n", args[0])
			return nil
		},
	}
}
