package main

import (
	"fmt"

	"github.com/nvandessel/psyche/internal/config"
	"github.com/nvandessel/psyche/internal/mcp"
	"github.com/nvandessel/psyche/internal/store"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Serve brains to MCP clients over stdio.

Clients build brains with brain_build and address them by the returned
handle. Each brain is locked independently, so calls on different brains
run concurrently. Tool calls are appended to ~/.psyche/audit.jsonl.

Example client configuration:

  {
    "mcpServers": {
      "psyche": {
        "command": "psyche",
        "args": ["serve"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			noStore, _ := cmd.Flags().GetBool("no-store")
			noAudit, _ := cmd.Flags().GetBool("no-audit")
			// stdout carries the protocol
			logger := newLogger(cmd, cfg)

			var snapshots store.SnapshotStore
			if !noStore {
				snapshots, err = openStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer snapshots.Close()
			}
			auditDir := config.DefaultDir()
			if noAudit {
				auditDir = ""
			}

			srv, err := mcp.NewServer(&mcp.Config{
				Name:      "psyche",
				Version:   version,
				Builder:   cfg.Builder,
				MaxBrains: cfg.Server.MaxBrains,
				RateLimit: cfg.Server.RateLimit,
				Burst:     cfg.Server.Burst,
				Store:     snapshots,
				AuditDir:  auditDir,
				Logger:    logger,
			})
			if err != nil {
				return fmt.Errorf("create MCP server: %w", err)
			}
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().Bool("no-store", false, "Disable brain_save and brain_load")
	cmd.Flags().Bool("no-audit", false, "Do not write the audit log")
	return cmd
}
