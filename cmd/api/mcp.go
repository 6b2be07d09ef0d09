package main

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"workshop/api/internal/mcptools"
)

func newMCPCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the workshop tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			// stdout carries the protocol; logs go to stderr.
			rt, err := bootstrap(ctx, *envFile, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			return server.ServeStdio(mcptools.NewServer(rt.service, Version))
		},
	}
}
