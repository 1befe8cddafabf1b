package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/zenworld/internal/version"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("zenworld %s\n", version.String())
			info := version.Resolve()
			if info.Commit != "" {
				fmt.Printf("  commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Printf("  build time: %s\n", info.BuildTime)
			}
			return nil
		},
	}
}
