package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/zenworld/internal/logger"
	"github.com/samcharles93/zenworld/internal/world"
	"github.com/samcharles93/zenworld/pkg/zen"
)

func probeCmd() *cli.Command {
	var filePath string

	return &cli.Command{
		Name:  "probe",
		Usage: "Detect the encoding revision of a world archive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to world archive (.zen)",
				Destination: &filePath,
				Required:    true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			buf, err := zen.Open(filePath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open archive: %v", err), 1)
			}
			defer func() { _ = buf.Close() }()

			rev, err := world.NewParser(logger.FromContext(ctx)).DetectRevision(buf.Buffer)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: probe archive: %v", err), 1)
			}
			fmt.Println(rev)
			return nil
		},
	}
}
