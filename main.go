package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/config"
)

func main() {
	app := &cli.App{
		Name:  "minishop-marketplace",
		Usage: "marketplace service with reputation and sales analytics",
		Flags: config.Flags(),
		Commands: []*cli.Command{
			serveCmd,
			analyticsCmd,
		},
		DefaultCommand: serveCmd.Name,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
