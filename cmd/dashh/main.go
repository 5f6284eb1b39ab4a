package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/templui/dashh/internal/logger"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:                 "dashh",
		Usage:                "Personal file storage with offline fallback",
		Version:              version,
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Usage:   "Account email",
				EnvVars: []string{"DASHH_EMAIL"},
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Account password (prompted when omitted)",
				EnvVars: []string{"DASHH_PASSWORD"},
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account and its profile",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name (defaults to the email's local part)",
					},
				},
				Action: withApp(register),
			},
			{
				Name:      "upload",
				Usage:     "Upload one or more files",
				ArgsUsage: "<path>...",
				Action:    withSession(upload),
			},
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List your files, newest first",
				Action:  withSession(list),
			},
			{
				Name:      "search",
				Usage:     "List files whose name, type, description or tags match",
				ArgsUsage: "<query>",
				Action:    withSession(search),
			},
			{
				Name:      "preview",
				Usage:     "Describe a file and show the start of text files",
				ArgsUsage: "<file-id>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "lines",
						Usage: "Number of text lines to show",
						Value: 20,
					},
				},
				Action: withSession(preview),
			},
			{
				Name:      "download",
				Usage:     "Write a file's content to disk",
				ArgsUsage: "<file-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output path (defaults to the file name)",
					},
				},
				Action: withSession(download),
			},
			{
				Name:      "rm",
				Aliases:   []string{"delete"},
				Usage:     "Delete a file",
				ArgsUsage: "<file-id>",
				Action:    withSession(remove),
			},
			{
				Name:   "stats",
				Usage:  "Show file count, storage used and today's uploads",
				Action: withSession(showStats),
			},
			{
				Name:   "profile",
				Usage:  "Show your profile",
				Action: withSession(showProfile),
				Subcommands: []*cli.Command{
					{
						Name:  "update",
						Usage: "Change profile fields",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Usage: "Display name"},
							&cli.StringFlag{Name: "first-name", Usage: "First name"},
							&cli.StringFlag{Name: "last-name", Usage: "Last name"},
						},
						Action: withSession(updateProfile),
					},
				},
			},
			{
				Name:   "reconcile",
				Usage:  "Recompute the stored file counters from your files",
				Action: withSession(reconcile),
			},
			{
				Name:   "export",
				Usage:  "Copy all files to the configured S3 bucket",
				Action: withSession(export),
			},
			{
				Name:  "clear-local",
				Usage: "Remove the offline copy kept on this device",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Recreate the local store, dropping every account's offline copy (no login needed)",
					},
				},
				Action: clearLocal,
			},
		},
	}

	err := app.Run(os.Args)
	logger.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
