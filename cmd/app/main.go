package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/montage/internal"
	pkgconfig "github.com/starford/montage/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	load := pkgconfig.Load[internal.Config]
	if !cmd.IsSet("config") {
		// Defaults apply when no config file was asked for and none exists.
		load = pkgconfig.LoadOptional[internal.Config]
	}

	cfg := internal.NewDefaultConfig()
	if err := load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	if err := internal.RunMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}

	return nil
}

func convert(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("draft path is required")
	}

	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	project, report, err := internal.Convert(ctx, path, opts...)
	if err != nil {
		return err
	}

	for _, name := range report.Missing {
		fmt.Fprintf(os.Stderr, "missing media: %s\n", name)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(project)
}

func exportEDL(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("draft path is required")
	}

	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	edl, err := internal.ConvertEDL(ctx, path, cmd.String("title"), cmd.Float("fps"), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(os.Stdout, edl)
	return err
}

func main() {
	cmd := &cli.Command{
		Name:   "montage",
		Usage:  "Timeline video editor backend with a media library, live preview events and MCP tools",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve editing tools over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:      "import",
				Usage:     "Normalize a CapCut draft and print the project as JSON",
				ArgsUsage: "<draft.json>",
				Action:    convert,
			},
			{
				Name:      "edl",
				Usage:     "Convert a CapCut draft to a CMX 3600 EDL",
				ArgsUsage: "<draft.json>",
				Action:    exportEDL,
				Flags: []cli.Flag{
					&cli.FloatFlag{
						Name:  "fps",
						Usage: "Timecode frame rate",
						Value: 30,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "EDL title",
						Value: "montage",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
