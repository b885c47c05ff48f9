package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/m3rciful/quizbot/bot/app"
	botconfig "github.com/m3rciful/quizbot/bot/config"
	"github.com/m3rciful/quizbot/bot/journal"
	"github.com/m3rciful/quizbot/core/bootstrap"
	"github.com/m3rciful/quizbot/core/buildinfo"
	"github.com/m3rciful/quizbot/core/cmd"
	coreconfig "github.com/m3rciful/quizbot/core/config"
	"github.com/m3rciful/quizbot/migrations"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "quizbot",
		Short:        "Telegram quiz bot",
		Version:      fmt.Sprintf("%s (%s, %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (or set CONFIG_PATH)")

	serve := serveCmd(&configPath)
	root.AddCommand(serve, checkCmd(&configPath), runsCmd(&configPath))

	// "serve" is the default when no subcommand is given.
	root.RunE = serve.RunE
	return root
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		RunE: func(*cobra.Command, []string) error {
			return cmd.Run(cmd.Options{
				ConfigPath:        *configPath,
				DefaultConfigPath: defaultConfigPath,
				LoadConfig:        app.LoadConfig,
				Bootstrap:         app.Bootstrap,
			})
		},
	}
}

func checkCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the config, the question bank and every asset",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			report, err := app.Check(cfg)
			if encErr := printJSON(c, report); encErr != nil {
				return encErr
			}
			return err
		},
	}
}

func runsCmd(configPath *string) *cobra.Command {
	var (
		chatID int64
		limit  int
	)
	c := &cobra.Command{
		Use:   "runs",
		Short: "Print journal entries of a chat as JSON",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return fmt.Errorf("runs: no database configured")
			}
			infra, err := bootstrap.Run(bootstrap.Options{
				Config:     &cfg.Config,
				Database:   cfg.Database,
				Migrations: migrations.FS,
				LoggerInit: func(*coreconfig.Config) error { return nil },
			})
			if err != nil {
				return err
			}
			defer infra.Close()

			runs, err := journal.New(infra.DB).History(context.Background(), chatID, limit)
			if err != nil {
				return err
			}
			if runs == nil {
				runs = []journal.Run{}
			}
			return printJSON(c, runs)
		},
	}
	c.Flags().Int64Var(&chatID, "chat", 0, "Telegram chat id (required)")
	c.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs, newest first")
	_ = c.MarkFlagRequired("chat")
	return c
}

func loadConfig(explicit string) (*botconfig.Config, error) {
	path, err := cmd.ResolveConfigPath(explicit, cmd.DefaultConfigEnvVar, defaultConfigPath)
	if err != nil {
		return nil, err
	}
	return botconfig.Load(path)
}

func printJSON(c *cobra.Command, v any) error {
	enc := json.NewEncoder(c.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
