// Package app assembles the quiz bot from its configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/quizbot/bot/assets"
	botconfig "github.com/m3rciful/quizbot/bot/config"
	"github.com/m3rciful/quizbot/bot/handlers"
	"github.com/m3rciful/quizbot/bot/i18n"
	"github.com/m3rciful/quizbot/bot/journal"
	"github.com/m3rciful/quizbot/bot/quiz"
	"github.com/m3rciful/quizbot/core/bootstrap"
	"github.com/m3rciful/quizbot/core/cmd"
	"github.com/m3rciful/quizbot/core/health"
	"github.com/m3rciful/quizbot/core/logger"
	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/migrations"
)

// App is a bootstrapped quiz bot.
type App struct {
	cfg      *botconfig.Config
	infra    *bootstrap.Result
	store    *quiz.Store
	handlers *handlers.Handlers
	health   *health.Server
}

// LoadConfig adapts botconfig.Load to the runner.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	cfg, err := botconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap initializes logging and storage, loads the bank and wires the handlers.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*botconfig.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return New(cfg, bootstrap.Options{})
}

// New builds the app. Zero fields of infra are filled from cfg.
func New(cfg *botconfig.Config, opts bootstrap.Options) (*App, error) {
	opts.Config = &cfg.Config
	opts.Database = cfg.Database
	if opts.Migrations == nil {
		opts.Migrations = migrations.FS
	}
	infra, err := bootstrap.Run(opts)
	if err != nil {
		return nil, err
	}

	a, err := assemble(cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return a, nil
}

func assemble(cfg *botconfig.Config, infra *bootstrap.Result) (*App, error) {
	if err := i18n.Init(cfg.Quiz.Lang); err != nil {
		return nil, err
	}
	bank, err := quiz.LoadBank(cfg.Quiz.BankPath)
	if err != nil {
		return nil, err
	}
	total, err := cfg.RunLength(bank.Len())
	if err != nil {
		return nil, err
	}
	catalog, err := assets.NewCatalog(cfg.Resources, cfg.Dir)
	if err != nil {
		return nil, err
	}

	store := quiz.NewStore(total)
	a := &App{
		cfg:   cfg,
		infra: infra,
		store: store,
		handlers: handlers.New(handlers.Deps{
			Machine:        quiz.NewMachine(bank, store, total),
			Catalog:        catalog,
			Journal:        journal.New(infra.DB),
			AnswerKeyboard: cfg.Quiz.AnswerKeyboard,
		}),
		health: health.New(),
	}
	if infra.DB != nil {
		a.health.AddCheck("db", infra.DB.PingContext)
	}

	logger.Info(logger.Background(), "quiz", "quiz.loaded",
		slog.Int("bank", bank.Len()),
		slog.Int("total", total),
		slog.Int("resources", len(catalog.Entries())),
		slog.String("lang", cfg.Quiz.Lang),
		slog.Bool("journal", infra.DB != nil),
	)
	return a, nil
}

// TelegramRunOptions returns the bot runtime options.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	a.handlers.Register(reg)

	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, a.handlers.RateLimited),
		Routes:      a.handlers.Routes(reg),
		OnStart: func(context.Context, tg.Runtime) error {
			a.health.MarkReady(true)
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			a.health.MarkReady(false)
			logger.Info(ctx, "quiz", "quiz.sessions", slog.Int("chats", a.store.Len()))
			return nil
		},
	}, nil
}

// Services returns the probe server when health.listen is set.
func (a *App) Services() []cmd.Service {
	if a.cfg.Health.Listen == "" {
		return nil
	}
	return []cmd.Service{{
		Name: "health",
		Run: func(ctx context.Context) error {
			return a.health.Serve(ctx, a.cfg.Health.Listen)
		},
	}}
}

// Close releases the database.
func (a *App) Close() error {
	return a.infra.Close()
}
