package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voicetask/internal/audio"
	"voicetask/internal/bot"
	"voicetask/internal/config"
	"voicetask/internal/hub"
	"voicetask/internal/logging"
	"voicetask/internal/todoist"
	"voicetask/internal/transcribe"
	"voicetask/internal/version"
	"voicetask/internal/whisper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		verbose  bool
		jsonLogs bool
		envFile  string
	)

	cmd := &cobra.Command{
		Use:           "voicetask",
		Short:         "Telegram bot that transcribes voice messages and files them as Todoist tasks",
		Version:       version.Resolve(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: verbose, JSON: jsonLogs})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			return run(cfg, logger)
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logs")
	cmd.Flags().BoolVar(&jsonLogs, "json", false, "Enable JSON logging")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Env file to preload before reading the environment")

	return cmd
}

func run(cfg *config.Config, logger *zap.Logger) error {
	converter := audio.NewConverter(logger)
	if err := converter.Available(); err != nil {
		return err
	}

	engine := whisper.NewCTEngine(cfg.EngineBinary, cfg.Device, cfg.ComputeType, logger)
	if err := engine.Available(); err != nil {
		return err
	}

	store := &whisper.Store{
		Resolver: &whisper.Resolver{
			DefaultRepo: cfg.ModelRepo,
			DefaultDir:  cfg.ModelDir,
			ModelsRoot:  cfg.ModelsRoot,
		},
		Hub:    hub.NewClient(cfg.HubBaseURL, logger),
		Logger: logger,
	}
	cache := whisper.NewCache(store.Ensure, cfg.ModelCacheCap)

	service := transcribe.NewService(converter, cache, engine, cfg.Language, logger)
	worker := transcribe.NewWorker(service, 0, logger)
	defer worker.Close()

	client := todoist.NewClient(cfg.TodoistBaseURL, cfg.TodoistToken, logger)

	b, err := bot.New(bot.Deps{
		Token:            cfg.TelegramToken,
		Worker:           worker,
		Todoist:          client,
		Projects:         todoist.NewProjectCache(client, logger),
		Sessions:         bot.NewSessions(),
		DefaultProjectID: cfg.DefaultProjectID,
		ModelKey:         cfg.ModelKey,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	b.Start()
	return nil
}
