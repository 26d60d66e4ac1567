// Package cli wires configuration, adapters, and the orchestrator behind a
// single command: answer one question from the arguments, or run an
// interactive read loop.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llamapanel/internal/config"
	"llamapanel/internal/logger"
	"llamapanel/pkg/inference"
	"llamapanel/pkg/orchestrator"
	"llamapanel/pkg/panel"
	"llamapanel/pkg/retrieval"
)

const version = "0.1.0"

var (
	cfgFile    string
	logLevel   string
	expertFlag string
	panelFlags []string
	maxSteps   int
	verbose    bool
	thinking   bool
	writeConvo bool
)

var rootCmd = &cobra.Command{
	Use:   "llamapanel [question]",
	Short: "Consensus answers from an expert model and its panel of peers",
	Long: `Llamapanel coordinates an expert model that can search the web, read
webpages, and consult a panel of peer models to produce a single
consensus-based answer. With a question argument it runs one session;
without one it starts an interactive chat.`,
	Version:       version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	RunE:          run,
}

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.llamapanel/llamapanel.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.Flags().StringVar(&expertFlag, "expert", "mistral-small3.2:0.0", "expert model as 'model:temperature'")
	rootCmd.Flags().StringArrayVar(&panelFlags, "panel", nil, "panel model as 'model:temperature' (repeatable)")
	rootCmd.Flags().IntVar(&maxSteps, "max-steps", 20, "maximum reasoning steps per question")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "surface the expert's thinking trace in the diagnostics")
	rootCmd.Flags().BoolVar(&thinking, "thinking", false, "request a thinking trace from the expert model if supported")
	rootCmd.Flags().BoolVar(&writeConvo, "write-convo", false, "write the conversation history to a file after a final answer")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

func run(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)

	cfg, err := loadConfig(cmd, loader)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Pretty: true})

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	system, err := buildSystem(cfg, log)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return runSession(ctx, system, args[0])
	}

	return runInteractive(ctx, cmd, loader, system, log)
}

// runSession runs one question to completion. An interrupt that lands while
// the session is in flight terminates gracefully, like one that arrives at
// the prompt; only genuine backend failures surface as errors.
func runSession(ctx context.Context, system *orchestrator.Orchestrator, question string) error {
	if _, err := system.Run(ctx, question); err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// loadConfig merges the config file with any flags the user set explicitly.
func loadConfig(cmd *cobra.Command, loader *config.Loader) (*config.Config, error) {
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("expert") {
		spec, err := config.ParseModelSpec(expertFlag)
		if err != nil {
			return nil, err
		}
		cfg.Expert = spec
	}
	if flags.Changed("panel") {
		specs, err := config.ParseModelSpecs(panelFlags)
		if err != nil {
			return nil, err
		}
		cfg.Panel = specs
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("thinking") {
		cfg.Thinking = thinking
	}
	if flags.Changed("write-convo") {
		cfg.WriteConvo = writeConvo
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}

	return cfg, nil
}

// buildSystem constructs the full adapter stack and orchestrator for one
// configuration. Every panel member gets its own injected client handle.
func buildSystem(cfg *config.Config, log zerolog.Logger) (*orchestrator.Orchestrator, error) {
	factory := inference.NewFactory(inference.FactoryConfig{
		OllamaHost:      cfg.Backends.OllamaHost,
		OpenAIAPIKey:    cfg.Backends.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.Backends.OpenAIBaseURL,
		AnthropicAPIKey: cfg.Backends.AnthropicAPIKey,
	})

	expertClient, expertModel, err := factory.NewClient(cfg.Expert.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create expert client: %w", err)
	}

	members := make([]panel.Member, 0, len(cfg.Panel))
	for _, spec := range cfg.Panel {
		client, model, err := factory.NewClient(spec.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create panel client for %s: %w", spec.Model, err)
		}
		members = append(members, panel.Member{
			Model:       model,
			Temperature: spec.Temperature,
			Client:      client,
		})
	}

	coordinator, err := panel.NewCoordinator(members, log)
	if err != nil {
		return nil, err
	}

	searcher := retrieval.NewSearcher(retrieval.SearcherOptions{
		ExcludedDomains: cfg.Search.ExcludedDomains,
		Logger:          log,
	})
	fetcher := retrieval.NewFetcher(retrieval.FetcherOptions{Logger: log})

	dispatcher, err := orchestrator.NewDispatcher(orchestrator.DispatcherConfig{
		Panel:       coordinator,
		Searcher:    searcher,
		Fetcher:     fetcher,
		ResultCount: cfg.Search.ResultCount,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("expert", cfg.Expert.String()).
		Int("panel_size", len(members)).
		Msg("Expert panel initialized")
	for _, member := range members {
		log.Info().
			Str("model", member.Model).
			Float64("temperature", member.Temperature).
			Msg("Panel member registered")
	}

	return orchestrator.New(expertClient, dispatcher, orchestrator.Config{
		ExpertModel:       expertModel,
		ExpertTemperature: cfg.Expert.Temperature,
		MaxSteps:          cfg.MaxSteps,
		Thinking:          cfg.Thinking,
		Verbose:           cfg.Verbose,
		WriteTranscript:   cfg.WriteConvo,
		TranscriptDir:     cfg.TranscriptDir,
		Logger:            log,
	})
}

// runInteractive reads questions from stdin until exit/quit, EOF, or an
// interrupt. Config file edits are picked up between questions.
func runInteractive(ctx context.Context, cmd *cobra.Command, loader *config.Loader, system *orchestrator.Orchestrator, log zerolog.Logger) error {
	configPath, err := loader.Path()
	if err != nil {
		return err
	}
	reloadCh := config.Watch(ctx, log, configPath)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(os.Stderr, "Welcome to Llama Panel interactive chat. Type 'exit' or 'quit' to leave.")

	for {
		fmt.Fprint(os.Stderr, "\nYou: ")

		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "\nGoodbye!")
			return nil

		case <-reloadCh:
			cfg, err := loadConfig(cmd, loader)
			if err != nil {
				log.Error().Err(err).Msg("Failed to reload config, keeping the current one")
				continue
			}
			if err := cfg.Validate(); err != nil {
				log.Error().Err(err).Msg("Reloaded config is invalid, keeping the current one")
				continue
			}
			rebuilt, err := buildSystem(cfg, log)
			if err != nil {
				log.Error().Err(err).Msg("Failed to rebuild from reloaded config, keeping the current one")
				continue
			}
			system = rebuilt
			log.Info().Msg("Configuration reloaded")

		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(os.Stderr, "Goodbye!")
				return nil
			}
			question := strings.TrimSpace(line)
			if question == "" {
				continue
			}
			if lower := strings.ToLower(question); lower == "exit" || lower == "quit" {
				fmt.Fprintln(os.Stderr, "Goodbye!")
				return nil
			}
			if err := runSession(ctx, system, question); err != nil {
				return err
			}
		}
	}
}
