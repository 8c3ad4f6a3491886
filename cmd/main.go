package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"linkgist/internal/bot"
	"linkgist/internal/config"
	"linkgist/internal/domain"
	"linkgist/internal/loader"
	"linkgist/internal/pipeline"
	"linkgist/internal/present"
	"linkgist/internal/scheduler"
	"linkgist/internal/server"
	"linkgist/internal/summarizer"

	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 30 * time.Second

func main() {
	app := &cli.App{
		Name:  "linkgist",
		Usage: "English summaries of YouTube videos and web pages",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the web form, the JSON API and the optional Telegram bot",
				Action: serve,
			},
			{
				Name:  "summarize",
				Usage: "summarize one URL and print the result",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Aliases:  []string{"u"},
						Usage:    "YouTube video or website `URL`",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "api-key",
						Usage:   "model API `KEY`",
						EnvVars: []string{"LLM_API_KEY"},
					},
					&cli.BoolFlag{
						Name:  "insecure",
						Usage: "skip TLS certificate verification when fetching websites",
					},
				},
				Action: summarize,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	start := time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		return cli.Exit(fmt.Sprintf("load config: %v", err), 1)
	}

	log := newLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipe, cache := buildPipeline(ctx, cfg, log)

	srv, err := server.New(server.Config{
		Addr:         cfg.HTTPAddr,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}, pipe, log)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	if cache != nil {
		sched := scheduler.New(ctx, cache, log)
		if err = sched.Start(); err != nil {
			log.ErrorContext(ctx, "Failed to start scheduler",
				"error", err,
				"spec", scheduler.CacheJanitorSpec)
		} else {
			defer sched.Stop()
			log.InfoContext(ctx, "Scheduler is started",
				"spec", scheduler.CacheJanitorSpec,
				"timezone", scheduler.Timezone)
		}
	}

	botInst := startBot(ctx, cfg, pipe, log)
	if botInst != nil {
		defer botInst.Stop()
	}

	select {
	case <-ctx.Done():
		log.InfoContext(ctx, "Shutdown signal is received")
	case err = <-serverErr:
		if err != nil {
			log.ErrorContext(ctx, "Server is stopped unexpectedly",
				"error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(shutdownCtx, "Failed to shut down server",
			"error", err)
	}

	log.InfoContext(shutdownCtx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	return nil
}

func startBot(ctx context.Context, cfg config.Config, pipe *pipeline.Pipeline, log *slog.Logger) *bot.Bot {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		log.InfoContext(ctx, "TOKEN is missing so the bot is disabled",
			"envVar", "TOKEN")
		return nil
	}

	if strings.TrimSpace(cfg.LLMAPIKey) == "" {
		log.WarnContext(ctx, "LLM_API_KEY is missing so the bot is disabled",
			"envVar", "LLM_API_KEY")
		return nil
	}

	botInst, err := bot.New(token, pipe, bot.Options{
		Credential:     cfg.LLMAPIKey,
		AllowedUsers:   cfg.AllowedUsers,
		TypingInterval: cfg.BotTypingInterval,
	}, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))
		return nil
	}

	go botInst.Start(ctx)
	log.InfoContext(ctx, "Bot is started",
		"updateTimeoutSeconds", bot.BotUpdateTimeout,
		"allowedUsersCount", len(cfg.AllowedUsers))

	return botInst
}

func summarize(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cli.Exit(fmt.Sprintf("load config: %v", err), 1)
	}

	if c.Bool("insecure") {
		cfg.InsecureSkipVerify = true
	}

	// Logs go to stderr so that stdout carries the summary only.
	log := newLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(log)

	pipe, _ := buildPipeline(c.Context, cfg, log)

	credential := c.String("api-key")
	result, runErr := pipe.Run(c.Context, domain.Request{
		Credential: credential,
		URL:        c.String("url"),
	})

	view := present.Present(result, runErr, credential)
	if !view.OK {
		return cli.Exit(view.Message, 1)
	}

	return writeView(c.App.Writer, view)
}

func buildPipeline(ctx context.Context, cfg config.Config, log *slog.Logger) (*pipeline.Pipeline, *summarizer.Cache) {
	if cfg.InsecureSkipVerify {
		log.WarnContext(ctx, "TLS certificate verification is disabled for website fetches",
			"envVar", "INSECURE_SKIP_VERIFY")
	}

	detector := loader.NewLinguaDetector()

	web := loader.NewWebLoader(loader.NewHTTPClient(cfg.FetchTimeout, cfg.InsecureSkipVerify), detector, log)
	video := loader.NewVideoLoader(loader.NewHTTPClient(cfg.FetchTimeout, false), cfg.YouTubeWatchURL, detector, log)

	cache := summarizer.NewCache(cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	engine := summarizer.NewEngine(summarizer.Config{
		ChunkSize:      cfg.ChunkSize,
		ChunkOverlap:   cfg.ChunkOverlap,
		CombineMaxSize: cfg.CombineMaxSize,
		MapParallelism: cfg.MapParallelism,
	}, cache, log)

	opts := summarizer.OpenAIOptions{
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		Timeout: cfg.ModelTimeout,
	}

	newModel := func(credential string) summarizer.Completer {
		return summarizer.NewOpenAICompleter(credential, opts)
	}

	return pipeline.New(video, web, engine, newModel, log), cache
}

func writeView(w io.Writer, view present.View) error {
	var sb strings.Builder
	sb.WriteString(view.Message)
	sb.WriteString("\n\n")
	sb.WriteString(view.Summary)
	sb.WriteString("\n")

	var meta []string
	if view.Language != "" {
		meta = append(meta, "source language: "+view.Language)
	}
	if view.Documents > 1 {
		meta = append(meta, fmt.Sprintf("%d items", view.Documents))
	}
	if view.Chunks > 0 {
		meta = append(meta, fmt.Sprintf("%d chunks", view.Chunks))
	}
	if view.Cached {
		meta = append(meta, "cached")
	}

	if len(meta) > 0 {
		sb.WriteString("\n(")
		sb.WriteString(strings.Join(meta, ", "))
		sb.WriteString(")\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
