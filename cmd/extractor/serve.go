package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/daniel/group-extractor/internal/browser"
	"github.com/daniel/group-extractor/internal/config"
	"github.com/daniel/group-extractor/internal/jobs"
	"github.com/daniel/group-extractor/internal/scraper"
	"github.com/daniel/group-extractor/internal/server"
)

var (
	servePort   int
	serveConfig string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the job, streaming and download endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config and PORT)")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to a JSON config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Defaults()
	if serveConfig != "" {
		loaded, err := config.Load(serveConfig)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded.MergeWithDefaults(cfg)
	}

	// Env and flag overlays: flags win, then env, then file, then defaults.
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if chrome := os.Getenv("CHROME_PATH"); chrome != "" {
		cfg.ChromePath = chrome
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	launcher := browser.NewChromeLauncher(browser.Options{
		ExecPath:   cfg.ChromePath,
		NavTimeout: cfg.NavTimeout(),
	})
	engine := scraper.NewEngine(launcher, scraper.Config{
		NavRetries:   cfg.NavRetries,
		NavBackoff:   cfg.NavBackoff(),
		ScrollSettle: cfg.ScrollSettle(),
		ExpandSettle: cfg.ExpandSettle(),
		MaxNumbers:   cfg.MaxNumbers,
	})

	store := jobs.NewStore(cfg.SweepInterval())
	manager := jobs.NewManager(store, engine.Run, cfg.Retention())

	return server.New(cfg, manager, store).Start()
}
