package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/applink/internal/app"
	"github.com/MrSnakeDoc/applink/internal/config"
	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/index"
	"github.com/MrSnakeDoc/applink/internal/logger"
	"github.com/MrSnakeDoc/applink/internal/navigation"
	"github.com/MrSnakeDoc/applink/internal/platform/host"
	"github.com/MrSnakeDoc/applink/internal/resolver"
	"github.com/MrSnakeDoc/applink/internal/sources/apps"
	"github.com/MrSnakeDoc/applink/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP resolve/navigate service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(config.LoadServer())
		if err != nil {
			return err
		}
		return a.Run()
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Resolve a URL and print its App Link as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := logger.New(cfg.LogLevel, cfg.PrettyLog)
		defer func() { _ = log.Sync() }()

		r, err := cliResolver(cfg, log)
		if err != nil {
			return err
		}

		link, err := r.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(link)
	},
}

var openCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "Resolve a URL and open it with a local app or the browser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := logger.New(cfg.LogLevel, cfg.PrettyLog)
		defer func() { _ = log.Sync() }()

		r, err := cliResolver(cfg, log)
		if err != nil {
			return err
		}

		registry, err := loadRegistry(cfg.AppsFile)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		nav := navigation.New(
			host.New(registry, host.WithLogger(log)),
			navigation.WithResolver(r),
			navigation.WithLogger(log),
		)
		outcome, err := nav.NavigateToURL(ctx, args[0])
		if err != nil {
			return err
		}

		switch outcome.Kind {
		case domain.OutcomeApp:
			fmt.Printf("✅ Opened in app: %s\n", outcome.Target.URL)
		case domain.OutcomeBrowser:
			fmt.Printf("🌐 Opened in browser: %s\n", outcome.Target.URL)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

// cliResolver picks the static link file when given, otherwise fetches
// pages with the configured settings. Flags override APPLINK_PLATFORMS;
// with neither set only targets for this machine are kept.
func cliResolver(cfg *config.Config, log logger.Logger) (resolver.Resolver, error) {
	if linkFile != "" {
		return resolver.LoadStaticResolver(linkFile)
	}

	prefs := cfg.Platforms
	if len(platforms) > 0 {
		prefs = platforms
	}
	if len(prefs) == 0 {
		prefs = resolver.RuntimePlatforms()
	}

	fetcher := resolver.NewHTTPFetcher(resolver.FetcherOptions{
		Timeout:       cfg.FetchTimeout,
		MaxBodyBytes:  cfg.FetchMaxBody,
		UserAgent:     cfg.FetchUserAgent,
		SkipTLSVerify: cfg.SkipTLSVerify,
	}, log)

	return resolver.NewHTTPResolver(
		resolver.WithFetcher(fetcher),
		resolver.WithPlatforms(prefs...),
		resolver.WithLogger(log),
	), nil
}

// loadRegistry builds the local app registry. Without an apps file only
// web targets can be opened.
func loadRegistry(appsFile string) (*index.MemoryIndex, error) {
	idx := index.NewMemoryIndex()
	if appsFile == "" {
		return idx, nil
	}

	appsConfig, err := apps.NewLoader(appsFile).Load()
	if err != nil {
		return nil, err
	}
	mapped, err := apps.NewMapper(host.DefaultPlatform()).MapApps(appsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to map apps: %w", err)
	}
	idx.UpdateApps(mapped)
	return idx, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
