package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path"
	"sort"
	"strings"
	"syscall"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mixpilot/mixer-downloader/internal/config"
	"github.com/mixpilot/mixer-downloader/internal/download"
	"github.com/mixpilot/mixer-downloader/internal/model"
)

func main() {
	// Command line flags
	var (
		urlFlag        = flag.String("url", "", "Mix page URL to download")
		nameFlag       = flag.String("name", "", "Mix name to search your purchased catalog for")
		listFlag       = flag.Bool("list", false, "List purchased mixes and exit")
		outputFlag     = flag.String("output", "", "Output directory (overrides config)")
		configFlag     = flag.String("config", "", "Path to config file")
		headfulFlag    = flag.Bool("headful", false, "Run the browser with a visible window")
		playlistFlag   = flag.Bool("playlist", false, "Create an M3U playlist for the mix")
		clickTrackFlag = flag.Bool("click-track", false, "Keep the click track audible in downloaded stems")
		verboseFlag    = flag.Bool("verbose", false, "Show verbose output")
	)

	flag.Parse()

	if *urlFlag == "" && *nameFlag == "" && flag.NArg() == 0 && !*listFlag {
		fmt.Println("Mixer Downloader - Download stems from your purchased mixes")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  mixer-dl -url <mix URL> [options]")
		fmt.Println("  mixer-dl -name <mix name> [options]")
		fmt.Println("  mixer-dl -list")
		fmt.Println()
		fmt.Println("For interactive mode, use: mixer-tui")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	configPath := config.DefaultPath()
	if *configFlag != "" {
		configPath = *configFlag
	}
	settings, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: using defaults, config unreadable: %v\n", err)
	}

	// Apply flags
	if *outputFlag != "" {
		settings.DownloadsPath = *outputFlag
	}
	if *playlistFlag {
		settings.CreatePlaylist = true
	}
	if *clickTrackFlag {
		settings.EnableClickTrack = true
	}
	if *headfulFlag {
		settings.Headless = false
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	// Create manager with progress callback
	manager := download.NewManager(settings, func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !*verboseFlag {
			return
		}

		prefix := "   "
		switch event.Level {
		case download.LevelError:
			prefix = "✗ "
		case download.LevelWarning:
			prefix = "! "
		case download.LevelSuccess:
			prefix = "✓ "
		case download.LevelInfo:
			prefix = "› "
		}

		fmt.Println(prefix + event.Message)
	})

	fmt.Println("🎚 Mixer Downloader")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	if err := manager.Initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	if *listFlag {
		entries, err := manager.FetchCatalog()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Println()
		for _, entry := range entries {
			fmt.Printf("  %s\n", entry.DisplayName)
		}
		return
	}

	mixURL, mixName, err := resolveTarget(manager, *urlFlag, *nameFlag, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	settings.LastURL = mixURL
	_ = settings.Save(configPath)

	fmt.Println()
	fmt.Printf("📥 Downloading %q\n", mixName)
	fmt.Println()

	if _, err := manager.DownloadMix(ctx, mixURL, mixName, stdinDecider()); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nDownload cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error during download: %v\n", err)
		os.Exit(1)
	}
}

// resolveTarget turns the flags into a concrete (URL, mix name) pair. A name
// is matched against the purchased catalog with fuzzy search.
func resolveTarget(manager *download.Manager, urlArg, nameArg string, args []string) (string, string, error) {
	if urlArg == "" && nameArg == "" && len(args) > 0 {
		if strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://") {
			urlArg = args[0]
		} else {
			nameArg = args[0]
		}
	}

	if urlArg != "" {
		name := nameArg
		if name == "" {
			name = mixNameFromURL(urlArg)
		}
		return urlArg, name, nil
	}

	entries, err := manager.FetchCatalog()
	if err != nil {
		return "", "", err
	}

	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.DisplayName
	}
	ranks := fuzzy.RankFindNormalizedFold(nameArg, names)
	if len(ranks) == 0 {
		return "", "", fmt.Errorf("no purchased mix matches %q", nameArg)
	}
	sort.Sort(ranks)
	entry := entries[ranks[0].OriginalIndex]

	return manager.ResolveMixURL(entry), entry.DisplayName, nil
}

// mixNameFromURL derives a readable mix name from a URL path, for direct
// -url downloads where the catalog is never consulted.
func mixNameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "Mix"
	}
	base := path.Base(u.Path)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.ReplaceAll(base, "-", " ")
	if name := model.SanitizeTrackName(base); name != "" {
		return name
	}
	return "Mix"
}

// stdinDecider prompts on the terminal for timed-out tracks.
func stdinDecider() download.Decider {
	reader := bufio.NewReader(os.Stdin)
	return download.DeciderFunc(func(trackName string, attempt int) download.Decision {
		for {
			fmt.Printf("Download of %q timed out (attempt %d). [r]etry / [s]kip? ", trackName, attempt)
			line, err := reader.ReadString('\n')
			if err != nil {
				return download.DecisionSkip
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "r", "retry", "":
				return download.DecisionRetry
			case "s", "skip":
				return download.DecisionSkip
			}
		}
	})
}
