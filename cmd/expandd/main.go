// expandd - keystroke-triggered text expansion daemon
//
//	expandd run        Run the expansion daemon
//	expandd list       List loaded snippets and their triggers
//	expandd check      Validate snippet bundle files
//	expandd version    Print version information
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"expandd/internal/config"
	"expandd/internal/expand"
	"expandd/internal/history"
	"expandd/internal/hook"
	"expandd/internal/injector"
	"expandd/internal/logging"
	"expandd/internal/snippet"
	"expandd/internal/watcher"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		cmdRun()
	case "list":
		cmdList()
	case "check":
		cmdCheck()
	case "version":
		fmt.Printf("expandd %s\n", version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`expandd - keystroke-triggered text expansion

USAGE:
    expandd <command> [options]

COMMANDS:
    run                 Run the expansion daemon
    list                List loaded snippets and their triggers
    check <file>...     Validate snippet bundle files
    version             Print version information
    help                Show this help message

SNIPPET BUNDLES:
    Snippets live in markdown files, one snippet per H2 header. The
    trigger is declared with an HTML comment and the replacement is the
    first fenced code block:

        ## Signature
        <!-- expand: :sig -->
        ` + "```paste" + `
        Best regards,
        Ada
        ` + "```" + `

    Bundles are loaded from the directories in the config file
    (default: ~/.expandd/snippets) and reloaded automatically on edit.

CONFIGURATION:
    expandd reads ` + "~/.expandd/config.toml" + ` by default; pass
    -config to use another file (.toml, .yaml, or .json).

PERMISSIONS:
    Reading keystrokes requires access to /dev/input on Linux (add
    yourself to the 'input' group) and an installed xdotool or wtype
    for injection.`)
}

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".expandd", "config.toml")
}

// setupLogging installs the global logger from the loaded config.
func setupLogging(cfg *config.Config) *logging.Logger {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log format: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		Component: "expandd",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(log)
	return log
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func cmdRun() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath(), "Configuration file")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(*configPath)
	log := setupLogging(cfg)
	defer log.Close()

	log.Info("starting expandd", "version", version)

	inj, err := injector.NewExec()
	if err != nil {
		fmt.Fprintln(os.Stderr, "No text injection backend found.")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "On Linux: install xdotool or wtype")
		fmt.Fprintln(os.Stderr, "On macOS: osascript should be present by default")
		os.Exit(1)
	}

	engineCfg := expand.Config{
		MaxBufferSize: cfg.Engine.MaxBufferSize,
		SettleDelay:   time.Duration(cfg.Engine.SettleDelayMs) * time.Millisecond,
		PasteDelay:    time.Duration(cfg.Engine.PasteDelayMs) * time.Millisecond,
	}

	var opts []expand.Option
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			// The daemon is still useful without its log.
			log.Warn("expansion history disabled", "error", err)
		} else {
			defer store.Close()
			opts = append(opts, expand.WithHistory(store))
		}
	}

	engine := expand.New(engineCfg, hook.New(), inj, opts...)

	count, err := engine.LoadFromSources(snippet.NewDirSource(cfg.Snippets.Dirs...))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading snippets: %v\n", err)
		os.Exit(1)
	}
	log.Info("snippets loaded", "triggers", count, "dirs", len(cfg.Snippets.Dirs))

	if cfg.Snippets.Watch {
		debounce := time.Duration(cfg.Snippets.DebounceMs) * time.Millisecond
		w, err := watcher.New(cfg.Snippets.Dirs, debounce, engine)
		if err != nil {
			log.Warn("snippet reload disabled", "error", err)
		} else {
			if err := w.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error watching snippet directories: %v\n", err)
				os.Exit(1)
			}
			defer w.Stop()
		}
	}

	if err := engine.Enable(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting keyboard hook: %v\n", err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "On Linux: add yourself to the 'input' group or run as root")
		fmt.Fprintln(os.Stderr, "On macOS: grant Accessibility permission in System Settings")
		os.Exit(1)
	}
	defer engine.Disable()

	fmt.Printf("expandd running with %d triggers. Press Ctrl+C to stop.\n", engine.TriggerCount())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down")
}

func cmdList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath(), "Configuration file")
	showHistory := fs.Bool("history", false, "Show per-trigger usage counts and recent expansions")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(*configPath)
	setupLogging(cfg)

	engine := expand.New(expand.Config{MaxBufferSize: cfg.Engine.MaxBufferSize},
		hook.NewSimulated(), injector.NewMemory())

	count, err := engine.LoadFromSources(snippet.NewDirSource(cfg.Snippets.Dirs...))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading snippets: %v\n", err)
		os.Exit(1)
	}

	if count == 0 {
		fmt.Println("No snippets with triggers found.")
		fmt.Printf("Searched: %v\n", cfg.Snippets.Dirs)
		return
	}

	var counts map[string]int
	if *showHistory && cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening history: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		counts, err = store.CountByTrigger()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
			os.Exit(1)
		}

		recent, err := store.Recent(10)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
			os.Exit(1)
		}
		if len(recent) > 0 {
			fmt.Println("Recent expansions:")
			for _, e := range recent {
				fmt.Printf("  %s  %-16s %s\n",
					e.Timestamp.Format("2006-01-02 15:04:05"), e.Trigger, e.Outcome)
			}
			fmt.Println()
		}
	}

	fmt.Printf("%d triggers loaded:\n\n", count)
	for _, c := range engine.List() {
		fmt.Printf("  %-16s %s", c.Trigger, c.Name)
		if n := counts[c.Trigger]; n > 0 {
			fmt.Printf("  [%d uses]", n)
		}
		if c.Source.File != "" {
			fmt.Printf("  (%s)", c.Source.File)
		}
		fmt.Println()
	}
}

func cmdCheck() {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: expandd check <file.md>...")
		os.Exit(1)
	}

	failed := false
	for _, path := range fs.Args() {
		result, err := snippet.ParseFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
			continue
		}

		triggers := 0
		var dup []string
		seen := make(map[string]string)
		for _, s := range result.Snippets {
			if s.Trigger == "" {
				continue
			}
			triggers++
			if prev, ok := seen[s.Trigger]; ok {
				dup = append(dup, fmt.Sprintf("trigger %q defined by both %q and %q", s.Trigger, prev, s.Name))
			}
			seen[s.Trigger] = s.Name
		}

		fmt.Printf("%s: %d snippets, %d triggers\n", path, len(result.Snippets), triggers)
		sort.Strings(dup)
		for _, d := range dup {
			fmt.Printf("  warning: %s\n", d)
		}
		for _, perr := range result.Errors {
			fmt.Printf("  error: %s\n", perr.Error())
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}
