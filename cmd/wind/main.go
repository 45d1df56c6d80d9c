package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/wind/internal/config"
	"github.com/1broseidon/wind/internal/daemon"
	"github.com/1broseidon/wind/internal/ipc"
	"github.com/1broseidon/wind/internal/platform"
	"github.com/1broseidon/wind/internal/runtimepath"
	"github.com/1broseidon/wind/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "tabs":
		os.Exit(runTabs(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "embed":
		os.Exit(runEmbed(os.Args[2:]))
	case "activate":
		os.Exit(runActivate(os.Args[2:]))
	case "close":
		os.Exit(runClose(os.Args[2:]))
	case "tile":
		os.Exit(runTile(os.Args[2:]))
	case "untile":
		os.Exit(runUntile(os.Args[2:]))
	case "cleanup":
		os.Exit(runCleanup(os.Args[2:]))
	case "session":
		os.Exit(runSession(os.Args[2:]))
	case "pick":
		os.Exit(runPick(os.Args[2:]))
	case "settings":
		os.Exit(runSettings(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wind <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the wind frame and daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tabs                List tabs")
	fmt.Fprintln(w, "  windows             List windows that can be embedded")
	fmt.Fprintln(w, "  embed <handle>      Embed a window as a new tab")
	fmt.Fprintln(w, "  activate <id>       Activate a tab")
	fmt.Fprintln(w, "  close <id>          Close a tab")
	fmt.Fprintln(w, "  tile [id...]        Tile tabs side by side")
	fmt.Fprintln(w, "  untile              Leave tile mode")
	fmt.Fprintln(w, "  cleanup             Drop tabs whose windows are gone")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  session save        Save the open tabs")
	fmt.Fprintln(w, "  session restore     Re-embed the saved tabs")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  pick                Pick a window to embed (TUI)")
	fmt.Fprintln(w, "  settings            Edit the configuration (TUI)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'wind <command> --help' for command-specific options.")
}

// parseFlags parses args and reports the exit code to use when parsing
// stopped the command.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func newFlagSet(name, usage, description string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: "+usage)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, description)
		hasFlags := false
		fs.VisitAll(func(*flag.Flag) { hasFlags = true })
		if hasFlags {
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
	}
	return fs
}

func runDaemon(args []string) int {
	fs := newFlagSet("daemon", "wind daemon [--path PATH]", "Create the wind frame and host windows until it is closed.")
	path := fs.String("path", "", "Config file path (default: <config dir>/wind/config.yaml)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := res.Config

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	if res.File != "" {
		logger.Info("configuration loaded", "file", res.File)
	} else {
		logger.Info("no config file found, using defaults")
	}

	backend, err := platform.New()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Close()

	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		log.Fatalf("Failed to resolve IPC socket: %v", err)
	}
	configDir, err := config.ConfigDir()
	if err != nil {
		log.Fatalf("Failed to resolve config directory: %v", err)
	}

	d, err := daemon.New(daemon.Options{
		Config:      cfg,
		Backend:     backend,
		SocketPath:  socketPath,
		SessionPath: session.Path(configDir),
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("Failed to create daemon: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		logger.Error("daemon stopped with errors", "error", err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "wind status", "Show daemon status via IPC.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("tab_count:      %d\n", status.TabCount)
	fmt.Printf("active_tab:     %s\n", displayOrNone(status.ActiveTabID))
	fmt.Printf("tiled_count:    %d\n", status.TiledCount)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  wind config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  wind config print [--path PATH] [--defaults|--sources]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: <config dir>/wind/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if res.File == "" {
			fmt.Println("config: ok (defaults, no file)")
			return 0
		}
		fmt.Printf("config: ok (%s)\n", res.File)
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: <config dir>/wind/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		printSources := fs.Bool("sources", false, "Print where each file-set key came from")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		if *printDefaults {
			return printYAML(config.DefaultConfig())
		}

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if *printSources {
			keys := make([]string, 0, len(res.Sources))
			for k := range res.Sources {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s\t%s\n", k, res.Sources[k])
			}
			return 0
		}
		return printYAML(res.Config)

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func printYAML(v any) int {
	data, err := yaml.Marshal(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(string(data))
	return 0
}

func displayOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
