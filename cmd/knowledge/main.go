package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"knowledge-tool/internal/app"
	"knowledge-tool/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// cli carries the flags shared by every command.
type cli struct {
	dbPath string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "knowledge",
		Short:         "A personal knowledge base and journal",
		Long:          `Manage notes and journal entries stored in a local SQLite database, search them, and serve them over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.dbPath, "dbpath", "", "Path to the SQLite database (overrides DB_PATH)")

	completionCmd := &cobra.Command{
		Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for knowledge.

  Bash:
    $ source <(knowledge completion bash)

  Zsh:
    $ knowledge completion zsh > "${fpath[1]}/_knowledge"

  Fish:
    $ knowledge completion fish | source`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return rootCmd.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}

	rootCmd.AddCommand(
		completionCmd,
		c.serveCmd(),
		c.notesCmd(),
		c.trashCmd(),
		c.searchCmd(),
		c.journalCmd(),
		c.tagsCmd(),
		c.importCmd(),
	)
	return rootCmd
}

// open loads the configuration and builds the application. Logs go to stderr so that
// command output on stdout stays machine readable.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	return app.New(ctx, cfg, logger)
}

// withApp opens the application, runs fn and closes it again.
func (c *cli) withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := c.open(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("failed to close application", "error", err)
		}
	}()
	return fn(a)
}

func (c *cli) serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if port != "" {
				a.Config.APIPort = port
			}
			return a.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (overrides API_PORT)")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return err
}

func parseNoteID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid note id %q", arg)
	}
	return id, nil
}

// parseDay parses a YYYY-MM-DD flag value in local time. An empty value yields nil.
func parseDay(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("--%s must be a date in YYYY-MM-DD format", name)
	}
	return &t, nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
