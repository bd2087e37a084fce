package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ragagent/internal/config"
	"ragagent/internal/domain"
	"ragagent/internal/logging"
	"ragagent/internal/server"
	"ragagent/internal/tui"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ragagent",
		Short: "Question answering over a local text corpus",
		Long: `ragagent answers questions about a directory of .txt documents.
Questions are routed to a calculator, a dictionary, the retrieval pipeline,
or a mix of a tool and retrieval. Without a subcommand the interactive TUI starts.`,
		SilenceUsage: true,
		RunE:         runTUI,
	}
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(newTUICmd(), newAskCmd(), newServeCmd(), newInitConfigCmd())
	return root
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(cmd.Flags())
	if err != nil {
		return err
	}

	// The alt screen owns stdout, so logs go to a file.
	logOut, closeLog := tuiLogWriter()
	defer closeLog()
	log, err := logging.New(cfg.LogLevel, logOut)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Watch {
		w := a.watcher()
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error().Err(err).Msg("watcher stopped")
			}
		}()
	}

	m := tui.New(ctx, a.orch, a, tui.Options{})
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// tuiLogWriter opens ragagent.log in the user cache directory, discarding
// logs when that is not possible.
func tuiLogWriter() (io.Writer, func()) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return io.Discard, func() {}
	}
	dir = filepath.Join(dir, "ragagent")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "ragagent.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { _ = f.Close() }
}

func newAskCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer a single question and exit",
		Example: `  ragagent ask "What does RAGent Search do?"
  ragagent ask calculate 12 * 7
  ragagent ask --json define serendipity`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(cmd.Flags())
			if err != nil {
				return err
			}
			log, err := logging.NewConsole(cfg.LogLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.orch.Process(cmd.Context(), strings.Join(args, " "))
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}

func printResult(w io.Writer, res domain.QueryResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", res.Decision)
	if res.ToolUsed != nil && res.ToolOutput != nil {
		fmt.Fprintf(&b, "Tool `%s`: %s\n\n", *res.ToolUsed, *res.ToolOutput)
	}
	b.WriteString(res.Answer)
	if len(res.RetrievedContext) > 0 {
		b.WriteString("\n\n---\n")
		for _, c := range res.RetrievedContext {
			fmt.Fprintf(&b, "\n- `%s` #%d (score %.3f)", c.Metadata.Source, c.Metadata.ChunkID, c.Score)
		}
	}

	out := b.String() + "\n"
	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80)); err == nil {
		if rendered, err := r.Render(b.String()); err == nil {
			out = rendered
		}
	}
	_, err := io.WriteString(w, out)
	return err
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the question-answering API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(cmd.Flags())
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel, os.Stderr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(ctx, a, log)
		},
	}
}

func serve(ctx context.Context, a *app, log zerolog.Logger) error {
	opts := server.Options{HistoryLimit: a.cfg.History.Limit, Stats: a.index}
	if a.history != nil {
		opts.History = a.history
	}
	h := server.Handler(a.orch, opts, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(gctx, a.cfg.Server.Addr, h, log)
	})
	if a.cfg.Watch {
		w := a.watcher()
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	return g.Wait()
}

func newInitConfigCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write the default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultUserConfigPath()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
