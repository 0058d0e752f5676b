// Command scribe opens, edits and converts .txt and .docx documents.
//
// Usage:
//
//	scribe open notes.docx                 # print the renderable content as JSON
//	scribe create draft.txt                # create or truncate a file
//	echo "<p>hi</p>" | scribe write a.docx # replace a document's content from stdin
//	scribe export report.docx              # print Markdown
//	scribe recent [--limit 5] [--clear]    # recently opened documents
//	scribe serve [--addr :8086] [--mcp]    # HTTP intents, or MCP over stdio
//
// --root confines every document path to one directory; use it with serve.
// Configuration comes from --config (or SCRIBE_CONFIG), the log level from
// --log-level (or SCRIBE_LOG_LEVEL). A .env file in the working directory
// is loaded first.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/scribe/editor"
	"github.com/hazyhaar/scribe/shield"
)

const (
	version = "0.4.0"

	maxRequestBody = 128 << 20
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the persistent flags shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	recentDB   string
	root       string
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "scribe",
		Short:         "Edit and convert plain-text and Word documents",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := parseLevel(a.logLevel)
			if err != nil {
				return err
			}
			a.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("SCRIBE_CONFIG"), "path to scribe.yaml")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", envOr("SCRIBE_LOG_LEVEL", "warn"), "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.recentDB, "recent-db", "", "recent-documents database (overrides config)")
	root.PersistentFlags().StringVar(&a.root, "root", "", "confine document paths to this directory (overrides config)")

	root.AddCommand(
		a.openCmd(),
		a.createCmd(),
		a.writeCmd(),
		a.exportCmd(),
		a.recentCmd(),
		a.serveCmd(),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

func (a *app) config() (editor.Config, error) {
	cfg := editor.Config{}
	if a.configPath != "" {
		loaded, err := editor.LoadConfigFile(a.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	if a.recentDB != "" {
		cfg.RecentDB = a.recentDB
	}
	if a.root != "" {
		cfg.Root = a.root
	}
	return cfg, nil
}

// withEditor builds an editor for one command and closes it afterwards,
// reporting pending save errors.
func (a *app) withEditor(ctx context.Context, fn func(*editor.Editor) error) (err error) {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	ed, err := editor.New(cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, ed.Close(context.WithoutCancel(ctx)))
	}()
	return fn(ed)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open PATH",
		Short: "Open a document and print its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEditor(cmd.Context(), func(ed *editor.Editor) error {
				opened, err := ed.Session().Open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), opened)
			})
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create PATH",
		Short: "Create or truncate a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEditor(cmd.Context(), func(ed *editor.Editor) error {
				path, err := ed.Session().Create(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
}

func (a *app) writeCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "write PATH",
		Short: "Replace a document's content (markup for .docx) from stdin or --from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd.InOrStdin(), from)
			if err != nil {
				return err
			}
			return a.withEditor(cmd.Context(), func(ed *editor.Editor) error {
				ctx := cmd.Context()
				sess := ed.Session()
				if _, err := sess.Open(ctx, args[0]); err != nil {
					if !errors.Is(err, fs.ErrNotExist) {
						return err
					}
					if _, err := sess.Create(ctx, args[0]); err != nil {
						return err
					}
				}
				if err := sess.UpdateContent(ctx, content); err != nil {
					return err
				}
				if err := sess.Flush(ctx); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), sess.State())
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "-", "file to read content from (- for stdin)")
	return cmd
}

func readInput(stdin io.Reader, from string) (string, error) {
	if from == "" || from == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(from)
	return string(data), err
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export PATH",
		Short: "Print a document as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEditor(cmd.Context(), func(ed *editor.Editor) error {
				pipe := ed.Pipeline()
				doc, err := pipe.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				md, err := pipe.ToMarkdown(doc)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), md)
				return nil
			})
		},
	}
}

func (a *app) recentCmd() *cobra.Command {
	var (
		limit    int
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List or clear recently opened documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEditor(cmd.Context(), func(ed *editor.Editor) error {
				if clearAll {
					return ed.Recent().Clear(cmd.Context())
				}
				entries, err := ed.Recent().List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum entries (default: recent_limit)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "forget all entries")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var (
		addr   string
		useMCP bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve document intents over HTTP, or as MCP tools on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEditor(cmd.Context(), func(ed *editor.Editor) error {
				if useMCP {
					return serveMCP(cmd.Context(), ed)
				}
				if addr == "" {
					addr = ed.Config().HTTPAddr
				}
				return serveHTTP(cmd.Context(), a.logger, ed, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: http_addr)")
	cmd.Flags().BoolVar(&useMCP, "mcp", false, "serve MCP over stdin/stdout instead of HTTP")
	return cmd
}

func serveMCP(ctx context.Context, ed *editor.Editor) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "scribe", Version: version}, nil)
	ed.RegisterMCP(srv)
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func newHTTPHandler(ed *editor.Editor) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	for _, mw := range shield.APIStack(maxRequestBody) {
		r.Use(mw)
	}
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","version":%q}`, version)
	})
	ed.Routes(r)
	return r
}

func serveHTTP(ctx context.Context, logger *slog.Logger, ed *editor.Editor, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newHTTPHandler(ed),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr, "session", ed.Session().ID())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
