package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"blogdesk/app/config"
	"blogdesk/app/controllers"
	"blogdesk/app/repositories"
	"blogdesk/app/routes"
	"blogdesk/app/services"
	"blogdesk/app/views"
	"blogdesk/state"

	"github.com/dgraph-io/badger/v4"
)

const cliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches the subcommand in os.Args.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("blogdesk version %s\n", cliVersion)
	case "serve":
		if err := serve(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exit(1)
		}
	case "state":
		flags, rest := splitConfigFlag(os.Args[2:])
		cfg, err := loadConfig(flags)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exit(1)
			return
		}
		c := &state.Commands{DBPath: cfg.State.Path, In: os.Stdin, Out: os.Stdout}
		if err := c.Handle(rest); err != nil {
			if !errors.Is(err, state.ErrUsage) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			exit(1)
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: blogdesk <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve [-config <path>]         Run the blog page in front of the blog API.
  state <command>                Maintain the view state database (clean, backup, restore).

The config path may also be set with CONFIG_PATH (default ./config/config.json).
`
	fmt.Println(helpText)
}

// splitConfigFlag pulls "-config <path>" out of args, wherever it appears.
func splitConfigFlag(args []string) (flags, rest []string) {
	for i := 0; i < len(args); i++ {
		if args[i] == "-config" || args[i] == "--config" {
			flags = append(flags, args[i:min(i+2, len(args))]...)
			i++
			continue
		}
		rest = append(rest, args[i])
	}
	return flags, rest
}

// loadConfig resolves the config path from flags, CONFIG_PATH or the default.
func loadConfig(flags []string) (*config.Config, error) {
	path, err := config.FetchPath(flags)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// serve wires the application and runs it until interrupted.
func serve(args []string) error {
	flags, _ := splitConfigFlag(args)
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	log := setUpLogger(cfg.Env, os.Stdout)
	log.Info("logger was initialized", slog.String("env", cfg.Env))

	opts := badger.DefaultOptions(cfg.State.Path).WithLogger(nil)
	if cfg.State.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open view state: %w", err)
	}
	defer db.Close()

	router := newRouter(cfg, db, log)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting blog page",
			slog.String("addr", cfg.HTTP.Addr),
			slog.String("api", cfg.API.BaseURL),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter builds the full handler stack over an open view state database.
func newRouter(cfg *config.Config, db *badger.DB, log *slog.Logger) http.Handler {
	client := &http.Client{Timeout: cfg.API.Timeout.Duration}
	posts := repositories.NewAPIPostRepository(cfg.API.BaseURL, client)
	states := repositories.NewBadgerViewStateRepository(db, cfg.Flash.TTL.Duration)

	service := services.NewBlogService(posts, states, log)
	blog := controllers.NewBlogController(service, views.MustNew(nil), log)

	return routes.SetupRoutes(blog, log, cfg.Cookie.Name)
}

// setUpLogger returns set logger according to current environment
func setUpLogger(env string, w io.Writer) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case config.EnvProd:
		log = slog.New(
			slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}
