package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"todoease/internal/config"
	"todoease/internal/database"
	"todoease/internal/importer"
	"todoease/internal/logging"
	"todoease/internal/ordering"
	"todoease/internal/repositories"
	"todoease/internal/routes"
	"todoease/internal/services"
)

const usage = `Usage:
  todoease [serve] [flags]          start the HTTP server
  todoease import [flags] <file>    import tasks from a YAML file ("-" for stdin)
  todoease export [flags] [file]    export all tasks as YAML (stdout by default)

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "todoease:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve", "import", "export":
	default:
		return fmt.Errorf("unknown command %q (want serve, import or export)", cmd)
	}

	flags := flag.NewFlagSet("todoease "+cmd, flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprint(flags.Output(), usage)
		flags.PrintDefaults()
	}
	cfg, err := config.Load(flags, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	logOpts := logging.DefaultOptions()
	logOpts.Level = cfg.LogLevel
	logOpts.Format = cfg.LogFormat
	logger, err := logging.New(logOpts)
	if err != nil {
		return err
	}
	if cfg.ConfigFile != "" {
		logger.Debug("config file loaded", "path", cfg.ConfigFile)
	}

	db, err := database.Open(ctx, cfg.DatabaseOptions())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	switch cmd {
	case "import":
		return runImport(ctx, cfg, db, logger, flags.Args(), stdin)
	case "export":
		return runExport(ctx, cfg, db, flags.Args(), stdout)
	default:
		return serve(ctx, cfg, db, logger)
	}
}

func serve(ctx context.Context, cfg *config.Config, db *sql.DB, logger *log.Logger) error {
	if logger.GetLevel() > log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	router := routes.SetupRouter(db, routes.Options{
		Logger:       logger,
		AllowOrigins: cfg.AllowOrigins,
		OrderPolicy:  cfg.OrderPolicy(),
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr, "db", cfg.DBDriver, "data_dir", cfg.DataDir, "order_append", cfg.OrderAppend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func newTaskService(cfg *config.Config, db *sql.DB) *services.TaskService {
	order := ordering.NewMaintainer(cfg.OrderPolicy())
	return services.NewTaskService(
		repositories.NewTaskRepository(db, order),
		repositories.NewSubTaskRepository(db, order),
	)
}

func runImport(ctx context.Context, cfg *config.Config, db *sql.DB, logger *log.Logger, args []string, stdin io.Reader) error {
	if len(args) != 1 {
		return errors.New("import needs exactly one file argument")
	}
	in := stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	n, err := importer.Import(ctx, newTaskService(cfg, db), in)
	if err != nil {
		return fmt.Errorf("import %s (%d tasks added before the error): %w", args[0], n, err)
	}
	logger.Info("import finished", "file", args[0], "tasks", n)
	return nil
}

func runExport(ctx context.Context, cfg *config.Config, db *sql.DB, args []string, stdout io.Writer) error {
	if len(args) > 1 {
		return errors.New("export takes at most one file argument")
	}
	if len(args) == 0 || args[0] == "-" {
		return importer.Export(ctx, newTaskService(cfg, db), stdout)
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := importer.Export(ctx, newTaskService(cfg, db), f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
