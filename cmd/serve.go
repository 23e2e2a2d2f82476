package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"todolist/config/database"
	"todolist/internal/todo/repository"
	"todolist/internal/todo/service"
	"todolist/internal/todo/view"
	"todolist/pkg/logger"
	"todolist/router"
	"todolist/socket"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var (
	servePort     int
	serveInMemory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Connects to Postgres, creates the lists table if needed and serves the
to-do pages. SIGINT or SIGTERM stops the server and closes the database.`,
	RunE: runServe,
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (overrides PORT)")
	cmd.Flags().BoolVar(&serveInMemory, "in-memory", false, "keep lists in process memory instead of Postgres")
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != 0 {
		cfg.Port = servePort
	}
	if err := cfg.Validate(!serveInMemory); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx)
	if err != nil {
		logger.Sugar.Errorf("Error connecting to database: %v", err)
		return err
	}
	defer closeStore()

	renderer, err := view.NewRenderer()
	if err != nil {
		return err
	}

	hub := socket.NewHub(store)
	svc := service.NewTodoService(store, hub)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Setup(svc, renderer, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Sugar.Infof("Server is up and running on port %d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Sugar.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Sugar.Warnf("Server shutdown did not complete cleanly: %v", err)
		}
		return nil
	})

	return g.Wait()
}

// openStore returns the persistence gateway and a func that releases it.
func openStore(ctx context.Context) (service.Store, func(), error) {
	if serveInMemory {
		logger.Sugar.Warn("Using in-memory store; lists are lost on restart")
		return repository.NewMemoryRepository(), func() {}, nil
	}

	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewListRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		database.Close(db)
		return nil, nil, err
	}
	return repo, func() { database.Close(db) }, nil
}
