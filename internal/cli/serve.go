package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/shop_catalog/internal/document"
	"github.com/Skotchmaster/shop_catalog/internal/httpserver"
	"github.com/Skotchmaster/shop_catalog/internal/mykafka"
	"github.com/Skotchmaster/shop_catalog/internal/search"
	"github.com/Skotchmaster/shop_catalog/internal/service"
	"github.com/Skotchmaster/shop_catalog/internal/session"
	"github.com/Skotchmaster/shop_catalog/internal/uploads"
	authmw "github.com/Skotchmaster/shop_catalog/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/shop_catalog/pkg/middleware/logging"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	Port int
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "listen port (overrides SERVER_PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, rootOpts *RootOptions, opts *serveOptions) error {
	cfg := rootOpts.cfg
	logger := rootOpts.logger
	if opts.Port > 0 {
		cfg.ServerPort = opts.Port
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	st, err := openStores(openCtx, cfg, "")
	cancel()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer st.Close()

	res, err := document.ImportIfEmpty(ctx, st.Document, st.Repo)
	if err != nil {
		return fmt.Errorf("seed from document: %w", err)
	}
	if res.Imported > 0 || res.Skipped > 0 {
		logger.Info("document_imported", "imported", res.Imported, "skipped", res.Skipped)
	}
	if err := st.Document.Rebuild(ctx, st.Repo); err != nil {
		return fmt.Errorf("rebuild document: %w", err)
	}

	catalog := &service.CatalogService{
		Repo:     st.Repo,
		Document: st.Document,
		Images:   uploads.Store{Dir: cfg.UploadDir},
	}
	comments := &service.CommentService{Repo: st.Repo, Document: st.Document}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Warn("kafka_close_failed", "error", err)
			}
		}()
		catalog.Events = producer
		comments.Events = producer
	}

	if cfg.ESURL != "" {
		client, err := search.NewClient(search.ClientConfig{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword}, logger)
		if err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unreachable", "error", err)
		} else {
			indexer := search.NewESIndexer(client, cfg.ESIndex)
			catalog.Index = indexer
			comments.Index = indexer
		}
	}

	sessions, err := session.NewCookieStore(session.Config{
		Secret: cfg.SessionSecret,
		TTL:    cfg.SessionTTL,
		Secure: cfg.SessionSecure,
	})
	if err != nil {
		return err
	}

	renderer, err := httpserver.NewRenderer()
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:        &httpserver.AuthHTTP{Svc: &service.AuthService{Repo: st.Repo}, Sessions: sessions},
		CatalogHandler:     &httpserver.CatalogHTTP{Svc: catalog},
		CommentHandler:     &httpserver.CommentHTTP{Svc: comments},
		Sessions:           authmw.NewSessionMiddleware(sessions, "/login"),
		Ready:              st.Repo.Ping,
		StaticDir:          cfg.StaticDir,
		GuardCatalogWrites: cfg.GuardCatalogWrites,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "guard_catalog_writes", cfg.GuardCatalogWrites)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}

	logger.Info("stopped")
	return nil
}
