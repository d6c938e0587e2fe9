package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"diagnostics-dashboard/catalog"
	"diagnostics-dashboard/objstore"
	"diagnostics-dashboard/upload"
)

// batchReader reads the upload journal.
type batchReader interface {
	GetUploadBatch(ctx context.Context, batchID string) (*upload.Batch, error)
	ListUploadBatchesByService(ctx context.Context, serviceID string, limit int) ([]*upload.Batch, error)
}

// Handlers holds dependencies shared by HTTP handlers.
type Handlers struct {
	Cfg      Config
	Log      zerolog.Logger
	Store    objstore.Store
	Uploader *upload.Uploader
	Batches  batchReader // nil when the Firestore journal is disabled
	Bucket   string      // bucket name for signed URLs; empty for the memory backend
}

// Routes builds the HTTP router.
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Log))
	r.Use(withCORS(h.Cfg.CORSAllowedOrigin))

	r.Get("/", h.DashboardHandler)
	r.Get("/health", h.HealthHandler)
	r.Get("/service/{serviceID}", h.RecordingPageHandler)

	r.Route("/api/services", func(r chi.Router) {
		r.Get("/", h.ListServicesHandler)
		r.Get("/{serviceID}/status", h.ServiceStatusHandler)
		r.Get("/{serviceID}/files", h.ListServiceFilesHandler)
		r.Get("/{serviceID}/batches", h.ListServiceBatchesHandler)
		r.Post("/{serviceID}/upload", h.UploadFilesHandler)
		r.Post("/{serviceID}/upload-url", h.UploadURLHandler)
	})
	r.Get("/api/batches/{batchID}", h.GetBatchHandler)
	return r
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "diagnostics-dashboard",
		Short:         "Diagnostic services dashboard and upload server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(servicesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func servicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Print the service catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			services := catalog.All()
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(services)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tINPUT")
			for _, s := range services {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Title, s.InputDescription())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "Print the catalog as JSON")
	return cmd
}

func runServer() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout)

	if err := catalog.Validate(catalog.All()); err != nil {
		return fmt.Errorf("service catalog: %w", err)
	}

	ctx := context.Background()

	var (
		store  objstore.Store
		bucket string
	)
	switch cfg.StorageBackend {
	case backendMemory:
		logger.Warn().Msg("using in-memory object store; uploads are lost on restart")
		store = objstore.NewMemoryStore()
	default:
		bs, err := objstore.OpenFirebaseBucket(ctx, objstore.FirebaseOptions{
			ProjectID:       cfg.ProjectID,
			Bucket:          cfg.StorageBucket,
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		store = bs
		bucket = bs.Name()
	}

	var (
		journal upload.Journal
		batches batchReader
	)
	if cfg.FirestoreEnabled {
		fsdb, err := NewFirestoreDB(ctx, cfg.ProjectID)
		if err != nil {
			return fmt.Errorf("init firestore: %w", err)
		}
		defer func() {
			if err := fsdb.Close(); err != nil {
				logger.Error().Err(err).Msg("closing Firestore client")
			}
		}()
		journal = fsdb
		batches = fsdb
	}

	if bucket != "" {
		cfg.SignedURLServiceAccountEmail, cfg.SignedURLPrivateKey = loadSigningCreds(ctx, cfg.ProjectID, cfg.SignedURLSecretID, logger)
	}

	h := &Handlers{
		Cfg:      cfg,
		Log:      logger,
		Store:    store,
		Uploader: upload.NewUploader(store, upload.NewStatusStore(), journal, logger),
		Batches:  batches,
		Bucket:   bucket,
	}

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", addr).
			Str("project", cfg.ProjectID).
			Str("storage", cfg.StorageBackend).
			Str("bucket", bucket).
			Bool("journal", journal != nil).
			Msg("diagnostics dashboard listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-stop:
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
