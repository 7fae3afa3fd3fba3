package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"epias-report/internal/auth"
	"epias-report/internal/config"
	report "epias-report/internal/report/domain"
	reportinterfaces "epias-report/internal/report/interfaces"
)

type serveCmd struct {
	cfg    config.Config
	logger *log.Logger
	addr   string
}

// NewServeCmd builds the HTTP server command.
func NewServeCmd(cfg config.Config, logger *log.Logger) *cobra.Command {
	sc := &serveCmd{cfg: cfg, logger: logger}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve report generation over HTTP",
		RunE:  sc.run,
	}
	cmd.Flags().StringVar(&sc.addr, "addr", cfg.HTTPAddr, "Listen address")
	return cmd
}

func (sc *serveCmd) run(cmd *cobra.Command, _ []string) error {
	if sc.cfg.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	catalog, err := sc.cfg.Catalog()
	if err != nil {
		return err
	}
	svc, err := newService(sc.cfg, catalog, sc.logger)
	if err != nil {
		return err
	}
	reportHandler, err := reportinterfaces.NewReportHandler(svc,
		reportinterfaces.WithDefaultCredentials(sc.cfg.Username, sc.cfg.Password),
		reportinterfaces.WithHandlerLogger(sc.logger),
	)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              sc.addr,
		Handler:           NewRouter(reportHandler, catalog, []byte(sc.cfg.JWTSecret), sc.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	sc.logger.Printf("http listening on %s", sc.addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewRouter mounts the report API behind JWT auth.
func NewRouter(reports http.Handler, catalog []report.Category, secret []byte, logger *log.Logger) http.Handler {
	policy := auth.NewPolicy("/healthz", "/metrics")
	authMiddleware := auth.NewMiddleware(secret, policy, logger)

	mux := http.NewServeMux()
	mux.Handle(auth.RouteReports, reports)
	mux.Handle(auth.RouteCategories, reportinterfaces.NewCatalogHandler(catalog))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return loggingMiddleware(authMiddleware.Wrap(mux), logger)
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
